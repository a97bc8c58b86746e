package models

// All lists every studio table for auto-migration
func All() []interface{} {
	return []interface{}{
		&Brand{},
		&ScheduledPost{},
		&SocialToken{},
		&CreditTransaction{},
		&PaymentOrder{},
	}
}
