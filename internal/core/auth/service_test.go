package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/addinfi/makemyposts-be/internal/modules/studio/models"
	"github.com/addinfi/makemyposts-be/internal/testutil"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := testutil.OpenGormDB(t, &Profile{}, &models.CreditTransaction{})
	return NewService(db, testSecret, 2)
}

func TestLoginWithGoogle_CreatesProfileWithSignupCredits(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	resp, err := svc.LoginWithGoogle(ctx, &GoogleUserInfo{GoogleID: "g-1", Email: "riya@example.com", Name: "Riya"})
	if err != nil {
		t.Fatalf("LoginWithGoogle: %v", err)
	}
	if !resp.NewUser {
		t.Fatalf("expected new user on first sign-in")
	}
	if resp.User.Credits != 2 {
		t.Fatalf("credits = %d, want 2", resp.User.Credits)
	}
	if resp.User.Settings.Language != "en" || resp.User.Settings.Timezone != "UTC" {
		t.Fatalf("unexpected default preferences: %+v", resp.User.Settings)
	}

	again, err := svc.LoginWithGoogle(ctx, &GoogleUserInfo{GoogleID: "g-1", Email: "riya@example.com"})
	if err != nil {
		t.Fatalf("second LoginWithGoogle: %v", err)
	}
	if again.NewUser || again.User.ID != resp.User.ID {
		t.Fatalf("second sign-in should reuse profile %s, got %+v", resp.User.ID, again.User)
	}
}

func TestLoginWithGoogle_LinksExistingEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	existing := &Profile{Email: "dev@example.com", Name: "Dev", Credits: 40}
	if err := svc.repo.Create(ctx, existing); err != nil {
		t.Fatalf("create: %v", err)
	}

	resp, err := svc.LoginWithGoogle(ctx, &GoogleUserInfo{GoogleID: "g-9", Email: "dev@example.com"})
	if err != nil {
		t.Fatalf("LoginWithGoogle: %v", err)
	}
	if resp.User.ID != existing.ID.String() || resp.User.Credits != 40 {
		t.Fatalf("expected linked profile, got %+v", resp.User)
	}

	linked, err := svc.repo.GetByGoogleID(ctx, "g-9")
	if err != nil || linked.ID != existing.ID {
		t.Fatalf("google id not linked: %v", err)
	}
}

func TestRefreshToken_RotatesAndRejectsOldToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.LoginWithGoogle(ctx, &GoogleUserInfo{GoogleID: "g-2", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("LoginWithGoogle: %v", err)
	}

	second, err := svc.RefreshToken(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatalf("refresh token was not rotated")
	}
	if _, err := svc.RefreshToken(ctx, first.RefreshToken); err == nil {
		t.Fatalf("old refresh token should be rejected after rotation")
	}
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	resp, err := svc.LoginWithGoogle(ctx, &GoogleUserInfo{GoogleID: "g-3", Email: "b@example.com"})
	if err != nil {
		t.Fatalf("LoginWithGoogle: %v", err)
	}
	if err := svc.Logout(ctx, resp.User.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.RefreshToken(ctx, resp.RefreshToken); err == nil {
		t.Fatalf("expected refresh to fail after logout")
	}
}

func TestUpdatePreferences_FillsDefaults(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	resp, err := svc.LoginWithGoogle(ctx, &GoogleUserInfo{GoogleID: "g-4", Email: "c@example.com"})
	if err != nil {
		t.Fatalf("LoginWithGoogle: %v", err)
	}

	profile, err := svc.UpdatePreferences(ctx, resp.User.ID, Preferences{Notifications: false, PublicProfile: true})
	if err != nil {
		t.Fatalf("UpdatePreferences: %v", err)
	}
	got := profile.Preferences.Data()
	if !got.PublicProfile || got.Notifications || got.Language != "en" || got.Timezone != "UTC" {
		t.Fatalf("unexpected preferences: %+v", got)
	}

	if _, err := svc.Profile(ctx, "00000000-0000-0000-0000-000000000000"); err != ErrProfileNotFound {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestUserInfoFromClaims(t *testing.T) {
	cases := []struct {
		name    string
		claims  map[string]interface{}
		wantErr bool
	}{
		{"verified", map[string]interface{}{"sub": "1", "email": "x@y.z", "email_verified": true, "name": "X"}, false},
		{"unverified", map[string]interface{}{"sub": "1", "email": "x@y.z", "email_verified": false}, true},
		{"missing sub", map[string]interface{}{"email": "x@y.z", "email_verified": true}, true},
		{"missing email", map[string]interface{}{"sub": "1", "email_verified": true}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := userInfoFromClaims(tc.claims)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestLoginWithGoogle_RecordsSignupGrant(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	resp, err := svc.LoginWithGoogle(ctx, &GoogleUserInfo{GoogleID: "g-2", Email: "asha@example.com"})
	if err != nil {
		t.Fatalf("LoginWithGoogle: %v", err)
	}

	var rows []models.CreditTransaction
	if err := svc.repo.db.Where("user_id = ?", resp.User.ID).Find(&rows).Error; err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("ledger rows = %d, want 1", len(rows))
	}
	if rows[0].Reason != models.CreditReasonSignup || rows[0].Delta != 2 || rows[0].BalanceAfter != 2 {
		t.Fatalf("unexpected signup row: %+v", rows[0])
	}

	// Signing in again adds nothing.
	if _, err := svc.LoginWithGoogle(ctx, &GoogleUserInfo{GoogleID: "g-2", Email: "asha@example.com"}); err != nil {
		t.Fatalf("second LoginWithGoogle: %v", err)
	}
	var n int64
	svc.repo.db.Model(&models.CreditTransaction{}).Where("user_id = ?", resp.User.ID).Count(&n)
	if n != 1 {
		t.Fatalf("ledger rows after second sign-in = %d, want 1", n)
	}
}

func TestLoginWithGoogle_ReusesProfileCreatedConcurrently(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	db := svc.repo.db

	// Another sign-in creates the profile right after this one finds no
	// match by email.
	other := &Profile{Email: "sam@example.com", GoogleID: "g-3", Credits: 2}
	created := false
	err := db.Callback().Query().After("gorm:query").Register("test:other_signup", func(tx *gorm.DB) {
		if created || tx.Statement.Table != "profiles" || !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return
		}
		if len(tx.Statement.Vars) == 0 || tx.Statement.Vars[0] != "sam@example.com" {
			return
		}
		created = true
		if err := db.Session(&gorm.Session{NewDB: true}).Create(other).Error; err != nil {
			t.Errorf("create other profile: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	resp, err := svc.LoginWithGoogle(ctx, &GoogleUserInfo{GoogleID: "g-3", Email: "sam@example.com"})
	if err != nil {
		t.Fatalf("LoginWithGoogle: %v", err)
	}
	if !created {
		t.Fatalf("concurrent profile was never created")
	}
	if resp.NewUser || resp.User.ID != other.ID.String() {
		t.Fatalf("expected the concurrently created profile %s, got %+v (new=%v)", other.ID, resp.User, resp.NewUser)
	}

	var n int64
	db.Model(&models.CreditTransaction{}).Count(&n)
	if n != 0 {
		t.Fatalf("failed create left %d ledger rows", n)
	}
}
