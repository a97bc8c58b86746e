package payment

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed plans.yaml
var defaultPlansYAML []byte

var (
	ErrPlanNotFound = errors.New("plan not found")
	ErrCustomPlan   = errors.New("custom plans are sold through sales")
)

const (
	KindTopup        = "topup"
	KindSubscription = "subscription"
)

// Plan is a purchasable credit pack or subscription
type Plan struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Kind        string   `yaml:"kind" json:"kind"`
	Interval    string   `yaml:"interval" json:"interval,omitempty"`
	Credits     int      `yaml:"credits" json:"credits"`
	Price       int64    `yaml:"price" json:"price"` // paise
	Currency    string   `yaml:"currency" json:"currency"`
	Popular     bool     `yaml:"popular" json:"popular"`
	Custom      bool     `yaml:"custom" json:"custom"`
	Description string   `yaml:"description" json:"description"`
	Features    []string `yaml:"features" json:"features"`
}

// DisplayPrice renders the price in rupees, e.g. ₹1,499
func (p Plan) DisplayPrice() string {
	if p.Custom {
		return "Custom"
	}
	rupees := p.Price / 100
	s := fmt.Sprintf("%d", rupees)
	if len(s) > 3 {
		s = s[:len(s)-3] + "," + s[len(s)-3:]
	}
	return "₹" + s
}

type catalogFile struct {
	Plans []Plan `yaml:"plans"`
}

// Catalog holds plans in display order
type Catalog struct {
	plans []Plan
	byID  map[string]Plan
}

// ParseCatalog reads a plans YAML document
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse plans: %w", err)
	}

	c := &Catalog{byID: make(map[string]Plan, len(f.Plans))}
	for _, p := range f.Plans {
		if p.ID == "" {
			return nil, fmt.Errorf("plan without id")
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate plan id %q", p.ID)
		}
		if p.Kind != KindTopup && p.Kind != KindSubscription {
			return nil, fmt.Errorf("plan %q: unknown kind %q", p.ID, p.Kind)
		}
		if !p.Custom && (p.Credits <= 0 || p.Price <= 0) {
			return nil, fmt.Errorf("plan %q: credits and price must be positive", p.ID)
		}
		if p.Currency == "" {
			p.Currency = "INR"
		}
		c.plans = append(c.plans, p)
		c.byID[p.ID] = p
	}
	return c, nil
}

// DefaultCatalog returns the built-in plans
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultPlansYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalog reads plans from path, or the built-in plans when path is empty
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plans file: %w", err)
	}
	return ParseCatalog(data)
}

func (c *Catalog) Get(id string) (Plan, error) {
	p, ok := c.byID[id]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	return p, nil
}

// List returns plans of the given kind, or all plans when kind is empty
func (c *Catalog) List(kind string) []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		if kind == "" || p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}
