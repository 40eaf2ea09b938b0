// Package taxonomy holds the closed category and payment-method
// enumerations, the theme grouping, and the text classifier that maps free
// text onto them.
package taxonomy

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"expensedash/internal/core"
)

// Definition is the configuration form of a taxonomy, as loaded from YAML.
type Definition struct {
	Name                  string              `yaml:"name"`
	Categories            []string            `yaml:"categories"`
	PaymentMethods        []string            `yaml:"payment_methods"`
	CreditCard            string              `yaml:"credit_card"`
	FallbackPaymentMethod string              `yaml:"fallback_payment_method"`
	Themes                map[string][]string `yaml:"themes"`
}

// Taxonomy is a validated, immutable Definition with lookup indexes.
type Taxonomy struct {
	name           string
	categories     []core.Category
	paymentMethods []core.PaymentMethod
	creditCard     core.PaymentMethod
	fallbackMethod core.PaymentMethod
	themes         map[core.Category]core.Theme

	categoryIndex map[string]core.Category
	methodIndex   map[string]core.PaymentMethod
}

var validThemes = map[core.Theme]bool{
	core.CostOfLiving: true,
	core.GoingOut:     true,
	core.Incidentals:  true,
	core.OtherTheme:   true,
}

// New validates def and builds a Taxonomy from it.
func New(def Definition) (*Taxonomy, error) {
	var problems []string

	t := &Taxonomy{
		name:          strings.TrimSpace(def.Name),
		themes:        make(map[core.Category]core.Theme),
		categoryIndex: make(map[string]core.Category),
		methodIndex:   make(map[string]core.PaymentMethod),
	}

	for _, c := range def.Categories {
		c = strings.TrimSpace(c)
		if c == "" {
			problems = append(problems, "empty category name")
			continue
		}
		k := key(c)
		if _, dup := t.categoryIndex[k]; dup {
			problems = append(problems, fmt.Sprintf("duplicate category %q", c))
			continue
		}
		t.categoryIndex[k] = core.Category(c)
		t.categories = append(t.categories, core.Category(c))
	}
	if _, ok := t.categoryIndex[key(string(core.Miscellaneous))]; !ok {
		problems = append(problems, fmt.Sprintf("categories must include %q", core.Miscellaneous))
	}

	for _, m := range def.PaymentMethods {
		m = strings.TrimSpace(m)
		if m == "" {
			problems = append(problems, "empty payment method")
			continue
		}
		k := key(m)
		if _, dup := t.methodIndex[k]; dup {
			problems = append(problems, fmt.Sprintf("duplicate payment method %q", m))
			continue
		}
		t.methodIndex[k] = core.PaymentMethod(m)
		t.paymentMethods = append(t.paymentMethods, core.PaymentMethod(m))
	}
	if len(t.paymentMethods) == 0 {
		problems = append(problems, "at least one payment method is required")
	}

	if cc := strings.TrimSpace(def.CreditCard); cc != "" {
		m, ok := t.methodIndex[key(cc)]
		if !ok {
			problems = append(problems, fmt.Sprintf("credit card method %q is not a payment method", cc))
		}
		t.creditCard = m
	}

	fallback := strings.TrimSpace(def.FallbackPaymentMethod)
	if fallback == "" && len(t.paymentMethods) > 0 {
		fallback = string(t.paymentMethods[len(t.paymentMethods)-1])
	}
	if m, ok := t.methodIndex[key(fallback)]; ok {
		t.fallbackMethod = m
	} else if fallback != "" {
		problems = append(problems, fmt.Sprintf("fallback payment method %q is not a payment method", fallback))
	}

	for theme, cats := range def.Themes {
		th := core.Theme(strings.TrimSpace(theme))
		if !validThemes[th] {
			problems = append(problems, fmt.Sprintf("unknown theme %q", theme))
			continue
		}
		for _, c := range cats {
			cat, ok := t.categoryIndex[key(c)]
			if !ok {
				problems = append(problems, fmt.Sprintf("theme %q lists unknown category %q", theme, c))
				continue
			}
			if prev, taken := t.themes[cat]; taken && prev != th {
				problems = append(problems, fmt.Sprintf("category %q assigned to themes %q and %q", cat, prev, th))
				continue
			}
			t.themes[cat] = th
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("taxonomy %q invalid:\n- %s", t.name, strings.Join(problems, "\n- "))
	}
	return t, nil
}

// Load reads a YAML taxonomy definition from path.
func Load(path string) (*Taxonomy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file: %w", err)
	}
	var def Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse taxonomy file %s: %w", path, err)
	}
	if def.Name == "" {
		def.Name = path
	}
	return New(def)
}

// Preset returns a built-in taxonomy by name.
func Preset(name string) (*Taxonomy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PresetPersonal:
		return New(Personal())
	case PresetHousehold:
		return New(Household())
	default:
		return nil, errors.New("unknown taxonomy preset: " + name)
	}
}

func key(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Name returns the taxonomy's configured name.
func (t *Taxonomy) Name() string { return t.name }

// Categories returns the categories in configured order.
func (t *Taxonomy) Categories() []core.Category {
	return append([]core.Category(nil), t.categories...)
}

// PaymentMethods returns the payment methods in configured order.
func (t *Taxonomy) PaymentMethods() []core.PaymentMethod {
	return append([]core.PaymentMethod(nil), t.paymentMethods...)
}

// Category resolves free text to a configured category, ignoring case and
// surrounding whitespace.
func (t *Taxonomy) Category(s string) (core.Category, bool) {
	c, ok := t.categoryIndex[key(s)]
	return c, ok
}

// CategoryOrFallback resolves s or returns Miscellaneous.
func (t *Taxonomy) CategoryOrFallback(s string) core.Category {
	if c, ok := t.Category(s); ok {
		return c
	}
	return core.Miscellaneous
}

// PaymentMethod resolves free text to a configured payment method.
func (t *Taxonomy) PaymentMethod(s string) (core.PaymentMethod, bool) {
	m, ok := t.methodIndex[key(s)]
	return m, ok
}

// FallbackPaymentMethod is the method unknown input is coerced to.
func (t *Taxonomy) FallbackPaymentMethod() core.PaymentMethod { return t.fallbackMethod }

// IsCreditCard reports whether m is the configured credit-card method.
func (t *Taxonomy) IsCreditCard(m core.PaymentMethod) bool {
	return t.creditCard != "" && m == t.creditCard
}

// Theme maps any category, known or not, onto one of the four themes.
func (t *Taxonomy) Theme(c core.Category) core.Theme {
	if th, ok := t.themes[c]; ok {
		return th
	}
	if canon, ok := t.Category(string(c)); ok {
		if th, ok := t.themes[canon]; ok {
			return th
		}
	}
	return core.OtherTheme
}
