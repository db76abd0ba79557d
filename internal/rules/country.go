// internal/rules/country.go
package rules

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"recruitment-workers/internal/models"
)

// DefaultCountry is the fallback key used when a destination has no rule of its own.
const DefaultCountry = "DEFAULT"

type AgeRange struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

func (r AgeRange) Contains(age int) bool {
	return age >= r.Min && age <= r.Max
}

// CountryRule is the static compliance record for one destination country.
type CountryRule struct {
	Country                   string                `yaml:"country" json:"country"`
	Age                       AgeRange              `yaml:"age" json:"age"`
	RoleAgeLimits             map[string]AgeRange   `yaml:"roleAgeLimits,omitempty" json:"roleAgeLimits,omitempty"`
	MinPassportValidityMonths int                   `yaml:"minPassportValidityMonths" json:"minPassportValidityMonths"`
	PCCRequired               bool                  `yaml:"pccRequired" json:"pccRequired"`
	PCCValidityDays           int                   `yaml:"pccValidityDays,omitempty" json:"pccValidityDays,omitempty"`
	MandatoryDocuments        []models.DocumentType `yaml:"mandatoryDocuments" json:"mandatoryDocuments"`
	MedicalRequired           bool                  `yaml:"medicalRequired" json:"medicalRequired"`
}

// AgeLimitsFor returns the role override when role matches a configured key
// case-insensitively, else the country default.
func (r CountryRule) AgeLimitsFor(role string) AgeRange {
	role = normalize(role)
	if role == "" {
		return r.Age
	}
	if limits, ok := r.RoleAgeLimits[role]; ok {
		return limits
	}
	return r.Age
}

// canonicalRoles rekeys RoleAgeLimits by normalized role name.
func (r CountryRule) canonicalRoles() (map[string]AgeRange, error) {
	if len(r.RoleAgeLimits) == 0 {
		return nil, nil
	}
	out := make(map[string]AgeRange, len(r.RoleAgeLimits))
	for key, limits := range r.RoleAgeLimits {
		role := normalize(key)
		if role == "" {
			return nil, fmt.Errorf("country %s: role age limit without role name", r.Country)
		}
		if _, dup := out[role]; dup {
			return nil, fmt.Errorf("country %s: duplicate role age limit for %q", r.Country, role)
		}
		if limits.Min > limits.Max {
			return nil, fmt.Errorf("country %s: role %s age min %d exceeds max %d", r.Country, key, limits.Min, limits.Max)
		}
		out[role] = limits
	}
	return out, nil
}

// CountryLookup resolves the rule for a destination. It never fails; unknown
// countries get the DEFAULT rule.
type CountryLookup interface {
	Lookup(country string) CountryRule
}

// CountryTable is a read-only set of country rules keyed case-insensitively.
type CountryTable struct {
	rules map[string]CountryRule
}

type countryFile struct {
	Countries []CountryRule `yaml:"countries"`
}

// NewCountryTable builds a table from rules. A missing DEFAULT entry is filled
// in from the built-in default rule.
func NewCountryTable(rules []CountryRule) (CountryTable, error) {
	t := CountryTable{rules: make(map[string]CountryRule, len(rules)+1)}
	for _, r := range rules {
		key := normalize(r.Country)
		if key == "" {
			return CountryTable{}, fmt.Errorf("country rule without country name")
		}
		if r.Age.Min > r.Age.Max {
			return CountryTable{}, fmt.Errorf("country %s: age min %d exceeds max %d", r.Country, r.Age.Min, r.Age.Max)
		}
		if _, dup := t.rules[key]; dup {
			return CountryTable{}, fmt.Errorf("duplicate rule for country %s", r.Country)
		}
		roles, err := r.canonicalRoles()
		if err != nil {
			return CountryTable{}, err
		}
		r.RoleAgeLimits = roles
		t.rules[key] = r
	}
	if _, ok := t.rules[normalize(DefaultCountry)]; !ok {
		t.rules[normalize(DefaultCountry)] = defaultRule
	}
	return t, nil
}

// LoadCountryTable reads a YAML rules file of the form `countries: [...]`.
func LoadCountryTable(path string) (CountryTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CountryTable{}, fmt.Errorf("read country rules: %w", err)
	}
	var f countryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return CountryTable{}, fmt.Errorf("parse country rules: %w", err)
	}
	return NewCountryTable(f.Countries)
}

// Lookup returns the rule for country, falling back to DEFAULT.
func (t CountryTable) Lookup(country string) CountryRule {
	if r, ok := t.rules[normalize(country)]; ok {
		return r
	}
	if r, ok := t.rules[normalize(DefaultCountry)]; ok {
		return r
	}
	return defaultRule
}

// Countries lists the configured country names, sorted.
func (t CountryTable) Countries() []string {
	out := make([]string, 0, len(t.rules))
	for _, r := range t.rules {
		out = append(out, r.Country)
	}
	sort.Strings(out)
	return out
}

func normalize(country string) string {
	return strings.ToLower(strings.TrimSpace(country))
}

var defaultRule = CountryRule{
	Country:                   DefaultCountry,
	Age:                       AgeRange{Min: 18, Max: 50},
	MinPassportValidityMonths: 6,
	PCCRequired:               false,
	MandatoryDocuments:        []models.DocumentType{models.DocPassport, models.DocPassportPhotos},
	MedicalRequired:           true,
}

// DefaultCountryRules is the built-in table used when no rules file is configured.
func DefaultCountryRules() []CountryRule {
	return []CountryRule{
		{
			Country: "Saudi Arabia",
			Age:     AgeRange{Min: 21, Max: 45},
			RoleAgeLimits: map[string]AgeRange{
				"housemaid": {Min: 21, Max: 40},
				"driver":    {Min: 23, Max: 50},
			},
			MinPassportValidityMonths: 6,
			PCCRequired:               true,
			PCCValidityDays:           180,
			MandatoryDocuments:        []models.DocumentType{models.DocPassport, models.DocPassportPhotos, models.DocFullPhoto},
			MedicalRequired:           true,
		},
		{
			Country: "United Arab Emirates",
			Age:     AgeRange{Min: 21, Max: 50},
			RoleAgeLimits: map[string]AgeRange{
				"housemaid": {Min: 23, Max: 45},
			},
			MinPassportValidityMonths: 6,
			PCCRequired:               true,
			PCCValidityDays:           90,
			MandatoryDocuments:        []models.DocumentType{models.DocPassport, models.DocPassportPhotos, models.DocFullPhoto},
			MedicalRequired:           true,
		},
		{
			Country:                   "Qatar",
			Age:                       AgeRange{Min: 21, Max: 50},
			MinPassportValidityMonths: 6,
			PCCRequired:               true,
			PCCValidityDays:           180,
			MandatoryDocuments:        []models.DocumentType{models.DocPassport, models.DocPassportPhotos, models.DocCV},
			MedicalRequired:           true,
		},
		{
			Country:                   "Kuwait",
			Age:                       AgeRange{Min: 21, Max: 50},
			MinPassportValidityMonths: 6,
			PCCRequired:               true,
			PCCValidityDays:           180,
			MandatoryDocuments:        []models.DocumentType{models.DocPassport, models.DocPassportPhotos, models.DocFullPhoto},
			MedicalRequired:           true,
		},
		{
			Country:                   "Oman",
			Age:                       AgeRange{Min: 21, Max: 55},
			MinPassportValidityMonths: 6,
			PCCRequired:               false,
			MandatoryDocuments:        []models.DocumentType{models.DocPassport, models.DocPassportPhotos},
			MedicalRequired:           true,
		},
		{
			Country:                   "Japan",
			Age:                       AgeRange{Min: 18, Max: 40},
			MinPassportValidityMonths: 12,
			PCCRequired:               true,
			PCCValidityDays:           90,
			MandatoryDocuments:        []models.DocumentType{models.DocPassport, models.DocPassportPhotos, models.DocCV, models.DocEducationCert},
			MedicalRequired:           true,
		},
		defaultRule,
	}
}

// DefaultCountryTable builds the table from DefaultCountryRules.
func DefaultCountryTable() CountryTable {
	t, err := NewCountryTable(DefaultCountryRules())
	if err != nil {
		panic(fmt.Sprintf("built-in country rules are invalid: %v", err))
	}
	return t
}
