// internal/rules/country_test.go
package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruitment-workers/internal/models"
)

func TestCountryTable_Lookup(t *testing.T) {
	table := DefaultCountryTable()

	tests := []struct {
		name        string
		country     string
		wantCountry string
		wantPCC     bool
	}{
		{name: "exact", country: "Saudi Arabia", wantCountry: "Saudi Arabia", wantPCC: true},
		{name: "case insensitive", country: "  qatar ", wantCountry: "Qatar", wantPCC: true},
		{name: "no pcc country", country: "Oman", wantCountry: "Oman", wantPCC: false},
		{name: "unknown falls back", country: "Atlantis", wantCountry: DefaultCountry, wantPCC: false},
		{name: "empty falls back", country: "", wantCountry: DefaultCountry, wantPCC: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := table.Lookup(tt.country)
			assert.Equal(t, tt.wantCountry, rule.Country)
			assert.Equal(t, tt.wantPCC, rule.PCCRequired)
		})
	}
}

func TestCountryRule_AgeLimitsFor(t *testing.T) {
	saudi := DefaultCountryTable().Lookup("Saudi Arabia")

	assert.Equal(t, AgeRange{Min: 21, Max: 40}, saudi.AgeLimitsFor("Housemaid"))
	assert.Equal(t, AgeRange{Min: 23, Max: 50}, saudi.AgeLimitsFor(" driver "))
	assert.Equal(t, AgeRange{Min: 21, Max: 45}, saudi.AgeLimitsFor("welder"))
	assert.Equal(t, AgeRange{Min: 21, Max: 45}, saudi.AgeLimitsFor(""))
	assert.Equal(t, AgeRange{Min: 21, Max: 45}, saudi.AgeLimitsFor("house"), "partial role names do not match")

	assert.True(t, AgeRange{Min: 21, Max: 45}.Contains(21))
	assert.True(t, AgeRange{Min: 21, Max: 45}.Contains(45))
	assert.False(t, AgeRange{Min: 21, Max: 45}.Contains(46))
}

func TestNewCountryTable_Validation(t *testing.T) {
	_, err := NewCountryTable([]CountryRule{{Country: "", Age: AgeRange{Min: 18, Max: 40}}})
	assert.Error(t, err)

	_, err = NewCountryTable([]CountryRule{{Country: "Qatar", Age: AgeRange{Min: 50, Max: 40}}})
	assert.Error(t, err)

	_, err = NewCountryTable([]CountryRule{
		{Country: "Qatar", Age: AgeRange{Min: 18, Max: 40}},
		{Country: "QATAR", Age: AgeRange{Min: 18, Max: 40}},
	})
	assert.Error(t, err)

	_, err = NewCountryTable([]CountryRule{{Country: "Qatar", Age: AgeRange{Min: 18, Max: 40},
		RoleAgeLimits: map[string]AgeRange{"Driver": {Min: 21, Max: 45}, "driver ": {Min: 25, Max: 50}}}})
	assert.ErrorContains(t, err, "duplicate role age limit")

	_, err = NewCountryTable([]CountryRule{{Country: "Qatar", Age: AgeRange{Min: 18, Max: 40},
		RoleAgeLimits: map[string]AgeRange{"Driver": {Min: 45, Max: 21}}}})
	assert.Error(t, err)

	table, err := NewCountryTable([]CountryRule{{Country: "Qatar", Age: AgeRange{Min: 18, Max: 40},
		RoleAgeLimits: map[string]AgeRange{" Heavy Driver ": {Min: 25, Max: 50}}}})
	require.NoError(t, err)
	assert.Equal(t, AgeRange{Min: 25, Max: 50}, table.Lookup("Qatar").AgeLimitsFor("HEAVY DRIVER"))

	table, err = NewCountryTable([]CountryRule{{Country: "Qatar", Age: AgeRange{Min: 18, Max: 40}}})
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultCountry, "Qatar"}, table.Countries())
	assert.Equal(t, DefaultCountry, table.Lookup("Jordan").Country)
}

func TestLoadCountryTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "country-rules.yaml")
	content := `
countries:
  - country: Malaysia
    age: {min: 20, max: 45}
    roleAgeLimits:
      caregiver: {min: 25, max: 45}
    minPassportValidityMonths: 18
    pccRequired: true
    pccValidityDays: 120
    mandatoryDocuments: [Passport, Passport Photos, CV]
    medicalRequired: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	table, err := LoadCountryTable(path)
	require.NoError(t, err)

	rule := table.Lookup("malaysia")
	assert.Equal(t, "Malaysia", rule.Country)
	assert.Equal(t, 18, rule.MinPassportValidityMonths)
	assert.Equal(t, 120, rule.PCCValidityDays)
	assert.False(t, rule.MedicalRequired)
	assert.Equal(t, []models.DocumentType{models.DocPassport, models.DocPassportPhotos, models.DocCV}, rule.MandatoryDocuments)
	assert.Equal(t, AgeRange{Min: 25, Max: 45}, rule.AgeLimitsFor("Caregiver"))

	assert.Equal(t, DefaultCountry, table.Lookup("Qatar").Country, "built-in rules are not merged into a file table")
}

func TestLoadCountryTable_Errors(t *testing.T) {
	_, err := LoadCountryTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("countries: [unterminated"), 0o600))
	_, err = LoadCountryTable(path)
	assert.Error(t, err)
}
