package ontology_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/culturemech/culturemech/internal/ontology"
)

func TestValidateCURIE_TableDriven(t *testing.T) {
	cases := []struct {
		name    string
		curie   string
		wantErr bool
	}{
		{"valid_chebi", "CHEBI:15377", false},
		{"valid_chebi_min", "CHEBI:1", false},
		{"valid_chebi_max", "CHEBI:9999999", false},
		{"valid_foodon", "FOODON:03315426", false},
		{"malformed_no_colon", "CHEBI15377", true},
		{"malformed_empty_local", "CHEBI:", true},
		{"malformed_empty_prefix", ":15377", true},
		{"chebi_non_numeric", "CHEBI:abc", true},
		{"chebi_zero", "CHEBI:0", true},
		{"chebi_eight_digits", "CHEBI:12345678", true},
		{"chebi_nine_digits", "CHEBI:123456789", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ontology.ValidateCURIE(tc.curie)
			if tc.wantErr {
				assert.Error(t, err)
				assert.True(t, ontology.IsFailure(err, ontology.FailureInvalidID))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsSuspiciousCURIE(t *testing.T) {
	assert.False(t, ontology.IsSuspiciousCURIE("CHEBI:15377"))
	assert.True(t, ontology.IsSuspiciousCURIE("CHEBI:1234567"))
	assert.False(t, ontology.IsSuspiciousCURIE("CHEBI:12345678"))
	assert.False(t, ontology.IsSuspiciousCURIE("FOODON:1234567"))
}
