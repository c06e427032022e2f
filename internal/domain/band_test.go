package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverallBand_RoundingRule(t *testing.T) {
	tests := []struct {
		name string
		subs []Band
		want Band
	}{
		{
			name: "exact whole average stays whole",
			subs: []Band{"6", "6", "6", "6"},
			want: "6",
		},
		{
			name: "quarter average rounds down to whole band",
			subs: []Band{"6", "6", "6", "7"}, // avg 6.25
			want: "6",
		},
		{
			name: "half average stays at half band",
			subs: []Band{"6", "6", "7", "7"}, // avg 6.5
			want: "6.5",
		},
		{
			name: "three-quarter average rounds up to next whole band",
			subs: []Band{"6", "7", "7", "7"}, // avg 6.75
			want: "7",
		},
		{
			name: "just below quarter rounds down",
			subs: []Band{"6", "6", "6", "6.5"}, // avg 6.125
			want: "6",
		},
		{
			name: "just below three quarters rounds to half",
			subs: []Band{"6", "6.5", "7", "7"}, // avg 6.625
			want: "6.5",
		},
		{
			name: "half-step inputs averaging to half band",
			subs: []Band{"5.5", "6.5", "7", "7"}, // avg 6.5
			want: "6.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OverallBand(tt.subs))
		})
	}
}

func TestOverallBand_RequiresAllFourSubScores(t *testing.T) {
	// Given only three resolvable sub-scores
	subs := []Band{"6", "6", "6", BandUnavailable}

	// Then the overall is unavailable regardless of the other values
	assert.Equal(t, BandUnavailable, OverallBand(subs))

	// And non-numeric bands count as unresolved too
	subs = []Band{"6", "6", "6", "strong"}
	assert.Equal(t, BandUnavailable, OverallBand(subs))

	// And an empty set is unavailable
	assert.Equal(t, BandUnavailable, OverallBand(nil))
}

func TestBand_Float(t *testing.T) {
	v, ok := Band("7.5").Float()
	assert.True(t, ok)
	assert.Equal(t, 7.5, v)

	_, ok = BandUnavailable.Float()
	assert.False(t, ok)

	_, ok = Band("").Float()
	assert.False(t, ok)

	_, ok = Band("seven").Float()
	assert.False(t, ok)
}

func TestBandFromFloat_TrimsTrailingZeros(t *testing.T) {
	assert.Equal(t, Band("6"), BandFromFloat(6.0))
	assert.Equal(t, Band("6.5"), BandFromFloat(6.5))
}

func TestCredential_Masked(t *testing.T) {
	assert.Equal(t, "****wxyz", Credential("AIza-secret-wxyz").Masked())
	assert.Equal(t, "****", Credential("abc").Masked())
}
