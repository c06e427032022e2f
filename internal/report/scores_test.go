package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gradeband/examiner/internal/domain"
)

func TestScoresFromNarrative_LabelTolerance(t *testing.T) {
	tests := []struct {
		name string
		text string
		want domain.Band
		get  func(domain.BandScore) domain.Band
	}{
		{
			name: "case insensitive label",
			text: "task achievement score: 6.5",
			want: "6.5",
			get:  func(s domain.BandScore) domain.Band { return s.TaskAchievement },
		},
		{
			name: "markdown and intervening words",
			text: "### **Task Achievement Score (TA):** Band 7.0",
			want: "7.0",
			get:  func(s domain.BandScore) domain.Band { return s.TaskAchievement },
		},
		{
			name: "line break between label and number",
			text: "Coherence & Cohesion Score\nassigned: 5.5",
			want: "5.5",
			get:  func(s domain.BandScore) domain.Band { return s.CohesionCoherence },
		},
		{
			name: "grammatical range with full criterion name",
			text: "Grammatical Range and Accuracy Score is 8",
			want: "8",
			get:  func(s domain.BandScore) domain.Band { return s.GrammaticalRange },
		},
		{
			name: "lexical resource",
			text: "LEXICAL RESOURCE SCORE ... 6",
			want: "6",
			get:  func(s domain.BandScore) domain.Band { return s.LexicalResource },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.get(ScoresFromNarrative(tt.text)))
		})
	}
}

func TestScoresFromNarrative_MissingLabels(t *testing.T) {
	s := ScoresFromNarrative("no scores mentioned anywhere")

	assert.Equal(t, domain.BandUnavailable, s.TaskAchievement)
	assert.Equal(t, domain.BandUnavailable, s.CohesionCoherence)
	assert.Equal(t, domain.BandUnavailable, s.LexicalResource)
	assert.Equal(t, domain.BandUnavailable, s.GrammaticalRange)
	assert.Equal(t, domain.BandUnavailable, s.Overall)
}

func TestScoresFromNarrative_FirstMatchWins(t *testing.T) {
	s := ScoresFromNarrative("Task Achievement Score: 6.0 ... Task Achievement Score: 9.0")

	assert.Equal(t, domain.Band("6.0"), s.TaskAchievement)
}
