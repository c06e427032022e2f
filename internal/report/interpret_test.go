package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradeband/examiner/internal/domain"
)

const fullResponse = "## Examiner Report\n" +
	"The report covers the main trends but omits the overview.\n\n" +
	"**Task Achievement Score:** 6.0\n" +
	"**Coherence & Cohesion Score:** 6.0\n" +
	"**Lexical Resource Score:** 6.0\n" +
	"**Grammatical Range and Accuracy Score:** 7.0\n\n" +
	"### OVERALL BAND SCORE: 9.0\n\n" + // deliberately wrong; must be recomputed
	"```json\n" +
	`{
	  "original_score": {
	    "task_achievement": "6.0",
	    "cohesion_coherence": "6.0",
	    "lexical_resource": "6.0",
	    "grammatical_range": "7.0",
	    "overall": "9.0"
	  },
	  "errors": [
	    {
	      "category": "Grammar",
	      "type": "Subject-Verb Agreement",
	      "impact_level": "High",
	      "explanation": "Plural subject with singular verb.",
	      "original": "the figures shows",
	      "correction": "THE FIGURES SHOW"
	    },
	    {
	      "category": "Coherence & Cohesion",
	      "type": "Mechanical Linker",
	      "impact_level": "Medium",
	      "explanation": "Sentence-initial linker overuse.",
	      "original": "In addition,",
	      "correction": "FURTHERMORE,"
	    }
	  ],
	  "annotated_essay": "The figures <del>shows</del> <ins class='grammar'>SHOW</ins> a rise.",
	  "revised_score": {
	    "word_count_check": "182 words - Acceptable",
	    "logic_re_evaluation": "Missing overview persists, TA capped.",
	    "task_achievement": 6.0,
	    "cohesion_coherence": 7.0,
	    "lexical_resource": 7.0,
	    "grammatical_range": 8.0,
	    "overall": 7.0
	  }
	}` +
	"\n```\n"

func TestInterpret_FullResponse(t *testing.T) {
	r := Interpret(fullResponse)

	// Narrative is everything before the fence, trimmed.
	assert.Contains(t, r.Narrative, "Examiner Report")
	assert.Contains(t, r.Narrative, "OVERALL BAND SCORE")
	assert.NotContains(t, r.Narrative, "```json")
	assert.NotContains(t, r.Narrative, "annotated_essay")

	// Sub-scores come from the narrative score lines.
	assert.Equal(t, domain.Band("6.0"), r.OriginalScore.TaskAchievement)
	assert.Equal(t, domain.Band("6.0"), r.OriginalScore.CohesionCoherence)
	assert.Equal(t, domain.Band("6.0"), r.OriginalScore.LexicalResource)
	assert.Equal(t, domain.Band("7.0"), r.OriginalScore.GrammaticalRange)

	// The overall is recomputed: avg 6.25 rounds down to 6, not the
	// model's claimed 9.0.
	assert.Equal(t, domain.Band("6"), r.OriginalScore.Overall)

	require.Len(t, r.Errors, 2)
	assert.Equal(t, "Grammar", r.Errors[0].Category)
	assert.Equal(t, "THE FIGURES SHOW", r.Errors[0].Correction)
	assert.Len(t, r.MicroErrors(), 1)
	assert.Len(t, r.MacroErrors(), 1)

	assert.Contains(t, r.AnnotatedEssay, "<ins class='grammar'>SHOW</ins>")

	require.NotNil(t, r.RevisedScore)
	assert.Equal(t, domain.Band("6.0"), r.RevisedScore.TaskAchievement)
	assert.Equal(t, domain.Band("8.0"), r.RevisedScore.GrammaticalRange)
	assert.Equal(t, "182 words - Acceptable", r.RevisedScore.WordCountCheck)
}

func TestInterpret_EmptyInput(t *testing.T) {
	// The only hard failure mode the contract allows is none at all: an
	// empty input still yields a valid, mostly-empty report.
	r := Interpret("")

	assert.Empty(t, r.Narrative)
	assert.Empty(t, r.Errors)
	assert.Empty(t, r.AnnotatedEssay)
	assert.Nil(t, r.RevisedScore)
	assert.Equal(t, domain.BandUnavailable, r.OriginalScore.Overall)
	assert.Equal(t, domain.BandUnavailable, r.OriginalScore.TaskAchievement)
}

func TestInterpret_NoStructuredBlock(t *testing.T) {
	raw := "Just a critique with no scores and no JSON block."

	r := Interpret(raw)

	assert.Equal(t, raw, r.Narrative)
	assert.Empty(t, r.Errors)
	assert.Nil(t, r.RevisedScore)
	assert.Equal(t, domain.BandUnavailable, r.OriginalScore.Overall)
}

func TestInterpret_MalformedBlockKeepsNarrative(t *testing.T) {
	raw := "Strong report overall.\n```json\n{\"errors\": [broken\n```"

	r := Interpret(raw)

	assert.Equal(t, "Strong report overall.", r.Narrative)
	assert.Empty(t, r.Errors)
	assert.Empty(t, r.AnnotatedEssay)
	assert.Nil(t, r.RevisedScore)
	assert.Equal(t, domain.BandUnavailable, r.OriginalScore.Overall)
}

func TestInterpret_ControlCharactersStrippedFromBlock(t *testing.T) {
	raw := "Report.\n```json\n{\"annotated_essay\": \"clean\"\x01,\x02 \"errors\": []}\n```"

	r := Interpret(raw)

	assert.Equal(t, "clean", r.AnnotatedEssay)
}

func TestInterpret_StructuredFallbackForMissingNarrativeScore(t *testing.T) {
	// Given a narrative with only three labeled score lines
	raw := "**Task Achievement Score:** 7.0\n" +
		"**Coherence & Cohesion Score:** 7.0\n" +
		"**Lexical Resource Score:** 6.5\n" +
		"```json\n" +
		`{"original_score": {"task_achievement": "5.0", "grammatical_range": "6.5"}}` +
		"\n```"

	r := Interpret(raw)

	// The narrative wins where it resolved a value.
	assert.Equal(t, domain.Band("7.0"), r.OriginalScore.TaskAchievement)
	// The structured block fills the gap.
	assert.Equal(t, domain.Band("6.5"), r.OriginalScore.GrammaticalRange)
	// avg of 7, 7, 6.5, 6.5 = 6.75 rounds up to 7.
	assert.Equal(t, domain.Band("7"), r.OriginalScore.Overall)
}

func TestInterpret_ThreeOfFourSubScoresIsUnavailable(t *testing.T) {
	raw := "**Task Achievement Score:** 8.0\n" +
		"**Coherence & Cohesion Score:** 8.0\n" +
		"**Lexical Resource Score:** 8.0\n"

	r := Interpret(raw)

	assert.Equal(t, domain.Band("8.0"), r.OriginalScore.TaskAchievement)
	assert.Equal(t, domain.BandUnavailable, r.OriginalScore.GrammaticalRange)
	assert.Equal(t, domain.BandUnavailable, r.OriginalScore.Overall,
		"overall must be unavailable when any sub-score is missing")
}

func TestInterpret_HalfBandAverage(t *testing.T) {
	raw := "Task Achievement Score: 6\n" +
		"Coherence & Cohesion Score: 6\n" +
		"Lexical Resource Score: 7\n" +
		"Grammatical Range and Accuracy Score: 7\n"

	r := Interpret(raw)

	// avg 6.5 stays at the half band.
	assert.Equal(t, domain.Band("6.5"), r.OriginalScore.Overall)
}

func TestInterpret_RevisedScoreAbsentFieldsUnavailable(t *testing.T) {
	raw := "```json\n" +
		`{"revised_score": {"task_achievement": "7.0", "word_count_check": "160 words"}}` +
		"\n```"

	r := Interpret(raw)

	require.NotNil(t, r.RevisedScore)
	assert.Equal(t, domain.Band("7.0"), r.RevisedScore.TaskAchievement)
	assert.Equal(t, domain.BandUnavailable, r.RevisedScore.LexicalResource)
	assert.Equal(t, "160 words", r.RevisedScore.WordCountCheck)
}
