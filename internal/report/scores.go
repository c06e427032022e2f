package report

import (
	"regexp"

	"github.com/gradeband/examiner/internal/domain"
)

// Narrative score patterns. Each matches a labeled "Score" line for one
// criterion, case-insensitively and across line breaks, capturing the
// first decimal number after the label. Intervening words between the
// label and the number are tolerated.
var (
	taskAchievementScore   = regexp.MustCompile(`(?is)Task\s+Achievement\s*Score.*?(\d+\.?\d*)`)
	cohesionCoherenceScore = regexp.MustCompile(`(?is)Coherence\s*&\s*Cohesion\s*Score.*?(\d+\.?\d*)`)
	lexicalResourceScore   = regexp.MustCompile(`(?is)Lexical\s+Resource\s*Score.*?(\d+\.?\d*)`)
	grammaticalRangeScore  = regexp.MustCompile(`(?is)Grammatical\s+Range.*?Score.*?(\d+\.?\d*)`)
)

// ScoresFromNarrative recovers the four criterion sub-bands from
// labeled score lines in the narrative text. Criteria without a
// matching line are unavailable. The overall band is never taken from
// the narrative; callers recompute it.
//
// The function is pure so it can be tested independently of the
// structured-block fallback it is composed with.
func ScoresFromNarrative(text string) domain.BandScore {
	score := domain.UnavailableBandScore()
	if text == "" {
		return score
	}
	score.TaskAchievement = findScore(taskAchievementScore, text)
	score.CohesionCoherence = findScore(cohesionCoherenceScore, text)
	score.LexicalResource = findScore(lexicalResourceScore, text)
	score.GrammaticalRange = findScore(grammaticalRangeScore, text)
	return score
}

func findScore(re *regexp.Regexp, text string) domain.Band {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return domain.BandUnavailable
	}
	return domain.Band(m[1])
}
