package report

import (
	"encoding/json"
	"strings"

	"github.com/gradeband/examiner/internal/domain"
)

// structuredReport mirrors the JSON contract of the structured block:
// original_score, errors, annotated_essay, and revised_score. Every
// field is optional; missing keys decode to zero values and degrade to
// unavailable placeholders downstream.
type structuredReport struct {
	OriginalScore  *structuredScore     `json:"original_score"`
	Errors         []domain.ErrorRecord `json:"errors"`
	AnnotatedEssay string               `json:"annotated_essay"`
	RevisedScore   *structuredRevised   `json:"revised_score"`
}

// structuredScore holds the four criterion sub-scores plus the model's
// own overall figure. The overall is decoded but never trusted; the
// interpreter recomputes it from the sub-scores.
type structuredScore struct {
	TaskAchievement   flexBand `json:"task_achievement"`
	CohesionCoherence flexBand `json:"cohesion_coherence"`
	LexicalResource   flexBand `json:"lexical_resource"`
	GrammaticalRange  flexBand `json:"grammatical_range"`
	Overall           flexBand `json:"overall"`
}

func (s *structuredScore) toDomain() domain.BandScore {
	if s == nil {
		return domain.UnavailableBandScore()
	}
	return domain.BandScore{
		TaskAchievement:   s.TaskAchievement.band(),
		CohesionCoherence: s.CohesionCoherence.band(),
		LexicalResource:   s.LexicalResource.band(),
		GrammaticalRange:  s.GrammaticalRange.band(),
		Overall:           s.Overall.band(),
	}
}

// structuredRevised is the re-grade of the corrected essay.
type structuredRevised struct {
	structuredScore
	WordCountCheck    string `json:"word_count_check"`
	LogicReEvaluation string `json:"logic_re_evaluation"`
}

func (s *structuredRevised) toDomain() *domain.RevisedScore {
	if s == nil {
		return nil
	}
	return &domain.RevisedScore{
		BandScore:         s.structuredScore.toDomain(),
		WordCountCheck:    s.WordCountCheck,
		LogicReEvaluation: s.LogicReEvaluation,
	}
}

// flexBand decodes a band value that the model may emit either as a
// JSON number or as a string. Empty and null values decode to the
// unavailable sentinel instead of failing the whole block.
type flexBand string

func (b *flexBand) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*b = flexBand(domain.BandUnavailable)
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		v = strings.TrimSpace(v)
		if v == "" {
			v = string(domain.BandUnavailable)
		}
		*b = flexBand(v)
		return nil
	}
	// Bare JSON number; keep the literal as written.
	*b = flexBand(s)
	return nil
}

// band maps the decoded value to a domain Band, treating a missing key
// (zero value) as unavailable.
func (b flexBand) band() domain.Band {
	if b == "" {
		return domain.BandUnavailable
	}
	return domain.Band(b)
}
