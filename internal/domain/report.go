package domain

import "strconv"

// BandUnavailable is the sentinel for a sub-score that could not be
// recovered from either the narrative or the structured block.
const BandUnavailable Band = "-"

// Band is a single criterion rating on the IELTS half-step scale.
// It is kept as a string because the model may return values the parser
// cannot interpret as numbers; such values degrade to BandUnavailable
// rather than failing the whole report.
type Band string

// Available reports whether the band holds a usable value.
func (b Band) Available() bool { return b != "" && b != BandUnavailable }

// Float returns the numeric value of the band and whether it parsed.
func (b Band) Float() (float64, bool) {
	if !b.Available() {
		return 0, false
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// BandFromFloat formats a numeric score as a Band, trimming trailing
// zeros so 6.0 renders as "6" and 6.5 as "6.5".
func BandFromFloat(v float64) Band {
	return Band(strconv.FormatFloat(v, 'f', -1, 64))
}

// Error categories used by the grading model. Grammar and Vocabulary
// entries are word-level corrections; anything else is a structural
// issue tied to a scoring criterion.
const (
	CategoryGrammar    = "Grammar"
	CategoryVocabulary = "Vocabulary"
)

// Impact levels assigned to individual error records.
const (
	ImpactHigh   = "High"
	ImpactMedium = "Medium"
	ImpactLow    = "Low"
)

// ErrorRecord is a single defect identified in the submission.
type ErrorRecord struct {
	// Category places the error in the taxonomy: Grammar, Vocabulary,
	// or a criterion name such as "Coherence & Cohesion".
	Category string `json:"category"`
	// Type is the model's subtype label, e.g. "Comma Splice".
	Type string `json:"type"`
	// ImpactLevel is High, Medium, or Low.
	ImpactLevel string `json:"impact_level"`
	// Explanation is the free-text justification for the correction.
	Explanation string `json:"explanation"`
	// Original is the offending excerpt from the submission.
	Original string `json:"original"`
	// Correction is the suggested replacement.
	Correction string `json:"correction"`
}

// Micro reports whether the record is a word-level Grammar or
// Vocabulary correction rather than a structural criterion issue.
func (e ErrorRecord) Micro() bool {
	return e.Category == CategoryGrammar || e.Category == CategoryVocabulary
}

// BandScore groups the four criterion sub-scores and the derived
// overall band for one version of the essay.
type BandScore struct {
	TaskAchievement   Band `json:"task_achievement"`
	CohesionCoherence Band `json:"cohesion_coherence"`
	LexicalResource   Band `json:"lexical_resource"`
	GrammaticalRange  Band `json:"grammatical_range"`
	Overall           Band `json:"overall"`
}

// UnavailableBandScore returns a BandScore with every field set to the
// unavailable sentinel. This is the starting point for interpretation
// so missing fields render as placeholders instead of empty strings.
func UnavailableBandScore() BandScore {
	return BandScore{
		TaskAchievement:   BandUnavailable,
		CohesionCoherence: BandUnavailable,
		LexicalResource:   BandUnavailable,
		GrammaticalRange:  BandUnavailable,
		Overall:           BandUnavailable,
	}
}

// SubScores returns the four criterion bands in their canonical order.
func (s BandScore) SubScores() []Band {
	return []Band{s.TaskAchievement, s.CohesionCoherence, s.LexicalResource, s.GrammaticalRange}
}

// RevisedScore is the model's re-grade of its own corrected essay,
// including the rationale fields the grading contract requires.
type RevisedScore struct {
	BandScore
	// WordCountCheck is the model's word-count note for the revision.
	WordCountCheck string `json:"word_count_check"`
	// LogicReEvaluation explains any deductions kept in the re-grade.
	LogicReEvaluation string `json:"logic_re_evaluation"`
}

// ParsedReport is the interpreter's output: the human-readable critique
// plus whatever structured data could be recovered from the response.
// Every field degrades independently; a report is always usable even
// when the structured block was truncated or malformed.
type ParsedReport struct {
	// Narrative is the free-text critique preceding the structured block,
	// or the entire response when no block was found.
	Narrative string
	// Errors lists the individual corrections, in the model's order.
	Errors []ErrorRecord
	// AnnotatedEssay is the corrected essay with inline marker tags.
	// Empty when the model omitted it.
	AnnotatedEssay string
	// OriginalScore grades the submitted essay. The overall band is
	// always recomputed locally from the recovered sub-scores.
	OriginalScore BandScore
	// RevisedScore grades the model's corrected essay. Nil when the
	// structured block was absent or did not include one.
	RevisedScore *RevisedScore
}

// MicroErrors returns the Grammar and Vocabulary corrections.
func (r ParsedReport) MicroErrors() []ErrorRecord {
	var out []ErrorRecord
	for _, e := range r.Errors {
		if e.Micro() {
			out = append(out, e)
		}
	}
	return out
}

// MacroErrors returns the structural, criterion-level issues.
func (r ParsedReport) MacroErrors() []ErrorRecord {
	var out []ErrorRecord
	for _, e := range r.Errors {
		if !e.Micro() {
			out = append(out, e)
		}
	}
	return out
}
