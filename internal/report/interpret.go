// Package report implements the response interpreter: it splits raw
// model output into a human-readable narrative and a machine-readable
// structured record, tolerating truncated or malformed output.
//
// Interpretation is pure and total. Malformed structured blocks,
// missing labels, and non-numeric score text all degrade to
// unavailable placeholders; no input, including the empty string,
// produces an error.
package report

import (
	"encoding/json"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/gradeband/examiner/internal/domain"
)

// fenceOpen marks the start of the structured block embedded at the end
// of the model's free-text response.
const fenceOpen = "```json"

var (
	// fencedBlock extracts the content of the first ```json fence.
	fencedBlock = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

	// controlChars matches the C0/C1 control characters the model
	// occasionally leaks into the block, which break JSON decoding.
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f-\x9f]`)
)

// Interpreter is the stateless implementation of ports.Interpreter.
// The zero value is ready to use and safe for concurrent callers.
type Interpreter struct{}

// Interpret satisfies ports.Interpreter.
func (Interpreter) Interpret(raw string) domain.ParsedReport { return Interpret(raw) }

// Interpret converts a raw model response into a ParsedReport.
//
// The narrative is everything before the opening fence of the
// structured block, or the whole text when no block is present. The
// original score's sub-bands are recovered from two sources in order:
// labeled score lines in the narrative first, then the structured
// block's original_score fields. The overall band is always recomputed
// locally from the recovered sub-bands.
func Interpret(raw string) domain.ParsedReport {
	raw = norm.NFC.String(raw)

	out := domain.ParsedReport{
		Narrative:     raw,
		OriginalScore: domain.UnavailableBandScore(),
	}

	var structured *structuredReport
	if block, ok := extractBlock(raw); ok {
		out.Narrative = strings.TrimSpace(raw[:strings.Index(raw, fenceOpen)])

		// A block that fails to decode is routine partial output; the
		// narrative stands and the structured fields stay empty.
		var sr structuredReport
		if err := json.Unmarshal([]byte(block), &sr); err == nil {
			structured = &sr
			out.Errors = sr.Errors
			out.AnnotatedEssay = sr.AnnotatedEssay
			out.RevisedScore = sr.RevisedScore.toDomain()
		}
	}

	narrativeScore := ScoresFromNarrative(out.Narrative)
	var structuredScore domain.BandScore
	if structured != nil {
		structuredScore = structured.OriginalScore.toDomain()
	} else {
		structuredScore = domain.UnavailableBandScore()
	}

	out.OriginalScore = mergeScores(narrativeScore, structuredScore)
	out.OriginalScore.Overall = domain.OverallBand(out.OriginalScore.SubScores())
	return out
}

// extractBlock returns the cleaned content of the structured block and
// whether one was found.
func extractBlock(raw string) (string, bool) {
	m := fencedBlock.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(controlChars.ReplaceAllString(m[1], "")), true
}

// mergeScores resolves each sub-band from the narrative first and falls
// back to the structured block's value. The overall band is left for
// the caller to recompute.
func mergeScores(narrative, structured domain.BandScore) domain.BandScore {
	pick := func(a, b domain.Band) domain.Band {
		if a.Available() {
			return a
		}
		if b.Available() {
			return b
		}
		return domain.BandUnavailable
	}
	return domain.BandScore{
		TaskAchievement:   pick(narrative.TaskAchievement, structured.TaskAchievement),
		CohesionCoherence: pick(narrative.CohesionCoherence, structured.CohesionCoherence),
		LexicalResource:   pick(narrative.LexicalResource, structured.LexicalResource),
		GrammaticalRange:  pick(narrative.GrammaticalRange, structured.GrammaticalRange),
		Overall:           domain.BandUnavailable,
	}
}
