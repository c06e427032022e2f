package application

import (
	"bytes"
	"fmt"
	"text/template"
)

// DefaultPromptTemplate is the built-in grading instruction. The
// deployed prompt is usually much longer and maintained as operator
// configuration; this default carries the structural contract the
// interpreter depends on: labeled per-criterion score lines in the
// narrative and a trailing fenced JSON block with the agreed keys.
const DefaultPromptTemplate = `You are a senior IELTS Academic Writing Task 1 examiner. Grade the
following report against the official band descriptors for Task
Achievement, Coherence & Cohesion, Lexical Resource, and Grammatical
Range and Accuracy.

TASK PROMPT:
{{.Topic}}

CANDIDATE REPORT:
{{.Essay}}

Write a detailed narrative critique first. Inside the narrative, state
each criterion on its own line in exactly this form:

Task Achievement Score: <band>
Coherence & Cohesion Score: <band>
Lexical Resource Score: <band>
Grammatical Range and Accuracy Score: <band>

Record every identified error. After the narrative, append one fenced
JSON block:

` + "```json" + `
{
  "original_score": {
    "task_achievement": "<band>",
    "cohesion_coherence": "<band>",
    "lexical_resource": "<band>",
    "grammatical_range": "<band>",
    "overall": "<band>"
  },
  "errors": [
    {
      "category": "Grammar" | "Vocabulary" | "<criterion name>",
      "type": "<error type>",
      "impact_level": "High" | "Medium" | "Low",
      "explanation": "<brief explanation>",
      "original": "<incorrect excerpt>",
      "correction": "<corrected excerpt IN ALL CAPS>"
    }
  ],
  "annotated_essay": "<revised essay with <del>...</del> and <ins class='grammar'>...</ins> or <ins class='vocab'>...</ins> markers>",
  "revised_score": {
    "word_count_check": "<word count of the revised essay>",
    "logic_re_evaluation": "<justification for any retained deductions>",
    "task_achievement": "<band>",
    "cohesion_coherence": "<band>",
    "lexical_resource": "<band>",
    "grammatical_range": "<band>",
    "overall": "<band>"
  }
}
` + "```" + `
`

// PromptBuilder renders the grading instruction from a compiled
// template. Using text/template keeps submission content from being
// interpreted as template syntax.
type PromptBuilder struct {
	tmpl *template.Template
}

// NewPromptBuilder compiles the given template text, falling back to
// DefaultPromptTemplate when text is empty. The template must reference
// {{.Topic}} and {{.Essay}}.
func NewPromptBuilder(text string) (*PromptBuilder, error) {
	if text == "" {
		text = DefaultPromptTemplate
	}
	tmpl, err := template.New("gradingPrompt").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse grading prompt template: %w", err)
	}
	return &PromptBuilder{tmpl: tmpl}, nil
}

// Build renders the full instruction text for one submission.
func (b *PromptBuilder) Build(sub Submission) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Topic string
		Essay string
	}{
		Topic: sub.Topic,
		Essay: sub.Essay,
	}
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute grading prompt template: %w", err)
	}
	return buf.String(), nil
}
