// Command examiner grades a single writing submission from the command
// line: it reads the task topic and essay from files, dispatches one
// grading call across the configured credentials, and prints the
// report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/time/rate"

	"github.com/gradeband/examiner/infrastructure/export"
	"github.com/gradeband/examiner/infrastructure/llm"
	"github.com/gradeband/examiner/internal/application"
	"github.com/gradeband/examiner/internal/domain"
	"github.com/gradeband/examiner/internal/report"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to the YAML config file (credentials may also come from EXAMINER_API_KEYS)")
		topicPath  = flag.String("topic", "", "File containing the task question")
		essayPath  = flag.String("essay", "", "File containing the candidate's essay")
		imagePath  = flag.String("image", "", "Optional task image (png/jpeg/webp)")
		htmlPath   = flag.String("html", "", "Write the report as HTML to this file instead of stdout")
	)
	flag.Parse()

	if *topicPath == "" || *essayPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := application.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	sub, err := readSubmission(*topicPath, *essayPath, *imagePath)
	if err != nil {
		log.Fatalf("read submission: %v", err)
	}

	svc, err := buildService(cfg)
	if err != nil {
		log.Fatalf("build service: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	assessment, err := svc.Grade(ctx, sub)
	if err != nil {
		log.Fatalf("grade: %v", err)
	}

	log.Printf("graded by %s after %d credential attempt(s), %d tokens in / %d out",
		assessment.Model, assessment.Attempts, assessment.TokensIn, assessment.TokensOut)

	if *htmlPath != "" {
		html, err := export.HTML(assessment.Report)
		if err != nil {
			log.Fatalf("render HTML: %v", err)
		}
		if err := os.WriteFile(*htmlPath, []byte(html), 0o644); err != nil {
			log.Fatalf("write %s: %v", *htmlPath, err)
		}
		fmt.Printf("report written to %s\n", *htmlPath)
		return
	}

	printReport(assessment.Report)
}

func buildService(cfg application.Config) (*application.Service, error) {
	opts := []llm.DispatcherOption{
		llm.WithMiddleware(
			llm.TimeoutMiddleware(cfg.RequestTimeout),
			llm.RateLimitMiddleware(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		),
	}
	if len(cfg.ModelPriority) > 0 {
		opts = append(opts, llm.WithModelPriority(cfg.ModelPriority))
	}
	if cfg.FallbackModel != "" {
		opts = append(opts, llm.WithFallbackModel(cfg.FallbackModel))
	}
	dispatcher := llm.NewDispatcher(cfg.Credentials, opts...)

	prompts, err := application.NewPromptBuilder(cfg.PromptTemplate)
	if err != nil {
		return nil, err
	}
	return application.NewService(dispatcher, report.Interpreter{}, prompts)
}

func readSubmission(topicPath, essayPath, imagePath string) (application.Submission, error) {
	topic, err := os.ReadFile(topicPath)
	if err != nil {
		return application.Submission{}, err
	}
	essay, err := os.ReadFile(essayPath)
	if err != nil {
		return application.Submission{}, err
	}

	sub := application.Submission{
		Topic: strings.TrimSpace(string(topic)),
		Essay: strings.TrimSpace(string(essay)),
	}

	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return application.Submission{}, err
		}
		mimeType := mime.TypeByExtension(filepath.Ext(imagePath))
		if mimeType == "" {
			mimeType = "image/png"
		}
		sub.Image = &domain.ImagePayload{Data: data, MIMEType: mimeType}
	}

	return sub, nil
}

func printReport(r domain.ParsedReport) {
	fmt.Println(r.Narrative)

	fmt.Println("\nOriginal scores:")
	printScore(r.OriginalScore)

	if len(r.Errors) > 0 {
		fmt.Printf("\nIdentified errors (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Printf("- [%s/%s] %s -> %s (%s)\n", e.Category, e.ImpactLevel, e.Original, e.Correction, e.Explanation)
		}
	}

	if r.AnnotatedEssay != "" {
		fmt.Println("\nAnnotated essay:")
		fmt.Println(export.PlainAnnotated(r))
	}

	if r.RevisedScore != nil {
		fmt.Println("\nRevised scores:")
		printScore(r.RevisedScore.BandScore)
		if r.RevisedScore.WordCountCheck != "" {
			fmt.Printf("Word count check: %s\n", r.RevisedScore.WordCountCheck)
		}
		if r.RevisedScore.LogicReEvaluation != "" {
			fmt.Printf("Logic re-evaluation: %s\n", r.RevisedScore.LogicReEvaluation)
		}
	}
}

func printScore(s domain.BandScore) {
	fmt.Printf("  Task Achievement:               %s\n", s.TaskAchievement)
	fmt.Printf("  Coherence & Cohesion:           %s\n", s.CohesionCoherence)
	fmt.Printf("  Lexical Resource:               %s\n", s.LexicalResource)
	fmt.Printf("  Grammatical Range and Accuracy: %s\n", s.GrammaticalRange)
	fmt.Printf("  Overall:                        %s\n", s.Overall)
}
