package services

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"alfredoptarigan/cv-screener/internal/apperror"
	"alfredoptarigan/cv-screener/internal/models"
)

//go:embed schemas/analysis_result.json
var analysisSchemaJSON []byte

// medal and sports-medal code points the model likes to decorate ranks with
var medalPattern = regexp.MustCompile(`[\x{1F3C5}-\x{1F3CA}\x{1F947}-\x{1F949}]`)

type AnalysisClient interface {
	Analyze(ctx context.Context, payload *models.PromptPayload) (*models.AnalysisResult, error)
}

type analysisClient struct {
	provider    LLMProvider
	temperature float32
	schema      *gojsonschema.Schema
	logger      *slog.Logger
}

func NewAnalysisClient(provider LLMProvider, temperature float32, logger *slog.Logger) (AnalysisClient, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(analysisSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis schema: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &analysisClient{
		provider:    provider,
		temperature: temperature,
		schema:      schema,
		logger:      logger,
	}, nil
}

// Analyze sends one JSON-mode completion request. An unparseable answer is a
// MalformedResponse carrying the raw text; nothing is retried or repaired.
func (c *analysisClient) Analyze(ctx context.Context, payload *models.PromptPayload) (*models.AnalysisResult, error) {
	const op = "analysis.Analyze"

	if payload == nil || len(payload.CandidateNames) == 0 {
		return nil, apperror.New(apperror.KindValidation, op, "nothing to analyze")
	}

	c.logger.Info("requesting comparative analysis",
		slog.String("provider", c.provider.Name()),
		slog.Int("candidates", len(payload.CandidateNames)),
		slog.Int("prompt_chars", len(payload.System)+len(payload.User)),
	)

	raw, err := c.provider.Complete(ctx, ChatRequest{
		System:      payload.System,
		User:        payload.User,
		Temperature: c.temperature,
		JSONMode:    true,
	})
	if err != nil {
		c.logger.Error("analysis request failed", slog.String("provider", c.provider.Name()), slog.Any("error", err))
		if _, ok := apperror.As(err); ok {
			return nil, err
		}
		return nil, providerError(op, classifyTransport(err), err)
	}

	result, err := c.parse(raw, payload.CandidateNames)
	if err != nil {
		c.logger.Warn("malformed analysis response",
			slog.Any("error", err),
			slog.Int("response_chars", len(raw)),
		)
		return nil, err
	}

	c.logger.Info("analysis completed",
		slog.Int("evaluations", len(result.CandidateEvaluations)),
		slog.Int("criteria", len(result.CriteriaObservations)),
	)
	return result, nil
}

func (c *analysisClient) parse(raw string, names []string) (*models.AnalysisResult, error) {
	const op = "analysis.parse"

	malformed := func(message string, err error) error {
		return &apperror.Error{
			Kind:    apperror.KindMalformedResponse,
			Op:      op,
			Message: message,
			Raw:     raw,
			Err:     err,
		}
	}

	body := strings.TrimSpace(raw)
	if !json.Valid([]byte(body)) {
		return nil, malformed("the AI response was not valid JSON", nil)
	}

	validation, err := c.schema.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return nil, malformed("the AI response could not be validated", err)
	}
	if !validation.Valid() {
		var problems []string
		for _, e := range validation.Errors() {
			problems = append(problems, e.String())
		}
		return nil, malformed("the AI response does not match the expected format", fmt.Errorf("%s", strings.Join(problems, "; ")))
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		return nil, malformed("the AI response does not match the expected format", err)
	}

	SanitizeRankings(&result)

	if err := checkCandidateCoverage(&result, names); err != nil {
		return nil, malformed("the AI response does not cover the submitted candidates", err)
	}

	return &result, nil
}

// SanitizeRanking strips medal emoji and surrounding whitespace.
func SanitizeRanking(ranking string) string {
	return strings.TrimSpace(medalPattern.ReplaceAllString(ranking, ""))
}

func SanitizeRankings(result *models.AnalysisResult) {
	for i := range result.CandidateEvaluations {
		eval := &result.CandidateEvaluations[i]
		eval.Ranking = models.FlexString(SanitizeRanking(string(eval.Ranking)))
		eval.CandidateName = strings.TrimSpace(eval.CandidateName)
	}
}

// checkCandidateCoverage requires every submitted name exactly once as an
// evaluation row and as a criteria column, and nothing else. An empty
// criteria list is accepted; the comparison table is then left out.
func checkCandidateCoverage(result *models.AnalysisResult, names []string) error {
	expected := make(map[string]bool, len(names))
	for _, n := range names {
		expected[n] = true
	}

	rows := make(map[string]int, len(names))
	for _, eval := range result.CandidateEvaluations {
		if !expected[eval.CandidateName] {
			return fmt.Errorf("unexpected candidate %q in evaluations", eval.CandidateName)
		}
		rows[eval.CandidateName]++
	}
	for _, n := range names {
		if rows[n] != 1 {
			return fmt.Errorf("candidate %q appears %d times in evaluations", n, rows[n])
		}
	}

	if len(result.CriteriaObservations) == 0 {
		return nil
	}

	columns := make(map[string]bool)
	for _, col := range result.CriteriaColumns() {
		if !expected[col] {
			return fmt.Errorf("unexpected criteria column %q", col)
		}
		columns[col] = true
	}
	for _, n := range names {
		if !columns[n] {
			return fmt.Errorf("candidate %q missing from criteria observations", n)
		}
	}

	return nil
}
