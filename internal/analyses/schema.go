package analyses

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/analysis_v1.schema.json
var analysisSchemaV1 string

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(analysisSchemaV1))
	})
	return compiledSchema, schemaErr
}

// ParseResult turns raw model output into a clamped Result. The text may be
// wrapped in a markdown code fence.
func ParseResult(raw string) (Result, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return Result{}, fmt.Errorf("%w: empty output", ErrUnparsable)
	}
	if !json.Valid([]byte(body)) {
		return Result{}, fmt.Errorf("%w: output is not a json object", ErrUnparsable)
	}
	if err := validateSchema(body); err != nil {
		return Result{}, err
	}

	var res Result
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	Clamp(&res)
	return res, nil
}

func validateSchema(body string) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("load analysis schema: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
}

// Clamp forces every score into its documented range.
func Clamp(res *Result) {
	res.OverallFitScore = res.OverallFitScore.clamp(1, 100)
	res.OverallGapPercentage = res.OverallGapPercentage.clamp(0, 100)
	res.SkillAssessment.MarketReadinessScore = res.SkillAssessment.MarketReadinessScore.clamp(1, 10)
	for i := range res.GapAnalysis {
		res.GapAnalysis[i].GapPercentage = res.GapAnalysis[i].GapPercentage.clamp(0, 100)
	}
	for i := range res.CompetitivenessScores {
		res.CompetitivenessScores[i].Score = res.CompetitivenessScores[i].Score.clamp(1, 100)
	}
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
