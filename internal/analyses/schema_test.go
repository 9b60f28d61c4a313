package analyses

import (
	"errors"
	"strings"
	"testing"
)

func TestParseResultSample(t *testing.T) {
	res, err := ParseResult(SampleJSON)
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
	if res.OverallFitScore != 75 || res.OverallGapPercentage != 25 {
		t.Fatalf("unexpected scores fit=%d gap=%d", res.OverallFitScore, res.OverallGapPercentage)
	}
	if res.SkillAssessment.MarketReadinessScore != 5 {
		t.Fatalf("unexpected readiness %d", res.SkillAssessment.MarketReadinessScore)
	}
	if len(res.CriticalMissingSkills) != 2 {
		t.Fatalf("expected 2 critical skills, got %d", len(res.CriticalMissingSkills))
	}
	// long_term_strategy arrives as a plain string
	if len(res.Recommendations.LongTermStrategy) != 1 {
		t.Fatalf("expected string strategy to become one item, got %v", res.Recommendations.LongTermStrategy)
	}
}

func TestParseResultStripsCodeFence(t *testing.T) {
	raw := "```json\n" + SampleJSON + "\n```"
	if _, err := ParseResult(raw); err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
}

func TestParseResultClampsScores(t *testing.T) {
	raw := strings.NewReplacer(
		`"overall_fit_score": 75`, `"overall_fit_score": 140`,
		`"overall_gap_percentage": 25`, `"overall_gap_percentage": -3`,
		`"market_readiness_score": 5`, `"market_readiness_score": "12"`,
		`"score": 75`, `"score": 0.2`,
	).Replace(SampleJSON)

	res, err := ParseResult(raw)
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
	if res.OverallFitScore != 100 {
		t.Fatalf("fit not clamped: %d", res.OverallFitScore)
	}
	if res.OverallGapPercentage != 0 {
		t.Fatalf("gap not clamped: %d", res.OverallGapPercentage)
	}
	if res.SkillAssessment.MarketReadinessScore != 10 {
		t.Fatalf("readiness not clamped: %d", res.SkillAssessment.MarketReadinessScore)
	}
	if res.CompetitivenessScores[0].Score != 1 {
		t.Fatalf("competitiveness not clamped: %d", res.CompetitivenessScores[0].Score)
	}
}

func TestParseResultClampsHugeScoresToUpperBound(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantFit Score
		wantGap Score
	}{
		{name: "exponent", value: `1e20`, wantFit: 100, wantGap: 100},
		{name: "quoted exponent", value: `"1e30"`, wantFit: 100, wantGap: 100},
		{name: "infinity", value: `"Infinity"`, wantFit: 100, wantGap: 100},
		{name: "negative infinity", value: `"-Infinity"`, wantFit: 1, wantGap: 0},
		{name: "negative exponent", value: `-1e25`, wantFit: 1, wantGap: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := strings.NewReplacer(
				`"overall_fit_score": 75`, `"overall_fit_score": `+tt.value,
				`"overall_gap_percentage": 25`, `"overall_gap_percentage": `+tt.value,
			).Replace(SampleJSON)

			res, err := ParseResult(raw)
			if err != nil {
				t.Fatalf("ParseResult: %v", err)
			}
			if res.OverallFitScore != tt.wantFit || res.OverallGapPercentage != tt.wantGap {
				t.Fatalf("expected fit=%d gap=%d, got fit=%d gap=%d", tt.wantFit, tt.wantGap, res.OverallFitScore, res.OverallGapPercentage)
			}
		})
	}
}

func TestParseResultRejectsNaNScore(t *testing.T) {
	raw := strings.Replace(SampleJSON, `"overall_fit_score": 75`, `"overall_fit_score": "NaN"`, 1)
	if _, err := ParseResult(raw); err == nil {
		t.Fatalf("expected NaN score to be rejected")
	}
}

func TestParseResultRejectsMissingKeys(t *testing.T) {
	_, err := ParseResult(`{"executive_summary": "only this"}`)
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestParseResultRejectsProse(t *testing.T) {
	_, err := ParseResult("Here is your analysis: it looks great.")
	if !errors.Is(err, ErrUnparsable) {
		t.Fatalf("expected unparsable error, got %v", err)
	}
}

func TestStringListShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "array", raw: `["a", " b "]`, want: []string{"a", "b"}},
		{name: "string", raw: `"one thing"`, want: []string{"one thing"}},
		{name: "object", raw: `{"jobs": 120, "growth": "18%"}`, want: []string{"growth: 18%", "jobs: 120"}},
		{name: "mixed", raw: `["x", 3, null]`, want: []string{"x", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l StringList
			if err := l.UnmarshalJSON([]byte(tt.raw)); err != nil {
				t.Fatalf("UnmarshalJSON: %v", err)
			}
			if strings.Join(l, "|") != strings.Join(tt.want, "|") {
				t.Fatalf("got %v, want %v", l, tt.want)
			}
		})
	}
}
