package analyses

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// API key sources recorded on every analysis.
const (
	KeySourceUser   = "user"
	KeySourceSystem = "system"
)

// Report status values stored alongside an analysis.
const (
	ReportStatusPublished    = "published"
	ReportStatusUploadFailed = "upload_failed"
	ReportStatusRenderFailed = "render_failed"
	ReportStatusWriteFailed  = "report_write_failed"
)

// Analysis is one immutable skill gap analysis.
type Analysis struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	TargetRoles  []string  `json:"target_roles"`
	ModelUsed    string    `json:"model_used"`
	APIKeySource string    `json:"api_key_source"`
	ReportStatus string    `json:"report_status"`
	Result       Result    `json:"analysis"`
	CreatedAt    time.Time `json:"created_at"`
}

// Summary is the short form listed by GET /history.
type Summary struct {
	ID                   string    `json:"id"`
	TargetRoles          []string  `json:"target_roles"`
	OverallFitScore      int       `json:"overall_fit_score"`
	OverallGapPercentage int       `json:"overall_gap_percentage"`
	MarketReadiness      int       `json:"market_readiness_score"`
	ReportStatus         string    `json:"report_status"`
	CreatedAt            time.Time `json:"created_at"`
}

// Summarize returns the history form of a.
func (a Analysis) Summarize() Summary {
	return Summary{
		ID:                   a.ID,
		TargetRoles:          a.TargetRoles,
		OverallFitScore:      int(a.Result.OverallFitScore),
		OverallGapPercentage: int(a.Result.OverallGapPercentage),
		MarketReadiness:      int(a.Result.SkillAssessment.MarketReadinessScore),
		ReportStatus:         a.ReportStatus,
		CreatedAt:            a.CreatedAt,
	}
}

// Result is the analysis body produced by the model.
type Result struct {
	ExecutiveSummary      string             `json:"executive_summary"`
	MarketTrends          MarketTrends       `json:"market_trends"`
	SkillAssessment       SkillAssessment    `json:"skill_assessment"`
	GapAnalysis           []RoleGap          `json:"gap_analysis"`
	CriticalMissingSkills []MissingSkill     `json:"critical_missing_skills"`
	Recommendations       Recommendations    `json:"recommendations"`
	LearningResources     []LearningResource `json:"learning_resources"`
	CompetitivenessScores []Competitiveness  `json:"competitiveness_scores"`
	KeyInsights           StringList         `json:"key_insights"`
	OverallGapPercentage  Score              `json:"overall_gap_percentage"`
	OverallFitScore       Score              `json:"overall_fit_score"`
	ReportGeneratedAt     string             `json:"report_generated_at"`
	APIKeySource          string             `json:"api_key_source"`
	ModelUsed             string             `json:"model_used"`
}

type MarketTrends struct {
	TopSkills           StringList `json:"top_skills"`
	GrowingTechnologies StringList `json:"growing_technologies"`
	MarketDirection     string     `json:"market_direction"`
	KeyStatistics       StringList `json:"key_statistics"`
}

type SkillAssessment struct {
	StrongSkills         StringList `json:"strong_skills"`
	NeedsImprovement     StringList `json:"needs_improvement"`
	MarketReadinessScore Score      `json:"market_readiness_score"`
	AssessmentNotes      string     `json:"assessment_notes"`
}

type RoleGap struct {
	Role           string     `json:"role"`
	RequiredSkills StringList `json:"required_skills"`
	UserHas        StringList `json:"user_has"`
	UserMissing    StringList `json:"user_missing"`
	GapPercentage  Score      `json:"gap_percentage"`
}

type MissingSkill struct {
	Skill              string `json:"skill"`
	Importance         string `json:"importance"`
	LearningDifficulty string `json:"learning_difficulty"`
	Reason             string `json:"reason"`
}

type Recommendations struct {
	ImmediateActions StringList `json:"immediate_actions"`
	ShortTermGoals   StringList `json:"short_term_goals"`
	LongTermStrategy StringList `json:"long_term_strategy"`
}

type LearningResource struct {
	Skill          string     `json:"skill"`
	FreeResources  StringList `json:"free_resources"`
	PaidCourses    StringList `json:"paid_courses"`
	Certifications StringList `json:"certifications"`
	ProjectIdeas   StringList `json:"project_ideas"`
}

type Competitiveness struct {
	Role        string `json:"role"`
	Score       Score  `json:"score"`
	Explanation string `json:"explanation"`
}

// StringList decodes a JSON array of strings. Models sometimes answer with a
// single string, an object of labelled values, or an array of mixed values;
// all of them collapse to a list of display strings.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*l = StringList{}
			return nil
		}
		*l = StringList{s}
		return nil
	case '[':
		var items []any
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(StringList, 0, len(items))
		for _, item := range items {
			if s := displayString(item); s != "" {
				out = append(out, s)
			}
		}
		*l = out
		return nil
	case '{':
		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err != nil {
			return err
		}
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(StringList, 0, len(keys))
		for _, k := range keys {
			out = append(out, k+": "+displayString(fields[k]))
		}
		*l = out
		return nil
	default:
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*l = StringList{displayString(v)}
		return nil
	}
}

func displayString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
}

// Score is an integer score. Fractional and quoted numbers are rounded.
// Magnitudes beyond scoreLimit, infinities included, saturate so a later
// clamp lands on the matching bound.
type Score int

const scoreLimit = 1 << 30

func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		data = []byte(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		var numErr *strconv.NumError
		if !errors.As(err, &numErr) || !errors.Is(numErr.Err, strconv.ErrRange) {
			return fmt.Errorf("score %q: %w", data, err)
		}
	}
	if math.IsNaN(f) {
		return fmt.Errorf("score %q: not a number", data)
	}
	*s = Score(math.Round(math.Max(-scoreLimit, math.Min(scoreLimit, f))))
	return nil
}

func (s Score) clamp(lo, hi int) Score {
	switch {
	case int(s) < lo:
		return Score(lo)
	case int(s) > hi:
		return Score(hi)
	default:
		return s
	}
}
