package analyses

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"
)

var (
	//go:embed prompts/skill_gap_v1.tmpl
	skillGapPromptV1 string
	//go:embed prompts/reformat_v1.tmpl
	reformatPromptV1 string
)

// SystemPrompt is sent as the system instruction on every call.
const SystemPrompt = "You are an expert career advisor and technical skills analyst. You answer with a single JSON object."

// maxPreviousOutput bounds how much of a rejected answer is echoed back.
const maxPreviousOutput = 12000

var promptFuncs = template.FuncMap{
	"join": strings.Join,
	"json": func(v any) (string, error) {
		raw, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(raw), nil
	},
}

var (
	skillGapTmpl = template.Must(template.New("skill_gap").Funcs(promptFuncs).Parse(skillGapPromptV1))
	reformatTmpl = template.Must(template.New("reformat").Funcs(promptFuncs).Parse(reformatPromptV1))
)

type discussionBrief struct {
	Title     string `json:"title"`
	Subreddit string `json:"subreddit"`
	Upvotes   int    `json:"upvotes"`
}

type jobBrief struct {
	Title           string `json:"title"`
	Company         string `json:"company,omitempty"`
	WorkType        string `json:"work_type,omitempty"`
	ExperienceLevel string `json:"experience_level,omitempty"`
}

// BuildPrompt renders the analysis prompt for c.
func BuildPrompt(c Context, now time.Time) (string, error) {
	discussions := make([]discussionBrief, 0, promptDiscussionLimit)
	for i, d := range c.Market.Discussions {
		if i == promptDiscussionLimit {
			break
		}
		discussions = append(discussions, discussionBrief{Title: d.Title, Subreddit: d.Subreddit, Upvotes: d.Upvotes})
	}
	jobs := make([]jobBrief, 0, promptJobLimit)
	for i, j := range c.Market.Jobs {
		if i == promptJobLimit {
			break
		}
		jobs = append(jobs, jobBrief{Title: j.Title, Company: j.CompanyName, WorkType: j.WorkType, ExperienceLevel: j.ExperienceLevel})
	}

	name := c.Name
	if name == "" {
		name = "User"
	}
	data := map[string]any{
		"UserName":       name,
		"UserEmail":      c.Email,
		"Roles":          c.Roles,
		"Skills":         c.Skills,
		"TopTrends":      headTrends(c.Market.Trends, promptTrendLimit),
		"TrendingSkills": c.trendingSkills(),
		"Jobs":           jobs,
		"Discussions":    discussions,
		"GeneratedAt":    now.UTC().Format(time.RFC3339),
	}
	var buf bytes.Buffer
	if err := skillGapTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

// BuildReformatPrompt asks the model to repair a rejected answer.
func BuildReformatPrompt(original, previous string, problem error) (string, error) {
	if len(previous) > maxPreviousOutput {
		previous = previous[:maxPreviousOutput]
	}
	data := map[string]any{
		"Problem":  problem.Error(),
		"Previous": previous,
		"Original": original,
	}
	var buf bytes.Buffer
	if err := reformatTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render reformat prompt: %w", err)
	}
	return buf.String(), nil
}
