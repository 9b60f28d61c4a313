package main

// Print the analysis prompt for a synthetic profile, and optionally send it
// to the configured provider:
//   go run ./cmd/prompttest -roles "SRE" -skills "Go,Kubernetes"
//   go run ./cmd/prompttest -call -out ./out/analysis.json

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"skillgap-backend/internal/analyses"
	"skillgap-backend/internal/llm"
	anthropicllm "skillgap-backend/internal/llm/anthropic"
	geminillm "skillgap-backend/internal/llm/gemini"
	openaillm "skillgap-backend/internal/llm/openai"
	"skillgap-backend/internal/market"
	"skillgap-backend/internal/profiles"
	"skillgap-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	roles := flag.String("roles", "Backend Engineer", "comma separated target roles")
	skills := flag.String("skills", "Go,PostgreSQL,Docker", "comma separated skills")
	trends := flag.String("trends", "Kubernetes,Terraform,Rust", "comma separated trending skills")
	provider := flag.String("provider", cfg.LLMProvider, "LLM provider")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	call := flag.Bool("call", false, "send the prompt to the provider")
	outPath := flag.String("out", "", "path to write the parsed analysis JSON (optional)")
	flag.Parse()

	actx := analyses.Context{
		Subject: analyses.Subject{UserID: "prompttest", Name: "Prompt Test", Email: "prompttest@example.com"},
		Roles:   split(*roles),
		Market:  market.Snapshot{TakenAt: time.Now().UTC()},
	}
	for i, name := range split(*skills) {
		actx.Skills = append(actx.Skills, profiles.Skill{
			Name:            name,
			Source:          profiles.SourceResume,
			ConfidenceScore: 0.9 - float64(i)*0.1,
		})
	}
	for i, name := range split(*trends) {
		actx.Market.Trends = append(actx.Market.Trends, market.Trend{
			SkillName:       name,
			JobMentionCount: 100 - i*10,
			TrendDirection:  "rising",
		})
	}

	prompt, err := analyses.BuildPrompt(actx, time.Now().UTC())
	if err != nil {
		exitErr(fmt.Sprintf("build prompt: %v", err))
	}
	if !*call {
		fmt.Println(prompt)
		return
	}

	client, err := buildClient(*provider, *model, cfg.LLMTimeout)
	if err != nil {
		exitErr(err.Error())
	}
	requester := analyses.NewRequester(client, noUserKeys{}, analyses.RequesterConfig{
		Provider:     *provider,
		Model:        *model,
		SystemAPIKey: cfg.LLMAPIKey,
		Timeout:      cfg.LLMTimeout,
	})

	analysis, err := requester.Request(context.Background(), actx)
	if err != nil {
		exitErr(fmt.Sprintf("request analysis: %v", err))
	}

	pretty, err := json.MarshalIndent(analysis.Result, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("marshal analysis: %v", err))
	}
	if strings.TrimSpace(*outPath) == "" {
		fmt.Println(string(pretty))
		return
	}
	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		exitErr(fmt.Sprintf("create output dir: %v", err))
	}
	if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
		exitErr(fmt.Sprintf("write output: %v", err))
	}
	fmt.Printf("wrote %s (fit %d, gap %d%%)\n", *outPath, analysis.Result.OverallFitScore, analysis.Result.OverallGapPercentage)
}

type noUserKeys struct{}

func (noUserKeys) ResolveAPIKey(ctx context.Context, userID string) (string, bool, error) {
	return "", false, nil
}

func buildClient(provider, model string, timeout time.Duration) (llm.Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "anthropic":
		return anthropicllm.NewClient(model, "")
	case "openai":
		return openaillm.NewClient(model, timeout)
	case "gemini":
		return geminillm.NewClient(model)
	default:
		return nil, fmt.Errorf("unsupported provider %q", provider)
	}
}

func split(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
