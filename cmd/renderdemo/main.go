package main

// Render the bundled sample analysis to a PDF:
//   go run ./cmd/renderdemo -out ./out/sample_report.pdf -verify

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"skillgap-backend/internal/analyses"
	"skillgap-backend/internal/extract"
	"skillgap-backend/internal/reports"
)

func main() {
	outPath := flag.String("out", "./out/sample_report.pdf", "output path for the generated PDF")
	input := flag.String("analysis", "", "analysis JSON to render instead of the bundled sample")
	name := flag.String("name", "Ada Lovelace", "name on the cover page")
	email := flag.String("email", "ada@example.com", "email on the cover page")
	roles := flag.String("roles", "Backend Engineer,Platform Engineer", "comma separated target roles")
	verify := flag.Bool("verify", false, "parse the written PDF and print its page count")
	flag.Parse()

	raw := analyses.SampleJSON
	if strings.TrimSpace(*input) != "" {
		data, err := os.ReadFile(*input)
		if err != nil {
			exitErr(fmt.Sprintf("read analysis: %v", err))
		}
		raw = string(data)
	}

	result, err := analyses.ParseResult(raw)
	if err != nil {
		exitErr(fmt.Sprintf("parse analysis: %v", err))
	}

	pdf, err := reports.Render(reports.Input{
		UserName:    *name,
		UserEmail:   *email,
		Roles:       splitRoles(*roles),
		Analysis:    result,
		GeneratedAt: time.Now().UTC(),
	})
	if err != nil {
		exitErr(fmt.Sprintf("render failed: %v", err))
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		exitErr(fmt.Sprintf("create output dir: %v", err))
	}
	if err := os.WriteFile(*outPath, pdf, 0o644); err != nil {
		exitErr(fmt.Sprintf("write pdf: %v", err))
	}
	fmt.Printf("wrote %s (%d bytes)\n", *outPath, len(pdf))

	if *verify {
		doc, err := extract.FromBytes(context.Background(), pdf, "application/pdf")
		if err != nil {
			exitErr(fmt.Sprintf("verify: %v", err))
		}
		if !strings.Contains(doc.Text, "Skill Gap") {
			exitErr("verify: report title not found in extracted text")
		}
		fmt.Printf("verified: %d pages, %d characters of text\n", doc.Pages, len(doc.Text))
	}
}

func splitRoles(raw string) []string {
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
