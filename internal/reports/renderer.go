package reports

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"skillgap-backend/internal/analyses"
	"skillgap-backend/internal/shared/apperr"
)

const (
	NoData     = "No data available"
	Disclaimer = "This report was generated by AI-powered analysis and should be used as guidance, not absolute career advice. Market conditions change rapidly; consider refreshing this report regularly."

	pageMargin = 15.0
	lineHeight = 5.5
	fontFamily = "Helvetica"
)

type rgb struct{ r, g, b int }

var (
	colorPrimary   = rgb{99, 102, 241}
	colorSecondary = rgb{139, 92, 246}
	colorSuccess   = rgb{16, 185, 129}
	colorWarning   = rgb{245, 158, 11}
	colorDanger    = rgb{239, 68, 68}
	colorLight     = rgb{243, 244, 246}
	colorMuted     = rgb{102, 102, 102}
)

// Input is everything the renderer draws.
type Input struct {
	UserName    string
	UserEmail   string
	Roles       []string
	Analysis    analyses.Result
	GeneratedAt time.Time
}

// Render draws the A4 report and returns the PDF bytes. Failures are
// classified as report generation errors.
func Render(in Input) ([]byte, error) {
	if in.GeneratedAt.IsZero() {
		in.GeneratedAt = time.Now().UTC()
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Skill Gap Analysis Report", true)
	pdf.SetCreator("skillgap-backend", true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")

	r := &renderer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetFooterFunc(r.footer)

	r.cover(in)
	r.headline(in.Analysis)
	r.scoreChart(in.Analysis)
	r.executiveSummary(in.Analysis)
	r.marketTrends(in.Analysis.MarketTrends)
	r.skillAssessment(in.Analysis.SkillAssessment)
	r.gapTable(in.Analysis.GapAnalysis)
	r.criticalSkills(in.Analysis.CriticalMissingSkills)
	r.recommendations(in.Analysis.Recommendations)
	r.learningResources(in.Analysis.LearningResources)
	r.competitiveness(in.Analysis.CompetitivenessScores)
	r.keyInsights(in.Analysis.KeyInsights)

	if pdf.Err() {
		return nil, apperr.Wrap(apperr.KindReportGeneration, "Failed to generate PDF report", pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperr.Wrap(apperr.KindReportGeneration, "Failed to generate PDF report", err)
	}
	return buf.Bytes(), nil
}

type renderer struct {
	pdf     *fpdf.Fpdf
	tr      func(string) string
	section int
}

func (r *renderer) contentWidth() float64 {
	w, _ := r.pdf.GetPageSize()
	return w - 2*pageMargin
}

func (r *renderer) setFill(c rgb) { r.pdf.SetFillColor(c.r, c.g, c.b) }
func (r *renderer) setText(c rgb) { r.pdf.SetTextColor(c.r, c.g, c.b) }
func (r *renderer) setDraw(c rgb) { r.pdf.SetDrawColor(c.r, c.g, c.b) }
func (r *renderer) resetText() { r.pdf.SetTextColor(0, 0, 0) }
func (r *renderer) body() { r.pdf.SetFont(fontFamily, "", 10) }
func (r *renderer) bold(size float64) { r.pdf.SetFont(fontFamily, "B", size) }

func (r *renderer) footer() {
	r.pdf.SetY(-15)
	r.pdf.SetFont(fontFamily, "I", 7)
	r.setText(colorMuted)
	r.pdf.MultiCell(0, 3.5, r.tr(Disclaimer), "", "C", false)
	r.pdf.CellFormat(0, 4, fmt.Sprintf("Page %d of {nb}", r.pdf.PageNo()), "", 0, "C", false, 0, "")
	r.resetText()
}

func (r *renderer) heading(title string) {
	r.section++
	_, pageH := r.pdf.GetPageSize()
	if r.pdf.GetY() > pageH-60 {
		r.pdf.AddPage()
	}
	r.pdf.Ln(4)
	r.bold(15)
	r.setText(colorPrimary)
	r.pdf.CellFormat(0, 9, r.tr(fmt.Sprintf("%d. %s", r.section, title)), "B", 1, "L", false, 0, "")
	r.resetText()
	r.pdf.Ln(2)
	r.body()
}

func (r *renderer) label(text string) {
	r.bold(10)
	r.pdf.CellFormat(0, lineHeight+1, r.tr(text), "", 1, "L", false, 0, "")
	r.body()
}

func (r *renderer) paragraph(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		text = NoData
	}
	r.body()
	r.pdf.MultiCell(0, lineHeight, r.tr(text), "", "J", false)
	r.pdf.Ln(1)
}

func (r *renderer) bullets(items []string) {
	r.body()
	if len(items) == 0 {
		r.noData()
		return
	}
	for _, item := range items {
		r.pdf.SetX(pageMargin + 4)
		r.pdf.MultiCell(r.contentWidth()-4, lineHeight, r.tr("- "+item), "", "L", false)
	}
	r.pdf.Ln(1)
}

func (r *renderer) noData() {
	r.pdf.SetFont(fontFamily, "I", 10)
	r.setText(colorMuted)
	r.pdf.SetX(pageMargin + 4)
	r.pdf.CellFormat(0, lineHeight, NoData, "", 1, "L", false, 0, "")
	r.resetText()
	r.body()
}

func (r *renderer) cover(in Input) {
	r.pdf.AddPage()
	r.pdf.Ln(45)
	r.bold(26)
	r.setText(colorPrimary)
	r.pdf.CellFormat(0, 14, "Skill Gap Analysis Report", "", 1, "C", false, 0, "")
	r.resetText()
	r.pdf.Ln(12)

	name := in.UserName
	if strings.TrimSpace(name) == "" {
		name = "User"
	}
	roles := strings.Join(in.Roles, ", ")
	if roles == "" {
		roles = NoData
	}
	rows := [][2]string{
		{"Prepared for:", name},
		{"Email:", in.UserEmail},
		{"Target Roles:", roles},
		{"Generated:", in.GeneratedAt.UTC().Format("January 02, 2006 at 15:04 UTC")},
	}
	for _, row := range rows {
		r.pdf.SetX(pageMargin + 20)
		r.bold(11)
		r.pdf.CellFormat(35, 7, row[0], "", 0, "L", false, 0, "")
		r.pdf.SetFont(fontFamily, "", 11)
		r.pdf.MultiCell(r.contentWidth()-55, 7, r.tr(row[1]), "", "L", false)
	}
	r.pdf.AddPage()
}

func (r *renderer) headline(a analyses.Result) {
	r.heading("Headline Scores")
	rows := [][2]string{
		{"Overall Fit Score", fmt.Sprintf("%d/100", a.OverallFitScore)},
		{"Skill Gap", fmt.Sprintf("%d%%", a.OverallGapPercentage)},
		{"Market Readiness", fmt.Sprintf("%d/10", a.SkillAssessment.MarketReadinessScore)},
		{"Critical Missing Skills", fmt.Sprintf("%d", len(a.CriticalMissingSkills))},
	}
	r.table([]string{"Metric", "Score"}, []float64{100, 60}, stringRows(rows), colorPrimary)
}

func stringRows(rows [][2]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, []string{row[0], row[1]})
	}
	return out
}

type bar struct {
	label string
	value float64 // 0..1
	color rgb
	text  string
}

func (r *renderer) scoreChart(a analyses.Result) {
	r.pdf.Ln(4)
	r.label("Score Overview")
	r.bars([]bar{
		{label: "Fit", value: float64(a.OverallFitScore) / 100, color: colorSuccess, text: fmt.Sprintf("%d", a.OverallFitScore)},
		{label: "Gap", value: float64(a.OverallGapPercentage) / 100, color: colorDanger, text: fmt.Sprintf("%d%%", a.OverallGapPercentage)},
		{label: "Readiness", value: float64(a.SkillAssessment.MarketReadinessScore) / 10, color: colorWarning, text: fmt.Sprintf("%d/10", a.SkillAssessment.MarketReadinessScore)},
	})
}

// bars draws horizontal bars scaled to the content width.
func (r *renderer) bars(items []bar) {
	if len(items) == 0 {
		r.noData()
		return
	}
	const labelW, valueW, barH = 45.0, 18.0, 6.0
	trackW := r.contentWidth() - labelW - valueW
	for _, it := range items {
		v := it.value
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		r.pdf.SetFont(fontFamily, "", 9)
		r.pdf.CellFormat(labelW, barH, r.tr(truncate(it.label, 28)), "", 0, "L", false, 0, "")
		x, y := r.pdf.GetXY()
		r.setFill(colorLight)
		r.pdf.Rect(x, y+0.5, trackW, barH-1, "F")
		if v > 0 {
			r.setFill(it.color)
			r.pdf.Rect(x, y+0.5, trackW*v, barH-1, "F")
		}
		r.pdf.SetX(x + trackW)
		r.pdf.CellFormat(valueW, barH, it.text, "", 1, "R", false, 0, "")
		r.pdf.Ln(1)
	}
	r.body()
}

func (r *renderer) table(header []string, widths []float64, rows [][]string, head rgb) {
	if len(rows) == 0 {
		r.noData()
		return
	}
	r.setFill(head)
	r.setDraw(head)
	r.pdf.SetTextColor(255, 255, 255)
	r.bold(9)
	for i, h := range header {
		r.pdf.CellFormat(widths[i], 7, r.tr(h), "1", 0, "L", true, 0, "")
	}
	r.pdf.Ln(-1)
	r.resetText()
	r.pdf.SetFont(fontFamily, "", 9)
	for n, row := range rows {
		fill := n%2 == 1
		r.setFill(colorLight)
		for i, cell := range row {
			r.pdf.CellFormat(widths[i], 6.5, r.tr(fitCell(r.pdf, cell, widths[i])), "1", 0, "L", fill, 0, "")
		}
		r.pdf.Ln(-1)
	}
	r.pdf.SetDrawColor(0, 0, 0)
	r.pdf.Ln(2)
	r.body()
}

// fitCell shortens s so it fits a single table cell of width w.
func fitCell(pdf *fpdf.Fpdf, s string, w float64) string {
	s = strings.TrimSpace(s)
	if pdf.GetStringWidth(s) <= w-2 {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > w-2 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func (r *renderer) executiveSummary(a analyses.Result) {
	r.heading("Executive Summary")
	r.paragraph(a.ExecutiveSummary)
}

func (r *renderer) marketTrends(m analyses.MarketTrends) {
	r.heading("Current Market Trends")
	r.label("Top In-Demand Skills")
	r.bullets(m.TopSkills)
	r.label("Growing Technologies")
	r.bullets(m.GrowingTechnologies)
	r.label("Market Direction")
	r.paragraph(m.MarketDirection)
	r.label("Key Statistics")
	r.bullets(m.KeyStatistics)
}

func (r *renderer) skillAssessment(s analyses.SkillAssessment) {
	r.heading("Your Skill Assessment")
	r.paragraph(fmt.Sprintf("Market Readiness Score: %d/10", s.MarketReadinessScore))
	r.label("Strong Skills (aligned with market)")
	r.bullets(s.StrongSkills)
	r.label("Skills Needing Improvement")
	r.bullets(s.NeedsImprovement)
	if strings.TrimSpace(s.AssessmentNotes) != "" {
		r.label("Notes")
		r.paragraph(s.AssessmentNotes)
	}
}

func (r *renderer) gapTable(gaps []analyses.RoleGap) {
	r.heading("Skill Gap Analysis by Target Role")
	rows := make([][]string, 0, len(gaps))
	for _, g := range gaps {
		rows = append(rows, []string{
			g.Role,
			fmt.Sprintf("%d%%", g.GapPercentage),
			strings.Join(g.UserHas, ", "),
			strings.Join(g.UserMissing, ", "),
		})
	}
	r.table([]string{"Role", "Gap", "You Have", "Missing"}, []float64{45, 15, 60, 60}, rows, colorPrimary)
	for _, g := range gaps {
		r.label(g.Role)
		r.pdf.SetFont(fontFamily, "I", 9)
		r.pdf.CellFormat(0, lineHeight, "Missing skills", "", 1, "L", false, 0, "")
		r.bullets(g.UserMissing)
	}
}

func (r *renderer) criticalSkills(skills []analyses.MissingSkill) {
	r.heading("Critical Skills to Acquire")
	rows := make([][]string, 0, len(skills))
	for _, s := range skills {
		rows = append(rows, []string{s.Skill, s.Importance, s.LearningDifficulty, s.Reason})
	}
	r.table([]string{"Skill", "Importance", "Difficulty", "Why"}, []float64{45, 25, 25, 85}, rows, colorSecondary)
}

func (r *renderer) recommendations(rec analyses.Recommendations) {
	r.heading("Personalized Recommendations")
	r.label("Immediate Actions (Next 30 Days)")
	r.bullets(rec.ImmediateActions)
	r.label("Short-Term Goals (1-3 Months)")
	r.bullets(rec.ShortTermGoals)
	r.label("Long-Term Strategy (3-6 Months)")
	r.bullets(rec.LongTermStrategy)
}

func (r *renderer) learningResources(resources []analyses.LearningResource) {
	r.heading("Recommended Learning Resources")
	if len(resources) == 0 {
		r.noData()
		return
	}
	for _, res := range resources {
		r.bold(11)
		r.setText(colorSecondary)
		r.pdf.CellFormat(0, 7, r.tr(res.Skill), "", 1, "L", false, 0, "")
		r.resetText()
		r.label("Free Resources")
		r.bullets(res.FreeResources)
		r.label("Paid Courses")
		r.bullets(res.PaidCourses)
		r.label("Certifications")
		r.bullets(res.Certifications)
		r.label("Project Ideas")
		r.bullets(res.ProjectIdeas)
	}
}

func (r *renderer) competitiveness(scores []analyses.Competitiveness) {
	r.heading("Market Competitiveness Scores")
	rows := make([][]string, 0, len(scores))
	items := make([]bar, 0, len(scores))
	for _, s := range scores {
		rows = append(rows, []string{s.Role, fmt.Sprintf("%d/100", s.Score), s.Explanation})
		items = append(items, bar{label: s.Role, value: float64(s.Score) / 100, color: colorPrimary, text: fmt.Sprintf("%d", s.Score)})
	}
	r.table([]string{"Target Role", "Score", "Assessment"}, []float64{50, 20, 110}, rows, colorPrimary)
	if len(items) > 0 {
		r.bars(items)
	}
}

func (r *renderer) keyInsights(insights []string) {
	r.heading("Key Insights")
	r.bullets(insights)
}
