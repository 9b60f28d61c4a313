package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	analysesGeneratedTotal atomic.Uint64
	analysesFailedTotal    atomic.Uint64
	reportsPublishedTotal  atomic.Uint64
	reportsDegradedTotal   atomic.Uint64
	batchRunsTotal         atomic.Uint64
	batchSucceededTotal    atomic.Uint64
	batchFailedTotal       atomic.Uint64
	batchSkippedTotal      atomic.Uint64

	llmDuration = newHistogram([]float64{1000, 5000, 10000, 20000, 30000, 60000, 90000, 120000, 180000})
)

// IncAnalysisGenerated counts an analysis that was persisted.
func IncAnalysisGenerated() {
	analysesGeneratedTotal.Add(1)
}

// IncAnalysisFailed counts a generate call that did not produce an analysis.
func IncAnalysisFailed() {
	analysesFailedTotal.Add(1)
}

// IncReportPublished counts a report uploaded with a usable URL.
func IncReportPublished() {
	reportsPublishedTotal.Add(1)
}

// IncReportDegraded counts a report that failed to render or upload.
func IncReportDegraded() {
	reportsDegradedTotal.Add(1)
}

// ObserveBatchRun records the per-user outcome counts of one batch run.
func ObserveBatchRun(succeeded, failed, skipped int) {
	batchRunsTotal.Add(1)
	batchSucceededTotal.Add(uint64(max(succeeded, 0)))
	batchFailedTotal.Add(uint64(max(failed, 0)))
	batchSkippedTotal.Add(uint64(max(skipped, 0)))
}

// ObserveLLMDurationMs records one provider call duration in milliseconds.
func ObserveLLMDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	llmDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "skillgap_analyses_generated_total", "Analyses persisted", analysesGeneratedTotal.Load())
	writeCounter(&buf, "skillgap_analyses_failed_total", "Generate calls that failed", analysesFailedTotal.Load())
	writeCounter(&buf, "skillgap_reports_published_total", "Reports uploaded", reportsPublishedTotal.Load())
	writeCounter(&buf, "skillgap_reports_degraded_total", "Reports that failed to render or upload", reportsDegradedTotal.Load())
	writeCounter(&buf, "skillgap_batch_runs_total", "Batch runs completed", batchRunsTotal.Load())
	writeCounter(&buf, "skillgap_batch_users_succeeded_total", "Batch users analysed", batchSucceededTotal.Load())
	writeCounter(&buf, "skillgap_batch_users_failed_total", "Batch users failed", batchFailedTotal.Load())
	writeCounter(&buf, "skillgap_batch_users_skipped_total", "Batch users skipped", batchSkippedTotal.Load())
	writeHistogram(&buf, "skillgap_llm_duration_ms", "LLM call duration in milliseconds", llmDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
