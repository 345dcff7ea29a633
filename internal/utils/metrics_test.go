// internal/utils/metrics_test.go
package utils

import (
	"testing"
	"time"
)

func TestMetricsCollectorCountersAndGauges(t *testing.T) {
	m := NewMetricsCollector()

	m.IncrementCounter("generations_total")
	m.IncrementCounter("generations_total")
	m.AddCounter("llm_tokens_total", 1500)

	if got := m.CounterValue("generations_total"); got != 2 {
		t.Errorf("generations_total = %d, 期望 2", got)
	}
	if got := m.CounterValue("llm_tokens_total"); got != 1500 {
		t.Errorf("llm_tokens_total = %d, 期望 1500", got)
	}
	if got := m.CounterValue("inexistente"); got != 0 {
		t.Errorf("未知计数器应为 0, 实际 %d", got)
	}

	m.AddGauge("active_video_jobs", 1)
	m.AddGauge("active_video_jobs", 1)
	m.AddGauge("active_video_jobs", -1)
	if got := m.GaugeValue("active_video_jobs"); got != 1 {
		t.Errorf("active_video_jobs = %d, 期望 1", got)
	}
}

func TestMetricsCollectorHistogram(t *testing.T) {
	m := NewMetricsCollector()
	m.RecordHistogram("llm_response_time_ms", 120)
	m.RecordHistogram("llm_response_time_ms", 80)
	m.RecordHistogram("llm_response_time_ms", 300)

	snap := m.Snapshot()
	histograms, ok := snap["histograms"].(map[string]map[string]int64)
	if !ok {
		t.Fatal("快照应包含直方图表")
	}
	h := histograms["llm_response_time_ms"]
	if h["count"] != 3 || h["sum"] != 500 || h["min"] != 80 || h["max"] != 300 {
		t.Errorf("直方图统计错误: %v", h)
	}
}

func TestAPIMetricsInstancesAreIndependent(t *testing.T) {
	a := NewAPIMetrics()
	b := NewAPIMetrics()

	a.RecordGeneration("text", "2024-03-01")
	if got := b.CounterValue("generations_total"); got != 0 {
		t.Errorf("独立实例不应互相串数: %d", got)
	}
	if got := a.CounterValue("generations_total"); got != 1 {
		t.Errorf("generations_total = %d, 期望 1", got)
	}
	if got := a.CounterValue("generations_text"); got != 1 {
		t.Errorf("generations_text = %d, 期望 1", got)
	}
}

func TestAPIMetricsRecordAPIRequest(t *testing.T) {
	am := NewAPIMetrics()
	am.RecordAPIRequest("/api/kit/generate", "POST", 200, 35*time.Millisecond)
	am.RecordAPIRequest("/api/kit/generate", "POST", 502, 10*time.Millisecond)

	if got := am.CounterValue("api_requests_total"); got != 2 {
		t.Errorf("api_requests_total = %d, 期望 2", got)
	}
	if got := am.CounterValue("api_requests_POST_/api/kit/generate"); got != 2 {
		t.Errorf("分路由计数 = %d, 期望 2", got)
	}
	if got := am.CounterValue("api_responses_2xx"); got != 1 {
		t.Errorf("api_responses_2xx = %d, 期望 1", got)
	}
	if got := am.CounterValue("api_responses_5xx"); got != 1 {
		t.Errorf("api_responses_5xx = %d, 期望 1", got)
	}
}

func TestAPIMetricsJobGauge(t *testing.T) {
	am := NewAPIMetrics()
	am.JobStarted("video")
	am.JobStarted("video")
	am.JobFinished("video")

	if got := am.GaugeValue("active_video_jobs"); got != 1 {
		t.Errorf("active_video_jobs = %d, 期望 1", got)
	}

	snap := am.Snapshot()
	gauges, ok := snap["gauges"].(map[string]int64)
	if !ok {
		t.Fatal("快照应包含仪表盘表")
	}
	if gauges["active_video_jobs"] != 1 {
		t.Errorf("快照中 active_video_jobs = %d, 期望 1", gauges["active_video_jobs"])
	}
}
