// internal/utils/metrics.go
package utils

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector 进程内指标收集器：计数器、仪表盘和简易直方图
// 每个实例独立持有自己的指标表，无全局状态
type MetricsCollector struct {
	counters   map[string]*counter
	gauges     map[string]*gauge
	histograms map[string]*histogram

	mu sync.RWMutex
}

// counter 单调递增计数，值用原子操作更新
type counter struct {
	value int64
}

// gauge 可增可减的瞬时值，值用原子操作更新
type gauge struct {
	value int64
}

// histogram 只记 count/sum/min/max 的简易直方图
type histogram struct {
	count int64
	sum   int64
	min   int64
	max   int64
	mu    sync.Mutex
}

// NewMetricsCollector 创建空收集器
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:   make(map[string]*counter),
		gauges:     make(map[string]*gauge),
		histograms: make(map[string]*histogram),
	}
}

// IncrementCounter 计数器加1
func (m *MetricsCollector) IncrementCounter(name string) {
	m.AddCounter(name, 1)
}

// AddCounter 计数器加指定值
// 快路径只拿读锁，首次出现的指标名才走写锁建表
func (m *MetricsCollector) AddCounter(name string, value int64) {
	m.mu.RLock()
	c, exists := m.counters[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		c, exists = m.counters[name]
		if !exists {
			c = &counter{}
			m.counters[name] = c
		}
		m.mu.Unlock()
	}

	atomic.AddInt64(&c.value, value)
}

// AddGauge 仪表盘值加减
func (m *MetricsCollector) AddGauge(name string, delta int64) {
	m.mu.RLock()
	g, exists := m.gauges[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		g, exists = m.gauges[name]
		if !exists {
			g = &gauge{}
			m.gauges[name] = g
		}
		m.mu.Unlock()
	}

	atomic.AddInt64(&g.value, delta)
}

// GaugeValue 读仪表盘当前值，不存在时返回0
func (m *MetricsCollector) GaugeValue(name string) int64 {
	m.mu.RLock()
	g, exists := m.gauges[name]
	m.mu.RUnlock()

	if !exists {
		return 0
	}
	return atomic.LoadInt64(&g.value)
}

// RecordHistogram 记录一次直方图采样
func (m *MetricsCollector) RecordHistogram(name string, value int64) {
	m.mu.RLock()
	h, exists := m.histograms[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		h, exists = m.histograms[name]
		if !exists {
			h = &histogram{min: value, max: value}
			m.histograms[name] = h
		}
		m.mu.Unlock()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.count++
	h.sum += value
	if value < h.min {
		h.min = value
	}
	if value > h.max {
		h.max = value
	}
}

// CounterValue 读计数器当前值，不存在时返回0
func (m *MetricsCollector) CounterValue(name string) int64 {
	m.mu.RLock()
	c, exists := m.counters[name]
	m.mu.RUnlock()

	if !exists {
		return 0
	}
	return atomic.LoadInt64(&c.value)
}

// Snapshot 导出全部指标的一致性快照
func (m *MetricsCollector) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counters := make(map[string]int64)
	for name, c := range m.counters {
		counters[name] = atomic.LoadInt64(&c.value)
	}

	gauges := make(map[string]int64)
	for name, g := range m.gauges {
		gauges[name] = atomic.LoadInt64(&g.value)
	}

	histograms := make(map[string]map[string]int64)
	for name, h := range m.histograms {
		h.mu.Lock()
		histograms[name] = map[string]int64{
			"count": h.count,
			"sum":   h.sum,
			"min":   h.min,
			"max":   h.max,
		}
		h.mu.Unlock()
	}

	return map[string]interface{}{
		"counters":   counters,
		"gauges":     gauges,
		"histograms": histograms,
	}
}

// APIMetrics 面向业务语义的指标外观
// 各服务共享同一个实例，请求量、生成量才能汇总到一处
type APIMetrics struct {
	collector *MetricsCollector
	logger    *Logger
}

// NewAPIMetrics 创建带独立收集器的指标外观
func NewAPIMetrics() *APIMetrics {
	return &APIMetrics{
		collector: NewMetricsCollector(),
		logger:    GetLogger(),
	}
}

// RecordAPIRequest 记录一次HTTP请求：总量、分路由量、耗时直方图与状态码分桶
func (am *APIMetrics) RecordAPIRequest(endpoint, method string, statusCode int, duration time.Duration) {
	am.collector.IncrementCounter("api_requests_total")
	am.collector.IncrementCounter("api_requests_" + method + "_" + endpoint)
	am.collector.RecordHistogram("api_response_time_ms", duration.Milliseconds())
	am.collector.IncrementCounter("api_responses_" + string(rune('0'+statusCode/100)) + "xx")
}

// RecordLLMRequest 记录一次AI调用：总量、分提供者量、token消耗与耗时
func (am *APIMetrics) RecordLLMRequest(provider, model string, tokensUsed int, duration time.Duration) {
	am.collector.IncrementCounter("llm_requests_total")
	am.collector.IncrementCounter("llm_requests_" + provider)
	am.collector.AddCounter("llm_tokens_total", int64(tokensUsed))
	am.collector.RecordHistogram("llm_response_time_ms", duration.Milliseconds())

	am.logger.Debug("AI调用完成", map[string]interface{}{
		"provider": provider,
		"model":    model,
		"tokens":   tokensUsed,
		"duration": duration.Milliseconds(),
	})
}

// RecordGeneration 记录一次内容生成，按资产类型与档期日期分桶
func (am *APIMetrics) RecordGeneration(kind, date string) {
	am.collector.IncrementCounter("generations_total")
	am.collector.IncrementCounter("generations_" + kind)
	am.collector.IncrementCounter("date_" + date + "_generations")
}

// RecordUserAction 记录一次用户动作（登录、登出等）
func (am *APIMetrics) RecordUserAction(userID, action string) {
	am.collector.IncrementCounter("user_actions_total")
	am.collector.IncrementCounter("user_actions_" + action)
	am.collector.IncrementCounter("user_" + userID + "_actions")
}

// RecordError 记录一次错误，按类型与组件分桶
func (am *APIMetrics) RecordError(errorType, component string) {
	am.collector.IncrementCounter("errors_total")
	am.collector.IncrementCounter("errors_" + errorType)
	am.collector.IncrementCounter("errors_in_" + component)

	am.logger.Warn("记录到错误", map[string]interface{}{
		"type":      errorType,
		"component": component,
	})
}

// JobStarted 在途任务数加1
func (am *APIMetrics) JobStarted(kind string) {
	am.collector.AddGauge("active_"+kind+"_jobs", 1)
}

// JobFinished 在途任务数减1
func (am *APIMetrics) JobFinished(kind string) {
	am.collector.AddGauge("active_"+kind+"_jobs", -1)
}

// CounterValue 读指定计数器当前值
func (am *APIMetrics) CounterValue(name string) int64 {
	return am.collector.CounterValue(name)
}

// GaugeValue 读指定仪表盘当前值
func (am *APIMetrics) GaugeValue(name string) int64 {
	return am.collector.GaugeValue(name)
}

// Snapshot 导出全部指标快照，供统计接口展示
func (am *APIMetrics) Snapshot() map[string]interface{} {
	return am.collector.Snapshot()
}

// StartMetricsCollection 启动后台协程，每分钟把指标摘要写进日志
func (am *APIMetrics) StartMetricsCollection(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				am.logger.Info("周期性指标汇报", map[string]interface{}{
					"metrics": am.collector.Snapshot(),
				})
			}
		}
	}()
}
