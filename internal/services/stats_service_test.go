// internal/services/stats_service_test.go
package services

import (
	"testing"
	"time"
)

func TestRecordGeneration_AccumulatesByKind(t *testing.T) {
	svc := NewStatsService(t.TempDir())
	defer svc.Close()

	for _, kind := range []string{"text", "image", "image", "video"} {
		if err := svc.RecordGeneration(kind, 0); err != nil {
			t.Fatalf("记录失败: %v", err)
		}
	}
	if err := svc.RecordGeneration("text", 1500); err != nil {
		t.Fatalf("记录失败: %v", err)
	}

	stats := svc.GetUsageStats()
	if stats.TodayGenerations != 5 {
		t.Errorf("TodayGenerations = %d, 期望 5", stats.TodayGenerations)
	}
	if stats.KindStats["text"] != 2 || stats.KindStats["image"] != 2 || stats.KindStats["video"] != 1 {
		t.Errorf("KindStats = %v", stats.KindStats)
	}
	if stats.MonthlyTokens != 1500 {
		t.Errorf("MonthlyTokens = %d, 期望 1500", stats.MonthlyTokens)
	}

	today := time.Now().Format("2006-01-02")
	if stats.DailyStats[today] != 5 {
		t.Errorf("DailyStats[%s] = %d, 期望 5", today, stats.DailyStats[today])
	}
}

func TestGetUsageStats_ReturnsCopy(t *testing.T) {
	svc := NewStatsService(t.TempDir())
	defer svc.Close()

	if err := svc.RecordGeneration("text", 10); err != nil {
		t.Fatalf("记录失败: %v", err)
	}

	stats := svc.GetUsageStats()
	stats.KindStats["text"] = 999

	if svc.GetUsageStats().KindStats["text"] == 999 {
		t.Error("GetUsageStats 应返回副本")
	}
}

func TestResetStats(t *testing.T) {
	svc := NewStatsService(t.TempDir())
	defer svc.Close()

	if err := svc.RecordGeneration("image", 0); err != nil {
		t.Fatalf("记录失败: %v", err)
	}
	if err := svc.ResetStats(); err != nil {
		t.Fatalf("重置失败: %v", err)
	}

	stats := svc.GetUsageStats()
	if stats.TodayGenerations != 0 || len(stats.KindStats) != 0 {
		t.Errorf("重置后仍有数据: %+v", stats)
	}
}

func TestStats_PersistAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	first := NewStatsService(dir)
	if err := first.RecordGeneration("video", 0); err != nil {
		t.Fatalf("记录失败: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("关闭失败: %v", err)
	}

	second := NewStatsService(dir)
	defer second.Close()
	stats := second.GetUsageStats()
	if stats.KindStats["video"] != 1 {
		t.Errorf("重建实例后 KindStats = %v, 期望保留 video=1", stats.KindStats)
	}
}
