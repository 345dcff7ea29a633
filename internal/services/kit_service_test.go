// internal/services/kit_service_test.go
package services

import (
	"context"
	"strings"
	"testing"

	apperrors "github.com/RomaLabs/RomaPlanner/internal/errors"
	"github.com/RomaLabs/RomaPlanner/internal/models"
	"github.com/RomaLabs/RomaPlanner/internal/storage"
	"github.com/RomaLabs/RomaPlanner/internal/utils"
)

func TestGenerateKit_ParsesAndPersists(t *testing.T) {
	svc, _ := newTestKitService(t, fixedTextProvider())

	generateSampleKit(t, svc, "2024-03-01")

	contentKit, err := svc.GetKit("2024-03-01")
	if err != nil {
		t.Fatalf("读取套件失败: %v", err)
	}
	if contentKit.ID == "" {
		t.Error("套件ID不应为空")
	}
	if contentKit.RawText != sampleKitRaw {
		t.Error("原始文本必须原样保留")
	}
	if len(contentKit.Sections) != 4 {
		t.Fatalf("区块数 = %d, 期望 4", len(contentKit.Sections))
	}

	wantTypes := []models.SectionType{
		models.SectionVideoScript,
		models.SectionStoriesSequence,
		models.SectionImagePrompt,
		models.SectionMeme,
	}
	for i, want := range wantTypes {
		if contentKit.Sections[i].Type != want {
			t.Errorf("Sections[%d].Type = %s, 期望 %s", i, contentKit.Sections[i].Type, want)
		}
		if contentKit.Sections[i].Index != i+1 {
			t.Errorf("Sections[%d].Index = %d, 期望 %d", i, contentKit.Sections[i].Index, i+1)
		}
	}
}

func TestGenerateKit_RecordsSharedMetrics(t *testing.T) {
	fs, err := storage.NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("创建文件存储失败: %v", err)
	}
	shared := utils.NewAPIMetrics()
	svc := NewKitService(&fakeSource{provider: fixedTextProvider()}, fs,
		NewStrategyService(), nil, shared)

	if _, err := svc.GenerateKit(context.Background(), sampleCalendarContext("2024-03-01"), nil); err != nil {
		t.Fatalf("生成套件失败: %v", err)
	}

	if got := shared.CounterValue("llm_requests_total"); got != 1 {
		t.Errorf("llm_requests_total = %d, 期望 1", got)
	}
	if got := shared.CounterValue("generations_text"); got != 1 {
		t.Errorf("generations_text = %d, 期望 1", got)
	}
	if got := shared.CounterValue("date_2024-03-01_generations"); got != 1 {
		t.Errorf("按日期分桶计数 = %d, 期望 1", got)
	}
}

func TestGenerateKit_ProviderUnavailable(t *testing.T) {
	fs, err := storage.NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("创建文件存储失败: %v", err)
	}
	svc := NewKitService(&fakeSource{err: errFakeUpstream}, fs, NewStrategyService(), nil, nil)

	_, err = svc.GenerateKit(context.Background(), sampleCalendarContext("2024-03-01"), nil)
	if err == nil {
		t.Fatal("提供者不可用时应返回错误")
	}
	if !apperrors.IsUpstreamFailureError(err) {
		t.Errorf("错误类型不对: %v", err)
	}
}

func TestGetKit_NotFound(t *testing.T) {
	svc, _ := newTestKitService(t, fixedTextProvider())

	_, err := svc.GetKit("1999-01-01")
	if err == nil {
		t.Fatal("不存在的日期应返回错误")
	}
	if !apperrors.IsNotFoundError(err) {
		t.Errorf("错误类型不对: %v", err)
	}
}

func TestResegmentKit_Idempotent(t *testing.T) {
	svc, _ := newTestKitService(t, fixedTextProvider())
	generateSampleKit(t, svc, "2024-03-01")

	before, err := svc.GetKit("2024-03-01")
	if err != nil {
		t.Fatalf("读取套件失败: %v", err)
	}

	after, err := svc.ResegmentKit("2024-03-01")
	if err != nil {
		t.Fatalf("重新切分失败: %v", err)
	}

	// 原文未变，切分结果必须逐一相同
	if len(after.Sections) != len(before.Sections) {
		t.Fatalf("区块数变化: %d -> %d", len(before.Sections), len(after.Sections))
	}
	for i := range after.Sections {
		if after.Sections[i] != before.Sections[i] {
			t.Errorf("Sections[%d] 在重新切分后发生变化", i)
		}
	}
}

func TestGetSlotPrompt_AutoExtraction(t *testing.T) {
	svc, _ := newTestKitService(t, fixedTextProvider())
	generateSampleKit(t, svc, "2024-03-01")

	slot, err := svc.GetSlotPrompt("2024-03-01", 2, 3)
	if err != nil {
		t.Fatalf("取槽位失败: %v", err)
	}
	if slot.Manual {
		t.Error("未覆盖的槽位 Manual 应为 false")
	}
	if !strings.Contains(slot.Text, "Depoimento") {
		t.Errorf("槽位3文本 = %q, 期望包含 Depoimento", slot.Text)
	}
	if slot.NearEmpty {
		t.Error("有内容的槽位不应标记近空")
	}
}

func TestGetSlotPrompt_OutOfRange(t *testing.T) {
	svc, _ := newTestKitService(t, fixedTextProvider())
	generateSampleKit(t, svc, "2024-03-01")

	tests := []struct {
		section int
		slot    int
	}{
		{1, 0},  // 下界
		{1, 2},  // 单槽区块无第二槽
		{2, 6},  // stories 只有5槽
		{4, 3},  // meme 只有2槽
		{-1, 1}, // 区块不存在
		{99, 1},
	}
	for _, tt := range tests {
		if _, err := svc.GetSlotPrompt("2024-03-01", tt.section, tt.slot); err == nil {
			t.Errorf("GetSlotPrompt(%d, %d) 应失败", tt.section, tt.slot)
		}
	}
}

func TestGetSlotPrompt_EmptySectionIsNearEmpty(t *testing.T) {
	svc, _ := newTestKitService(t, fixedTextProvider())
	generateSampleKit(t, svc, "2024-03-01")

	// 第4区块(meme)正文为空，提取结果为空串但不报错
	slot, err := svc.GetSlotPrompt("2024-03-01", 4, 1)
	if err != nil {
		t.Fatalf("取空区块槽位失败: %v", err)
	}
	if slot.Text != "" {
		t.Errorf("空区块槽位文本 = %q, 期望空串", slot.Text)
	}
	if !slot.NearEmpty {
		t.Error("空槽位应标记近空")
	}
}

func TestOverrideSlot_TakesPrecedence(t *testing.T) {
	svc, _ := newTestKitService(t, fixedTextProvider())
	generateSampleKit(t, svc, "2024-03-01")

	manual, err := svc.OverrideSlot("2024-03-01", 2, 1, "  versão manual do story  ")
	if err != nil {
		t.Fatalf("覆盖槽位失败: %v", err)
	}
	if manual.Text != "versão manual do story" {
		t.Errorf("覆盖文本 = %q, 期望已修剪", manual.Text)
	}
	if !manual.Manual {
		t.Error("覆盖槽位 Manual 应为 true")
	}

	got, err := svc.GetSlotPrompt("2024-03-01", 2, 1)
	if err != nil {
		t.Fatalf("取槽位失败: %v", err)
	}
	if !got.Manual || got.Text != "versão manual do story" {
		t.Errorf("读取到 %+v, 期望手工覆盖版本", got)
	}

	// 其他槽位不受影响
	other, err := svc.GetSlotPrompt("2024-03-01", 2, 2)
	if err != nil {
		t.Fatalf("取槽位失败: %v", err)
	}
	if other.Manual {
		t.Error("未覆盖的槽位不应变成手工版本")
	}
}

// 重新切分只重算自动推导，手工覆盖必须原样保留
func TestOverrideSlot_SurvivesResegment(t *testing.T) {
	svc, _ := newTestKitService(t, fixedTextProvider())
	generateSampleKit(t, svc, "2024-03-01")

	if _, err := svc.OverrideSlot("2024-03-01", 2, 1, "versão manual"); err != nil {
		t.Fatalf("覆盖槽位失败: %v", err)
	}
	if _, err := svc.ResegmentKit("2024-03-01"); err != nil {
		t.Fatalf("重新切分失败: %v", err)
	}

	slot, err := svc.GetSlotPrompt("2024-03-01", 2, 1)
	if err != nil {
		t.Fatalf("取槽位失败: %v", err)
	}
	if !slot.Manual || slot.Text != "versão manual" {
		t.Errorf("重新切分后覆盖丢失: %+v", slot)
	}
}

func TestResetSlot_RestoresAutoExtraction(t *testing.T) {
	svc, _ := newTestKitService(t, fixedTextProvider())
	generateSampleKit(t, svc, "2024-03-01")

	auto, err := svc.GetSlotPrompt("2024-03-01", 2, 2)
	if err != nil {
		t.Fatalf("取槽位失败: %v", err)
	}

	if _, err := svc.OverrideSlot("2024-03-01", 2, 2, "outro texto"); err != nil {
		t.Fatalf("覆盖槽位失败: %v", err)
	}
	if err := svc.ResetSlot("2024-03-01", 2, 2); err != nil {
		t.Fatalf("清除覆盖失败: %v", err)
	}

	restored, err := svc.GetSlotPrompt("2024-03-01", 2, 2)
	if err != nil {
		t.Fatalf("取槽位失败: %v", err)
	}
	if restored.Manual {
		t.Error("清除覆盖后 Manual 应为 false")
	}
	if restored.Text != auto.Text {
		t.Errorf("清除后文本 = %q, 期望恢复自动推导 %q", restored.Text, auto.Text)
	}
}

func TestGetSectionSlots_CountByType(t *testing.T) {
	svc, _ := newTestKitService(t, fixedTextProvider())
	generateSampleKit(t, svc, "2024-03-01")

	tests := []struct {
		section int
		want    int
	}{
		{1, 1}, // roteiro
		{2, 5}, // stories
		{3, 1}, // imagem
		{4, 2}, // meme
	}
	for _, tt := range tests {
		slots, err := svc.GetSectionSlots("2024-03-01", tt.section)
		if err != nil {
			t.Fatalf("取区块 %d 槽位失败: %v", tt.section, err)
		}
		if len(slots) != tt.want {
			t.Errorf("区块 %d 槽位数 = %d, 期望 %d", tt.section, len(slots), tt.want)
		}
		for i, slot := range slots {
			if slot.SlotIndex != i+1 {
				t.Errorf("区块 %d 槽位 %d 序号 = %d", tt.section, i, slot.SlotIndex)
			}
		}
	}
}
