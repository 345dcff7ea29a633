// internal/services/visual_service_test.go
package services

import (
	"context"
	"strings"
	"testing"

	apperrors "github.com/RomaLabs/RomaPlanner/internal/errors"
	"github.com/RomaLabs/RomaPlanner/internal/llm"
	"github.com/RomaLabs/RomaPlanner/internal/models"
)

// validPNGDataURI 1字节的伪PNG，只看解码路径不看图像内容
const validPNGDataURI = "data:image/png;base64,iQ=="

func newTestVisualService(t *testing.T, provider llm.Provider) (*VisualService, *KitService) {
	t.Helper()
	kits, fs := newTestKitService(t, provider)
	progress := NewProgressService()
	svc := NewVisualService(&fakeSource{provider: provider}, kits, fs, nil, progress, nil)
	return svc, kits
}

func TestDecodeDataURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		wantErr bool
		mime    string
	}{
		{"合法PNG", validPNGDataURI, false, "image/png"},
		{"合法JPEG", "data:image/jpeg;base64,/9j/4A==", false, "image/jpeg"},
		{"payload内空白被剥除", "data:image/png;base64,iQ =\n=", false, "image/png"},
		{"缺少前缀", "iVBORw0KGgo=", true, ""},
		{"裸URL", "https://exemplo.com/foto.png", true, ""},
		{"坏base64", "data:image/png;base64,@@@@", true, ""},
		{"空payload", "data:image/png;base64,", true, ""},
		{"空串", "", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, mime, err := DecodeDataURI(tt.uri)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DecodeDataURI(%q) 应失败", tt.uri)
				}
				if !apperrors.IsInvalidReferenceError(err) {
					t.Errorf("错误类型不对: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeDataURI(%q) 失败: %v", tt.uri, err)
			}
			if mime != tt.mime {
				t.Errorf("MIME = %q, 期望 %q", mime, tt.mime)
			}
			if len(data) == 0 {
				t.Error("解码数据不应为空")
			}
		})
	}
}

func TestEncodeDecodeDataURI_RoundTrip(t *testing.T) {
	original := []byte{0x89, 0x50, 0x4E, 0x47}
	uri := EncodeDataURI(original, "image/png")

	data, mime, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("解码失败: %v", err)
	}
	if mime != "image/png" {
		t.Errorf("MIME = %q", mime)
	}
	if string(data) != string(original) {
		t.Error("往返后数据不一致")
	}
}

func TestGenerateSlotImage_Persists(t *testing.T) {
	provider := fixedTextProvider()
	svc, kits := newTestVisualService(t, provider)
	generateSampleKit(t, kits, "2024-03-01")

	asset, skipped, err := svc.GenerateSlotImage(context.Background(), "2024-03-01", 2, 1, nil)
	if err != nil {
		t.Fatalf("生成配图失败: %v", err)
	}
	if len(skipped) != 0 {
		t.Errorf("无参考图时 skipped = %v", skipped)
	}
	if asset.Kind != models.AssetImage {
		t.Errorf("Kind = %s, 期望 image", asset.Kind)
	}
	if !strings.HasPrefix(asset.DataURI, "data:image/jpeg;base64,") {
		t.Errorf("DataURI = %q", asset.DataURI)
	}

	stored, err := svc.GetSlotAsset("2024-03-01", 2, 1)
	if err != nil {
		t.Fatalf("读取资产失败: %v", err)
	}
	if stored.DataURI != asset.DataURI {
		t.Error("落盘资产与返回值不一致")
	}
}

// 坏参考图逐张跳过，整体生成照常进行
func TestGenerateSlotImage_SkipsBadReferences(t *testing.T) {
	var captured llm.ImageRequest
	provider := fixedTextProvider()
	provider.imageFn = func(ctx context.Context, req llm.ImageRequest) (*llm.ImageResponse, error) {
		captured = req
		return &llm.ImageResponse{Data: []byte{1}, MIMEType: "image/png"}, nil
	}
	svc, kits := newTestVisualService(t, provider)
	generateSampleKit(t, kits, "2024-03-01")

	refs := []string{validPNGDataURI, "não é data uri", "", validPNGDataURI}
	asset, skipped, err := svc.GenerateSlotImage(context.Background(), "2024-03-01", 1, 1, refs)
	if err != nil {
		t.Fatalf("生成配图失败: %v", err)
	}
	if asset == nil {
		t.Fatal("生成应成功")
	}
	if len(skipped) != 1 {
		t.Errorf("skipped = %d 项, 期望 1 (空串直接忽略不计)", len(skipped))
	}
	if len(captured.ReferenceImages) != 2 {
		t.Errorf("传给提供者的参考图 = %d 张, 期望 2", len(captured.ReferenceImages))
	}
}

func TestGenerateSlotImage_EmptyPromptRejected(t *testing.T) {
	provider := fixedTextProvider()
	svc, kits := newTestVisualService(t, provider)
	generateSampleKit(t, kits, "2024-03-01")

	// 第4区块正文为空，槽位提示词提取不到任何文本
	_, _, err := svc.GenerateSlotImage(context.Background(), "2024-03-01", 4, 1, nil)
	if err == nil {
		t.Fatal("空提示词应拒绝生成")
	}
	if !apperrors.IsEmptyExtractionError(err) {
		t.Errorf("错误类型不对: %v", err)
	}
}

func TestGenerateSlotImage_UpstreamFailure(t *testing.T) {
	provider := fixedTextProvider()
	provider.imageFn = func(ctx context.Context, req llm.ImageRequest) (*llm.ImageResponse, error) {
		return nil, errFakeUpstream
	}
	svc, kits := newTestVisualService(t, provider)
	generateSampleKit(t, kits, "2024-03-01")

	_, _, err := svc.GenerateSlotImage(context.Background(), "2024-03-01", 1, 1, nil)
	if err == nil {
		t.Fatal("上游失败应透传错误")
	}
	if !apperrors.IsUpstreamFailureError(err) {
		t.Errorf("错误类型不对: %v", err)
	}
}

// 单槽失败不拖垮整批
func TestBatchGenerateImages_PartialFailure(t *testing.T) {
	provider := fixedTextProvider()
	provider.imageFn = func(ctx context.Context, req llm.ImageRequest) (*llm.ImageResponse, error) {
		if strings.Contains(req.Prompt, "Depoimento") {
			return nil, errFakeUpstream
		}
		return &llm.ImageResponse{Data: []byte{1}, MIMEType: "image/png"}, nil
	}
	svc, kits := newTestVisualService(t, provider)
	generateSampleKit(t, kits, "2024-03-01")

	results, err := svc.BatchGenerateImages(context.Background(), "2024-03-01", 2, nil, "batch-test")
	if err != nil {
		t.Fatalf("批量生成失败: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("结果数 = %d, 期望 5", len(results))
	}

	failures := 0
	for slotIndex, result := range results {
		if result.Err != nil {
			failures++
			if slotIndex != 3 {
				t.Errorf("槽位 %d 不应失败: %v", slotIndex, result.Err)
			}
			continue
		}
		if result.Asset == nil {
			t.Errorf("槽位 %d 缺少资产", slotIndex)
		}
	}
	if failures != 1 {
		t.Errorf("失败数 = %d, 期望 1", failures)
	}

	// 成功槽位的资产已落盘，失败槽位没有
	if _, err := svc.GetSlotAsset("2024-03-01", 2, 1); err != nil {
		t.Errorf("槽位1资产应已落盘: %v", err)
	}
	if _, err := svc.GetSlotAsset("2024-03-01", 2, 3); err == nil {
		t.Error("失败槽位不应有资产")
	}
}

func TestBatchGenerateImages_TrackerCompletes(t *testing.T) {
	provider := fixedTextProvider()
	svc, kits := newTestVisualService(t, provider)
	generateSampleKit(t, kits, "2024-03-01")

	if _, err := svc.BatchGenerateImages(context.Background(), "2024-03-01", 2, nil, "batch-ok"); err != nil {
		t.Fatalf("批量生成失败: %v", err)
	}

	tracker, ok := svc.progress.GetTracker("batch-ok")
	if !ok {
		t.Fatal("应创建进度跟踪器")
	}
	select {
	case <-tracker.Done:
	default:
		t.Error("批量完成后 Done 通道应已关闭")
	}
}

func TestBatchGenerateImages_AllFailedMarksTrackerFailed(t *testing.T) {
	provider := fixedTextProvider()
	provider.imageFn = func(ctx context.Context, req llm.ImageRequest) (*llm.ImageResponse, error) {
		return nil, errFakeUpstream
	}
	svc, kits := newTestVisualService(t, provider)
	generateSampleKit(t, kits, "2024-03-01")

	results, err := svc.BatchGenerateImages(context.Background(), "2024-03-01", 2, nil, "batch-fail")
	if err != nil {
		t.Fatalf("批量调用不应因单槽失败而报错: %v", err)
	}
	for slotIndex, result := range results {
		if result.Err == nil {
			t.Errorf("槽位 %d 应失败", slotIndex)
		}
	}

	tracker, ok := svc.progress.GetTracker("batch-fail")
	if !ok {
		t.Fatal("应创建进度跟踪器")
	}
	tracker.mutex.Lock()
	status := tracker.Status
	tracker.mutex.Unlock()
	if status != "failed" {
		t.Errorf("跟踪器状态 = %q, 期望 failed", status)
	}
}

func TestDeleteSlotAsset(t *testing.T) {
	provider := fixedTextProvider()
	svc, kits := newTestVisualService(t, provider)
	generateSampleKit(t, kits, "2024-03-01")

	if _, _, err := svc.GenerateSlotImage(context.Background(), "2024-03-01", 1, 1, nil); err != nil {
		t.Fatalf("生成配图失败: %v", err)
	}
	if err := svc.DeleteSlotAsset("2024-03-01", 1, 1); err != nil {
		t.Fatalf("删除资产失败: %v", err)
	}
	if _, err := svc.GetSlotAsset("2024-03-01", 1, 1); err == nil {
		t.Error("删除后读取应失败")
	}

	// 删除不存在的资产不报错，操作幂等
	if err := svc.DeleteSlotAsset("2024-03-01", 1, 1); err != nil {
		t.Errorf("重复删除不应失败: %v", err)
	}
}
