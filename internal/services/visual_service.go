// internal/services/visual_service.go
package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	apperrors "github.com/RomaLabs/RomaPlanner/internal/errors"
	"github.com/RomaLabs/RomaPlanner/internal/llm"
	"github.com/RomaLabs/RomaPlanner/internal/models"
	"github.com/RomaLabs/RomaPlanner/internal/storage"
	"github.com/RomaLabs/RomaPlanner/internal/utils"
)

// dataURIRe 匹配 data:<mime>;base64,<payload>
var dataURIRe = regexp.MustCompile(`^data:([a-zA-Z0-9.+/-]+);base64,([A-Za-z0-9+/=\s]+)$`)

// VisualService 槽位配图的生成与资产管理
type VisualService struct {
	llm      ProviderSource
	kits     *KitService
	storage  *storage.FileStorage
	stats    *StatsService
	metrics  *utils.APIMetrics
	progress *ProgressService
	locks    *LockManager
}

// NewVisualService 创建配图服务，metrics 是全局共享的指标实例，可为nil
func NewVisualService(providerSource ProviderSource, kitService *KitService,
	fileStorage *storage.FileStorage, statsService *StatsService,
	progressService *ProgressService, metrics *utils.APIMetrics) *VisualService {
	return &VisualService{
		llm:      providerSource,
		kits:     kitService,
		storage:  fileStorage,
		stats:    statsService,
		metrics:  metrics,
		progress: progressService,
		locks:    NewLockManager(),
	}
}

// DecodeDataURI 解析校验 data URI，返回字节与MIME类型
func DecodeDataURI(uri string) ([]byte, string, error) {
	m := dataURIRe.FindStringSubmatch(strings.TrimSpace(uri))
	if m == nil {
		return nil, "", apperrors.NewInvalidReferenceError("参考图不是合法的 data URI", nil)
	}

	payload := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' {
			return -1
		}
		return r
	}, m[2])

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", apperrors.NewInvalidReferenceError("参考图 base64 解码失败", err)
	}
	if len(data) == 0 {
		return nil, "", apperrors.NewInvalidReferenceError("参考图内容为空", nil)
	}
	return data, m[1], nil
}

// EncodeDataURI 把生成结果编码为 data URI 持久化
func EncodeDataURI(data []byte, mimeType string) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// collectReferences 逐张校验参考图，坏图跳过并记录，好图继续使用
func (s *VisualService) collectReferences(refs []string) ([]llm.ReferenceImage, []error) {
	var images []llm.ReferenceImage
	var skipped []error

	for i, ref := range refs {
		if strings.TrimSpace(ref) == "" {
			continue
		}
		data, mimeType, err := DecodeDataURI(ref)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("参考图 %d 被跳过: %w", i+1, err))
			if s.metrics != nil {
				s.metrics.RecordError("invalid_reference", "visual_service")
			}
			continue
		}
		images = append(images, llm.ReferenceImage{Data: data, MIMEType: mimeType})
	}
	return images, skipped
}

// GenerateSlotImage 为单个槽位生成配图并落盘
// 返回值里的 skipped 是被丢弃的坏参考图清单，生成本身照常进行
func (s *VisualService) GenerateSlotImage(ctx context.Context, date string, sectionIndex, slotIndex int, refs []string) (*models.GeneratedAsset, []error, error) {
	provider, err := s.llm.GetProvider()
	if err != nil {
		return nil, nil, apperrors.NewUpstreamFailureError("AI提供者不可用", err)
	}

	slot, err := s.kits.GetSlotPrompt(date, sectionIndex, slotIndex)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(slot.Text) == "" {
		return nil, nil, apperrors.NewEmptyExtractionError(
			fmt.Sprintf("槽位 %s 没有可用的提示词", models.SlotKey(sectionIndex, slotIndex)))
	}

	images, skipped := s.collectReferences(refs)

	start := time.Now()
	resp, err := provider.GenerateImage(ctx, llm.ImageRequest{
		Prompt:          slot.Text,
		ReferenceImages: images,
		AspectRatio:     "9:16",
	})
	if err != nil {
		return nil, skipped, apperrors.NewUpstreamFailureError("图片生成失败", err)
	}

	if s.metrics != nil {
		s.metrics.RecordLLMRequest(provider.GetName(), resp.ModelName, 0, time.Since(start))
		s.metrics.RecordGeneration("image", date)
	}
	if s.stats != nil {
		s.stats.RecordGeneration("image", 0)
	}

	asset := &models.GeneratedAsset{
		SectionIndex: sectionIndex,
		SlotIndex:    slotIndex,
		Kind:         models.AssetImage,
		DataURI:      EncodeDataURI(resp.Data, resp.MIMEType),
		MIMEType:     resp.MIMEType,
		CreatedAt:    time.Now(),
	}
	if err := s.saveAsset(date, asset); err != nil {
		return nil, skipped, err
	}
	return asset, skipped, nil
}

// BatchResult 批量配图中单个槽位的结果
type BatchResult struct {
	Asset *models.GeneratedAsset
	Err   error
}

// BatchGenerateImages 对区块的全部槽位并发生成配图
// 单个槽位失败不拖垮整批，结果按槽位序号汇总
func (s *VisualService) BatchGenerateImages(ctx context.Context, date string, sectionIndex int, refs []string, taskID string) (map[int]BatchResult, error) {
	slots, err := s.kits.GetSectionSlots(date, sectionIndex)
	if err != nil {
		return nil, err
	}

	var tracker *ProgressTracker
	if s.progress != nil && taskID != "" {
		tracker = s.progress.CreateTracker(taskID)
	}

	results := make(map[int]BatchResult, len(slots))
	var mu sync.Mutex
	var wg sync.WaitGroup
	var done int

	for _, slot := range slots {
		wg.Add(1)
		go func(slotIndex int) {
			defer wg.Done()

			asset, _, genErr := s.GenerateSlotImage(ctx, date, sectionIndex, slotIndex, refs)

			mu.Lock()
			results[slotIndex] = BatchResult{Asset: asset, Err: genErr}
			done++
			finished := done
			mu.Unlock()

			if tracker != nil {
				tracker.UpdateStep(finished, len(slots), fmt.Sprintf("已生成 %d/%d 张配图", finished, len(slots)))
			}
		}(slot.SlotIndex)
	}
	wg.Wait()

	if tracker != nil {
		failures := 0
		for _, r := range results {
			if r.Err != nil {
				failures++
			}
		}
		if failures == len(results) && len(results) > 0 {
			tracker.Fail("全部配图生成失败")
		} else {
			tracker.Complete(fmt.Sprintf("配图完成，失败 %d 张", failures))
		}
	}
	return results, nil
}

// GetAssets 取某日期的全部已生成资产
func (s *VisualService) GetAssets(date string) (map[string]models.GeneratedAsset, error) {
	return s.loadAssets(date)
}

// GetSlotAsset 取单个槽位资产
func (s *VisualService) GetSlotAsset(date string, sectionIndex, slotIndex int) (*models.GeneratedAsset, error) {
	assets, err := s.loadAssets(date)
	if err != nil {
		return nil, err
	}
	asset, ok := assets[models.SlotKey(sectionIndex, slotIndex)]
	if !ok {
		return nil, apperrors.NewNotFoundError(
			fmt.Sprintf("槽位资产不存在: %s", models.SlotKey(sectionIndex, slotIndex)), nil)
	}
	return &asset, nil
}

// DeleteSlotAsset 用户显式删除槽位资产
func (s *VisualService) DeleteSlotAsset(date string, sectionIndex, slotIndex int) error {
	return s.locks.ExecuteWithKeyLock(date+"-assets", func() error {
		assets, err := s.loadAssets(date)
		if err != nil {
			return err
		}
		delete(assets, models.SlotKey(sectionIndex, slotIndex))
		return s.storage.SaveJSONFile(kitsDir, date+"-assets.json", assets)
	})
}

// saveAsset 单个资产落盘，同键覆盖
func (s *VisualService) saveAsset(date string, asset *models.GeneratedAsset) error {
	return s.locks.ExecuteWithKeyLock(date+"-assets", func() error {
		assets, err := s.loadAssets(date)
		if err != nil {
			return err
		}
		assets[models.SlotKey(asset.SectionIndex, asset.SlotIndex)] = *asset
		return s.storage.SaveJSONFile(kitsDir, date+"-assets.json", assets)
	})
}

func (s *VisualService) loadAssets(date string) (map[string]models.GeneratedAsset, error) {
	assets := make(map[string]models.GeneratedAsset)
	filename := date + "-assets.json"
	if !s.storage.FileExists(kitsDir, filename) {
		return assets, nil
	}
	if err := s.storage.LoadJSONFile(kitsDir, filename, &assets); err != nil {
		return nil, fmt.Errorf("读取资产文件失败: %w", err)
	}
	return assets, nil
}
