// internal/services/kit_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/RomaLabs/RomaPlanner/internal/errors"
	"github.com/RomaLabs/RomaPlanner/internal/kit"
	"github.com/RomaLabs/RomaPlanner/internal/llm"
	"github.com/RomaLabs/RomaPlanner/internal/models"
	"github.com/RomaLabs/RomaPlanner/internal/storage"
	"github.com/RomaLabs/RomaPlanner/internal/utils"
)

const kitsDir = "kits"

// KitService 内容套件的生成、切分与槽位管理
type KitService struct {
	llm      ProviderSource
	storage  *storage.FileStorage
	strategy *StrategyService
	stats    *StatsService
	metrics  *utils.APIMetrics
	locks    *LockManager
}

// NewKitService 创建套件服务，metrics 是全局共享的指标实例，可为nil
func NewKitService(providerSource ProviderSource, fileStorage *storage.FileStorage,
	strategyService *StrategyService, statsService *StatsService,
	metrics *utils.APIMetrics) *KitService {
	return &KitService{
		llm:      providerSource,
		storage:  fileStorage,
		strategy: strategyService,
		stats:    statsService,
		metrics:  metrics,
		locks:    NewLockManager(),
	}
}

// GenerateKit 生成完整内容套件：构建提示词、调用AI、切分为结构化区块并落盘
func (s *KitService) GenerateKit(ctx context.Context, calendarCtx models.CalendarContext, strategyIDs []string) (*models.ContentKit, error) {
	provider, err := s.llm.GetProvider()
	if err != nil {
		return nil, apperrors.NewUpstreamFailureError("AI提供者不可用", err)
	}

	ingredients := s.buildIngredientsText(calendarCtx, strategyIDs)
	prompt := buildKitPrompt(calendarCtx, ingredients)

	start := time.Now()
	resp, err := provider.CompleteText(ctx, llm.CompletionRequest{Prompt: prompt})
	if err != nil {
		return nil, apperrors.NewUpstreamFailureError("生成内容套件失败", err)
	}
	if s.metrics != nil {
		s.metrics.RecordLLMRequest(provider.GetName(), resp.ModelName, resp.TokensUsed, time.Since(start))
		s.metrics.RecordGeneration("text", calendarCtx.Date)
	}
	if s.stats != nil {
		s.stats.RecordGeneration("text", resp.TokensUsed)
	}

	contentKit := &models.ContentKit{
		ID:          uuid.NewString(),
		Date:        calendarCtx.Date,
		RawText:     resp.Text,
		Sections:    kit.ParseSections(resp.Text),
		Strategy:    ingredients,
		GeneratedAt: time.Now(),
	}

	if err := s.saveKit(contentKit); err != nil {
		return nil, err
	}
	return contentKit, nil
}

// GetKit 按日期取套件
func (s *KitService) GetKit(date string) (*models.ContentKit, error) {
	filename := date + "-kit.json"
	if !s.storage.FileExists(kitsDir, filename) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("套件不存在: %s", date), nil)
	}

	var contentKit models.ContentKit
	if err := s.storage.LoadJSONFile(kitsDir, filename, &contentKit); err != nil {
		return nil, fmt.Errorf("读取套件失败: %w", err)
	}
	return &contentKit, nil
}

// ResegmentKit 对原始文本重新切分
// 切分与分类都是纯函数，未变的原文必然得到相同区块
func (s *KitService) ResegmentKit(date string) (*models.ContentKit, error) {
	contentKit, err := s.GetKit(date)
	if err != nil {
		return nil, err
	}

	contentKit.Sections = kit.ParseSections(contentKit.RawText)
	if err := s.saveKit(contentKit); err != nil {
		return nil, err
	}
	return contentKit, nil
}

// GetSection 按序号取区块
func (s *KitService) GetSection(date string, sectionIndex int) (*models.Section, error) {
	contentKit, err := s.GetKit(date)
	if err != nil {
		return nil, err
	}
	for i := range contentKit.Sections {
		if contentKit.Sections[i].Index == sectionIndex {
			return &contentKit.Sections[i], nil
		}
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("区块不存在: %s/%d", date, sectionIndex), nil)
}

// GetSlotPrompt 取某槽位的提示词
// 用户手工覆盖优先于自动推导，覆盖只能通过 ResetSlot 显式清除
func (s *KitService) GetSlotPrompt(date string, sectionIndex, slotIndex int) (*models.SlotPrompt, error) {
	section, err := s.GetSection(date, sectionIndex)
	if err != nil {
		return nil, err
	}
	if slotIndex < 1 || slotIndex > kit.SlotCount(section.Type) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("槽位序号越界: %d", slotIndex), nil)
	}

	overrides, err := s.loadOverrides(date)
	if err != nil {
		return nil, err
	}
	if manual, ok := overrides[models.SlotKey(sectionIndex, slotIndex)]; ok {
		return &manual, nil
	}

	text := kit.ExtractSlot(section.Content, slotIndex)
	return &models.SlotPrompt{
		SectionIndex: sectionIndex,
		SlotIndex:    slotIndex,
		Text:         text,
		Manual:       false,
		NearEmpty:    kit.NearEmpty(text),
		UpdatedAt:    time.Now(),
	}, nil
}

// GetSectionSlots 取区块的全部槽位提示词
func (s *KitService) GetSectionSlots(date string, sectionIndex int) ([]models.SlotPrompt, error) {
	section, err := s.GetSection(date, sectionIndex)
	if err != nil {
		return nil, err
	}

	count := kit.SlotCount(section.Type)
	slots := make([]models.SlotPrompt, 0, count)
	for idx := 1; idx <= count; idx++ {
		slot, err := s.GetSlotPrompt(date, sectionIndex, idx)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *slot)
	}
	return slots, nil
}

// OverrideSlot 用户手工覆盖槽位文本，之后的重新推导不得覆盖它
func (s *KitService) OverrideSlot(date string, sectionIndex, slotIndex int, text string) (*models.SlotPrompt, error) {
	section, err := s.GetSection(date, sectionIndex)
	if err != nil {
		return nil, err
	}
	if slotIndex < 1 || slotIndex > kit.SlotCount(section.Type) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("槽位序号越界: %d", slotIndex), nil)
	}

	manual := models.SlotPrompt{
		SectionIndex: sectionIndex,
		SlotIndex:    slotIndex,
		Text:         strings.TrimSpace(text),
		Manual:       true,
		UpdatedAt:    time.Now(),
	}

	err = s.locks.ExecuteWithKeyLock(date+"-slots", func() error {
		overrides, err := s.loadOverrides(date)
		if err != nil {
			return err
		}
		overrides[models.SlotKey(sectionIndex, slotIndex)] = manual
		return s.storage.SaveJSONFile(kitsDir, date+"-slots.json", overrides)
	})
	if err != nil {
		return nil, err
	}
	return &manual, nil
}

// ResetSlot 清除手工覆盖，回到自动推导
func (s *KitService) ResetSlot(date string, sectionIndex, slotIndex int) error {
	return s.locks.ExecuteWithKeyLock(date+"-slots", func() error {
		overrides, err := s.loadOverrides(date)
		if err != nil {
			return err
		}
		delete(overrides, models.SlotKey(sectionIndex, slotIndex))
		return s.storage.SaveJSONFile(kitsDir, date+"-slots.json", overrides)
	})
}

// saveKit 套件落盘
func (s *KitService) saveKit(contentKit *models.ContentKit) error {
	filename := contentKit.Date + "-kit.json"
	if err := s.storage.SaveJSONFile(kitsDir, filename, contentKit); err != nil {
		return fmt.Errorf("保存套件失败: %w", err)
	}
	return nil
}

// loadOverrides 读取手工覆盖映射
func (s *KitService) loadOverrides(date string) (map[string]models.SlotPrompt, error) {
	overrides := make(map[string]models.SlotPrompt)
	filename := date + "-slots.json"
	if !s.storage.FileExists(kitsDir, filename) {
		return overrides, nil
	}
	if err := s.storage.LoadJSONFile(kitsDir, filename, &overrides); err != nil {
		return nil, fmt.Errorf("读取槽位覆盖失败: %w", err)
	}
	return overrides, nil
}

// buildIngredientsText 把选中的策略行拼成提示词素材
func (s *KitService) buildIngredientsText(calendarCtx models.CalendarContext, strategyIDs []string) string {
	if len(strategyIDs) == 0 {
		if calendarCtx.Strategy != "" {
			return calendarCtx.Strategy
		}
		return "Estratégia Geral do Dia"
	}

	var lines []string
	for _, item := range s.strategy.GetItems(strategyIDs) {
		lines = append(lines, fmt.Sprintf("- Dor: %s | Desejo: %s | Objeção: %s", item.Pain, item.Desire, item.Objection))
	}
	return strings.Join(lines, "\n")
}

// buildKitPrompt 组装完整套件的生成提示词
func buildKitPrompt(calendarCtx models.CalendarContext, ingredients string) string {
	var b strings.Builder

	b.WriteString(`Atue como um ROTEIRISTA SÊNIOR e DIRETOR DE ARTE especialista em Marketing para PROFISSIONAIS DA BELEZA.
IDIOMA OBRIGATÓRIO: PORTUGUÊS DO BRASIL (PT-BR).
COR DO TEXTO NOS ROTEIROS: SEMPRE PRETO (BLACK).

PERSONA DA EXPERT (QUEM FALA):
- Nome: Fabiana (@ia.fabiana).
- Aparência: Mulher moderna, tech beauty, fotorrealista.

# 🎥 1. ROTEIRO DE VÍDEO (REELS COM AVATAR FABIANA)
- Forneça um roteiro completo mas também uma descrição visual detalhada para o Estúdio Veo:
  * VISUAL PARA VEO: [Descrição detalhada da cena de abertura/principal para animação fotorrealista com Fabiana]
# 📱 2. SEQUÊNCIA DE STORIES (5 SLIDES)
# 📝 3. LEGENDA PARA FEED (COM CTA E IDENTIFICAÇÃO)
# 🎠 4. FEED CARROSSEL (ESTILO HQ - HISTÓRIA EM QUADRINHOS)
- Para cada um dos 5 slides, forneça:
  * VISUAL: [Descrição da cena fotorrealista com Fabiana]
  * TEXTO NO SLIDE: [Texto principal escrito no slide]
  * BALÃO DE FALA/PENSAMENTO: [O que a Fabiana está falando ou pensando - estilo HQ]
# 🎬 5. SEQUÊNCIA DE VÍDEO VEO (DESCREVA 5 CENAS CURTAS PARA O VEO 3, FORMATO 9:16. MANTENHA A CONTINUIDADE DA HISTÓRIA)
# 🖼️ 6. PROMPT PARA IMAGEM (CAPA)
# 🎭 7. MEME ESTRATÉGICO

CONTEXTO:
`)
	b.WriteString("- Foco: " + calendarCtx.Focus + "\n")
	b.WriteString("- Ingredientes: " + ingredients + "\n")
	if calendarCtx.Adjustments != "" {
		b.WriteString("- Ajustes do usuário: " + calendarCtx.Adjustments + "\n")
	}
	if calendarCtx.ManualContent != "" {
		b.WriteString("- Rascunho do usuário (usar como base): " + calendarCtx.ManualContent + "\n")
	}
	if len(calendarCtx.SelectedFormats) > 0 {
		b.WriteString("- Formatos selecionados: " + strings.Join(calendarCtx.SelectedFormats, ", ") + "\n")
	}

	return b.String()
}
