// internal/services/fakes_test.go
package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/RomaLabs/RomaPlanner/internal/llm"
	"github.com/RomaLabs/RomaPlanner/internal/models"
	"github.com/RomaLabs/RomaPlanner/internal/storage"
)

// fakeProvider 可编程的AI提供者桩，未设置的方法返回固定成功值
type fakeProvider struct {
	completeFn func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
	imageFn    func(ctx context.Context, req llm.ImageRequest) (*llm.ImageResponse, error)
	startFn    func(ctx context.Context, req llm.VideoRequest) (*llm.VideoOperation, error)
	pollFn     func(ctx context.Context, op *llm.VideoOperation) (*llm.VideoOperation, error)
	fetchFn    func(ctx context.Context, op *llm.VideoOperation) (*llm.VideoResult, error)
}

func (p *fakeProvider) Initialize(config map[string]string) error { return nil }
func (p *fakeProvider) GetName() string                           { return "fake" }
func (p *fakeProvider) GetSupportedModels() []string              { return []string{"fake-model"} }

func (p *fakeProvider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if p.completeFn != nil {
		return p.completeFn(ctx, req)
	}
	return &llm.CompletionResponse{Text: "resposta padrão", ProviderName: "fake"}, nil
}

func (p *fakeProvider) GenerateImage(ctx context.Context, req llm.ImageRequest) (*llm.ImageResponse, error) {
	if p.imageFn != nil {
		return p.imageFn(ctx, req)
	}
	return &llm.ImageResponse{Data: []byte{0xFF, 0xD8, 0xFF}, MIMEType: "image/jpeg"}, nil
}

func (p *fakeProvider) StartVideo(ctx context.Context, req llm.VideoRequest) (*llm.VideoOperation, error) {
	if p.startFn != nil {
		return p.startFn(ctx, req)
	}
	return &llm.VideoOperation{ID: "op-1"}, nil
}

func (p *fakeProvider) PollVideo(ctx context.Context, op *llm.VideoOperation) (*llm.VideoOperation, error) {
	if p.pollFn != nil {
		return p.pollFn(ctx, op)
	}
	done := *op
	done.Done = true
	return &done, nil
}

func (p *fakeProvider) FetchVideo(ctx context.Context, op *llm.VideoOperation) (*llm.VideoResult, error) {
	if p.fetchFn != nil {
		return p.fetchFn(ctx, op)
	}
	return &llm.VideoResult{Data: []byte("mp4"), MIMEType: "video/mp4"}, nil
}

// fakeSource 固定返回同一个提供者实例
type fakeSource struct {
	provider llm.Provider
	err      error
}

func (s *fakeSource) GetProvider() (llm.Provider, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.provider, nil
}

// manualClock 手动推进的时间源，视频轮询测试用
type manualClock struct {
	mutex sync.Mutex
	now   time.Time
	ticks chan time.Time
}

func newManualClock() *manualClock {
	return &manualClock{
		now:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		ticks: make(chan time.Time),
	}
}

func (c *manualClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

func (c *manualClock) After(d time.Duration) <-chan time.Time {
	return c.ticks
}

// tick 推进时间并释放一次等待中的轮询
func (c *manualClock) tick() {
	c.advance(time.Second)
	c.ticks <- c.Now()
}

// advance 只推进时间，不触发轮询
func (c *manualClock) advance(d time.Duration) {
	c.mutex.Lock()
	c.now = c.now.Add(d)
	c.mutex.Unlock()
}

// sampleKitRaw 覆盖单槽、五槽和空正文区块的最小套件原文
const sampleKitRaw = `# 🎥 1. ROTEIRO DE VÍDEO
Fabiana apresenta o sérum reparador em frente ao espelho do estúdio.

# 📱 2. SEQUÊNCIA DE STORIES
Story 1: Abertura com pergunta sobre queda de cabelo.
Story 2: Demonstração do produto em tempo real.
Story 3: Depoimento de uma cliente satisfeita.
Story 4: Oferta exclusiva de hoje.
Story 5: CTA final com link na bio.

# 🖼️ 3. PROMPT PARA IMAGEM
Fabiana segurando o sérum, fundo lilás, luz suave de estúdio.

# 🎭 4. MEME ESTRATÉGICO
`

// newTestKitService 用桩提供者搭建套件服务
func newTestKitService(t *testing.T, provider llm.Provider) (*KitService, *storage.FileStorage) {
	t.Helper()
	fs, err := storage.NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("创建文件存储失败: %v", err)
	}
	source := &fakeSource{provider: provider}
	svc := NewKitService(source, fs, NewStrategyService(), nil, nil)
	return svc, fs
}

// generateSampleKit 用固定原文生成并落盘一份套件
func generateSampleKit(t *testing.T, svc *KitService, date string) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.GenerateKit(ctx, sampleCalendarContext(date), nil)
	if err != nil {
		t.Fatalf("生成测试套件失败: %v", err)
	}
}

func sampleCalendarContext(date string) models.CalendarContext {
	return models.CalendarContext{
		Date:        date,
		DayOfWeek:   "sexta-feira",
		ContentType: models.ContentKitType,
		Focus:       "hidratação profunda",
	}
}

// fixedTextProvider 固定返回 sampleKitRaw 的提供者
func fixedTextProvider() *fakeProvider {
	return &fakeProvider{
		completeFn: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Text: sampleKitRaw, TokensUsed: 100, ProviderName: "fake"}, nil
		},
	}
}

var errFakeUpstream = fmt.Errorf("upstream indisponível")
