// internal/services/llm_service.go
package services

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RomaLabs/RomaPlanner/internal/config"
	"github.com/RomaLabs/RomaPlanner/internal/llm"
	"github.com/RomaLabs/RomaPlanner/internal/utils"

	// 注册内置提供者
	_ "github.com/RomaLabs/RomaPlanner/internal/llm/providers/gemini"
)

var ErrLLMNotReady = errors.New("AI提供者未配置，请先设置API密钥")

// ProviderSource 提供者来源，便于测试注入桩实现
type ProviderSource interface {
	GetProvider() (llm.Provider, error)
}

// LLMService 管理当前激活的AI提供者实例
// 密钥缺失时降级运行，生成接口返回明确错误而不是崩溃
type LLMService struct {
	providerMutex sync.RWMutex
	provider      llm.Provider
	providerName  string
	cache         *LLMCache
}

// LLMCache 文本生成结果缓存，同样的提示词短时间内直接复用
type LLMCache struct {
	cache      map[string]*LLMCacheEntry
	mutex      sync.RWMutex
	expiration time.Duration
}

// LLMCacheEntry 缓存条目
type LLMCacheEntry struct {
	Response  *llm.CompletionResponse
	CreatedAt time.Time
}

// NewLLMService 从当前配置创建AI服务
func NewLLMService() *LLMService {
	s := &LLMService{
		cache: &LLMCache{
			cache:      make(map[string]*LLMCacheEntry),
			expiration: 10 * time.Minute,
		},
	}

	cfg := config.GetCurrentConfig()
	if cfg.LLMConfig == nil || cfg.LLMConfig["api_key"] == "" {
		// 降级模式，等待后续配置
		return s
	}

	provider, err := llm.GetProvider(cfg.LLMProvider, cfg.LLMConfig)
	if err != nil {
		utils.GetLogger().Warn("初始化AI提供者失败，进入降级模式", map[string]interface{}{
			"provider": cfg.LLMProvider,
			"err":      err,
		})
		return s
	}

	s.provider = provider
	s.providerName = cfg.LLMProvider
	return s
}

// GetProvider 返回当前提供者，未配置时返回错误
func (s *LLMService) GetProvider() (llm.Provider, error) {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()

	if s.provider == nil {
		return nil, ErrLLMNotReady
	}
	return s.provider, nil
}

// IsReady 提供者是否可用
func (s *LLMService) IsReady() bool {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.provider != nil
}

// GetProviderName 当前提供者名称
func (s *LLMService) GetProviderName() string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.providerName
}

// UpdateProvider 切换或重配提供者并持久化配置
func (s *LLMService) UpdateProvider(name string, providerConfig map[string]string) error {
	provider, err := llm.GetProvider(name, providerConfig)
	if err != nil {
		return fmt.Errorf("初始化AI提供者失败: %w", err)
	}

	if err := config.UpdateLLMConfig(name, providerConfig); err != nil {
		return fmt.Errorf("保存AI配置失败: %w", err)
	}

	s.providerMutex.Lock()
	defer s.providerMutex.Unlock()
	s.provider = provider
	s.providerName = name
	return nil
}

// CompleteText 带缓存的文本生成
func (s *LLMService) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	provider, err := s.GetProvider()
	if err != nil {
		return nil, err
	}

	cacheKey := s.cacheKey(req)
	if cached := s.cache.get(cacheKey); cached != nil {
		return cached, nil
	}

	resp, err := provider.CompleteText(ctx, req)
	if err != nil {
		return nil, err
	}

	s.cache.put(cacheKey, resp)
	return resp, nil
}

// cacheKey 提示词+模型的指纹
func (s *LLMService) cacheKey(req llm.CompletionRequest) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(req.Model+"|"+req.SystemPrompt+"|"+req.Prompt)))
}

func (c *LLMCache) get(key string) *llm.CompletionResponse {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.cache[key]
	if !exists || time.Since(entry.CreatedAt) > c.expiration {
		return nil
	}
	return entry.Response
}

func (c *LLMCache) put(key string, resp *llm.CompletionResponse) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache[key] = &LLMCacheEntry{
		Response:  resp,
		CreatedAt: time.Now(),
	}
}
