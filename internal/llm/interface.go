// internal/llm/interface.go
package llm

import (
	"context"
	"errors"
)

// 错误定义
var ErrUnknownProvider = errors.New("未知的AI提供者")

// CompletionRequest 文本生成请求参数标准化
type CompletionRequest struct {
	Prompt       string                 `json:"prompt"`
	SystemPrompt string                 `json:"system_prompt,omitempty"`
	MaxTokens    int                    `json:"max_tokens,omitempty"`
	Temperature  float32                `json:"temperature,omitempty"`
	TopP         float32                `json:"top_p,omitempty"`
	Model        string                 `json:"model,omitempty"`
	ExtraParams  map[string]interface{} `json:"extra_params,omitempty"`
}

// CompletionResponse 文本生成响应标准化
type CompletionResponse struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason,omitempty"`
	TokensUsed   int    `json:"tokens_used,omitempty"`
	ModelName    string `json:"model_name,omitempty"`
	ProviderName string `json:"provider_name,omitempty"`
}

// ReferenceImage 生成时附带的参考图
type ReferenceImage struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mime_type"`
}

// ImageRequest 图片生成请求
type ImageRequest struct {
	Prompt          string           `json:"prompt"`
	ReferenceImages []ReferenceImage `json:"reference_images,omitempty"`
	AspectRatio     string           `json:"aspect_ratio,omitempty"`
	Model           string           `json:"model,omitempty"`
}

// ImageResponse 图片生成响应
type ImageResponse struct {
	Data         []byte `json:"-"`
	MIMEType     string `json:"mime_type"`
	ModelName    string `json:"model_name,omitempty"`
	ProviderName string `json:"provider_name,omitempty"`
}

// VideoRequest 视频生成请求
type VideoRequest struct {
	Prompt      string          `json:"prompt"`
	SeedImage   *ReferenceImage `json:"seed_image,omitempty"`
	AspectRatio string          `json:"aspect_ratio,omitempty"`
	Resolution  string          `json:"resolution,omitempty"`
	Model       string          `json:"model,omitempty"`
}

// VideoOperation 长时间运行的视频生成句柄
// Handle 为提供者私有状态，调用方只透传，不解释
type VideoOperation struct {
	ID     string      `json:"id"`
	Done   bool        `json:"done"`
	Handle interface{} `json:"-"`
}

// VideoResult 视频生成最终结果
type VideoResult struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mime_type"`
}

// Provider 定义所有AI提供者必须实现的接口
type Provider interface {
	// 初始化提供者，传入配置
	Initialize(config map[string]string) error

	// 获取提供者名称
	GetName() string

	// 获取支持的模型列表
	GetSupportedModels() []string

	// 文本生成
	CompleteText(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// 图片生成，参考图可选
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error)

	// 提交视频生成任务，立刻返回可轮询句柄
	StartVideo(ctx context.Context, req VideoRequest) (*VideoOperation, error)

	// 轮询一次视频任务状态
	PollVideo(ctx context.Context, op *VideoOperation) (*VideoOperation, error)

	// 任务完成后取回视频内容
	FetchVideo(ctx context.Context, op *VideoOperation) (*VideoResult, error)
}

// ProviderFactory 提供者工厂函数类型
type ProviderFactory func() Provider

var providers = make(map[string]ProviderFactory)

// Register 注册提供者工厂
func Register(name string, factory ProviderFactory) {
	providers[name] = factory
}

// GetProvider 创建指定名称的提供者实例并初始化
func GetProvider(name string, config map[string]string) (Provider, error) {
	factory, exists := providers[name]
	if !exists {
		return nil, ErrUnknownProvider
	}

	provider := factory()
	err := provider.Initialize(config)
	return provider, err
}

// ListProviders 返回所有已注册的提供者名称
func ListProviders() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	return names
}

// GetSupportedModelsForProvider 获取指定提供商支持的模型列表
func GetSupportedModelsForProvider(name string) []string {
	factory, exists := providers[name]
	if !exists {
		return []string{}
	}

	provider := factory()
	return provider.GetSupportedModels()
}
