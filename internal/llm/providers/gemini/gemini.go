// internal/llm/providers/gemini/gemini.go
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/RomaLabs/RomaPlanner/internal/llm"
)

// 默认模型，按能力分档
const (
	defaultTextModel  = "gemini-3-flash-preview"
	defaultImageModel = "gemini-2.5-flash-image"
	defaultVideoModel = "veo-3.1-fast-generate-preview"
)

func init() {
	llm.Register("gemini", func() llm.Provider {
		return &Provider{
			models: []string{
				defaultTextModel,
				defaultImageModel,
				defaultVideoModel,
			},
		}
	})
}

// Provider 基于官方 genai SDK 的 Gemini 提供者
// 文本、图片走 GenerateContent，视频走 Veo 长任务接口
type Provider struct {
	apiKey     string
	client     *genai.Client
	textModel  string
	imageModel string
	videoModel string
	models     []string
}

func (p *Provider) Initialize(config map[string]string) error {
	apiKey, exists := config["api_key"]
	if !exists || apiKey == "" {
		return errors.New("gemini API密钥未提供")
	}
	p.apiKey = apiKey

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return fmt.Errorf("创建gemini客户端失败: %w", err)
	}
	p.client = client

	p.textModel = defaultTextModel
	if model, ok := config["text_model"]; ok && model != "" {
		p.textModel = model
	}
	p.imageModel = defaultImageModel
	if model, ok := config["image_model"]; ok && model != "" {
		p.imageModel = model
	}
	p.videoModel = defaultVideoModel
	if model, ok := config["video_model"]; ok && model != "" {
		p.videoModel = model
	}

	return nil
}

func (p *Provider) GetName() string {
	return "gemini"
}

func (p *Provider) GetSupportedModels() []string {
	return p.models
}

// CompleteText 文本生成
func (p *Provider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if p.client == nil {
		return nil, errors.New("提供者尚未初始化")
	}

	model := req.Model
	if model == "" {
		model = p.textModel
	}

	config := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(req.Temperature)
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), config)
	if err != nil {
		return nil, fmt.Errorf("gemini文本生成失败: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, errors.New("gemini返回了空的文本结果")
	}

	result := &llm.CompletionResponse{
		Text:         text,
		ModelName:    model,
		ProviderName: p.GetName(),
	}
	if resp.UsageMetadata != nil {
		result.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}
	return result, nil
}

// GenerateImage 图片生成，参考图作为附加分片一并提交
func (p *Provider) GenerateImage(ctx context.Context, req llm.ImageRequest) (*llm.ImageResponse, error) {
	if p.client == nil {
		return nil, errors.New("提供者尚未初始化")
	}

	model := req.Model
	if model == "" {
		model = p.imageModel
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	for _, ref := range req.ReferenceImages {
		parts = append(parts, genai.NewPartFromBytes(ref.Data, ref.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini图片生成失败: %w", err)
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &llm.ImageResponse{
					Data:         part.InlineData.Data,
					MIMEType:     part.InlineData.MIMEType,
					ModelName:    model,
					ProviderName: p.GetName(),
				}, nil
			}
		}
	}
	return nil, errors.New("gemini响应中没有图片数据")
}

// StartVideo 提交Veo视频生成任务
func (p *Provider) StartVideo(ctx context.Context, req llm.VideoRequest) (*llm.VideoOperation, error) {
	if p.client == nil {
		return nil, errors.New("提供者尚未初始化")
	}

	model := req.Model
	if model == "" {
		model = p.videoModel
	}

	var seed *genai.Image
	if req.SeedImage != nil {
		seed = &genai.Image{
			ImageBytes: req.SeedImage.Data,
			MIMEType:   req.SeedImage.MIMEType,
		}
	}

	config := &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
	}
	if req.Resolution != "" {
		config.Resolution = req.Resolution
	}
	if req.AspectRatio != "" {
		config.AspectRatio = req.AspectRatio
	}

	op, err := p.client.Models.GenerateVideos(ctx, model, req.Prompt, seed, config)
	if err != nil {
		return nil, fmt.Errorf("提交veo视频任务失败: %w", err)
	}

	return &llm.VideoOperation{
		ID:     op.Name,
		Done:   op.Done,
		Handle: op,
	}, nil
}

// PollVideo 轮询一次视频任务状态
func (p *Provider) PollVideo(ctx context.Context, op *llm.VideoOperation) (*llm.VideoOperation, error) {
	if p.client == nil {
		return nil, errors.New("提供者尚未初始化")
	}

	raw, ok := op.Handle.(*genai.GenerateVideosOperation)
	if !ok {
		return nil, errors.New("视频任务句柄类型不匹配")
	}

	updated, err := p.client.Operations.GetVideosOperation(ctx, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("轮询veo视频任务失败: %w", err)
	}

	return &llm.VideoOperation{
		ID:     updated.Name,
		Done:   updated.Done,
		Handle: updated,
	}, nil
}

// FetchVideo 任务完成后下载视频内容
func (p *Provider) FetchVideo(ctx context.Context, op *llm.VideoOperation) (*llm.VideoResult, error) {
	if p.client == nil {
		return nil, errors.New("提供者尚未初始化")
	}

	raw, ok := op.Handle.(*genai.GenerateVideosOperation)
	if !ok {
		return nil, errors.New("视频任务句柄类型不匹配")
	}
	if !raw.Done || raw.Response == nil || len(raw.Response.GeneratedVideos) == 0 {
		return nil, errors.New("视频任务尚未完成或没有生成结果")
	}

	video := raw.Response.GeneratedVideos[0].Video
	if video == nil {
		return nil, errors.New("veo响应中没有视频对象")
	}

	if len(video.VideoBytes) == 0 {
		if _, err := p.client.Files.Download(ctx, video, nil); err != nil {
			return nil, fmt.Errorf("下载veo视频失败: %w", err)
		}
	}
	if len(video.VideoBytes) == 0 {
		return nil, errors.New("veo视频内容为空")
	}

	mime := video.MIMEType
	if mime == "" {
		mime = "video/mp4"
	}
	return &llm.VideoResult{
		Data:     video.VideoBytes,
		MIMEType: mime,
	}, nil
}
