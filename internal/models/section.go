// internal/models/section.go
package models

import (
	"fmt"
	"time"
)

// SectionType 内容区块的语义类型
type SectionType string

const (
	SectionVideoScript        SectionType = "video_script"        // 视频脚本 (Roteiro)
	SectionStoriesSequence    SectionType = "stories_sequence"    // Stories 序列
	SectionCarousel           SectionType = "carousel"            // 轮播图 (Carrossel)
	SectionFeedCaption        SectionType = "feed_caption"        // Feed 文案 (Legenda)
	SectionImagePrompt        SectionType = "image_prompt"        // 封面图提示词
	SectionVideoSceneSequence SectionType = "video_scene_sequence" // Veo 视频分镜序列
	SectionMeme               SectionType = "meme"                // 表情包 / Meme
	SectionGoldenPrompt       SectionType = "golden_prompt"       // 黄金提示词 (Prompt de Ouro)
	SectionOther              SectionType = "other"               // 未识别类型
)

// Section 从AI原始回复中切分出的一个内容区块
type Section struct {
	Index   int         `json:"index"` // 1-based，决定展示与槽位键顺序
	Title   string      `json:"title"`
	Type    SectionType `json:"type"`
	Content string      `json:"content"`
}

// ContentKit 一次生成得到的完整内容套件
type ContentKit struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"` // YYYY-MM-DD
	RawText     string    `json:"raw_text"`
	Sections    []Section `json:"sections"`
	Strategy    string    `json:"strategy"`
	GeneratedAt time.Time `json:"generated_at"`
}

// SlotKey 槽位复合键，统一键名方案避免各调用点拼接字符串产生碰撞
func SlotKey(sectionIndex, slotIndex int) string {
	return fmt.Sprintf("s%d-%d", sectionIndex, slotIndex)
}

// SlotPrompt 某个区块内第N个视觉节拍的提示词
// Manual=true 表示用户手工覆盖过，重新推导时不得覆盖
type SlotPrompt struct {
	SectionIndex int       `json:"section_index"`
	SlotIndex    int       `json:"slot_index"` // 1-based
	Text         string    `json:"text"`
	Manual       bool      `json:"manual"`
	NearEmpty    bool      `json:"near_empty,omitempty"` // 兜底提取后文本仍然过短的提示
	UpdatedAt    time.Time `json:"updated_at"`
}

// AssetKind 生成资产类型
type AssetKind string

const (
	AssetImage AssetKind = "image"
	AssetVideo AssetKind = "video"
)

// GeneratedAsset 槽位生成的图片或视频资产
// 只会被用户显式替换或删除，绝不隐式清理
type GeneratedAsset struct {
	SectionIndex int       `json:"section_index"`
	SlotIndex    int       `json:"slot_index"`
	Kind         AssetKind `json:"kind"`
	DataURI      string    `json:"data_uri"`
	MIMEType     string    `json:"mime_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// VideoJobState 视频生成轮询状态机的状态
type VideoJobState string

const (
	VideoSubmitted VideoJobState = "submitted"
	VideoPolling   VideoJobState = "polling"
	VideoReady     VideoJobState = "ready"
	VideoFailed    VideoJobState = "failed"
)

// VideoJob 长轮询视频生成任务
type VideoJob struct {
	ID           string        `json:"id"`
	Date         string        `json:"date"`
	SectionIndex int           `json:"section_index"`
	SlotIndex    int           `json:"slot_index"`
	Prompt       string        `json:"prompt"`
	State        VideoJobState `json:"state"`
	DataURI      string        `json:"data_uri,omitempty"`
	Error        string        `json:"error,omitempty"`
	SubmittedAt  time.Time     `json:"submitted_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Terminal 是否已进入终态
func (s VideoJobState) Terminal() bool {
	return s == VideoReady || s == VideoFailed
}
