// internal/kit/splitter.go
package kit

import (
	"strings"

	"github.com/RomaLabs/RomaPlanner/internal/models"
)

// headingPrefix 顶级标题标记，必须位于行首且只有一个井号
const headingPrefix = "# "

// SplitBlocks 把AI原始回复按行首标题切分为有序原始区块
// 区块包含自己的标题行，拼接全部区块可还原首个标题之后的原文
// 首个标题之前的文本仅在非空时保留为第一个区块
func SplitBlocks(raw string) []string {
	if raw == "" {
		return nil
	}

	var boundaries []int
	for i := 0; i < len(raw); i++ {
		if i > 0 && raw[i-1] != '\n' {
			continue
		}
		if strings.HasPrefix(raw[i:], headingPrefix) {
			boundaries = append(boundaries, i)
		}
	}

	// 没有任何标题时整体作为单一区块
	if len(boundaries) == 0 {
		return []string{raw}
	}

	var blocks []string
	if prefix := raw[:boundaries[0]]; strings.TrimSpace(prefix) != "" {
		blocks = append(blocks, prefix)
	}
	for i, start := range boundaries {
		end := len(raw)
		if i+1 < len(boundaries) {
			end = boundaries[i+1]
		}
		blocks = append(blocks, raw[start:end])
	}
	return blocks
}

// ParseSections 把原始回复解析为结构化内容区块序列
// 标题与正文都为空的区块会被过滤，Index 为过滤后的 1-based 序号
func ParseSections(raw string) []models.Section {
	var sections []models.Section
	for _, block := range SplitBlocks(raw) {
		title, content := splitHeading(block)
		if title == "" && content == "" {
			continue
		}
		sections = append(sections, models.Section{
			Index:   len(sections) + 1,
			Title:   title,
			Type:    Classify(title),
			Content: content,
		})
	}
	return sections
}

// splitHeading 从区块中剥离标题行，返回去掉标记的标题和修剪后的正文
func splitHeading(block string) (title, content string) {
	if !strings.HasPrefix(block, headingPrefix) {
		return "", strings.TrimSpace(block)
	}
	rest := block[len(headingPrefix):]
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		return strings.TrimSpace(rest[:idx]), strings.TrimSpace(rest[idx+1:])
	}
	return strings.TrimSpace(rest), ""
}
