// internal/kit/extractor.go
package kit

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// maxFallbackPrefix 兜底提取的最大长度（按字符数，非字节）
	maxFallbackPrefix = 800
	// minParagraphLen 段落兜底时的最小有效段落长度
	minParagraphLen = 10
	// nearEmptyThreshold 提取结果低于该长度时视为"近空"
	nearEmptyThreshold = 12
)

// labelAlternatives 槽位标签同义词族，长词在前避免前缀吞噬
const labelAlternatives = `(?:Stories|Story|Hist[óo]ria|Cena|Slide|Quadrinho|Passo|Item|V[íi]deo|Reels|Meme)`

var (
	// visualSubLabelRe 在槽位块内部定位 VISUAL 子标签，
	// 捕获到下一个已知子标签或块尾为止
	visualSubLabelRe = regexp.MustCompile(
		`(?is)VISUAL(?:\s+PARA\s+VEO)?\s*:\s*(.*?)(?:(?:TEXTO|BAL[ÃA]O|FALA|PENSAMENTO|NARRA[ÇC][ÃA]O|LEGENDA)\s*:|\z)`)

	// leadingVisualRe 清理开头的 "(Visual: ...)" 括注
	leadingVisualRe = regexp.MustCompile(`(?i)^\s*\(Visual:[^)]*\)\s*`)

	// paragraphSplitRe 空行段落边界
	paragraphSplitRe = regexp.MustCompile(`\n\s*\n`)
)

// ExtractSlot 从区块正文中提取第N个视觉节拍的描述文本
//
// 四级降级链，前一级无结果才尝试下一级：
//  1. 标签块匹配（Story 2: / Cena 02 - ...）
//  2. 行首编号列表匹配（2. ...）
//  3. 段落位置兜底（第N个非琐碎段落）
//  4. 全文定长前缀兜底
//
// 永不panic，永不返回非字符串；仅当正文本身为空时返回空串
func ExtractSlot(content string, index int) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" || index < 1 {
		return ""
	}

	if text := extractLabeledBlock(trimmed, index); text != "" {
		return text
	}
	if text := extractNumberedItem(trimmed, index); text != "" {
		return text
	}
	if text := extractParagraph(trimmed, index); text != "" {
		return text
	}
	return CleanSlotText(truncateRunes(trimmed, maxFallbackPrefix))
}

// NearEmpty 判断提取结果是否短到无法用作生成提示词
// 按字符数而非字节数计，葡语重音字符不会虚增长度
func NearEmpty(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) < nearEmptyThreshold
}

// extractLabeledBlock 第一级：同义标签+序号定位，截到同族标签的下一序号或文末
// 块内存在 VISUAL 子标签时只保留其后的视觉描述
func extractLabeledBlock(content string, index int) string {
	pattern := fmt.Sprintf(`(?is)%s\s*0?%d\b\s*[:.)\-–]?\s*(.*?)(?:%s\s*0?%d\b|\z)`,
		labelAlternatives, index, labelAlternatives, index+1)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ""
	}
	m := re.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	block := m[1]
	if sub := visualSubLabelRe.FindStringSubmatch(block); sub != nil {
		block = sub[1]
	}
	return CleanSlotText(block)
}

// extractNumberedItem 第二级：行首 "N." 或 "N)" 编号项，截到下一编号或文末
func extractNumberedItem(content string, index int) string {
	pattern := fmt.Sprintf(`(?ims)^\s*%d[.)]\s*(.*?)(?:\n\s*%d[.)]|\z)`, index, index+1)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ""
	}
	m := re.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return CleanSlotText(m[1])
}

// extractParagraph 第三级：按空行切段，取第N个长度达标的段落
func extractParagraph(content string, index int) string {
	var paragraphs []string
	for _, p := range paragraphSplitRe.Split(content, -1) {
		p = strings.TrimSpace(p)
		if utf8.RuneCountInString(p) > minParagraphLen {
			paragraphs = append(paragraphs, p)
		}
	}
	if index <= len(paragraphs) {
		return CleanSlotText(paragraphs[index-1])
	}
	return ""
}

// CleanSlotText 清理提取文本：剥掉开头的 "(Visual: ...)" 括注并修剪空白
func CleanSlotText(text string) string {
	return strings.TrimSpace(leadingVisualRe.ReplaceAllString(text, ""))
}

// truncateRunes 按字符截断，避免把多字节字符切成半个
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
