// internal/kit/classifier.go
package kit

import (
	"strings"

	"github.com/RomaLabs/RomaPlanner/internal/models"
)

// classifierRule 标题关键词规则，同一条规则内任一关键词命中即生效
type classifierRule struct {
	keywords []string
	kind     models.SectionType
}

// classifierRules 固定顺序的分类规则表，先命中者胜
// 顺序敏感：标题可能同时含多个关键词（如 "FEED CARROSSEL"），
// CARROSSEL 必须排在 FEED 之前才能得到稳定结果
var classifierRules = []classifierRule{
	{[]string{"ROTEIRO"}, models.SectionVideoScript},
	{[]string{"STORIES"}, models.SectionStoriesSequence},
	{[]string{"CARROSSEL", "CAROUSEL"}, models.SectionCarousel},
	{[]string{"LEGENDA", "FEED"}, models.SectionFeedCaption},
	{[]string{"IMAGEM"}, models.SectionImagePrompt},
	{[]string{"VÍDEO VEO", "VEO"}, models.SectionVideoSceneSequence},
	{[]string{"MEME"}, models.SectionMeme},
	{[]string{"PROMPT DE OURO", "PROMPT DE COMANDO"}, models.SectionGoldenPrompt},
}

// Classify 根据标题返回区块类型，纯函数，同一标题永远得到同一结果
func Classify(title string) models.SectionType {
	upper := strings.ToUpper(title)
	for _, rule := range classifierRules {
		for _, kw := range rule.keywords {
			if strings.Contains(upper, kw) {
				return rule.kind
			}
		}
	}
	return models.SectionOther
}

// SlotCount 区块类型对应的视觉槽位数量
// 序列类五个，Meme 两个备选，其余单图
func SlotCount(kind models.SectionType) int {
	switch kind {
	case models.SectionStoriesSequence, models.SectionCarousel, models.SectionVideoSceneSequence:
		return 5
	case models.SectionMeme:
		return 2
	default:
		return 1
	}
}
