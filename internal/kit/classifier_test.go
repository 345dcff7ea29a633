// internal/kit/classifier_test.go
package kit

import (
	"testing"

	"github.com/RomaLabs/RomaPlanner/internal/models"
)

func TestClassify_KeywordTable(t *testing.T) {
	tests := []struct {
		title string
		want  models.SectionType
	}{
		{"🎥 1. ROTEIRO DO VÍDEO", models.SectionVideoScript},
		{"📱 2. SEQUÊNCIA DE STORIES", models.SectionStoriesSequence},
		{"🎠 FEED CARROSSEL (ESTILO HQ)", models.SectionCarousel},
		{"carousel em inglês", models.SectionCarousel},
		{"LEGENDA PARA O FEED", models.SectionFeedCaption},
		{"feed do dia", models.SectionFeedCaption},
		{"IMAGEM DE CAPA", models.SectionImagePrompt},
		{"PROMPT VÍDEO VEO", models.SectionVideoSceneSequence},
		{"cenas para o veo", models.SectionVideoSceneSequence},
		{"MEME DO DIA", models.SectionMeme},
		{"PROMPT DE OURO", models.SectionGoldenPrompt},
		{"PROMPT DE COMANDO", models.SectionGoldenPrompt},
		{"qualquer outra coisa", models.SectionOther},
		{"", models.SectionOther},
	}

	for _, tt := range tests {
		if got := Classify(tt.title); got != tt.want {
			t.Errorf("Classify(%q) = %s, 期望 %s", tt.title, got, tt.want)
		}
	}
}

// 标题含多个关键词时必须按规则表顺序得到稳定结果
func TestClassify_RuleOrderIsStable(t *testing.T) {
	tests := []struct {
		title string
		want  models.SectionType
	}{
		// CARROSSEL 规则在 FEED 之前
		{"FEED CARROSSEL (ESTILO HQ)", models.SectionCarousel},
		// ROTEIRO 规则在 VEO 之前
		{"ROTEIRO PARA VÍDEO VEO", models.SectionVideoScript},
		// STORIES 规则在 LEGENDA 之前
		{"STORIES COM LEGENDA", models.SectionStoriesSequence},
	}
	for _, tt := range tests {
		if got := Classify(tt.title); got != tt.want {
			t.Errorf("Classify(%q) = %s, 期望 %s", tt.title, got, tt.want)
		}
	}
}

func TestClassify_Idempotent(t *testing.T) {
	titles := []string{
		"🎥 ROTEIRO", "STORIES", "FEED CARROSSEL", "IMAGEM", "sem palavra-chave", "",
	}
	for _, title := range titles {
		first := Classify(title)
		for i := 0; i < 3; i++ {
			if again := Classify(title); again != first {
				t.Fatalf("Classify(%q) 结果不稳定: %s != %s", title, again, first)
			}
		}
	}
}

func TestSlotCount(t *testing.T) {
	tests := []struct {
		kind models.SectionType
		want int
	}{
		{models.SectionStoriesSequence, 5},
		{models.SectionCarousel, 5},
		{models.SectionVideoSceneSequence, 5},
		{models.SectionMeme, 2},
		{models.SectionVideoScript, 1},
		{models.SectionImagePrompt, 1},
		{models.SectionFeedCaption, 1},
		{models.SectionGoldenPrompt, 1},
		{models.SectionOther, 1},
	}
	for _, tt := range tests {
		if got := SlotCount(tt.kind); got != tt.want {
			t.Errorf("SlotCount(%s) = %d, 期望 %d", tt.kind, got, tt.want)
		}
	}
}
