// internal/kit/extractor_test.go
package kit

import (
	"strings"
	"testing"
)

func TestExtractSlot_LabeledBlockBeatsPositionalGuess(t *testing.T) {
	content := "parágrafo introdutório bem longo que poderia ser confundido com um slot\n\nStory 2: X\n\nStory 3: Y"
	if got := ExtractSlot(content, 2); got != "X" {
		t.Errorf("标签块应优先于段落位置兜底: 期望 %q 实际 %q", "X", got)
	}
}

func TestExtractSlot_LabelSynonyms(t *testing.T) {
	tests := []struct {
		name    string
		content string
		index   int
		want    string
	}{
		{"story", "Story 1: primeiro quadro. Story 2: segundo quadro.", 1, "primeiro quadro."},
		{"cena", "Cena 1 - plano aberto do salão.\nCena 2 - close no produto.", 2, "close no produto."},
		{"slide zero-pad", "Slide 01: capa impactante\nSlide 02: a dor\nSlide 03: a virada", 2, "a dor"},
		{"quadrinho", "Quadrinho 1: cliente frustrada. Quadrinho 2: descoberta da IA.", 2, "descoberta da IA."},
		{"video", "Vídeo 1: hook de três segundos. Vídeo 2: demonstração.", 1, "hook de três segundos."},
	}

	for _, tt := range tests {
		if got := ExtractSlot(tt.content, tt.index); got != tt.want {
			t.Errorf("%s: ExtractSlot(_, %d) = %q, 期望 %q", tt.name, tt.index, got, tt.want)
		}
	}
}

func TestExtractSlot_VisualSubLabelNarrows(t *testing.T) {
	content := "Story 1: TEXTO: fala da protagonista\nVISUAL: salão iluminado, câmera lenta\nStory 2: outro quadro"
	got := ExtractSlot(content, 1)
	if got != "salão iluminado, câmera lenta" {
		t.Errorf("VISUAL 子标签应只保留视觉描述, 实际 %q", got)
	}

	veo := "Cena 1: FALA: bom dia!\nVISUAL PARA VEO: drone sobre a cidade ao amanhecer\nCena 2: seguinte"
	if got := ExtractSlot(veo, 1); got != "drone sobre a cidade ao amanhecer" {
		t.Errorf("VISUAL PARA VEO 子标签提取错误, 实际 %q", got)
	}
}

func TestExtractSlot_NumberedListFallback(t *testing.T) {
	content := "1. primeiro item da lista\n2. segundo item da lista\n3. terceiro item"
	if got := ExtractSlot(content, 2); got != "segundo item da lista" {
		t.Errorf("编号列表提取错误, 实际 %q", got)
	}
	parens := "1) abre com pergunta\n2) responde com prova social"
	if got := ExtractSlot(parens, 1); got != "abre com pergunta" {
		t.Errorf("括号编号提取错误, 实际 %q", got)
	}
}

func TestExtractSlot_ParagraphFallback(t *testing.T) {
	content := "primeiro parágrafo com conteúdo suficiente\n\nsegundo parágrafo também relevante\n\nterceiro parágrafo de fechamento"
	if got := ExtractSlot(content, 2); got != "segundo parágrafo também relevante" {
		t.Errorf("段落位置兜底错误, 实际 %q", got)
	}
}

func TestExtractSlot_ParagraphFallbackSkipsTrivialParagraphs(t *testing.T) {
	// 长度不超过10个字符的段落不参与位置计数，
	// 短垫片（"ok"、分隔线之类）不占槽位
	content := "ok\n\nsegundo parágrafo com bastante texto\n\n---\n\nterceiro parágrafo igualmente longo"
	if got := ExtractSlot(content, 1); got != "segundo parágrafo com bastante texto" {
		t.Errorf("琐碎段落不应占据位置1, 实际 %q", got)
	}
	if got := ExtractSlot(content, 2); got != "terceiro parágrafo igualmente longo" {
		t.Errorf("琐碎段落不应占据位置2, 实际 %q", got)
	}
}

func TestExtractSlot_PrefixFallbackIsCapped(t *testing.T) {
	long := strings.Repeat("ção ", 400) // 1600 字符，无标签无编号无空行
	got := ExtractSlot(long, 4)
	if got == "" {
		t.Fatal("兜底提取不应返回空串")
	}
	if n := len([]rune(got)); n > 800 {
		t.Errorf("兜底前缀应被截断到800字符以内, 实际 %d", n)
	}
	if !strings.HasPrefix(long, got) {
		t.Error("兜底结果应为原文前缀")
	}
}

func TestExtractSlot_NeverPanicsAlwaysString(t *testing.T) {
	inputs := []string{"", "   ", "\n\n\n", "texto solto", "Story 9: fora do alcance"}
	for _, content := range inputs {
		for index := 1; index <= 5; index++ {
			func() {
				defer func() {
					if r := recover(); r != nil {
						t.Fatalf("ExtractSlot(%q, %d) panic: %v", content, index, r)
					}
				}()
				_ = ExtractSlot(content, index)
			}()
		}
	}
	if got := ExtractSlot("", 1); got != "" {
		t.Errorf("空正文应返回空串, 实际 %q", got)
	}
}

func TestExtractSlot_Idempotent(t *testing.T) {
	content := "Story 1: abre a cena. Story 2: mostra o produto.\n\nparágrafo extra de apoio"
	for index := 1; index <= 5; index++ {
		first := ExtractSlot(content, index)
		for i := 0; i < 3; i++ {
			if again := ExtractSlot(content, index); again != first {
				t.Fatalf("ExtractSlot(_, %d) 结果不稳定: %q != %q", index, again, first)
			}
		}
	}
}

func TestCleanSlotText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"(Visual: foo) bar baz", "bar baz"},
		{"  (visual: cena do salão)  texto útil  ", "texto útil"},
		{"sem parêntese nenhum", "sem parêntese nenhum"},
		{"  bordas com espaço  ", "bordas com espaço"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanSlotText(tt.in); got != tt.want {
			t.Errorf("CleanSlotText(%q) = %q, 期望 %q", tt.in, got, tt.want)
		}
	}
}

func TestNearEmpty(t *testing.T) {
	if !NearEmpty("   ") {
		t.Error("空白文本应判定为近空")
	}
	if !NearEmpty("curto") {
		t.Error("过短文本应判定为近空")
	}
	if NearEmpty("descrição visual completa da cena") {
		t.Error("正常长度文本不应判定为近空")
	}
	// 重音字符按1个字符计，不按UTF-8字节数计
	if !NearEmpty("à atenção") {
		t.Error("9个字符的重音文本应判定为近空")
	}
	if NearEmpty("atenção à cabine") {
		t.Error("16个字符的重音文本不应判定为近空")
	}
}
