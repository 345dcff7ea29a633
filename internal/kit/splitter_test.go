// internal/kit/splitter_test.go
package kit

import (
	"strings"
	"testing"

	"github.com/RomaLabs/RomaPlanner/internal/models"
)

func TestSplitBlocks_RebuildsOriginalText(t *testing.T) {
	raw := "# 🎥 1. ROTEIRO\nintro linha um\nlinha dois\n# 📱 2. SEQUÊNCIA DE STORIES\ncorpo stories\n# 🎠 3. CARROSSEL\nslides"
	blocks := SplitBlocks(raw)

	if len(blocks) != 3 {
		t.Fatalf("期望切出3个区块, 实际 %d", len(blocks))
	}
	if joined := strings.Join(blocks, ""); joined != raw {
		t.Errorf("区块拼接应还原原文:\n期望 %q\n实际 %q", raw, joined)
	}
}

func TestSplitBlocks_DropsEmptyPrefixKeepsNonEmpty(t *testing.T) {
	withPrefix := "texto solto antes\n# TÍTULO\ncorpo"
	blocks := SplitBlocks(withPrefix)
	if len(blocks) != 2 {
		t.Fatalf("非空前缀应保留为独立区块, 实际区块数 %d", len(blocks))
	}
	if !strings.HasPrefix(blocks[1], "# TÍTULO") {
		t.Errorf("第二个区块应以标题行开头, 实际 %q", blocks[1])
	}

	blankPrefix := "\n\n# TÍTULO\ncorpo"
	if got := SplitBlocks(blankPrefix); len(got) != 1 {
		t.Errorf("空白前缀应被丢弃, 实际区块数 %d", len(got))
	}
}

func TestSplitBlocks_IgnoresMidLineAndSubHeadings(t *testing.T) {
	raw := "# A\ntexto com # marcador no meio\n## subtítulo não conta\nfim"
	blocks := SplitBlocks(raw)
	if len(blocks) != 1 {
		t.Fatalf("行中井号与二级标题不应触发切分, 实际区块数 %d", len(blocks))
	}
}

func TestParseSections_NoHeadings(t *testing.T) {
	sections := ParseSections("apenas um parágrafo sem nenhum título")
	if len(sections) != 1 {
		t.Fatalf("无标题文本应作为单一区块, 实际 %d", len(sections))
	}
	if sections[0].Title != "" {
		t.Errorf("无标题区块的标题应为空, 实际 %q", sections[0].Title)
	}
	if sections[0].Type != models.SectionOther {
		t.Errorf("无标题区块类型应为 Other, 实际 %s", sections[0].Type)
	}
}

func TestParseSections_FiltersEmptySections(t *testing.T) {
	raw := "# \n# SEGUNDO\ncorpo"
	sections := ParseSections(raw)
	if len(sections) != 1 {
		t.Fatalf("标题与正文都为空的区块应被过滤, 实际 %d", len(sections))
	}
	if sections[0].Title != "SEGUNDO" || sections[0].Index != 1 {
		t.Errorf("过滤后序号应重排: title=%q index=%d", sections[0].Title, sections[0].Index)
	}
}

func TestParseSections_ConsecutiveHeadingKeptWhenTitled(t *testing.T) {
	raw := "# PRIMEIRO\n# SEGUNDO\ncorpo"
	sections := ParseSections(raw)
	if len(sections) != 2 {
		t.Fatalf("有标题无正文的区块应保留, 实际 %d", len(sections))
	}
	if sections[0].Content != "" {
		t.Errorf("连续标题之间的正文应为空, 实际 %q", sections[0].Content)
	}
}

func TestParseSections_SpecimenKit(t *testing.T) {
	raw := "# 🎥 1. ROTEIRO\nintro\n# 📱 2. SEQUÊNCIA DE STORIES\nStory 1: abre a cena. Story 2: mostra o produto."
	sections := ParseSections(raw)

	if len(sections) != 2 {
		t.Fatalf("期望两个区块, 实际 %d", len(sections))
	}
	if sections[0].Type != models.SectionVideoScript {
		t.Errorf("区块1应为视频脚本, 实际 %s", sections[0].Type)
	}
	if sections[0].Content != "intro" {
		t.Errorf("区块1正文应为 'intro', 实际 %q", sections[0].Content)
	}
	if sections[1].Type != models.SectionStoriesSequence {
		t.Errorf("区块2应为 Stories 序列, 实际 %s", sections[1].Type)
	}

	if got := ExtractSlot(sections[1].Content, 1); got != "abre a cena." {
		t.Errorf("槽位1提取错误: 期望 %q 实际 %q", "abre a cena.", got)
	}
	if got := ExtractSlot(sections[1].Content, 2); got != "mostra o produto." {
		t.Errorf("槽位2提取错误: 期望 %q 实际 %q", "mostra o produto.", got)
	}
}
