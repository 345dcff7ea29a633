// cmd/demo/main.go
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/RomaLabs/RomaPlanner/internal/kit"
	"github.com/RomaLabs/RomaPlanner/internal/models"
)

// 演示用的AI回复片段，覆盖全部区块类型的切分与槽位提取
const sampleKitText = `# ROTEIRO DE VÍDEO
(Visual: Fabiana sorrindo em frente ao espelho do salão)
Gancho: Você sabia que 80% das clientes decidem voltar nos primeiros 30 segundos?
Desenvolvimento: Mostre o antes e depois de um atendimento completo.
CTA: Comenta "EU QUERO" que eu te mando o passo a passo.

# SEQUÊNCIA DE STORIES
Story 1: Bastidores da preparação do salão pela manhã.
Story 2: Enquete: qual estilo você prefere para o verão?
Story 3: Depoimento de cliente satisfeita.
Story 4: Caixinha de perguntas sobre cuidados pós-procedimento.
Story 5: Convite para agendar o horário da semana.

# LEGENDA PARA FEED
Autoestima não é luxo, é necessidade. ✨
Agende seu horário e descubra a sua melhor versão.

# FEED CARROSSEL ESTILO HQ
Quadrinho 1:
VISUAL: Fabiana de braços cruzados na recepção, estilo HQ vibrante.
TEXTO NO SLIDE: O erro que afasta suas clientes
Quadrinho 2:
VISUAL: Cliente olhando o celular com cara de dúvida.
BALÃO DE FALA: "Será que esse salão é confiável?"
Quadrinho 3:
VISUAL: Perfil do Instagram organizado, feed harmônico.
TEXTO NO SLIDE: Sua vitrine digital é seu cartão de visita
Quadrinho 4:
VISUAL: Agenda cheia, notificações de agendamento.
TEXTO NO SLIDE: Resultado de quem comunica com estratégia
Quadrinho 5:
VISUAL: Fabiana apontando para o leitor, sorrindo.
BALÃO DE FALA: "Bora transformar seu perfil?"

# SEQUÊNCIA DE VÍDEO VEO
Cena 1: Close no rosto da profissional, luz natural, 9:16.
Cena 2: Mãos preparando os materiais sobre a bancada.
Cena 3: Cliente chegando e sendo recebida com sorriso.
Cena 4: Detalhe do procedimento em câmera lenta.
Cena 5: Resultado final com a cliente se olhando no espelho.

# PROMPT PARA IMAGEM
Mulher brasileira de 35 anos em um salão de beleza iluminado, fotografia
editorial, tons quentes, proporção 9:16.

# MEME ESTRATÉGICO
Meme 1: "Eu depois de dizer que ia descansar no domingo" + foto atendendo cliente.
Meme 2: "Minha cliente chegando 40 minutos atrasada" + carinha de paciência.
`

func main() {
	fmt.Println("🚀 RomaPlanner: demonstração do segmentador de conteúdo")
	fmt.Println("========================================================")

	raw := sampleKitText
	switch {
	case len(os.Args) > 1 && os.Args[1] == "-":
		fmt.Println("📋 粘贴文本后按 Ctrl+D 结束输入:")
		raw = readStdin()
	case len(os.Args) > 1:
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Printf("❌ 无法读取文件 %s: %v\n", os.Args[1], err)
			os.Exit(1)
		}
		raw = string(data)
		fmt.Printf("📄 已加载文件: %s (%d 字节)\n", os.Args[1], len(data))
	default:
		fmt.Println("📄 使用内置示例文本 (传入文件路径可替换，传入 - 从标准输入读取)")
	}

	sections := kit.ParseSections(raw)
	fmt.Printf("\n✂️  切分出 %d 个区块:\n\n", len(sections))

	for _, section := range sections {
		printSection(section)
	}

	fmt.Println("========================================================")
	fmt.Println("✅ 演示结束")
}

// readStdin 读取标准输入直到EOF
func readStdin() string {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	var sb strings.Builder
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteString("\n")
	}
	return sb.String()
}

// printSection 打印一个区块及其全部槽位提示词
func printSection(section models.Section) {
	slotCount := kit.SlotCount(section.Type)

	fmt.Printf("[%d] %s\n", section.Index, section.Title)
	fmt.Printf("    类型: %-20s 槽位数: %d\n", section.Type, slotCount)

	for slot := 1; slot <= slotCount; slot++ {
		text := kit.ExtractSlot(section.Content, slot)
		marker := " "
		if kit.NearEmpty(text) {
			marker = "!"
		}
		fmt.Printf("    %s 槽位 %d: %s\n", marker, slot, preview(text, 72))
	}
	fmt.Println()
}

// preview 压缩为单行预览，超长截断
func preview(text string, limit int) string {
	line := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(line) <= limit {
		return line
	}
	runes := []rune(line)
	return string(runes[:limit]) + "…"
}
