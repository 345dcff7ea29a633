// internal/services/strategy_service.go
package services

import (
	"fmt"
	"strings"

	"github.com/RomaLabs/RomaPlanner/internal/models"
)

// StrategyService 受众策略目录：痛点/渴望/异议行、周计划模板、灵感书单
type StrategyService struct {
	items     []models.StrategyItem
	schedules map[string]models.ScheduleTemplate
	books     []models.BookRecommendation
}

// NewStrategyService 创建策略服务，内置种子数据
func NewStrategyService() *StrategyService {
	return &StrategyService{
		items:     strategySeed,
		schedules: scheduleTemplates,
		books:     bookRecommendations,
	}
}

// ListItems 返回全部策略行
func (s *StrategyService) ListItems() []models.StrategyItem {
	items := make([]models.StrategyItem, len(s.items))
	copy(items, s.items)
	return items
}

// ListByCategory 按分类过滤策略行
func (s *StrategyService) ListByCategory(category string) []models.StrategyItem {
	var items []models.StrategyItem
	for _, item := range s.items {
		if item.Category == category {
			items = append(items, item)
		}
	}
	return items
}

// GetItems 按ID集合取策略行，忽略不存在的ID
func (s *StrategyService) GetItems(ids []string) []models.StrategyItem {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var items []models.StrategyItem
	for _, item := range s.items {
		if wanted[item.ID] {
			items = append(items, item)
		}
	}
	return items
}

// SearchItems 按分类与自由文本过滤策略行
// category 为空表示不过滤分类，query 为空表示不过滤文本
func (s *StrategyService) SearchItems(category, query string) []models.StrategyItem {
	query = strings.ToLower(strings.TrimSpace(query))
	var items []models.StrategyItem
	for _, item := range s.items {
		if category != "" && item.Category != category {
			continue
		}
		if query != "" && !itemMatches(item, query) {
			continue
		}
		items = append(items, item)
	}
	return items
}

func itemMatches(item models.StrategyItem, query string) bool {
	fields := []string{item.Pain, item.Desire, item.Objection, item.Opportunity, item.Engagement}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

// GetSchedule 按名称取周计划模板 (standard/warmup/launch)
func (s *StrategyService) GetSchedule(name string) (models.ScheduleTemplate, error) {
	if tpl, ok := s.schedules[name]; ok {
		return tpl, nil
	}
	return models.ScheduleTemplate{}, fmt.Errorf("未知的周计划模板: %s", name)
}

// ListSchedules 返回全部周计划模板名称
func (s *StrategyService) ListSchedules() []string {
	return []string{"standard", "warmup", "launch"}
}

// ListBooks 返回灵感书单
func (s *StrategyService) ListBooks() []models.BookRecommendation {
	books := make([]models.BookRecommendation, len(s.books))
	copy(books, s.books)
	return books
}

// 种子数据：美业学员调研得到的痛点/渴望/异议目录
var strategySeed = []models.StrategyItem{
	// --- 分组1: 获客 ---
	{ID: "1", Category: "Atração de Clientes", Desire: "Quero aprender Inteligência Artificial para melhorar meu trabalho", Opportunity: "Atrair clientes como resultado", Engagement: "Poucas clientes, reconhecimento profissional", Objection: "Não tem clientes", Pain: "Não tem clientes"},
	{ID: "2", Category: "Atração de Clientes", Desire: "Conseguir novos clientes", Opportunity: "Melhorar meu negócio", Engagement: "Poucas clientes, não ser ainda reconhecida na cidade", Objection: "Falta de clientes", Pain: "Falta de clientes"},
	{ID: "3", Category: "Atração de Clientes", Desire: "Atrair clientes para agendamento", Opportunity: "Fazer clientes voltar", Engagement: "Sempre os mesmos clientes", Objection: "Falta de clientela", Pain: "Estagnação"},
	{ID: "4", Category: "Atração de Clientes", Desire: "Captação de cliente e fidelização", Opportunity: "Reciclagem profissional", Engagement: "Cliente pontual", Objection: "Falta de clientes", Pain: "Insegurança financeira"},
	{ID: "5", Category: "Atração de Clientes", Desire: "Atrair clientes que pagam bem", Opportunity: "Ampliar os negócios", Engagement: "Investimentos altos em cosméticos", Objection: "Sem clientes mesmo com muito investimento", Pain: "Prejuízo / ROI baixo"},
	{ID: "6", Category: "Atração de Clientes", Desire: "Ter mais clientes", Opportunity: "Me atualizar, acompanhar a evolução", Engagement: "Estou começando agora", Objection: "Dificuldade em divulgar", Pain: "Dificuldade em atrair clientes"},
	{ID: "7", Category: "Atração de Clientes", Desire: "Atrair clientes e manter clientes", Opportunity: "Conquistar confiança", Engagement: "Iniciando na área, pouco experiente", Objection: "Falta de estratégia", Pain: "Invisibilidade no mercado"},
	{ID: "8", Category: "Atração de Clientes", Desire: "Conquistar clientes", Opportunity: "Conhecer novas técnicas", Engagement: "Novo no ramo", Objection: "Falta de atitude", Pain: "Medo de agir"},
	{ID: "9", Category: "Atração de Clientes", Desire: "Fazer meu salão prosperar", Opportunity: "Marketing eficiente", Engagement: "Pouco conhecida no mercado", Objection: "Não consigo sozinho, já tentei", Pain: "Frustração por falhas passadas"},
	{ID: "10", Category: "Atração de Clientes", Desire: "Divulgar meus trabalhos", Opportunity: "Ganhar clientes", Engagement: "Falta financeira para divulgação", Objection: "Sem verba", Pain: "Ciclo da escassez"},
	{ID: "11", Category: "Atração de Clientes", Desire: "Alcançar mais clientes", Opportunity: "Crescimento sustentável", Engagement: "Falta de ajuda / Suporte", Objection: "Não tive alguém pra me ajudar", Pain: "Solidão empreendedora"},
	{ID: "12", Category: "Atração de Clientes", Desire: "Capitar mais clientes", Opportunity: "Expansão", Engagement: "Tentativas falhas", Objection: "Não estou conseguindo ganhar clientes", Pain: "Sensação de fracasso"},
	{ID: "13", Category: "Atração de Clientes", Desire: "Melhorar gestão", Opportunity: "Organização financeira", Engagement: "Falta de recursos", Objection: "Falta de dinheiro para investir", Pain: "Descontrole financeiro"},
	{ID: "14", Category: "Atração de Clientes", Desire: "Superar insegurança", Opportunity: "Desenvolvimento pessoal", Engagement: "Bloqueio mental", Objection: "O medo", Pain: "Paralisia"},
	{ID: "15", Category: "Atração de Clientes", Desire: "Aprender a me posicionar", Opportunity: "Dominar redes sociais", Engagement: "Sem presença digital", Objection: "Não sei postar nas redes sociais", Pain: "Irrelevância digital"},

	// --- 分组2: 提升推广 ---
	{ID: "16", Category: "Melhorar Divulgação", Desire: "Melhorar meu negócio", Opportunity: "Aprender Inteligência Artificial", Engagement: "Precisa melhorar divulgação", Objection: "Não sei divulgar", Pain: "Invisibilidade do negócio"},
	{ID: "17", Category: "Melhorar Divulgação", Desire: "Melhorar minhas divulgações", Opportunity: "Me atualizar, acompanhar a evolução", Engagement: "Postagem irregular", Objection: "Divulgação, comecei agora", Pain: "Inexperiência em marketing"},
	{ID: "18", Category: "Melhorar Divulgação", Desire: "Melhorar imagem e postagem", Opportunity: "Reciclagem Profissional", Engagement: "Gerenciamento difícil", Objection: "Falta divulgação", Pain: "Imagem amadora"},
	{ID: "19", Category: "Melhorar Divulgação", Desire: "Criar artes para divulgar e captar", Opportunity: "Atualizar meus conhecimentos", Engagement: "Sempre os mesmos clientes", Objection: "Falta de divulgação", Pain: "Estagnação da base de clientes"},
	{ID: "20", Category: "Melhorar Divulgação", Desire: "Divulgar meus trabalhos para ganhar cliente", Opportunity: "Conhecer novas estratégias", Engagement: "Pouca divulgação", Objection: "Não sei divulgar muito, trabalho mais por indicação", Pain: "Dependência de indicação"},
	{ID: "21", Category: "Melhorar Divulgação", Desire: "Quero aprender a divulgar meu trabalho", Opportunity: "Venda de produtos e serviços", Engagement: "Estou começando agora", Objection: "Falta de experiência", Pain: "Dificuldade em atrair pela internet"},
	{ID: "22", Category: "Melhorar Divulgação", Desire: "Saber melhorar a minha divulgação", Opportunity: "Melhoras no agendamento", Engagement: "Iniciando na área", Objection: "Não sei fazer publicação", Pain: "Bloqueio na criação de conteúdo"},
	{ID: "23", Category: "Melhorar Divulgação", Desire: "Divulgação para atrair clientes", Opportunity: "Usar novas ferramentas (IA)", Engagement: "Nenhum engajamento atual", Objection: "Eu não faço postagem nenhuma", Pain: "Ausência total nas redes"},
	{ID: "24", Category: "Melhorar Divulgação", Desire: "Ter clareza e layout na divulgação", Opportunity: "Marketing profissional", Engagement: "Não uso muito rede social", Objection: "Não tenho bom desempenho para postar", Pain: "Conteúdo sem qualidade"},
	{ID: "25", Category: "Melhorar Divulgação", Desire: "Dominar a Mídia Digital", Opportunity: "Ter tempo e dedicação otimizados", Engagement: "Rotina cheia", Objection: "Não consigo fazer conteúdo para postar", Pain: "Falta de constância"},
	{ID: "26", Category: "Melhorar Divulgação", Desire: "Aprender a mexer nas ferramentas", Opportunity: "Inovação", Engagement: "Novo no ramo", Objection: "Não sei mexer para divulgar", Pain: "Analfabetismo digital"},
	{ID: "27", Category: "Melhorar Divulgação", Desire: "Fazer propaganda do meu negócio", Opportunity: "Trabalhar com IA", Engagement: "Sem anúncios", Objection: "Não consigo fazer propaganda", Pain: "Marca desconhecida"},
	{ID: "28", Category: "Melhorar Divulgação", Desire: "Ter uma estratégia clara", Opportunity: "Conhecimento direcionado", Engagement: "Perdido nas informações", Objection: "Falta de estratégia e informação", Pain: "Ação sem direção"},
	{ID: "29", Category: "Melhorar Divulgação", Desire: "Vencer a procrastinação nas postagens", Opportunity: "Posicionamento forte", Engagement: "Medo de julgamento", Objection: "Procrastinação e medo", Pain: "Autossabotagem"},
	{ID: "30", Category: "Melhorar Divulgação", Desire: "Ser respeitada e ter marketing", Opportunity: "Autonomia no marketing", Engagement: "Trabalho sozinha (Eupreendedora)", Objection: "Não tenho ninguém no marketing", Pain: "Sobrecarga de funções"},
	{ID: "31", Category: "Melhorar Divulgação", Desire: "Superar dificuldade com tecnologia", Opportunity: "Simplificar processos", Engagement: "Barreira tecnológica", Objection: "Dificuldade com a tecnologia", Pain: "Exclusão digital"},
}

// 三套周计划模板：常规周、预热周、发售周
var scheduleTemplates = map[string]models.ScheduleTemplate{
	"standard": {
		Name: "standard",
		Days: []models.ScheduleDay{
			{Day: "Segunda", Focus: "ATRAÇÃO (DESEJOS)", Stories: "Caixinha de pergunta - Chamada para seguir.", Post: "Post com motivação, frase simples (Conexão).", Live: "Bruno entrevista Fabi"},
			{Day: "Terça", Focus: "ENGAJAMENTO (DORES)", Stories: "Vídeo aprofundado (técnica) - CTA LISTA.", Post: "Carrossel com conteúdo que resolve dor específica."},
			{Day: "Quarta", Focus: "ATRAÇÃO (DIVULGAÇÃO)", Stories: "Caixinha de pergunta - Chamada para seguir.", Post: "Post anunciando Live (Antecipação).", Live: "Faça arte comigo"},
			{Day: "Quinta", Focus: "ENGAJAMENTO (TECNICA)", Stories: "Vídeo aprofundado (Seeding) - CTA LISTA.", Post: "Carrossel com conteúdo que resolve dor."},
			{Day: "Sexta", Focus: "ATRAÇÃO", Stories: "Caixinha de pergunta - Chamada para seguir.", Post: "Meme/Aúdio em alta (Viral)."},
			{Day: "Sábado", Focus: "ENGAJAMENTO", Stories: "Vídeo aprofundado - CTA LISTA.", Post: "Livros (Indicação/Estudo)."},
			{Day: "Domingo", Focus: "MEME / LIFESTYLE", Stories: "INTERAÇÃO / MEME", Post: "FOTOS LIFESTYLE (Conexão)."},
		},
	},
	"warmup": {
		Name: "warmup",
		Days: []models.ScheduleDay{
			{Day: "Segunda", Focus: "TSUNAMI (OPORTUNIDADE)", Stories: "Revelando a nova oportunidade (Tsunami).", Post: "Carrossel: \"O mercado mudou\".", Live: "Live 01: O Tsunami da IA"},
			{Day: "Terça", Focus: "CONSCIÊNCIA DA DOR", Stories: "Enquete sobre dores atuais.", Post: "Reels: Erros comuns."},
			{Day: "Quarta", Focus: "CONSCIÊNCIA DO PRODUTO", Stories: "Bastidores da Solução.", Post: "Foto/Vídeo resultado (Prova).", Live: "Live 02: Aprofundando (\"Ensina sem Ensinar\")"},
			{Day: "Quinta", Focus: "QUEBRA DE CRENÇA", Stories: "Caixinha: \"Por que não começou?\".", Post: "Mito vs. Verdade."},
			{Day: "Sexta", Focus: "ANTECIPAÇÃO", Stories: "Contagem regressiva.", Post: "O que você vai perder.", Live: "Live 03: Tira-Dúvidas"},
			{Day: "Sábado", Focus: "CONEXÃO / HISTÓRIA", Stories: "Minha história.", Post: "Foto pessoal inspiradora."},
			{Day: "Domingo", Focus: "ULTIMATO", Stories: "Última chamada.", Post: "Banner oficial."},
		},
	},
	"launch": {
		Name: "launch",
		Days: []models.ScheduleDay{
			{Day: "Segunda", Focus: "ABERTURA", Stories: "Atração - CTA para seguir.", Post: "Motivação + CTA EVENTO.", Live: "Live de Abertura"},
			{Day: "Terça", Focus: "QUEBRA DE OBJEÇÃO", Stories: "Vídeo quebra objeção.", Post: "Depoimento aluno + CTA.", Live: "Entrevista aluno"},
			{Day: "Quarta", Focus: "PROVA SOCIAL", Stories: "Depoimento aluno.", Post: "Conteúdo resolve dor + CTA.", Live: "Live Técnica (Demo)"},
			{Day: "Quinta", Focus: "QUEBRA DE OBJEÇÃO", Stories: "Vídeo quebra objeção.", Post: "Carrossel quebra objeção.", Live: "Entrevista aluno"},
			{Day: "Sexta", Focus: "PROVA SOCIAL", Stories: "Depoimento aluno.", Post: "Conteúdo resolve dor + CTA.", Live: "Live Encerramento"},
			{Day: "Sábado", Focus: "ATRAÇÃO", Stories: "Atração - CTA seguir.", Post: "Meme/áudio alta + CTA."},
			{Day: "Domingo", Focus: "VIRAL", Stories: "Meme/áudio alta.", Post: "Fotos Lifestyle."},
		},
	},
}

// 内容灵感书单
var bookRecommendations = []models.BookRecommendation{
	{Title: "Dicas de Ouro com IA", Author: "Especialista em Prompts", Tag: "IA / Prompts", Description: "Um guia prático com prompts que resolvem problemas reais do dia a dia no salão."},
	{Title: "Inteligência Artificial para Negócios", Author: "Diversos Autores", Tag: "Inovação", Description: "Como a IA está transformando o mercado da beleza e atendimento."},
	{Title: "Marketing na Era Digital", Author: "Philip Kotler", Tag: "Marketing", Description: "Fundamentos essenciais para divulgar na era da tecnologia."},
	{Title: "O Jeito Disney de Encantar Clientes", Author: "Disney Institute", Tag: "Atendimento", Description: "Perfeito para falar sobre experiência do cliente e excelência."},
	{Title: "Gatilhos Mentais", Author: "Gustavo Ferreira", Tag: "Vendas", Description: "Ótimo para explicar como persuadir e vender mais."},
	{Title: "Comece pelo Porquê", Author: "Simon Sinek", Tag: "Propósito", Description: "Para posts sobre propósito de marca e inspiração."},
	{Title: "Mindset: A Nova Psicologia do Sucesso", Author: "Carol S. Dweck", Tag: "Mentalidade", Description: "Ideal para falar sobre crescimento e superação de desafios."},
	{Title: "Roube Como Um Artista", Author: "Austin Kleon", Tag: "Criatividade", Description: "Para falar sobre referências, criatividade e inovação."},
	{Title: "A Experiência Apple", Author: "Carmine Gallo", Tag: "Fidelização", Description: "Como criar fãs leais para o seu salão ou negócio."},
}
