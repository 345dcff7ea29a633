// internal/models/strategy.go
package models

// StrategyItem 受众策略表中的一行（痛点/渴望/异议）
type StrategyItem struct {
	ID          string `json:"id"`
	Category    string `json:"category"`   // 'Atração de Clientes' 或 'Melhorar Divulgação'
	Desire      string `json:"desire"`     // 渴望
	Opportunity string `json:"opportunity"` // 机会
	Engagement  string `json:"engagement"` // 现状/症状
	Objection   string `json:"objection"`  // 异议
	Pain        string `json:"pain"`       // 痛点
}

// ScheduleDay 周计划模板中的一天
type ScheduleDay struct {
	Day     string `json:"day"`
	Focus   string `json:"focus"`
	Stories string `json:"stories"`
	Post    string `json:"post"`
	Live    string `json:"live,omitempty"`
}

// ScheduleTemplate 周计划模板
type ScheduleTemplate struct {
	Name string        `json:"name"` // standard / warmup / launch
	Days []ScheduleDay `json:"days"`
}

// BookRecommendation 内容灵感书单条目
type BookRecommendation struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Tag         string `json:"tag"`
	Description string `json:"description"`
}
