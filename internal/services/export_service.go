// internal/services/export_service.go
package services

import (
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RomaLabs/RomaPlanner/internal/models"
)

// csvBOM Excel 识别 UTF-8 需要的字节序标记
const csvBOM = "\uFEFF"

// ExportService 把批准内容导出为 CSV / HTML / JSON
type ExportService struct {
	Planner   *PlannerService
	ExportDir string
}

func NewExportService(plannerService *PlannerService, exportDir string) *ExportService {
	if exportDir == "" {
		exportDir = filepath.Join("data", "exports")
	}
	return &ExportService{
		Planner:   plannerService,
		ExportDir: exportDir,
	}
}

// Export相关方法--------------------------
// ExportApprovedContent 导出全部批准内容
func (s *ExportService) ExportApprovedContent(format string) (*models.ExportResult, error) {
	supportedFormats := []string{"csv", "html", "json"}
	format = strings.ToLower(format)
	if !contains(supportedFormats, format) {
		return nil, fmt.Errorf("不支持的导出格式: %s，支持的格式: %v", format, supportedFormats)
	}

	approved, err := s.Planner.ListApproved()
	if err != nil {
		return nil, fmt.Errorf("读取批准内容失败: %w", err)
	}
	planned, err := s.Planner.ListPlans()
	if err != nil {
		return nil, fmt.Errorf("读取草稿失败: %w", err)
	}

	rows := buildExportRows(approved, planned)

	var content string
	switch format {
	case "csv":
		content = s.formatAsCSV(rows)
	case "html":
		content = s.formatAsHTML(rows)
	case "json":
		content, err = s.formatAsJSON(rows)
		if err != nil {
			return nil, err
		}
	}

	result := &models.ExportResult{
		Format:      format,
		Content:     content,
		RowCount:    len(rows),
		GeneratedAt: time.Now(),
	}

	filePath, fileSize, err := s.saveExportToDir(result)
	if err != nil {
		return nil, fmt.Errorf("保存导出文件失败: %w", err)
	}
	result.FilePath = filePath
	result.FileSize = fileSize

	return result, nil
}

// buildExportRows 把批准记录与未批准草稿映射成平面导出行
// 同键同时存在批准版和草稿版时只导出批准版
func buildExportRows(approved []models.ApprovedContent, planned []models.PlannedContent) []models.ExportRow {
	rows := make([]models.ExportRow, 0, len(approved)+len(planned))
	approvedKeys := make(map[string]bool, len(approved))

	for _, item := range approved {
		approvedKeys[item.ID] = true
		rows = append(rows, models.ExportRow{
			Date:     item.Date,
			Type:     string(item.Type),
			Status:   "Aprovado",
			Strategy: item.Strategy,
			Content:  item.Text,
		})
	}

	for _, plan := range planned {
		if approvedKeys[plan.ID] {
			continue
		}
		content := plan.ManualContent
		if content == "" {
			content = plan.Focus
		}
		rows = append(rows, models.ExportRow{
			Date:     plan.Date,
			Type:     string(plan.Type),
			Status:   "Planejado",
			Strategy: strings.Join(plan.SelectedIngredients, ", "),
			Content:  content,
		})
	}
	return rows
}

// formatAsCSV 分号分隔的CSV，带BOM，字段按需转义
// 巴西区域设置的 Excel 用分号而不是逗号做列分隔
func (s *ExportService) formatAsCSV(rows []models.ExportRow) string {
	var b strings.Builder

	b.WriteString(csvBOM)
	b.WriteString("Data;Tipo;Status;Estratégia;Conteúdo\n")

	for _, row := range rows {
		fields := []string{row.Date, row.Type, row.Status, row.Strategy, row.Content}
		for i, field := range fields {
			if i > 0 {
				b.WriteByte(';')
			}
			b.WriteString(escapeCSVField(field))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// escapeCSVField 含分隔符、引号或换行的字段加引号，内部引号翻倍
func escapeCSVField(field string) string {
	if strings.ContainsAny(field, ";\"\n\r") {
		return "\"" + strings.ReplaceAll(field, "\"", "\"\"") + "\""
	}
	return field
}

// formatAsHTML 可打印的HTML报表
func (s *ExportService) formatAsHTML(rows []models.ExportRow) string {
	var b strings.Builder

	b.WriteString(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="UTF-8">
<title>Plano de Conteúdo Aprovado</title>
<style>
  body { font-family: Arial, sans-serif; margin: 24px; color: #222; }
  h1 { font-size: 20px; }
  table { border-collapse: collapse; width: 100%; }
  th, td { border: 1px solid #999; padding: 8px; text-align: left; vertical-align: top; }
  th { background: #f3e8ff; }
  td.content { white-space: pre-wrap; }
  @media print { body { margin: 0; } }
</style>
</head>
<body>
<h1>Plano de Conteúdo Aprovado</h1>
`)
	b.WriteString(fmt.Sprintf("<p>Gerado em %s · %d itens</p>\n", time.Now().Format("02/01/2006 15:04"), len(rows)))
	b.WriteString("<table>\n<tr><th>Data</th><th>Tipo</th><th>Status</th><th>Estratégia</th><th>Conteúdo</th></tr>\n")

	for _, row := range rows {
		b.WriteString("<tr>")
		b.WriteString("<td>" + html.EscapeString(row.Date) + "</td>")
		b.WriteString("<td>" + html.EscapeString(row.Type) + "</td>")
		b.WriteString("<td>" + html.EscapeString(row.Status) + "</td>")
		b.WriteString("<td>" + html.EscapeString(row.Strategy) + "</td>")
		b.WriteString("<td class=\"content\">" + html.EscapeString(row.Content) + "</td>")
		b.WriteString("</tr>\n")
	}

	b.WriteString("</table>\n</body>\n</html>\n")
	return b.String()
}

// formatAsJSON JSON格式导出
func (s *ExportService) formatAsJSON(rows []models.ExportRow) (string, error) {
	exportData := map[string]interface{}{
		"rows": rows,
		"export_info": map[string]interface{}{
			"generated_at": time.Now().Format("2006-01-02 15:04:05"),
			"format":       "json",
			"row_count":    len(rows),
		},
	}

	jsonData, err := json.MarshalIndent(exportData, "", "  ")
	if err != nil {
		return "", fmt.Errorf("JSON序列化失败: %w", err)
	}
	return string(jsonData), nil
}

// saveExportToDir 写入导出目录并返回路径与大小
func (s *ExportService) saveExportToDir(result *models.ExportResult) (string, int64, error) {
	if err := os.MkdirAll(s.ExportDir, 0755); err != nil {
		return "", 0, fmt.Errorf("创建导出目录失败: %w", err)
	}

	timestamp := result.GeneratedAt.Format("20060102_150405")
	fileName := fmt.Sprintf("plano_conteudo_%s.%s", timestamp, result.Format)
	filePath := filepath.Join(s.ExportDir, fileName)

	if err := os.WriteFile(filePath, []byte(result.Content), 0644); err != nil {
		return "", 0, fmt.Errorf("写入导出文件失败: %w", err)
	}

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return "", 0, fmt.Errorf("获取文件信息失败: %w", err)
	}
	return filePath, fileInfo.Size(), nil
}

// contains 检查字符串切片是否包含指定值
func contains(slice []string, value string) bool {
	for _, item := range slice {
		if item == value {
			return true
		}
	}
	return false
}
