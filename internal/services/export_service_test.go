// internal/services/export_service_test.go
package services

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/RomaLabs/RomaPlanner/internal/models"
)

func newTestExporter(t *testing.T) (*ExportService, *PlannerService) {
	t.Helper()
	planner := newTestPlanner(t)
	return NewExportService(planner, t.TempDir()), planner
}

func seedApproved(t *testing.T, planner *PlannerService, items ...models.ApprovedContent) {
	t.Helper()
	for _, item := range items {
		if _, err := planner.ApproveContent(item); err != nil {
			t.Fatalf("准备批准内容失败: %v", err)
		}
	}
}

func TestExportApprovedContent_UnsupportedFormat(t *testing.T) {
	svc, _ := newTestExporter(t)

	for _, format := range []string{"pdf", "xlsx", ""} {
		if _, err := svc.ExportApprovedContent(format); err == nil {
			t.Errorf("格式 %q 应被拒绝", format)
		}
	}
}

func TestExportCSV_BOMAndHeader(t *testing.T) {
	svc, planner := newTestExporter(t)
	seedApproved(t, planner, models.ApprovedContent{
		Date:     "2024-03-01",
		Type:     models.ContentStories,
		Text:     "bom dia",
		Strategy: "dor-capilar",
	})

	result, err := svc.ExportApprovedContent("csv")
	if err != nil {
		t.Fatalf("导出CSV失败: %v", err)
	}
	if !strings.HasPrefix(result.Content, "\uFEFF") {
		t.Error("CSV应以UTF-8 BOM开头")
	}
	lines := strings.Split(strings.TrimPrefix(result.Content, "\uFEFF"), "\n")
	if lines[0] != "Data;Tipo;Status;Estratégia;Conteúdo" {
		t.Errorf("表头 = %q", lines[0])
	}
	if lines[1] != "2024-03-01;stories;Aprovado;dor-capilar;bom dia" {
		t.Errorf("数据行 = %q", lines[1])
	}
	if result.RowCount != 1 {
		t.Errorf("RowCount = %d, 期望 1", result.RowCount)
	}
}

func TestExportCSV_FieldEscaping(t *testing.T) {
	svc, planner := newTestExporter(t)
	seedApproved(t, planner, models.ApprovedContent{
		Date:     "2024-03-01",
		Type:     models.ContentPost,
		Text:     "linha um\nlinha dois; com \"aspas\"",
		Strategy: "objeção;preço",
	})

	result, err := svc.ExportApprovedContent("csv")
	if err != nil {
		t.Fatalf("导出CSV失败: %v", err)
	}
	if !strings.Contains(result.Content, `"objeção;preço"`) {
		t.Error("含分隔符的字段应加引号")
	}
	if !strings.Contains(result.Content, `"linha um`) {
		t.Error("含换行的字段应加引号")
	}
	if !strings.Contains(result.Content, `""aspas""`) {
		t.Error("字段内引号应翻倍")
	}
}

func TestExportHTML_EscapesContent(t *testing.T) {
	svc, planner := newTestExporter(t)
	seedApproved(t, planner, models.ApprovedContent{
		Date: "2024-03-01",
		Type: models.ContentFeed,
		Text: "<script>alert('x')</script>",
	})

	result, err := svc.ExportApprovedContent("html")
	if err != nil {
		t.Fatalf("导出HTML失败: %v", err)
	}
	if strings.Contains(result.Content, "<script>alert") {
		t.Error("HTML输出不应包含未转义的脚本标签")
	}
	if !strings.Contains(result.Content, "&lt;script&gt;") {
		t.Error("内容应被HTML转义")
	}
	if !strings.Contains(result.Content, "Plano de Conteúdo Aprovado") {
		t.Error("缺少报表标题")
	}
}

func TestExportJSON_Shape(t *testing.T) {
	svc, planner := newTestExporter(t)
	seedApproved(t, planner,
		models.ApprovedContent{Date: "2024-03-01", Type: models.ContentStories, Text: "a"},
		models.ApprovedContent{Date: "2024-03-02", Type: models.ContentPost, Text: "b"},
	)

	result, err := svc.ExportApprovedContent("json")
	if err != nil {
		t.Fatalf("导出JSON失败: %v", err)
	}

	var payload struct {
		Rows       []models.ExportRow `json:"rows"`
		ExportInfo struct {
			Format   string `json:"format"`
			RowCount int    `json:"row_count"`
		} `json:"export_info"`
	}
	if err := json.Unmarshal([]byte(result.Content), &payload); err != nil {
		t.Fatalf("JSON输出不可解析: %v", err)
	}
	if len(payload.Rows) != 2 || payload.ExportInfo.RowCount != 2 {
		t.Errorf("行数 = %d / %d, 期望 2", len(payload.Rows), payload.ExportInfo.RowCount)
	}
	if payload.ExportInfo.Format != "json" {
		t.Errorf("格式 = %q, 期望 json", payload.ExportInfo.Format)
	}
	if payload.Rows[0].Status != "Aprovado" {
		t.Errorf("Status = %q, 期望 Aprovado", payload.Rows[0].Status)
	}
}

func TestExport_WritesFileToExportDir(t *testing.T) {
	svc, planner := newTestExporter(t)
	seedApproved(t, planner, models.ApprovedContent{
		Date: "2024-03-01",
		Type: models.ContentPost,
		Text: "conteúdo",
	})

	result, err := svc.ExportApprovedContent("csv")
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if result.FilePath == "" {
		t.Fatal("FilePath不应为空")
	}
	info, err := os.Stat(result.FilePath)
	if err != nil {
		t.Fatalf("导出文件未落盘: %v", err)
	}
	if info.Size() != result.FileSize {
		t.Errorf("FileSize = %d, 磁盘实际 %d", result.FileSize, info.Size())
	}
	if !strings.HasSuffix(result.FilePath, ".csv") {
		t.Errorf("文件名 = %q, 期望 .csv 后缀", result.FilePath)
	}
}

// 草稿也进导出，但同键的批准版优先
func TestExport_IncludesPlannedRows(t *testing.T) {
	svc, planner := newTestExporter(t)
	seedApproved(t, planner, models.ApprovedContent{
		Date: "2024-03-01",
		Type: models.ContentStories,
		Text: "versão aprovada",
	})

	plans := []models.PlannedContent{
		{Date: "2024-03-01", Type: models.ContentStories, Focus: "rascunho do mesmo dia"},
		{Date: "2024-03-02", Type: models.ContentPost, Focus: "só planejado", SelectedIngredients: []string{"1", "16"}},
		{Date: "2024-03-03", Type: models.ContentFeed, Focus: "foco", ManualContent: "texto manual vence o foco"},
	}
	for _, plan := range plans {
		if _, err := planner.SavePlan(plan); err != nil {
			t.Fatalf("保存草稿失败: %v", err)
		}
	}

	result, err := svc.ExportApprovedContent("csv")
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if result.RowCount != 3 {
		t.Fatalf("RowCount = %d, 期望 3 (批准版吞掉同键草稿)", result.RowCount)
	}
	if !strings.Contains(result.Content, "Planejado") {
		t.Error("导出应包含草稿状态行")
	}
	if strings.Contains(result.Content, "rascunho do mesmo dia") {
		t.Error("同键草稿不应与批准版并存")
	}
	if !strings.Contains(result.Content, `"1, 16"`) && !strings.Contains(result.Content, "1, 16") {
		t.Error("草稿行应携带所选策略ID")
	}
	if !strings.Contains(result.Content, "texto manual vence o foco") {
		t.Error("有手工文本时导出手工文本")
	}
}

func TestExport_EmptyDataStillSucceeds(t *testing.T) {
	svc, _ := newTestExporter(t)

	result, err := svc.ExportApprovedContent("json")
	if err != nil {
		t.Fatalf("空数据导出失败: %v", err)
	}
	if result.RowCount != 0 {
		t.Errorf("RowCount = %d, 期望 0", result.RowCount)
	}
}
