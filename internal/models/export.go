// internal/models/export.go
package models

import (
	"time"
)

// ExportRow 导出表格中的一行，列顺序 Data;Tipo;Status;Estratégia;Conteúdo
type ExportRow struct {
	Date     string `json:"date"`
	Type     string `json:"type"`
	Status   string `json:"status"`
	Strategy string `json:"strategy"`
	Content  string `json:"content"`
}

// ExportResult 导出结果
type ExportResult struct {
	Format      string    `json:"format"` // csv / html
	Content     string    `json:"content"`
	FilePath    string    `json:"file_path,omitempty"`
	FileSize    int64     `json:"file_size,omitempty"`
	RowCount    int       `json:"row_count"`
	GeneratedAt time.Time `json:"generated_at"`
}
