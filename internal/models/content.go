// internal/models/content.go
package models

// ContentType 日历单元格的内容类型
type ContentType string

const (
	ContentKitType  ContentType = "kit"
	ContentStories  ContentType = "stories"
	ContentSocial   ContentType = "social"
	ContentLive     ContentType = "live"
	ContentPost     ContentType = "post"
	ContentFeed     ContentType = "feed"
	ContentLegenda  ContentType = "legenda"
	ContentRoteiro  ContentType = "roteiro"
	ContentCarousel ContentType = "carousel"
	ContentEmail    ContentType = "email"
	ContentHeadline ContentType = "headline"
	ContentHashtags ContentType = "hashtags"
	ContentViral    ContentType = "viral"
)

// ContentKey 持久化复合键 "<ISO日期>-<类型>"
// 同键覆盖写入，后写胜出
func ContentKey(date string, contentType ContentType) string {
	return date + "-" + string(contentType)
}

// CalendarContext 生成内容时携带的日历上下文
type CalendarContext struct {
	Date            string      `json:"date"` // YYYY-MM-DD
	DayOfWeek       string      `json:"day_of_week"`
	ContentType     ContentType `json:"content_type"`
	Focus           string      `json:"focus"`
	Strategy        string      `json:"strategy"`
	Adjustments     string      `json:"adjustments,omitempty"`
	ManualContent   string      `json:"manual_content,omitempty"`
	SelectedFormats []string    `json:"selected_formats,omitempty"`
}

// PlannedContent 日历上用户保存的内容草稿
type PlannedContent struct {
	ID                  string      `json:"id"` // date-type
	Date                string      `json:"date"`
	Type                ContentType `json:"type"`
	Focus               string      `json:"focus"`
	SelectedIngredients []string    `json:"selected_ingredients"`
	Adjustments         string      `json:"adjustments"`
	ManualContent       string      `json:"manual_content,omitempty"`
	CarouselImages      []string    `json:"carousel_images,omitempty"`
	SelectedFormats     []string    `json:"selected_formats,omitempty"`
}

// ApprovedContent 用户批准后的最终内容
type ApprovedContent struct {
	ID             string      `json:"id"` // date-type
	Date           string      `json:"date"`
	Type           ContentType `json:"type"`
	Text           string      `json:"text"`
	ImageURL       string      `json:"image_url,omitempty"`
	CarouselImages []string    `json:"carousel_images,omitempty"`
	Strategy       string      `json:"strategy"`
	Timestamp      int64       `json:"timestamp"`
}

// HistoryItem 生成历史记录条目
type HistoryItem struct {
	ID                 string      `json:"id"`
	Timestamp          int64       `json:"timestamp"`
	Type               ContentType `json:"type"`
	Content            string      `json:"content"`
	IngredientsSummary []string    `json:"ingredients_summary"`
	ImageURL           string      `json:"image_url,omitempty"`
}
