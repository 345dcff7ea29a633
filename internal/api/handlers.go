// internal/api/handlers.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/RomaLabs/RomaPlanner/internal/config"
	"github.com/RomaLabs/RomaPlanner/internal/di"
	apperrors "github.com/RomaLabs/RomaPlanner/internal/errors"
	"github.com/RomaLabs/RomaPlanner/internal/llm"
	"github.com/RomaLabs/RomaPlanner/internal/models"
	"github.com/RomaLabs/RomaPlanner/internal/services"
	"github.com/RomaLabs/RomaPlanner/internal/utils"
	"github.com/gin-gonic/gin"
)

// Handler 处理API请求
type Handler struct {
	// 核心服务
	KitService       *services.KitService      // 内容套件服务
	VisualService    *services.VisualService   // 配图服务
	VideoService     *services.VideoService    // 视频服务
	PlannerService   *services.PlannerService  // 排期服务
	StrategyService  *services.StrategyService // 策略目录服务
	ExportService    *services.ExportService   // 导出服务
	UserService      *services.UserService     // 用户服务
	ConfigService    *services.ConfigService   // 配置服务
	StatsService     *services.StatsService    // 统计服务
	ProgressService  *services.ProgressService // 进度跟踪服务
	Metrics          *utils.APIMetrics         // 共享指标实例
	WebSocketHandler *WebSocketHandler         // WebSocket 处理器
	Response         *ResponseHelper           // 响应助手
}

// NewHandler 创建API处理器
func NewHandler(
	kitService *services.KitService,
	visualService *services.VisualService,
	videoService *services.VideoService,
	plannerService *services.PlannerService,
	strategyService *services.StrategyService,
	exportService *services.ExportService,
	userService *services.UserService,
	configService *services.ConfigService,
	statsService *services.StatsService,
	progressService *services.ProgressService,
	metrics *utils.APIMetrics,
) *Handler {
	return &Handler{
		KitService:       kitService,
		VisualService:    visualService,
		VideoService:     videoService,
		PlannerService:   plannerService,
		StrategyService:  strategyService,
		ExportService:    exportService,
		UserService:      userService,
		ConfigService:    configService,
		StatsService:     statsService,
		ProgressService:  progressService,
		Metrics:          metrics,
		WebSocketHandler: NewWebSocketHandler(),
		Response:         NewResponseHelper(),
	}
}

// APIResponse 标准API响应格式
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"` // 用于调试和追踪
}

// APIError 标准错误格式
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// PaginationMeta 分页元数据
type PaginationMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// PaginatedResponse 带分页的响应
type PaginatedResponse struct {
	*APIResponse
	Meta *PaginationMeta `json:"meta,omitempty"`
}

// respondServiceError 按错误分类映射HTTP状态码
func (h *Handler) respondServiceError(c *gin.Context, err error) {
	switch {
	case apperrors.IsNotFoundError(err):
		h.Response.Error(c, http.StatusNotFound, ErrorNotFound, err.Error())
	case apperrors.IsValidationError(err):
		h.Response.BadRequest(c, err.Error())
	case apperrors.IsEmptyExtractionError(err):
		h.Response.Error(c, http.StatusUnprocessableEntity, ErrorEmptyExtraction, err.Error())
	case apperrors.IsInvalidReferenceError(err):
		h.Response.Error(c, http.StatusBadRequest, ErrorInvalidReference, err.Error())
	case apperrors.IsUpstreamFailureError(err):
		h.Response.Error(c, http.StatusBadGateway, ErrorUpstreamFailure, err.Error())
	case apperrors.IsUnauthorizedError(err):
		h.Response.Unauthorized(c, err.Error())
	case strings.Contains(err.Error(), "不存在"):
		h.Response.Error(c, http.StatusNotFound, ErrorNotFound, err.Error())
	default:
		h.Response.InternalError(c, "请求处理失败", err.Error())
	}
}

// parseSlotParams 解析 :section/:index 路由参数
func (h *Handler) parseSlotParams(c *gin.Context) (int, int, bool) {
	sectionIndex, err := strconv.Atoi(c.Param("section"))
	if err != nil || sectionIndex < 1 {
		h.Response.BadRequest(c, "无效的区块序号", c.Param("section"))
		return 0, 0, false
	}
	slotIndex, err := strconv.Atoi(c.Param("index"))
	if err != nil || slotIndex < 1 {
		h.Response.BadRequest(c, "无效的槽位序号", c.Param("index"))
		return 0, 0, false
	}
	return sectionIndex, slotIndex, true
}

// requireDate 校验日期参数（查询串或请求体字段）
func (h *Handler) requireDate(c *gin.Context, date string) bool {
	if date == "" {
		h.Response.BadRequest(c, "缺少日期参数")
		return false
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		h.Response.BadRequest(c, "日期格式无效，应为 YYYY-MM-DD", date)
		return false
	}
	return true
}

// ========================================
// 登录与会话
// ========================================

// Login 学员登录，成功时签发会话令牌
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "无效的请求参数", err.Error())
		return
	}

	session, err := h.UserService.Login(req.Email, req.Password)
	if err != nil {
		h.Response.Error(c, http.StatusUnauthorized, ErrorLoginFailed, "登录失败", err.Error())
		return
	}

	h.Metrics.RecordUserAction(session.UserName, "login")
	h.Response.Success(c, session, "登录成功")
}

// Logout 清除会话标志
func (h *Handler) Logout(c *gin.Context) {
	if err := h.UserService.Logout(); err != nil {
		h.Response.InternalError(c, "登出失败", err.Error())
		return
	}
	h.Metrics.RecordUserAction("session", "logout")
	h.Response.Success(c, nil, "已登出")
}

// GetSessionInfo 返回当前会话的显示名
func (h *Handler) GetSessionInfo(c *gin.Context) {
	userID, authenticated := GetUserFromContext(c)
	h.Response.Success(c, gin.H{
		"user_id":       userID,
		"authenticated": authenticated,
		"user_name":     h.UserService.CurrentUserName(),
	})
}

// ========================================
// 策略目录
// ========================================

// GetStrategies 按分类与自由文本检索策略行
func (h *Handler) GetStrategies(c *gin.Context) {
	category := c.Query("category")
	query := c.Query("q")

	items := h.StrategyService.SearchItems(category, query)

	h.Response.Success(c, gin.H{
		"items": items,
		"count": len(items),
	})
}

// GetSchedules 返回全部周计划模板名称
func (h *Handler) GetSchedules(c *gin.Context) {
	h.Response.Success(c, gin.H{"schedules": h.StrategyService.ListSchedules()})
}

// GetSchedule 按名称取周计划模板
func (h *Handler) GetSchedule(c *gin.Context) {
	name := c.Param("name")

	schedule, err := h.StrategyService.GetSchedule(name)
	if err != nil {
		h.Response.NotFound(c, "周计划模板", err.Error())
		return
	}

	h.Response.Success(c, schedule)
}

// GetBooks 返回灵感书单
func (h *Handler) GetBooks(c *gin.Context) {
	h.Response.Success(c, gin.H{"books": h.StrategyService.ListBooks()})
}

// ========================================
// 排期草稿
// ========================================

// ListPlans 返回全部草稿
func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.PlannerService.ListPlans()
	if err != nil {
		h.Response.InternalError(c, "读取草稿失败", err.Error())
		return
	}
	h.Response.Success(c, gin.H{"plans": plans, "count": len(plans)})
}

// SavePlan 保存或覆盖草稿，同键后写胜出
func (h *Handler) SavePlan(c *gin.Context) {
	var plan models.PlannedContent
	if err := c.ShouldBindJSON(&plan); err != nil {
		h.Response.BadRequest(c, "无效的请求参数", err.Error())
		return
	}

	if !h.requireDate(c, plan.Date) {
		return
	}

	saved, err := h.PlannerService.SavePlan(plan)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.Response.Success(c, saved, "草稿已保存")
}

// GetPlan 按日期+类型取草稿
func (h *Handler) GetPlan(c *gin.Context) {
	date := c.Query("date")
	contentType := c.Query("type")
	if !h.requireDate(c, date) {
		return
	}
	if contentType == "" {
		h.Response.BadRequest(c, "缺少内容类型参数")
		return
	}

	plan, err := h.PlannerService.GetPlan(date, models.ContentType(contentType))
	if err != nil {
		h.Response.NotFound(c, "排期", err.Error())
		return
	}

	h.Response.Success(c, plan)
}

// DeletePlan 删除草稿
func (h *Handler) DeletePlan(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		h.Response.BadRequest(c, "缺少草稿ID")
		return
	}

	if err := h.PlannerService.DeletePlan(id); err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.Response.Success(c, nil, "草稿已删除")
}

// ========================================
// 已批准内容
// ========================================

// ListApproved 返回全部已批准内容
func (h *Handler) ListApproved(c *gin.Context) {
	approved, err := h.PlannerService.ListApproved()
	if err != nil {
		h.Response.InternalError(c, "读取批准内容失败", err.Error())
		return
	}
	h.Response.Success(c, gin.H{"approved": approved, "count": len(approved)})
}

// ApproveContent 批准内容，同键覆盖写入
func (h *Handler) ApproveContent(c *gin.Context) {
	var content models.ApprovedContent
	if err := c.ShouldBindJSON(&content); err != nil {
		h.Response.BadRequest(c, "无效的请求参数", err.Error())
		return
	}

	if !h.requireDate(c, content.Date) {
		return
	}

	saved, err := h.PlannerService.ApproveContent(content)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.Response.Created(c, saved, "内容已批准")
}

// DeleteApproved 删除已批准内容
func (h *Handler) DeleteApproved(c *gin.Context) {
	date := c.Query("date")
	contentType := c.Query("type")
	if !h.requireDate(c, date) {
		return
	}
	if contentType == "" {
		h.Response.BadRequest(c, "缺少内容类型参数")
		return
	}

	if err := h.PlannerService.DeleteApproved(date, models.ContentType(contentType)); err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.Response.Success(c, nil, "批准内容已删除")
}

// GetPlannerReport 返回批准内容统计报表
func (h *Handler) GetPlannerReport(c *gin.Context) {
	report, err := h.PlannerService.BuildReport()
	if err != nil {
		h.Response.InternalError(c, "生成报表失败", err.Error())
		return
	}
	h.Response.Success(c, report)
}

// ========================================
// 内容套件
// ========================================

// GenerateKitRequest 生成内容套件的请求结构
type GenerateKitRequest struct {
	Date            string   `json:"date" binding:"required"`     // YYYY-MM-DD
	DayOfWeek       string   `json:"day_of_week"`                 // 星期几，用于提示词上下文
	ContentType     string   `json:"content_type"`                // 日历单元格类型
	Focus           string   `json:"focus"`                       // 当日主题
	Strategy        string   `json:"strategy"`                    // 策略摘要
	Adjustments     string   `json:"adjustments"`                 // 用户追加的调整说明
	ManualContent   string   `json:"manual_content"`              // 手写草稿
	SelectedFormats []string `json:"selected_formats"`            // 期望的内容格式
	StrategyIDs     []string `json:"strategy_ids"`                // 选中的策略行ID
}

// GenerateKit 生成当日完整内容套件并切分区块
func (h *Handler) GenerateKit(c *gin.Context) {
	var req GenerateKitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "无效的请求参数", err.Error())
		return
	}
	if !h.requireDate(c, req.Date) {
		return
	}

	calendarCtx := models.CalendarContext{
		Date:            req.Date,
		DayOfWeek:       req.DayOfWeek,
		ContentType:     models.ContentType(req.ContentType),
		Focus:           req.Focus,
		Strategy:        req.Strategy,
		Adjustments:     req.Adjustments,
		ManualContent:   req.ManualContent,
		SelectedFormats: req.SelectedFormats,
	}

	// 文本生成可能较慢，给足超时
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Minute)
	defer cancel()

	contentKit, err := h.KitService.GenerateKit(ctx, calendarCtx, req.StrategyIDs)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			h.Response.Error(c, http.StatusRequestTimeout, ErrorKitGenerateFailed,
				"生成超时", "请稍后重试")
			return
		}
		h.respondServiceError(c, err)
		return
	}

	h.Response.Created(c, contentKit, "内容套件生成成功")
}

// GetKit 取某日期的内容套件
func (h *Handler) GetKit(c *gin.Context) {
	date := c.Param("date")
	if !h.requireDate(c, date) {
		return
	}

	contentKit, err := h.KitService.GetKit(date)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.Response.Success(c, contentKit)
}

// ResegmentKit 对保存的原始文本重新切分区块
// 手工覆盖的槽位不受影响
func (h *Handler) ResegmentKit(c *gin.Context) {
	date := c.Param("date")
	if !h.requireDate(c, date) {
		return
	}

	contentKit, err := h.KitService.ResegmentKit(date)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.Response.Success(c, contentKit, "重新切分完成")
}

// GetKitSections 取套件的区块列表
func (h *Handler) GetKitSections(c *gin.Context) {
	date := c.Param("date")
	if !h.requireDate(c, date) {
		return
	}

	contentKit, err := h.KitService.GetKit(date)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.Response.Success(c, gin.H{
		"date":     contentKit.Date,
		"sections": contentKit.Sections,
		"count":    len(contentKit.Sections),
	})
}

// GetSectionSlots 取区块的全部槽位提示词
func (h *Handler) GetSectionSlots(c *gin.Context) {
	date := c.Query("date")
	if !h.requireDate(c, date) {
		return
	}
	sectionIndex, err := strconv.Atoi(c.Param("section"))
	if err != nil || sectionIndex < 1 {
		h.Response.BadRequest(c, "无效的区块序号", c.Param("section"))
		return
	}

	slots, err := h.KitService.GetSectionSlots(date, sectionIndex)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.Response.Success(c, gin.H{"slots": slots, "count": len(slots)})
}

// ========================================
// 槽位提示词
// ========================================

// GetSlotPrompt 取单个槽位的提示词，手工覆盖优先
func (h *Handler) GetSlotPrompt(c *gin.Context) {
	date := c.Query("date")
	if !h.requireDate(c, date) {
		return
	}
	sectionIndex, slotIndex, ok := h.parseSlotParams(c)
	if !ok {
		return
	}

	slot, err := h.KitService.GetSlotPrompt(date, sectionIndex, slotIndex)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.Response.Success(c, slot)
}

// OverrideSlotPrompt 手工覆盖槽位提示词
func (h *Handler) OverrideSlotPrompt(c *gin.Context) {
	sectionIndex, slotIndex, ok := h.parseSlotParams(c)
	if !ok {
		return
	}

	var req struct {
		Date string `json:"date" binding:"required"`
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "无效的请求参数", err.Error())
		return
	}
	if !h.requireDate(c, req.Date) {
		return
	}

	slot, err := h.KitService.OverrideSlot(req.Date, sectionIndex, slotIndex, req.Text)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.Response.Success(c, slot, "槽位提示词已覆盖")
}

// ResetSlotPrompt 清除槽位的手工覆盖，恢复自动提取
func (h *Handler) ResetSlotPrompt(c *gin.Context) {
	date := c.Query("date")
	if !h.requireDate(c, date) {
		return
	}
	sectionIndex, slotIndex, ok := h.parseSlotParams(c)
	if !ok {
		return
	}

	if err := h.KitService.ResetSlot(date, sectionIndex, slotIndex); err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.Response.Success(c, nil, "槽位提示词已恢复自动提取")
}

// ========================================
// 配图生成
// ========================================

// GenerateSlotImage 为单个槽位生成配图
// 坏参考图跳过并在响应里列出，不阻止生成
func (h *Handler) GenerateSlotImage(c *gin.Context) {
	sectionIndex, slotIndex, ok := h.parseSlotParams(c)
	if !ok {
		return
	}

	var req struct {
		Date       string   `json:"date" binding:"required"`
		References []string `json:"references"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "无效的请求参数", err.Error())
		return
	}
	if !h.requireDate(c, req.Date) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()

	asset, skipped, err := h.VisualService.GenerateSlotImage(ctx, req.Date, sectionIndex, slotIndex, req.References)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	skippedMessages := make([]string, 0, len(skipped))
	for _, skipErr := range skipped {
		skippedMessages = append(skippedMessages, skipErr.Error())
	}

	h.Response.Created(c, gin.H{
		"asset":              asset,
		"skipped_references": skippedMessages,
	}, "配图生成成功")
}

// BatchGenerateImages 对区块的全部槽位并发生成配图
// 异步执行，返回任务ID供WebSocket订阅进度
func (h *Handler) BatchGenerateImages(c *gin.Context) {
	var req struct {
		Date       string   `json:"date" binding:"required"`
		Section    int      `json:"section" binding:"required"`
		References []string `json:"references"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "无效的请求参数", err.Error())
		return
	}
	if !h.requireDate(c, req.Date) {
		return
	}
	if req.Section < 1 {
		h.Response.BadRequest(c, "无效的区块序号")
		return
	}

	// 创建唯一任务ID
	taskID := fmt.Sprintf("batch_%d", time.Now().UnixNano())

	// 启动后台批量生成
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if _, err := h.VisualService.BatchGenerateImages(ctx, req.Date, req.Section, req.References, taskID); err != nil {
			if tracker, exists := h.ProgressService.GetTracker(taskID); exists {
				tracker.Fail(err.Error())
			}
		}
	}()

	h.Response.Accepted(c, gin.H{
		"task_id": taskID,
	}, "批量配图已开始，请订阅进度更新")
}

// GetAssets 取某日期的全部已生成资产
func (h *Handler) GetAssets(c *gin.Context) {
	date := c.Query("date")
	if !h.requireDate(c, date) {
		return
	}

	assets, err := h.VisualService.GetAssets(date)
	if err != nil {
		h.Response.InternalError(c, "读取资产失败", err.Error())
		return
	}

	h.Response.Success(c, gin.H{"assets": assets, "count": len(assets)})
}

// DeleteSlotAsset 删除槽位的已生成资产
// 资产只会被用户显式删除，绝不隐式清理
func (h *Handler) DeleteSlotAsset(c *gin.Context) {
	date := c.Query("date")
	if !h.requireDate(c, date) {
		return
	}
	sectionIndex, slotIndex, ok := h.parseSlotParams(c)
	if !ok {
		return
	}

	if err := h.VisualService.DeleteSlotAsset(date, sectionIndex, slotIndex); err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.Response.Success(c, nil, "资产已删除")
}

// ========================================
// 视频生成
// ========================================

// StartVideoJob 提交视频生成任务
// 轮询在后台进行，通过任务ID查询状态或订阅进度
func (h *Handler) StartVideoJob(c *gin.Context) {
	sectionIndex, slotIndex, ok := h.parseSlotParams(c)
	if !ok {
		return
	}

	var req struct {
		Date      string `json:"date" binding:"required"`
		SeedImage string `json:"seed_image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "无效的请求参数", err.Error())
		return
	}
	if !h.requireDate(c, req.Date) {
		return
	}

	// 轮询要活过本次请求，用独立context
	job, err := h.VideoService.StartVideoJob(context.Background(), req.Date, sectionIndex, slotIndex, req.SeedImage)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.Response.Accepted(c, job, "视频任务已提交")
}

// GetVideoJob 查询视频任务状态
func (h *Handler) GetVideoJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if jobID == "" {
		h.Response.BadRequest(c, "缺少任务ID")
		return
	}

	job, err := h.VideoService.GetJob(jobID)
	if err != nil {
		h.Response.NotFound(c, "视频任务", err.Error())
		return
	}

	h.Response.Success(c, job)
}

// ListVideoJobs 列出某日期的视频任务
func (h *Handler) ListVideoJobs(c *gin.Context) {
	date := c.Query("date")
	if !h.requireDate(c, date) {
		return
	}

	jobs := h.VideoService.ListJobs(date)
	h.Response.Success(c, gin.H{"jobs": jobs, "count": len(jobs)})
}

// ========================================
// 导出功能
// ========================================

// ExportContent 导出批准与排期内容
func (h *Handler) ExportContent(c *gin.Context) {
	format := strings.ToLower(c.Param("format"))

	supportedFormats := []string{"csv", "html", "json"}
	if !contains(supportedFormats, format) {
		h.Response.Error(c, http.StatusBadRequest, ErrorExportFormatInvalid,
			"不支持的导出格式", fmt.Sprintf("支持的格式: %v", supportedFormats))
		return
	}

	result, err := h.ExportService.ExportApprovedContent(format)
	if err != nil {
		h.Response.Error(c, http.StatusInternalServerError, ErrorExportFailed,
			"导出失败", err.Error())
		return
	}

	if result == nil || result.Content == "" {
		h.Response.Error(c, http.StatusNotFound, ErrorExportDataEmpty,
			"没有可导出的数据", "还没有批准或排期的内容")
		return
	}

	h.Response.ExportResponse(c, result, format)
}

// ========================================
// 统计
// ========================================

// GetStats 返回使用统计与内容报表
func (h *Handler) GetStats(c *gin.Context) {
	usage := h.StatsService.GetUsageStats()

	report, err := h.PlannerService.BuildReport()
	if err != nil {
		h.Response.InternalError(c, "生成报表失败", err.Error())
		return
	}

	h.Response.Success(c, gin.H{
		"usage":   usage,
		"report":  report,
		"metrics": h.Metrics.Snapshot(),
	})
}

// ResetStats 清零使用统计
func (h *Handler) ResetStats(c *gin.Context) {
	if err := h.StatsService.ResetStats(); err != nil {
		h.Response.InternalError(c, "重置统计失败", err.Error())
		return
	}
	h.Response.Success(c, nil, "统计已重置")
}

// ========================================
// 设置与LLM配置
// ========================================

// GetSettings 返回当前设置
func (h *Handler) GetSettings(c *gin.Context) {
	cfg := config.GetCurrentConfig()

	llmConfig := make(map[string]interface{})
	if cfg.LLMConfig != nil {
		llmConfig["text_model"] = cfg.LLMConfig["text_model"]
		llmConfig["image_model"] = cfg.LLMConfig["image_model"]
		llmConfig["video_model"] = cfg.LLMConfig["video_model"]
		llmConfig["has_api_key"] = cfg.LLMConfig["api_key"] != ""
	}

	data := map[string]interface{}{
		"llm_provider":       cfg.LLMProvider,
		"debug_mode":         cfg.DebugMode,
		"port":               cfg.Port,
		"video_poll_seconds": cfg.VideoPollSeconds,
		"llm_config":         llmConfig,
	}

	h.Response.Success(c, data, "设置获取成功")
}

// SaveSettings 保存设置
func (h *Handler) SaveSettings(c *gin.Context) {
	var request struct {
		LLMProvider string            `json:"llm_provider"`
		LLMConfig   map[string]string `json:"llm_config"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		h.Response.BadRequest(c, "无效的请求数据", err.Error())
		return
	}

	// 保存LLM配置
	if request.LLMProvider != "" && request.LLMConfig != nil {
		err := h.ConfigService.UpdateLLMConfig(request.LLMProvider, request.LLMConfig, "web_ui")
		if err != nil {
			h.Response.InternalError(c, "保存LLM配置失败", err.Error())
			return
		}
	}

	h.Response.Success(c, nil, "设置保存成功")
}

// TestConnection 测试LLM连通性
func (h *Handler) TestConnection(c *gin.Context) {
	container := di.GetContainer()
	llmService, ok := container.Get("llm").(*services.LLMService)
	if !ok {
		h.Response.InternalError(c, "无法获取LLM服务实例")
		return
	}

	if !llmService.IsReady() {
		h.Response.Error(c, http.StatusServiceUnavailable, ErrorConnectionFailed,
			"LLM服务未就绪", "请先配置API密钥")
		return
	}

	// 简单的连接测试
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	_, err := llmService.CompleteText(ctx, llm.CompletionRequest{
		Prompt:      "Olá",
		MaxTokens:   5,
		Temperature: 0.1,
	})
	if err != nil {
		h.Response.Error(c, http.StatusServiceUnavailable, "CONNECTION_TEST_FAILED",
			"连接测试失败", err.Error())
		return
	}

	data := map[string]interface{}{
		"provider": llmService.GetProviderName(),
		"status":   "connected",
		"test":     "passed",
	}
	h.Response.Success(c, data, "连接测试成功")
}

// GetLLMStatus 获取LLM服务状态
func (h *Handler) GetLLMStatus(c *gin.Context) {
	container := di.GetContainer()
	llmService, ok := container.Get("llm").(*services.LLMService)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "无法获取LLM服务实例",
		})
		return
	}

	cfg := config.GetCurrentConfig()

	status := map[string]interface{}{
		"ready":    llmService.IsReady(),
		"provider": llmService.GetProviderName(),
		"config": map[string]interface{}{
			"provider":    cfg.LLMProvider,
			"has_api_key": cfg.LLMConfig != nil && cfg.LLMConfig["api_key"] != "",
		},
	}

	c.JSON(http.StatusOK, status)
}

// UpdateLLMConfig 更新LLM配置
func (h *Handler) UpdateLLMConfig(c *gin.Context) {
	var req struct {
		Provider string            `json:"provider" binding:"required"`
		Config   map[string]string `json:"config" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "无效的请求格式", err.Error())
		return
	}

	if err := h.ConfigService.UpdateLLMConfig(req.Provider, req.Config, "web_api"); err != nil {
		h.Response.BadRequest(c, "配置验证失败", err.Error())
		return
	}

	// 更新 LLMService
	container := di.GetContainer()
	if llmService, ok := container.Get("llm").(*services.LLMService); ok {
		if err := llmService.UpdateProvider(req.Provider, req.Config); err != nil {
			// 配置已保存，但 LLM 服务更新失败
			h.Response.Error(c, http.StatusPartialContent, "CONFIG_UPDATED_LLM_FAILED",
				"配置已保存，但LLM服务更新失败", err.Error())
			return
		}
	} else {
		h.Response.Error(c, http.StatusPartialContent, "CONFIG_UPDATED_LLM_UNAVAILABLE",
			"配置已保存，但无法获取LLM服务", "请重启应用以使配置生效")
		return
	}

	h.Response.Success(c, nil, "LLM配置更新成功")
}

// GetLLMModels 获取指定LLM提供商支持的模型列表
func (h *Handler) GetLLMModels(c *gin.Context) {
	provider := c.DefaultQuery("provider", "gemini")

	supported := llm.GetSupportedModelsForProvider(provider)
	if len(supported) == 0 {
		availableProviders := llm.ListProviders()
		providerExists := false
		for _, p := range availableProviders {
			if p == provider {
				providerExists = true
				break
			}
		}

		if !providerExists {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "不支持的LLM提供商: " + provider,
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"provider": provider,
		"models":   supported,
		"count":    len(supported),
	})
}

// ========================================
// 健康检查与进度
// ========================================

// HealthCheck 轻量健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	container := di.GetContainer()
	llmReady := false
	if llmService, ok := container.Get("llm").(*services.LLMService); ok {
		llmReady = llmService.IsReady()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"llm_ready": llmReady,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// CancelTask 取消正在进行的生成任务
func (h *Handler) CancelTask(c *gin.Context) {
	taskID := c.Param("taskID")

	tracker, exists := h.ProgressService.GetTracker(taskID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在"})
		return
	}

	tracker.Fail("用户取消了任务")

	c.JSON(http.StatusOK, gin.H{"message": "任务已取消"})
}

// ========================================
// WebSocket 相关
// ========================================

// GenerationWebSocket 处理生成进度 WebSocket 连接
func (h *Handler) GenerationWebSocket(c *gin.Context) {
	h.WebSocketHandler.GenerationWebSocket(c)
}

// GetWebSocketStatus 获取 WebSocket 连接状态（调试用）
func (h *Handler) GetWebSocketStatus(c *gin.Context) {
	status := wsManager.GetStatus()
	status["ping_timeout_seconds"] = int(wsManager.pingTimeout.Seconds())
	status["timestamp"] = time.Now().Format(time.RFC3339)

	c.JSON(http.StatusOK, status)
}

// CleanupWebSocketConnections 手动触发连接清理
func (h *Handler) CleanupWebSocketConnections(c *gin.Context) {
	wsManager.cleanupExpiredConnections()
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "连接清理已执行",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// contains 检查字符串切片是否包含目标值
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
