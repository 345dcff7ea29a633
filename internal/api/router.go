// internal/api/router.go
package api

import (
	"fmt"
	"net/http"

	"github.com/RomaLabs/RomaPlanner/internal/config"
	"github.com/RomaLabs/RomaPlanner/internal/di"
	"github.com/RomaLabs/RomaPlanner/internal/services"
	"github.com/RomaLabs/RomaPlanner/internal/utils"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置HTTP路由
func SetupRouter() (*gin.Engine, error) {
	// 获取配置
	cfg := config.GetCurrentConfig()

	// 获取依赖注入容器
	container := di.GetContainer()

	// ✅ 只从容器获取服务，不再创建新实例
	kitService, ok := container.Get("kit").(*services.KitService)
	if !ok {
		return nil, fmt.Errorf("内容套件服务未正确初始化")
	}

	visualService, ok := container.Get("visual").(*services.VisualService)
	if !ok {
		return nil, fmt.Errorf("配图服务未正确初始化")
	}

	videoService, ok := container.Get("video").(*services.VideoService)
	if !ok {
		return nil, fmt.Errorf("视频服务未正确初始化")
	}

	plannerService, ok := container.Get("planner").(*services.PlannerService)
	if !ok {
		return nil, fmt.Errorf("排期服务未正确初始化")
	}

	strategyService, ok := container.Get("strategy").(*services.StrategyService)
	if !ok {
		return nil, fmt.Errorf("策略服务未正确初始化")
	}

	exportService, ok := container.Get("export").(*services.ExportService)
	if !ok {
		return nil, fmt.Errorf("导出服务未正确初始化")
	}

	userService, ok := container.Get("user").(*services.UserService)
	if !ok {
		return nil, fmt.Errorf("用户服务未正确初始化")
	}

	configService, ok := container.Get("config").(*services.ConfigService)
	if !ok {
		return nil, fmt.Errorf("配置服务未正确初始化")
	}

	statsService, ok := container.Get("stats").(*services.StatsService)
	if !ok {
		return nil, fmt.Errorf("统计服务未正确初始化")
	}

	progressService, ok := container.Get("progress").(*services.ProgressService)
	if !ok {
		return nil, fmt.Errorf("进度服务未正确初始化")
	}

	apiMetrics, ok := container.Get("metrics").(*utils.APIMetrics)
	if !ok {
		return nil, fmt.Errorf("指标服务未正确初始化")
	}

	// ✅ 创建API处理器 - 只传递从容器获取的服务
	handler := NewHandler(
		kitService,
		visualService,
		videoService,
		plannerService,
		strategyService,
		exportService,
		userService,
		configService,
		statsService,
		progressService,
		apiMetrics,
	)

	// 创建路由
	r := gin.Default()

	// 启用CORS、请求追踪和请求指标
	r.Use(corsMiddleware())
	r.Use(RequestIDMiddleware())
	r.Use(MetricsMiddleware(apiMetrics))
	r.Use(AuthMiddleware())

	// HTTPS重定向（生产环境）
	if !cfg.DebugMode {
		r.Use(func(c *gin.Context) {
			if c.Request.Header.Get("X-Forwarded-Proto") != "https" {
				c.Redirect(http.StatusPermanentRedirect,
					"https://"+c.Request.Host+c.Request.URL.Path)
				return
			}
			c.Next()
		})
	}

	// WebSocket 支持
	r.GET("/ws/generation", handler.GenerationWebSocket)

	// ===============================
	// API路由组
	// ===============================
	api := r.Group("/api")
	api.Use(DefaultRateLimit())
	{
		// 健康检查
		api.GET("/health", handler.HealthCheck)

		// ===============================
		// 登录与会话
		// ===============================
		api.POST("/login", handler.Login)
		api.POST("/logout", handler.Logout)
		api.GET("/session", handler.GetSessionInfo)

		// ===============================
		// 策略目录
		// ===============================
		api.GET("/strategies", handler.GetStrategies)
		api.GET("/schedules", handler.GetSchedules)
		api.GET("/schedules/:name", handler.GetSchedule)
		api.GET("/books", handler.GetBooks)

		// ===============================
		// 排期草稿
		// ===============================
		plansGroup := api.Group("/plans")
		{
			plansGroup.GET("", handler.ListPlans)
			plansGroup.POST("", handler.SavePlan)
			plansGroup.GET("/lookup", handler.GetPlan)
			plansGroup.DELETE("/:id", handler.DeletePlan)
		}

		// ===============================
		// 已批准内容
		// ===============================
		approvedGroup := api.Group("/approved")
		{
			approvedGroup.GET("", handler.ListApproved)
			approvedGroup.POST("", handler.ApproveContent)
			approvedGroup.DELETE("", handler.DeleteApproved)
			approvedGroup.GET("/report", handler.GetPlannerReport)
		}

		// ===============================
		// 内容套件
		// ===============================
		kitGroup := api.Group("/kit")
		{
			kitGroup.POST("/generate", GenerationRateLimit(), handler.GenerateKit)
			kitGroup.POST("/resegment/:date", handler.ResegmentKit)
			kitGroup.GET("/:date", handler.GetKit)
			kitGroup.GET("/:date/sections", handler.GetKitSections)
		}

		// ===============================
		// 槽位提示词与视觉生成
		// ===============================
		slotsGroup := api.Group("/slots")
		{
			slotsGroup.GET("/:section", handler.GetSectionSlots)
			slotsGroup.GET("/:section/:index/prompt", handler.GetSlotPrompt)
			slotsGroup.PUT("/:section/:index/prompt", handler.OverrideSlotPrompt)
			slotsGroup.DELETE("/:section/:index/prompt", handler.ResetSlotPrompt)
			slotsGroup.POST("/:section/:index/image", MediaRateLimit(), handler.GenerateSlotImage)
			slotsGroup.POST("/:section/:index/video", MediaRateLimit(), handler.StartVideoJob)
			slotsGroup.DELETE("/:section/:index/asset", handler.DeleteSlotAsset)
		}
		api.POST("/slots-batch-images", MediaRateLimit(), handler.BatchGenerateImages)

		// ===============================
		// 资产与视频任务
		// ===============================
		api.GET("/assets", handler.GetAssets)
		videoGroup := api.Group("/video")
		{
			videoGroup.GET("", handler.ListVideoJobs)
			videoGroup.GET("/:job_id", handler.GetVideoJob)
		}

		// ===============================
		// 导出
		// ===============================
		api.GET("/export/:format", handler.ExportContent)

		// ===============================
		// 统计
		// ===============================
		api.GET("/stats", handler.GetStats)
		api.POST("/stats/reset", handler.ResetStats)

		// ===============================
		// 设置与LLM配置
		// ===============================
		settingsGroup := api.Group("/settings")
		{
			settingsGroup.GET("", handler.GetSettings)
			settingsGroup.POST("", handler.SaveSettings)
			settingsGroup.POST("/test-connection", handler.TestConnection)
		}

		llmGroup := api.Group("/llm")
		{
			llmGroup.GET("/status", handler.GetLLMStatus)
			llmGroup.GET("/models", handler.GetLLMModels)
			llmGroup.PUT("/config", handler.UpdateLLMConfig)
		}

		// ===============================
		// 任务取消与WebSocket管理
		// ===============================
		api.POST("/cancel/:taskID", handler.CancelTask)

		wsGroup := api.Group("/ws")
		{
			wsGroup.GET("/status", handler.GetWebSocketStatus)
			wsGroup.POST("/cleanup", handler.CleanupWebSocketConnections)
		}
	}

	return r, nil
}

// corsMiddleware 实现跨域资源共享
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
