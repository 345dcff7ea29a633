// internal/app/app.go
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RomaLabs/RomaPlanner/internal/auth"
	"github.com/RomaLabs/RomaPlanner/internal/config"
	"github.com/RomaLabs/RomaPlanner/internal/di"
	"github.com/RomaLabs/RomaPlanner/internal/services"
	"github.com/RomaLabs/RomaPlanner/internal/storage"
	"github.com/RomaLabs/RomaPlanner/internal/utils"
)

// App 应用级单例，持有当前配置
type App struct {
	config *config.AppConfig
}

var instance *App

// GetApp 获取应用单例
func GetApp() *App {
	if instance == nil {
		instance = &App{}
	}
	return instance
}

// GetConfig 返回应用配置
func (a *App) GetConfig() *config.AppConfig {
	return a.config
}

// GetDIContainer 返回全局依赖注入容器
func GetDIContainer() *di.Container {
	return di.GetContainer()
}

// IsDebugMode 当前是否处于调试模式
func IsDebugMode() bool {
	if instance == nil || instance.config == nil {
		return false
	}
	return instance.config.DebugMode
}

// InitLogging 初始化结构化日志，日志文件按天命名
func InitLogging(logDir string) error {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("创建日志目录失败: %w", err)
	}

	logFile := filepath.Join(logDir, fmt.Sprintf("app_%s.log", time.Now().Format("2006-01-02")))
	return utils.InitLogger(logFile)
}

// InitServices 按依赖顺序初始化所有服务并注册到容器
func InitServices() error {
	cfg := config.GetCurrentConfig()
	GetApp().config = cfg
	container := di.GetContainer()

	// 1. 持久化层
	fileStorage, err := storage.NewFileStorage(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("初始化文件存储失败: %w", err)
	}
	fileStorage.StartCacheCleanup()
	container.Register("storage", fileStorage)

	// 2. AI提供者服务（无密钥时进入降级态，不阻塞启动）
	llmService := services.NewLLMService()
	container.Register("llm", llmService)

	// 3. 无依赖的基础服务
	container.Register("config", services.NewConfigService())
	apiMetrics := utils.NewAPIMetrics()
	container.Register("metrics", apiMetrics)
	statsService := services.NewStatsService(cfg.DataDir)
	container.Register("stats", statsService)
	progressService := services.NewProgressService()
	container.Register("progress", progressService)
	strategyService := services.NewStrategyService()
	container.Register("strategy", strategyService)

	// 4. 会话服务，密钥优先取环境变量
	tokenConfig := &auth.TokenConfig{
		Secret:     sessionSecret(),
		Expiration: 24 * time.Hour,
	}
	container.Register("user", services.NewUserService(fileStorage, tokenConfig))

	// 5. 日历与导出
	plannerService := services.NewPlannerService(fileStorage)
	container.Register("planner", plannerService)
	container.Register("export", services.NewExportService(plannerService, cfg.ExportDir))

	// 6. 内容生成链路，依赖前面全部就绪
	kitService := services.NewKitService(llmService, fileStorage, strategyService, statsService, apiMetrics)
	container.Register("kit", kitService)

	visualService := services.NewVisualService(llmService, kitService, fileStorage, statsService, progressService, apiMetrics)
	container.Register("visual", visualService)

	videoService := services.NewVideoService(llmService, kitService, visualService, statsService, progressService, apiMetrics, cfg.VideoPollSeconds)
	container.Register("video", videoService)

	return nil
}

// sessionSecret 会话签名密钥，未配置时随机生成（重启后旧会话失效）
func sessionSecret() []byte {
	if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		return []byte(secret)
	}
	key, err := auth.GenerateSecureKey(32)
	if err != nil {
		// 随机源不可用时回退到固定串，仅影响会话连续性
		return []byte("roma-planner-dev-secret")
	}
	return key
}

// Cleanup 刷出未保存的状态，进程退出前调用
func Cleanup() {
	container := di.GetContainer()

	if stats, ok := container.Get("stats").(*services.StatsService); ok && stats != nil {
		if err := stats.Close(); err != nil {
			utils.GetLogger().Warn("退出前保存统计数据失败", map[string]interface{}{"err": err})
		}
	}
}
