// internal/api/error_codes.go
package api

// API错误代码常量
const (
	// 通用错误
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"
	ErrorConflict      = "CONFLICT"
	ErrorForbidden     = "FORBIDDEN"
	ErrorUnauthorized  = "UNAUTHORIZED"

	// 登录相关错误
	ErrorLoginFailed    = "LOGIN_FAILED"
	ErrorSessionExpired = "SESSION_EXPIRED"

	// 内容套件相关错误
	ErrorKitNotFound       = "KIT_NOT_FOUND"
	ErrorKitGenerateFailed = "KIT_GENERATE_FAILED"
	ErrorSectionNotFound   = "SECTION_NOT_FOUND"
	ErrorSlotOutOfRange    = "SLOT_OUT_OF_RANGE"

	// 排期相关错误
	ErrorPlanNotFound     = "PLAN_NOT_FOUND"
	ErrorApprovedNotFound = "APPROVED_NOT_FOUND"

	// 视觉生成相关错误
	ErrorImageGenerationFailed = "IMAGE_GENERATION_FAILED"
	ErrorInvalidReference      = "INVALID_REFERENCE"
	ErrorEmptyExtraction       = "EMPTY_EXTRACTION"
	ErrorVideoStartFailed      = "VIDEO_START_FAILED"
	ErrorVideoJobNotFound      = "VIDEO_JOB_NOT_FOUND"

	// LLM服务相关错误
	ErrorLLMServiceUnavailable = "LLM_SERVICE_UNAVAILABLE"
	ErrorLLMConfigInvalid      = "LLM_CONFIG_INVALID"
	ErrorConnectionFailed      = "CONNECTION_FAILED"
	ErrorUpstreamFailure       = "UPSTREAM_FAILURE"

	// 导出相关错误
	ErrorExportFailed             = "EXPORT_FAILED"
	ErrorExportServiceUnavailable = "EXPORT_SERVICE_UNAVAILABLE"
	ErrorExportFormatInvalid      = "EXPORT_FORMAT_INVALID"
	ErrorExportDataEmpty          = "EXPORT_DATA_EMPTY"

	// 配置健康相关
	ErrorConfigUnhealthy = "CONFIG_UNHEALTHY"
	ErrorConfigNotLoaded = "CONFIG_NOT_LOADED"
	ErrorAPIKeyMissing   = "API_KEY_MISSING"
)
