// internal/api/auth_middleware.go
package api

import (
	"log"
	"strings"

	"github.com/RomaLabs/RomaPlanner/internal/di"
	"github.com/RomaLabs/RomaPlanner/internal/services"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware provides authentication for API endpoints
// 令牌无效或缺失时降级为访客 guest_user，不中断请求；
// 内容规划是单人工具，写操作不做所有权检查
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip auth for certain endpoints (like login, health checks, etc.)
		if isPublicEndpoint(c) {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set("user_id", "guest_user")
			c.Set("user_authenticated", false)
			c.Next()
			return
		}

		// Extract token from "Bearer {token}" format
		token := strings.TrimPrefix(authHeader, "Bearer ")
		token = strings.TrimSpace(token)

		if token == "" {
			c.Set("user_id", "guest_user")
			c.Set("user_authenticated", false)
			c.Next()
			return
		}

		userService := getUserService()
		if userService == nil {
			c.Set("user_id", "guest_user")
			c.Set("user_authenticated", false)
			c.Next()
			return
		}

		// Parse and validate token
		parsedToken, err := userService.ValidateToken(token)
		if err != nil {
			log.Printf("AuthMiddleware: invalid token detected (%v), downgrading to guest_user", err)
			c.Set("user_id", "guest_user")
			c.Set("user_authenticated", false)
			c.Set("auth_error", err.Error())
			c.Next()
			return
		}

		// Add user info to context for use in handlers
		c.Set("user_id", parsedToken.UserID)
		c.Set("user_authenticated", true)

		c.Next()
	}
}

// getUserService 从容器取用户服务，容器未初始化时返回nil
func getUserService() *services.UserService {
	container := di.GetContainer()
	userService, ok := container.Get("user").(*services.UserService)
	if !ok {
		return nil
	}
	return userService
}

// isPublicEndpoint checks if the current endpoint should skip authentication
func isPublicEndpoint(c *gin.Context) bool {
	publicPaths := []string{
		"/api/login",      // Login API endpoint
		"/api/logout",     // Logout API endpoint
		"/api/health",     // Health check
		"/api/llm/status", // LLM status for setup
		"/api/llm/models", // LLM models for setup
		"/ws/generation",  // Progress push channel
	}

	currentPath := c.Request.URL.Path

	for _, path := range publicPaths {
		if currentPath == path || strings.HasPrefix(currentPath, path+"/") {
			return true
		}
	}

	return false
}

// GetUserFromContext retrieves the authenticated user from the context
func GetUserFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}

	userIDStr, ok := userID.(string)
	if !ok || userIDStr == "" {
		return "", false
	}

	if authenticatedVal, exists := c.Get("user_authenticated"); exists {
		if authenticated, ok := authenticatedVal.(bool); ok {
			return userIDStr, authenticated
		}
	}

	return userIDStr, false
}
