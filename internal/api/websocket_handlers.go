// internal/api/websocket_handlers.go
package api

import (
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/RomaLabs/RomaPlanner/internal/di"
	"github.com/RomaLabs/RomaPlanner/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WebSocketHandler 处理 WebSocket 相关的 HTTP 请求
// 对外只有一个用途：把生成任务（批量配图、视频轮询）的进度推送给订阅者
type WebSocketHandler struct {
	progressService *services.ProgressService
}

// NewWebSocketHandler 创建 WebSocket 处理器
func NewWebSocketHandler() *WebSocketHandler {
	container := di.GetContainer()

	return &WebSocketHandler{
		progressService: container.Get("progress").(*services.ProgressService),
	}
}

// GenerationWebSocket 处理生成进度 WebSocket 连接
// 客户端通过 ?task_id= 订阅一个任务，或连接后发送 subscribe 消息
func (wh *WebSocketHandler) GenerationWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ 生成进度 WebSocket 升级失败: %v", err)
		return
	}
	defer conn.Close()

	// 获取参数
	taskID := c.DefaultQuery("task_id", "generation")
	userID := c.DefaultQuery("user_id", "anonymous")

	// 创建客户端
	client := &WebSocketClient{
		conn:      &WebSocketConnWrapper{conn},
		taskID:    taskID,
		userID:    userID,
		send:      make(chan []byte, 256),
		closed:    0,
		lastPing:  time.Now(),
		createdAt: time.Now(),
	}

	// 注册客户端
	select {
	case wsManager.register <- client:
		// Success
	default:
		log.Printf("❌ 无法注册 WebSocket 客户端，注册通道已满")
		return
	}

	defer func() {
		// Unregister with timeout to prevent blocking
		done := make(chan bool, 1)
		go func() {
			wsManager.unregister <- client
			done <- true
		}()

		select {
		case <-done:
			// Successfully unregistered
		case <-time.After(5 * time.Second):
			// Timeout - client might not be properly unregistered
			log.Printf("⚠️ WebSocket 客户端注销超时")
		}
	}()

	// 启动读写协程
	go wh.handleWebSocketWrites(client)
	go wh.handleWebSocketReads(client)

	// 发送连接确认消息
	client.SendMessage(map[string]interface{}{
		"type":      "connected",
		"task_id":   taskID,
		"timestamp": time.Now().Format(time.RFC3339),
	})

	// 连接即订阅：任务已存在时立刻开始转发进度
	wh.relayTaskProgress(client, taskID)

	// 等待连接关闭
	<-c.Request.Context().Done()
	log.Printf("📱 任务 %s 的 WebSocket 连接已关闭 (用户: %s)", taskID, userID)
}

// relayTaskProgress 把进度跟踪器的更新转发给客户端，任务不存在时静默返回
// 跟踪器进入终态或客户端断开时协程退出
func (wh *WebSocketHandler) relayTaskProgress(client *WebSocketClient, taskID string) {
	tracker, exists := wh.progressService.GetTracker(taskID)
	if !exists {
		return
	}

	go func() {
		updates := tracker.Subscribe()
		defer tracker.Unsubscribe(updates)

		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				client.SendMessage(map[string]interface{}{
					"type":      "progress",
					"task_id":   taskID,
					"progress":  update.Progress,
					"message":   update.Message,
					"status":    update.Status,
					"timestamp": time.Now().Format(time.RFC3339),
				})
				if update.Status == "completed" || update.Status == "failed" {
					return
				}
			case <-tracker.Done:
				return
			}

			if client.IsClosed() {
				return
			}
		}
	}()
}

// handleWebSocketReads 处理 WebSocket 读取
func (wh *WebSocketHandler) handleWebSocketReads(client *WebSocketClient) {
	defer func() {
		if !client.IsClosed() {
			select {
			case wsManager.unregister <- client:
			case <-time.After(1 * time.Second):
				log.Printf("⚠️ 读取协程关闭时注销超时")
			}
		}
	}()

	// 设置读取超时和ping处理
	client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.conn.SetPongHandler(func(string) error {
		client.UpdatePing()
		client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if client.IsClosed() {
			break
		}

		// 设置当前读取超时
		client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		_, messageBytes, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("❌ WebSocket 读取错误: %v", err)
			}
			break
		}

		// 解析JSON消息
		var message map[string]interface{}
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			log.Printf("⚠️ JSON解析失败: %v", err)
			continue
		}

		// 更新活跃时间
		client.UpdatePing()

		// 处理收到的消息
		wh.handleMessage(client, message)
	}
}

// handleWebSocketWrites 处理 WebSocket 写入
func (wh *WebSocketHandler) handleWebSocketWrites(client *WebSocketClient) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		// Close send channel gracefully if not already closed
		if atomic.CompareAndSwapInt32(&client.closed, 0, 1) {
			// Close send channel safely with panic recovery
			func() {
				defer func() {
					if recover() != nil {
						// Channel was already closed, which is fine
					}
				}()
				close(client.send)
			}()
			client.conn.Close()
		} else {
			// Channel might already be marked as closed, but try to close it safely anyway
			func() {
				defer func() {
					if recover() != nil {
						// Channel was already closed, which is fine
					}
				}()
				close(client.send)
			}()
			client.conn.Close()
		}
	}()

	for {
		select {
		case message, ok := <-client.send:
			if client.IsClosed() {
				return
			}

			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Channel closed, send close message
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("❌ WebSocket 写入失败: %v", err)
				return
			}

		case <-ticker.C:
			if client.IsClosed() {
				return
			}

			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("❌ WebSocket ping 失败: %v", err)
				return
			}
			client.UpdatePing()

		case <-time.After(60 * time.Second):
			// Emergency timeout check - if nothing received in 60 seconds, close connection
			if client.IsClosed() {
				return
			}
		}
	}
}

// handleMessage 处理收到的 WebSocket 消息
func (wh *WebSocketHandler) handleMessage(client *WebSocketClient, message map[string]interface{}) {
	msgType, ok := message["type"].(string)
	if !ok {
		log.Printf("⚠️ 收到无效的消息类型")
		return
	}

	switch msgType {
	case "subscribe":
		wh.handleSubscribe(client, message)
	case "ping":
		wh.handlePing(client)
	default:
		log.Printf("⚠️ 未知的消息类型: %s", msgType)
	}
}

// handleSubscribe 处理任务订阅请求
func (wh *WebSocketHandler) handleSubscribe(client *WebSocketClient, message map[string]interface{}) {
	taskID, ok := message["task_id"].(string)
	if !ok || taskID == "" {
		client.SendError("缺少任务ID")
		return
	}

	if _, exists := wh.progressService.GetTracker(taskID); !exists {
		client.SendError("任务不存在: " + taskID)
		return
	}

	wh.relayTaskProgress(client, taskID)

	client.SendMessage(map[string]interface{}{
		"type":      "subscribed",
		"task_id":   taskID,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handlePing 处理客户端主动ping
func (wh *WebSocketHandler) handlePing(client *WebSocketClient) {
	client.SendMessage(map[string]interface{}{
		"type":      "pong",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
