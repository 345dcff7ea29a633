// internal/services/lock_manager.go
package services

import (
	"sync"
	"time"
)

// LockManager 统一的键级锁管理器
// 规划数据按持久化文件/复合键加锁，闲置锁定期回收
type LockManager struct {
	keyLocks      map[string]*LockInfo
	globalLock    sync.RWMutex
	lockTTL       time.Duration
	cleanupTicker *time.Ticker
}

// LockInfo 包装锁和相关信息
type LockInfo struct {
	Mutex    *sync.RWMutex
	LastUsed time.Time
}

// NewLockManager 创建锁管理器
func NewLockManager() *LockManager {
	lm := &LockManager{
		keyLocks: make(map[string]*LockInfo),
		lockTTL:  10 * time.Minute,
	}

	// 启动清理器
	lm.startCleanup()
	return lm
}

// GetKeyLock 获取指定键的锁（线程安全）
func (lm *LockManager) GetKeyLock(key string) *sync.RWMutex {
	lm.globalLock.RLock()
	if lockInfo, exists := lm.keyLocks[key]; exists {
		lm.globalLock.RUnlock()
		lockInfo.LastUsed = time.Now()
		return lockInfo.Mutex
	}
	lm.globalLock.RUnlock()

	// 升级为写锁
	lm.globalLock.Lock()
	defer lm.globalLock.Unlock()

	// 双重检查（在写锁保护下是安全的）
	if lockInfo, exists := lm.keyLocks[key]; exists {
		lockInfo.LastUsed = time.Now()
		return lockInfo.Mutex
	}

	lock := &sync.RWMutex{}
	lm.keyLocks[key] = &LockInfo{
		Mutex:    lock,
		LastUsed: time.Now(),
	}
	return lock
}

// ExecuteWithKeyLock 在键写锁保护下执行操作
func (lm *LockManager) ExecuteWithKeyLock(key string, fn func() error) error {
	lock := lm.GetKeyLock(key)
	lock.Lock()
	defer lock.Unlock()
	return fn()
}

// ExecuteWithKeyReadLock 在键读锁保护下执行操作
func (lm *LockManager) ExecuteWithKeyReadLock(key string, fn func() error) error {
	lock := lm.GetKeyLock(key)
	lock.RLock()
	defer lock.RUnlock()
	return fn()
}

// 定期清理未使用的锁
func (lm *LockManager) startCleanup() {
	lm.cleanupTicker = time.NewTicker(5 * time.Minute)
	go func() {
		for range lm.cleanupTicker.C {
			lm.cleanupUnusedLocks()
		}
	}()
}

func (lm *LockManager) cleanupUnusedLocks() {
	lm.globalLock.Lock()
	defer lm.globalLock.Unlock()

	const maxLocks = 200
	const lockTimeout = 30 * time.Minute

	// 只有在锁数量过多时才清理
	if len(lm.keyLocks) > maxLocks {
		now := time.Now()
		for key, lockInfo := range lm.keyLocks {
			if now.Sub(lockInfo.LastUsed) > lockTimeout {
				delete(lm.keyLocks, key)
			}
		}
	}
}
