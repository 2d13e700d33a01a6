package worker

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Semaphore 限制 libvips 并发处理数量
type Semaphore struct {
	sem *semaphore.Weighted
}

var (
	globalSemaphore *Semaphore
	semOnce         sync.Once
)

// NewSemaphore 创建信号量，n <= 0 时取 CPU 核数
func NewSemaphore(n int) *Semaphore {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return &Semaphore{sem: semaphore.NewWeighted(int64(n))}
}

// GetGlobalSemaphore 全局图像处理信号量
func GetGlobalSemaphore() *Semaphore {
	semOnce.Do(func() {
		globalSemaphore = NewSemaphore(0)
	})
	return globalSemaphore
}

// Acquire 获取许可，ctx 取消时返回错误
func (s *Semaphore) Acquire(ctx context.Context) error {
	return s.sem.Acquire(ctx, 1)
}

// Release 释放许可
func (s *Semaphore) Release() {
	s.sem.Release(1)
}
