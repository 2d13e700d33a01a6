package worker

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// Task 异步任务
type Task func()

// Stats 协程池统计信息
type Stats struct {
	WorkerCount int
	QueueLen    int
	QueueCap    int
	Submitted   uint64
	Executed    uint64
	Failed      uint64
	Dropped     uint64
}

// Pool 协程池
type Pool struct {
	workers int
	queue   chan Task
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.RWMutex
	stopped bool

	submitted atomic.Uint64
	executed  atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

var (
	globalPool *Pool
	globalMu   sync.Mutex
)

// InitGlobalPool 初始化全局协程池，重复调用无效
func InitGlobalPool(workers, queueSize int) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalPool != nil {
		return
	}
	globalPool = NewPool(workers, queueSize)
}

// GetGlobalPool 获取全局协程池
func GetGlobalPool() *Pool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalPool
}

// StopGlobalPool 停止全局协程池
func StopGlobalPool() {
	globalMu.Lock()
	p := globalPool
	globalPool = nil
	globalMu.Unlock()

	if p != nil {
		p.Stop()
	}
}

// NewPool 创建并启动协程池
func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	if queueSize <= 0 {
		queueSize = 1000
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		workers: workers,
		queue:   make(chan Task, queueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	log.WithField("workers", workers).Info("Async worker pool started")
	return p
}

// Stop 停止协程池，等待执行中的任务完成，队列中剩余任务被丢弃
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	if left := len(p.queue); left > 0 {
		log.WithField("dropped", left).Warn("Worker pool stopped with pending tasks")
	}
	log.Info("Async worker pool stopped")
}

// Submit 提交任务（非阻塞，队列满时丢弃）
func (p *Pool) Submit(task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}

	select {
	case p.queue <- task:
		p.submitted.Add(1)
		return true
	default:
		p.dropped.Add(1)
		log.Warn("Worker pool queue is full, task dropped")
		return false
	}
}

// GetStats 返回统计信息
func (p *Pool) GetStats() Stats {
	return Stats{
		WorkerCount: p.workers,
		QueueLen:    len(p.queue),
		QueueCap:    cap(p.queue),
		Submitted:   p.submitted.Load(),
		Executed:    p.executed.Load(),
		Failed:      p.failed.Load(),
		Dropped:     p.dropped.Load(),
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case task := <-p.queue:
			p.execute(task)
		case <-p.ctx.Done():
			return
		}
	}
}

// execute 执行任务并捕获 panic
func (p *Pool) execute(task Task) {
	if task == nil {
		return
	}
	defer func() {
		p.executed.Add(1)
		if r := recover(); r != nil {
			p.failed.Add(1)
			log.WithField("panic", r).Error("Panic recovered in async task")
		}
	}()
	task()
}
