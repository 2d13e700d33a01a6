package worker

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedDestroyer 在 release 关闭前阻塞，panicURL 触发 panic
type gatedDestroyer struct {
	mu       sync.Mutex
	started  chan string
	release  chan struct{}
	panicURL string
	done     []string
}

func newGatedDestroyer() *gatedDestroyer {
	return &gatedDestroyer{started: make(chan string, 16), release: make(chan struct{})}
}

func (d *gatedDestroyer) Destroy(ctx context.Context, url string) error {
	d.started <- url
	if url == d.panicURL {
		panic("destroyer exploded")
	}
	<-d.release
	d.mu.Lock()
	d.done = append(d.done, url)
	d.mu.Unlock()
	return nil
}

func (d *gatedDestroyer) destroyed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.done...)
}

func cleanupOf(d AssetDestroyer, urls ...string) *AssetCleanupTask {
	return &AssetCleanupTask{URLs: urls, Destroyer: d, Timeout: time.Second, Backoff: time.Millisecond}
}

func TestPool_CleanupPanicDoesNotKillWorker(t *testing.T) {
	pool := NewPool(1, 4)
	defer pool.Stop()

	d := newGatedDestroyer()
	d.panicURL = "https://cdn/bad.jpg"
	close(d.release)

	require.True(t, SubmitAssetCleanup(pool, cleanupOf(d, "https://cdn/bad.jpg")))
	require.True(t, SubmitAssetCleanup(pool, cleanupOf(d, "https://cdn/good.jpg")))

	assert.Eventually(t, func() bool {
		return len(d.destroyed()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"https://cdn/good.jpg"}, d.destroyed())

	assert.Eventually(t, func() bool {
		return pool.GetStats().Executed == 2
	}, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, pool.GetStats().Failed)
}

func TestPool_StopWaitsForRunningCleanup(t *testing.T) {
	pool := NewPool(1, 4)
	d := newGatedDestroyer()

	require.True(t, SubmitAssetCleanup(pool, cleanupOf(d, "https://cdn/a.jpg")))
	<-d.started

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a cleanup was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(d.release)
	<-stopped
	assert.Equal(t, []string{"https://cdn/a.jpg"}, d.destroyed())
}

func TestPool_CleanupAfterStopIsDropped(t *testing.T) {
	pool := NewPool(1, 4)
	pool.Stop()
	pool.Stop()

	d := newGatedDestroyer()
	close(d.release)
	assert.False(t, SubmitAssetCleanup(pool, cleanupOf(d, "https://cdn/late.jpg")))
	assert.Empty(t, d.destroyed())
	assert.EqualValues(t, 0, pool.GetStats().Submitted)
}

func TestPool_FullQueueDropsCleanup(t *testing.T) {
	pool := NewPool(1, 1)
	d := newGatedDestroyer()
	defer func() {
		close(d.release)
		pool.Stop()
	}()

	// 第一个任务占住唯一的 worker，第二个进入队列
	require.True(t, SubmitAssetCleanup(pool, cleanupOf(d, "u1")))
	<-d.started
	require.True(t, SubmitAssetCleanup(pool, cleanupOf(d, "u2")))

	assert.False(t, SubmitAssetCleanup(pool, cleanupOf(d, "u3")))

	stats := pool.GetStats()
	assert.EqualValues(t, 2, stats.Submitted)
	assert.EqualValues(t, 1, stats.Dropped)
	assert.Equal(t, 1, stats.QueueLen)
	assert.Equal(t, 1, stats.QueueCap)
}

func TestPool_NilTaskIsIgnored(t *testing.T) {
	pool := NewPool(1, 2)
	defer pool.Stop()

	require.True(t, pool.Submit(nil))
	assert.Eventually(t, func() bool {
		return pool.GetStats().Executed == 0 && pool.GetStats().QueueLen == 0
	}, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 0, pool.GetStats().Failed)
}

func TestNewPool_Defaults(t *testing.T) {
	pool := NewPool(0, 0)
	defer pool.Stop()

	stats := pool.GetStats()
	assert.Equal(t, runtime.NumCPU()*2, stats.WorkerCount)
	assert.Equal(t, 1000, stats.QueueCap)
}

func TestGlobalPool(t *testing.T) {
	StopGlobalPool()
	assert.Nil(t, GetGlobalPool())

	InitGlobalPool(2, 8)
	first := GetGlobalPool()
	require.NotNil(t, first)

	// 重复初始化保持原实例
	InitGlobalPool(4, 16)
	assert.Same(t, first, GetGlobalPool())
	assert.Equal(t, 2, first.GetStats().WorkerCount)

	StopGlobalPool()
	assert.Nil(t, GetGlobalPool())
	assert.False(t, first.Submit(func() {}))
}
