package worker

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// AssetDestroyer 远端资源删除接口
type AssetDestroyer interface {
	Destroy(ctx context.Context, url string) error
}

// AssetCleanupTask 删除数据库写入失败后遗留的远端资源
type AssetCleanupTask struct {
	URLs       []string
	Destroyer  AssetDestroyer
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

// Execute 逐个删除，失败时按退避重试
func (t *AssetCleanupTask) Execute() {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	backoff := t.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}

	for _, url := range t.URLs {
		var err error
		for attempt := 0; attempt <= t.MaxRetries; attempt++ {
			if attempt > 0 {
				time.Sleep(backoff * time.Duration(attempt))
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			err = t.Destroyer.Destroy(ctx, url)
			cancel()
			if err == nil {
				break
			}
		}

		entry := log.WithField("url", url)
		if err != nil {
			entry.WithError(err).Error("Failed to clean up orphaned asset")
			continue
		}
		entry.Info("Orphaned asset cleaned up")
	}
}

// SubmitAssetCleanup 提交清理任务，池不可用时同步执行
func SubmitAssetCleanup(pool *Pool, task *AssetCleanupTask) bool {
	if len(task.URLs) == 0 || task.Destroyer == nil {
		return false
	}
	if pool == nil {
		task.Execute()
		return true
	}
	return pool.Submit(task.Execute)
}
