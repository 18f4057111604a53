package jobs

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartmfg-dev/order-planner/backend/internal/optimizer"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

// Job: 一次优化任务的状态快照。进入终态之后不再变化。
type Job struct {
	ID         string            `json:"id"`
	Status     Status            `json:"status"`
	Result     *optimizer.Result `json:"result,omitempty"`
	Error      string            `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	FinishedAt time.Time         `json:"finishedAt"`
}

func (j *Job) terminal() bool {
	return j.Status != StatusRunning
}

type entry struct {
	job       Job
	optimizer *optimizer.Optimizer
}

// Registry: 任务注册表，按任务 ID 保存运行中和已结束的优化任务。
// 只存在于内存中，进程重启后任务全部丢失。
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Create 注册一个新的运行中任务并返回任务 ID
func (r *Registry) Create(opt *optimizer.Optimizer) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	r.entries[id] = &entry{
		job: Job{
			ID:        id,
			Status:    StatusRunning,
			CreatedAt: r.now(),
		},
		optimizer: opt,
	}
	return id
}

// Get 返回任务状态的副本，调用方修改返回值不会影响注册表
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return Job{}, false
	}
	return e.job, true
}

// SetCompleted 把任务标记为成功结束。任务已处于终态时不做任何修改。
func (r *Registry) SetCompleted(id string, result *optimizer.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || e.job.terminal() {
		return
	}
	e.job.Status = StatusCompleted
	e.job.Result = result
	e.job.FinishedAt = r.now()
}

// SetError 把任务标记为失败；取消错误会转成 cancelled 终态而不是 error
func (r *Registry) SetError(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || e.job.terminal() {
		return
	}
	if errors.Is(err, optimizer.ErrCancelled) {
		e.job.Status = StatusCancelled
	} else {
		e.job.Status = StatusError
		e.job.Error = err.Error()
	}
	e.job.FinishedAt = r.now()
}

// Cancel 设置任务底下优化器的取消标志，幂等：
// 任务不存在或已结束时安静返回 false。
// 任务状态本身由运行 goroutine 观察到取消后通过 SetError 转为 cancelled。
func (r *Registry) Cancel(id string) bool {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()

	if !ok || e.optimizer == nil {
		return false
	}

	e.optimizer.Cancel()
	return true
}

// CleanupOldJobs 清理结束时间早于 maxAge 的终态任务，返回清理数量。
// 只是内存维护，不影响正确性。
func (r *Registry) CleanupOldJobs(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxAge)
	removed := 0
	for id, e := range r.entries {
		if e.job.terminal() && e.job.FinishedAt.Before(cutoff) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

// Len 返回注册表中的任务数量
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
