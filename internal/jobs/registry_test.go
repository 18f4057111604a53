package jobs

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartmfg-dev/order-planner/backend/internal/domain"
	"github.com/smartmfg-dev/order-planner/backend/internal/optimizer"
	"github.com/smartmfg-dev/order-planner/backend/internal/planning"
)

func newTestOptimizer(t *testing.T) *optimizer.Optimizer {
	t.Helper()
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	m := planning.NewModel(start, 30, 1, 7)
	m.SetEvaluationTime(start)
	m.AddLineRestriction(&domain.LineRestriction{
		Name:     "Line_A",
		Validity: true,
		Capacity: map[string]int{"2026-03-02": 5},
	})

	opt, err := optimizer.New(m, optimizer.DefaultConfig())
	require.NoError(t, err)
	return opt
}

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	id := r.Create(newTestOptimizer(t))

	job, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatusRunning, job.Status)
	assert.NotEmpty(t, job.ID)

	result := &optimizer.Result{FinalFitness: 100050}
	r.SetCompleted(id, result)

	job, ok = r.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, job.Status)
	assert.Equal(t, 100050.0, job.Result.FinalFitness)
	assert.False(t, job.FinishedAt.IsZero())

	// 终态之后不可再改写
	r.SetError(id, errors.New("后来的错误"))
	job, _ = r.Get(id)
	assert.Equal(t, StatusCompleted, job.Status)
	assert.Empty(t, job.Error)
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get("不存在的任务")
	assert.False(t, ok)
}

func TestRegistryErrorAndCancelledStates(t *testing.T) {
	r := NewRegistry()

	errID := r.Create(newTestOptimizer(t))
	r.SetError(errID, errors.New("数据库连接失败"))
	job, _ := r.Get(errID)
	assert.Equal(t, StatusError, job.Status)
	assert.Equal(t, "数据库连接失败", job.Error)

	// 取消哨兵错误转成 cancelled 而不是 error
	cancelledID := r.Create(newTestOptimizer(t))
	r.SetError(cancelledID, optimizer.ErrCancelled)
	job, _ = r.Get(cancelledID)
	assert.Equal(t, StatusCancelled, job.Status)
	assert.Empty(t, job.Error)
}

func TestRegistryCancelIdempotent(t *testing.T) {
	r := NewRegistry()
	opt := newTestOptimizer(t)
	id := r.Create(opt)

	assert.True(t, r.Cancel(id))
	assert.True(t, r.Cancel(id))
	assert.True(t, opt.IsCancelled())

	assert.False(t, r.Cancel("不存在的任务"))
}

func TestRegistryCleanupOldJobs(t *testing.T) {
	r := NewRegistry()
	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }

	oldID := r.Create(newTestOptimizer(t))
	r.SetCompleted(oldID, &optimizer.Result{})
	runningID := r.Create(newTestOptimizer(t))

	// 两小时后清理一小时前结束的任务
	r.now = func() time.Time { return base.Add(2 * time.Hour) }
	freshID := r.Create(newTestOptimizer(t))
	r.SetCompleted(freshID, &optimizer.Result{})

	removed := r.CleanupOldJobs(time.Hour)
	assert.Equal(t, 1, removed)

	_, ok := r.Get(oldID)
	assert.False(t, ok)

	// 运行中和刚结束的任务都保留
	_, ok = r.Get(runningID)
	assert.True(t, ok)
	_, ok = r.Get(freshID)
	assert.True(t, ok)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	opt := newTestOptimizer(t)

	var wg sync.WaitGroup
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = r.Create(opt)
	}

	for _, id := range ids {
		wg.Add(3)
		go func(id string) {
			defer wg.Done()
			r.SetCompleted(id, &optimizer.Result{})
		}(id)
		go func(id string) {
			defer wg.Done()
			r.Get(id)
		}(id)
		go func(id string) {
			defer wg.Done()
			r.Cancel(id)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 50, r.Len())
	for _, id := range ids {
		job, ok := r.Get(id)
		require.True(t, ok)
		assert.Equal(t, StatusCompleted, job.Status)
	}
}
