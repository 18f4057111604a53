package optimizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartmfg-dev/order-planner/backend/internal/domain"
	"github.com/smartmfg-dev/order-planner/backend/internal/planning"
)

var testStart = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

// newSingleLineModel 构造一个只有 Line_A 和工序 OP1 的最小模型，
// capacities 给出 Line_A 从桶 0 开始的逐桶产能
func newSingleLineModel(t *testing.T, capacities map[string]int) *planning.Model {
	t.Helper()
	m := planning.NewModel(testStart, 60, 1, 7)
	m.SetEvaluationTime(testStart)
	m.AddLineRestriction(&domain.LineRestriction{
		Name:        "Line_A",
		Validity:    true,
		PenaltyCost: 500,
		Capacity:    capacities,
	})
	m.AddOperation(&domain.Operation{OperationID: "OP1", PrimaryLine: "Line_A"})
	m.AddPriorityCriteria(&domain.PriorityDeliveryCriteria{
		CustomerPriority:  "High",
		MaxDelayDays:      0,
		PenaltyMultiplier: 3.0,
	})
	return m
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PopulationSize = 20
	cfg.Generations = 10
	cfg.EnableUnderUtilizationPenalty = false
	cfg.RandomSeed = 42
	return cfg
}

func TestNewRefusesInvalidCapacity(t *testing.T) {
	m := planning.NewModel(testStart, 30, 1, 7)
	m.SetEvaluationTime(testStart)
	m.AddLineRestriction(&domain.LineRestriction{
		Name:     "Line_A",
		Validity: true,
		Capacity: map[string]int{"2026-03-02": 0},
	})

	opt, err := New(m, testConfig())
	assert.Error(t, err)
	assert.Nil(t, opt)
}

func TestCapacityTrackerRoundTrip(t *testing.T) {
	m := newSingleLineModel(t, map[string]int{"2026-03-02": 5, "2026-03-03": 3})
	order := &domain.SalesOrder{OrderNumber: "SO-001", Quantity: 4, Operations: []string{"OP1"}}

	tracker := newCapacityTracker(m)
	assert.Equal(t, 5, tracker.remainingAt("Line_A", 0))

	assignment := Assignment{BucketIndex: 0, Operations: map[string]string{"OP1": "Line_A"}}
	tracker.take(order, assignment)
	assert.Equal(t, 1, tracker.remainingAt("Line_A", 0))

	tracker.give(order, assignment)
	assert.Equal(t, 5, tracker.remainingAt("Line_A", 0))
	assert.Equal(t, 3, tracker.remainingAt("Line_A", 1))

	// 未知产线和越界的桶不会写入
	tracker.adjust("未知产线", 0, -1)
	tracker.adjust("Line_A", 99, -1)
	assert.Equal(t, 0, tracker.remainingAt("未知产线", 0))
}

func TestInvalidLineExcludedFromTracker(t *testing.T) {
	m := newSingleLineModel(t, map[string]int{"2026-03-02": 5})
	m.AddLineRestriction(&domain.LineRestriction{
		Name:     "Line_B",
		Validity: false,
		Capacity: map[string]int{"2026-03-02": 100},
	})

	tracker := newCapacityTracker(m)
	assert.Equal(t, 0, tracker.remainingAt("Line_B", 0))
}

func TestOptimizePerfectFit(t *testing.T) {
	m := newSingleLineModel(t, map[string]int{"2026-03-02": 5, "2026-03-03": 5})
	m.AddSalesOrder(&domain.SalesOrder{
		OrderNumber:      "SO-001",
		ProductID:        "FL001",
		PromiseDate:      testStart,
		Quantity:         5,
		CustomerPriority: "High",
		Operations:       []string{"OP1"},
	})

	opt, err := New(m, testConfig())
	require.NoError(t, err)

	result, err := opt.Optimize()
	require.NoError(t, err)

	assignment, ok := result.BestSolution["SO-001"]
	require.True(t, ok)
	assert.Equal(t, 0, assignment.BucketIndex)
	assert.Equal(t, "Line_A", assignment.Operations["OP1"])

	// 零惩罚加准时交付奖励
	assert.Equal(t, 100050.0, result.FinalFitness)
}

func TestFitnessCapacityOverflow(t *testing.T) {
	m := newSingleLineModel(t, map[string]int{"2026-03-02": 5})
	m.AddSalesOrder(&domain.SalesOrder{
		OrderNumber: "SO-001", ProductID: "FL001", PromiseDate: testStart,
		Quantity: 5, CustomerPriority: "High", Operations: []string{"OP1"},
	})
	m.AddSalesOrder(&domain.SalesOrder{
		OrderNumber: "SO-002", ProductID: "FL001", PromiseDate: testStart,
		Quantity: 5, CustomerPriority: "High", Operations: []string{"OP1"},
	})

	opt, err := New(m, testConfig())
	require.NoError(t, err)

	overloaded := Individual{
		"SO-001": {BucketIndex: 0, Operations: map[string]string{"OP1": "Line_A"}},
		"SO-002": {BucketIndex: 0, Operations: map[string]string{"OP1": "Line_A"}},
	}
	single := Individual{
		"SO-001": {BucketIndex: 0, Operations: map[string]string{"OP1": "Line_A"}},
	}

	// 总需求 10 超过产能 5，超限个体的适应度必须严格低于无超限的
	assert.Less(t, opt.calculateFitness(overloaded), opt.calculateFitness(single))
}

func TestFitnessTooEarlyTier(t *testing.T) {
	m := newSingleLineModel(t, map[string]int{"2026-03-02": 5})
	// 承诺日期在第 17 天，订单级最早桶为 17-7=10
	m.AddSalesOrder(&domain.SalesOrder{
		OrderNumber: "SO-001", ProductID: "FL001",
		PromiseDate: testStart.AddDate(0, 0, 17),
		Quantity:    5, CustomerPriority: "High", Operations: []string{"OP1"},
	})

	opt, err := New(m, testConfig())
	require.NoError(t, err)

	tooEarly := Individual{
		"SO-001": {BucketIndex: 3, Operations: map[string]string{"OP1": "Line_A"}},
	}

	// 命中订单约束档（固定 50000），不走普通的早交/晚交评分路径
	assert.Equal(t, 100000.0-opt.cfg.ConstraintViolationPenalty, opt.calculateFitness(tooEarly))
}

func TestFitnessNeverNegative(t *testing.T) {
	m := newSingleLineModel(t, map[string]int{"2026-03-02": 5})
	for _, orderNumber := range []string{"SO-001", "SO-002", "SO-003"} {
		m.AddSalesOrder(&domain.SalesOrder{
			OrderNumber: orderNumber, ProductID: "FL001", PromiseDate: testStart,
			Quantity: 5, CustomerPriority: "High", Operations: []string{"OP1"},
		})
	}

	opt, err := New(m, testConfig())
	require.NoError(t, err)

	// 三张订单都排在全局下限之前，总惩罚远超 100000
	past := Individual{
		"SO-001": {BucketIndex: -1, Operations: map[string]string{"OP1": "Line_A"}},
		"SO-002": {BucketIndex: -1, Operations: map[string]string{"OP1": "Line_A"}},
		"SO-003": {BucketIndex: -1, Operations: map[string]string{"OP1": "Line_A"}},
	}
	assert.Equal(t, 0.0, opt.calculateFitness(past))
}

func TestFitnessHistoryMonotonic(t *testing.T) {
	m := newSingleLineModel(t, map[string]int{
		"2026-03-02": 5, "2026-03-03": 5, "2026-03-04": 5, "2026-03-05": 5,
	})
	for i, orderNumber := range []string{"SO-001", "SO-002", "SO-003", "SO-004"} {
		m.AddSalesOrder(&domain.SalesOrder{
			OrderNumber: orderNumber, ProductID: "FL001",
			PromiseDate: testStart.AddDate(0, 0, i),
			Quantity:    5, CustomerPriority: "High", Operations: []string{"OP1"},
		})
	}

	opt, err := New(m, testConfig())
	require.NoError(t, err)

	result, err := opt.Optimize()
	require.NoError(t, err)

	require.Len(t, result.FitnessHistory, opt.cfg.Generations)
	for i := 1; i < len(result.FitnessHistory); i++ {
		assert.GreaterOrEqual(t, result.FitnessHistory[i], result.FitnessHistory[i-1])
	}
	assert.Equal(t, result.FitnessHistory[len(result.FitnessHistory)-1], result.FinalFitness)
}

func TestCancelBeforeOptimize(t *testing.T) {
	m := newSingleLineModel(t, map[string]int{"2026-03-02": 5})
	m.AddSalesOrder(&domain.SalesOrder{
		OrderNumber: "SO-001", ProductID: "FL001", PromiseDate: testStart,
		Quantity: 5, CustomerPriority: "High", Operations: []string{"OP1"},
	})

	opt, err := New(m, testConfig())
	require.NoError(t, err)

	opt.Cancel()
	assert.True(t, opt.IsCancelled())

	result, err := opt.Optimize()
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Nil(t, result)
}

func TestCancelDuringOptimize(t *testing.T) {
	m := newSingleLineModel(t, map[string]int{"2026-03-02": 5})
	m.AddSalesOrder(&domain.SalesOrder{
		OrderNumber: "SO-001", ProductID: "FL001", PromiseDate: testStart,
		Quantity: 5, CustomerPriority: "High", Operations: []string{"OP1"},
	})

	cfg := testConfig()
	cfg.Generations = 100000
	opt, err := New(m, cfg)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := opt.Optimize()
		done <- err
	}()

	opt.Cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrCancelled)
	case <-time.After(30 * time.Second):
		t.Fatal("取消后优化循环没有及时退出")
	}
}

func TestCloneIsDeep(t *testing.T) {
	original := Individual{
		"SO-001": {BucketIndex: 3, Operations: map[string]string{"OP1": "Line_A"}},
	}

	cloned := original.Clone()
	cloned["SO-001"].Operations["OP1"] = "Line_B"

	assert.Equal(t, "Line_A", original["SO-001"].Operations["OP1"])
}

func TestUsageTrackerDeductsAssignments(t *testing.T) {
	m := newSingleLineModel(t, map[string]int{"2026-03-02": 5})
	m.AddSalesOrder(&domain.SalesOrder{
		OrderNumber: "SO-001", ProductID: "FL001", PromiseDate: testStart,
		Quantity: 3, CustomerPriority: "High", Operations: []string{"OP1"},
	})

	opt, err := New(m, testConfig())
	require.NoError(t, err)

	ind := Individual{
		"SO-001": {BucketIndex: 0, Operations: map[string]string{"OP1": "Line_A"}},
	}

	tracker := opt.usageTrackerFor(ind)
	assert.Equal(t, 2, tracker.remainingAt("Line_A", 0))
}
