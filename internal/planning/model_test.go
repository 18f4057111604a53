package planning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartmfg-dev/order-planner/backend/internal/domain"
)

var testStart = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	m := NewModel(testStart, 365, 1, 7)
	m.now = func() time.Time { return testStart }
	return m
}

func TestAddSalesOrderClampsPastPromiseDate(t *testing.T) {
	m := newTestModel(t)
	m.AddSalesOrder(&domain.SalesOrder{
		OrderNumber: "SO-001",
		PromiseDate: testStart.AddDate(0, 0, -10),
	})

	so, ok := m.Order("SO-001")
	require.True(t, ok)
	assert.Equal(t, testStart.AddDate(0, 0, 7), so.PromiseDate)
}

func TestEarliestSchedulableBucketForOrder(t *testing.T) {
	m := newTestModel(t)
	m.AddSalesOrder(&domain.SalesOrder{
		OrderNumber: "SO-001",
		PromiseDate: testStart.AddDate(0, 0, 30),
	})
	m.AddSalesOrder(&domain.SalesOrder{
		OrderNumber: "SO-002",
		PromiseDate: testStart.AddDate(0, 0, 3),
	})

	// 承诺日期减最小提前窗口
	assert.Equal(t, 23, m.EarliestSchedulableBucketForOrder("SO-001"))

	// 提前窗口越过计划起始日时钳制到起始桶
	assert.Equal(t, 0, m.EarliestSchedulableBucketForOrder("SO-002"))

	// 未知订单退回全局下限
	assert.Equal(t, m.EarliestSchedulableBucket(), m.EarliestSchedulableBucketForOrder("SO-999"))
}

func TestEarliestSchedulableBucketNeverBeforeNow(t *testing.T) {
	m := newTestModel(t)
	m.now = func() time.Time { return testStart.AddDate(0, 0, 40) }
	m.AddSalesOrder(&domain.SalesOrder{
		OrderNumber: "SO-001",
		PromiseDate: testStart.AddDate(0, 0, 30),
	})

	// 当前时间已超过承诺日期，下限跟随当前时间
	assert.Equal(t, 40, m.EarliestSchedulableBucket())
	assert.Equal(t, 40, m.EarliestSchedulableBucketForOrder("SO-001"))
}

func TestPriorityCriteriaKeywordTiers(t *testing.T) {
	m := newTestModel(t)

	tests := []struct {
		priority     string
		maxDelayDays int
		multiplier   float64
	}{
		{"Critical", 0, 5.0},
		{"URGENT - line down", 0, 5.0},
		{"High", 0, 3.0},
		{"important customer", 0, 3.0},
		{"Medium", 7, 2.0},
		{"standard", 7, 2.0},
		{"Low", 14, 1.0},
		{"ship when possible", 14, 1.0},
		{"未知档位", 7, 2.0},
	}
	for _, tt := range tests {
		c := m.PriorityCriteriaFor(tt.priority)
		assert.Equal(t, tt.maxDelayDays, c.MaxDelayDays, tt.priority)
		assert.Equal(t, tt.multiplier, c.PenaltyMultiplier, tt.priority)
	}

	// 未命中任何关键词时给出默认描述
	assert.Equal(t, "Default criteria", m.PriorityCriteriaFor("未知档位").Description)
}

func TestPriorityCriteriaMemoized(t *testing.T) {
	m := newTestModel(t)

	first := m.PriorityCriteriaFor("High")
	second := m.PriorityCriteriaFor("High")
	assert.Same(t, first, second)
}

func TestPriorityCriteriaConfiguredWins(t *testing.T) {
	m := newTestModel(t)
	configured := &domain.PriorityDeliveryCriteria{
		CustomerPriority:  "High",
		MaxDelayDays:      3,
		PenaltyMultiplier: 9.0,
	}
	m.AddPriorityCriteria(configured)

	assert.Same(t, configured, m.PriorityCriteriaFor("High"))
}

func TestCapacityAndComponentLookups(t *testing.T) {
	m := newTestModel(t)
	m.AddLineRestriction(&domain.LineRestriction{
		Name:     "Assembly_A",
		Validity: true,
		Capacity: map[string]int{"2026-03-02": 5, "2026-03-03": 3},
	})
	m.AddComponentAvailability(&domain.ComponentAvailability{
		ComponentID:  "Engine",
		Availability: map[string]int{"2026-03-02": 10},
	})

	assert.Equal(t, 5, m.CapacityOf("Assembly_A", 0))
	assert.Equal(t, 3, m.CapacityOf("Assembly_A", 1))
	assert.Equal(t, 0, m.CapacityOf("Assembly_A", 2))
	assert.Equal(t, 0, m.CapacityOf("Assembly_A", -1))
	assert.Equal(t, 0, m.CapacityOf("未知产线", 0))

	assert.Equal(t, 10, m.ComponentAvailabilityAt("Engine", 0))
	assert.Equal(t, 0, m.ComponentAvailabilityAt("Engine", 1))
	assert.Equal(t, 0, m.ComponentAvailabilityAt("Chassis", 0))
}

func TestValidateCapacity(t *testing.T) {
	t.Run("无产线", func(t *testing.T) {
		m := newTestModel(t)
		v := m.ValidateCapacity()
		assert.False(t, v.OK)
		assert.NotEmpty(t, v.CriticalIssues)
	})

	t.Run("全部产能为零", func(t *testing.T) {
		m := newTestModel(t)
		m.AddLineRestriction(&domain.LineRestriction{Name: "Assembly_A", Capacity: map[string]int{"2026-03-02": 0}})
		m.AddLineRestriction(&domain.LineRestriction{Name: "Assembly_B"})

		v := m.ValidateCapacity()
		assert.False(t, v.OK)
		assert.Equal(t, 2, v.TotalLines)
		assert.Equal(t, 1, v.ZeroCapacityLines)
		assert.Equal(t, 1, v.NullCapacityLines)
		assert.False(t, v.HasAnyValidCapacity)
	})

	t.Run("存在可用产能", func(t *testing.T) {
		m := newTestModel(t)
		m.AddLineRestriction(&domain.LineRestriction{Name: "Assembly_A", Capacity: map[string]int{"2026-03-02": 5}})
		m.AddLineRestriction(&domain.LineRestriction{Name: "Assembly_B", Capacity: map[string]int{"2026-03-02": 0}})

		v := m.ValidateCapacity()
		assert.True(t, v.OK)
		assert.True(t, v.HasAnyValidCapacity)
		assert.Equal(t, 1, v.ZeroCapacityLines)
	})
}

func TestUnderUtilizationPenalty(t *testing.T) {
	m := newTestModel(t)

	// 利用率达标时不惩罚
	assert.Zero(t, m.UnderUtilizationPenalty(5, 7, 10))
	assert.Zero(t, m.UnderUtilizationPenalty(5, 10, 10))

	// 产能不超过最小阈值时不惩罚
	assert.Zero(t, m.UnderUtilizationPenalty(5, 0, 1))

	// 近期闲置的惩罚随桶下标递减
	near := m.UnderUtilizationPenalty(0, 0, 10)
	later := m.UnderUtilizationPenalty(20, 0, 10)
	assert.Greater(t, near, later)
	assert.Greater(t, later, 0.0)

	// 远期进入指数衰减区，惩罚远小于近期
	far := m.UnderUtilizationPenalty(120, 0, 10)
	assert.Greater(t, later, far)
	assert.Greater(t, far, 0.0)
}

func TestSnapshotRoundTrip(t *testing.T) {
	m := newTestModel(t)
	m.AddProduct(&domain.Product{ProductID: "FL001", Name: "Standard Forklift"})
	m.AddLineRestriction(&domain.LineRestriction{Name: "Assembly_A", Validity: true, Capacity: map[string]int{"2026-03-02": 5}})
	m.AddOperation(&domain.Operation{OperationID: "0010", PrimaryLine: "Assembly_A"})
	m.AddSalesOrder(&domain.SalesOrder{OrderNumber: "SO-001", ProductID: "FL001", PromiseDate: testStart.AddDate(0, 0, 30), Operations: []string{"0010"}})
	m.AddPenaltyRule(&domain.PenaltyRule{CustomerPriority: "High", ProductID: "FL001", LateDeliveryPenalty: 100})
	m.AddComponentAvailability(&domain.ComponentAvailability{ComponentID: "Engine", Availability: map[string]int{"2026-03-02": 10}})
	m.AddPriorityCriteria(&domain.PriorityDeliveryCriteria{CustomerPriority: "High", MaxDelayDays: 0, PenaltyMultiplier: 3.0})

	s := m.Snapshot()
	restored := s.BuildModel()

	assert.Equal(t, m.OrderNumbers(), restored.OrderNumbers())
	assert.Equal(t, m.LineNames(), restored.LineNames())
	assert.Equal(t, m.ComponentIDs(), restored.ComponentIDs())
	assert.Equal(t, m.ProductCount(), restored.ProductCount())
	assert.Equal(t, m.Calendar().Len(), restored.Calendar().Len())

	pr, ok := restored.PenaltyRule("High", "FL001")
	require.True(t, ok)
	assert.Equal(t, 100.0, pr.LateDeliveryPenalty)

	assert.Equal(t, 3.0, restored.PriorityCriteriaFor("High").PenaltyMultiplier)
}
