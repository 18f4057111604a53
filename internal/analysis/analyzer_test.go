package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartmfg-dev/order-planner/backend/internal/domain"
	"github.com/smartmfg-dev/order-planner/backend/internal/optimizer"
	"github.com/smartmfg-dev/order-planner/backend/internal/planning"
)

var testStart = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func newTestAnalyzer(t *testing.T) (*Analyzer, *planning.Model) {
	t.Helper()
	m := planning.NewModel(testStart, 60, 1, 7)
	m.SetEvaluationTime(testStart)
	m.AddLineRestriction(&domain.LineRestriction{
		Name:        "Assembly_A",
		Validity:    true,
		PenaltyCost: 500,
		Capacity:    map[string]int{"2026-03-02": 5, "2026-03-09": 5},
	})
	m.AddOperation(&domain.Operation{OperationID: "0010", PrimaryLine: "Assembly_A"})
	m.AddPenaltyRule(&domain.PenaltyRule{
		CustomerPriority: "High", ProductID: "FL001", LateDeliveryPenalty: 100,
	})
	return New(m), m
}

func addOrder(m *planning.Model, orderNumber string, promiseOffsetDays, qty int) {
	m.AddSalesOrder(&domain.SalesOrder{
		OrderNumber:      orderNumber,
		ProductID:        "FL001",
		PromiseDate:      testStart.AddDate(0, 0, promiseOffsetDays),
		Quantity:         qty,
		Revenue:          10000,
		CustomerPriority: "High",
		Operations:       []string{"0010"},
		Components:       map[string]int{"Engine": qty},
	})
}

func TestAnalyzeSolutionClassification(t *testing.T) {
	a, m := newTestAnalyzer(t)
	addOrder(m, "SO-ONTIME", 0, 5)   // 排在承诺日当天
	addOrder(m, "SO-EARLY", 10, 5)   // 提前 3 天，在允许窗口内
	addOrder(m, "SO-LATE", 0, 5)     // 延迟 7 天
	addOrder(m, "SO-INVALID", 0, 5)  // 排到全局下限之前
	addOrder(m, "SO-TOOEARLY", 20, 5) // 早于订单级最早桶

	solution := optimizer.Individual{
		"SO-ONTIME":   {BucketIndex: 0, Operations: map[string]string{"0010": "Assembly_A"}},
		"SO-EARLY":    {BucketIndex: 7, Operations: map[string]string{"0010": "Assembly_A"}},
		"SO-LATE":     {BucketIndex: 7, Operations: map[string]string{"0010": "Assembly_A"}},
		"SO-INVALID":  {BucketIndex: -2, Operations: map[string]string{"0010": "Assembly_A"}},
		"SO-TOOEARLY": {BucketIndex: 3, Operations: map[string]string{"0010": "Assembly_A"}},
	}

	analysis := a.AnalyzeSolution(solution)

	assert.Equal(t, 1, analysis.OrdersOnTime)
	assert.Equal(t, 1, analysis.OrdersEarly)
	assert.Equal(t, 1, analysis.OrdersLate)
	assert.Equal(t, 1, analysis.OrdersTooEarly)
	assert.Equal(t, 1, analysis.InvalidAssignments)
	assert.Equal(t, 3, analysis.TotalValidOrders)
	assert.InDelta(t, 33.3, analysis.OnTimePercentage, 0.1)

	// 延迟 7 天命中惩罚规则：100 × (7/7 + 1) = 200
	assert.Equal(t, 200.0, analysis.TotalPenalty)

	byNumber := make(map[string]OrderResult)
	for _, result := range analysis.OrderResults {
		byNumber[result.OrderNumber] = result
	}

	assert.Equal(t, "2026-03-02", byNumber["SO-ONTIME"].ScheduledDate)
	assert.True(t, byNumber["SO-EARLY"].IsEarly)
	assert.Equal(t, -3, byNumber["SO-EARLY"].DelayDays)
	assert.True(t, byNumber["SO-LATE"].IsLate)
	assert.Equal(t, 7, byNumber["SO-LATE"].DelayDays)
	assert.Equal(t, invalidScheduledDate, byNumber["SO-INVALID"].ScheduledDate)
	assert.True(t, byNumber["SO-INVALID"].IsInvalid)
	assert.Equal(t, tooEarlyScheduledDate, byNumber["SO-TOOEARLY"].ScheduledDate)
	assert.True(t, byNumber["SO-TOOEARLY"].IsTooEarly)

	// 非法排产的订单不计入产能占用
	assert.Equal(t, 10, analysis.CapacityUsage["Assembly_A"]["2026-03-09"])
	assert.Equal(t, 5, analysis.CapacityUsage["Assembly_A"]["2026-03-02"])
	assert.Equal(t, 10, analysis.ComponentUsage["Engine"]["2026-03-09"])
}

func TestGenerateComparisonReport(t *testing.T) {
	a, m := newTestAnalyzer(t)
	addOrder(m, "SO-001", 0, 5)
	addOrder(m, "SO-002", 0, 5)
	addOrder(m, "SO-003", 0, 5)

	// 两单准时、一单延迟 7 天，三单挤占同一天的产能（15 > 5）
	solution := optimizer.Individual{
		"SO-001": {BucketIndex: 0, Operations: map[string]string{"0010": "Assembly_A"}},
		"SO-002": {BucketIndex: 0, Operations: map[string]string{"0010": "Assembly_A"}},
		"SO-003": {BucketIndex: 7, Operations: map[string]string{"0010": "Assembly_A"}},
	}

	analysis := a.AnalyzeSolution(solution)
	report := a.GenerateComparisonReport(analysis)

	assert.Equal(t, 3, report.Summary.TotalOrders)
	assert.Equal(t, 2, report.Summary.OrdersOnTime)
	assert.Equal(t, 1, report.Summary.OrdersLate)

	assert.Equal(t, 7.0, report.PerformanceMetrics.AverageDelay)
	assert.Equal(t, 7, report.PerformanceMetrics.MaximumDelay)
	assert.Equal(t, 10000.0, report.PerformanceMetrics.TotalRevenueAtRisk)
	assert.Equal(t, 30000.0, report.PerformanceMetrics.TotalRevenue)
	assert.Equal(t, 100.0, report.PerformanceMetrics.FulfillmentRate)

	high, ok := report.PriorityBreakdown["High"]
	require.True(t, ok)
	assert.Equal(t, 3, high.TotalOrders)
	assert.Equal(t, 1, high.LateOrders)
	assert.InDelta(t, 66.7, high.OnTimeRate, 0.1)

	line, ok := report.CapacityUtilization["Assembly_A"]
	require.True(t, ok)
	assert.Equal(t, 10, line.MaxUsage)
	assert.Equal(t, 15, line.TotalUsage)
	require.Len(t, line.Violations, 1)
	assert.Equal(t, "2026-03-02", line.Violations[0].Date)
	assert.Equal(t, 5, line.Violations[0].Excess)

	assert.Equal(t, 2, report.DeliveryTiming.PerfectTiming)
	assert.Equal(t, 1, report.DeliveryTiming.WithinOneWeek)
}
