package analysis

import (
	"math"
	"sort"

	"github.com/smartmfg-dev/order-planner/backend/internal/optimizer"
	"github.com/smartmfg-dev/order-planner/backend/internal/planning"
)

// Analyzer 把优化器输出的最优个体翻译成人可读的统计报表。
// 只读模型，不参与优化本身。
type Analyzer struct {
	model *planning.Model
}

func New(model *planning.Model) *Analyzer {
	return &Analyzer{model: model}
}

// OrderResult: 单张订单的排产结论
type OrderResult struct {
	OrderNumber      string  `json:"orderNumber"`
	ProductID        string  `json:"productId"`
	CustomerPriority string  `json:"customerPriority"`
	PromiseDate      string  `json:"originalPromiseDate"`
	ScheduledDate    string  `json:"optimizedScheduledDate"`
	BucketIndex      int     `json:"bucketIndex"`
	DelayDays        int     `json:"delayDays"`
	IsLate           bool    `json:"isLate"`
	IsEarly          bool    `json:"isEarly"`
	IsTooEarly       bool    `json:"isTooEarly"`
	IsInvalid        bool    `json:"isInvalid"`
	Quantity         int     `json:"orderQty"`
	Revenue          float64 `json:"revenue"`
}

// SolutionAnalysis: 一个解的完整分析结果
type SolutionAnalysis struct {
	OrderResults       []OrderResult             `json:"orderResults"`
	CapacityUsage      map[string]map[string]int `json:"capacityUsage"`  // 产线 -> 日期 -> 占用
	ComponentUsage     map[string]map[string]int `json:"componentUsage"` // 组件 -> 日期 -> 占用
	TotalPenalty       float64                   `json:"totalPenalty"`
	OrdersOnTime       int                       `json:"ordersOnTime"`
	OrdersLate         int                       `json:"ordersLate"`
	OrdersEarly        int                       `json:"ordersEarly"`
	OrdersTooEarly     int                       `json:"ordersTooEarly"`
	InvalidAssignments int                       `json:"invalidAssignments"`
	TotalValidOrders   int                       `json:"totalValidOrders"`
	OnTimePercentage   float64                   `json:"onTimePercentage"`
	PlanningStartDate  string                    `json:"planningStartDate"`
}

const (
	invalidScheduledDate  = "INVALID - PAST DATE"
	tooEarlyScheduledDate = "TOO EARLY - VIOLATES CONSTRAINT"
)

// AnalyzeSolution 逐单分类最优解：准时、可接受的早交、延迟、过早、非法排产，
// 同时按 (产线, 日期) 和 (组件, 日期) 聚合占用量。
func (a *Analyzer) AnalyzeSolution(solution optimizer.Individual) *SolutionAnalysis {
	calendar := a.model.Calendar()
	earliestBucket := a.model.EarliestSchedulableBucket()

	analysis := &SolutionAnalysis{
		OrderResults:      []OrderResult{},
		CapacityUsage:     make(map[string]map[string]int),
		ComponentUsage:    make(map[string]map[string]int),
		PlanningStartDate: a.model.PlanningStart().Format("2006-01-02"),
	}

	for _, orderNumber := range sortedOrderNumbers(solution) {
		assignment := solution[orderNumber]
		order, ok := a.model.Order(orderNumber)
		if !ok {
			analysis.InvalidAssignments++
			continue
		}

		result := OrderResult{
			OrderNumber:      orderNumber,
			ProductID:        order.ProductID,
			CustomerPriority: order.CustomerPriority,
			PromiseDate:      order.PromiseDate.Format("2006-01-02"),
			BucketIndex:      assignment.BucketIndex,
			Quantity:         order.Quantity,
			Revenue:          order.Revenue,
		}

		// 非法排产：早于全局下限
		if assignment.BucketIndex < earliestBucket {
			analysis.InvalidAssignments++
			result.ScheduledDate = invalidScheduledDate
			result.IsLate = true
			result.IsInvalid = true
			analysis.OrderResults = append(analysis.OrderResults, result)
			continue
		}

		// 违反订单级约束：早于订单最早可排产桶
		if assignment.BucketIndex < a.model.EarliestSchedulableBucketForOrder(orderNumber) {
			analysis.OrdersTooEarly++
			result.ScheduledDate = tooEarlyScheduledDate
			result.IsTooEarly = true
			result.IsInvalid = true
			analysis.OrderResults = append(analysis.OrderResults, result)
			continue
		}

		scheduledDate, ok := calendar.DateOf(assignment.BucketIndex)
		if !ok {
			analysis.InvalidAssignments++
			continue
		}

		delayDays := planning.DaysBetween(order.PromiseDate, scheduledDate)
		result.ScheduledDate = scheduledDate.Format("2006-01-02")
		result.DelayDays = delayDays
		result.IsLate = delayDays > 0
		result.IsEarly = delayDays < 0 && -delayDays <= a.model.MinEarlyDeliveryDays()
		result.IsTooEarly = delayDays < -a.model.MinEarlyDeliveryDays()

		switch {
		case result.IsLate:
			analysis.OrdersLate++
			if rule, ok := a.model.PenaltyRule(order.CustomerPriority, order.ProductID); ok {
				analysis.TotalPenalty += rule.LateDeliveryPenalty * float64(delayDays/7+1)
			}
		case result.IsEarly:
			analysis.OrdersEarly++
		case delayDays == 0:
			analysis.OrdersOnTime++
		}

		dateKey := result.ScheduledDate
		for _, line := range assignment.Operations {
			if analysis.CapacityUsage[line] == nil {
				analysis.CapacityUsage[line] = make(map[string]int)
			}
			analysis.CapacityUsage[line][dateKey] += order.Quantity
		}
		for component, requiredQty := range order.Components {
			if analysis.ComponentUsage[component] == nil {
				analysis.ComponentUsage[component] = make(map[string]int)
			}
			analysis.ComponentUsage[component][dateKey] += requiredQty
		}

		analysis.OrderResults = append(analysis.OrderResults, result)
	}

	analysis.TotalValidOrders = analysis.OrdersOnTime + analysis.OrdersLate + analysis.OrdersEarly
	if analysis.TotalValidOrders > 0 {
		analysis.OnTimePercentage = float64(analysis.OrdersOnTime) / float64(analysis.TotalValidOrders) * 100
	}

	return analysis
}

// ComparisonReport: 面向计划员的汇总报表
type ComparisonReport struct {
	Summary             ReportSummary              `json:"summary"`
	PerformanceMetrics  PerformanceMetrics         `json:"performanceMetrics"`
	PriorityBreakdown   map[string]PriorityStats   `json:"priorityBreakdown"`
	CapacityUtilization map[string]LineUtilization `json:"capacityUtilization"`
	DeliveryTiming      DeliveryTiming             `json:"deliveryTiming"`
}

type ReportSummary struct {
	TotalOrders        int     `json:"totalOrders"`
	ValidAssignments   int     `json:"validAssignments"`
	InvalidAssignments int     `json:"invalidAssignments"`
	OrdersTooEarly     int     `json:"ordersTooEarly"`
	OrdersOnTime       int     `json:"ordersOnTime"`
	OrdersEarly        int     `json:"ordersEarly"`
	OrdersLate         int     `json:"ordersLate"`
	OnTimePercentage   float64 `json:"onTimePercentage"`
	TotalPenalty       float64 `json:"totalPenalty"`
	PlanningStartDate  string  `json:"planningStartDate"`
}

type PerformanceMetrics struct {
	AverageDelay         float64 `json:"averageDelay"`
	MaximumDelay         int     `json:"maximumDelay"`
	AverageEarlyDelivery float64 `json:"averageEarlyDelivery"`
	TotalRevenueAtRisk   float64 `json:"totalRevenueAtRisk"`
	TotalRevenue         float64 `json:"totalRevenue"`
	FulfillmentRate      float64 `json:"fulfillmentRate"`
}

type PriorityStats struct {
	TotalOrders   int     `json:"totalOrders"`
	LateOrders    int     `json:"lateOrders"`
	OnTimeOrders  int     `json:"onTimeOrders"`
	OnTimeRate    float64 `json:"onTimeRate"`
	AverageDelay  float64 `json:"averageDelay"`
	MaximumDelay  int     `json:"maximumDelay"`
	TotalRevenue  float64 `json:"totalRevenue"`
	RevenueAtRisk float64 `json:"revenueAtRisk"`
}

type CapacityViolation struct {
	Date     string `json:"date"`
	Capacity int    `json:"capacity"`
	Usage    int    `json:"usage"`
	Excess   int    `json:"excess"`
}

type LineUtilization struct {
	MaxUsage           int                 `json:"maxUsage"`
	TotalUsage         int                 `json:"totalUsage"`
	TotalCapacity      int                 `json:"totalCapacity"`
	AverageUtilization float64             `json:"averageUtilization"`
	ViolationCount     int                 `json:"violationCount"`
	Violations         []CapacityViolation `json:"violations"`
}

type DeliveryTiming struct {
	PerfectTiming  int `json:"perfectTiming"`
	WithinOneWeek  int `json:"withinOneWeek"`  // |延迟| 不超过 7 天
	WithinTwoWeeks int `json:"withinTwoWeeks"` // |延迟| 不超过 14 天
}

// GenerateComparisonReport 在逐单分析之上做二次聚合
func (a *Analyzer) GenerateComparisonReport(analysis *SolutionAnalysis) *ComparisonReport {
	report := &ComparisonReport{
		Summary: ReportSummary{
			TotalOrders:        len(analysis.OrderResults),
			ValidAssignments:   analysis.TotalValidOrders,
			InvalidAssignments: analysis.InvalidAssignments,
			OrdersTooEarly:     analysis.OrdersTooEarly,
			OrdersOnTime:       analysis.OrdersOnTime,
			OrdersEarly:        analysis.OrdersEarly,
			OrdersLate:         analysis.OrdersLate,
			OnTimePercentage:   analysis.OnTimePercentage,
			TotalPenalty:       analysis.TotalPenalty,
			PlanningStartDate:  analysis.PlanningStartDate,
		},
		PriorityBreakdown:   make(map[string]PriorityStats),
		CapacityUtilization: make(map[string]LineUtilization),
	}

	lateDelaySum := 0
	earlySum := 0
	lateCount := 0
	earlyCount := 0

	for _, result := range analysis.OrderResults {
		if result.IsInvalid {
			continue
		}

		report.PerformanceMetrics.TotalRevenue += result.Revenue
		if result.IsLate {
			lateCount++
			lateDelaySum += result.DelayDays
			report.PerformanceMetrics.TotalRevenueAtRisk += result.Revenue
			if result.DelayDays > report.PerformanceMetrics.MaximumDelay {
				report.PerformanceMetrics.MaximumDelay = result.DelayDays
			}
		}
		if result.IsEarly {
			earlyCount++
			earlySum += -result.DelayDays
		}

		// 按客户优先级分组
		stats := report.PriorityBreakdown[result.CustomerPriority]
		stats.TotalOrders++
		stats.TotalRevenue += result.Revenue
		if result.IsLate {
			stats.LateOrders++
			stats.RevenueAtRisk += result.Revenue
			stats.AverageDelay += float64(result.DelayDays)
			if result.DelayDays > stats.MaximumDelay {
				stats.MaximumDelay = result.DelayDays
			}
		} else {
			stats.OnTimeOrders++
		}
		report.PriorityBreakdown[result.CustomerPriority] = stats

		// 交付时效分布
		absDelay := int(math.Abs(float64(result.DelayDays)))
		switch {
		case result.DelayDays == 0:
			report.DeliveryTiming.PerfectTiming++
		case absDelay <= 7:
			report.DeliveryTiming.WithinOneWeek++
		case absDelay <= 14:
			report.DeliveryTiming.WithinTwoWeeks++
		}
	}

	if lateCount > 0 {
		report.PerformanceMetrics.AverageDelay = float64(lateDelaySum) / float64(lateCount)
	}
	if earlyCount > 0 {
		report.PerformanceMetrics.AverageEarlyDelivery = float64(earlySum) / float64(earlyCount)
	}
	if total := len(analysis.OrderResults); total > 0 {
		report.PerformanceMetrics.FulfillmentRate = float64(analysis.TotalValidOrders) / float64(total) * 100
	}

	for priority, stats := range report.PriorityBreakdown {
		if stats.LateOrders > 0 {
			stats.AverageDelay /= float64(stats.LateOrders)
		}
		stats.OnTimeRate = float64(stats.OnTimeOrders) / float64(stats.TotalOrders) * 100
		report.PriorityBreakdown[priority] = stats
	}

	for line, dailyUsage := range analysis.CapacityUsage {
		lr, ok := a.model.LineRestriction(line)
		if !ok {
			continue
		}

		utilization := LineUtilization{Violations: []CapacityViolation{}}
		for date, usage := range dailyUsage {
			utilization.TotalUsage += usage
			if usage > utilization.MaxUsage {
				utilization.MaxUsage = usage
			}
			if capacity := lr.CapacityOn(date); usage > capacity {
				utilization.Violations = append(utilization.Violations, CapacityViolation{
					Date:     date,
					Capacity: capacity,
					Usage:    usage,
					Excess:   usage - capacity,
				})
			}
		}
		sort.Slice(utilization.Violations, func(i, j int) bool {
			return utilization.Violations[i].Date < utilization.Violations[j].Date
		})
		utilization.ViolationCount = len(utilization.Violations)

		for _, capacity := range lr.Capacity {
			if capacity > 0 {
				utilization.TotalCapacity += capacity
			}
		}
		if utilization.TotalCapacity > 0 {
			utilization.AverageUtilization = float64(utilization.TotalUsage) / float64(utilization.TotalCapacity) * 100
		}

		report.CapacityUtilization[line] = utilization
	}

	return report
}

func sortedOrderNumbers(solution optimizer.Individual) []string {
	numbers := make([]string, 0, len(solution))
	for number := range solution {
		numbers = append(numbers, number)
	}
	sort.Strings(numbers)
	return numbers
}
