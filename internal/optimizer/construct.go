package optimizer

import (
	"sort"

	"github.com/smartmfg-dev/order-planner/backend/internal/domain"
	"github.com/smartmfg-dev/order-planner/backend/internal/planning"
)

// sortedOrdersBySeverity 按优先级严格程度排序订单：
// 允许延迟天数小的在前，其次惩罚倍数大的在前，最后按承诺日期升序。
// 越苛刻的订单越先挑选产能。
func (o *Optimizer) sortedOrdersBySeverity() []*domain.SalesOrder {
	orders := make([]*domain.SalesOrder, 0, len(o.orderKeys))
	for _, orderNumber := range o.orderKeys {
		if order, ok := o.model.Order(orderNumber); ok {
			orders = append(orders, order)
		}
	}

	sort.SliceStable(orders, func(i, j int) bool {
		ci := o.model.PriorityCriteriaFor(orders[i].CustomerPriority)
		cj := o.model.PriorityCriteriaFor(orders[j].CustomerPriority)

		if ci.MaxDelayDays != cj.MaxDelayDays {
			return ci.MaxDelayDays < cj.MaxDelayDays
		}
		if ci.PenaltyMultiplier != cj.PenaltyMultiplier {
			return ci.PenaltyMultiplier > cj.PenaltyMultiplier
		}
		return orders[i].PromiseDate.Before(orders[j].PromiseDate)
	})

	return orders
}

// targetBucketFor 计算订单的目标桶：承诺日期所在的桶；承诺日期早于日历时
// 退化为最早可排产桶再往后一周。结果不早于订单级下限。
func (o *Optimizer) targetBucketFor(order *domain.SalesOrder) int {
	calendar := o.model.Calendar()
	orderEarliest := o.model.EarliestSchedulableBucketForOrder(order.OrderNumber)

	target := calendar.IndexOf(order.PromiseDate)
	if planning.DaysBetween(calendar.Start(), order.PromiseDate) < 0 {
		fallback := o.model.EarliestSchedulableBucket() + 7/calendar.BucketDays()
		if fallback < orderEarliest {
			fallback = orderEarliest
		}
		target = fallback
	}

	if target < orderEarliest {
		target = orderEarliest
	}
	return target
}

// constructIndividual 产能感知的贪心播种：每张订单从目标桶向两侧搜索第一个
// 所有工序都放得下的桶，找不到就退化为目标桶加随机产线（交给适应度惩罚，
// 绝不丢单）。每次构造使用全新的 tracker。
func (o *Optimizer) constructIndividual() Individual {
	individual := make(Individual, len(o.orderKeys))
	tracker := newCapacityTracker(o.model)
	calendar := o.model.Calendar()

	for _, order := range o.sortedOrdersBySeverity() {
		target := o.targetBucketFor(order)

		// 一部分个体对目标桶做随机抖动，保持种群多样性
		if o.rng.Float64() >= o.cfg.PromiseDatePreference && o.cfg.TimingVarianceDays > 0 {
			variance := o.cfg.TimingVarianceDays / calendar.BucketDays()
			if variance > 0 {
				target += o.rng.Intn(2*variance+1) - variance
			}
			if earliest := o.model.EarliestSchedulableBucketForOrder(order.OrderNumber); target < earliest {
				target = earliest
			}
		}

		if bucket, operations, ok := o.findBestAvailableBucket(order, target, tracker); ok {
			assignment := Assignment{BucketIndex: bucket, Operations: operations}
			individual[order.OrderNumber] = assignment
			tracker.take(order, assignment)
		} else {
			individual[order.OrderNumber] = Assignment{
				BucketIndex: target,
				Operations:  o.randomOperationsAssignment(order),
			}
		}
	}

	return individual
}

// findBestAvailableBucket 从目标桶开始向两侧逐步扩大搜索（目标、±1、±2 …），
// 窗口为 [订单最早桶, 目标 + 最大允许延迟 + 一周余量]，
// 返回第一个全部工序都有足够剩余产能的桶。
func (o *Optimizer) findBestAvailableBucket(order *domain.SalesOrder, target int, tracker *capacityTracker) (int, map[string]string, bool) {
	calendar := o.model.Calendar()
	criteria := o.model.PriorityCriteriaFor(order.CustomerPriority)

	searchStart := o.model.EarliestSchedulableBucketForOrder(order.OrderNumber)
	searchEnd := target + (criteria.MaxDelayDays+7)/calendar.BucketDays()
	if last := calendar.Len() - 1; searchEnd > last {
		searchEnd = last
	}

	tryBucket := func(bucket int) (map[string]string, bool) {
		if bucket < searchStart || bucket > searchEnd {
			return nil, false
		}
		return o.findCapacityForBucket(order, bucket, tracker)
	}

	if operations, ok := tryBucket(target); ok {
		return target, operations, true
	}

	maxOffset := target - searchStart
	if right := searchEnd - target; right > maxOffset {
		maxOffset = right
	}
	for offset := 1; offset <= maxOffset; offset++ {
		if operations, ok := tryBucket(target - offset); ok {
			return target - offset, operations, true
		}
		if operations, ok := tryBucket(target + offset); ok {
			return target + offset, operations, true
		}
	}

	return -1, nil, false
}

// findCapacityForBucket 尝试把订单的所有工序放进指定桶：每道工序依次试
// 主产线和备选产线，要求剩余产能容得下整单数量。任何一道工序放不下都算失败。
// 引用了未知工序的订单按无可用产线处理，不会中断整个构造过程。
func (o *Optimizer) findCapacityForBucket(order *domain.SalesOrder, bucket int, tracker *capacityTracker) (map[string]string, bool) {
	assignment := make(map[string]string, len(order.Operations))

	for _, operationID := range order.Operations {
		operation, ok := o.model.Operation(operationID)
		if !ok {
			return nil, false
		}

		lineFound := false
		for _, line := range operation.CandidateLines() {
			if tracker.remainingAt(line, bucket) >= order.Quantity {
				assignment[operationID] = line
				lineFound = true
				break
			}
		}
		if !lineFound {
			return nil, false
		}
	}

	return assignment, true
}

// randomOperationsAssignment 为每道工序随机挑一条候选产线，不检查产能
func (o *Optimizer) randomOperationsAssignment(order *domain.SalesOrder) map[string]string {
	assignment := make(map[string]string, len(order.Operations))

	for _, operationID := range order.Operations {
		operation, ok := o.model.Operation(operationID)
		if !ok {
			continue
		}
		lines := operation.CandidateLines()
		assignment[operationID] = lines[o.rng.Intn(len(lines))]
	}

	return assignment
}
