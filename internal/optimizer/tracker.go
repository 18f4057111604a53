package optimizer

import (
	"github.com/smartmfg-dev/order-planner/backend/internal/domain"
	"github.com/smartmfg-dev/order-planner/backend/internal/planning"
)

// capacityTracker: 产线 -> 各时间桶的剩余产能，构造个体和变异时作为一次性
// 草稿结构使用，不会回写模型，也绝不跨优化运行共享。
type capacityTracker struct {
	remaining map[string][]int
}

// newCapacityTracker 从模型中有效的产线约束初始化剩余产能
func newCapacityTracker(m *planning.Model) *capacityTracker {
	calendar := m.Calendar()
	remaining := make(map[string][]int)

	for _, name := range m.LineNames() {
		lr, _ := m.LineRestriction(name)
		if !lr.Validity {
			continue
		}

		capacities := make([]int, calendar.Len())
		for i := range capacities {
			capacities[i] = m.CapacityOf(name, i)
		}
		remaining[name] = capacities
	}

	return &capacityTracker{remaining: remaining}
}

// remainingAt 返回产线在指定桶的剩余产能，未知产线或越界的桶视为 0
func (t *capacityTracker) remainingAt(line string, bucket int) int {
	capacities, ok := t.remaining[line]
	if !ok || bucket < 0 || bucket >= len(capacities) {
		return 0
	}
	return capacities[bucket]
}

func (t *capacityTracker) adjust(line string, bucket, delta int) {
	capacities, ok := t.remaining[line]
	if !ok || bucket < 0 || bucket >= len(capacities) {
		return
	}
	capacities[bucket] += delta
}

// take 扣减一笔排产决策占用的产能，give 是它的严格逆操作，
// 两者先后执行后 tracker 必须恢复原状
func (t *capacityTracker) take(order *domain.SalesOrder, a Assignment) {
	for _, line := range a.Operations {
		t.adjust(line, a.BucketIndex, -order.Quantity)
	}
}

func (t *capacityTracker) give(order *domain.SalesOrder, a Assignment) {
	for _, line := range a.Operations {
		t.adjust(line, a.BucketIndex, order.Quantity)
	}
}

// usageTrackerFor 重建某个个体当前的产能占用视图：
// 从满产能出发，把个体中每个订单的占用都扣掉
func (o *Optimizer) usageTrackerFor(ind Individual) *capacityTracker {
	tracker := newCapacityTracker(o.model)

	for orderNumber, assignment := range ind {
		order, ok := o.model.Order(orderNumber)
		if !ok {
			continue
		}
		tracker.take(order, assignment)
	}

	return tracker
}
