package optimizer

import (
	"math"

	"github.com/smartmfg-dev/order-planner/backend/internal/planning"
)

const fitnessBase = 100000.0

type bucketUsage map[string]map[int]int // 产线 -> 桶 -> 已占用数量

// calculateFitness 评估一个个体：fitness = max(0, 100000 - 总惩罚)。
// 纯函数，只读模型，可以安全地对不同个体并发调用。
func (o *Optimizer) calculateFitness(individual Individual) float64 {
	totalPenalty := 0.0
	usage := make(bucketUsage)
	calendar := o.model.Calendar()
	earliestBucket := o.model.EarliestSchedulableBucket()

	severeViolations := 0
	totalViolations := 0

	for _, orderNumber := range o.orderKeys {
		assignment, ok := individual[orderNumber]
		if !ok {
			continue
		}
		order, ok := o.model.Order(orderNumber)
		if !ok {
			continue
		}

		bucket := assignment.BucketIndex

		// 往过去排产：最高档惩罚，该订单不再参与后续评分
		if bucket < earliestBucket {
			totalPenalty += o.cfg.PastSchedulingPenalty
			continue
		}
		if bucket < o.model.EarliestSchedulableBucketForOrder(orderNumber) {
			totalPenalty += o.cfg.ConstraintViolationPenalty
			continue
		}
		if bucket >= calendar.Len() {
			totalPenalty += o.cfg.BeyondHorizonPenalty
			continue
		}

		scheduledDate, _ := calendar.DateOf(bucket)
		daysDifference := planning.DaysBetween(order.PromiseDate, scheduledDate)
		criteria := o.model.PriorityCriteriaFor(order.CustomerPriority)

		switch {
		case daysDifference > 0:
			weeksLate := daysDifference / 7
			if weeksLate < 1 {
				weeksLate = 1
			}

			// 容忍范围内的延迟也轻微扣分，避免无谓的推后
			totalPenalty += float64(weeksLate) * o.cfg.UnnecessaryDelayPenalty

			if daysDifference > criteria.MaxDelayDays {
				excessDays := daysDifference - criteria.MaxDelayDays
				totalPenalty += float64(excessDays) * o.cfg.ExcessDelayUnitPenalty * criteria.PenaltyMultiplier
			}

			if rule, ok := o.model.PenaltyRule(order.CustomerPriority, order.ProductID); ok {
				// 超线性增长，延迟越久惩罚越陡
				totalPenalty += rule.LateDeliveryPenalty * math.Pow(float64(weeksLate+1), 1.5) * criteria.PenaltyMultiplier
			}
		case daysDifference == 0:
			totalPenalty -= o.cfg.PerfectTimingBonus
		case daysDifference >= -o.model.MinEarlyDeliveryDays():
			bonus := 30.0 - math.Abs(float64(daysDifference))
			if bonus < 10 {
				bonus = 10
			}
			totalPenalty -= bonus
		default:
			weeksTooEarly := (-daysDifference + 6) / 7
			totalPenalty += o.cfg.TooEarlyWeekPenalty * float64(weeksTooEarly)
		}

		// 产能超限惩罚：按 (产线, 桶) 累计占用
		for _, line := range assignment.Operations {
			if usage[line] == nil {
				usage[line] = make(map[int]int)
			}
			usage[line][bucket] += order.Quantity

			capacity := o.model.CapacityOf(line, bucket)
			if used := usage[line][bucket]; used > capacity {
				excess := used - capacity
				if lr, ok := o.model.LineRestriction(line); ok {
					totalPenalty += lr.PenaltyCost * math.Pow(float64(excess), 1.5)
				}
				totalViolations += excess

				if excess >= capacity {
					severeViolations++
					totalPenalty += o.cfg.SevereViolationPenalty
				}
			}
		}

		// 组件缺口惩罚
		for component, requiredQty := range order.Components {
			available := o.model.ComponentAvailabilityAt(component, bucket)
			if requiredQty > available {
				totalPenalty += float64(requiredQty-available) * o.cfg.ComponentShortagePenalty
			}
		}
	}

	if o.cfg.EnableUnderUtilizationPenalty && calendar.BucketDays() == 1 {
		totalPenalty += o.underUtilizationPenalty(usage) * o.cfg.UnderUtilizationWeight
	}

	if severeViolations > 0 {
		totalPenalty += float64(severeViolations) * o.cfg.SevereViolationExtra
	}
	if totalViolations > o.cfg.AggregateViolationThreshold {
		totalPenalty += float64(totalViolations) * o.cfg.AggregateViolationUnitPenalty
	}

	return math.Max(0, fitnessBase-totalPenalty)
}

// underUtilizationPenalty 汇总近期窗口内所有产线的闲置惩罚（仅日桶模型）
func (o *Optimizer) underUtilizationPenalty(usage bucketUsage) float64 {
	total := 0.0
	horizon := o.model.Calendar().Len()
	if o.cfg.UnderUtilizationHorizonDays > 0 && o.cfg.UnderUtilizationHorizonDays < horizon {
		horizon = o.cfg.UnderUtilizationHorizonDays
	}

	for _, line := range o.model.LineNames() {
		for bucket := 0; bucket < horizon; bucket++ {
			maxCapacity := o.model.CapacityOf(line, bucket)
			if maxCapacity <= 0 {
				continue
			}
			total += o.model.UnderUtilizationPenalty(bucket, usage[line][bucket], maxCapacity)
		}
	}

	return total
}
