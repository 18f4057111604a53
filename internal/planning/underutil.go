package planning

import "math"

// UnderUtilizationConfig: 产能闲置惩罚的调校参数。
// 近期桶用高惩罚线性衰减，远期桶用指数衰减，
// 目的是让优化器避免近期产能闲置而把订单无谓地往后推。
type UnderUtilizationConfig struct {
	BaseNearTermPenalty   float64 `json:"baseNearTermPenalty"`
	BaseFutureTermPenalty float64 `json:"baseFutureTermPenalty"`
	NearTermDays          int     `json:"nearTermDays"`
	DecayRate             float64 `json:"decayRate"`
	TargetUtilizationRate float64 `json:"targetUtilizationRate"`
	MinCapacityThreshold  int     `json:"minCapacityThreshold"`
}

func DefaultUnderUtilizationConfig() UnderUtilizationConfig {
	return UnderUtilizationConfig{
		BaseNearTermPenalty:   25.0,
		BaseFutureTermPenalty: 2.0,
		NearTermDays:          30,
		DecayRate:             0.95,
		TargetUtilizationRate: 0.70,
		MinCapacityThreshold:  1,
	}
}

// UnderUtilizationPenalty 计算某个桶上某条产线的闲置惩罚。
// 利用率达到目标值或产能不超过最小阈值时为 0。
func (m *Model) UnderUtilizationPenalty(bucket, actualUsage, maxCapacity int) float64 {
	if maxCapacity <= m.underUtil.MinCapacityThreshold {
		return 0
	}

	utilizationRate := float64(actualUsage) / float64(maxCapacity)
	targetRate := m.underUtil.TargetUtilizationRate
	if utilizationRate >= targetRate {
		return 0
	}

	underUtilization := targetRate - utilizationRate

	var penaltyMultiplier float64
	if bucket <= m.underUtil.NearTermDays {
		// 近期：高惩罚，随距离线性衰减
		daysFactor := float64(m.underUtil.NearTermDays-bucket) / float64(m.underUtil.NearTermDays)
		penaltyMultiplier = m.underUtil.BaseNearTermPenalty * daysFactor
	} else {
		// 远期：低基数，指数衰减
		daysFromNearTerm := bucket - m.underUtil.NearTermDays
		penaltyMultiplier = m.underUtil.BaseFutureTermPenalty *
			math.Pow(m.underUtil.DecayRate, float64(daysFromNearTerm)/10)
	}

	return underUtilization * float64(maxCapacity) * penaltyMultiplier
}
