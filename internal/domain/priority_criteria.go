package domain

// PriorityDeliveryCriteria: 某个客户优先级允许的最大延迟天数与惩罚倍数
type PriorityDeliveryCriteria struct {
	CustomerPriority  string  `json:"customerPriority"`
	MaxDelayDays      int     `json:"maxDelayDays"`
	PenaltyMultiplier float64 `json:"penaltyMultiplier"`
	Description       string  `json:"description"`
}
