package domain

// LineRestriction: 产线约束，Capacity 的 key 为时间桶的日期（YYYY-MM-DD）
type LineRestriction struct {
	Name        string         `json:"restrictionName"`
	Validity    bool           `json:"validity"`
	PenaltyCost float64        `json:"penaltyCost"` // 每超出一单位产能的惩罚成本
	Capacity    map[string]int `json:"capacity"`
}

// CapacityOn 返回指定日期的产能，未知日期视为 0
func (lr *LineRestriction) CapacityOn(date string) int {
	if lr.Capacity == nil {
		return 0
	}
	return lr.Capacity[date]
}

// HasAnyPositiveCapacity 判断该产线是否存在任意一个产能为正的时间桶
func (lr *LineRestriction) HasAnyPositiveCapacity() bool {
	for _, capacity := range lr.Capacity {
		if capacity > 0 {
			return true
		}
	}
	return false
}
