package domain

// ComponentAvailability: 组件在各时间桶的可用数量，key 为时间桶日期（YYYY-MM-DD）
type ComponentAvailability struct {
	ComponentID  string         `json:"componentId"`
	Availability map[string]int `json:"availability"`
}

// AvailableOn 返回指定日期的可用数量，未知日期视为 0
func (ca *ComponentAvailability) AvailableOn(date string) int {
	if ca.Availability == nil {
		return 0
	}
	return ca.Availability[date]
}
