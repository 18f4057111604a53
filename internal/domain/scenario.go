package domain

import "time"

// PlanningScenario: 一次排产的输入数据集（订单簿 + 产线产能 + 规则）的元信息，
// 明细数据由 repository 按 scenario id 另行读写
type PlanningScenario struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	PlanningStartDate    time.Time `json:"planningStartDate"`
	MinEarlyDeliveryDays int       `json:"minEarlyDeliveryDays"`
	BucketDays           int       `json:"bucketDays"` // 1 = 日桶, 7 = 周桶
	HorizonDays          int       `json:"horizonDays"`
	CreatedAt            time.Time `json:"createdAt"`
	Version              int32     `json:"-"`
}
