package domain

import "time"

// SalesOrder: 销售订单，加载时创建，除交付承诺日期的前移修正外不再变更
type SalesOrder struct {
	OrderNumber      string         `json:"orderNumber"`
	ProductID        string         `json:"productId"`
	PromiseDate      time.Time      `json:"orderPromiseDate"`
	Quantity         int            `json:"orderQty"`
	Revenue          float64        `json:"revenue"`
	Cost             float64        `json:"cost"`
	CustomerPriority string         `json:"customerPriority"` // 自由文本，不是固定枚举
	Operations       []string       `json:"operations"`
	Components       map[string]int `json:"components"` // 组件 ID -> 需求数量
}
