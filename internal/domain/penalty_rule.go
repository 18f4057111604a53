package domain

// PenaltyRule: 以 (客户优先级, 产品) 为键的惩罚规则，缺失时仅应用优先级准则惩罚
type PenaltyRule struct {
	CustomerPriority     string  `json:"customerPriority"`
	ProductID            string  `json:"productId"`
	LateDeliveryPenalty  float64 `json:"lateDeliveryPenalty"`
	NoFulfillmentPenalty float64 `json:"noFulfillmentPenalty"`
}

// PenaltyRuleKey 生成惩罚规则在模型中的查找键
func PenaltyRuleKey(customerPriority, productID string) string {
	return customerPriority + "_" + productID
}
