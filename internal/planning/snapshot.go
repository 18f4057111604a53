package planning

import (
	"time"

	"github.com/smartmfg-dev/order-planner/backend/internal/domain"
)

// Snapshot: 模型的 JSON 形态，用于 API 请求载荷和 Redis 快照存储。
// 字段为空的部分在还原时直接跳过。
type Snapshot struct {
	PlanningStartDate    time.Time `json:"planningStartDate"`
	HorizonDays          int       `json:"horizonDays"`
	BucketDays           int       `json:"bucketDays"`
	MinEarlyDeliveryDays int       `json:"minEarlyDeliveryDays"`

	Products              []*domain.Product                  `json:"products"`
	LineRestrictions      []*domain.LineRestriction          `json:"lineRestrictions"`
	Operations            []*domain.Operation                `json:"operations"`
	SalesOrders           []*domain.SalesOrder               `json:"salesOrders"`
	PenaltyRules          []*domain.PenaltyRule              `json:"penaltyRules"`
	ComponentAvailability []*domain.ComponentAvailability    `json:"componentAvailability"`
	PriorityCriteria      []*domain.PriorityDeliveryCriteria `json:"priorityDeliveryCriteria"`
}

// BuildModel 把快照还原成可供优化器使用的模型
func (s *Snapshot) BuildModel() *Model {
	m := NewModel(s.PlanningStartDate, s.HorizonDays, s.BucketDays, s.MinEarlyDeliveryDays)

	for _, p := range s.Products {
		m.AddProduct(p)
	}
	for _, lr := range s.LineRestrictions {
		m.AddLineRestriction(lr)
	}
	for _, op := range s.Operations {
		m.AddOperation(op)
	}
	for _, so := range s.SalesOrders {
		m.AddSalesOrder(so)
	}
	for _, pr := range s.PenaltyRules {
		m.AddPenaltyRule(pr)
	}
	for _, ca := range s.ComponentAvailability {
		m.AddComponentAvailability(ca)
	}
	for _, c := range s.PriorityCriteria {
		m.AddPriorityCriteria(c)
	}

	return m
}

// Snapshot 导出模型当前装载的全部实体，列表按各自的键排序，保证序列化结果稳定
func (m *Model) Snapshot() *Snapshot {
	s := &Snapshot{
		PlanningStartDate:    m.planningStart,
		HorizonDays:          m.calendar.Len() * m.calendar.BucketDays(),
		BucketDays:           m.calendar.BucketDays(),
		MinEarlyDeliveryDays: m.minEarlyDeliveryDays,
	}

	for _, id := range sortedKeys(m.products) {
		s.Products = append(s.Products, m.products[id])
	}
	for _, name := range m.LineNames() {
		s.LineRestrictions = append(s.LineRestrictions, m.lineRestrictions[name])
	}
	for _, id := range sortedKeys(m.operations) {
		s.Operations = append(s.Operations, m.operations[id])
	}
	for _, number := range m.OrderNumbers() {
		s.SalesOrders = append(s.SalesOrders, m.salesOrders[number])
	}
	for _, key := range sortedKeys(m.penaltyRules) {
		s.PenaltyRules = append(s.PenaltyRules, m.penaltyRules[key])
	}
	for _, id := range m.ComponentIDs() {
		s.ComponentAvailability = append(s.ComponentAvailability, m.componentAvailability[id])
	}

	m.criteriaMu.Lock()
	criteriaKeys := sortedKeys(m.configuredCriteria)
	for _, key := range criteriaKeys {
		s.PriorityCriteria = append(s.PriorityCriteria, m.configuredCriteria[key])
	}
	m.criteriaMu.Unlock()

	return s
}
