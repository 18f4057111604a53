package planning

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/smartmfg-dev/order-planner/backend/internal/domain"
)

// Model: 一次排产所需的全部实体数据和查询入口。
// 优化运行期间模型是只读快照，优化器不会修改它；Add 系列方法只在装载阶段使用。
type Model struct {
	planningStart        time.Time
	minEarlyDeliveryDays int
	calendar             *Calendar

	products              map[string]*domain.Product
	lineRestrictions      map[string]*domain.LineRestriction
	operations            map[string]*domain.Operation
	salesOrders           map[string]*domain.SalesOrder
	penaltyRules          map[string]*domain.PenaltyRule
	componentAvailability map[string]*domain.ComponentAvailability

	// 用户配置的优先级准则与系统推导出来的默认准则分开存放，
	// 推导结果只写入 derivedCriteria，保证两类来源不会混在一起
	configuredCriteria map[string]*domain.PriorityDeliveryCriteria
	derivedCriteria    map[string]*domain.PriorityDeliveryCriteria
	criteriaMu         sync.Mutex

	underUtil UnderUtilizationConfig

	now func() time.Time
}

func NewModel(planningStart time.Time, horizonDays, bucketDays, minEarlyDeliveryDays int) *Model {
	if planningStart.IsZero() {
		planningStart = time.Now()
	}
	if minEarlyDeliveryDays < 0 {
		minEarlyDeliveryDays = 0
	}

	return &Model{
		planningStart:        truncateToDay(planningStart),
		minEarlyDeliveryDays: minEarlyDeliveryDays,
		calendar:             NewCalendar(planningStart, horizonDays, bucketDays),

		products:              make(map[string]*domain.Product),
		lineRestrictions:      make(map[string]*domain.LineRestriction),
		operations:            make(map[string]*domain.Operation),
		salesOrders:           make(map[string]*domain.SalesOrder),
		penaltyRules:          make(map[string]*domain.PenaltyRule),
		componentAvailability: make(map[string]*domain.ComponentAvailability),

		configuredCriteria: make(map[string]*domain.PriorityDeliveryCriteria),
		derivedCriteria:    make(map[string]*domain.PriorityDeliveryCriteria),

		underUtil: DefaultUnderUtilizationConfig(),

		now: time.Now,
	}
}

func (m *Model) Calendar() *Calendar {
	return m.calendar
}

func (m *Model) PlanningStart() time.Time {
	return m.planningStart
}

func (m *Model) MinEarlyDeliveryDays() int {
	return m.minEarlyDeliveryDays
}

func (m *Model) SetUnderUtilizationConfig(cfg UnderUtilizationConfig) {
	m.underUtil = cfg
}

// SetEvaluationTime 固定模型的"当前时间"，用于测试和历史场景重放；
// 传零值恢复为实时时钟
func (m *Model) SetEvaluationTime(t time.Time) {
	if t.IsZero() {
		m.now = time.Now
		return
	}
	m.now = func() time.Time { return t }
}

func (m *Model) AddProduct(p *domain.Product) {
	m.products[p.ProductID] = p
}

func (m *Model) AddLineRestriction(lr *domain.LineRestriction) {
	if lr.Capacity == nil {
		lr.Capacity = make(map[string]int)
	}
	m.lineRestrictions[lr.Name] = lr
}

func (m *Model) AddOperation(op *domain.Operation) {
	m.operations[op.OperationID] = op
}

// AddSalesOrder 装载一张销售订单。承诺日期早于当前时间的订单会被前移修正为
// 当前时间加最小提前交付窗口，此后订单不再变更。
func (m *Model) AddSalesOrder(so *domain.SalesOrder) {
	if so.PromiseDate.Before(m.now()) {
		so.PromiseDate = truncateToDay(m.now().AddDate(0, 0, m.minEarlyDeliveryDays))
	}
	m.salesOrders[so.OrderNumber] = so
}

func (m *Model) AddPenaltyRule(pr *domain.PenaltyRule) {
	m.penaltyRules[domain.PenaltyRuleKey(pr.CustomerPriority, pr.ProductID)] = pr
}

func (m *Model) AddComponentAvailability(ca *domain.ComponentAvailability) {
	if ca.Availability == nil {
		ca.Availability = make(map[string]int)
	}
	m.componentAvailability[ca.ComponentID] = ca
}

// AddPriorityCriteria 记录用户配置的优先级准则，优先于系统推导的默认值
func (m *Model) AddPriorityCriteria(c *domain.PriorityDeliveryCriteria) {
	m.criteriaMu.Lock()
	defer m.criteriaMu.Unlock()
	m.configuredCriteria[c.CustomerPriority] = c
}

func (m *Model) Product(productID string) (*domain.Product, bool) {
	p, ok := m.products[productID]
	return p, ok
}

func (m *Model) ProductCount() int {
	return len(m.products)
}

func (m *Model) Order(orderNumber string) (*domain.SalesOrder, bool) {
	so, ok := m.salesOrders[orderNumber]
	return so, ok
}

func (m *Model) OrderCount() int {
	return len(m.salesOrders)
}

// OrderNumbers 返回排好序的订单号列表，交叉等遗传算子依赖这个稳定顺序
func (m *Model) OrderNumbers() []string {
	numbers := make([]string, 0, len(m.salesOrders))
	for number := range m.salesOrders {
		numbers = append(numbers, number)
	}
	sort.Strings(numbers)
	return numbers
}

func (m *Model) Operation(operationID string) (*domain.Operation, bool) {
	op, ok := m.operations[operationID]
	return op, ok
}

func (m *Model) LineRestriction(name string) (*domain.LineRestriction, bool) {
	lr, ok := m.lineRestrictions[name]
	return lr, ok
}

func (m *Model) LineRestrictionCount() int {
	return len(m.lineRestrictions)
}

// LineNames 返回排好序的产线名列表
func (m *Model) LineNames() []string {
	names := make([]string, 0, len(m.lineRestrictions))
	for name := range m.lineRestrictions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Model) PenaltyRule(customerPriority, productID string) (*domain.PenaltyRule, bool) {
	pr, ok := m.penaltyRules[domain.PenaltyRuleKey(customerPriority, productID)]
	return pr, ok
}

// CapacityOf 返回产线在指定桶的产能，未知产线或越界的桶视为 0
func (m *Model) CapacityOf(line string, bucket int) int {
	lr, ok := m.lineRestrictions[line]
	if !ok {
		return 0
	}
	date, ok := m.calendar.DateKeyOf(bucket)
	if !ok {
		return 0
	}
	return lr.CapacityOn(date)
}

// ComponentAvailabilityAt 返回组件在指定桶的可用数量，未知组件或越界的桶视为 0
func (m *Model) ComponentAvailabilityAt(component string, bucket int) int {
	ca, ok := m.componentAvailability[component]
	if !ok {
		return 0
	}
	date, ok := m.calendar.DateKeyOf(bucket)
	if !ok {
		return 0
	}
	return ca.AvailableOn(date)
}

// ComponentIDs 返回排好序的组件 ID 列表
func (m *Model) ComponentIDs() []string {
	ids := make([]string, 0, len(m.componentAvailability))
	for id := range m.componentAvailability {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EarliestSchedulableBucket 返回全局最早可排产的桶：包含当前时间的桶，
// 且永远不会小于 0，保证不会往过去排产
func (m *Model) EarliestSchedulableBucket() int {
	return m.calendar.IndexOf(m.now())
}

// EarliestSchedulableBucketForOrder 返回订单级最早可排产桶：
// 承诺日期减去最小提前交付窗口所在的桶，但不早于计划起始日、当前时间和全局下限。
// 未知订单退回全局下限。
func (m *Model) EarliestSchedulableBucketForOrder(orderNumber string) int {
	order, ok := m.salesOrders[orderNumber]
	if !ok {
		return m.EarliestSchedulableBucket()
	}

	constraint := order.PromiseDate.AddDate(0, 0, -m.minEarlyDeliveryDays)
	if m.planningStart.After(constraint) {
		constraint = m.planningStart
	}
	if now := m.now(); now.After(constraint) {
		constraint = now
	}

	bucket := m.calendar.IndexOf(constraint)
	if earliest := m.EarliestSchedulableBucket(); bucket < earliest {
		bucket = earliest
	}
	return bucket
}

// PriorityCriteriaFor 返回某个客户优先级的交付准则。没有显式配置时按关键词
// 推导一个确定性的默认值并缓存，之后的调用总是返回同一个对象（全函数，不会失败）。
func (m *Model) PriorityCriteriaFor(customerPriority string) *domain.PriorityDeliveryCriteria {
	m.criteriaMu.Lock()
	defer m.criteriaMu.Unlock()

	if c, ok := m.configuredCriteria[customerPriority]; ok {
		return c
	}
	if c, ok := m.derivedCriteria[customerPriority]; ok {
		return c
	}

	c := deriveCriteria(customerPriority)
	m.derivedCriteria[customerPriority] = c
	return c
}

// deriveCriteria 按关键词（大小写不敏感）把自由文本的优先级标签归入固定档位
func deriveCriteria(customerPriority string) *domain.PriorityDeliveryCriteria {
	c := &domain.PriorityDeliveryCriteria{
		CustomerPriority:  customerPriority,
		MaxDelayDays:      7,
		PenaltyMultiplier: 2.0,
		Description:       "Default criteria",
	}

	lower := strings.ToLower(customerPriority)
	switch {
	case containsAny(lower, "critical", "urgent", "emergency"):
		c.MaxDelayDays = 0
		c.PenaltyMultiplier = 5.0
		c.Description = "Critical priority - must be on time or early"
	case containsAny(lower, "high", "important", "priority"):
		c.MaxDelayDays = 0
		c.PenaltyMultiplier = 3.0
		c.Description = "High priority - must be on time or early"
	case containsAny(lower, "medium", "normal", "standard"):
		c.MaxDelayDays = 7
		c.PenaltyMultiplier = 2.0
		c.Description = "Medium priority - up to 1 week delay allowed"
	case containsAny(lower, "low", "flexible", "when possible"):
		c.MaxDelayDays = 14
		c.PenaltyMultiplier = 1.0
		c.Description = "Low priority - up to 2 weeks delay allowed"
	}

	return c
}

func containsAny(s string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
