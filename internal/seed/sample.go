package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/smartmfg-dev/order-planner/backend/internal/domain"
	"github.com/smartmfg-dev/order-planner/backend/internal/planning"
)

// 叉车制造示例数据集：五种产品、六条产线、四道标准工序、六种组件。
// 用于 cmd/seed 和生成示例场景的接口，方便在没有真实订单簿的环境里演示优化。

var sampleProducts = []*domain.Product{
	{ProductID: "FL001", Name: "Electric Forklift 2T", Description: "2-ton electric forklift with 3m lift height"},
	{ProductID: "FL002", Name: "Diesel Forklift 3T", Description: "3-ton diesel forklift for outdoor use"},
	{ProductID: "FL003", Name: "Electric Reach Truck", Description: "Electric reach truck for warehouse operations"},
	{ProductID: "FL004", Name: "Diesel Forklift 5T", Description: "5-ton heavy-duty diesel forklift"},
	{ProductID: "FL005", Name: "Electric Pallet Jack", Description: "Electric pallet jack for light operations"},
}

var sampleLines = []struct {
	name        string
	penaltyCost float64
}{
	{"Assembly_A", 500.0},
	{"Assembly_B", 600.0},
	{"Welding_Line1", 300.0},
	{"Welding_Line2", 350.0},
	{"Paint_Line", 400.0},
	{"Testing_Station", 200.0},
}

var sampleOperations = []*domain.Operation{
	{OperationID: "0010", PrimaryLine: "Welding_Line1", AlternateLines: []string{"Welding_Line2"}},
	{OperationID: "0020", PrimaryLine: "Assembly_A", AlternateLines: []string{"Assembly_B"}},
	{OperationID: "0030", PrimaryLine: "Paint_Line", AlternateLines: []string{}},
	{OperationID: "0040", PrimaryLine: "Testing_Station", AlternateLines: []string{}},
}

var sampleComponents = []string{"Engine", "Chassis", "Hydraulics", "Electronics", "Tires", "Battery"}

// GenerateSampleModel 构造一个装载好示例数据的排产模型。
// rng 由调用方传入，固定种子可以得到可复现的示例场景。
func GenerateSampleModel(planningStart time.Time, horizonDays, bucketDays, minEarlyDeliveryDays, orderCount int, rng *rand.Rand) *planning.Model {
	m := planning.NewModel(planningStart, horizonDays, bucketDays, minEarlyDeliveryDays)

	for _, p := range sampleProducts {
		m.AddProduct(p)
	}

	for _, line := range sampleLines {
		m.AddLineRestriction(&domain.LineRestriction{
			Name:        line.name,
			Validity:    true,
			PenaltyCost: line.penaltyCost,
			Capacity:    generateDailyCapacity(m.Calendar(), rng),
		})
	}

	for _, op := range sampleOperations {
		m.AddOperation(op)
	}

	for _, component := range sampleComponents {
		m.AddComponentAvailability(&domain.ComponentAvailability{
			ComponentID:  component,
			Availability: generateComponentAvailability(m.Calendar(), rng),
		})
	}

	// 惩罚规则按 (优先级, 产品) 全组合生成
	for _, priority := range []string{"High", "Medium", "Low"} {
		var lateDeliveryPenalty, noFulfillmentPenalty float64
		switch priority {
		case "High":
			lateDeliveryPenalty, noFulfillmentPenalty = 100.0, 1000.0
		case "Medium":
			lateDeliveryPenalty, noFulfillmentPenalty = 50.0, 500.0
		default:
			lateDeliveryPenalty, noFulfillmentPenalty = 25.0, 200.0
		}

		for _, p := range sampleProducts {
			m.AddPenaltyRule(&domain.PenaltyRule{
				CustomerPriority:     priority,
				ProductID:            p.ProductID,
				LateDeliveryPenalty:  lateDeliveryPenalty,
				NoFulfillmentPenalty: noFulfillmentPenalty,
			})
		}
	}

	generateSampleSalesOrders(m, planningStart, orderCount, rng)

	return m
}

// generateDailyCapacity 为一条产线生成逐桶产能：周末停产，
// 5% 概率是检修日，10% 概率产能缩减，其余为正常产能
func generateDailyCapacity(calendar *planning.Calendar, rng *rand.Rand) map[string]int {
	capacity := make(map[string]int, calendar.Len())

	for _, bucket := range calendar.Buckets() {
		if bucket.Weekend {
			capacity[bucket.Date] = 0
			continue
		}

		switch random := rng.Float64(); {
		case random < 0.05:
			capacity[bucket.Date] = 0
		case random < 0.15:
			capacity[bucket.Date] = rng.Intn(3) + 1
		default:
			capacity[bucket.Date] = rng.Intn(5) + 3
		}
	}

	return capacity
}

// generateComponentAvailability 生成组件的逐桶可用量：周末为 0，
// 10% 概率缺货，其余 10~39
func generateComponentAvailability(calendar *planning.Calendar, rng *rand.Rand) map[string]int {
	availability := make(map[string]int, calendar.Len())

	for _, bucket := range calendar.Buckets() {
		if bucket.Weekend || rng.Float64() < 0.1 {
			availability[bucket.Date] = 0
			continue
		}
		availability[bucket.Date] = rng.Intn(30) + 10
	}

	return availability
}

func generateSampleSalesOrders(m *planning.Model, planningStart time.Time, orderCount int, rng *rand.Rand) {
	priorities := []string{"High", "Medium", "Low"}

	for i := 1; i <= orderCount; i++ {
		product := sampleProducts[rng.Intn(len(sampleProducts))]
		qty := rng.Intn(5) + 1
		revenue := (rng.Float64()*35000 + 15000) * float64(qty)

		// 承诺日期在计划开始后 7~83 天
		daysFromNow := rng.Intn(77) + 7

		components := map[string]int{
			"Engine":      qty,
			"Chassis":     qty,
			"Hydraulics":  qty * 2,
			"Electronics": qty,
			"Tires":       qty * 4,
			"Battery":     0,
		}
		// 电动车型液压需求减半、需要电池
		switch product.ProductID {
		case "FL001", "FL003":
			components["Hydraulics"] = qty
			components["Battery"] = qty
		case "FL005":
			components["Battery"] = qty
		}

		m.AddSalesOrder(&domain.SalesOrder{
			OrderNumber:      fmt.Sprintf("SO%04d", i),
			ProductID:        product.ProductID,
			PromiseDate:      planningStart.AddDate(0, 0, daysFromNow),
			Quantity:         qty,
			Revenue:          revenue,
			Cost:             revenue * (rng.Float64()*0.2 + 0.6),
			CustomerPriority: priorities[rng.Intn(len(priorities))],
			Operations:       []string{"0010", "0020", "0030", "0040"},
			Components:       components,
		})
	}
}
