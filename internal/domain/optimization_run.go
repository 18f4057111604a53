package domain

import "time"

// OptimizationRun: 一次优化任务的持久化记录，保存最优解和适应度曲线，
// 供前端在任务结束后继续查询历史结果
type OptimizationRun struct {
	ID             int64             `json:"id"`
	ScenarioID     int64             `json:"scenarioId"`
	JobID          string            `json:"jobId"`
	Status         string            `json:"status"`
	FinalFitness   float64           `json:"finalFitness"`
	FitnessHistory []float64         `json:"fitnessHistory"`
	Assignments    []OrderAssignment `json:"assignments"`
	CreatedAt      time.Time         `json:"createdAt"`
	Version        int32             `json:"-"`
}

// OrderAssignment: 最优解中单个订单的排产决定
type OrderAssignment struct {
	OrderNumber string            `json:"orderNumber"`
	BucketDate  string            `json:"bucketDate"`
	Operations  map[string]string `json:"operationsAssignment"` // 工序 -> 产线
}
