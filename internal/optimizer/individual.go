package optimizer

// Assignment: 单个订单的排产决策
type Assignment struct {
	BucketIndex int               `json:"bucketIndex"`
	Operations  map[string]string `json:"operationsAssignment"` // 工序 ID -> 产线名
}

func (a Assignment) clone() Assignment {
	operations := make(map[string]string, len(a.Operations))
	for operationID, line := range a.Operations {
		operations[operationID] = line
	}
	return Assignment{
		BucketIndex: a.BucketIndex,
		Operations:  operations,
	}
}

// Individual: 一个完整的候选排程，订单号 -> 排产决策。
// 在一代中完成适应度评估后不再修改，晋级下一代（精英保留）或作为父本时必须深拷贝。
type Individual map[string]Assignment

// Clone 深拷贝整个个体，防止繁殖过程中基因被共享修改
func (ind Individual) Clone() Individual {
	cloned := make(Individual, len(ind))
	for orderNumber, assignment := range ind {
		cloned[orderNumber] = assignment.clone()
	}
	return cloned
}
