package planning

import "fmt"

// CapacityValidation: 优化前的产能校验结果。OK 为 false 时不允许启动优化，
// CriticalIssues 需要展示给用户。
type CapacityValidation struct {
	OK                  bool     `json:"ok"`
	Issues              []string `json:"issues"`
	CriticalIssues      []string `json:"criticalIssues"`
	TotalLines          int      `json:"totalLines"`
	ZeroCapacityLines   int      `json:"zeroCapacityLines"`
	NullCapacityLines   int      `json:"nullCapacityLines"`
	HasAnyValidCapacity bool     `json:"hasAnyValidCapacity"`
}

// ValidateCapacity 扫描所有产线约束，判断模型是否具备可用产能。
// 无副作用，必须在构造优化器之前调用。
func (m *Model) ValidateCapacity() *CapacityValidation {
	result := &CapacityValidation{
		OK:             true,
		Issues:         []string{},
		CriticalIssues: []string{},
	}

	for _, name := range m.LineNames() {
		lr := m.lineRestrictions[name]
		result.TotalLines++

		if len(lr.Capacity) == 0 {
			result.NullCapacityLines++
			result.CriticalIssues = append(result.CriticalIssues, fmt.Sprintf("产线 %q 没有任何产能数据", name))
			continue
		}

		if !lr.HasAnyPositiveCapacity() {
			result.ZeroCapacityLines++
			result.CriticalIssues = append(result.CriticalIssues, fmt.Sprintf("产线 %q 在所有时间桶的产能均为零", name))
			continue
		}

		result.HasAnyValidCapacity = true

		zeroBuckets := 0
		for _, bucket := range m.calendar.Buckets() {
			if lr.CapacityOn(bucket.Date) <= 0 {
				zeroBuckets++
			}
		}
		if zeroBuckets > 0 {
			result.Issues = append(result.Issues, fmt.Sprintf("产线 %q 有 %d 个时间桶产能为零", name, zeroBuckets))
		}
	}

	switch {
	case result.TotalLines == 0:
		result.OK = false
		result.CriticalIssues = append(result.CriticalIssues, "未定义任何产线约束")
	case !result.HasAnyValidCapacity:
		result.OK = false
		result.CriticalIssues = append(result.CriticalIssues, "所有产线都没有正产能，无法进行优化")
	case result.ZeroCapacityLines+result.NullCapacityLines == result.TotalLines:
		result.OK = false
		result.CriticalIssues = append(result.CriticalIssues, "所有产线的产能均为零或缺失，无法进行优化")
	}

	return result
}
