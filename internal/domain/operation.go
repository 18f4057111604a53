package domain

// Operation: 工序，主产线加上若干备选产线
type Operation struct {
	OperationID    string   `json:"operationId"`
	PrimaryLine    string   `json:"primaryLineRestriction"`
	AlternateLines []string `json:"alternateLineRestrictions"`
}

// CandidateLines 按优先级返回可用产线（主产线在前）
func (op *Operation) CandidateLines() []string {
	lines := make([]string, 0, len(op.AlternateLines)+1)
	lines = append(lines, op.PrimaryLine)
	lines = append(lines, op.AlternateLines...)
	return lines
}
