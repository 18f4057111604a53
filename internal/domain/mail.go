package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// OptimizationFinishedMailData: 优化任务进入终态后通知计划员所用的数据
type OptimizationFinishedMailData struct {
	FullName     string  `json:"fullName"`
	JobID        string  `json:"jobID"`
	Status       string  `json:"status"`
	FinalFitness float64 `json:"finalFitness"`
	Generations  int     `json:"generations"`
	Error        string  `json:"error"`
}
