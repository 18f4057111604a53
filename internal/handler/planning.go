package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/smartmfg-dev/order-planner/backend/internal/analysis"
	"github.com/smartmfg-dev/order-planner/backend/internal/domain"
	"github.com/smartmfg-dev/order-planner/backend/internal/jobs"
	"github.com/smartmfg-dev/order-planner/backend/internal/optimizer"
	"github.com/smartmfg-dev/order-planner/backend/internal/planning"
	"github.com/smartmfg-dev/order-planner/backend/internal/seed"
	"github.com/smartmfg-dev/order-planner/backend/internal/utils"
)

// scenarioCacheEntry: redis 中缓存的场景快照，元信息和明细一起存，
// 避免命中缓存后还要回库补元信息
type scenarioCacheEntry struct {
	Scenario *domain.PlanningScenario `json:"scenario"`
	Snapshot *planning.Snapshot       `json:"snapshot"`
}

func (h *Handler) cacheScenarioSnapshot(scenario *domain.PlanningScenario, snapshot *planning.Snapshot) {
	entry, err := json.Marshal(scenarioCacheEntry{Scenario: scenario, Snapshot: snapshot})
	if err != nil {
		slog.Warn("序列化场景快照失败", "scenarioID", scenario.ID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	key := fmt.Sprintf("scenario_snapshot:%d", scenario.ID)
	if err := h.redisClient.Set(ctx, key, entry, time.Duration(h.config.Redis.SnapshotExpiration)*time.Second).Err(); err != nil {
		// 缓存失败不影响请求本身
		slog.Warn("写入场景快照缓存失败", "scenarioID", scenario.ID, "error", err)
	}
}

func (h *Handler) dropScenarioSnapshot(scenarioID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	if err := h.redisClient.Del(ctx, fmt.Sprintf("scenario_snapshot:%d", scenarioID)).Err(); err != nil {
		slog.Warn("删除场景快照缓存失败", "scenarioID", scenarioID, "error", err)
	}
}

func (h *Handler) GetOptimizationParameters(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "获取优化参数成功", optimizer.DefaultConfig())
}

func (h *Handler) CreateScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string             `json:"name" validate:"required"`
		Description string             `json:"description"`
		Snapshot    *planning.Snapshot `json:"snapshot" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := utils.ValidateSnapshotPayload(req.Snapshot); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	scenario := &domain.PlanningScenario{
		Name:                 req.Name,
		Description:          req.Description,
		PlanningStartDate:    req.Snapshot.PlanningStartDate,
		MinEarlyDeliveryDays: req.Snapshot.MinEarlyDeliveryDays,
		BucketDays:           req.Snapshot.BucketDays,
		HorizonDays:          req.Snapshot.HorizonDays,
	}

	if err := h.repository.CreatePlanningScenario(scenario, req.Snapshot); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.cacheScenarioSnapshot(scenario, req.Snapshot)

	h.successResponse(w, r, "创建排产场景成功", scenario)
}

func (h *Handler) GenerateSampleScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name" validate:"required"`
		Description string `json:"description"`
		OrderCount  *int   `json:"orderCount" validate:"omitempty,gt=0"`
		HorizonDays *int   `json:"horizonDays" validate:"omitempty,gt=0"`
		BucketDays  *int   `json:"bucketDays" validate:"omitempty,oneof=1 7"`
		RandomSeed  int64  `json:"randomSeed"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	orderCount := h.config.Planning.SampleOrderCount
	if req.OrderCount != nil {
		orderCount = *req.OrderCount
	}
	horizonDays := h.config.Planning.HorizonDays
	if req.HorizonDays != nil {
		horizonDays = *req.HorizonDays
	}
	bucketDays := h.config.Planning.BucketDays
	if req.BucketDays != nil {
		bucketDays = *req.BucketDays
	}

	randomSeed := req.RandomSeed
	if randomSeed == 0 {
		randomSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(randomSeed))

	model := seed.GenerateSampleModel(time.Now(), horizonDays, bucketDays, h.config.Planning.MinEarlyDeliveryDays, orderCount, rng)
	snapshot := model.Snapshot()

	scenario := &domain.PlanningScenario{
		Name:                 req.Name,
		Description:          req.Description,
		PlanningStartDate:    snapshot.PlanningStartDate,
		MinEarlyDeliveryDays: snapshot.MinEarlyDeliveryDays,
		BucketDays:           snapshot.BucketDays,
		HorizonDays:          snapshot.HorizonDays,
	}

	if err := h.repository.CreatePlanningScenario(scenario, snapshot); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.cacheScenarioSnapshot(scenario, snapshot)

	h.successResponse(w, r, "生成示例场景成功", scenario)
}

func (h *Handler) GetAllScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := h.repository.GetAllPlanningScenarios()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取场景列表成功", scenarios)
}

func (h *Handler) GetScenario(w http.ResponseWriter, r *http.Request) {
	scenario := r.Context().Value(ScenarioCtx).(*domain.PlanningScenario)
	snapshot := r.Context().Value(SnapshotCtx).(*planning.Snapshot)

	h.successResponse(w, r, "获取场景成功", scenarioCacheEntry{Scenario: scenario, Snapshot: snapshot})
}

func (h *Handler) UpdateScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string            `json:"name"`
		Description *string            `json:"description"`
		Snapshot    *planning.Snapshot `json:"snapshot"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	scenario := r.Context().Value(ScenarioCtx).(*domain.PlanningScenario)
	snapshot := r.Context().Value(SnapshotCtx).(*planning.Snapshot)

	if req.Name != nil {
		scenario.Name = *req.Name
	}
	if req.Description != nil {
		scenario.Description = *req.Description
	}
	if req.Snapshot != nil {
		if err := utils.ValidateSnapshotPayload(req.Snapshot); err != nil {
			h.errorResponse(w, r, err.Error())
			return
		}
		snapshot = req.Snapshot
		scenario.PlanningStartDate = snapshot.PlanningStartDate
		scenario.MinEarlyDeliveryDays = snapshot.MinEarlyDeliveryDays
		scenario.BucketDays = snapshot.BucketDays
		scenario.HorizonDays = snapshot.HorizonDays
	}

	if err := h.repository.UpdatePlanningScenario(scenario, snapshot); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新场景失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.cacheScenarioSnapshot(scenario, snapshot)

	h.successResponse(w, r, "更新场景成功", scenario)
}

func (h *Handler) DeleteScenario(w http.ResponseWriter, r *http.Request) {
	scenario := r.Context().Value(ScenarioCtx).(*domain.PlanningScenario)

	if err := h.repository.DeletePlanningScenario(scenario.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.dropScenarioSnapshot(scenario.ID)

	h.successResponse(w, r, "删除场景成功", nil)
}

func (h *Handler) ValidateScenarioCapacity(w http.ResponseWriter, r *http.Request) {
	snapshot := r.Context().Value(SnapshotCtx).(*planning.Snapshot)

	validation := snapshot.BuildModel().ValidateCapacity()
	h.successResponse(w, r, "产能校验完成", validation)
}

func (h *Handler) StartOptimization(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PopulationSize                *int     `json:"populationSize" validate:"omitempty,gt=0"`
		Generations                   *int     `json:"generations" validate:"omitempty,gt=0"`
		MutationRate                  *float64 `json:"mutationRate" validate:"omitempty,gte=0,lte=1"`
		CrossoverRate                 *float64 `json:"crossoverRate" validate:"omitempty,gte=0,lte=1"`
		TournamentSize                *int     `json:"tournamentSize" validate:"omitempty,gt=0"`
		EnableUnderUtilizationPenalty *bool    `json:"enableUnderUtilizationPenalty"`
		RandomSeed                    *int64   `json:"randomSeed"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	scenario := r.Context().Value(ScenarioCtx).(*domain.PlanningScenario)
	snapshot := r.Context().Value(SnapshotCtx).(*planning.Snapshot)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	model := snapshot.BuildModel()
	model.SetUnderUtilizationConfig(planning.UnderUtilizationConfig{
		BaseNearTermPenalty:   h.config.Planning.BaseNearTermPenalty,
		BaseFutureTermPenalty: h.config.Planning.BaseFutureTermPenalty,
		NearTermDays:          h.config.Planning.NearTermDays,
		DecayRate:             h.config.Planning.DecayRate,
		TargetUtilizationRate: h.config.Planning.TargetUtilizationRate,
		MinCapacityThreshold:  h.config.Planning.MinCapacityThreshold,
	})

	cfg := optimizer.DefaultConfig()
	if req.PopulationSize != nil {
		cfg.PopulationSize = *req.PopulationSize
	}
	if req.Generations != nil {
		cfg.Generations = *req.Generations
	}
	if req.MutationRate != nil {
		cfg.MutationRate = *req.MutationRate
	}
	if req.CrossoverRate != nil {
		cfg.CrossoverRate = *req.CrossoverRate
	}
	if req.TournamentSize != nil {
		cfg.TournamentSize = *req.TournamentSize
	}
	if req.EnableUnderUtilizationPenalty != nil {
		cfg.EnableUnderUtilizationPenalty = *req.EnableUnderUtilizationPenalty
	}
	if req.RandomSeed != nil {
		cfg.RandomSeed = *req.RandomSeed
	}

	opt, err := optimizer.New(model, cfg)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	jobID := h.jobs.Create(opt)
	go h.runOptimization(jobID, scenario, model, opt, myInfo)

	job, _ := h.jobs.Get(jobID)
	h.successResponse(w, r, "优化任务已启动", job)
}

// runOptimization 在后台 goroutine 中执行优化，结束后持久化结果并发邮件通知。
// 持久化和通知失败只记日志，不影响任务终态。
func (h *Handler) runOptimization(jobID string, scenario *domain.PlanningScenario, model *planning.Model, opt *optimizer.Optimizer, user *domain.User) {
	result, err := opt.Optimize()
	if err != nil {
		h.jobs.SetError(jobID, err)
	} else {
		h.jobs.SetCompleted(jobID, result)
	}

	job, _ := h.jobs.Get(jobID)

	run := &domain.OptimizationRun{
		ScenarioID:     scenario.ID,
		JobID:          jobID,
		Status:         string(job.Status),
		FitnessHistory: []float64{},
		Assignments:    []domain.OrderAssignment{},
	}
	if result != nil {
		run.FinalFitness = result.FinalFitness
		run.FitnessHistory = result.FitnessHistory
		run.Assignments = assignmentsFromSolution(model, result.BestSolution)
	}

	if err := h.repository.InsertOptimizationRun(run); err != nil {
		slog.Error("持久化优化结果失败", "jobID", jobID, "scenarioID", scenario.ID, "error", err)
	}

	mailMessage := domain.MailMessage{
		Type: "optimization_finished",
		To:   user.Email,
		Data: domain.OptimizationFinishedMailData{
			FullName:     user.FullName,
			JobID:        jobID,
			Status:       string(job.Status),
			FinalFitness: run.FinalFitness,
			Generations:  len(run.FitnessHistory),
			Error:        job.Error,
		},
	}

	mailData, err := json.Marshal(mailMessage)
	if err != nil {
		slog.Error("序列化优化结果通知失败", "jobID", jobID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := h.mailChannel.PublishWithContext(
		ctx,
		"",
		"email_queue",
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        mailData,
		},
	); err != nil {
		slog.Error("发送优化结果通知失败", "jobID", jobID, "error", err)
	}
}

// assignmentsFromSolution 把最优个体翻译成带日期的排产记录，订单号升序
func assignmentsFromSolution(model *planning.Model, solution optimizer.Individual) []domain.OrderAssignment {
	orderNumbers := make([]string, 0, len(solution))
	for orderNumber := range solution {
		orderNumbers = append(orderNumbers, orderNumber)
	}
	sort.Strings(orderNumbers)

	assignments := make([]domain.OrderAssignment, 0, len(orderNumbers))
	for _, orderNumber := range orderNumbers {
		a := solution[orderNumber]
		bucketDate, ok := model.Calendar().DateKeyOf(a.BucketIndex)
		if !ok {
			// 无效排期也保留下来，日期留空，分析接口会单独标注
			bucketDate = ""
		}
		assignments = append(assignments, domain.OrderAssignment{
			OrderNumber: orderNumber,
			BucketDate:  bucketDate,
			Operations:  a.Operations,
		})
	}

	return assignments
}

func (h *Handler) GetScenarioOptimizationRuns(w http.ResponseWriter, r *http.Request) {
	scenario := r.Context().Value(ScenarioCtx).(*domain.PlanningScenario)

	runs, err := h.repository.GetOptimizationRunsByScenarioID(scenario.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取优化任务列表成功", runs)
}

func (h *Handler) GetOptimizationStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	if job, ok := h.jobs.Get(jobID); ok {
		h.successResponse(w, r, "获取任务状态成功", job)
		return
	}

	// 注册表中已被清理的任务回退到数据库查历史记录
	run, err := h.repository.GetOptimizationRunByJobID(jobID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "优化任务不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取任务状态成功", run)
}

func (h *Handler) StopOptimization(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	if !h.jobs.Cancel(jobID) {
		h.errorResponse(w, r, "优化任务不存在或已结束")
		return
	}

	h.successResponse(w, r, "已发送取消请求", nil)
}

func (h *Handler) GetOptimizationReport(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	snapshot := r.Context().Value(SnapshotCtx).(*planning.Snapshot)

	model := snapshot.BuildModel()

	solution, err := h.solutionForJob(jobID, model)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	analyzer := analysis.New(model)
	solutionAnalysis := analyzer.AnalyzeSolution(solution)
	report := analyzer.GenerateComparisonReport(solutionAnalysis)

	h.successResponse(w, r, "生成优化报告成功", struct {
		Analysis *analysis.SolutionAnalysis `json:"analysis"`
		Report   *analysis.ComparisonReport `json:"report"`
	}{
		Analysis: solutionAnalysis,
		Report:   report,
	})
}

// solutionForJob 优先从任务注册表取最优解，注册表没有时从持久化记录还原
func (h *Handler) solutionForJob(jobID string, model *planning.Model) (optimizer.Individual, error) {
	if job, ok := h.jobs.Get(jobID); ok {
		switch job.Status {
		case jobs.StatusRunning:
			return nil, errors.New("优化任务尚未结束")
		case jobs.StatusCompleted:
			return job.Result.BestSolution, nil
		default:
			return nil, errors.New("优化任务没有产生结果")
		}
	}

	run, err := h.repository.GetOptimizationRunByJobID(jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("优化任务不存在")
		}
		return nil, err
	}
	if run.Status != string(jobs.StatusCompleted) || len(run.Assignments) == 0 {
		return nil, errors.New("优化任务没有产生结果")
	}

	solution := make(optimizer.Individual, len(run.Assignments))
	for _, assignment := range run.Assignments {
		date, err := time.Parse("2006-01-02", assignment.BucketDate)
		if err != nil {
			continue
		}
		solution[assignment.OrderNumber] = optimizer.Assignment{
			BucketIndex: model.Calendar().IndexOf(date),
			Operations:  assignment.Operations,
		}
	}

	return solution, nil
}
