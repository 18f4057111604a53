package optimizer

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"github.com/smartmfg-dev/order-planner/backend/internal/planning"
)

// ErrCancelled: 优化被外部取消时的哨兵错误，调用方用 errors.Is 区分取消和普通失败
var ErrCancelled = errors.New("优化已被取消")

// Config: 遗传算法参数，全部带默认值。
// 惩罚常量在这里集中成可调参数，而不是散落在适应度函数里的魔法数字。
type Config struct {
	PopulationSize int     `json:"populationSize"`
	Generations    int     `json:"generations"`
	MutationRate   float64 `json:"mutationRate"`
	CrossoverRate  float64 `json:"crossoverRate"`
	TournamentSize int     `json:"tournamentSize"`

	PromiseDatePreference   float64 `json:"promiseDatePreference"` // 构造时锚定承诺日期的概率，其余个体做随机抖动
	TimingVarianceDays      int     `json:"timingVarianceDays"`
	UnnecessaryDelayPenalty float64 `json:"unnecessaryDelayPenalty"` // 每延迟一周的基础惩罚，容忍范围内也生效
	PerfectTimingBonus      float64 `json:"perfectTimingBonus"`

	EnableUnderUtilizationPenalty bool    `json:"enableUnderUtilizationPenalty"`
	UnderUtilizationWeight        float64 `json:"underUtilizationWeight"`
	UnderUtilizationHorizonDays   int     `json:"underUtilizationHorizonDays"` // 只检查前面这么多天的闲置

	CapacityAwareMutationBias float64 `json:"capacityAwareMutationBias"`
	RandomMutationMaxAttempts int     `json:"randomMutationMaxAttempts"`
	RandomMutationWindowDays  int     `json:"randomMutationWindowDays"`

	PastSchedulingPenalty         float64 `json:"pastSchedulingPenalty"`
	ConstraintViolationPenalty    float64 `json:"constraintViolationPenalty"`
	BeyondHorizonPenalty          float64 `json:"beyondHorizonPenalty"`
	ExcessDelayUnitPenalty        float64 `json:"excessDelayUnitPenalty"`
	ComponentShortagePenalty      float64 `json:"componentShortagePenalty"`
	SevereViolationPenalty        float64 `json:"severeViolationPenalty"`
	SevereViolationExtra          float64 `json:"severeViolationExtra"`
	AggregateViolationThreshold   int     `json:"aggregateViolationThreshold"`
	AggregateViolationUnitPenalty float64 `json:"aggregateViolationUnitPenalty"`
	TooEarlyWeekPenalty           float64 `json:"tooEarlyWeekPenalty"`

	// RandomSeed 为 0 时使用当前时间作为种子；测试传入固定值可以得到确定性的运行
	RandomSeed int64 `json:"randomSeed,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		PopulationSize: 100,
		Generations:    50,
		MutationRate:   0.1,
		CrossoverRate:  0.8,
		TournamentSize: 3,

		PromiseDatePreference:   0.7,
		TimingVarianceDays:      7,
		UnnecessaryDelayPenalty: 100,
		PerfectTimingBonus:      50,

		EnableUnderUtilizationPenalty: true,
		UnderUtilizationWeight:        0.3,
		UnderUtilizationHorizonDays:   90,

		CapacityAwareMutationBias: 0.7,
		RandomMutationMaxAttempts: 10,
		RandomMutationWindowDays:  140,

		PastSchedulingPenalty:         100000,
		ConstraintViolationPenalty:    50000,
		BeyondHorizonPenalty:          25000,
		ExcessDelayUnitPenalty:        200,
		ComponentShortagePenalty:      50,
		SevereViolationPenalty:        5000,
		SevereViolationExtra:          2000,
		AggregateViolationThreshold:   10,
		AggregateViolationUnitPenalty: 100,
		TooEarlyWeekPenalty:           1000,
	}
}

// Result: 一次优化运行的产出，交由结果分析器解释
type Result struct {
	BestSolution   Individual `json:"bestSolution"`
	FitnessHistory []float64  `json:"fitnessHistory"`
	FinalFitness   float64    `json:"finalFitness"`
}

// Optimizer: 绑定一个只读模型快照的遗传算法优化器。
// 种群、tracker 和随机数发生器都归本次运行私有，多个运行可以并发存在。
type Optimizer struct {
	model     *planning.Model
	cfg       Config
	rng       *rand.Rand
	orderKeys []string // 稳定排序的订单号列表，交叉算子依赖这个顺序
	cancelled atomic.Bool
}

// New 构造优化器。模型必须先通过产能校验，否则拒绝构造，
// 调用方应把 CriticalIssues 展示给用户。
func New(model *planning.Model, cfg Config) (*Optimizer, error) {
	if v := model.ValidateCapacity(); !v.OK {
		return nil, fmt.Errorf("产能校验未通过: %s", strings.Join(v.CriticalIssues, "; "))
	}

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Optimizer{
		model:     model,
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(seed)),
		orderKeys: model.OrderNumbers(),
	}, nil
}

// Cancel 设置取消标志，可以从任意 goroutine 调用，幂等
func (o *Optimizer) Cancel() {
	o.cancelled.Store(true)
}

func (o *Optimizer) IsCancelled() bool {
	return o.cancelled.Load()
}

// Optimize 执行完整的代际循环。
// 取消检查点：种群播种、每代顶部、适应度评估和新种群繁殖循环内部；
// 一旦发现取消标志即返回 ErrCancelled，不产生部分结果。
func (o *Optimizer) Optimize() (*Result, error) {
	population := make([]Individual, o.cfg.PopulationSize)
	for i := range population {
		if o.cancelled.Load() {
			return nil, ErrCancelled
		}
		population[i] = o.constructIndividual()
	}

	fitnessHistory := make([]float64, 0, o.cfg.Generations)
	var bestSolution Individual
	bestFitness := math.Inf(-1)

	for generation := 0; generation < o.cfg.Generations; generation++ {
		if o.cancelled.Load() {
			return nil, ErrCancelled
		}

		fitnessScores := make([]float64, len(population))
		for i, individual := range population {
			if o.cancelled.Load() {
				return nil, ErrCancelled
			}
			fitnessScores[i] = o.calculateFitness(individual)
		}

		// 记录本代最佳，精英保留保证这条曲线不会回退
		genBestIndex := 0
		for i := 1; i < len(fitnessScores); i++ {
			if fitnessScores[i] > fitnessScores[genBestIndex] {
				genBestIndex = i
			}
		}
		if fitnessScores[genBestIndex] > bestFitness {
			bestFitness = fitnessScores[genBestIndex]
			bestSolution = population[genBestIndex].Clone()
		}
		fitnessHistory = append(fitnessHistory, bestFitness)

		// 繁殖：精英 + 锦标赛选择 / 交叉 / 变异
		newPopulation := make([]Individual, 0, o.cfg.PopulationSize+1)
		newPopulation = append(newPopulation, population[genBestIndex].Clone())

		for len(newPopulation) < o.cfg.PopulationSize {
			if o.cancelled.Load() {
				return nil, ErrCancelled
			}

			parent1 := o.tournamentSelection(population, fitnessScores)
			parent2 := o.tournamentSelection(population, fitnessScores)

			var child1, child2 Individual
			if o.rng.Float64() < o.cfg.CrossoverRate {
				child1, child2 = o.crossover(parent1, parent2)
			} else {
				child1 = parent1.Clone()
				child2 = parent2.Clone()
			}

			o.mutate(child1)
			o.mutate(child2)

			newPopulation = append(newPopulation, child1, child2)
		}

		population = newPopulation[:o.cfg.PopulationSize]
	}

	if o.cancelled.Load() {
		return nil, ErrCancelled
	}

	return &Result{
		BestSolution:   bestSolution,
		FitnessHistory: fitnessHistory,
		FinalFitness:   bestFitness,
	}, nil
}
