package optimizer

import "github.com/smartmfg-dev/order-planner/backend/internal/domain"

// tournamentSelection 锦标赛选择：随机抽 k 个个体，返回其中适应度最高的
func (o *Optimizer) tournamentSelection(population []Individual, fitnessScores []float64) Individual {
	bestIndex := o.rng.Intn(len(population))

	for i := 1; i < o.cfg.TournamentSize; i++ {
		index := o.rng.Intn(len(population))
		if fitnessScores[index] > fitnessScores[bestIndex] {
			bestIndex = index
		}
	}

	return population[bestIndex]
}

// crossover 单点交叉：在稳定排序的订单号列表上随机选一个切点，
// 子代 A 取父本 1 切点前的基因加父本 2 切点后的基因，子代 B 取镜像。
// 父本不会被修改。
func (o *Optimizer) crossover(parent1, parent2 Individual) (Individual, Individual) {
	if len(o.orderKeys) < 2 {
		return parent1.Clone(), parent2.Clone()
	}

	point := o.rng.Intn(len(o.orderKeys)-1) + 1

	child1 := make(Individual, len(o.orderKeys))
	child2 := make(Individual, len(o.orderKeys))

	for i, orderNumber := range o.orderKeys {
		a1, ok1 := parent1[orderNumber]
		a2, ok2 := parent2[orderNumber]
		if !ok1 || !ok2 {
			continue
		}

		if i < point {
			child1[orderNumber] = a1.clone()
			child2[orderNumber] = a2.clone()
		} else {
			child1[orderNumber] = a2.clone()
			child2[orderNumber] = a1.clone()
		}
	}

	return child1, child2
}

// mutate 就地变异一个个体。每张订单以 mutationRate 的概率重排时间桶：
// 大概率走产能感知模式（重新做构造时的最优桶搜索），否则在受限窗口内
// 随机尝试有限次；两种模式都失败时保持原排产。
// 另以一半的概率只重排工序到产线的分配，不动时间桶。
func (o *Optimizer) mutate(individual Individual) {
	tracker := o.usageTrackerFor(individual)

	for _, orderNumber := range o.orderKeys {
		currentAssignment, ok := individual[orderNumber]
		if !ok {
			continue
		}
		order, ok := o.model.Order(orderNumber)
		if !ok {
			continue
		}

		if o.rng.Float64() < o.cfg.MutationRate {
			// 先把自己占用的产能还回去，再在空出来的视图上重新搜索
			tracker.give(order, currentAssignment)

			mutated := false
			if o.rng.Float64() < o.cfg.CapacityAwareMutationBias {
				target := o.targetBucketFor(order)
				if bucket, operations, found := o.findBestAvailableBucket(order, target, tracker); found {
					assignment := Assignment{BucketIndex: bucket, Operations: operations}
					individual[orderNumber] = assignment
					tracker.take(order, assignment)
					mutated = true
				}
			} else {
				if assignment, found := o.randomBoundedMutation(order, tracker); found {
					individual[orderNumber] = assignment
					tracker.take(order, assignment)
					mutated = true
				}
			}

			if !mutated {
				tracker.take(order, currentAssignment)
			}
		}

		// 工序重分配变异：桶不变，只换产线
		if o.rng.Float64() < o.cfg.MutationRate*0.5 {
			assignment := individual[orderNumber]
			tracker.give(order, assignment)

			if operations, found := o.findCapacityForBucket(order, assignment.BucketIndex, tracker); found {
				assignment.Operations = operations
				individual[orderNumber] = assignment
			}

			tracker.take(order, individual[orderNumber])
		}
	}
}

// randomBoundedMutation 在 [订单最早桶, 最早桶 + 随机变异窗口] 内随机挑桶，
// 找得到可容纳全部工序的桶才接受，最多重试有限次
func (o *Optimizer) randomBoundedMutation(order *domain.SalesOrder, tracker *capacityTracker) (Assignment, bool) {
	calendar := o.model.Calendar()
	orderEarliest := o.model.EarliestSchedulableBucketForOrder(order.OrderNumber)

	maxBucket := o.model.EarliestSchedulableBucket() + o.cfg.RandomMutationWindowDays/calendar.BucketDays()
	if last := calendar.Len() - 1; maxBucket > last {
		maxBucket = last
	}
	if maxBucket < orderEarliest {
		return Assignment{}, false
	}

	for attempt := 0; attempt < o.cfg.RandomMutationMaxAttempts; attempt++ {
		bucket := o.rng.Intn(maxBucket-orderEarliest+1) + orderEarliest
		if operations, ok := o.findCapacityForBucket(order, bucket, tracker); ok {
			return Assignment{BucketIndex: bucket, Operations: operations}, true
		}
	}

	return Assignment{}, false
}
