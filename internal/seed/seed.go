package seed

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/smartmfg-dev/order-planner/backend/internal/config"
	"github.com/smartmfg-dev/order-planner/backend/internal/domain"
	"github.com/smartmfg-dev/order-planner/backend/internal/repository"
	"github.com/smartmfg-dev/order-planner/backend/internal/utils"
)

// SeedDemoData 向数据库插入一批随机计划员账号和一个示例排产场景，
// 用于在新环境里快速演示完整的优化流程
func SeedDemoData(cfg *config.Config, r *repository.Repository, plannerCount int) {
	inserted := 0
	for i := 0; i < plannerCount; i++ {
		user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
		if err != nil {
			slog.Error("无法生成随机用户", "error", err)
			continue
		}

		if err := r.CreateUser(user); err != nil {
			slog.Error("无法插入用户", "username", user.Username, "error", err)
			continue
		}

		inserted++
	}
	slog.Info("插入计划员成功", "count", inserted)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	model := GenerateSampleModel(time.Now(), cfg.Planning.HorizonDays, cfg.Planning.BucketDays, cfg.Planning.MinEarlyDeliveryDays, cfg.Planning.SampleOrderCount, rng)
	snapshot := model.Snapshot()

	scenario := &domain.PlanningScenario{
		Name:                 "叉车订单演示场景",
		Description:          "随机生成的订单簿、产能和组件数据，用于演示优化流程",
		PlanningStartDate:    snapshot.PlanningStartDate,
		MinEarlyDeliveryDays: snapshot.MinEarlyDeliveryDays,
		BucketDays:           snapshot.BucketDays,
		HorizonDays:          snapshot.HorizonDays,
	}

	if err := r.CreatePlanningScenario(scenario, snapshot); err != nil {
		slog.Error("无法插入示例场景", "error", err)
		return
	}

	slog.Info("插入示例场景成功", "scenarioID", scenario.ID, "orderCount", model.OrderCount())
}
