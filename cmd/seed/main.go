package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/smartmfg-dev/order-planner/backend/internal/config"
	"github.com/smartmfg-dev/order-planner/backend/internal/domain"
	"github.com/smartmfg-dev/order-planner/backend/internal/repository"
	"github.com/smartmfg-dev/order-planner/backend/internal/seed"
	"github.com/smartmfg-dev/order-planner/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var horizonDays int

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机计划员, 2: 插入随机示例场景, 3: 插入完整演示数据)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.IntVar(&horizonDays, "horizon-days", 0, "示例场景的计划视野天数，0 表示使用配置值")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的用户数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
				if err != nil {
					slog.Error("无法生成随机用户", slog.String("error", err.Error()))
					continue
				}

				if err := repo.CreateUser(user); err != nil {
					slog.Error("无法插入用户", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入用户成功", slog.Int("count", n-cnt))
		}
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的场景数量")
		} else {
			if horizonDays <= 0 {
				horizonDays = cfg.Planning.HorizonDays
			}

			cnt := n
			for i := 0; i < n; i++ {
				rng := rand.New(rand.NewSource(time.Now().UnixNano()))
				model := seed.GenerateSampleModel(time.Now(), horizonDays, cfg.Planning.BucketDays, cfg.Planning.MinEarlyDeliveryDays, cfg.Planning.SampleOrderCount, rng)
				snapshot := model.Snapshot()

				scenario := &domain.PlanningScenario{
					Name:                 utils.GenerateRandomID(4, 4) + " 随机场景",
					Description:          "随机生成的示例场景",
					PlanningStartDate:    snapshot.PlanningStartDate,
					MinEarlyDeliveryDays: snapshot.MinEarlyDeliveryDays,
					BucketDays:           snapshot.BucketDays,
					HorizonDays:          snapshot.HorizonDays,
				}

				if err := repo.CreatePlanningScenario(scenario, snapshot); err != nil {
					slog.Error("无法插入场景", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入场景成功", slog.Int("count", n-cnt))
		}
	case 3:
		seed.SeedDemoData(cfg, repo, n)
	default:
		slog.Error("指定的操作非法")
	}
}
