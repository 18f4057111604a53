package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/smartmfg-dev/order-planner/backend/internal/config"
	"github.com/smartmfg-dev/order-planner/backend/internal/domain"
	"github.com/smartmfg-dev/order-planner/backend/internal/jobs"
	"github.com/smartmfg-dev/order-planner/backend/internal/repository"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	jobs        *jobs.Registry
	translator  ut.Translator
	mailChannel *amqp.Channel
	redisClient *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, registry *jobs.Registry, mailCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		jobs:        registry,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo) // 所有计划员都可以查看同事的基本信息
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteUser)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Route("/planning", func(r chi.Router) {
			r.Get("/optimization-parameters", h.GetOptimizationParameters)

			r.Route("/scenarios", func(r chi.Router) {
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleSeniorPlanner})).Post("/", h.CreateScenario)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleSeniorPlanner})).Post("/generate-sample", h.GenerateSampleScenario)
				r.Get("/", h.GetAllScenarios)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(h.scenario)
					r.Get("/", h.GetScenario)
					r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleSeniorPlanner})).Patch("/", h.UpdateScenario)
					r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleSeniorPlanner})).Delete("/", h.DeleteScenario)
					r.Get("/capacity-validation", h.ValidateScenarioCapacity)
					r.Route("/jobs", func(r chi.Router) {
						r.Use(h.myInfo)
						r.With(h.preventInactivePlanner).Post("/", h.StartOptimization)
						r.Get("/", h.GetScenarioOptimizationRuns)
						r.Route("/{jobID}", func(r chi.Router) {
							r.Get("/", h.GetOptimizationStatus)
							r.Post("/stop", h.StopOptimization)
							r.Get("/report", h.GetOptimizationReport)
						})
					})
				})
			})
		})
	})
}
