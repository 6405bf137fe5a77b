package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/postflow/internal/middleware"
)

// HealthChecker はヘルスチェックでの依存先確認インターフェース。
// *sql.DB がそのまま満たす。
type HealthChecker interface {
	Ping() error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	HealthChecker HealthChecker
	RateLimiter   *middleware.RateLimiter
	Logger        *slog.Logger

	// /metrics のハンドラー。nilの場合はルートを登録しない。
	MetricsHandler http.Handler

	SiteService SiteServiceInterface
	PlanService PlanServiceInterface
	Runner      RunnerInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → RateLimit
//
// ヘルスチェックとメトリクスはレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	siteHandler := NewSiteHandler(deps.SiteService)
	planHandler := NewPlanHandler(deps.PlanService)
	runHandler := NewRunHandler(deps.Runner)

	// --- 運用系ルート（レート制限の対象外） ---

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := deps.HealthChecker.Ping(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- 管理API ---
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.Middleware())

		// サイト管理
		r.Route("/api/sites", func(r chi.Router) {
			r.Get("/", siteHandler.ListSites)
			r.Post("/", siteHandler.CreateSite)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", siteHandler.GetSite)
				r.Put("/", siteHandler.UpdateSite)
				r.Delete("/", siteHandler.DeleteSite)

				// GET /api/sites/{id}/schedule - 次回投稿予定のプレビュー
				r.Get("/schedule", siteHandler.GetSchedule)
			})
		})

		// プラン管理（承認ワークフロー）
		r.Route("/api/plans", func(r chi.Router) {
			r.Get("/", planHandler.ListPlans)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", planHandler.GetPlan)
				r.Get("/preview", planHandler.PreviewPlan)
				r.Post("/approve", planHandler.ApprovePlan)
				r.Post("/reject", planHandler.RejectPlan)
			})
		})

		// 手動実行
		r.Post("/api/runs", runHandler.TriggerRun)
	})

	return r
}
