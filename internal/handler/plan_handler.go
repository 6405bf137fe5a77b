package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/postflow/internal/model"
)

// PlanServiceInterface はプランハンドラーが必要とするサービスインターフェース。
type PlanServiceInterface interface {
	List(ctx context.Context, siteID string, status model.PlanStatus, limit int) ([]*model.ContentPlan, error)
	Get(ctx context.Context, id string) (*model.ContentPlan, error)
	Preview(ctx context.Context, id string) (string, error)
	Approve(ctx context.Context, id string) (*model.ContentPlan, error)
	Reject(ctx context.Context, id string) (*model.ContentPlan, error)
}

// PlanHandler はコンテンツプラン管理のHTTPハンドラー。
type PlanHandler struct {
	service PlanServiceInterface
}

// NewPlanHandler はPlanHandlerを生成する。
func NewPlanHandler(service PlanServiceInterface) *PlanHandler {
	return &PlanHandler{service: service}
}

// planResponse はコンテンツプランのAPIレスポンス。
// 本文はサイズが大きいため詳細取得時のみ含める。
type planResponse struct {
	ID             string `json:"id"`
	SiteID         string `json:"site_id"`
	Topic          string `json:"topic"`
	WordCount      int    `json:"word_count"`
	ScheduledDate  string `json:"scheduled_date"`
	Status         string `json:"status"`
	Title          string `json:"title,omitempty"`
	Content        string `json:"content,omitempty"`
	ExternalPostID string `json:"external_post_id,omitempty"`
	ImageCount     int    `json:"image_count"`
	InternalLinks  int    `json:"internal_links"`
	AffiliateCount int    `json:"affiliate_count"`
}

// previewResponse は記事プレビューのAPIレスポンス。
type previewResponse struct {
	PlanID   string `json:"plan_id"`
	Markdown string `json:"markdown"`
}

func toPlanResponse(p *model.ContentPlan, includeContent bool) planResponse {
	resp := planResponse{
		ID:             p.ID,
		SiteID:         p.SiteID,
		Topic:          p.Topic,
		WordCount:      p.WordCount,
		ScheduledDate:  p.ScheduledDate.Format("2006-01-02"),
		Status:         string(p.Status),
		Title:          p.Title,
		ExternalPostID: p.ExternalPostID,
		ImageCount:     p.ImageCount,
		InternalLinks:  p.InternalLinks,
		AffiliateCount: p.AffiliateCount,
	}
	if includeContent {
		resp.Content = p.Content
	}
	return resp
}

// ListPlans はプラン一覧を取得する。
// GET /api/plans?site_id=&status=&limit=
func (h *PlanHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	siteID := r.URL.Query().Get("site_id")
	status := model.PlanStatus(r.URL.Query().Get("status"))
	limit := parseIntQuery(r, "limit", 0)

	plans, err := h.service.List(r.Context(), siteID, status, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		resp = append(resp, toPlanResponse(p, false))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPlan はプラン詳細を取得する。
// GET /api/plans/:id
func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanResponse(p, true))
}

// PreviewPlan は生成済み記事のMarkdownプレビューを取得する。
// GET /api/plans/:id/preview
func (h *PlanHandler) PreviewPlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "id")

	markdown, err := h.service.Preview(r.Context(), planID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{PlanID: planID, Markdown: markdown})
}

// ApprovePlan は承認待ちプランを承認して公開する。
// POST /api/plans/:id/approve
func (h *PlanHandler) ApprovePlan(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanResponse(p, false))
}

// RejectPlan は承認待ちプランを却下する。
// POST /api/plans/:id/reject
func (h *PlanHandler) RejectPlan(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanResponse(p, false))
}

// parseIntQuery はクエリパラメータを整数として解析する。不正値はデフォルト値を返す。
func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}
