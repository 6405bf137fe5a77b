package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/postflow/internal/model"
	"github.com/hitoshi/postflow/internal/site"
)

// SiteServiceInterface はサイトハンドラーが必要とするサービスインターフェース。
type SiteServiceInterface interface {
	List(ctx context.Context, onlyAutomatable bool) ([]*model.Site, error)
	Get(ctx context.Context, id string) (*model.Site, error)
	Create(ctx context.Context, site *model.Site) (*model.Site, error)
	Update(ctx context.Context, site *model.Site) (*model.Site, error)
	Delete(ctx context.Context, id string) error
	Schedule(ctx context.Context, id string, n int) (*site.SchedulePreview, error)
}

// SiteHandler はサイト管理のHTTPハンドラー。
type SiteHandler struct {
	service SiteServiceInterface
}

// NewSiteHandler はSiteHandlerを生成する。
func NewSiteHandler(service SiteServiceInterface) *SiteHandler {
	return &SiteHandler{service: service}
}

// siteRequest はサイト作成・更新リクエストのボディ。
type siteRequest struct {
	Name            string                `json:"name"`
	SiteURL         string                `json:"site_url"`
	SitemapURL      string                `json:"sitemap_url"`
	ResearchFeedURL string                `json:"research_feed_url"`
	Cadence         string                `json:"cadence"`
	PostDays        []string              `json:"post_days"`
	PostTime        string                `json:"post_time"`
	WordCount       int                   `json:"word_count"`
	AutoPublish     bool                  `json:"auto_publish"`
	WPEndpoint      string                `json:"wp_endpoint"`
	WPUsername      string                `json:"wp_username"`
	WPAppPassword   string                `json:"wp_app_password"`
	AffiliateLinks  []model.AffiliateLink `json:"affiliate_links"`
}

// siteResponse はサイト情報のAPIレスポンス。
// アプリケーションパスワードは返さない。
type siteResponse struct {
	ID              string                `json:"id"`
	Name            string                `json:"name"`
	SiteURL         string                `json:"site_url"`
	SitemapURL      string                `json:"sitemap_url,omitempty"`
	ResearchFeedURL string                `json:"research_feed_url,omitempty"`
	Cadence         string                `json:"cadence,omitempty"`
	PostDays        []string              `json:"post_days,omitempty"`
	PostTime        string                `json:"post_time"`
	WordCount       int                   `json:"word_count"`
	AutoPublish     bool                  `json:"auto_publish"`
	WPEndpoint      string                `json:"wp_endpoint,omitempty"`
	WPUsername      string                `json:"wp_username,omitempty"`
	AffiliateLinks  []model.AffiliateLink `json:"affiliate_links,omitempty"`
	LastPostDate    string                `json:"last_post_date,omitempty"`
}

// scheduleResponse はサイトの投稿スケジュール要約のAPIレスポンス。
type scheduleResponse struct {
	Cadence           string      `json:"cadence"`
	Description       string      `json:"description"`
	EstimatedPerMonth int         `json:"estimated_per_month"`
	NextRuns          []time.Time `json:"next_runs"`
}

func (req *siteRequest) toModel() *model.Site {
	return &model.Site{
		Name:            req.Name,
		SiteURL:         req.SiteURL,
		SitemapURL:      req.SitemapURL,
		ResearchFeedURL: req.ResearchFeedURL,
		Cadence:         model.Cadence(req.Cadence),
		PostDays:        req.PostDays,
		PostTime:        req.PostTime,
		WordCount:       req.WordCount,
		AutoPublish:     req.AutoPublish,
		WPEndpoint:      req.WPEndpoint,
		WPUsername:      req.WPUsername,
		WPAppPassword:   req.WPAppPassword,
		AffiliateLinks:  req.AffiliateLinks,
	}
}

func toSiteResponse(s *model.Site) siteResponse {
	resp := siteResponse{
		ID:              s.ID,
		Name:            s.Name,
		SiteURL:         s.SiteURL,
		SitemapURL:      s.SitemapURL,
		ResearchFeedURL: s.ResearchFeedURL,
		Cadence:         string(s.Cadence),
		PostDays:        s.PostDays,
		PostTime:        s.PostTime,
		WordCount:       s.WordCount,
		AutoPublish:     s.AutoPublish,
		WPEndpoint:      s.WPEndpoint,
		WPUsername:      s.WPUsername,
		AffiliateLinks:  s.AffiliateLinks,
	}
	if s.LastPostDate != nil {
		resp.LastPostDate = s.LastPostDate.Format("2006-01-02")
	}
	return resp
}

// ListSites はサイト一覧を取得する。
// GET /api/sites
func (h *SiteHandler) ListSites(w http.ResponseWriter, r *http.Request) {
	onlyAutomatable := r.URL.Query().Get("automatable") == "true"

	sites, err := h.service.List(r.Context(), onlyAutomatable)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]siteResponse, 0, len(sites))
	for _, s := range sites {
		resp = append(resp, toSiteResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSite はサイト詳細を取得する。
// GET /api/sites/:id
func (h *SiteHandler) GetSite(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSiteResponse(s))
}

// CreateSite はサイトを登録する。
// POST /api/sites
func (h *SiteHandler) CreateSite(w http.ResponseWriter, r *http.Request) {
	var req siteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	created, err := h.service.Create(r.Context(), req.toModel())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSiteResponse(created))
}

// UpdateSite はサイト設定を更新する。
// PUT /api/sites/:id
func (h *SiteHandler) UpdateSite(w http.ResponseWriter, r *http.Request) {
	var req siteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	s := req.toModel()
	s.ID = chi.URLParam(r, "id")

	updated, err := h.service.Update(r.Context(), s)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSiteResponse(updated))
}

// DeleteSite はサイトを削除する。
// DELETE /api/sites/:id
func (h *SiteHandler) DeleteSite(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSchedule はサイトの投稿スケジュール要約を取得する。
// GET /api/sites/:id/schedule
func (h *SiteHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	n := parseIntQuery(r, "count", 5)

	preview, err := h.service.Schedule(r.Context(), chi.URLParam(r, "id"), n)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, scheduleResponse{
		Cadence:           string(preview.Cadence),
		Description:       preview.Description,
		EstimatedPerMonth: preview.EstimatedPerMonth,
		NextRuns:          preview.NextRuns,
	})
}
