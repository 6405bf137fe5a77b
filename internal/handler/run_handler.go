package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/hitoshi/postflow/internal/model"
)

// RunnerInterface は手動実行ハンドラーが必要とするデーモン実行インターフェース。
type RunnerInterface interface {
	// RunOnce は全サイトに対して1サイクル実行する。
	RunOnce(ctx context.Context) (*model.RunStats, error)
	// RunSite は指定サイトのみ実行する。forceで投稿予定日の判定をスキップする。
	RunSite(ctx context.Context, siteID string, force bool) (*model.RunStats, error)
}

// RunHandler は自動投稿サイクルの手動実行を処理するHTTPハンドラー。
type RunHandler struct {
	runner RunnerInterface
}

// NewRunHandler はRunHandlerを生成する。
func NewRunHandler(runner RunnerInterface) *RunHandler {
	return &RunHandler{runner: runner}
}

// runRequest は手動実行リクエストのボディ。
type runRequest struct {
	SiteID string `json:"site_id"` // 空の場合は全サイト
	Force  bool   `json:"force"`   // 投稿予定日の判定をスキップする
}

// runResponse は実行結果の集計レスポンス。
type runResponse struct {
	Checked   int      `json:"checked"`
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	Generated int      `json:"generated"`
	Published int      `json:"published"`
	Pending   int      `json:"pending"`
	Errors    []string `json:"errors,omitempty"`
}

// TriggerRun は自動投稿サイクルを手動実行する。
// POST /api/runs
func (h *RunHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeInvalidRequest(w)
		return
	}

	var stats *model.RunStats
	var err error
	if req.SiteID != "" {
		stats, err = h.runner.RunSite(r.Context(), req.SiteID, req.Force)
	} else {
		stats, err = h.runner.RunOnce(r.Context())
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, runResponse{
		Checked:   stats.Checked,
		Processed: stats.Processed,
		Failed:    stats.Failed,
		Generated: stats.Generated,
		Published: stats.Published,
		Pending:   stats.Pending,
		Errors:    stats.Errors,
	})
}
