// Package publisher はWordPressへの記事公開機能を提供する。
// WordPress REST API（wp/v2/posts）をアプリケーションパスワード認証で呼び出す。
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/postflow/internal/model"
)

// postsPath はWordPress REST APIの投稿作成パス。
const postsPath = "/wp-json/wp/v2/posts"

// StatusRecorder は公開APIのHTTPステータスコードを記録する。
type StatusRecorder interface {
	RecordPublishStatus(statusCode int)
}

// WordPressClient はWordPress REST APIのクライアント。
type WordPressClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    StatusRecorder // nil可
}

// NewWordPressClient はWordPressClient の新しいインスタンスを生成する。
func NewWordPressClient(httpClient *http.Client, logger *slog.Logger, metrics StatusRecorder) *WordPressClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &WordPressClient{
		httpClient: httpClient,
		logger:     logger,
		metrics:    metrics,
	}
}

// postRequest はWordPress投稿作成APIのリクエストボディ。
type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Status  string `json:"status"`
}

// postResponse はWordPress投稿作成APIのレスポンスの必要部分。
type postResponse struct {
	ID   int    `json:"id"`
	Link string `json:"link"`
}

// Publish は記事をWordPressに公開し、作成された投稿のIDを返す。
// 認証失敗（401/403）は恒久的エラーとしてPUBLISH_AUTH_FAILEDを返す。
func (c *WordPressClient) Publish(ctx context.Context, site *model.Site, article *model.GeneratedArticle) (string, error) {
	if site.WPEndpoint == "" {
		return "", model.NewPublishFailedError("公開先エンドポイントが設定されていません")
	}

	body, err := json.Marshal(postRequest{
		Title:   article.Title,
		Content: article.HTML,
		Status:  "publish",
	})
	if err != nil {
		return "", fmt.Errorf("リクエストボディの生成に失敗しました: %w", err)
	}

	endpoint := strings.TrimSuffix(site.WPEndpoint, "/") + postsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(site.WPUsername, site.WPAppPassword)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("WordPress APIの呼び出しに失敗しました",
			slog.String("site_id", site.ID),
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return "", model.NewPublishFailedError(err.Error())
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordPublishStatus(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.Error("WordPressの認証に失敗しました",
			slog.String("site_id", site.ID),
			slog.Int("http_status", resp.StatusCode),
		)
		return "", model.NewPublishAuthError(site.WPEndpoint)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		snippet := readSnippet(resp.Body)
		c.logger.Error("WordPress APIがエラーステータスを返しました",
			slog.String("site_id", site.ID),
			slog.Int("http_status", resp.StatusCode),
			slog.String("body", snippet),
		)
		return "", model.NewPublishFailedError(fmt.Sprintf("ステータス %d が返されました", resp.StatusCode))
	}

	var created postResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", model.NewPublishFailedError(fmt.Sprintf("レスポンスのパースに失敗しました: %v", err))
	}
	if created.ID == 0 {
		return "", model.NewPublishFailedError("レスポンスに投稿IDが含まれていません")
	}

	c.logger.Info("記事をWordPressに公開しました",
		slog.String("site_id", site.ID),
		slog.Int("post_id", created.ID),
		slog.String("link", created.Link),
	)

	return strconv.Itoa(created.ID), nil
}

// readSnippet はエラーログ用にレスポンスボディの先頭を読み取る。
func readSnippet(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil {
		return ""
	}
	return string(data)
}
