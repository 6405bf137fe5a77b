// Package imagesearch はフリー素材画像の検索機能を提供する。
// Pixabay APIを使用してキーワードに合った記事挿入用の画像を取得する。
package imagesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
)

const (
	// defaultEndpoint はPixabay検索APIのエンドポイント。
	defaultEndpoint = "https://pixabay.com/api/"
	// maxPerPage は1リクエストあたりの最大取得件数。
	maxPerPage = 20
)

// Image は検索結果の画像1件を表す。
type Image struct {
	URL     string // 記事に埋め込むWebformatURL
	PageURL string // クレジット表記用の元ページURL
	Tags    string
}

// Client はPixabay APIのクライアント。
// APIキーが空の場合、Searchは常に空の結果を返す（画像なしで記事生成を継続する）。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClient の新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		endpoint:   defaultEndpoint,
	}
}

// Search はキーワードに合う横長画像を最大count件取得する。
// APIキー未設定の場合は空スライスを返す。検索失敗はエラーを返し、
// 呼び出し元が画像なしでの続行を判断する。
func (c *Client) Search(ctx context.Context, query string, count int) ([]Image, error) {
	if c.apiKey == "" {
		return nil, nil
	}
	if query == "" {
		return nil, fmt.Errorf("検索キーワードが空です")
	}
	if count <= 0 || count > maxPerPage {
		count = maxPerPage
	}

	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}

	q := reqURL.Query()
	q.Set("key", c.apiKey)
	q.Set("q", query)
	q.Set("image_type", "photo")
	q.Set("orientation", "horizontal")
	q.Set("safesearch", "true")
	q.Set("per_page", strconv.Itoa(count))
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("画像検索APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.String("query", query),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("画像検索APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("query", query),
		)
		return nil, fmt.Errorf("画像検索APIがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var result struct {
		Hits []struct {
			WebformatURL string `json:"webformatURL"`
			PageURL      string `json:"pageURL"`
			Tags         string `json:"tags"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Error("画像検索APIのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	images := make([]Image, 0, len(result.Hits))
	for _, hit := range result.Hits {
		if hit.WebformatURL == "" {
			continue
		}
		images = append(images, Image{
			URL:     hit.WebformatURL,
			PageURL: hit.PageURL,
			Tags:    hit.Tags,
		})
	}

	return images, nil
}
