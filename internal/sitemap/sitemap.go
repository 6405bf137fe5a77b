// Package sitemap は公開先サイトのサイトマップ取得と内部リンク候補の選定を提供する。
// 生成記事に挿入する内部リンクは、サイトマップ上の既存記事からトピックとの
// 関連度で選ぶ。
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// maxChildSitemaps はサイトマップインデックスから辿る子サイトマップの上限。
	maxChildSitemaps = 5
	// maxURLs は1サイトから収集するURL数の上限。
	maxURLs = 500
	// maxBodySize はサイトマップ・ページ取得時の最大読み取りサイズ。
	maxBodySize = 5 * 1024 * 1024
)

// Page はサイトマップから収集した既存記事1件を表す。
type Page struct {
	URL   string
	Title string
}

// Service はサイトマップの取得と内部リンク候補の選定を行う。
// httpClientにはSSRF防止機能付きのクライアントを渡す。
type Service struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewService はService の新しいインスタンスを生成する。
func NewService(httpClient *http.Client, logger *slog.Logger) *Service {
	return &Service{
		httpClient: httpClient,
		logger:     logger,
	}
}

// urlsetXML はsitemap.xmlのurlset形式。
type urlsetXML struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// sitemapindexXML はサイトマップインデックス形式。
type sitemapindexXML struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// FetchURLs はサイトマップからページURLの一覧を取得する。
// urlset形式とsitemapindex形式の両方に対応し、インデックスの場合は
// 子サイトマップを上限数まで辿る。収集数はmaxURLsで打ち切る。
func (s *Service) FetchURLs(ctx context.Context, sitemapURL string) ([]string, error) {
	body, err := s.fetch(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	var urlset urlsetXML
	if err := xml.Unmarshal(body, &urlset); err == nil && len(urlset.URLs) > 0 {
		return s.collectLocs(urlset), nil
	}

	var index sitemapindexXML
	if err := xml.Unmarshal(body, &index); err != nil || len(index.Sitemaps) == 0 {
		return nil, fmt.Errorf("サイトマップのパースに失敗しました: %s", sitemapURL)
	}

	var urls []string
	children := index.Sitemaps
	if len(children) > maxChildSitemaps {
		children = children[:maxChildSitemaps]
	}
	for _, child := range children {
		childBody, err := s.fetch(ctx, child.Loc)
		if err != nil {
			s.logger.Warn("子サイトマップの取得に失敗しました",
				slog.String("url", child.Loc),
				slog.String("error", err.Error()),
			)
			continue
		}
		var childSet urlsetXML
		if err := xml.Unmarshal(childBody, &childSet); err != nil {
			s.logger.Warn("子サイトマップのパースに失敗しました",
				slog.String("url", child.Loc),
				slog.String("error", err.Error()),
			)
			continue
		}
		urls = append(urls, s.collectLocs(childSet)...)
		if len(urls) >= maxURLs {
			urls = urls[:maxURLs]
			break
		}
	}

	return urls, nil
}

// collectLocs はurlsetからloc要素を上限数まで取り出す。
func (s *Service) collectLocs(urlset urlsetXML) []string {
	urls := make([]string, 0, len(urlset.URLs))
	for _, u := range urlset.URLs {
		loc := strings.TrimSpace(u.Loc)
		if loc == "" {
			continue
		}
		urls = append(urls, loc)
		if len(urls) >= maxURLs {
			break
		}
	}
	return urls
}

// fetch はURLからレスポンスボディを読み取る。読み取りサイズはmaxBodySizeで制限する。
func (s *Service) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ステータス %d が返されました: %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}
	return body, nil
}

// FetchTitle はページのtitle要素を取得する。取得できない場合はURLのスラッグを整形して返す。
func (s *Service) FetchTitle(ctx context.Context, pageURL string) string {
	body, err := s.fetch(ctx, pageURL)
	if err != nil {
		return slugTitle(pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return slugTitle(pageURL)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return slugTitle(pageURL)
	}
	return title
}

// scoredURL はトピック関連度付きのURL。
type scoredURL struct {
	url   string
	score int
}

// RelevantURLs はトピックとの関連度が高い順にURLを最大limit件返す。
// URLのパス要素とトピックのトークンの重なりをスコアとし、スコア0のURLは除外する。
func RelevantURLs(urls []string, topic string, limit int) []string {
	if limit <= 0 || len(urls) == 0 {
		return nil
	}

	topicTokens := tokenize(topic)
	if len(topicTokens) == 0 {
		return nil
	}

	scored := make([]scoredURL, 0, len(urls))
	for _, u := range urls {
		score := 0
		urlTokens := tokenizeURL(u)
		for token := range topicTokens {
			if _, ok := urlTokens[token]; ok {
				score++
			}
		}
		if score > 0 {
			scored = append(scored, scoredURL{url: u, score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	result := make([]string, len(scored))
	for i, s := range scored {
		result[i] = s.url
	}
	return result
}

// stopwords はスコアリングから除外する一般語。
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {},
	"in": {}, "on": {}, "for": {}, "with": {}, "how": {}, "what": {},
	"blog": {}, "post": {}, "posts": {}, "article": {}, "articles": {},
	"page": {}, "category": {}, "tag": {}, "archives": {},
	"の": {}, "と": {}, "は": {}, "が": {}, "を": {}, "に": {}, "で": {},
}

// tokenize はトピック文字列を小文字トークンの集合に分解する。
func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, field := range strings.FieldsFunc(strings.ToLower(text), isSeparator) {
		if len(field) < 2 && !containsMultibyte(field) {
			continue
		}
		if _, ok := stopwords[field]; ok {
			continue
		}
		tokens[field] = struct{}{}
	}
	return tokens
}

// tokenizeURL はURLのパスとクエリをトークンの集合に分解する。
func tokenizeURL(rawURL string) map[string]struct{} {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return tokenize(rawURL)
	}
	// 日本語スラッグに対応するためパーセントエンコードを解除する
	path, err := url.PathUnescape(parsed.Path)
	if err != nil {
		path = parsed.Path
	}
	return tokenize(path)
}

// isSeparator はトークンの区切り文字かを判定する。
func isSeparator(r rune) bool {
	switch r {
	case ' ', '　', '/', '-', '_', '.', ',', '!', '?', '、', '。', '：', ':':
		return true
	}
	return false
}

// containsMultibyte はマルチバイト文字を含むかを判定する。
// 日本語の1文字トークンを短さで捨てないために使う。
func containsMultibyte(s string) bool {
	for _, r := range s {
		if r > 127 {
			return true
		}
	}
	return false
}

// slugTitle はURL末尾のスラッグを人間可読なタイトルに整形する。
func slugTitle(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}
	segments := strings.Split(path, "/")
	slug := segments[len(segments)-1]
	if unescaped, err := url.PathUnescape(slug); err == nil {
		slug = unescaped
	}
	slug = strings.TrimSuffix(slug, ".html")
	return strings.ReplaceAll(strings.ReplaceAll(slug, "-", " "), "_", " ")
}
