// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ArticleSanitizer は生成された記事HTMLを公開前にサニタイズし、
// LLM出力に紛れ込んだ危険なタグや属性が公開先に届くのを防ぐ。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 記事本文として妥当なタグのみを通過させる。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// ArticleSanitizerService は記事HTMLのサニタイズ機能のインターフェースを定義する。
// コンテンツパイプラインの最終段（DELIVER直前）で使用される。
type ArticleSanitizerService interface {
	// Sanitize は記事HTMLをサニタイズして安全なHTMLを返す。
	// 見出し・段落・リスト・リンク・画像など記事構造のタグのみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(rawHTML string) string
}

// articleSanitizer はArticleSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type articleSanitizer struct {
	policy *bluemonday.Policy
}

// NewArticleSanitizer はArticleSanitizerServiceの新しいインスタンスを生成する。
// ポリシーの内容:
//   - 許可タグ: h1〜h4, p, br, ul, ol, li, blockquote, pre, code, strong, em,
//     a, img, figure, figcaption, table, thead, tbody, tr, th, td
//   - 禁止タグ: script, iframe, style および全てのon*イベント属性
//   - a: href属性を許可し、rel="nofollow noopener"を付与（アフィリエイトリンク対策）
//   - img: src（http/https）とaltを許可
func NewArticleSanitizer() *articleSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"h1", "h2", "h3", "h4",
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
		"figure", "figcaption",
		"table", "thead", "tbody", "tr", "th", "td",
	)

	// リンク: hrefを許可。アフィリエイトリンクを含むためnofollowを強制する。
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(true)
	p.RequireNoReferrerOnLinks(true)

	// 画像: 外部画像検索APIのURLはhttpsだが、移行期のサイト自身の画像はhttpも許す。
	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowURLSchemes("http", "https")

	return &articleSanitizer{
		policy: p,
	}
}

// Sanitize は記事HTMLをサニタイズして安全なHTMLを返す。
func (s *articleSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}
