package pipeline

import (
	"fmt"
	"html"
	"strings"

	"github.com/hitoshi/postflow/internal/imagesearch"
	"github.com/hitoshi/postflow/internal/model"
	"github.com/hitoshi/postflow/internal/sitemap"
)

// insertImages はh2見出しの直後に画像を挿入する。
// 画像数はlimitと見出し数の少ない方で打ち切り、挿入した枚数を返す。
// 見出しがない場合は先頭に1枚だけ挿入する。
func insertImages(articleHTML string, images []imagesearch.Image, limit int) (string, int) {
	if len(images) == 0 || limit <= 0 {
		return articleHTML, 0
	}
	if len(images) > limit {
		images = images[:limit]
	}

	const marker = "</h2>"
	parts := strings.Split(articleHTML, marker)
	if len(parts) < 2 {
		return figureTag(images[0]) + articleHTML, 1
	}

	var b strings.Builder
	inserted := 0
	for i, part := range parts {
		b.WriteString(part)
		if i == len(parts)-1 {
			break
		}
		b.WriteString(marker)
		if inserted < len(images) {
			b.WriteString(figureTag(images[inserted]))
			inserted++
		}
	}
	return b.String(), inserted
}

// figureTag は画像1枚分のfigure要素を組み立てる。
func figureTag(img imagesearch.Image) string {
	alt := html.EscapeString(img.Tags)
	return fmt.Sprintf(`<figure><img src="%s" alt="%s"></figure>`, html.EscapeString(img.URL), alt)
}

// appendRelatedLinks は記事末尾に関連記事セクションを付加する。
func appendRelatedLinks(articleHTML string, pages []sitemap.Page) string {
	if len(pages) == 0 {
		return articleHTML
	}

	var b strings.Builder
	b.WriteString(articleHTML)
	b.WriteString("<h3>関連記事</h3><ul>")
	for _, page := range pages {
		title := page.Title
		if title == "" {
			title = page.URL
		}
		fmt.Fprintf(&b, `<li><a href="%s">%s</a></li>`, html.EscapeString(page.URL), html.EscapeString(title))
	}
	b.WriteString("</ul>")
	return b.String()
}

// enrichAffiliateLinks は記事本文中のキーワードの初出をアフィリエイトリンクに置換する。
// タグの内側にあるキーワードは対象外。置換数をarticle.AffiliateCountに記録する。
func enrichAffiliateLinks(article *model.GeneratedArticle, links []model.AffiliateLink) {
	count := 0
	for _, link := range links {
		if link.Keyword == "" || link.URL == "" {
			continue
		}
		replaced, ok := linkFirstOccurrence(article.HTML, link.Keyword, link.URL)
		if ok {
			article.HTML = replaced
			count++
		}
	}
	article.AffiliateCount = count
}

// linkFirstOccurrence はテキスト部分に現れるキーワードの初出をアンカーに置換する。
func linkFirstOccurrence(articleHTML, keyword, linkURL string) (string, bool) {
	searchFrom := 0
	for {
		idx := strings.Index(articleHTML[searchFrom:], keyword)
		if idx < 0 {
			return articleHTML, false
		}
		idx += searchFrom

		if insideTag(articleHTML, idx) || insideAnchor(articleHTML, idx) {
			searchFrom = idx + len(keyword)
			continue
		}

		anchor := fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(linkURL), keyword)
		return articleHTML[:idx] + anchor + articleHTML[idx+len(keyword):], true
	}
}

// insideTag は位置posがHTMLタグの山括弧の内側かを判定する。
func insideTag(s string, pos int) bool {
	open := strings.LastIndex(s[:pos], "<")
	if open < 0 {
		return false
	}
	closeIdx := strings.LastIndex(s[:pos], ">")
	return closeIdx < open
}

// insideAnchor は位置posが既存のa要素の内側かを判定する。二重リンクを防ぐ。
func insideAnchor(s string, pos int) bool {
	lastOpen := strings.LastIndex(strings.ToLower(s[:pos]), "<a ")
	if lastOpen < 0 {
		return false
	}
	lastClose := strings.LastIndex(strings.ToLower(s[:pos]), "</a>")
	return lastClose < lastOpen
}
