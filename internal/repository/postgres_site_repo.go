package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/postflow/internal/model"
)

// PostgresSiteRepo はPostgreSQLを使用したサイトリポジトリ。
type PostgresSiteRepo struct {
	db *sql.DB
}

// NewPostgresSiteRepo はPostgresSiteRepoを生成する。
func NewPostgresSiteRepo(db *sql.DB) *PostgresSiteRepo {
	return &PostgresSiteRepo{db: db}
}

const siteColumns = `id, name, site_url, sitemap_url, research_feed_url,
	cadence, post_days, post_time, word_count, auto_publish,
	wp_endpoint, wp_username, wp_app_password, affiliate_links,
	last_post_date, created_at, updated_at`

// List はサイト一覧を返す。
func (r *PostgresSiteRepo) List(ctx context.Context, onlyAutomatable bool) ([]*model.Site, error) {
	query := `SELECT ` + siteColumns + ` FROM sites`
	if onlyAutomatable {
		query += ` WHERE cadence <> '' AND wp_endpoint <> ''`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("サイト一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var sites []*model.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("サイト一覧の読み取りに失敗しました: %w", err)
		}
		sites = append(sites, site)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("サイト一覧の走査に失敗しました: %w", err)
	}

	return sites, nil
}

// FindByID は指定IDのサイトを取得する。見つからない場合はnilを返す。
func (r *PostgresSiteRepo) FindByID(ctx context.Context, id string) (*model.Site, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE id = $1`, id)

	site, err := scanSite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("サイトの取得に失敗しました: %w", err)
	}
	return site, nil
}

// Create はサイトを作成する。
func (r *PostgresSiteRepo) Create(ctx context.Context, site *model.Site) error {
	affiliates, err := marshalAffiliates(site.AffiliateLinks)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sites (`+siteColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		site.ID, site.Name, site.SiteURL, nullString(site.SitemapURL), nullString(site.ResearchFeedURL),
		string(site.Cadence), joinDays(site.PostDays), nullString(site.PostTime),
		site.WordCount, site.AutoPublish,
		nullString(site.WPEndpoint), nullString(site.WPUsername), nullString(site.WPAppPassword),
		affiliates, nullDate(site.LastPostDate), site.CreatedAt, site.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("サイトの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はサイト設定を更新する。last_post_dateはデーモン専用のため対象外。
func (r *PostgresSiteRepo) Update(ctx context.Context, site *model.Site) error {
	affiliates, err := marshalAffiliates(site.AffiliateLinks)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE sites SET
		    name = $2, site_url = $3, sitemap_url = $4, research_feed_url = $5,
		    cadence = $6, post_days = $7, post_time = $8, word_count = $9,
		    auto_publish = $10, wp_endpoint = $11, wp_username = $12,
		    wp_app_password = $13, affiliate_links = $14, updated_at = $15
		 WHERE id = $1`,
		site.ID, site.Name, site.SiteURL, nullString(site.SitemapURL), nullString(site.ResearchFeedURL),
		string(site.Cadence), joinDays(site.PostDays), nullString(site.PostTime),
		site.WordCount, site.AutoPublish,
		nullString(site.WPEndpoint), nullString(site.WPUsername), nullString(site.WPAppPassword),
		affiliates, site.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("サイトの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDのサイトを削除する。
func (r *PostgresSiteRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("サイトの削除に失敗しました: %w", err)
	}
	return nil
}

// UpdateLastPostDate は最終投稿日を更新する。
func (r *PostgresSiteRepo) UpdateLastPostDate(ctx context.Context, siteID string, date time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sites SET last_post_date = $2, updated_at = now() WHERE id = $1`,
		siteID, date,
	)
	if err != nil {
		return fmt.Errorf("最終投稿日の更新に失敗しました: %w", err)
	}
	return nil
}

// rowScanner はsql.Rowとsql.Rowsの共通Scanインターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSite は1行をSiteに読み取る。
func scanSite(row rowScanner) (*model.Site, error) {
	site := &model.Site{}
	var sitemapURL, researchFeedURL, postDays, postTime sql.NullString
	var wpEndpoint, wpUsername, wpAppPassword sql.NullString
	var affiliates []byte
	var lastPostDate sql.NullTime
	var cadence string

	err := row.Scan(
		&site.ID, &site.Name, &site.SiteURL, &sitemapURL, &researchFeedURL,
		&cadence, &postDays, &postTime, &site.WordCount, &site.AutoPublish,
		&wpEndpoint, &wpUsername, &wpAppPassword, &affiliates,
		&lastPostDate, &site.CreatedAt, &site.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	site.Cadence = model.Cadence(cadence)
	site.SitemapURL = nullStringValue(sitemapURL)
	site.ResearchFeedURL = nullStringValue(researchFeedURL)
	site.PostDays = splitDays(nullStringValue(postDays))
	site.PostTime = nullStringValue(postTime)
	site.WPEndpoint = nullStringValue(wpEndpoint)
	site.WPUsername = nullStringValue(wpUsername)
	site.WPAppPassword = nullStringValue(wpAppPassword)

	if len(affiliates) > 0 {
		if err := json.Unmarshal(affiliates, &site.AffiliateLinks); err != nil {
			return nil, fmt.Errorf("アフィリエイトリンクのパースに失敗しました: %w", err)
		}
	}
	if lastPostDate.Valid {
		d := lastPostDate.Time
		site.LastPostDate = &d
	}

	return site, nil
}

// marshalAffiliates はアフィリエイトリンクをJSONBカラム用にシリアライズする。
func marshalAffiliates(links []model.AffiliateLink) ([]byte, error) {
	if len(links) == 0 {
		return []byte("[]"), nil
	}
	data, err := json.Marshal(links)
	if err != nil {
		return nil, fmt.Errorf("アフィリエイトリンクのシリアライズに失敗しました: %w", err)
	}
	return data, nil
}

// joinDays は曜日リストをカンマ区切りのテキストカラム値にする。
func joinDays(days []string) sql.NullString {
	if len(days) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: strings.Join(days, ","), Valid: true}
}

// splitDays はカンマ区切りのテキストカラム値を曜日リストに戻す。
func splitDays(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullDate は*time.Timeをsql.NullTimeに変換する。
func nullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// compile-time interface check
var _ SiteRepository = (*PostgresSiteRepo)(nil)
