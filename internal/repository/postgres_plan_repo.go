package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/postflow/internal/model"
)

// PostgresPlanRepo はPostgreSQLを使用したコンテンツプランリポジトリ。
type PostgresPlanRepo struct {
	db *sql.DB
}

// NewPostgresPlanRepo はPostgresPlanRepoを生成する。
func NewPostgresPlanRepo(db *sql.DB) *PostgresPlanRepo {
	return &PostgresPlanRepo{db: db}
}

const planColumns = `id, site_id, topic, word_count, scheduled_date, status,
	title, content, external_post_id, image_count, internal_links,
	affiliate_count, created_at, updated_at`

// FindByID は指定IDのプランを取得する。見つからない場合はnilを返す。
func (r *PostgresPlanRepo) FindByID(ctx context.Context, id string) (*model.ContentPlan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM content_plans WHERE id = $1`, id)

	plan, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プランの取得に失敗しました: %w", err)
	}
	return plan, nil
}

// FindBySiteAndDate は(site_id, 暦日)でプランを検索する。見つからない場合はnilを返す。
func (r *PostgresPlanRepo) FindBySiteAndDate(ctx context.Context, siteID string, date time.Time) (*model.ContentPlan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM content_plans
		 WHERE site_id = $1 AND scheduled_date = $2`,
		siteID, dateOnly(date))

	plan, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("当日プランの検索に失敗しました: %w", err)
	}
	return plan, nil
}

// ListBySite はサイトのプラン一覧を予定日降順で返す。
func (r *PostgresPlanRepo) ListBySite(ctx context.Context, siteID string, limit int) ([]*model.ContentPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+planColumns+` FROM content_plans
		 WHERE site_id = $1
		 ORDER BY scheduled_date DESC
		 LIMIT $2`,
		siteID, limit)
	if err != nil {
		return nil, fmt.Errorf("プラン一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectPlans(rows)
}

// ListByStatus は指定ステータスのプラン一覧を予定日昇順で返す。
func (r *PostgresPlanRepo) ListByStatus(ctx context.Context, status model.PlanStatus, limit int) ([]*model.ContentPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+planColumns+` FROM content_plans
		 WHERE status = $1
		 ORDER BY scheduled_date ASC
		 LIMIT $2`,
		string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("ステータス別プラン一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectPlans(rows)
}

// ListTopicsBySite はサイトの既存プランのトピック一覧を返す。
func (r *PostgresPlanRepo) ListTopicsBySite(ctx context.Context, siteID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT topic FROM content_plans WHERE site_id = $1`, siteID)
	if err != nil {
		return nil, fmt.Errorf("使用済みトピックの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var topics []string
	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return nil, fmt.Errorf("使用済みトピックの読み取りに失敗しました: %w", err)
		}
		topics = append(topics, topic)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("使用済みトピックの走査に失敗しました: %w", err)
	}
	return topics, nil
}

// Create はプランを作成する。
// (site_id, scheduled_date) にはユニーク制約があり、同日二重作成はDB層でも防がれる。
func (r *PostgresPlanRepo) Create(ctx context.Context, plan *model.ContentPlan) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO content_plans (`+planColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		plan.ID, plan.SiteID, plan.Topic, plan.WordCount,
		dateOnly(plan.ScheduledDate), string(plan.Status),
		nullString(plan.Title), nullString(plan.Content), nullString(plan.ExternalPostID),
		plan.ImageCount, plan.InternalLinks, plan.AffiliateCount,
		plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("プランの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateStatus はプランのステータスと生成結果を更新する。
func (r *PostgresPlanRepo) UpdateStatus(ctx context.Context, plan *model.ContentPlan) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE content_plans SET
		    status = $2,
		    title = COALESCE(NULLIF($3, ''), title),
		    content = COALESCE(NULLIF($4, ''), content),
		    external_post_id = COALESCE(NULLIF($5, ''), external_post_id),
		    image_count = $6,
		    internal_links = $7,
		    affiliate_count = $8,
		    updated_at = now()
		 WHERE id = $1`,
		plan.ID, string(plan.Status), plan.Title, plan.Content, plan.ExternalPostID,
		plan.ImageCount, plan.InternalLinks, plan.AffiliateCount,
	)
	if err != nil {
		return fmt.Errorf("プランステータスの更新に失敗しました: %w", err)
	}
	return nil
}

// scanPlan は1行をContentPlanに読み取る。
func scanPlan(row rowScanner) (*model.ContentPlan, error) {
	plan := &model.ContentPlan{}
	var title, content, externalPostID sql.NullString
	var status string

	err := row.Scan(
		&plan.ID, &plan.SiteID, &plan.Topic, &plan.WordCount,
		&plan.ScheduledDate, &status,
		&title, &content, &externalPostID,
		&plan.ImageCount, &plan.InternalLinks, &plan.AffiliateCount,
		&plan.CreatedAt, &plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	plan.Status = model.PlanStatus(status)
	plan.Title = nullStringValue(title)
	plan.Content = nullStringValue(content)
	plan.ExternalPostID = nullStringValue(externalPostID)
	return plan, nil
}

// collectPlans は複数行をContentPlanのスライスに読み取る。
func collectPlans(rows *sql.Rows) ([]*model.ContentPlan, error) {
	var plans []*model.ContentPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("プラン一覧の読み取りに失敗しました: %w", err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("プラン一覧の走査に失敗しました: %w", err)
	}
	return plans, nil
}

// dateOnly は暦日部分のみを残した値を返す。DATE型カラムへの書き込みに使う。
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// compile-time interface check
var _ PlanRepository = (*PostgresPlanRepo)(nil)
