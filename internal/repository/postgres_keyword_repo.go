package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/postflow/internal/model"
)

// PostgresKeywordRepo はPostgreSQLを使用したキーワードリポジトリ。
type PostgresKeywordRepo struct {
	db *sql.DB
}

// NewPostgresKeywordRepo はPostgresKeywordRepoを生成する。
func NewPostgresKeywordRepo(db *sql.DB) *PostgresKeywordRepo {
	return &PostgresKeywordRepo{db: db}
}

// ListBySite はサイトのキーワード候補を新しい順で返す。
func (r *PostgresKeywordRepo) ListBySite(ctx context.Context, siteID string) ([]*model.Keyword, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, site_id, term, source, created_at
		 FROM keywords
		 WHERE site_id = $1
		 ORDER BY created_at DESC, term ASC`,
		siteID)
	if err != nil {
		return nil, fmt.Errorf("キーワード候補の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var keywords []*model.Keyword
	for rows.Next() {
		kw := &model.Keyword{}
		if err := rows.Scan(&kw.ID, &kw.SiteID, &kw.Term, &kw.Source, &kw.CreatedAt); err != nil {
			return nil, fmt.Errorf("キーワード候補の読み取りに失敗しました: %w", err)
		}
		keywords = append(keywords, kw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("キーワード候補の走査に失敗しました: %w", err)
	}
	return keywords, nil
}

// ReplaceForSite はサイトのキーワード候補をトランザクション内で全置換する。
func (r *PostgresKeywordRepo) ReplaceForSite(ctx context.Context, siteID string, keywords []*model.Keyword) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM keywords WHERE site_id = $1`, siteID); err != nil {
		return fmt.Errorf("既存キーワードの削除に失敗しました: %w", err)
	}

	for _, kw := range keywords {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO keywords (id, site_id, term, source, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			kw.ID, kw.SiteID, kw.Term, kw.Source, kw.CreatedAt)
		if err != nil {
			return fmt.Errorf("キーワードの保存に失敗しました: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ KeywordRepository = (*PostgresKeywordRepo)(nil)
