package keyword

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/postflow/internal/model"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// mockKeywordRepo はKeywordRepositoryのモック実装。
type mockKeywordRepo struct {
	listFunc func(ctx context.Context, siteID string) ([]*model.Keyword, error)
}

func (m *mockKeywordRepo) ListBySite(ctx context.Context, siteID string) ([]*model.Keyword, error) {
	return m.listFunc(ctx, siteID)
}
func (m *mockKeywordRepo) ReplaceForSite(ctx context.Context, siteID string, keywords []*model.Keyword) error {
	return nil
}

// mockPlanRepo はPlanRepositoryのモック実装。
type mockPlanRepo struct {
	listTopicsFunc func(ctx context.Context, siteID string) ([]string, error)
}

func (m *mockPlanRepo) FindByID(ctx context.Context, id string) (*model.ContentPlan, error) {
	return nil, nil
}
func (m *mockPlanRepo) FindBySiteAndDate(ctx context.Context, siteID string, date time.Time) (*model.ContentPlan, error) {
	return nil, nil
}
func (m *mockPlanRepo) ListBySite(ctx context.Context, siteID string, limit int) ([]*model.ContentPlan, error) {
	return nil, nil
}
func (m *mockPlanRepo) ListByStatus(ctx context.Context, status model.PlanStatus, limit int) ([]*model.ContentPlan, error) {
	return nil, nil
}
func (m *mockPlanRepo) ListTopicsBySite(ctx context.Context, siteID string) ([]string, error) {
	return m.listTopicsFunc(ctx, siteID)
}
func (m *mockPlanRepo) Create(ctx context.Context, plan *model.ContentPlan) error       { return nil }
func (m *mockPlanRepo) UpdateStatus(ctx context.Context, plan *model.ContentPlan) error { return nil }

func keywordList(terms ...string) []*model.Keyword {
	kws := make([]*model.Keyword, 0, len(terms))
	for _, term := range terms {
		kws = append(kws, &model.Keyword{SiteID: "site-1", Term: term})
	}
	return kws
}

func newService(keywords []*model.Keyword, topics []string) *Service {
	return NewService(
		&mockKeywordRepo{
			listFunc: func(ctx context.Context, siteID string) ([]*model.Keyword, error) {
				return keywords, nil
			},
		},
		&mockPlanRepo{
			listTopicsFunc: func(ctx context.Context, siteID string) ([]string, error) {
				return topics, nil
			},
		},
		newTestLogger(),
	)
}

func TestNextTopic_PicksFirstUnused(t *testing.T) {
	svc := newService(
		keywordList("冬キャンプ", "ソロテント", "焚き火台"),
		[]string{"冬キャンプ"},
	)

	topic, err := svc.NextTopic(context.Background(), &model.Site{ID: "site-1"})
	if err != nil {
		t.Fatalf("NextTopic() がエラーを返した: %v", err)
	}
	if topic != "ソロテント" {
		t.Errorf("topic = %q, want ソロテント", topic)
	}
}

func TestNextTopic_UsedComparisonIsCaseInsensitive(t *testing.T) {
	svc := newService(
		keywordList("Camping Gear", "Tent Guide"),
		[]string{"  camping gear  "},
	)

	topic, err := svc.NextTopic(context.Background(), &model.Site{ID: "site-1"})
	if err != nil {
		t.Fatalf("NextTopic() がエラーを返した: %v", err)
	}
	if topic != "Tent Guide" {
		t.Errorf("大文字小文字と空白を無視して使用済み判定すべき: %q", topic)
	}
}

func TestNextTopic_AllUsedCyclesDeterministically(t *testing.T) {
	keywords := keywordList("a", "b", "c")
	topics := []string{"a", "b", "c", "a"}

	svc := newService(keywords, topics)
	topic, err := svc.NextTopic(context.Background(), &model.Site{ID: "site-1"})
	if err != nil {
		t.Fatalf("NextTopic() がエラーを返した: %v", err)
	}
	// プラン数4 % キーワード数3 = 1 → b
	if topic != "b" {
		t.Errorf("topic = %q, want b", topic)
	}
}

func TestNextTopic_NoKeywordsFallsBackToSiteName(t *testing.T) {
	svc := newService(nil, nil)

	topic, err := svc.NextTopic(context.Background(), &model.Site{ID: "site-1", Name: "キャンプ道具レビュー"})
	if err != nil {
		t.Fatalf("NextTopic() がエラーを返した: %v", err)
	}
	if topic != "キャンプ道具レビュー" {
		t.Errorf("topic = %q, want サイト名", topic)
	}
}

func TestNextTopic_KeywordRepoErrorPropagates(t *testing.T) {
	svc := NewService(
		&mockKeywordRepo{
			listFunc: func(ctx context.Context, siteID string) ([]*model.Keyword, error) {
				return nil, errors.New("db down")
			},
		},
		&mockPlanRepo{},
		newTestLogger(),
	)

	_, err := svc.NextTopic(context.Background(), &model.Site{ID: "site-1"})
	if err == nil {
		t.Error("リポジトリエラーは伝播すべき")
	}
}

func TestNextTopic_TopicsRepoErrorPropagates(t *testing.T) {
	svc := NewService(
		&mockKeywordRepo{
			listFunc: func(ctx context.Context, siteID string) ([]*model.Keyword, error) {
				return keywordList("a"), nil
			},
		},
		&mockPlanRepo{
			listTopicsFunc: func(ctx context.Context, siteID string) ([]string, error) {
				return nil, errors.New("db down")
			},
		},
		newTestLogger(),
	)

	_, err := svc.NextTopic(context.Background(), &model.Site{ID: "site-1"})
	if err == nil {
		t.Error("リポジトリエラーは伝播すべき")
	}
}
