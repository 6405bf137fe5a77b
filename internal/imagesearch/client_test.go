package imagesearch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestSearch_ReturnsImages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "test-key" {
			t.Errorf("keyパラメータ = %q, want test-key", q.Get("key"))
		}
		if q.Get("q") != "キャンプ 初心者" {
			t.Errorf("qパラメータ = %q", q.Get("q"))
		}
		if q.Get("safesearch") != "true" {
			t.Error("safesearch=trueが設定されるべき")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hits":[
			{"webformatURL":"https://cdn.pixabay.com/photo/1.jpg","pageURL":"https://pixabay.com/photos/1/","tags":"camp, tent"},
			{"webformatURL":"https://cdn.pixabay.com/photo/2.jpg","pageURL":"https://pixabay.com/photos/2/","tags":"outdoor"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), newTestLogger(), "test-key")
	client.endpoint = server.URL

	images, err := client.Search(context.Background(), "キャンプ 初心者", 3)
	if err != nil {
		t.Fatalf("Search() がエラーを返した: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("画像数 = %d, want 2", len(images))
	}
	if images[0].URL != "https://cdn.pixabay.com/photo/1.jpg" {
		t.Errorf("images[0].URL = %q", images[0].URL)
	}
	if images[1].Tags != "outdoor" {
		t.Errorf("images[1].Tags = %q", images[1].Tags)
	}
}

func TestSearch_EmptyAPIKeyReturnsNil(t *testing.T) {
	client := NewClient(http.DefaultClient, newTestLogger(), "")

	images, err := client.Search(context.Background(), "キャンプ", 3)
	if err != nil {
		t.Fatalf("APIキー未設定時はエラーなしで空を返すべき: %v", err)
	}
	if len(images) != 0 {
		t.Errorf("APIキー未設定時は空の結果を返すべき: %d件", len(images))
	}
}

func TestSearch_EmptyQueryReturnsError(t *testing.T) {
	client := NewClient(http.DefaultClient, newTestLogger(), "test-key")

	_, err := client.Search(context.Background(), "", 3)
	if err == nil {
		t.Error("空キーワードはエラーを返すべき")
	}
}

func TestSearch_ServerErrorReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.Client(), newTestLogger(), "test-key")
	client.endpoint = server.URL

	_, err := client.Search(context.Background(), "キャンプ", 3)
	if err == nil {
		t.Error("エラーステータスの場合はエラーを返すべき")
	}
}

func TestSearch_InvalidJSONReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.Client(), newTestLogger(), "test-key")
	client.endpoint = server.URL

	_, err := client.Search(context.Background(), "キャンプ", 3)
	if err == nil {
		t.Error("不正なJSONの場合はエラーを返すべき")
	}
}

func TestSearch_SkipsHitsWithoutURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hits":[{"webformatURL":"","pageURL":"https://pixabay.com/photos/3/"},{"webformatURL":"https://cdn.pixabay.com/photo/4.jpg"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), newTestLogger(), "test-key")
	client.endpoint = server.URL

	images, err := client.Search(context.Background(), "キャンプ", 5)
	if err != nil {
		t.Fatalf("Search() がエラーを返した: %v", err)
	}
	if len(images) != 1 {
		t.Errorf("URLのないヒットは除外されるべき: %d件", len(images))
	}
}
