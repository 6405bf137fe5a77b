package pipeline

import (
	"context"
	"fmt"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

// CompletionRequest はLLM呼び出し1回分のリクエスト。
// Schemaを指定すると構造化出力（JSON）を要求する。
type CompletionRequest struct {
	System      string
	User        string
	Schema      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// ArticleWriter はLLM呼び出しのインターフェース。テスト時にモックに差し替え可能。
type ArticleWriter interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// AnthropicWriter はllmkitを使用したArticleWriterの実装。
type AnthropicWriter struct {
	apiKey string
}

// NewAnthropicWriter はAnthropicWriter の新しいインスタンスを生成する。
func NewAnthropicWriter(apiKey string) *AnthropicWriter {
	return &AnthropicWriter{apiKey: apiKey}
}

// Complete はAnthropic APIを呼び出してテキストを生成する。
// llmkitはコンテキストを受け取らないため、呼び出しを別ゴルーチンで実行し、
// コンテキストのキャンセルで早期リターンする。
func (w *AnthropicWriter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	settings := types.RequestSettings{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		response, err := anthropic.PromptWithSettings(req.System, req.User, req.Schema, w.apiKey, settings)
		if err != nil {
			ch <- result{err: fmt.Errorf("LLM呼び出しに失敗しました: %w", err)}
			return
		}
		if len(response.Content) == 0 {
			ch <- result{err: fmt.Errorf("LLMレスポンスにコンテンツが含まれていません")}
			return
		}
		ch <- result{text: response.Content[0].Text}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.text, r.err
	}
}
