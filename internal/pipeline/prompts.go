// Package pipeline は記事生成パイプラインを提供する。
// トピックからメタデータの計画、本文の執筆、画像・リンクの付加、
// サニタイズまでを1つの生成処理として実行する。
package pipeline

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPromptsYAML []byte

// PromptPair はシステムプロンプトとユーザープロンプトの組。
// ユーザープロンプトはtext/templateのテンプレートとして展開される。
type PromptPair struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Prompts は生成パイプラインのプロンプト設定。
// PROMPTS_FILE環境変数でYAMLファイルから差し替えられる。
type Prompts struct {
	Planner PromptPair `yaml:"planner"`
	Writer  PromptPair `yaml:"writer"`
}

// LoadPrompts はプロンプト設定を読み込む。
// pathが空の場合は組み込みのデフォルトを使用する。
func LoadPrompts(path string) (*Prompts, error) {
	data := defaultPromptsYAML
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("プロンプトファイルの読み込みに失敗しました: %w", err)
		}
		data = fileData
	}

	var prompts Prompts
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("プロンプト設定のパースに失敗しました: %w", err)
	}

	if prompts.Planner.User == "" || prompts.Writer.User == "" {
		return nil, fmt.Errorf("プロンプト設定にplanner.userとwriter.userは必須です")
	}

	return &prompts, nil
}

// promptData はプロンプトテンプレートに渡す変数。
type promptData struct {
	Topic     string
	SiteName  string
	SiteURL   string
	WordCount int
	Outline   []string
	Title     string
}

// render はユーザープロンプトのテンプレートを展開する。
func render(tmplText string, data promptData) (string, error) {
	tmpl, err := template.New("prompt").Parse(tmplText)
	if err != nil {
		return "", fmt.Errorf("プロンプトテンプレートのパースに失敗しました: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("プロンプトテンプレートの展開に失敗しました: %w", err)
	}
	return buf.String(), nil
}
