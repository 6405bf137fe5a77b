package app

import (
	"flag"
	"fmt"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe は管理APIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker は自動投稿デーモンモードで起動することを示す。
	CommandWorker Command = "worker"
	// CommandRun は自動投稿サイクルを1回だけ実行することを示す。
	// cronからの定期実行や動作確認に使う。
	CommandRun Command = "run"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "worker":
		return CommandWorker
	case "run":
		return CommandRun
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}

// RunOptions はrunサブコマンドのオプション。
type RunOptions struct {
	SiteID string // 指定サイトのみ実行（空の場合は全サイト）
	Force  bool   // 投稿予定日の判定をスキップする
	DryRun bool   // 生成までは行うが公開と記録は行わない
}

// ParseRunFlags はrunサブコマンドのフラグを解析する。
// argsにはサブコマンド名を除いた引数を渡す。
func ParseRunFlags(args []string) (*RunOptions, error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	opts := &RunOptions{}
	fs.StringVar(&opts.SiteID, "site", "", "実行対象のサイトID（省略時は全サイト）")
	fs.BoolVar(&opts.Force, "force", false, "投稿予定日の判定をスキップする")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "公開と最終投稿日の記録を行わない")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("runフラグの解析に失敗しました: %w", err)
	}
	return opts, nil
}
