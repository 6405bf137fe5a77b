package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSetup_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(&buf, "info")

	logger.Info("テストメッセージ", slog.String("key", "value"))

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry); err != nil {
		t.Fatalf("JSON形式のログが出力されるべき: %v", err)
	}
	if entry["msg"] != "テストメッセージ" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v", entry["key"])
	}
}

func TestSetup_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(&buf, "warn")

	logger.Info("出力されないはず")
	if buf.Len() != 0 {
		t.Errorf("warnレベルではinfoログは出力されないべき: %s", buf.String())
	}

	logger.Warn("出力されるはず")
	if buf.Len() == 0 {
		t.Error("warnログは出力されるべき")
	}
}

func TestSetup_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(&buf, "verbose")

	logger.Info("info")
	if buf.Len() == 0 {
		t.Error("未知のレベル指定はinfoとして扱うべき")
	}
}
