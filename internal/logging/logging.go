// Package logging は zap ロガーを生成します。
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New は level ("debug", "info", "warn", "error") のロガーを返します。
// development が true の場合はコンソール向けの出力になり、false の場合は JSON です。
func New(level string, development bool) (*zap.Logger, error) {
	if level == "" {
		level = "info"
	}
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("ログレベルの解析に失敗しました (%q): %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = atomicLevel

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("ロガーの生成に失敗しました: %w", err)
	}
	return logger, nil
}
