/*
Copyright 2026 Veriqan Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package logging wires the process-wide structured logger: zap.Logger as
// the sink, exposed everywhere else as logr.Logger via go-logr/zapr (DD-005
// pattern: convert zap.Logger to logr.Logger for unified logging across
// collaborators, so no package needs to know which sink backs it).
package logging

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hebelmx/veriqan/pkg/audit"
)

// New builds a production zap.Logger at the given level and wraps it as a
// logr.Logger. Pass "debug" in development, anything else for production
// JSON output.
func New(level string) (logr.Logger, error) {
	var cfg zap.Config
	if level == "debug" {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
	}
	zapLog, err := cfg.Build()
	if err != nil {
		return logr.Logger{}, err
	}
	return zapr.NewLogger(zapLog), nil
}

// Discard returns a no-op logr.Logger, for tests that don't assert on log
// output.
func Discard() logr.Logger { return logr.Discard() }

// WithCorrelation attaches ctx's CorrelationId (minting one if absent) to
// both the returned context and the returned logger, so every downstream
// call logs and propagates the same id.
func WithCorrelation(ctx context.Context, log logr.Logger) (context.Context, logr.Logger) {
	ctx, id := audit.EnsureCorrelationID(ctx)
	return ctx, log.WithValues("correlationId", id)
}
