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

package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	sharedmath "github.com/hebelmx/veriqan/pkg/shared/math"
)

// ResourceProbe checks runtime-committed memory and worker-goroutine
// availability against configured ceilings (spec.md §4.10).
type ResourceProbe struct {
	MaxMemoryUsageMB   int64
	MaxGoroutines      int
	DegradedThreshold  float64 // fraction of ceiling that trips Degraded, default 0.8
}

func (ResourceProbe) Name() string { return "runtime-resources" }

func (p ResourceProbe) Check(ctx context.Context) ComponentResult {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	usedMB := int64(mem.Sys / (1024 * 1024))
	goroutines := runtime.NumGoroutine()

	threshold := p.DegradedThreshold
	if threshold <= 0 {
		threshold = 0.8
	}

	status := Healthy
	detail := fmt.Sprintf("memory=%dMB goroutines=%d", usedMB, goroutines)
	if p.MaxMemoryUsageMB > 0 {
		ratio := float64(usedMB) / float64(p.MaxMemoryUsageMB)
		if ratio >= 1 {
			status = Unhealthy
		} else if ratio >= threshold {
			status = Degraded
		}
	}
	if p.MaxGoroutines > 0 && goroutines >= p.MaxGoroutines {
		status = worse(status, Unhealthy)
	}

	return ComponentResult{Name: p.Name(), Status: status, Detail: detail}
}

// TempFilesystemProbe verifies the configured temp directory is writable
// and that files written to it can be removed, a prerequisite for every
// pipeline stage that stages intermediate extraction artifacts.
type TempFilesystemProbe struct {
	Dir string
}

func (TempFilesystemProbe) Name() string { return "temp-filesystem" }

func (p TempFilesystemProbe) Check(ctx context.Context) ComponentResult {
	dir := p.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	probe := filepath.Join(dir, fmt.Sprintf("veriqan-health-%d", time.Now().UnixNano()))
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return ComponentResult{Name: p.Name(), Status: Unhealthy, Detail: "write failed: " + err.Error()}
	}
	if err := os.Remove(probe); err != nil {
		return ComponentResult{Name: p.Name(), Status: Degraded, Detail: "delete failed: " + err.Error()}
	}
	return ComponentResult{Name: p.Name(), Status: Healthy, Detail: "writable: " + dir}
}

// OCRRuntimeProbe reports whether the configured OCR binary is present on
// disk; it does not invoke it.
type OCRRuntimeProbe struct {
	BinaryPath string
}

func (OCRRuntimeProbe) Name() string { return "ocr-runtime" }

func (p OCRRuntimeProbe) Check(ctx context.Context) ComponentResult {
	if p.BinaryPath == "" {
		return ComponentResult{Name: p.Name(), Status: Unknown, Detail: "no OCR binary path configured"}
	}
	if info, err := os.Stat(p.BinaryPath); err != nil || info.IsDir() {
		return ComponentResult{Name: p.Name(), Status: Unhealthy, Detail: "OCR binary not found at " + p.BinaryPath}
	}
	return ComponentResult{Name: p.Name(), Status: Healthy, Detail: "OCR binary present"}
}

// PerformanceProbe compares a rolling window of observed latencies (ms)
// against a configured SLO; a mean latency above the SLO degrades the probe
// (spec.md §4.10 "Performance check").
type PerformanceProbe struct {
	ComponentName  string
	SLOMillis      float64
	RecentLatencies []float64 // caller-maintained rolling window, newest last
}

func (p PerformanceProbe) Name() string { return p.ComponentName }

func (p PerformanceProbe) Check(ctx context.Context) ComponentResult {
	if len(p.RecentLatencies) == 0 {
		return ComponentResult{Name: p.Name(), Status: Unknown, Detail: "no latency samples yet"}
	}
	mean := sharedmath.Mean(p.RecentLatencies)
	status := Healthy
	if p.SLOMillis > 0 && mean > p.SLOMillis {
		status = Degraded
	}
	return ComponentResult{Name: p.Name(), Status: status, Detail: fmt.Sprintf("meanLatencyMs=%.1f sloMs=%.1f", mean, p.SLOMillis)}
}

// DependencyProbe wraps an arbitrary external-dependency ping (e.g. a
// database or cache client) into the Probe contract.
type DependencyProbe struct {
	DependencyName string
	Ping           func(ctx context.Context) error
}

func (p DependencyProbe) Name() string { return p.DependencyName }

func (p DependencyProbe) Check(ctx context.Context) ComponentResult {
	if err := p.Ping(ctx); err != nil {
		return ComponentResult{Name: p.Name(), Status: Unhealthy, Detail: err.Error()}
	}
	return ComponentResult{Name: p.Name(), Status: Healthy, Detail: "reachable"}
}
