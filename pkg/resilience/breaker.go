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

// Package resilience runs external collaborator calls through a per-name
// circuit breaker, so a failing dependency degrades to fast failures
// instead of compounding latency across the pipeline. cmd/veriqan routes
// its Slack client through it; the other collaborators are called directly.
package resilience

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/sony/gobreaker"
)

// Manager owns one gobreaker.CircuitBreaker per name, created lazily from a
// shared gobreaker.Settings template.
type Manager struct {
	settingsTemplate gobreaker.Settings
	log              logr.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewManager builds a Manager. Each breaker created from it shares
// template's ReadyToTrip/MaxRequests/Interval/Timeout, with Name and
// OnStateChange overridden per breaker name.
func NewManager(template gobreaker.Settings, log logr.Logger) *Manager {
	return &Manager{settingsTemplate: template, log: log, breakers: make(map[string]*gobreaker.CircuitBreaker)}
}

func (m *Manager) breaker(name string) *gobreaker.CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.breakers[name]; ok {
		return b
	}
	settings := m.settingsTemplate
	settings.Name = name
	settings.OnStateChange = func(n string, from, to gobreaker.State) {
		m.log.Info("circuit breaker state changed", "name", n, "from", from.String(), "to", to.String())
	}
	b := gobreaker.NewCircuitBreaker(settings)
	m.breakers[name] = b
	return b
}

// Execute runs fn through the named breaker, short-circuiting with the
// breaker's own error when it is open.
func (m *Manager) Execute(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	_, err := m.breaker(name).Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// State reports the current state of the named breaker, or the closed
// state if it has never been exercised.
func (m *Manager) State(name string) gobreaker.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.breakers[name]; ok {
		return b.State()
	}
	return gobreaker.StateClosed
}
