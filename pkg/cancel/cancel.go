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

// Package cancel provides the uniform cancellation-check/propagate/partial-
// result helpers every public operation is built from (spec.md §4.3).
// Cancellation is threaded through the standard library's context.Context;
// this package adds the enumerative-loop and resource-release idioms the
// spec requires on top of it.
package cancel

import (
	"context"

	"github.com/hebelmx/veriqan/pkg/outcome"
)

// Requested reports whether ctx has already been cancelled, for the
// pre-flight check every public operation must perform before starting work.
func Requested(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Guard returns a Cancelled outcome and true when ctx is already done, so
// callers can write:
//
//	if o, cancelled := cancel.Guard[T](ctx); cancelled { return o }
func Guard[T any](ctx context.Context) (outcome.Outcome[T], bool) {
	if Requested(ctx) {
		return outcome.Cancelled[T](), true
	}
	return outcome.Outcome[T]{}, false
}

// Release runs cleanup unconditionally; intended to be deferred immediately
// after a scoped external resource (browser session, stream, temp file) is
// acquired, so it fires on every exit path including Cancelled (§4.3.4).
func Release(cleanup func()) {
	if cleanup != nil {
		cleanup()
	}
}

// PartialResult synthesizes the Warned outcome for an enumerative operation
// (a loop over N items) observed cancelled after K>0 items completed
// (§4.3.3, invariant I6). Callers with K==0 should return Cancelled directly
// instead of calling this.
func PartialResult[T any](value T, completed, total int, extraWarnings ...string) outcome.Outcome[T] {
	confidence := float64(completed) / float64(total)
	missing := 1 - confidence
	warnings := append([]string{}, extraWarnings...)
	return outcome.Warned(value, warnings, confidence, missing)
}

// CheckEvery reports whether ctx has been cancelled, for use as the check a
// loop makes before each item. The protocol checks at the top of
// every iteration (§4.3.3); this helper exists mainly for readability at call
// sites that want it spelled out.
func CheckEvery(ctx context.Context) bool {
	return Requested(ctx)
}
