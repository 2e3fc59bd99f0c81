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

// Package outcome implements the four-state Outcome kernel every pipeline
// stage is built on (spec.md §4.1, design note in §9): Success, Failure,
// Cancelled, Warned. A function that calls a fallible collaborator must
// check cancellation first, map collaborator Failure to its own Failure,
// and may fold partial progress into Warned. Nothing here throws to signal
// domain failure.
package outcome

// State tags which of the four Outcome cases a value holds.
type State int

const (
	StateSuccess State = iota
	StateFailure
	StateCancelled
	StateWarned
)

func (s State) String() string {
	switch s {
	case StateSuccess:
		return "Success"
	case StateFailure:
		return "Failure"
	case StateCancelled:
		return "Cancelled"
	case StateWarned:
		return "Warned"
	default:
		return "Unknown"
	}
}

// Outcome is the tagged variant carried by every public pipeline operation.
// Exactly one of Value/Err is meaningful for a given State: Success and
// Warned carry Value, Failure carries Err, Cancelled carries neither.
type Outcome[T any] struct {
	state            State
	value            T
	err              error
	warnings         []string
	confidence       float64
	missingDataRatio float64
}

// Success builds a completed Outcome.
func Success[T any](value T) Outcome[T] {
	return Outcome[T]{state: StateSuccess, value: value}
}

// Failure builds an unrecoverable Outcome; err must be non-nil.
func Failure[T any](err error) Outcome[T] {
	return Outcome[T]{state: StateFailure, err: err}
}

// Cancelled builds an Outcome representing observed caller cancellation.
func Cancelled[T any]() Outcome[T] {
	return Outcome[T]{state: StateCancelled}
}

// Warned builds a partially-completed Outcome. confidence is
// completed/requested; missingDataRatio is 1-confidence (invariant I6) but is
// accepted explicitly so callers with a different "requested" denominator
// (e.g. dedup shrinking the completed count) can still satisfy the invariant
// exactly.
func Warned[T any](value T, warnings []string, confidence, missingDataRatio float64) Outcome[T] {
	return Outcome[T]{
		state:            StateWarned,
		value:            value,
		warnings:         append([]string(nil), warnings...),
		confidence:       confidence,
		missingDataRatio: missingDataRatio,
	}
}

func (o Outcome[T]) State() State { return o.state }
func (o Outcome[T]) IsSuccess() bool   { return o.state == StateSuccess }
func (o Outcome[T]) IsFailure() bool   { return o.state == StateFailure }
func (o Outcome[T]) IsCancelled() bool { return o.state == StateCancelled }
func (o Outcome[T]) IsWarned() bool    { return o.state == StateWarned }

// Value returns the carried value for Success/Warned and the zero value
// otherwise. Callers that need to distinguish "present" from "zero" should
// check State() first.
func (o Outcome[T]) Value() T { return o.value }

// Err returns the carried error for Failure and nil otherwise.
func (o Outcome[T]) Err() error { return o.err }

func (o Outcome[T]) Warnings() []string         { return o.warnings }
func (o Outcome[T]) Confidence() float64        { return o.confidence }
func (o Outcome[T]) MissingDataRatio() float64  { return o.missingDataRatio }

// Map transforms the carried value of a Success or Warned Outcome, leaving
// Failure/Cancelled untouched.
func Map[A, B any](o Outcome[A], f func(A) B) Outcome[B] {
	switch o.state {
	case StateSuccess:
		return Success(f(o.value))
	case StateWarned:
		return Warned(f(o.value), o.warnings, o.confidence, o.missingDataRatio)
	case StateFailure:
		return Failure[B](o.err)
	default:
		return Cancelled[B]()
	}
}

// PropagateCancelled lifts a Cancelled/Failure Outcome[A] onto Outcome[B],
// returning (zero, false) when o was Success/Warned so the caller can
// continue with o's own value.
func PropagateCancelled[A, B any](o Outcome[A]) (Outcome[B], bool) {
	switch o.state {
	case StateCancelled:
		return Cancelled[B](), true
	case StateFailure:
		return Failure[B](o.err), true
	default:
		return Outcome[B]{}, false
	}
}

// Bind sequences a fallible step after o, short-circuiting Cancelled and
// Failure before calling f (the "cancellation-first" contract of §4.1/§4.3).
func Bind[A, B any](o Outcome[A], f func(A) Outcome[B]) Outcome[B] {
	if next, done := PropagateCancelled[A, B](o); done {
		return next
	}
	return f(o.value)
}
