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

package extraction

import (
	"context"
	"path"
	"strings"

	"github.com/hebelmx/veriqan/pkg/domain"
)

// FileRelocator is the minimal storage operation a FileMover needs: move a
// file from one opaque storage path to another.
type FileRelocator interface {
	Relocate(ctx context.Context, from, to string) error
}

// OrganizedFileMover relocates a file under <root>/<Level1>/<Level2>/<safeName>,
// matching the classification-keyed layout of spec.md §4.5 "Move".
type OrganizedFileMover struct {
	Root     string
	Relocate FileRelocator
}

func (m OrganizedFileMover) Move(ctx context.Context, currentPath, safeName string, classification domain.ClassificationResult) (string, error) {
	level2 := classification.Level2
	if level2 == "" {
		level2 = "general"
	}
	target := path.Join(m.Root, sanitizePathSegment(string(classification.Level1)), sanitizePathSegment(level2), safeName)
	if err := m.Relocate.Relocate(ctx, currentPath, target); err != nil {
		return "", err
	}
	return target, nil
}

func sanitizePathSegment(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "..", "_")
	if s == "" {
		return "unclassified"
	}
	return s
}
