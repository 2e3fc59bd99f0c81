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

package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hebelmx/veriqan/pkg/domain"
)

// FilesystemStorage implements DownloadStorage by writing downloaded bytes
// under <Root>/<FileFormat>/<timestamp>_<uuid>_<safeName>. It is the concrete
// collaborator a deployment wires in place of a remote object store.
type FilesystemStorage struct {
	Root string
}

func (s FilesystemStorage) SaveFile(ctx context.Context, data []byte, name string, format domain.FileFormat) (string, error) {
	dir := filepath.Join(s.Root, string(format))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create storage directory %s: %w", dir, err)
	}

	safeName := sanitizeFileName(name)
	target := filepath.Join(dir, fmt.Sprintf("%d_%s_%s", time.Now().UTC().UnixNano(), uuid.NewString(), safeName))
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write downloaded file %s: %w", target, err)
	}
	return target, nil
}

func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" {
		return "unnamed"
	}
	return name
}
