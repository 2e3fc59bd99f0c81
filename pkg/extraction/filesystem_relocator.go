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
	"fmt"
	"os"
	"path/filepath"
)

// FilesystemRelocator implements FileRelocator over the local filesystem,
// creating the destination directory tree and falling back to copy+remove
// when from and to straddle filesystem boundaries (os.Rename's EXDEV case).
type FilesystemRelocator struct{}

func (FilesystemRelocator) Relocate(ctx context.Context, from, to string) error {
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return fmt.Errorf("create destination directory for %s: %w", to, err)
	}
	if err := os.Rename(from, to); err == nil {
		return nil
	}

	data, err := os.ReadFile(from)
	if err != nil {
		return fmt.Errorf("read source file %s: %w", from, err)
	}
	if err := os.WriteFile(to, data, 0o644); err != nil {
		return fmt.Errorf("write destination file %s: %w", to, err)
	}
	if err := os.Remove(from); err != nil {
		return fmt.Errorf("remove source file %s after copy: %w", from, err)
	}
	return nil
}
