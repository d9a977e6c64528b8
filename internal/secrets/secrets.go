// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials kept one per file in a directory such
// as .secrets/. The file name is the key and the trimmed contents are the
// value, so keys never need to live in scout.yaml or the shell history.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// Key file names.
const (
	TrackerKey         = "scout-tracker-key"
	SemanticScholarKey = "semantic-scholar-api-key"
	NCBIKey            = "ncbi-api-key"
)

// maxSecretSize bounds a key file; anything larger is not a credential.
const maxSecretSize = 16 << 10

// Secrets maps key names to values.
type Secrets map[string]string

// Load reads dir. A missing directory yields empty Secrets. Files that are
// hidden, empty, oversized or unreadable are skipped, the last two with a
// warning. Key files readable by group or others are loaded with a warning.
func Load(dir string, log *zap.Logger) (Secrets, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s, err := LoadFS(os.DirFS(dir), log)
	if errors.Is(err, fs.ErrNotExist) {
		return Secrets{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}
	return s, nil
}

// LoadFS reads every regular top-level file of fsys.
func LoadFS(fsys fs.FS, log *zap.Logger) (Secrets, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}

	s := make(Secrets)
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			log.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}
		if info.Size() > maxSecretSize {
			log.Warn("secret file too large, skipped", zap.String("name", name), zap.Int64("size", info.Size()))
			continue
		}
		if info.Mode().Perm()&0o077 != 0 {
			log.Warn("secret file is readable by other users", zap.String("name", name), zap.Stringer("mode", info.Mode().Perm()))
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			log.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			s[name] = v
		}
	}
	if len(s) > 0 {
		log.Debug("secrets loaded", zap.Strings("keys", s.Keys()))
	}
	return s, nil
}

// Keys returns the loaded key names, sorted.
func (s Secrets) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Fill sets *dst to the value of key when *dst is empty. Explicit
// configuration always wins over a secrets file.
func Fill(dst *string, s Secrets, key string) {
	if *dst != "" {
		return
	}
	if v, ok := s[key]; ok {
		*dst = v
	}
}
