package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

type fileStore struct {
	path string
}

// NewFileStore keeps the document in <dir>/pokerPlayerStats.json.
func NewFileStore(dir string) Store {
	return &fileStore{path: filepath.Join(dir, StatsKey+".json")}
}

func (f *fileStore) Load(ctx context.Context) (Document, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewDocument(), nil
	}
	if err != nil {
		return NewDocument(), fmt.Errorf("read %s: %w", f.path, err)
	}
	return DecodeDocument(data)
}

// Save 先写临时文件再 rename，避免写一半的文件
func (f *fileStore) Save(ctx context.Context, doc Document) error {
	data, err := EncodeDocument(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create stats dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, f.path)
}
