package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type Local struct {
	BaseDir   string
	URLPrefix string
}

func NewLocal(baseDir, urlPrefix string) *Local {
	return &Local{BaseDir: baseDir, URLPrefix: urlPrefix}
}

func (l *Local) Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error) {
	_ = ctx

	key := cleanKey(in.Key)
	if key == "" {
		return PutResult{}, fmt.Errorf("empty object key")
	}
	dstPath := filepath.Join(l.BaseDir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return PutResult{}, err
	}

	f, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return PutResult{}, err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return PutResult{}, err
	}

	url := strings.TrimRight(l.URLPrefix, "/") + "/" + key
	return PutResult{Key: key, URL: url}, nil
}

func (l *Local) Delete(ctx context.Context, key string) error {
	_ = ctx
	key = cleanKey(key)
	if key == "" {
		return fmt.Errorf("empty object key")
	}
	return os.Remove(filepath.Join(l.BaseDir, filepath.FromSlash(key)))
}

// cleanKey normalizes a slash-separated key and strips any traversal.
func cleanKey(key string) string {
	key = strings.Trim(path.Clean("/"+key), "/")
	if key == "." {
		return ""
	}
	return key
}

func (l *Local) String() string { return fmt.Sprintf("local(%s)", l.BaseDir) }
