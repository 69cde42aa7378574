package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// workspace is a per-run directory for engine inputs and outputs.
type workspace struct {
	dir  string
	keep bool
}

func newWorkspace(cfg Config, prefix string) (*workspace, error) {
	dir, err := os.MkdirTemp(cfg.WorkDir, prefix+"-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	return &workspace{dir: dir, keep: cfg.KeepFiles}, nil
}

func (w *workspace) write(name, content string) (string, error) {
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

func (w *workspace) read(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(w.dir, name))
}

func (w *workspace) close() {
	if !w.keep {
		os.RemoveAll(w.dir)
	}
}

// withTimeout applies cfg.Timeout to ctx when set.
func withTimeout(ctx context.Context, cfg Config) (context.Context, context.CancelFunc) {
	if cfg.Timeout > 0 {
		return context.WithTimeout(ctx, cfg.Timeout)
	}
	return context.WithCancel(ctx)
}
