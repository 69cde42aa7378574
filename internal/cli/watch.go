package cli

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// watchTargets lists the directories to watch for paths: every directory
// below a directory argument, and the parent of a file argument.
func watchTargets(paths []string) ([]string, error) {
	var dirs []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}
		}
		if !info.IsDir() {
			dirs = append(dirs, filepath.Dir(path))
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				dirs = append(dirs, p)
			}
			return nil
		})
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
		}
	}
	slices.Sort(dirs)
	return slices.Compact(dirs), nil
}

// isProblemChange reports whether event touches a problem file's content.
func isProblemChange(event fsnotify.Event) bool {
	if !slices.Contains(problemExts, strings.ToLower(filepath.Ext(event.Name))) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}

// watchLoop calls rerun for every problem file change until ctx is done or
// events is closed. Watcher errors are logged and do not stop the loop.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, logger *slog.Logger, rerun func(name string)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if !isProblemChange(event) {
				continue
			}
			logger.Debug("problem file changed", "path", event.Name, "op", event.Op.String())
			rerun(event.Name)
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", "error", err)
		}
	}
}

// watchValidate validates paths, then again after every change below them.
// Validation failures are reported and do not end the watch.
func watchValidate(ctx context.Context, paths []string, formatter *OutputFormatter, logger *slog.Logger) error {
	dirs, err := watchTargets(paths)
	if err != nil {
		return outputValidateError(formatter, errorCode(err), err.Error(), nil)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return WrapExitError(ExitCommandError, "creating file watcher", err)
	}
	defer watcher.Close()
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("watching %s", dir), err)
		}
	}

	_ = validatePaths(paths, formatter)
	formatter.VerboseLog("Watching %d director(ies) for changes", len(dirs))

	return watchLoop(ctx, watcher.Events, watcher.Errors, logger, func(name string) {
		if formatter.Format != "json" {
			fmt.Fprintf(formatter.Writer, "\n%s changed\n", name)
		}
		_ = validatePaths(paths, formatter)
	})
}
