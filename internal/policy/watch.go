package policy

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch следит за файлом политики и вызывает onChange после каждой успешной перезагрузки.
// Следим за каталогом, а не за файлом: редакторы и конфиг-менеджеры заменяют файл целиком.
// Документ с ошибкой логируется и игнорируется, действующая политика не меняется.
// Блокируется до отмены ctx.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func(*Policy)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve policy path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch policy directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			p, err := Load(abs)
			if err != nil {
				logger.Warn("Policy reload failed, keeping previous policy", "path", abs, "error", err)
				continue
			}
			logger.Info("Policy reloaded", "path", abs, "tables", len(p.Tables))
			onChange(p)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Policy watcher error", "error", err)
		}
	}
}
