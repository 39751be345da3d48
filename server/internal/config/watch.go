package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the config file at path and calls onChange with each newly
// loaded Config. The hub limits are the settings expected to change at
// runtime; every reload logs which of them actually differ so an operator can
// confirm the reload took effect. Runs until ctx is cancelled.
//
// A failed reload (unreadable file, invalid YAML, failed validation) is
// logged and onChange is not called; the previous config stays active.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	// Baseline for change reporting. If it cannot be loaded the watch still
	// runs; the first successful reload becomes the baseline.
	prev, err := Load(path)
	if err != nil {
		slog.Warn("config: baseline load failed", "path", path, "err", err)
	}

	slog.Info("config: watching for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Plain writes arrive as Write; editors that save atomically
			// replace the file via rename, which arrives as Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load(path)
			if err != nil {
				slog.Error("config: reload failed, keeping previous config",
					"path", path, "err", err)
				continue
			}

			slog.Info("config: reloaded",
				"path", path, "changed", changedSettings(prev, cfg))
			prev = cfg
			onChange(cfg)

			// An atomic save replaced the inode; re-add so the watch survives.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}

// changedSettings lists the fields that differ between two configs, by their
// yaml names. A missing baseline reports "all"; an unchanged file reports
// "none" (a rewrite with identical contents still triggers a reload).
func changedSettings(prev, cur *Config) []string {
	if prev == nil {
		return []string{"all"}
	}
	var out []string
	if prev.Server.HTTPPort != cur.Server.HTTPPort {
		out = append(out, "http_port")
	}
	if prev.Server.Hub.SendBuffer != cur.Server.Hub.SendBuffer {
		out = append(out, "send_buffer")
	}
	if prev.Server.Hub.WriteTimeout != cur.Server.Hub.WriteTimeout {
		out = append(out, "write_timeout")
	}
	if prev.Server.Hub.PongWait != cur.Server.Hub.PongWait {
		out = append(out, "pong_wait")
	}
	if prev.Server.Hub.MaxMessageBytes != cur.Server.Hub.MaxMessageBytes {
		out = append(out, "max_message_bytes")
	}
	if len(out) == 0 {
		return []string{"none"}
	}
	return out
}
