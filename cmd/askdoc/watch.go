package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func NewWatchCmd(factory ingesterFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the documents directory and re-index on change",
		Long:  `Watch the documents directory for changes and re-run ingestion after a debounce window, so new or edited documents become queryable without manual steps.`,
		Args:  cobra.NoArgs,
		RunE:  makeWatchRunner(factory),
	}

	cmd.Flags().Duration("debounce", 2*time.Second, "Debounce window for batching changes")
	return cmd
}

func makeWatchRunner(factory ingesterFactory) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		debounce, _ := cmd.Flags().GetDuration("debounce")

		ingestor, a, err := factory(cmd)
		if err != nil {
			return err
		}

		dir := a.cfg.Ingest.DocsDir
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("documents directory does not exist: %s", dir)
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()

		if err := addWatchDirs(watcher, dir); err != nil {
			return fmt.Errorf("add watch dirs: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes...\n", dir)

		timer := time.NewTimer(0)
		if !timer.Stop() {
			<-timer.C
		}
		pending := false

		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if shouldIgnoreEvent(event) {
					continue
				}
				if !pending {
					timer.Reset(debounce)
					pending = true
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
			case <-timer.C:
				pending = false
				stats, ingestErr := ingestor.IngestDir(cmd.Context(), dir)
				if ingestErr != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "re-index failed: %v\n", ingestErr)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Re-indexed %d passages from %d documents.\n", stats.Passages, stats.Documents)
			}
		}
	}
}

func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if info.IsDir() {
			base := filepath.Base(path)
			if strings.HasPrefix(base, ".") && path != root {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

func shouldIgnoreEvent(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return true
	}

	switch strings.ToLower(filepath.Ext(event.Name)) {
	case ".pdf", ".txt", ".md":
	default:
		return true
	}

	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0
}
