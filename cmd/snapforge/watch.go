package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/kingrea/snapforge/extensions"
)

// watchExpand re-expands and re-prints the project whenever its file
// changes. The watch is on the parent directory because editors commonly
// replace the file instead of writing it in place.
func watchExpand(path string, registry *extensions.Registry) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	render := func() {
		out, err := expandFile(path, registry)
		if err != nil {
			fmt.Fprintf(os.Stderr, "snapforge: %v\n", err)
			return
		}
		fmt.Printf("# %s\n", path)
		os.Stdout.Write(out)
	}
	render()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				render()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "snapforge: watch: %v\n", err)
		}
	}
}
