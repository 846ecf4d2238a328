package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// DirectoryWatcher ingests supported files dropped into a watched directory
// through the same admission pipeline as uploads. The store is append-only,
// so a re-ingested file adds fresh chunks; stale ones from the previous
// version stay behind and are only noted in the log.
type DirectoryWatcher struct {
	ingestor *IngestionService

	// seen maps path -> sha256 of the last ingested content, so editor save
	// storms and duplicate events do not re-ingest unchanged files.
	mu   sync.Mutex
	seen map[string]string
}

// NewDirectoryWatcher creates a watcher feeding the given ingestion pipeline.
func NewDirectoryWatcher(ingestor *IngestionService) *DirectoryWatcher {
	return &DirectoryWatcher{
		ingestor: ingestor,
		seen:     make(map[string]string),
	}
}

// Watch blocks until the context is cancelled, ingesting files as they are
// created or written in dirPath.
func (w *DirectoryWatcher) Watch(ctx context.Context, dirPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("WATCHER ERROR: Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isSupportedFile(event.Name) {
					continue
				}

				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					w.handleChange(ctx, event.Name)
				} else if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					// Rename is often reported as Remove. Indexed chunks of the
					// file remain; the store is append-only in this scope.
					log.Printf("WATCHER: File removed/renamed: %s. Its indexed chunks remain.", event.Name)
					w.mu.Lock()
					delete(w.seen, event.Name)
					w.mu.Unlock()
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("WATCHER ERROR: %v", err)
			case <-ctx.Done():
				log.Println("WATCHER: Context cancelled, shutting down watcher.")
				return
			}
		}
	}()

	log.Printf("WATCHER: Watching directory: %s", dirPath)
	if err := watcher.Add(dirPath); err != nil {
		log.Printf("WATCHER ERROR: Failed to add path to watcher: %v", err)
	}

	<-ctx.Done()
}

func (w *DirectoryWatcher) handleChange(ctx context.Context, path string) {
	hash, err := fileSHA256(path)
	if err != nil {
		log.Printf("WATCHER WARN: Could not hash file %s: %v", path, err)
		return
	}
	w.mu.Lock()
	prev, reingest := w.seen[path]
	w.mu.Unlock()
	if prev == hash {
		return // unchanged, duplicate event
	}

	if reingest {
		log.Printf("WATCHER: File changed: %s. Re-ingesting; chunks of the previous version remain indexed.", path)
	} else {
		log.Printf("WATCHER: Ingesting new file: %s", path)
	}

	numChunks, err := w.ingestor.ProcessFile(ctx, path, filepath.Base(path))
	if err != nil {
		log.Printf("WATCHER ERROR: Failed to process file %s: %v", path, err)
		return
	}
	w.mu.Lock()
	w.seen[path] = hash
	w.mu.Unlock()
	log.Printf("WATCHER: Ingested %d chunks from %s", numChunks, path)
}

// tracked reports whether the watcher has recorded an ingested version of path.
func (w *DirectoryWatcher) tracked(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.seen[path]
	return ok
}

func isSupportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".md":
		return true
	default:
		return false
	}
}

func fileSHA256(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
