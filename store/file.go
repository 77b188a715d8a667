package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"axum-engine/debug"
	"axum-engine/mixer"
)

const (
	documentName = "console.json"
	backupPrefix = "backup-"
	backupLayout = "20060102-150405"
)

// DefaultKeepBackups is the number of backup files kept on disk.
const DefaultKeepBackups = 5

// File is a Memory store persisted as one JSON document in a directory,
// with timestamped backup files next to it.
type File struct {
	*Memory

	dir  string
	keep int
	now  func() time.Time
}

// Open loads dir/console.json. A missing document starts an empty console.
func Open(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	f := &File{
		Memory: NewMemory(DefaultDocument()),
		dir:    dir,
		keep:   DefaultKeepBackups,
		now:    time.Now,
	}

	data, err := os.ReadFile(filepath.Join(dir, documentName))
	if err != nil {
		if os.IsNotExist(err) {
			debug.Log("store", "no %s in %s, starting empty", documentName, dir)
			return f, nil
		}
		return nil, fmt.Errorf("read store: %w", err)
	}

	doc := DefaultDocument()
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", documentName, err)
	}
	f.Memory = NewMemory(doc)
	return f, nil
}

// Dir returns the store directory.
func (f *File) Dir() string { return f.dir }

// Save writes the document back to disk.
func (f *File) Save() error {
	return f.write(f.Document())
}

func (f *File) write(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	path := filepath.Join(f.dir, documentName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return os.Rename(tmp, path)
}

// UpsertSlot records the slot and saves the document.
func (f *File) UpsertSlot(index int, slot mixer.RackSlot) error {
	f.mu.Lock()
	err := f.upsertSlot(index, slot)
	doc := f.doc
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.write(doc)
}

// DeleteSlot clears the slot and saves the document.
func (f *File) DeleteSlot(index int) error {
	f.mu.Lock()
	err := f.deleteSlot(index)
	doc := f.doc
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.write(doc)
}

// SaveBackup writes data to a new timestamped backup file and prunes the
// oldest ones beyond the keep count.
func (f *File) SaveBackup(data []byte) error {
	name := backupPrefix + f.now().Format(backupLayout) + ".json"
	if err := os.WriteFile(filepath.Join(f.dir, name), data, 0644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}

	files, err := f.backupFiles()
	if err != nil {
		return err
	}
	for len(files) > f.keep {
		if err := os.Remove(filepath.Join(f.dir, files[0])); err != nil {
			debug.Log("store", "prune %s: %v", files[0], err)
		}
		files = files[1:]
	}
	return nil
}

// LoadBackup reads the newest backup file.
func (f *File) LoadBackup() ([]byte, error) {
	files, err := f.backupFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("backup: %w", ErrNotFound)
	}
	newest := files[len(files)-1]
	data, err := os.ReadFile(filepath.Join(f.dir, newest))
	if err != nil {
		return nil, fmt.Errorf("read backup %s: %w", newest, err)
	}
	return data, nil
}

// backupFiles lists backup file names oldest first. The timestamp layout
// sorts lexically.
func (f *File) backupFiles() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if !e.IsDir() && strings.HasPrefix(n, backupPrefix) && strings.HasSuffix(n, ".json") {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}
