package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"axum-engine/debug"
	"axum-engine/mixer"
	"axum-engine/store"
)

// BackupVersion is bumped whenever the layout of mixer.State changes in a
// way older backups cannot be read into.
const BackupVersion = 3

type backupDoc struct {
	Version int          `json:"version"`
	ID      uuid.UUID    `json:"id"`
	Taken   time.Time    `json:"taken"`
	State   *mixer.State `json:"state"`
}

// Backup writes the current model to the store.
func (e *Engine) Backup() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.backup()
}

func (e *Engine) backup() error {
	doc := backupDoc{
		Version: BackupVersion,
		ID:      uuid.New(),
		Taken:   time.UnixMilli(e.now()).UTC(),
		State:   e.st,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	if err := e.store.SaveBackup(data); err != nil {
		return fmt.Errorf("save backup: %w", err)
	}
	e.lastBackup = BackupStatus{ID: doc.ID, Taken: doc.Taken}
	debug.Log("backup", "saved %s (%d bytes)", doc.ID, len(data))
	return nil
}

// Restore replaces the model with the newest backup and re-applies all
// routing and processing. With fresh set, or when no usable backup exists,
// the model loaded from the store is applied as is. If applying a backup
// fails the model falls back to the store configuration.
func (e *Engine) Restore(fresh bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if fresh {
		debug.Log("backup", "fresh start requested")
		return e.applyAll()
	}

	data, err := e.store.LoadBackup()
	if errors.Is(err, store.ErrNotFound) {
		debug.Log("backup", "no backup, starting from configuration")
		return e.applyAll()
	}
	if err != nil {
		return fmt.Errorf("load backup: %w", err)
	}

	st, doc, err := decodeBackup(data)
	if err != nil {
		debug.Log("backup", "%v, starting from configuration", err)
		return e.applyAll()
	}
	prev := *e.st
	*e.st = *st
	if err := e.applyAll(); err != nil {
		debug.Log("backup", "apply %s: %v, falling back to configuration", doc.ID, err)
		*e.st = prev
		if err := e.applyAll(); err != nil {
			return err
		}
		return nil
	}
	e.lastBackup = BackupStatus{ID: doc.ID, Taken: doc.Taken}
	debug.Log("backup", "restored %s taken %s", doc.ID, doc.Taken.Format(time.RFC3339))
	return nil
}

// decodeBackup reads data into a model that starts at its defaults, so
// fields the backup does not carry keep their default values.
func decodeBackup(data []byte) (*mixer.State, backupDoc, error) {
	doc := backupDoc{State: mixer.NewState()}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, doc, fmt.Errorf("decode backup: %w", err)
	}
	if doc.Version != BackupVersion {
		return nil, doc, fmt.Errorf("backup version %d, want %d", doc.Version, BackupVersion)
	}
	st := doc.State
	for m := range st.Modules {
		for c := range st.Modules[m].ScratchSource {
			st.Modules[m].ScratchSource[c] = -1
			st.Modules[m].ScratchPreset[c] = -1
		}
	}
	st.RebuildMatrixPositions()
	st.RebuildPresetPositions()
	return st, doc, nil
}

// applyAll pushes the whole model to the backplane and DSP and queues a
// refresh of every bound function. A panic while applying is returned as
// an error.
func (e *Engine) applyAll() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("apply model: %v", r)
		}
	}()
	e.router.All()
	for _, n := range e.reg.Nodes() {
		if n.InitFinished {
			e.syncNode(n.Address)
		}
	}
	e.signal()
	return nil
}
