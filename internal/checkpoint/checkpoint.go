// Package checkpoint persists pipeline runtime state and the long-term
// memory snapshot. The pipeline depends only on the Store interface; the
// file-backed implementation here is the default host.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/scribeworks/scribe/internal/agents"
	"github.com/scribeworks/scribe/internal/outline"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

// Checkpoint is the persisted runtime state of one pipeline run. It is
// saved after every task-graph node so a crashed or restarted run resumes
// from the last completed node.
type Checkpoint struct {
	RunID     string                 `json:"runId"`
	Request   string                 `json:"request"`
	Outline   *outline.Outline       `json:"outline,omitempty"`
	Sections  []agents.SectionResult `json:"sections,omitempty"`
	Written   []string               `json:"writtenSegments,omitempty"`
	Visits    map[string]int         `json:"visits,omitempty"`
	Node      string                 `json:"node"`
	Status    string                 `json:"status"`
	Memory    string                 `json:"memory,omitempty"` // rendered memory snapshot
	StartedAt time.Time              `json:"startedAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// Store is the persistence capability the pipeline calls. All methods are
// expected to be cheap; heavyweight backends should buffer internally.
type Store interface {
	LoadCheckpoint() (*Checkpoint, error) // nil, nil when no checkpoint exists
	SaveCheckpoint(cp *Checkpoint) error
	ClearCheckpoint() error
	LoadMemory() (string, error) // "", nil when no memory exists
	SaveMemory(markdown string) error
}

const (
	checkpointFile = "checkpoint.json"
	memoryFile     = "memory.md"
)

// FileStore persists checkpoints and memory under a directory.
type FileStore struct {
	dir string
}

// NewFileStore builds a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// LoadCheckpoint reads the saved checkpoint, or nil if none exists or it
// cannot be parsed (a corrupt checkpoint starts a fresh run rather than
// wedging every future one).
func (s *FileStore) LoadCheckpoint() (*Checkpoint, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, checkpointFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, nil
	}
	return &cp, nil
}

// SaveCheckpoint writes the checkpoint atomically via a temp file rename.
func (s *FileStore) SaveCheckpoint(cp *Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}
	return s.writeAtomic(checkpointFile, data)
}

// ClearCheckpoint removes the checkpoint file. Absence is not an error.
func (s *FileStore) ClearCheckpoint() error {
	err := os.Remove(filepath.Join(s.dir, checkpointFile))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// LoadMemory reads the persisted memory document.
func (s *FileStore) LoadMemory() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, memoryFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// SaveMemory writes the memory document atomically.
func (s *FileStore) SaveMemory(markdown string) error {
	return s.writeAtomic(memoryFile, []byte(markdown))
}

func (s *FileStore) writeAtomic(name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
