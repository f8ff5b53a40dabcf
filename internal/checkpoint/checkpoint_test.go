package checkpoint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/scribeworks/scribe/internal/outline"
)

func TestFileStoreCheckpointRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())

	cp := &Checkpoint{
		RunID:   "run-1",
		Request: "写一篇关于分布式缓存的文档",
		Outline: &outline.Outline{
			Title: "分布式缓存",
			Sections: []outline.Section{
				{ID: "s1", Title: "概述"},
			},
		},
		Written:   []string{"## 概述", "第一段内容。"},
		Visits:    map[string]int{"writing_sections": 1},
		Node:      "review_cycle",
		Status:    StatusRunning,
		StartedAt: time.Now().Add(-time.Minute),
		UpdatedAt: time.Now(),
	}
	if err := store.SaveCheckpoint(cp); err != nil {
		t.Fatalf("SaveCheckpoint() error = %v", err)
	}

	got, err := store.LoadCheckpoint()
	if err != nil {
		t.Fatalf("LoadCheckpoint() error = %v", err)
	}
	if got == nil {
		t.Fatal("LoadCheckpoint() = nil, want saved checkpoint")
	}
	if got.RunID != cp.RunID || got.Request != cp.Request || got.Node != cp.Node {
		t.Errorf("loaded %q/%q/%q, want %q/%q/%q",
			got.RunID, got.Request, got.Node, cp.RunID, cp.Request, cp.Node)
	}
	if got.Visits["writing_sections"] != 1 {
		t.Errorf("Visits = %v, want writing_sections counted once", got.Visits)
	}
	if len(got.Written) != 2 {
		t.Errorf("Written has %d segments, want 2", len(got.Written))
	}
	if got.Outline == nil || got.Outline.Title != "分布式缓存" {
		t.Errorf("Outline = %+v, want title preserved", got.Outline)
	}
}

func TestLoadCheckpointMissing(t *testing.T) {
	store := NewFileStore(t.TempDir())

	got, err := store.LoadCheckpoint()
	if err != nil {
		t.Fatalf("LoadCheckpoint() error = %v", err)
	}
	if got != nil {
		t.Errorf("LoadCheckpoint() = %+v, want nil for missing file", got)
	}
}

func TestLoadCheckpointCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "checkpoint.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	store := NewFileStore(dir)

	got, err := store.LoadCheckpoint()
	if err != nil {
		t.Fatalf("LoadCheckpoint() error = %v", err)
	}
	if got != nil {
		t.Errorf("LoadCheckpoint() = %+v, want nil so a fresh run starts", got)
	}
}

func TestClearCheckpoint(t *testing.T) {
	store := NewFileStore(t.TempDir())

	if err := store.ClearCheckpoint(); err != nil {
		t.Errorf("ClearCheckpoint() on missing file error = %v, want nil", err)
	}

	if err := store.SaveCheckpoint(&Checkpoint{RunID: "run-1", Status: StatusRunning}); err != nil {
		t.Fatalf("SaveCheckpoint() error = %v", err)
	}
	if err := store.ClearCheckpoint(); err != nil {
		t.Fatalf("ClearCheckpoint() error = %v", err)
	}
	got, err := store.LoadCheckpoint()
	if err != nil || got != nil {
		t.Errorf("after clear: checkpoint = %+v, err = %v, want nil, nil", got, err)
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())

	empty, err := store.LoadMemory()
	if err != nil {
		t.Fatalf("LoadMemory() error = %v", err)
	}
	if empty != "" {
		t.Errorf("LoadMemory() = %q, want empty for missing file", empty)
	}

	doc := "# 长期记忆\n\n## 术语表\n\n- 一致性哈希\n"
	if err := store.SaveMemory(doc); err != nil {
		t.Fatalf("SaveMemory() error = %v", err)
	}
	got, err := store.LoadMemory()
	if err != nil {
		t.Fatalf("LoadMemory() error = %v", err)
	}
	if got != doc {
		t.Errorf("LoadMemory() = %q, want %q", got, doc)
	}
}
