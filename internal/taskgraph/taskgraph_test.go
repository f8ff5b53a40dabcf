package taskgraph

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type testState struct {
	order []string
	loops int
}

func TestRunTraversesInOrder(t *testing.T) {
	nodes := []Node[*testState]{
		{
			ID:   "a",
			Run:  func(_ context.Context, s *testState) error { s.order = append(s.order, "a"); return nil },
			Next: func(*testState) string { return "b" },
		},
		{
			ID:   "b",
			Run:  func(_ context.Context, s *testState) error { s.order = append(s.order, "b"); return nil },
			Next: func(*testState) string { return "" },
		},
	}
	r, err := New(nodes)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	st := &testState{}
	if err := r.Run(context.Background(), "a", st, Options[*testState]{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(st.order, want) {
		t.Errorf("order = %v, want %v", st.order, want)
	}
}

func TestRunVisitCapExceeded(t *testing.T) {
	nodes := []Node[*testState]{{
		ID:   "loop",
		Run:  func(_ context.Context, s *testState) error { s.loops++; return nil },
		Next: func(*testState) string { return "loop" },
	}}
	r, err := New(nodes)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	st := &testState{}
	err = r.Run(context.Background(), "loop", st, Options[*testState]{})
	if !errors.Is(err, ErrVisitCapExceeded) {
		t.Fatalf("error = %v, want ErrVisitCapExceeded", err)
	}
	if st.loops != 1 {
		t.Errorf("node ran %d times, want 1", st.loops)
	}
}

func TestRunBoundedLoop(t *testing.T) {
	nodes := []Node[*testState]{{
		ID:        "cycle",
		MaxVisits: 3,
		Run:       func(_ context.Context, s *testState) error { s.loops++; return nil },
		Next: func(s *testState) string {
			if s.loops < 3 {
				return "cycle"
			}
			return ""
		},
	}}
	r, _ := New(nodes)

	st := &testState{}
	if err := r.Run(context.Background(), "cycle", st, Options[*testState]{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if st.loops != 3 {
		t.Errorf("node ran %d times, want 3", st.loops)
	}
}

func TestRunUnknownNode(t *testing.T) {
	nodes := []Node[*testState]{{
		ID:   "a",
		Run:  func(context.Context, *testState) error { return nil },
		Next: func(*testState) string { return "missing" },
	}}
	r, _ := New(nodes)

	err := r.Run(context.Background(), "a", &testState{}, Options[*testState]{})
	if !errors.Is(err, ErrUnknownNode) {
		t.Errorf("error = %v, want ErrUnknownNode", err)
	}
}

func TestRunCancelledStopsWithoutError(t *testing.T) {
	nodes := []Node[*testState]{{
		ID:   "a",
		Run:  func(_ context.Context, s *testState) error { s.loops++; return nil },
		Next: func(*testState) string { return "a" },
	}}
	r, _ := New(nodes)

	st := &testState{}
	err := r.Run(context.Background(), "a", st, Options[*testState]{
		Cancelled: func() bool { return st.loops >= 1 },
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if st.loops != 1 {
		t.Errorf("node ran %d times, want 1", st.loops)
	}
}

func TestRunResumesVisitTable(t *testing.T) {
	nodes := []Node[*testState]{{
		ID:        "cycle",
		MaxVisits: 2,
		Run:       func(_ context.Context, s *testState) error { s.loops++; return nil },
		Next:      func(*testState) string { return "cycle" },
	}}
	r, _ := New(nodes)

	// A visit table carried over from a checkpoint counts against the cap.
	visits := map[string]int{"cycle": 1}
	st := &testState{}
	err := r.Run(context.Background(), "cycle", st, Options[*testState]{Visits: visits})
	if !errors.Is(err, ErrVisitCapExceeded) {
		t.Fatalf("error = %v, want ErrVisitCapExceeded", err)
	}
	if st.loops != 1 {
		t.Errorf("node ran %d times after resume, want 1", st.loops)
	}
}

func TestRunAfterNodeHook(t *testing.T) {
	var saved []string
	nodes := []Node[*testState]{
		{
			ID:   "a",
			Run:  func(context.Context, *testState) error { return nil },
			Next: func(*testState) string { return "b" },
		},
		{
			ID:   "b",
			Run:  func(context.Context, *testState) error { return nil },
			Next: func(*testState) string { return "" },
		},
	}
	r, _ := New(nodes)

	err := r.Run(context.Background(), "a", &testState{}, Options[*testState]{
		AfterNode: func(_ context.Context, nodeID string, _ *testState) error {
			saved = append(saved, nodeID)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(saved, want) {
		t.Errorf("hook order = %v, want %v", saved, want)
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	nodes := []Node[*testState]{
		{ID: "a", Run: func(context.Context, *testState) error { return nil }, Next: func(*testState) string { return "" }},
		{ID: "a", Run: func(context.Context, *testState) error { return nil }, Next: func(*testState) string { return "" }},
	}
	if _, err := New(nodes); err == nil {
		t.Error("expected error for duplicate node ids")
	}
}
