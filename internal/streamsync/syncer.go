package streamsync

import (
	"fmt"
	"sync"
)

// Stats counts the edits a Syncer has produced since it was created.
type Stats struct {
	Appends int
	Resets  int
	Noops   int
}

// Syncer binds a State to the Surface it describes. Push and Reset are
// serialized with a mutex, so snapshots from concurrent producers never
// interleave on the surface.
type Syncer struct {
	mu      sync.Mutex
	state   *State
	surface Surface
	stats   Stats
	dirty   bool
	// shown is the text the surface last accepted in full.
	shown string
}

// NewSyncer returns a Syncer for an empty surface.
func NewSyncer(surface Surface, follow bool) *Syncer {
	return &Syncer{state: NewState(follow), surface: surface}
}

// Push reconciles the surface with snapshot. When the surface rejects an
// edit its content is unknown, so the next Push rewrites it in full.
func (s *Syncer) Push(snapshot string) (Edit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var edit Edit
	if s.dirty {
		edit = s.state.overwrite(snapshot)
	} else {
		edit = s.state.Apply(snapshot)
	}
	if err := edit.ApplyTo(s.surface); err != nil {
		s.dirty = true
		return edit, fmt.Errorf("apply %s edit: %w", edit.Kind, err)
	}
	s.dirty = false
	s.shown = snapshot
	switch edit.Kind {
	case EditAppend:
		s.stats.Appends++
	case EditReset:
		s.stats.Resets++
	default:
		s.stats.Noops++
	}
	return edit, nil
}

// Reset clears the surface and the rendered text ahead of a new stream.
func (s *Syncer) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Reset()
	s.shown = ""
	if err := s.surface.Clear(); err != nil {
		s.dirty = true
		return fmt.Errorf("clear surface: %w", err)
	}
	s.dirty = false
	return nil
}

// Rendered returns the text the surface last accepted. After a rejected
// edit it is the text from before that edit.
func (s *Syncer) Rendered() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shown
}

// SetFollow toggles cursor tracking for subsequent pushes.
func (s *Syncer) SetFollow(follow bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SetFollow(follow)
}

// Stats returns the edit counters.
func (s *Syncer) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
