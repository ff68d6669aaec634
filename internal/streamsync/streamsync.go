// Package streamsync keeps a display surface in step with a stream of
// cumulative text snapshots, emitting only the text that changed.
package streamsync

import "inline-llm/internal/textdiff"

// EditKind enumerates the mutations Apply can ask a surface to perform.
type EditKind int

const (
	// EditNone leaves the surface untouched.
	EditNone EditKind = iota
	// EditAppend appends Text after the rendered content.
	EditAppend
	// EditReset clears the surface and writes Text in full.
	EditReset
)

func (k EditKind) String() string {
	switch k {
	case EditNone:
		return "none"
	case EditAppend:
		return "append"
	case EditReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Edit is the minimal mutation that brings a surface from the previously
// rendered text to a new snapshot.
type Edit struct {
	Kind EditKind
	// Text is the appended suffix for EditAppend and the whole snapshot for EditReset.
	Text string
	// MoveCursor asks the surface to scroll to the end of its content.
	MoveCursor bool
}

// State tracks what is currently materialized on one display surface.
// A State is owned by a single stream; callers serialize Apply and Reset.
type State struct {
	rendered string
	follow   bool
}

// NewState returns an empty State. When follow is set every non-empty edit
// also requests a cursor move to the end of the content.
func NewState(follow bool) *State {
	return &State{follow: follow}
}

// Apply computes the edit that turns the rendered text into snapshot and
// records snapshot as the new rendered text.
func (s *State) Apply(snapshot string) Edit {
	prev := s.rendered
	common := textdiff.CommonPrefixLen(prev, snapshot)

	var edit Edit
	switch {
	case common == len(prev) && common == len(snapshot):
		return Edit{Kind: EditNone}
	case common == len(prev):
		edit = Edit{Kind: EditAppend, Text: snapshot[common:]}
	default:
		edit = Edit{Kind: EditReset, Text: snapshot}
	}
	edit.MoveCursor = s.follow
	s.rendered = snapshot
	return edit
}

// overwrite records snapshot as rendered and returns a full reset edit
// regardless of what was rendered before.
func (s *State) overwrite(snapshot string) Edit {
	s.rendered = snapshot
	return Edit{Kind: EditReset, Text: snapshot, MoveCursor: s.follow}
}

// Reset forgets the rendered text so the next snapshot starts a new stream.
// It does not touch any surface.
func (s *State) Reset() {
	s.rendered = ""
}

// Rendered returns the text the surface currently holds.
func (s *State) Rendered() string {
	return s.rendered
}

// Following reports whether edits request cursor tracking.
func (s *State) Following() bool {
	return s.follow
}

// SetFollow toggles cursor tracking for subsequent edits.
func (s *State) SetFollow(follow bool) {
	s.follow = follow
}
