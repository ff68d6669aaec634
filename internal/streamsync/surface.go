package streamsync

// Surface is the display a State is reconciled against: an editor buffer,
// a terminal, or a remote client.
type Surface interface {
	Clear() error
	Append(text string) error
	MoveCursorToEnd() error
}

// ApplyTo performs the edit on sf using its three primitives.
func (e Edit) ApplyTo(sf Surface) error {
	switch e.Kind {
	case EditNone:
		return nil
	case EditAppend:
		if err := sf.Append(e.Text); err != nil {
			return err
		}
	case EditReset:
		if err := sf.Clear(); err != nil {
			return err
		}
		if e.Text != "" {
			if err := sf.Append(e.Text); err != nil {
				return err
			}
		}
	}
	if e.MoveCursor {
		return sf.MoveCursorToEnd()
	}
	return nil
}
