package blocks

import (
	"fmt"
	"strings"
)

// SelectedMark is emitted for a selected SELECTION_ELEMENT child.
const SelectedMark = "X"

// Text assembles the display text of a key, value, or cell block by walking
// its CHILD edges in order. Words are joined by single spaces and a selected
// checkbox contributes SelectedMark; other children contribute nothing.
// A block with no CHILD edge yields "". A child missing from s yields ErrNotFound.
func Text(s *Store, b *Block) (string, error) {
	var sb strings.Builder
	for _, id := range b.ChildIDs() {
		child, err := s.Get(id)
		if err != nil {
			return "", fmt.Errorf("child of %q: %w", b.ID, err)
		}
		switch child.Type {
		case TypeWord:
			sb.WriteString(child.Text)
			sb.WriteByte(' ')
		case TypeSelectionElement:
			if child.SelectionStatus == Selected {
				sb.WriteString(SelectedMark)
				sb.WriteByte(' ')
			}
		}
	}
	return strings.TrimRight(sb.String(), " "), nil
}
