// Package customize implements the per-item customization flow and the
// step-by-step combo burger wizard.
package customize

import (
	"storefront/internal/apperr"
	"storefront/internal/models"
)

// MaxNotesLength is the maximum number of characters kept in free-text notes
const MaxNotesLength = 150

// Selection is the outcome of a confirmed customization
type Selection struct {
	Extras []models.Extra
	Notes  string
}

// Session edits the extras and notes of one product.
// The zero value is closed.
type Session struct {
	product  models.Product
	selected []models.Extra
	notes    string
	open     bool
}

// Open starts a fresh customization of product
func Open(product models.Product) *Session {
	return &Session{product: product.Clone(), open: true}
}

// OpenForEdit starts a customization pre-filled with an existing choice
func OpenForEdit(product models.Product, extras []models.Extra, notes string) *Session {
	s := Open(product)
	s.selected = models.CloneExtras(extras)
	s.notes = clampNotes(notes)
	return s
}

// IsOpen reports whether the session accepts edits
func (s *Session) IsOpen() bool { return s.open }

// Product returns the product being customized
func (s *Session) Product() models.Product { return s.product }

// ToggleExtra adds the extra when absent and removes it when present
func (s *Session) ToggleExtra(extraID string) error {
	if !s.open {
		return apperr.Validation("customization is closed")
	}
	for i, e := range s.selected {
		if e.ID == extraID {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			return nil
		}
	}
	extra, ok := s.product.FindExtra(extraID)
	if !ok {
		return apperr.Validation("extra %q is not offered for %s", extraID, s.product.Name)
	}
	s.selected = append(s.selected, extra)
	return nil
}

// SetNotes replaces the notes, truncated to MaxNotesLength characters
func (s *Session) SetNotes(notes string) error {
	if !s.open {
		return apperr.Validation("customization is closed")
	}
	s.notes = clampNotes(notes)
	return nil
}

// Selected returns the extras chosen so far
func (s *Session) Selected() []models.Extra { return models.CloneExtras(s.selected) }

// Notes returns the current notes
func (s *Session) Notes() string { return s.notes }

// Total is the base price plus the selected extras
func (s *Session) Total() int64 {
	total := s.product.Price
	for _, e := range s.selected {
		total += e.Price
	}
	return total
}

// Confirm closes the session and returns the choice
func (s *Session) Confirm() (Selection, error) {
	if !s.open {
		return Selection{}, apperr.Validation("customization is closed")
	}
	s.open = false
	return Selection{Extras: models.CloneExtras(s.selected), Notes: s.notes}, nil
}

// Cancel closes the session discarding the choice
func (s *Session) Cancel() {
	s.open = false
	s.selected = nil
	s.notes = ""
}

// Apply runs a whole customization non-interactively
func Apply(product models.Product, extraIDs []string, notes string) (Selection, error) {
	s := Open(product)
	for _, id := range extraIDs {
		if err := s.ToggleExtra(id); err != nil {
			return Selection{}, err
		}
	}
	if err := s.SetNotes(notes); err != nil {
		return Selection{}, err
	}
	return s.Confirm()
}

func clampNotes(notes string) string {
	r := []rune(notes)
	if len(r) <= MaxNotesLength {
		return notes
	}
	return string(r[:MaxNotesLength])
}
