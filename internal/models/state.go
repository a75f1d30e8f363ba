package models

import "strings"

// State is the persisted document for one draw instance.
// Draws is null in JSON until a draw has been made.
type State struct {
	Participants []string          `json:"participants"`
	Draws        Draw              `json:"draws"`
	HasDrawn     bool              `json:"hasDrawn"`
	Passwords    map[string]string `json:"passwords,omitempty"`
}

// NewState returns an empty document.
func NewState() *State {
	return &State{
		Participants: make([]string, 0),
		Passwords:    make(map[string]string),
	}
}

// Lookup returns the stored spelling of name, matched case-insensitively.
func (s *State) Lookup(name string) (string, bool) {
	for _, p := range s.Participants {
		if strings.EqualFold(p, name) {
			return p, true
		}
	}
	return "", false
}

// ClearDraw drops any existing assignment.
func (s *State) ClearDraw() {
	s.Draws = nil
	s.HasDrawn = false
}

// Clone returns a deep copy so callers never share slices with a cache.
func (s *State) Clone() *State {
	out := &State{
		Participants: append([]string(nil), s.Participants...),
		HasDrawn:     s.HasDrawn,
		Passwords:    make(map[string]string, len(s.Passwords)),
	}
	if out.Participants == nil {
		out.Participants = make([]string, 0)
	}
	if s.Draws != nil {
		out.Draws = append(Draw(nil), s.Draws...)
	}
	for k, v := range s.Passwords {
		out.Passwords[k] = v
	}
	return out
}
