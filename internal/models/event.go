package models

// Event types pushed to connected clients.
const (
	EventSnapshot            = "snapshot"
	EventParticipantsChanged = "participants_changed"
	EventDrawPerformed       = "draw_performed"
	EventDrawReset           = "draw_reset"
	EventStateReset          = "state_reset"
)

// Event announces a change to a tenant's state. It never carries pairs.
type Event struct {
	Type         string `json:"type"`
	Tenant       string `json:"-"`
	Participants int    `json:"participants"`
	HasDrawn     bool   `json:"hasDrawn"`
}
