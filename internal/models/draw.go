package models

// Pair is a single giver to receiver assignment.
type Pair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Draw is the complete giver to receiver assignment for one round.
// A nil Draw means no draw has been made.
type Draw []Pair

// Givers returns the From side of every pair, in order.
func (d Draw) Givers() []string {
	out := make([]string, len(d))
	for i, p := range d {
		out[i] = p.From
	}
	return out
}

// Receivers returns the To side of every pair, in order.
func (d Draw) Receivers() []string {
	out := make([]string, len(d))
	for i, p := range d {
		out[i] = p.To
	}
	return out
}

// Stats summarizes the shape of an audited draw.
type Stats struct {
	TotalParticipants int `json:"totalParticipants"`
	UniqueGivers      int `json:"uniqueGivers"`
	UniqueReceivers   int `json:"uniqueReceivers"`
}

// Report is the outcome of an integrity check on a draw.
// Issues is never nil so it serializes as an empty list.
type Report struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
	Stats  Stats    `json:"stats"`
}
