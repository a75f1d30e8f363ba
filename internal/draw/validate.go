package draw

import (
	"fmt"
	"strings"

	"secretsanta/internal/models"
)

// Validate checks d for self-assignments and duplicate givers or
// receivers. An empty or nil draw is invalid.
func Validate(d models.Draw) models.Report {
	if len(d) == 0 {
		return models.Report{Valid: false, Issues: []string{"no draw"}}
	}

	issues := make([]string, 0)
	givers := make(map[string]struct{}, len(d))
	receivers := make(map[string]struct{}, len(d))

	for _, p := range d {
		if p.From == p.To {
			issues = append(issues, fmt.Sprintf("self-assignment: %s", p.From))
		}
		if _, dup := givers[p.From]; dup {
			issues = append(issues, fmt.Sprintf("duplicate giver: %s", p.From))
		}
		if _, dup := receivers[p.To]; dup {
			issues = append(issues, fmt.Sprintf("duplicate receiver: %s", p.To))
		}
		givers[p.From] = struct{}{}
		receivers[p.To] = struct{}{}
	}

	return models.Report{
		Valid:  len(issues) == 0,
		Issues: issues,
		Stats: models.Stats{
			TotalParticipants: len(d),
			UniqueGivers:      len(givers),
			UniqueReceivers:   len(receivers),
		},
	}
}

// Audit runs Validate and also checks that givers and receivers each cover
// participants exactly.
func Audit(d models.Draw, participants []string) models.Report {
	report := Validate(d)
	if len(d) == 0 {
		return report
	}

	known := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		known[p] = struct{}{}
	}
	givers := make(map[string]struct{}, len(d))
	receivers := make(map[string]struct{}, len(d))
	for _, p := range d {
		givers[p.From] = struct{}{}
		receivers[p.To] = struct{}{}
		if _, ok := known[p.From]; !ok {
			report.Issues = append(report.Issues, fmt.Sprintf("unknown giver: %s", p.From))
		}
		if _, ok := known[p.To]; !ok {
			report.Issues = append(report.Issues, fmt.Sprintf("unknown receiver: %s", p.To))
		}
	}
	for _, p := range participants {
		if _, ok := givers[p]; !ok {
			report.Issues = append(report.Issues, fmt.Sprintf("missing giver: %s", p))
		}
		if _, ok := receivers[p]; !ok {
			report.Issues = append(report.Issues, fmt.Sprintf("missing receiver: %s", p))
		}
	}

	report.Valid = len(report.Issues) == 0
	return report
}

// RecipientFor returns who name gives to. Names match case-insensitively.
func RecipientFor(d models.Draw, name string) (string, bool) {
	for _, p := range d {
		if strings.EqualFold(p.From, name) {
			return p.To, true
		}
	}
	return "", false
}
