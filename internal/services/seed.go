package services

import "secretsanta/internal/models"

// SeedParticipants is the demo group loaded by Seed.
var SeedParticipants = []string{
	"Zéna",
	"Erichelle",
	"Daisy",
	"Ibrahim",
	"yves",
	"orlane",
	"Sarah",
	"Denise",
	"Marcelle",
}

// SeedPasswords holds the demo group's login passwords.
var SeedPasswords = map[string]string{
	"Zéna":      "1234",
	"Erichelle": "5678",
	"Daisy":     "9012",
	"Ibrahim":   "3456",
	"yves":      "7890",
	"orlane":    "2345",
	"Sarah":     "0123",
	"Denise":    "4567",
	"Marcelle":  "6789",
}

func seedState() *models.State {
	state := models.NewState()
	state.Participants = append(state.Participants, SeedParticipants...)
	for name, pw := range SeedPasswords {
		state.Passwords[name] = pw
	}
	return state
}
