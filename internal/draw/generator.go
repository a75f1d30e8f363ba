package draw

import (
	"errors"
	"fmt"

	"secretsanta/internal/models"
)

// DefaultMaxAttempts bounds the number of shuffles tried before giving up.
// A random permutation is a derangement with probability close to 1/e, so
// reaching this bound means the input or the random source is broken.
const DefaultMaxAttempts = 1000

var (
	// ErrInsufficientParticipants is returned for fewer than two names.
	ErrInsufficientParticipants = errors.New("at least two participants are required")
	// ErrGenerationExhausted is returned when no derangement was found
	// within the attempt bound.
	ErrGenerationExhausted = errors.New("could not find a valid derangement")
)

// Generator produces derangements. The zero value is ready to use.
type Generator struct {
	// MaxAttempts is the shuffle budget; values below 1 mean DefaultMaxAttempts.
	MaxAttempts int
	// Source is the random source; nil means the process-wide generator.
	Source Source
}

// NewGenerator returns a Generator with the given budget and source.
func NewGenerator(maxAttempts int, src Source) *Generator {
	return &Generator{MaxAttempts: maxAttempts, Source: src}
}

func (g *Generator) maxAttempts() int {
	if g == nil || g.MaxAttempts < 1 {
		return DefaultMaxAttempts
	}
	return g.MaxAttempts
}

func (g *Generator) source() Source {
	if g == nil || g.Source == nil {
		return globalSource{}
	}
	return g.Source
}

// Generate assigns every participant a receiver other than themselves.
// Givers keep the order of participants. On failure the returned Draw is
// nil and the error is ErrInsufficientParticipants or wraps
// ErrGenerationExhausted.
func (g *Generator) Generate(participants []string) (models.Draw, error) {
	if len(participants) < 2 {
		return nil, ErrInsufficientParticipants
	}

	limit := g.maxAttempts()
	src := g.source()
	receivers := make([]string, len(participants))

	for attempt := 1; attempt <= limit; attempt++ {
		copy(receivers, participants)
		shuffle(src, receivers)
		if isDerangement(participants, receivers) {
			return pairUp(participants, receivers), nil
		}
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrGenerationExhausted, limit)
}

// Generate runs a default Generator.
func Generate(participants []string) (models.Draw, error) {
	var g Generator
	return g.Generate(participants)
}

// isDerangement compares names exactly as stored.
func isDerangement(givers, receivers []string) bool {
	for i := range givers {
		if givers[i] == receivers[i] {
			return false
		}
	}
	return true
}

func pairUp(givers, receivers []string) models.Draw {
	d := make(models.Draw, len(givers))
	for i := range givers {
		d[i] = models.Pair{From: givers[i], To: receivers[i]}
	}
	return d
}
