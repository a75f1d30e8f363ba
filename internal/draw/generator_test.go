package draw

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"

	"secretsanta/internal/models"
)

// stuckSource always swaps an element with itself, so every shuffle is the
// identity permutation.
type stuckSource struct {
	calls int
}

func (s *stuckSource) IntN(n int) int {
	s.calls++
	return n - 1
}

func assertDerangement(t *testing.T, names []string, d models.Draw) {
	t.Helper()

	if len(d) != len(names) {
		t.Fatalf("Expected %d pairs, but got %d", len(names), len(d))
	}
	if !slices.Equal(d.Givers(), names) {
		t.Errorf("Expected givers in input order %v, but got %v", names, d.Givers())
	}

	receivers := d.Receivers()
	slices.Sort(receivers)
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	if !slices.Equal(receivers, sorted) {
		t.Errorf("Expected receivers to be a permutation of %v, but got %v", sorted, receivers)
	}

	for _, p := range d {
		if p.From == p.To {
			t.Errorf("Participant %s drew themselves", p.From)
		}
	}
}

func TestGenerate(t *testing.T) {
	t.Run("Test fewer than two participants", func(t *testing.T) {
		for _, names := range [][]string{nil, {}, {"Alice"}} {
			d, err := Generate(names)
			if !errors.Is(err, ErrInsufficientParticipants) {
				t.Errorf("Expected ErrInsufficientParticipants for %v, but got %v", names, err)
			}
			if d != nil {
				t.Errorf("Expected no draw for %v, but got %v", names, d)
			}
		}
	})

	t.Run("Test two participants swap", func(t *testing.T) {
		d, err := Generate([]string{"Alice", "Bob"})
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		want := models.Draw{{From: "Alice", To: "Bob"}, {From: "Bob", To: "Alice"}}
		if !slices.Equal(d, want) {
			t.Errorf("Expected %v, but got %v", want, d)
		}
	})

	t.Run("Test three participants yield one of the two cycles", func(t *testing.T) {
		names := []string{"Alice", "Bob", "Carol"}
		first := models.Draw{{From: "Alice", To: "Bob"}, {From: "Bob", To: "Carol"}, {From: "Carol", To: "Alice"}}
		second := models.Draw{{From: "Alice", To: "Carol"}, {From: "Bob", To: "Alice"}, {From: "Carol", To: "Bob"}}

		seen := map[bool]int{}
		for range 200 {
			d, err := Generate(names)
			if err != nil {
				t.Fatalf("Expected no error, but got %v", err)
			}
			switch {
			case slices.Equal(d, first):
				seen[true]++
			case slices.Equal(d, second):
				seen[false]++
			default:
				t.Fatalf("Unexpected draw %v", d)
			}
		}
		if seen[true] == 0 || seen[false] == 0 {
			t.Errorf("Expected both derangements over repeated draws, got %v", seen)
		}
	})

	t.Run("Test nine participants", func(t *testing.T) {
		names := []string{"Zéna", "Erichelle", "Daisy", "Ibrahim", "yves", "orlane", "Sarah", "Denise", "Marcelle"}
		for range 50 {
			d, err := Generate(names)
			if err != nil {
				t.Fatalf("Expected no error, but got %v", err)
			}
			assertDerangement(t, names, d)
			if report := Validate(d); !report.Valid || len(report.Issues) != 0 {
				t.Fatalf("Expected generated draw to validate, got %+v", report)
			}
		}
	})

	t.Run("Test input is not modified", func(t *testing.T) {
		names := []string{"a", "b", "c", "d", "e"}
		orig := slices.Clone(names)
		if _, err := Generate(names); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if !slices.Equal(names, orig) {
			t.Errorf("Expected input %v to be untouched, but got %v", orig, names)
		}
	})

	t.Run("Test names differing only in case are distinct", func(t *testing.T) {
		names := []string{"alice", "Alice", "ALICE"}
		d, err := Generate(names)
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		assertDerangement(t, names, d)
	})
}

func TestGenerator_Exhaustion(t *testing.T) {
	src := &stuckSource{}
	g := NewGenerator(5, src)

	d, err := g.Generate([]string{"Alice", "Bob", "Carol"})
	if !errors.Is(err, ErrGenerationExhausted) {
		t.Fatalf("Expected ErrGenerationExhausted, but got %v", err)
	}
	if d != nil {
		t.Errorf("Expected no draw, but got %v", d)
	}
	// two swaps per shuffle of three names
	if src.calls != 10 {
		t.Errorf("Expected 5 shuffles (10 calls), but got %d calls", src.calls)
	}
	if !strings.Contains(err.Error(), "5 attempts") {
		t.Errorf("Expected attempt count in error, got %q", err.Error())
	}
}

func TestGenerator_DefaultBound(t *testing.T) {
	src := &stuckSource{}
	g := &Generator{Source: src}

	if _, err := g.Generate([]string{"Alice", "Bob"}); !errors.Is(err, ErrGenerationExhausted) {
		t.Fatalf("Expected ErrGenerationExhausted, but got %v", err)
	}
	if src.calls != DefaultMaxAttempts {
		t.Errorf("Expected %d shuffles, but got %d", DefaultMaxAttempts, src.calls)
	}
}

func TestGenerator_DuplicateNamesNeverPanic(t *testing.T) {
	g := NewGenerator(20, nil)
	if _, err := g.Generate([]string{"Alice", "Alice"}); !errors.Is(err, ErrGenerationExhausted) {
		t.Errorf("Expected ErrGenerationExhausted for duplicated names, but got %v", err)
	}
}

func TestGenerator_SeededIsReproducible(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f"}

	a, err := NewGenerator(0, NewSource(42)).Generate(names)
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	b, err := NewGenerator(0, NewSource(42)).Generate(names)
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if !slices.Equal(a, b) {
		t.Errorf("Expected equal draws for equal seeds, got %v and %v", a, b)
	}
}

func TestGenerator_Uniform(t *testing.T) {
	// four names have nine derangements
	names := []string{"a", "b", "c", "d"}
	g := NewGenerator(0, NewSource(7))

	const runs = 9000
	counts := map[string]int{}
	for range runs {
		d, err := g.Generate(names)
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		counts[strings.Join(d.Receivers(), "")]++
	}

	if len(counts) != 9 {
		t.Fatalf("Expected 9 distinct derangements, but got %d: %v", len(counts), counts)
	}
	for k, n := range counts {
		if n < 800 || n > 1200 {
			t.Errorf("Derangement %s drawn %d times, expected about %d", k, n, runs/9)
		}
	}
}

func TestGenerator_Concurrent(t *testing.T) {
	g := NewGenerator(0, NewSource(1))
	var wg sync.WaitGroup
	errs := make(chan error, 16)

	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			names := make([]string, 2+i)
			for j := range names {
				names[j] = fmt.Sprintf("p%d", j)
			}
			d, err := g.Generate(names)
			if err != nil {
				errs <- err
				return
			}
			if r := Validate(d); !r.Valid {
				errs <- fmt.Errorf("invalid draw: %v", r.Issues)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
