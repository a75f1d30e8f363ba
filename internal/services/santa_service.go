package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/logger"

	"secretsanta/internal/draw"
	"secretsanta/internal/events"
	"secretsanta/internal/models"
	"secretsanta/internal/store"
)

var (
	ErrAlreadyDrawn        = errors.New("the draw has already been made")
	ErrNoDraw              = errors.New("no draw has been made yet")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrInvalidCredentials  = errors.New("incorrect name or password")
	ErrNotLoggedIn         = errors.New("not logged in")
	ErrIntegrityViolation  = errors.New("draw failed its integrity check")
)

// santaSession is the cached state of one tenant.
type santaSession struct {
	state        *models.State
	currentUser  string
	lastActivity time.Time
}

// Overview is what any visitor may see of a tenant's state.
type Overview struct {
	Participants []string `json:"participants"`
	HasDrawn     bool     `json:"hasDrawn"`
	CurrentUser  string   `json:"currentUser"`
}

// SantaService manages Secret Santa draws for many tenants.
// Each tenant's state is cached in memory and written through to the store.
type SantaService struct {
	mu        sync.Mutex
	sessions  map[string]*santaSession // Key: tenantID
	store     store.Store
	broker    *events.Broker
	generator *draw.Generator

	// AutoSeed loads the demo participants into tenants that have no state yet.
	AutoSeed bool
}

// NewSantaService creates a SantaService. broker and gen may be nil.
func NewSantaService(st store.Store, broker *events.Broker, gen *draw.Generator) *SantaService {
	if gen == nil {
		gen = &draw.Generator{}
	}
	return &SantaService{
		sessions:  make(map[string]*santaSession),
		store:     st,
		broker:    broker,
		generator: gen,
	}
}

// getSession returns the tenant's session, loading it from the store on a
// cache miss. The caller must hold s.mu.
func (s *SantaService) getSession(ctx context.Context, tenantID string) (*santaSession, error) {
	if sess, ok := s.sessions[tenantID]; ok {
		sess.lastActivity = time.Now()
		return sess, nil
	}

	state, err := s.store.Load(ctx, tenantID)
	switch {
	case errors.Is(err, store.ErrStateNotFound):
		state = models.NewState()
		if s.AutoSeed {
			state = seedState()
			if err := s.store.Save(ctx, tenantID, state); err != nil {
				return nil, fmt.Errorf("seed tenant %s: %w", tenantID, err)
			}
			logger.Infof("Seeded %d demo participants for tenant: %s", len(state.Participants), tenantID)
		}
	case err != nil:
		return nil, fmt.Errorf("load tenant %s: %w", tenantID, err)
	}

	sess := &santaSession{state: state, lastActivity: time.Now()}

	user, err := s.store.LoadAuth(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load auth for tenant %s: %w", tenantID, err)
	}
	// a stale login for someone no longer participating is ignored
	if canonical, ok := state.Lookup(user); user != "" && ok {
		sess.currentUser = canonical
	}

	s.sessions[tenantID] = sess
	return sess, nil
}

// commit persists next and only then makes it the cached state, so a
// failed save leaves the session as the store has it.
func (s *SantaService) commit(ctx context.Context, tenantID string, sess *santaSession, next *models.State) error {
	if err := s.store.Save(ctx, tenantID, next); err != nil {
		return fmt.Errorf("save tenant %s: %w", tenantID, err)
	}
	sess.state = next
	return nil
}

func (s *SantaService) publish(tenantID, typ string, state *models.State) {
	if s.broker == nil {
		return
	}
	s.broker.Publish(models.Event{
		Type:         typ,
		Tenant:       tenantID,
		Participants: len(state.Participants),
		HasDrawn:     state.HasDrawn,
	})
}

// Overview returns the participants, draw status and logged-in user.
func (s *SantaService) Overview(ctx context.Context, tenantID string) (Overview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(ctx, tenantID)
	if err != nil {
		return Overview{}, err
	}
	return Overview{
		Participants: append([]string{}, sess.state.Participants...),
		HasDrawn:     sess.state.HasDrawn,
		CurrentUser:  sess.currentUser,
	}, nil
}

// GetParticipants returns the participants in insertion order.
func (s *SantaService) GetParticipants(ctx context.Context, tenantID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return append([]string{}, sess.state.Participants...), nil
}

// AddParticipant adds a participant. Names are trimmed and must be unique
// ignoring case. Adding someone after a draw discards the draw.
func (s *SantaService) AddParticipant(ctx context.Context, tenantID, name, password string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.NewValidationError("participant name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(ctx, tenantID)
	if err != nil {
		return err
	}
	if existing, ok := sess.state.Lookup(name); ok {
		return models.NewValidationError(fmt.Sprintf("participant %q already exists", existing))
	}

	next := sess.state.Clone()
	next.Participants = append(next.Participants, name)
	if password != "" {
		next.Passwords[name] = password
	}
	discardDraw(tenantID, next)

	if err := s.commit(ctx, tenantID, sess, next); err != nil {
		return err
	}
	s.publish(tenantID, models.EventParticipantsChanged, sess.state)
	return nil
}

// RemoveParticipant removes the participant matching name ignoring case.
// Removing someone after a draw discards the draw.
func (s *SantaService) RemoveParticipant(ctx context.Context, tenantID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(ctx, tenantID)
	if err != nil {
		return err
	}

	idx := -1
	for i, p := range sess.state.Participants {
		if strings.EqualFold(p, strings.TrimSpace(name)) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrParticipantNotFound
	}

	next := sess.state.Clone()
	removed := next.Participants[idx]
	next.Participants = append(next.Participants[:idx], next.Participants[idx+1:]...)
	delete(next.Passwords, removed)
	discardDraw(tenantID, next)

	if err := s.commit(ctx, tenantID, sess, next); err != nil {
		return err
	}
	if sess.currentUser == removed {
		if err := s.store.ClearAuth(ctx, tenantID); err != nil {
			return fmt.Errorf("clear auth for tenant %s: %w", tenantID, err)
		}
		sess.currentUser = ""
	}
	s.publish(tenantID, models.EventParticipantsChanged, sess.state)
	return nil
}

func discardDraw(tenantID string, state *models.State) {
	if state.HasDrawn || state.Draws != nil {
		logger.Infof("Participants changed after the draw, discarding it for tenant: %s", tenantID)
		state.ClearDraw()
	}
}

// PerformDraw assigns every participant a recipient and stores the result.
// It fails with ErrAlreadyDrawn if a draw exists, or with the generator's
// error if no derangement could be made.
func (s *SantaService) PerformDraw(ctx context.Context, tenantID string) (models.Draw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if sess.state.HasDrawn {
		return nil, ErrAlreadyDrawn
	}

	participants := sess.state.Participants
	result, err := s.generator.Generate(participants)
	switch {
	case errors.Is(err, draw.ErrInsufficientParticipants):
		logger.Warningf("Draw refused for tenant %s: %d participant(s)", tenantID, len(participants))
		return nil, err
	case errors.Is(err, draw.ErrGenerationExhausted):
		logger.Errorf("Draw failed for tenant %s with %d participants: %v", tenantID, len(participants), err)
		return nil, err
	case err != nil:
		return nil, err
	}

	if report := draw.Audit(result, participants); !report.Valid {
		logger.Errorf("Generated draw for tenant %s failed audit: %v", tenantID, report.Issues)
		return nil, fmt.Errorf("%w: %s", ErrIntegrityViolation, strings.Join(report.Issues, "; "))
	}

	next := sess.state.Clone()
	next.Draws = result
	next.HasDrawn = true
	if err := s.commit(ctx, tenantID, sess, next); err != nil {
		return nil, err
	}

	logger.Infof("Draw performed for tenant %s with %d participants", tenantID, len(result))
	s.publish(tenantID, models.EventDrawPerformed, sess.state)
	return append(models.Draw(nil), result...), nil
}

// GetDraw returns the stored draw.
func (s *SantaService) GetDraw(ctx context.Context, tenantID string) (models.Draw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !sess.state.HasDrawn {
		return nil, ErrNoDraw
	}
	return append(models.Draw(nil), sess.state.Draws...), nil
}

// ResetDraw discards the draw and keeps the participants.
func (s *SantaService) ResetDraw(ctx context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(ctx, tenantID)
	if err != nil {
		return err
	}
	next := sess.state.Clone()
	next.ClearDraw()
	if err := s.commit(ctx, tenantID, sess, next); err != nil {
		return err
	}
	logger.Infof("Draw reset for tenant: %s", tenantID)
	s.publish(tenantID, models.EventDrawReset, sess.state)
	return nil
}

// ResetAll removes every trace of the tenant, login included.
func (s *SantaService) ResetAll(ctx context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, tenantID); err != nil {
		return fmt.Errorf("delete tenant %s: %w", tenantID, err)
	}
	s.clearSessionLocked(tenantID)
	logger.Infof("Cleared all data for tenant: %s", tenantID)
	s.publish(tenantID, models.EventStateReset, models.NewState())
	return nil
}

// Seed loads the demo participants. Without force it does nothing when the
// tenant already has stored state. It reports whether anything was written.
func (s *SantaService) Seed(ctx context.Context, tenantID string, force bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !force {
		_, err := s.store.Load(ctx, tenantID)
		if err == nil {
			logger.Infof("Tenant %s already has data, not seeding", tenantID)
			return false, nil
		}
		if !errors.Is(err, store.ErrStateNotFound) {
			return false, fmt.Errorf("load tenant %s: %w", tenantID, err)
		}
	}

	sess, err := s.getSession(ctx, tenantID)
	if err != nil {
		return false, err
	}
	if err := s.commit(ctx, tenantID, sess, seedState()); err != nil {
		return false, err
	}
	if _, ok := sess.state.Lookup(sess.currentUser); !ok {
		sess.currentUser = ""
	}

	logger.Infof("Seeded %d demo participants for tenant: %s", len(sess.state.Participants), tenantID)
	s.publish(tenantID, models.EventParticipantsChanged, sess.state)
	return true, nil
}

// Login authenticates a participant by name, matched ignoring case, and
// plaintext password. It returns the participant's stored name.
func (s *SantaService) Login(ctx context.Context, tenantID, name, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(ctx, tenantID)
	if err != nil {
		return "", err
	}

	canonical, ok := sess.state.Lookup(strings.TrimSpace(name))
	if !ok {
		return "", ErrInvalidCredentials
	}
	correct, ok := sess.state.Passwords[canonical]
	if !ok || password != correct {
		return "", ErrInvalidCredentials
	}

	if err := s.store.SaveAuth(ctx, tenantID, canonical); err != nil {
		return "", fmt.Errorf("save auth for tenant %s: %w", tenantID, err)
	}
	sess.currentUser = canonical
	return canonical, nil
}

// Logout forgets the logged-in participant.
func (s *SantaService) Logout(ctx context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(ctx, tenantID)
	if err != nil {
		return err
	}
	if err := s.store.ClearAuth(ctx, tenantID); err != nil {
		return fmt.Errorf("clear auth for tenant %s: %w", tenantID, err)
	}
	sess.currentUser = ""
	return nil
}

// CurrentUser returns the logged-in participant, or "".
func (s *SantaService) CurrentUser(ctx context.Context, tenantID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(ctx, tenantID)
	if err != nil {
		return "", err
	}
	return sess.currentUser, nil
}

// Recipient returns the logged-in participant and who they give to, read
// under one lock so the pair always belongs together.
func (s *SantaService) Recipient(ctx context.Context, tenantID string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(ctx, tenantID)
	if err != nil {
		return "", "", err
	}
	giver := sess.currentUser
	if giver == "" {
		return "", "", ErrNotLoggedIn
	}
	if !sess.state.HasDrawn {
		return giver, "", ErrNoDraw
	}
	to, ok := draw.RecipientFor(sess.state.Draws, giver)
	if !ok {
		return giver, "", ErrNoDraw
	}
	return giver, to, nil
}

// Reveal checks credentials and returns the participant's stored name and
// recipient without changing who is logged in for the tenant.
func (s *SantaService) Reveal(ctx context.Context, tenantID, name, password string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(ctx, tenantID)
	if err != nil {
		return "", "", err
	}
	canonical, ok := sess.state.Lookup(strings.TrimSpace(name))
	if !ok || sess.state.Passwords[canonical] != password {
		return "", "", ErrInvalidCredentials
	}
	if !sess.state.HasDrawn {
		return canonical, "", ErrNoDraw
	}
	to, ok := draw.RecipientFor(sess.state.Draws, canonical)
	if !ok {
		return canonical, "", ErrNoDraw
	}
	return canonical, to, nil
}

// Audit checks the stored draw against the participant list.
func (s *SantaService) Audit(ctx context.Context, tenantID string) (models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(ctx, tenantID)
	if err != nil {
		return models.Report{}, err
	}
	return draw.Audit(sess.state.Draws, sess.state.Participants), nil
}

// Passwords returns every participant's password.
func (s *SantaService) Passwords(ctx context.Context, tenantID string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(sess.state.Passwords))
	for k, v := range sess.state.Passwords {
		out[k] = v
	}
	return out, nil
}

// CleanUpInactiveSessions evicts cached sessions idle for longer than
// maxIdle. Their state stays in the store. It returns the number evicted.
func (s *SantaService) CleanUpInactiveSessions(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for tenantID, session := range s.sessions {
		if time.Since(session.lastActivity) > maxIdle {
			logger.Infof("Evicting idle session for tenant: %s", tenantID)
			delete(s.sessions, tenantID)
			evicted++
		}
	}
	return evicted
}

// ClearSession drops the cached session for a tenant. The stored state is
// kept and reloaded on the next request.
func (s *SantaService) ClearSession(tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearSessionLocked(tenantID)
}

func (s *SantaService) clearSessionLocked(tenantID string) {
	delete(s.sessions, tenantID)
	logger.Infof("Cleared session for tenant: %s", tenantID)
}
