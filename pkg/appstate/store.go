// Package appstate holds the signed-in session, the active mode and the live
// profile, and tells subscribers whenever any of them changes.
package appstate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"wizzmo-be/pkg/events"
	"wizzmo-be/pkg/wizzmo"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSignedOut   = errors.New("appstate: not signed in")
	ErrInvalidMode = errors.New("appstate: mode must be student or mentor")
	ErrNotMentor   = errors.New("appstate: mentor mode requires a mentor account")
)

type Session struct {
	AccessToken  string    `yaml:"access_token"`
	RefreshToken string    `yaml:"refresh_token"`
	UserID       uuid.UUID `yaml:"user_id"`
}

// State is an immutable snapshot handed to subscribers.
type State struct {
	Session *Session
	Mode    string
	Profile *wizzmo.User
}

func (s State) SignedIn() bool { return s.Session != nil }

// Backend is the slice of the data-access layer the store uses.
// *wizzmo.Client satisfies it.
type Backend interface {
	SetToken(token string)
	SignIn(ctx context.Context, email, password string) (*wizzmo.Auth, error)
	SignOut(ctx context.Context, refreshToken string) error
	GetProfile(ctx context.Context) (*wizzmo.User, error)
	SetMode(ctx context.Context, mode string) (*wizzmo.User, error)
	Subscribe(ctx context.Context, table string, filter events.Filter, handler wizzmo.ChangeHandler) (func(), error)
}

type Store struct {
	backend Backend
	prefs   Preferences
	logger  *zap.Logger

	mu        sync.RWMutex
	state     State
	listeners map[int]func(State)
	nextID    int
}

func NewStore(backend Backend, prefs Preferences, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend:   backend,
		prefs:     prefs,
		logger:    logger,
		state:     State{Mode: wizzmo.ModeStudent},
		listeners: make(map[int]func(State)),
	}
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// snapshot copies the state. Caller holds mu.
func (s *Store) snapshot() State {
	st := State{Mode: s.state.Mode}
	if s.state.Session != nil {
		cp := *s.state.Session
		st.Session = &cp
	}
	if s.state.Profile != nil {
		cp := *s.state.Profile
		st.Profile = &cp
	}
	return st
}

// Subscribe registers fn for every state change. The returned func may be
// called any number of times.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// set mutates the state under the lock, then notifies outside it.
func (s *Store) set(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.snapshot()
	fns := make([]func(State), 0, len(s.listeners))
	for _, l := range s.listeners {
		fns = append(fns, l)
	}
	s.mu.Unlock()

	for _, l := range fns {
		l(snap)
	}
}

// modeFor picks the persisted mode for the user, falling back to the
// profile's, and never mentor for a pure student.
func (s *Store) modeFor(profile *wizzmo.User) string {
	mode := profile.CurrentMode
	if saved, ok, err := s.prefs.Mode(profile.Id); err != nil {
		s.logger.Warn("read saved mode", zap.Error(err))
	} else if ok {
		mode = saved
	}
	if mode != wizzmo.ModeMentor || !profile.CanMentor() {
		return wizzmo.ModeStudent
	}
	return mode
}

func (s *Store) SignIn(ctx context.Context, email, password string) error {
	auth, err := s.backend.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	session := &Session{AccessToken: auth.AccessToken, RefreshToken: auth.RefreshToken, UserID: auth.User.Id}
	if err := s.prefs.SaveSession(session); err != nil {
		s.logger.Warn("persist session", zap.Error(err))
	}

	profile := auth.User
	mode := s.modeFor(&profile)
	s.set(func(st *State) {
		st.Session = session
		st.Profile = &profile
		st.Mode = mode
	})
	return nil
}

// SignOut clears local state even when the server call fails.
func (s *Store) SignOut(ctx context.Context) error {
	st := s.State()
	var err error
	if st.Session != nil {
		err = s.backend.SignOut(ctx, st.Session.RefreshToken)
	}
	if cerr := s.prefs.ClearSession(); cerr != nil {
		s.logger.Warn("clear session", zap.Error(cerr))
	}
	s.backend.SetToken("")
	s.set(func(st *State) {
		st.Session = nil
		st.Profile = nil
		st.Mode = wizzmo.ModeStudent
	})
	return err
}

// Restore brings back the previous launch's session. The saved mode is
// applied before the profile request so the first screen already has it.
func (s *Store) Restore(ctx context.Context) error {
	session, err := s.prefs.Session()
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if session == nil {
		return nil
	}

	s.backend.SetToken(session.AccessToken)
	savedMode, hasMode, err := s.prefs.Mode(session.UserID)
	if err != nil {
		s.logger.Warn("read saved mode", zap.Error(err))
	}
	s.set(func(st *State) {
		st.Session = session
		if hasMode {
			st.Mode = savedMode
		}
	})

	profile, err := s.backend.GetProfile(ctx)
	if err != nil {
		if wizzmo.IsKind(err, wizzmo.KindUnauthorized) {
			s.logger.Info("saved session rejected, signing out")
			_ = s.prefs.ClearSession()
			s.backend.SetToken("")
			s.set(func(st *State) {
				st.Session = nil
				st.Profile = nil
				st.Mode = wizzmo.ModeStudent
			})
			return nil
		}
		return err
	}

	mode := s.modeFor(profile)
	s.set(func(st *State) {
		st.Profile = profile
		st.Mode = mode
	})
	return nil
}

// SetMode switches the active mode remotely and in local preferences.
func (s *Store) SetMode(ctx context.Context, mode string) error {
	if mode != wizzmo.ModeStudent && mode != wizzmo.ModeMentor {
		return ErrInvalidMode
	}
	st := s.State()
	if st.Session == nil {
		return ErrSignedOut
	}
	if mode == wizzmo.ModeMentor && (st.Profile == nil || !st.Profile.CanMentor()) {
		return ErrNotMentor
	}

	profile, err := s.backend.SetMode(ctx, mode)
	if err != nil {
		return err
	}
	if err := s.prefs.SetMode(st.Session.UserID, mode); err != nil {
		s.logger.Warn("persist mode", zap.Error(err))
	}
	s.set(func(st *State) {
		st.Profile = profile
		st.Mode = mode
	})
	return nil
}

// WatchProfile keeps the profile live from "users" row changes of the
// signed-in user until ctx ends or the returned func is called.
func (s *Store) WatchProfile(ctx context.Context) (func(), error) {
	st := s.State()
	if st.Session == nil {
		return nil, ErrSignedOut
	}
	userID := st.Session.UserID

	return s.backend.Subscribe(ctx, "users", events.Eq("id", userID), func(change events.RowChange) {
		if change.Type == events.ChangeDelete {
			s.logger.Info("account deleted remotely")
			_ = s.prefs.ClearSession()
			s.set(func(st *State) {
				st.Session = nil
				st.Profile = nil
				st.Mode = wizzmo.ModeStudent
			})
			return
		}
		var u wizzmo.User
		if err := change.Decode(&u); err != nil {
			s.logger.Warn("undecodable profile change", zap.Error(err))
			return
		}
		if u.Id != userID {
			return
		}
		s.set(func(st *State) {
			// row changes carry the public profile
			if u.Email == "" && st.Profile != nil {
				u.Email = st.Profile.Email
			}
			st.Profile = &u
		})
	})
}
