package appstate

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"wizzmo-be/pkg/events"
	"wizzmo-be/pkg/wizzmo"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	user       wizzmo.User
	token      string
	profileErr error
	modeErr    error
	modeCalls  []string
	handler    wizzmo.ChangeHandler
	filter     events.Filter
}

func newFakeBackend(role string) *fakeBackend {
	return &fakeBackend{user: wizzmo.User{
		Id: uuid.New(), Email: "sam@example.edu", Username: "sam", Role: role, CurrentMode: wizzmo.ModeStudent,
	}}
}

func (b *fakeBackend) SetToken(token string) { b.token = token }

func (b *fakeBackend) SignIn(_ context.Context, email, _ string) (*wizzmo.Auth, error) {
	if email != b.user.Email {
		return nil, &wizzmo.APIError{Status: 401, Kind: wizzmo.KindUnauthorized, Message: "invalid credentials"}
	}
	b.token = "access-1"
	return &wizzmo.Auth{AccessToken: "access-1", RefreshToken: "refresh-1", User: b.user}, nil
}

func (b *fakeBackend) SignOut(context.Context, string) error {
	b.token = ""
	return nil
}

func (b *fakeBackend) GetProfile(context.Context) (*wizzmo.User, error) {
	if b.profileErr != nil {
		return nil, b.profileErr
	}
	u := b.user
	return &u, nil
}

func (b *fakeBackend) SetMode(_ context.Context, mode string) (*wizzmo.User, error) {
	if b.modeErr != nil {
		return nil, b.modeErr
	}
	b.modeCalls = append(b.modeCalls, mode)
	b.user.CurrentMode = mode
	u := b.user
	return &u, nil
}

func (b *fakeBackend) Subscribe(_ context.Context, table string, filter events.Filter, handler wizzmo.ChangeHandler) (func(), error) {
	if table != "users" {
		return nil, errors.New("unexpected table " + table)
	}
	b.filter = filter
	b.handler = handler
	return func() {}, nil
}

func TestSignInPublishesState(t *testing.T) {
	backend := newFakeBackend(wizzmo.RoleStudent)
	store := NewStore(backend, NewMemoryPreferences(), nil)

	var got []State
	unsubscribe := store.Subscribe(func(s State) { got = append(got, s) })

	require.NoError(t, store.SignIn(context.Background(), "sam@example.edu", "pw"))
	require.Len(t, got, 1)
	assert.True(t, got[0].SignedIn())
	assert.Equal(t, backend.user.Id, got[0].Session.UserID)
	assert.Equal(t, wizzmo.ModeStudent, got[0].Mode)

	unsubscribe()
	unsubscribe()
	require.NoError(t, store.SignOut(context.Background()))
	assert.Len(t, got, 1)
	assert.False(t, store.State().SignedIn())
}

func TestSignInFailureLeavesStateAlone(t *testing.T) {
	store := NewStore(newFakeBackend(wizzmo.RoleStudent), NewMemoryPreferences(), nil)

	err := store.SignIn(context.Background(), "nobody@example.edu", "pw")
	assert.True(t, wizzmo.IsKind(err, wizzmo.KindUnauthorized))
	assert.False(t, store.State().SignedIn())
}

func TestSetModeRules(t *testing.T) {
	ctx := context.Background()

	student := newFakeBackend(wizzmo.RoleStudent)
	store := NewStore(student, NewMemoryPreferences(), nil)
	assert.ErrorIs(t, store.SetMode(ctx, wizzmo.ModeMentor), ErrSignedOut)
	require.NoError(t, store.SignIn(ctx, "sam@example.edu", "pw"))
	assert.ErrorIs(t, store.SetMode(ctx, wizzmo.ModeMentor), ErrNotMentor)
	assert.ErrorIs(t, store.SetMode(ctx, "admin"), ErrInvalidMode)
	assert.Empty(t, student.modeCalls)

	both := newFakeBackend(wizzmo.RoleBoth)
	both.modeErr = &wizzmo.APIError{Status: 500, Kind: wizzmo.KindInternal}
	prefs := NewMemoryPreferences()
	store = NewStore(both, prefs, nil)
	require.NoError(t, store.SignIn(ctx, "sam@example.edu", "pw"))
	assert.Error(t, store.SetMode(ctx, wizzmo.ModeMentor))
	_, saved, _ := prefs.Mode(both.user.Id)
	assert.False(t, saved)
	assert.Equal(t, wizzmo.ModeStudent, store.State().Mode)
}

func TestModeSurvivesRelaunch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	backend := newFakeBackend(wizzmo.RoleBoth)

	first := NewStore(backend, NewFilePreferences(path), nil)
	require.NoError(t, first.SignIn(ctx, "sam@example.edu", "pw"))
	require.NoError(t, first.SetMode(ctx, wizzmo.ModeMentor))
	assert.Equal(t, []string{wizzmo.ModeMentor}, backend.modeCalls)

	// the server forgets, the device does not
	backend.user.CurrentMode = wizzmo.ModeStudent
	backend.token = ""

	second := NewStore(backend, NewFilePreferences(path), nil)
	var modes []string
	second.Subscribe(func(s State) { modes = append(modes, s.Mode) })

	require.NoError(t, second.Restore(ctx))
	st := second.State()
	require.True(t, st.SignedIn())
	assert.Equal(t, "access-1", backend.token)
	assert.Equal(t, wizzmo.ModeMentor, st.Mode)
	require.NotEmpty(t, modes)
	assert.Equal(t, wizzmo.ModeMentor, modes[0], "saved mode is applied before the profile arrives")
}

func TestModeIsPerUser(t *testing.T) {
	prefs := NewFilePreferences(filepath.Join(t.TempDir(), "nested", "prefs.yaml"))
	a, b := uuid.New(), uuid.New()

	require.NoError(t, prefs.SetMode(a, wizzmo.ModeMentor))
	m, ok, err := prefs.Mode(a)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, wizzmo.ModeMentor, m)

	_, ok, err = prefs.Mode(b)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRestoreWithoutSession(t *testing.T) {
	backend := newFakeBackend(wizzmo.RoleStudent)
	store := NewStore(backend, NewFilePreferences(filepath.Join(t.TempDir(), "prefs.yaml")), nil)

	require.NoError(t, store.Restore(context.Background()))
	assert.False(t, store.State().SignedIn())
}

func TestRestoreDropsRejectedSession(t *testing.T) {
	prefs := NewMemoryPreferences()
	require.NoError(t, prefs.SaveSession(&Session{AccessToken: "stale", UserID: uuid.New()}))

	backend := newFakeBackend(wizzmo.RoleStudent)
	backend.profileErr = &wizzmo.APIError{Status: 401, Kind: wizzmo.KindUnauthorized}
	store := NewStore(backend, prefs, nil)

	require.NoError(t, store.Restore(context.Background()))
	assert.False(t, store.State().SignedIn())
	s, err := prefs.Session()
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestWatchProfile(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(wizzmo.RoleMentor)
	store := NewStore(backend, NewMemoryPreferences(), nil)

	_, err := store.WatchProfile(ctx)
	assert.ErrorIs(t, err, ErrSignedOut)

	require.NoError(t, store.SignIn(ctx, "sam@example.edu", "pw"))
	stop, err := store.WatchProfile(ctx)
	require.NoError(t, err)
	defer stop()
	assert.Equal(t, events.Eq("id", backend.user.Id), backend.filter)

	updated := backend.user
	updated.Email = ""
	updated.RatingAverage = 4.5
	change, err := events.NewRowChange("users", events.ChangeUpdate, updated, nil)
	require.NoError(t, err)
	backend.handler(change)

	profile := store.State().Profile
	require.NotNil(t, profile)
	assert.Equal(t, 4.5, profile.RatingAverage)
	assert.Equal(t, "sam@example.edu", profile.Email)

	gone, err := events.NewRowChange("users", events.ChangeDelete, nil, updated)
	require.NoError(t, err)
	backend.handler(gone)
	assert.False(t, store.State().SignedIn())
}
