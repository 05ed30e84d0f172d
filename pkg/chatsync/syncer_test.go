package chatsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wizzmo-be/pkg/events"
	"wizzmo-be/pkg/wizzmo"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is an in-memory session store.
type fakeSource struct {
	mu        sync.Mutex
	session   uuid.UUID
	sender    uuid.UUID
	rows      []wizzmo.Message
	seq       int64
	now       time.Time
	failList  error
	failSend  error
	failDel   error
	deleted   []uuid.UUID
	handler   wizzmo.ChangeHandler
	unsubbed  bool
	listCalls int
	gate      chan struct{}
}

func newFakeSource(now time.Time) *fakeSource {
	return &fakeSource{session: uuid.New(), sender: uuid.New(), now: now}
}

func (f *fakeSource) insert(text string, createdAt time.Time) wizzmo.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	content := text
	m := wizzmo.Message{
		Id: uuid.New(), SessionId: f.session, SenderId: f.sender, Seq: f.seq,
		Content: &content, Version: 1, CreatedAt: createdAt,
	}
	f.rows = append(f.rows, m)
	return m
}

func (f *fakeSource) ListMessages(ctx context.Context, sessionID uuid.UUID, afterSeq int64) ([]wizzmo.Message, error) {
	f.mu.Lock()
	f.listCalls++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList != nil {
		return nil, f.failList
	}
	var out []wizzmo.Message
	for _, m := range f.rows {
		if m.SessionId == sessionID && m.Seq > afterSeq {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeSource) SendMessage(_ context.Context, _ uuid.UUID, text string, _ *uuid.UUID) (*wizzmo.Message, error) {
	if f.failSend != nil {
		return nil, f.failSend
	}
	m := f.insert(text, f.now)
	return &m, nil
}

func (f *fakeSource) SendMedia(_ context.Context, _ uuid.UUID, in wizzmo.MediaUpload) (*wizzmo.Message, error) {
	if f.failSend != nil {
		return nil, f.failSend
	}
	m := f.insert(in.Caption, f.now)
	url := "/uploads/images/" + in.Filename
	m.ImageURL = &url
	return &m, nil
}

func (f *fakeSource) UnsendMessage(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDel != nil {
		return f.failDel
	}
	for i, m := range f.rows {
		if m.Id == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeSource) ToggleReaction(_ context.Context, id uuid.UUID, emoji string) (*wizzmo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].Id == id {
			f.rows[i].Version++
			f.rows[i].Reactions = append(f.rows[i].Reactions, wizzmo.Reaction{Id: uuid.New(), Emoji: emoji})
			m := f.rows[i]
			return &m, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeSource) MarkRead(context.Context, uuid.UUID) (*wizzmo.ReadResult, error) {
	return &wizzmo.ReadResult{Updated: 2}, nil
}

func (f *fakeSource) Subscribe(_ context.Context, table string, filter events.Filter, handler wizzmo.ChangeHandler) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if table != "messages" || filter != events.Eq("session_id", f.session) {
		return nil, errors.New("unexpected subscription")
	}
	f.handler = handler
	return func() {
		f.mu.Lock()
		f.unsubbed = true
		f.mu.Unlock()
	}, nil
}

func (f *fakeSource) push(t *testing.T, typ events.ChangeType, m wizzmo.Message) {
	t.Helper()
	var change events.RowChange
	var err error
	if typ == events.ChangeDelete {
		change, err = events.NewRowChange("messages", typ, nil, m)
	} else {
		change, err = events.NewRowChange("messages", typ, m, nil)
	}
	require.NoError(t, err)
	f.handler(change)
}

func ids(msgs []wizzmo.Message) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Id)
	}
	return out
}

// snapshot fetches the remote list the way a poll does, without merging it.
func snapshot(t *testing.T, s *Syncer, src *fakeSource) (uint64, []wizzmo.Message) {
	t.Helper()
	s.mu.Lock()
	at := s.beginFetch()
	s.mu.Unlock()
	remote, err := src.ListMessages(context.Background(), src.session, 0)
	require.NoError(t, err)
	return at, remote
}

func (s *Syncer) merged(at uint64, remote []wizzmo.Message) {
	s.mu.Lock()
	s.reconcile(remote, at)
	s.mu.Unlock()
}

func (f *fakeSource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func startSyncer(t *testing.T, src *fakeSource) *Syncer {
	t.Helper()
	s := New(src.session, src, WithPollInterval(time.Hour), WithClock(func() time.Time { return src.now }))
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)
	return s
}

func TestStartLoadsBaselineInSeqOrder(t *testing.T) {
	now := time.Now()
	src := newFakeSource(now)
	a := src.insert("first", now.Add(-time.Minute))
	b := src.insert("second", now)

	s := startSyncer(t, src)
	assert.Equal(t, []uuid.UUID{a.Id, b.Id}, ids(s.Messages()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)
}

func TestSendAppendsExactlyOnce(t *testing.T) {
	src := newFakeSource(time.Now())
	s := startSyncer(t, src)

	m, err := s.Send(context.Background(), "  hello  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", m.Text())
	assert.Equal(t, src.session, m.SessionId)
	assert.Equal(t, src.sender, m.SenderId)

	// the poll and the push of the same row are no-ops
	require.NoError(t, s.Tick(context.Background()))
	src.push(t, events.ChangeInsert, *m)

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, m.Id, msgs[0].Id)
}

func TestSendRejectsBlankAndReturnsTextOnFailure(t *testing.T) {
	src := newFakeSource(time.Now())
	s := startSyncer(t, src)

	_, err := s.Send(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	boom := errors.New("offline")
	src.failSend = boom
	_, err = s.Send(context.Background(), "keep me", nil)

	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, "keep me", sendErr.Text)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, s.Messages())
}

func TestSendMediaAppends(t *testing.T) {
	src := newFakeSource(time.Now())
	s := startSyncer(t, src)

	m, err := s.SendMedia(context.Background(), wizzmo.MediaUpload{Kind: wizzmo.MediaImage, Filename: "a.png", Data: []byte("x")})
	require.NoError(t, err)
	require.NotNil(t, m.ImageURL)
	assert.Len(t, s.Messages(), 1)
}

func TestTickConvergesToRemote(t *testing.T) {
	now := time.Now()
	src := newFakeSource(now)
	a := src.insert("a", now)
	s := startSyncer(t, src)

	// remote gains two rows, edits one, loses none
	b := src.insert("b", now)
	c := src.insert("c", now)
	src.mu.Lock()
	src.rows[0].Version = 2
	edited := "a (edited)"
	src.rows[0].Content = &edited
	src.mu.Unlock()

	require.NoError(t, s.Tick(context.Background()))

	msgs := s.Messages()
	assert.Equal(t, []uuid.UUID{a.Id, b.Id, c.Id}, ids(msgs))
	assert.Equal(t, "a (edited)", msgs[0].Text())

	// the other participant unsent b
	require.NoError(t, src.UnsendMessage(context.Background(), b.Id))
	require.NoError(t, s.Tick(context.Background()))
	assert.Equal(t, []uuid.UUID{a.Id, c.Id}, ids(s.Messages()))
}

func TestStaleVersionIsIgnored(t *testing.T) {
	now := time.Now()
	src := newFakeSource(now)
	a := src.insert("a", now)
	s := startSyncer(t, src)

	newer := a
	newer.Version = 3
	newer.IsRead = true
	src.push(t, events.ChangeUpdate, newer)

	older := a
	older.Version = 2
	src.push(t, events.ChangeUpdate, older)

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(3), msgs[0].Version)
	assert.True(t, msgs[0].IsRead)
}

func TestPushDeleteRemoves(t *testing.T) {
	now := time.Now()
	src := newFakeSource(now)
	a := src.insert("a", now)
	s := startSyncer(t, src)

	src.push(t, events.ChangeDelete, a)
	assert.Empty(t, s.Messages())
}

func TestUnsendWithinWindow(t *testing.T) {
	now := time.Now()
	src := newFakeSource(now)
	a := src.insert("oops", now.Add(-4*time.Minute))
	s := startSyncer(t, src)

	var seen [][]wizzmo.Message
	stop := s.OnChange(func(m []wizzmo.Message) { seen = append(seen, m) })
	defer stop()

	require.NoError(t, s.Unsend(context.Background(), a.Id))
	assert.Empty(t, s.Messages())
	assert.Equal(t, []uuid.UUID{a.Id}, src.deleted)
	require.NotEmpty(t, seen)
	assert.Empty(t, seen[len(seen)-1])
}

func TestUnsendRefusedAfterWindow(t *testing.T) {
	now := time.Now()
	src := newFakeSource(now)
	a := src.insert("old", now.Add(-6*time.Minute))
	s := startSyncer(t, src)

	assert.ErrorIs(t, s.Unsend(context.Background(), a.Id), ErrUnsendWindowExpired)
	assert.Empty(t, src.deleted)
	assert.Len(t, s.Messages(), 1)

	assert.ErrorIs(t, s.Unsend(context.Background(), uuid.New()), ErrUnknownMessage)
}

func TestUnsendFailureRestores(t *testing.T) {
	now := time.Now()
	src := newFakeSource(now)
	a := src.insert("keep", now)
	s := startSyncer(t, src)

	boom := errors.New("server down")
	src.failDel = boom

	err := s.Unsend(context.Background(), a.Id)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []uuid.UUID{a.Id}, ids(s.Messages()))
}

func TestExcludedIdSkippedByPoll(t *testing.T) {
	now := time.Now()
	src := newFakeSource(now)
	a := src.insert("a", now)
	s := startSyncer(t, src)

	// simulate the remote delete not yet visible to polling
	s.mu.Lock()
	s.excluded[a.Id] = s.fetch
	s.list = nil
	s.mu.Unlock()

	require.NoError(t, s.Tick(context.Background()))
	assert.Empty(t, s.Messages())
}

func TestReactAppliesNewVersion(t *testing.T) {
	now := time.Now()
	src := newFakeSource(now)
	a := src.insert("a", now)
	s := startSyncer(t, src)

	_, err := s.React(context.Background(), a.Id, "🔥")
	require.NoError(t, err)
	msgs := s.Messages()
	require.Len(t, msgs[0].Reactions, 1)
	assert.Equal(t, int64(2), msgs[0].Version)

	n, err := s.MarkRead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPollFailureIsSkipped(t *testing.T) {
	now := time.Now()
	src := newFakeSource(now)
	src.insert("a", now)
	s := startSyncer(t, src)

	src.failList = errors.New("timeout")
	assert.Error(t, s.Tick(context.Background()))
	assert.Len(t, s.Messages(), 1)
}

func TestStopDropsLateResults(t *testing.T) {
	now := time.Now()
	src := newFakeSource(now)
	s := New(src.session, src, WithPollInterval(time.Hour))
	require.NoError(t, s.Start(context.Background()))

	s.Stop()
	assert.True(t, src.unsubbed)

	src.insert("late", now)
	require.NoError(t, s.Tick(context.Background()))
	src.push(t, events.ChangeInsert, src.rows[0])
	assert.Empty(t, s.Messages())

	s.Stop()
}

func TestPollLoopRuns(t *testing.T) {
	now := time.Now()
	src := newFakeSource(now)
	s := New(src.session, src, WithPollInterval(10*time.Millisecond))
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	m := src.insert("from the other side", now)
	assert.Eventually(t, func() bool {
		msgs := s.Messages()
		return len(msgs) == 1 && msgs[0].Id == m.Id
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTickDropsDeletedTail(t *testing.T) {
	now := time.Now()
	src := newFakeSource(now)
	a := src.insert("a", now)
	b := src.insert("b", now)
	c := src.insert("c", now)
	s := startSyncer(t, src)

	src.mu.Lock()
	src.rows = src.rows[:2]
	src.mu.Unlock()

	require.NoError(t, s.Tick(context.Background()))
	assert.Equal(t, []uuid.UUID{a.Id, b.Id}, ids(s.Messages()))
	assert.NotContains(t, ids(s.Messages()), c.Id)
}

func TestTickEmptiesWhenRemoteIsEmpty(t *testing.T) {
	now := time.Now()
	src := newFakeSource(now)
	src.insert("a", now)
	src.insert("b", now)
	s := startSyncer(t, src)

	src.mu.Lock()
	src.rows = nil
	src.mu.Unlock()

	require.NoError(t, s.Tick(context.Background()))
	assert.Empty(t, s.Messages())
}

func TestSendSurvivesSnapshotTakenBeforeIt(t *testing.T) {
	now := time.Now()
	src := newFakeSource(now)
	a := src.insert("a", now)
	s := startSyncer(t, src)

	at, remote := snapshot(t, s, src)
	m, err := s.Send(context.Background(), "mine", nil)
	require.NoError(t, err)

	s.merged(at, remote)
	assert.Equal(t, []uuid.UUID{a.Id, m.Id}, ids(s.Messages()))

	// the next snapshot carries the row and settles it
	require.NoError(t, s.Tick(context.Background()))
	assert.Equal(t, []uuid.UUID{a.Id, m.Id}, ids(s.Messages()))
	assert.Empty(t, s.fresh)
}

func TestSnapshotOlderThanLastMergeIsIgnored(t *testing.T) {
	now := time.Now()
	src := newFakeSource(now)
	a := src.insert("a", now)
	s := startSyncer(t, src)

	at, stale := snapshot(t, s, src)
	require.NoError(t, src.UnsendMessage(context.Background(), a.Id))
	require.NoError(t, s.Tick(context.Background()))
	require.Empty(t, s.Messages())

	s.merged(at, stale)
	assert.Empty(t, s.Messages())
}

func TestPushDeleteSurvivesStaleSnapshot(t *testing.T) {
	now := time.Now()
	src := newFakeSource(now)
	a := src.insert("a", now)
	b := src.insert("b", now)
	s := startSyncer(t, src)

	at, stale := snapshot(t, s, src)
	require.NoError(t, src.UnsendMessage(context.Background(), b.Id))
	src.push(t, events.ChangeDelete, b)

	s.merged(at, stale)
	assert.Equal(t, []uuid.UUID{a.Id}, ids(s.Messages()))

	// once a later snapshot lacks the row the tombstone goes away
	require.NoError(t, s.Tick(context.Background()))
	assert.Equal(t, []uuid.UUID{a.Id}, ids(s.Messages()))
	assert.Empty(t, s.excluded)
}

func TestUnsendTombstoneIsReleased(t *testing.T) {
	now := time.Now()
	src := newFakeSource(now)
	a := src.insert("a", now)
	s := startSyncer(t, src)

	require.NoError(t, s.Unsend(context.Background(), a.Id))
	assert.Len(t, s.excluded, 1)

	require.NoError(t, s.Tick(context.Background()))
	assert.Empty(t, s.excluded)
	assert.Empty(t, s.Messages())
}

func TestStopDuringStartLeavesNothingRunning(t *testing.T) {
	now := time.Now()
	src := newFakeSource(now)
	src.insert("a", now)
	gate := make(chan struct{})
	src.gate = gate

	s := New(src.session, src, WithPollInterval(5*time.Millisecond))
	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	require.Eventually(t, func() bool { return src.calls() == 1 }, time.Second, time.Millisecond)
	s.Stop()
	close(gate)
	require.NoError(t, <-done)

	calls := src.calls()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, src.calls())
	assert.Empty(t, s.Messages())

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Nil(t, src.handler)
}
