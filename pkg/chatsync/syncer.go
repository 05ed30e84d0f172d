// Package chatsync keeps one advice session's message list in sync across
// local actions, background polling and realtime pushes.
//
// Every message carries a server-assigned per-session seq and a per-row
// version. A row is applied only when its id is unknown or its version is
// strictly newer than the held copy, and the list is kept ordered by seq, so
// poll and push may race in any order and still converge.
package chatsync

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"wizzmo-be/pkg/events"
	"wizzmo-be/pkg/wizzmo"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultPollInterval = 1500 * time.Millisecond
	UnsendWindow        = 5 * time.Minute

	messagesTable = "messages"
)

var (
	ErrUnsendWindowExpired = errors.New("chatsync: message is older than the unsend window")
	ErrUnknownMessage      = errors.New("chatsync: message not in this session")
	ErrEmptyMessage        = errors.New("chatsync: message text is empty")
	ErrAlreadyStarted      = errors.New("chatsync: syncer already started")
)

// Source is the data access the syncer needs. *wizzmo.Client satisfies it.
type Source interface {
	ListMessages(ctx context.Context, sessionID uuid.UUID, afterSeq int64) ([]wizzmo.Message, error)
	SendMessage(ctx context.Context, sessionID uuid.UUID, text string, replyTo *uuid.UUID) (*wizzmo.Message, error)
	SendMedia(ctx context.Context, sessionID uuid.UUID, in wizzmo.MediaUpload) (*wizzmo.Message, error)
	UnsendMessage(ctx context.Context, id uuid.UUID) error
	ToggleReaction(ctx context.Context, id uuid.UUID, emoji string) (*wizzmo.Message, error)
	MarkRead(ctx context.Context, sessionID uuid.UUID) (*wizzmo.ReadResult, error)
	Subscribe(ctx context.Context, table string, filter events.Filter, handler wizzmo.ChangeHandler) (func(), error)
}

// SendError carries the text of a failed send so the caller can put it back
// into the input.
type SendError struct {
	Text string
	Err  error
}

func (e *SendError) Error() string { return fmt.Sprintf("chatsync: send failed: %v", e.Err) }
func (e *SendError) Unwrap() error { return e.Err }

type Option func(*Syncer)

func WithPollInterval(d time.Duration) Option {
	return func(s *Syncer) { s.interval = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Syncer) { s.logger = l }
}

// WithClock overrides time.Now for the unsend window check.
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) { s.now = now }
}

type Syncer struct {
	sessionID uuid.UUID
	source    Source
	interval  time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu   sync.Mutex
	list []wizzmo.Message // ordered by seq
	// fetch counts remote list requests; applied is the fetch whose snapshot
	// was merged last. Older snapshots landing late are ignored.
	fetch   uint64
	applied uint64
	// excluded holds tombstones (unsent or push-deleted ids) and fresh holds
	// rows merged outside a snapshot, both keyed to the fetch count at the time.
	excluded  map[uuid.UUID]uint64
	fresh     map[uuid.UUID]uint64
	listeners map[int]func([]wizzmo.Message)
	nextID    int
	started   bool
	stopped   bool
	cancel    context.CancelFunc
	unsub     func()
	wg        sync.WaitGroup
}

func New(sessionID uuid.UUID, source Source, opts ...Option) *Syncer {
	s := &Syncer{
		sessionID: sessionID,
		source:    source,
		interval:  DefaultPollInterval,
		logger:    zap.NewNop(),
		now:       time.Now,
		excluded:  make(map[uuid.UUID]uint64),
		fresh:     make(map[uuid.UUID]uint64),
		listeners: make(map[int]func([]wizzmo.Message)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("session_id", sessionID.String()))
	return s
}

// Start loads the baseline list, then starts polling and the push listener.
// A failed push subscription is logged; polling alone still converges.
// A Stop issued while Start is in flight wins: nothing keeps running.
func (s *Syncer) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		cancel()
		return ErrAlreadyStarted
	}
	s.started = true
	s.cancel = cancel
	at := s.beginFetch()
	s.mu.Unlock()

	baseline, err := s.source.ListMessages(runCtx, s.sessionID, 0)

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		cancel()
		return nil
	}
	if err != nil {
		s.started = false
		s.cancel = nil
		s.mu.Unlock()
		cancel()
		return fmt.Errorf("load messages: %w", err)
	}
	s.reconcile(baseline, at)
	s.mu.Unlock()
	s.notify()

	unsub, err := s.source.Subscribe(runCtx, messagesTable, events.Eq("session_id", s.sessionID), s.applyChange)
	if err != nil {
		s.logger.Warn("push subscription failed, polling only", zap.Error(err))
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		if unsub != nil {
			unsub()
		}
		cancel()
		return nil
	}
	s.unsub = unsub
	s.wg.Add(1)
	s.mu.Unlock()

	go s.poll(runCtx)
	return nil
}

// Stop ends polling and the push listener. Results landing afterwards are
// dropped.
func (s *Syncer) Stop() {
	s.mu.Lock()
	if s.stopped || !s.started {
		s.stopped = true
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel, unsub := s.cancel, s.unsub
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if unsub != nil {
		unsub()
	}
	s.wg.Wait()
}

func (s *Syncer) poll(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("poll failed", zap.Error(err))
			}
		}
	}
}

// Tick runs one reconciliation against the full remote list.
func (s *Syncer) Tick(ctx context.Context) error {
	s.mu.Lock()
	at := s.beginFetch()
	s.mu.Unlock()

	remote, err := s.source.ListMessages(ctx, s.sessionID, 0)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	changed := s.reconcile(remote, at)
	s.mu.Unlock()

	if changed {
		s.notify()
	}
	return nil
}

// beginFetch numbers a remote list request. Caller holds mu.
func (s *Syncer) beginFetch() uint64 {
	s.fetch++
	return s.fetch
}

// reconcile merges the snapshot of fetch number at. Held rows missing from
// it are dropped unless they were merged from a send or push after that
// fetch began. Tombstones are released once a later snapshot no longer
// carries their row. Caller holds mu.
func (s *Syncer) reconcile(remote []wizzmo.Message, at uint64) bool {
	if at < s.applied {
		return false
	}
	s.applied = at

	changed := false
	seen := make(map[uuid.UUID]struct{}, len(remote))
	for i := range remote {
		seen[remote[i].Id] = struct{}{}
		if s.upsert(remote[i]) {
			changed = true
		}
	}

	kept := s.list[:0]
	for _, m := range s.list {
		if _, ok := seen[m.Id]; ok {
			delete(s.fresh, m.Id)
			kept = append(kept, m)
			continue
		}
		if since, ok := s.fresh[m.Id]; ok && since >= at {
			kept = append(kept, m)
			continue
		}
		delete(s.fresh, m.Id)
		changed = true
	}
	s.list = kept

	for id, since := range s.excluded {
		if _, ok := seen[id]; !ok && at > since {
			delete(s.excluded, id)
		}
	}
	return changed
}

// upsert applies m when it is new or strictly newer. Caller holds mu.
func (s *Syncer) upsert(m wizzmo.Message) bool {
	if m.SessionId != uuid.Nil && m.SessionId != s.sessionID {
		return false
	}
	if _, ok := s.excluded[m.Id]; ok {
		return false
	}
	if m.DeletedAt != nil {
		return s.tombstone(m.Id)
	}

	if i := s.indexOf(m.Id); i >= 0 {
		if m.Version <= s.list[i].Version {
			return false
		}
		s.list[i] = m
		s.sort()
		return true
	}
	s.list = append(s.list, m)
	s.sort()
	return true
}

// merge applies a row that did not come from a snapshot and marks it fresh
// so snapshots already in flight do not drop it. Caller holds mu.
func (s *Syncer) merge(m wizzmo.Message) bool {
	changed := s.upsert(m)
	if changed && s.indexOf(m.Id) >= 0 {
		s.fresh[m.Id] = s.fetch
	}
	return changed
}

// tombstone removes id and keeps stale snapshots from bringing it back.
// Caller holds mu.
func (s *Syncer) tombstone(id uuid.UUID) bool {
	s.excluded[id] = s.fetch
	delete(s.fresh, id)
	return s.remove(id)
}

func (s *Syncer) remove(id uuid.UUID) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.list = slices.Delete(s.list, i, i+1)
	return true
}

func (s *Syncer) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(s.list, func(m wizzmo.Message) bool { return m.Id == id })
}

func (s *Syncer) sort() {
	slices.SortStableFunc(s.list, func(a, b wizzmo.Message) int {
		if c := cmp.Compare(a.Seq, b.Seq); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

// applyChange handles one pushed "messages" row change.
func (s *Syncer) applyChange(change events.RowChange) {
	var m wizzmo.Message
	if err := change.Decode(&m); err != nil {
		s.logger.Warn("undecodable message change", zap.Error(err))
		return
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	var changed bool
	switch change.Type {
	case events.ChangeDelete:
		changed = s.tombstone(m.Id)
	default:
		changed = s.merge(m)
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// apply merges a row returned by one of our own calls.
func (s *Syncer) apply(m *wizzmo.Message) {
	if m == nil {
		return
	}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	changed := s.merge(*m)
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// Messages returns a snapshot ordered by seq.
func (s *Syncer) Messages() []wizzmo.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.list)
}

// OnChange registers fn to receive a snapshot after every merge that
// changed the list.
func (s *Syncer) OnChange(fn func([]wizzmo.Message)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Syncer) notify() {
	s.mu.Lock()
	snapshot := slices.Clone(s.list)
	fns := make([]func([]wizzmo.Message), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

// Send posts a text message and appends the stored row once the server
// acknowledges it. On failure the text comes back in a *SendError.
func (s *Syncer) Send(ctx context.Context, text string, replyTo *uuid.UUID) (*wizzmo.Message, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyMessage
	}
	m, err := s.source.SendMessage(ctx, s.sessionID, trimmed, replyTo)
	if err != nil {
		return nil, &SendError{Text: text, Err: err}
	}
	s.apply(m)
	return m, nil
}

// SendMedia follows the same policy as Send.
func (s *Syncer) SendMedia(ctx context.Context, in wizzmo.MediaUpload) (*wizzmo.Message, error) {
	m, err := s.source.SendMedia(ctx, s.sessionID, in)
	if err != nil {
		return nil, &SendError{Text: in.Caption, Err: err}
	}
	s.apply(m)
	return m, nil
}

// Unsend removes a message locally at once and then remotely. Messages older
// than UnsendWindow are refused without a network call. If the remote delete
// fails the message is restored from a fresh fetch and the error returned.
func (s *Syncer) Unsend(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrUnknownMessage
	}
	if s.now().Sub(s.list[i].CreatedAt) > UnsendWindow {
		s.mu.Unlock()
		return ErrUnsendWindowExpired
	}
	s.tombstone(id)
	s.mu.Unlock()
	s.notify()

	if err := s.source.UnsendMessage(ctx, id); err != nil {
		s.mu.Lock()
		delete(s.excluded, id)
		s.mu.Unlock()
		if terr := s.Tick(ctx); terr != nil {
			s.logger.Warn("restore after failed unsend", zap.Error(terr))
		}
		return fmt.Errorf("unsend: %w", err)
	}
	return nil
}

// React toggles emoji on a message.
func (s *Syncer) React(ctx context.Context, id uuid.UUID, emoji string) (*wizzmo.Message, error) {
	m, err := s.source.ToggleReaction(ctx, id, emoji)
	if err != nil {
		return nil, err
	}
	s.apply(m)
	return m, nil
}

// MarkRead flags the other participant's messages as read. The flags arrive
// through the next poll or push.
func (s *Syncer) MarkRead(ctx context.Context) (int, error) {
	res, err := s.source.MarkRead(ctx, s.sessionID)
	if err != nil {
		return 0, err
	}
	return res.Updated, nil
}
