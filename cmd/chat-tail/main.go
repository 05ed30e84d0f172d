// chat-tail follows one advice session in the terminal. Lines typed on stdin
// are sent as messages; /unsend <seq>, /react <seq> <emoji>, /read,
// /refresh and /quit are commands.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"wizzmo-be/pkg/appstate"
	"wizzmo-be/pkg/chatsync"
	"wizzmo-be/pkg/wizzmo"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func defaultPrefsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wizzmo/prefs.yaml"
	}
	return filepath.Join(home, ".wizzmo", "prefs.yaml")
}

func main() {
	_ = godotenv.Load()

	apiURL := flag.String("api", getEnv("WIZZMO_API_URL", "http://localhost:3000/api"), "API base URL")
	prefsPath := flag.String("prefs", getEnv("WIZZMO_PREFS", defaultPrefsPath()), "preferences file")
	email := flag.String("email", getEnv("WIZZMO_EMAIL", ""), "sign in with this email")
	password := flag.String("password", getEnv("WIZZMO_PASSWORD", ""), "password for -email")
	sessionFlag := flag.String("session", "", "advice session id")
	verbose := flag.Bool("v", false, "log requests")
	flag.Parse()

	sessionID, err := uuid.Parse(*sessionFlag)
	if err != nil {
		log.Fatalf("invalid -session %q: %v", *sessionFlag, err)
	}

	logger := zap.NewNop()
	if *verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			log.Fatal(err)
		}
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := wizzmo.New(*apiURL, wizzmo.WithLogger(logger))
	store := appstate.NewStore(client, appstate.NewFilePreferences(*prefsPath), logger)

	if err := store.Restore(ctx); err != nil {
		log.Fatalf("restore session: %v", err)
	}
	if !store.State().SignedIn() {
		if *email == "" {
			log.Fatal("not signed in: pass -email and -password")
		}
		if err := store.SignIn(ctx, *email, *password); err != nil {
			log.Fatalf("sign in: %v", err)
		}
	}
	me := store.State().Session.UserID

	session, err := client.GetSession(ctx, sessionID)
	if err != nil {
		log.Fatalf("open session: %v", err)
	}
	color.Cyan("%s  [%s]", session.QuestionTitle, session.Status)

	syncer := chatsync.New(sessionID, client, chatsync.WithLogger(logger))
	view := newThreadView(me)
	syncer.OnChange(view.render)
	if err := syncer.Start(ctx); err != nil {
		log.Fatalf("load messages: %v", err)
	}
	defer syncer.Stop()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := handleLine(ctx, syncer, line); quit {
				return
			}
		}
	}
}

func handleLine(ctx context.Context, s *chatsync.Syncer, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "/quit":
		return true
	case "/refresh":
		if err := s.Tick(ctx); err != nil {
			color.Red("refresh: %v", err)
		}
	case "/read":
		n, err := s.MarkRead(ctx)
		if err != nil {
			color.Red("read: %v", err)
			return false
		}
		color.White("marked %d read", n)
	case "/unsend":
		m, ok := bySeq(s, fields)
		if !ok {
			return false
		}
		switch err := s.Unsend(ctx, m.Id); {
		case errors.Is(err, chatsync.ErrUnsendWindowExpired):
			color.Yellow("too late: messages can only be unsent within 5 minutes")
		case err != nil:
			color.Red("unsend: %v", err)
		}
	case "/react":
		m, ok := bySeq(s, fields)
		if !ok || len(fields) < 3 {
			color.Yellow("usage: /react <seq> <emoji>")
			return false
		}
		if _, err := s.React(ctx, m.Id, fields[2]); err != nil {
			color.Red("react: %v", err)
		}
	default:
		if _, err := s.Send(ctx, line, nil); err != nil {
			var sendErr *chatsync.SendError
			if errors.As(err, &sendErr) {
				color.Red("not sent (%v): %s", sendErr.Err, sendErr.Text)
				return false
			}
			color.Red("send: %v", err)
		}
	}
	return false
}

func bySeq(s *chatsync.Syncer, fields []string) (wizzmo.Message, bool) {
	if len(fields) < 2 {
		color.Yellow("usage: %s <seq>", fields[0])
		return wizzmo.Message{}, false
	}
	seq, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		color.Yellow("bad seq %q", fields[1])
		return wizzmo.Message{}, false
	}
	for _, m := range s.Messages() {
		if m.Seq == seq {
			return m, true
		}
	}
	color.Yellow("no message #%d", seq)
	return wizzmo.Message{}, false
}

// threadView prints only what changed since the last render.
type threadView struct {
	me uuid.UUID

	mu      sync.Mutex
	printed map[uuid.UUID]int64 // id -> version
	seqs    map[uuid.UUID]int64
}

func newThreadView(me uuid.UUID) *threadView {
	return &threadView{me: me, printed: make(map[uuid.UUID]int64), seqs: make(map[uuid.UUID]int64)}
}

func (v *threadView) render(msgs []wizzmo.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	present := make(map[uuid.UUID]struct{}, len(msgs))
	for _, m := range msgs {
		present[m.Id] = struct{}{}
		version, seen := v.printed[m.Id]
		if seen && version >= m.Version {
			continue
		}
		v.printed[m.Id] = m.Version
		v.seqs[m.Id] = m.Seq
		fmt.Println(format(m, v.me, seen))
	}

	for id, seq := range v.seqs {
		if _, ok := present[id]; !ok {
			color.Red("  #%d unsent", seq)
			delete(v.seqs, id)
			delete(v.printed, id)
		}
	}
}

func format(m wizzmo.Message, me uuid.UUID, update bool) string {
	who := color.CyanString("them")
	if m.SenderId == me {
		who = color.GreenString("me")
	}

	body := m.Text()
	switch {
	case m.AudioURL != nil:
		dur := 0
		if m.AudioDuration != nil {
			dur = *m.AudioDuration
		}
		body = fmt.Sprintf("[voice %ds] %s", dur, *m.AudioURL)
	case m.ImageURL != nil:
		body = strings.TrimSpace("[image] " + *m.ImageURL + " " + body)
	}

	var tags []string
	if update {
		tags = append(tags, "updated")
	}
	if m.EditedAt != nil {
		tags = append(tags, "edited")
	}
	if m.IsRead {
		tags = append(tags, "read")
	}
	for _, r := range m.Reactions {
		tags = append(tags, r.Emoji)
	}

	line := fmt.Sprintf("#%-4d %s %s %s", m.Seq, m.CreatedAt.Local().Format("15:04"), who, body)
	if len(tags) > 0 {
		line += color.HiBlackString(" (%s)", strings.Join(tags, ", "))
	}
	return line
}
