package appstate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Preferences is the device-local storage behind the store.
type Preferences interface {
	Mode(userID uuid.UUID) (string, bool, error)
	SetMode(userID uuid.UUID, mode string) error
	Session() (*Session, error)
	SaveSession(s *Session) error
	ClearSession() error
}

type MemoryPreferences struct {
	mu      sync.Mutex
	modes   map[uuid.UUID]string
	session *Session
}

func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{modes: make(map[uuid.UUID]string)}
}

func (p *MemoryPreferences) Mode(userID uuid.UUID) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.modes[userID]
	return m, ok, nil
}

func (p *MemoryPreferences) SetMode(userID uuid.UUID, mode string) error {
	p.mu.Lock()
	p.modes[userID] = mode
	p.mu.Unlock()
	return nil
}

func (p *MemoryPreferences) Session() (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil, nil
	}
	cp := *p.session
	return &cp, nil
}

func (p *MemoryPreferences) SaveSession(s *Session) error {
	p.mu.Lock()
	cp := *s
	p.session = &cp
	p.mu.Unlock()
	return nil
}

func (p *MemoryPreferences) ClearSession() error {
	p.mu.Lock()
	p.session = nil
	p.mu.Unlock()
	return nil
}

type prefsFile struct {
	Session *Session          `yaml:"session,omitempty"`
	Modes   map[string]string `yaml:"modes,omitempty"`
}

// FilePreferences keeps preferences in a YAML file, rewritten on every change.
type FilePreferences struct {
	mu   sync.Mutex
	path string
}

func NewFilePreferences(path string) *FilePreferences {
	return &FilePreferences{path: path}
}

func (p *FilePreferences) load() (*prefsFile, error) {
	raw, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &prefsFile{Modes: map[string]string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	var f prefsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse preferences %s: %w", p.path, err)
	}
	if f.Modes == nil {
		f.Modes = map[string]string{}
	}
	return &f, nil
}

func (p *FilePreferences) save(f *prefsFile) error {
	raw, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return err
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, p.path)
}

func (p *FilePreferences) update(fn func(*prefsFile)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, err := p.load()
	if err != nil {
		return err
	}
	fn(f)
	return p.save(f)
}

func (p *FilePreferences) Mode(userID uuid.UUID) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, err := p.load()
	if err != nil {
		return "", false, err
	}
	m, ok := f.Modes[userID.String()]
	return m, ok, nil
}

func (p *FilePreferences) SetMode(userID uuid.UUID, mode string) error {
	return p.update(func(f *prefsFile) { f.Modes[userID.String()] = mode })
}

func (p *FilePreferences) Session() (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, err := p.load()
	if err != nil {
		return nil, err
	}
	return f.Session, nil
}

func (p *FilePreferences) SaveSession(s *Session) error {
	cp := *s
	return p.update(func(f *prefsFile) { f.Session = &cp })
}

func (p *FilePreferences) ClearSession() error {
	return p.update(func(f *prefsFile) { f.Session = nil })
}
