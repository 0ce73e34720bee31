// Package localstate persists client-local device state: the guest-mode flag.
//
// The flag lives in its own small JSON file, keyed apart from any session
// token storage so it can be cleared independently of session state. The
// store watches the file for out-of-process edits (a second app window
// toggling guest mode) and notifies subscribers.
package localstate

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// stateFile is the on-disk name of the device state file.
const stateFile = "device_state.json"

// State is the persisted device state.
type State struct {
	GuestMode bool `json:"guest_mode"`
}

// Store owns the device state file.
type Store struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	state State

	watcher *fsnotify.Watcher
	subsMu  sync.Mutex
	subs    map[int]chan State
	nextSub int

	done      chan struct{}
	closeOnce sync.Once
}

// Open loads device state from dir, creating the directory if needed, and
// begins watching the state file for external changes.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	s := &Store{
		path:   filepath.Join(dir, stateFile),
		logger: logger,
		subs:   make(map[int]chan State),
		done:   make(chan struct{}),
	}

	if err := s.reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory, not the file: editors and atomic writers replace
	// the file, which would silently drop a direct file watch.
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch state dir: %w", err)
	}
	s.watcher = watcher

	go s.watch()

	return s, nil
}

// GuestMode reports whether the guest flag is set.
func (s *Store) GuestMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.GuestMode
}

// SetGuestMode sets or clears the guest flag and persists it.
func (s *Store) SetGuestMode(on bool) error {
	s.mu.Lock()
	if s.state.GuestMode == on {
		s.mu.Unlock()
		return nil
	}
	s.state.GuestMode = on
	state := s.state
	s.mu.Unlock()

	if err := s.persist(state); err != nil {
		return err
	}
	s.notify(state)
	return nil
}

// Subscribe returns a channel receiving state snapshots after each change,
// and a release function. The channel is buffered; a slow consumer misses
// intermediate snapshots, never blocks the store.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	ch := make(chan State, 1)
	key := s.nextSub
	s.nextSub++
	s.subs[key] = ch

	return ch, func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if _, ok := s.subs[key]; ok {
			delete(s.subs, key)
			close(ch)
		}
	}
}

// Close stops the watcher and releases all subscriptions.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.watcher.Close()

		s.subsMu.Lock()
		for key, ch := range s.subs {
			delete(s.subs, key)
			close(ch)
		}
		s.subsMu.Unlock()
	})
	return err
}

// reload reads the state file into memory. A missing file is the zero state.
func (s *Store) reload() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.mu.Lock()
		s.state = State{}
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		// A corrupt flag file must not brick the client. Fall back to the
		// zero state and let the next write repair it.
		if s.logger != nil {
			s.logger.Warn("Corrupt device state file, resetting", "path", s.path, "error", err)
		}
		state = State{}
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return nil
}

// persist writes the state file atomically via a temp file rename.
func (s *Store) persist(state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// watch reloads on external changes to the state file and notifies
// subscribers when the flag actually changed.
func (s *Store) watch() {
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != stateFile {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			before := s.GuestMode()
			if err := s.reload(); err != nil {
				if s.logger != nil {
					s.logger.Warn("Failed to reload device state", "error", err)
				}
				continue
			}

			s.mu.RLock()
			state := s.state
			s.mu.RUnlock()

			if state.GuestMode != before {
				if s.logger != nil {
					s.logger.Debug("Device state changed externally", "guest_mode", state.GuestMode)
				}
				s.notify(state)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			if s.logger != nil {
				s.logger.Warn("Device state watcher error", "error", err)
			}
		}
	}
}

// notify fans a snapshot out to subscribers without blocking.
func (s *Store) notify(state State) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- state:
		default:
			// Drop the stale snapshot; the subscriber will see the latest on
			// its next receive.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- state:
			default:
			}
		}
	}
}
