// Package overlay holds the session state rendered by the overlay window:
// connection status, the active profile, the running transcript and the
// "speak next" suggestions.
package overlay

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"overlayshell/internal/infrastructure/logging"
)

// StateEvent is emitted to the frontend after every mutation
const StateEvent = "overlay:state"

const (
	DefaultProfileName = "Default"
	MaxTranscriptItems = 200
	MaxSuggestions     = 10
)

// Speaker identifies who said a transcript line
type Speaker string

const (
	SpeakerYou   Speaker = "you"
	SpeakerOther Speaker = "other"
)

func (s Speaker) valid() bool {
	return s == SpeakerYou || s == SpeakerOther
}

type TranscriptItem struct {
	ID      string  `json:"id"`
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

type Suggestion struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Citations []string `json:"citations,omitempty"`
}

// State is a point-in-time copy of the store
type State struct {
	Connected   bool             `json:"connected"`
	ProfileName string           `json:"profileName"`
	Transcript  []TranscriptItem `json:"transcript"`
	Suggestions []Suggestion     `json:"suggestions"` // newest first
}

// Emitter pushes events to the frontend
type Emitter interface {
	Emit(event string, data interface{})
}

// EmitterFunc adapts a function to Emitter
type EmitterFunc func(event string, data interface{})

func (f EmitterFunc) Emit(event string, data interface{}) { f(event, data) }

// Store is the overlay session state. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	state   State
	emitter Emitter
	logger  logging.Logger
}

// NewStore creates an empty, disconnected store
func NewStore(logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Store{
		state: State{
			ProfileName: DefaultProfileName,
			Transcript:  []TranscriptItem{},
			Suggestions: []Suggestion{},
		},
		logger: logger,
	}
}

// SetEmitter connects the store to the frontend. A nil emitter disconnects it.
func (s *Store) SetEmitter(e Emitter) {
	s.mu.Lock()
	s.emitter = e
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

func (s *Store) SetConnected(connected bool) {
	s.update(func(st *State) error {
		st.Connected = connected
		return nil
	})
}

func (s *Store) SetProfileName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("profile name cannot be empty")
	}
	return s.update(func(st *State) error {
		st.ProfileName = name
		return nil
	})
}

// PushTranscript appends a line, keeping the most recent MaxTranscriptItems
func (s *Store) PushTranscript(item TranscriptItem) (TranscriptItem, error) {
	if !item.Speaker.valid() {
		return TranscriptItem{}, fmt.Errorf("unknown speaker %q", item.Speaker)
	}
	if strings.TrimSpace(item.Text) == "" {
		return TranscriptItem{}, fmt.Errorf("transcript text cannot be empty")
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	err := s.update(func(st *State) error {
		st.Transcript = append(st.Transcript, item)
		if over := len(st.Transcript) - MaxTranscriptItems; over > 0 {
			st.Transcript = append([]TranscriptItem(nil), st.Transcript[over:]...)
		}
		return nil
	})
	return item, err
}

// PushSuggestion puts a suggestion first, keeping the newest MaxSuggestions
func (s *Store) PushSuggestion(item Suggestion) (Suggestion, error) {
	if strings.TrimSpace(item.Text) == "" {
		return Suggestion{}, fmt.Errorf("suggestion text cannot be empty")
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.Citations = append([]string(nil), item.Citations...)

	err := s.update(func(st *State) error {
		next := make([]Suggestion, 0, MaxSuggestions)
		next = append(next, item)
		for _, existing := range st.Suggestions {
			if len(next) == MaxSuggestions {
				break
			}
			next = append(next, existing)
		}
		st.Suggestions = next
		return nil
	})
	return item, err
}

// Latest returns the newest suggestion
func (s *Store) Latest() (Suggestion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.state.Suggestions) == 0 {
		return Suggestion{}, false
	}
	return s.state.Suggestions[0], true
}

// Suggestion returns the suggestion with id
func (s *Store) Suggestion(id string) (Suggestion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sg := range s.state.Suggestions {
		if sg.ID == id {
			return sg, true
		}
	}
	return Suggestion{}, false
}

// Reset clears the transcript and suggestions, keeping the profile
func (s *Store) Reset() {
	s.update(func(st *State) error {
		st.Transcript = []TranscriptItem{}
		st.Suggestions = []Suggestion{}
		return nil
	})
}

func (s *Store) update(fn func(*State) error) error {
	s.mu.Lock()
	if err := fn(&s.state); err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := s.copyLocked()
	emitter := s.emitter
	s.mu.Unlock()

	if emitter != nil {
		emitter.Emit(StateEvent, snapshot)
	} else {
		s.logger.Debug("Overlay state changed with no frontend attached")
	}
	return nil
}

func (s *Store) copyLocked() State {
	out := State{
		Connected:   s.state.Connected,
		ProfileName: s.state.ProfileName,
		Transcript:  append([]TranscriptItem{}, s.state.Transcript...),
		Suggestions: make([]Suggestion, len(s.state.Suggestions)),
	}
	for i, sg := range s.state.Suggestions {
		sg.Citations = append([]string(nil), sg.Citations...)
		out.Suggestions[i] = sg
	}
	return out
}
