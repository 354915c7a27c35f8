package overlay

import (
	"fmt"
	"sync"
	"testing"

	"overlayshell/internal/testutils"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []string
	last   State
}

func (r *recordingEmitter) Emit(event string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	if st, ok := data.(State); ok {
		r.last = st
	}
}

func TestNewStore_Defaults(t *testing.T) {
	st := NewStore(&testutils.RecordingLogger{}).Snapshot()

	if st.Connected {
		t.Error("new store should be disconnected")
	}
	if st.ProfileName != DefaultProfileName {
		t.Errorf("ProfileName = %q, want %q", st.ProfileName, DefaultProfileName)
	}
	if st.Transcript == nil || st.Suggestions == nil {
		t.Error("lists should be empty, not nil, so the frontend sees []")
	}
}

func TestStore_EmitsOnMutation(t *testing.T) {
	store := NewStore(&testutils.RecordingLogger{})
	emitter := &recordingEmitter{}
	store.SetEmitter(emitter)

	store.SetConnected(true)
	if err := store.SetProfileName("  Enterprise  "); err != nil {
		t.Fatal(err)
	}

	if len(emitter.events) != 2 || emitter.events[0] != StateEvent {
		t.Fatalf("events = %v", emitter.events)
	}
	if !emitter.last.Connected || emitter.last.ProfileName != "Enterprise" {
		t.Errorf("last emitted state = %+v", emitter.last)
	}

	if err := store.SetProfileName(" "); err == nil {
		t.Error("empty profile name should be rejected")
	}
	if len(emitter.events) != 2 {
		t.Error("rejected mutations should not emit")
	}
}

func TestStore_NoEmitterLogsDebug(t *testing.T) {
	logger := &testutils.RecordingLogger{}
	store := NewStore(logger)
	store.SetConnected(true)

	if _, ok := logger.Find("DEBUG", "Overlay state changed with no frontend attached"); !ok {
		t.Error("mutation without an emitter should be logged")
	}
}

func TestPushTranscript_KeepsMostRecent(t *testing.T) {
	store := NewStore(&testutils.RecordingLogger{})

	for i := 0; i < MaxTranscriptItems+25; i++ {
		if _, err := store.PushTranscript(TranscriptItem{Speaker: SpeakerOther, Text: fmt.Sprintf("line %d", i)}); err != nil {
			t.Fatal(err)
		}
	}

	st := store.Snapshot()
	if len(st.Transcript) != MaxTranscriptItems {
		t.Fatalf("transcript length = %d, want %d", len(st.Transcript), MaxTranscriptItems)
	}
	if st.Transcript[0].Text != "line 25" {
		t.Errorf("oldest kept line = %q, want line 25", st.Transcript[0].Text)
	}
	if last := st.Transcript[len(st.Transcript)-1]; last.Text != fmt.Sprintf("line %d", MaxTranscriptItems+24) {
		t.Errorf("newest line = %q", last.Text)
	}
}

func TestPushTranscript_Validation(t *testing.T) {
	store := NewStore(&testutils.RecordingLogger{})

	tests := []struct {
		name string
		item TranscriptItem
	}{
		{"unknown speaker", TranscriptItem{Speaker: "narrator", Text: "hi"}},
		{"empty text", TranscriptItem{Speaker: SpeakerYou, Text: "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.PushTranscript(tt.item); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	item, err := store.PushTranscript(TranscriptItem{Speaker: SpeakerYou, Text: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if item.ID == "" {
		t.Error("an id should be assigned when missing")
	}

	kept, _ := store.PushTranscript(TranscriptItem{ID: "fixed", Speaker: SpeakerYou, Text: "again"})
	if kept.ID != "fixed" {
		t.Errorf("caller id replaced: %q", kept.ID)
	}
}

func TestPushSuggestion_NewestFirst(t *testing.T) {
	store := NewStore(&testutils.RecordingLogger{})

	for i := 0; i < MaxSuggestions+3; i++ {
		if _, err := store.PushSuggestion(Suggestion{ID: fmt.Sprint(i), Text: fmt.Sprintf("say %d", i)}); err != nil {
			t.Fatal(err)
		}
	}

	st := store.Snapshot()
	if len(st.Suggestions) != MaxSuggestions {
		t.Fatalf("suggestions length = %d, want %d", len(st.Suggestions), MaxSuggestions)
	}
	if st.Suggestions[0].ID != fmt.Sprint(MaxSuggestions+2) {
		t.Errorf("first suggestion = %q, want the newest", st.Suggestions[0].ID)
	}
	if st.Suggestions[MaxSuggestions-1].ID != "3" {
		t.Errorf("last suggestion = %q, want 3", st.Suggestions[MaxSuggestions-1].ID)
	}

	latest, ok := store.Latest()
	if !ok || latest.ID != st.Suggestions[0].ID {
		t.Errorf("Latest = %+v", latest)
	}
	if _, ok := store.Suggestion("0"); ok {
		t.Error("evicted suggestion should not be found")
	}

	if _, err := store.PushSuggestion(Suggestion{Text: ""}); err == nil {
		t.Error("empty suggestion should be rejected")
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	store := NewStore(&testutils.RecordingLogger{})
	citations := []string{"doc-1"}
	if _, err := store.PushSuggestion(Suggestion{ID: "a", Text: "offer a pilot", Citations: citations}); err != nil {
		t.Fatal(err)
	}
	citations[0] = "mutated"

	st := store.Snapshot()
	st.Suggestions[0].Citations[0] = "changed"
	st.Suggestions[0].Text = "changed"

	again := store.Snapshot()
	if again.Suggestions[0].Text != "offer a pilot" || again.Suggestions[0].Citations[0] != "doc-1" {
		t.Errorf("store state leaked through a snapshot: %+v", again.Suggestions[0])
	}
}

func TestStore_Reset(t *testing.T) {
	store := NewStore(&testutils.RecordingLogger{})
	store.SetProfileName("Sales")
	store.PushTranscript(TranscriptItem{Speaker: SpeakerOther, Text: "hello"})
	store.PushSuggestion(Suggestion{Text: "ask about budget"})

	store.Reset()
	st := store.Snapshot()
	if len(st.Transcript) != 0 || len(st.Suggestions) != 0 {
		t.Errorf("Reset left %d lines and %d suggestions", len(st.Transcript), len(st.Suggestions))
	}
	if st.ProfileName != "Sales" {
		t.Error("Reset should keep the profile")
	}
}

func TestStore_ConcurrentUse(t *testing.T) {
	store := NewStore(&testutils.RecordingLogger{})
	store.SetEmitter(EmitterFunc(func(string, interface{}) {}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				store.PushTranscript(TranscriptItem{Speaker: SpeakerYou, Text: fmt.Sprintf("%d-%d", n, j)})
				store.PushSuggestion(Suggestion{Text: "s"})
				_ = store.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	st := store.Snapshot()
	if len(st.Transcript) != MaxTranscriptItems || len(st.Suggestions) != MaxSuggestions {
		t.Errorf("unexpected sizes: %d lines, %d suggestions", len(st.Transcript), len(st.Suggestions))
	}
}
