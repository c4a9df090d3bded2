package playback

import "testing"

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "Idle"},
		{StateReady, "Ready"},
		{StateLoading, "Loading"},
		{StatePlaying, "Playing"},
		{StatePaused, "Paused"},
		{StateEnded, "Ended"},
		{StateError, "Error"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestState_IsActive(t *testing.T) {
	active := map[State]bool{StateLoading: true, StatePlaying: true, StatePaused: true}
	for s := StateIdle; s <= StateError; s++ {
		if got := s.IsActive(); got != active[s] {
			t.Errorf("%v.IsActive() = %v, want %v", s, got, active[s])
		}
	}
}

func TestRepeatMode_StoredForm(t *testing.T) {
	for _, m := range []RepeatMode{RepeatOff, RepeatAll, RepeatOne} {
		if got := ParseRepeatMode(m.String()); got != m {
			t.Errorf("ParseRepeatMode(%q) = %v, want %v", m.String(), got, m)
		}
	}
	if got := ParseRepeatMode(" ALL "); got != RepeatAll {
		t.Errorf("ParseRepeatMode(\" ALL \") = %v, want all", got)
	}
	if got := ParseRepeatMode("radio"); got != RepeatOff {
		t.Errorf("ParseRepeatMode(\"radio\") = %v, want off", got)
	}
}

func TestErrorKind_Message(t *testing.T) {
	if ErrorNone.Message() != "" {
		t.Errorf("ErrorNone.Message() = %q, want empty", ErrorNone.Message())
	}
	seen := make(map[string]ErrorKind)
	for _, k := range []ErrorKind{ErrorNotFound, ErrorTimeout, ErrorTransport, ErrorPlaybackFailed} {
		msg := k.Message()
		if msg == "" {
			t.Errorf("%v.Message() is empty", k)
		}
		if other, ok := seen[msg]; ok {
			t.Errorf("%v and %v share message %q", k, other, msg)
		}
		seen[msg] = k
	}
}
