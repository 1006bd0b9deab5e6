package model

import (
	"encoding/json"
	"testing"
)

func TestLoopModeCycleOrder(t *testing.T) {
	cases := []struct {
		from, to LoopMode
	}{
		{LoopOff, LoopPlaylist},
		{LoopPlaylist, LoopTrack},
		{LoopTrack, LoopOff},
	}

	for _, c := range cases {
		if got := c.from.Cycle(); got != c.to {
			t.Errorf("Cycle from %s: expected %s, got %s", c.from, c.to, got)
		}
	}
}

func TestLoopModeJSONNames(t *testing.T) {
	cases := []struct {
		mode LoopMode
		wire string
	}{
		{LoopOff, `"off"`},
		{LoopPlaylist, `"playlist"`},
		{LoopTrack, `"single"`},
	}

	for _, c := range cases {
		data, err := json.Marshal(c.mode)
		if err != nil {
			t.Fatalf("marshal %s: %v", c.mode, err)
		}
		if string(data) != c.wire {
			t.Errorf("marshal %s: expected %s, got %s", c.mode, c.wire, data)
		}

		var back LoopMode
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if back != c.mode {
			t.Errorf("round trip %s: got %s", c.mode, back)
		}
	}
}

func TestLoopModeUnmarshalRejectsUnknownName(t *testing.T) {
	var m LoopMode
	if err := json.Unmarshal([]byte(`"bounce"`), &m); err == nil {
		t.Error("expected error for unknown loop mode name")
	}
}

func TestClampUnit(t *testing.T) {
	cases := []struct {
		in, out float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.4, 0.4},
		{1, 1},
		{1.7, 1},
	}

	for _, c := range cases {
		if got := ClampUnit(c.in); got != c.out {
			t.Errorf("ClampUnit(%v): expected %v, got %v", c.in, c.out, got)
		}
	}
}
