package drivelink

import "testing"

func TestResolveKnownModes(t *testing.T) {
	tests := []struct {
		mode Mode
		want DriveCommand
	}{
		{ModeStationary, DriveCommand{0, 0, 0}},
		{ModeForward, DriveCommand{1, 0, 0}},
		{ModeTurnCW, DriveCommand{0, 1, 0}},
		{ModeBackward, DriveCommand{-1, 0, 0}},
		{ModeTurnCCW, DriveCommand{0, -1, 0}},
		{ModeWinchIn, DriveCommand{0, 0, 1}},
		{ModeWinchOut, DriveCommand{0, 0, -1}},
	}
	prev := DriveCommand{Forward: 0.42}
	for _, tt := range tests {
		got, known := Resolve(tt.mode, prev)
		if !known {
			t.Errorf("Resolve(%v) reported unknown", tt.mode)
		}
		if got != tt.want {
			t.Errorf("Resolve(%v) = %+v, want %+v", tt.mode, got, tt.want)
		}
	}
}

func TestResolveUnknownModeKeepsPrevious(t *testing.T) {
	prev := DriveCommand{Forward: 1}
	for _, mode := range []Mode{Mode(7), Mode(8), Mode(99), Mode(-1)} {
		got, known := Resolve(mode, prev)
		if known {
			t.Errorf("Resolve(%v) reported known", mode)
		}
		if got != prev {
			t.Errorf("Resolve(%v) = %+v, want previous command back", mode, got)
		}
	}
}

func TestResolveRawOverrideCarriesNoTriple(t *testing.T) {
	prev := DriveCommand{Forward: 0.5}
	got, known := Resolve(ModeRawOverride, prev)
	if known {
		t.Error("raw override must not resolve through the mode table")
	}
	if got != prev {
		t.Errorf("got %+v, want previous command preserved", got)
	}
}
