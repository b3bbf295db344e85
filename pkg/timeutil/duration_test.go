package timeutil

import (
	"testing"
	"time"
)

func TestParseIntervalDefault(t *testing.T) {
	dur, label, err := ParseInterval("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 2 * time.Minute
	if dur != want {
		t.Fatalf("expected %v, got %v", want, dur)
	}
	if label != "2m" {
		t.Fatalf("expected label 2m, got %s", label)
	}
}

func TestParseIntervalComposite(t *testing.T) {
	dur, label, err := ParseInterval("1h30m15s")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Hour + 30*time.Minute + 15*time.Second
	if dur != want {
		t.Fatalf("expected %v, got %v", want, dur)
	}
	if label != "1h30m15s" {
		t.Fatalf("unexpected label: %s", label)
	}
}

func TestParseIntervalInvalid(t *testing.T) {
	if _, _, err := ParseInterval("noop"); err == nil {
		t.Fatalf("expected error for invalid interval")
	}
}

func TestParseIntervalTooShort(t *testing.T) {
	if _, _, err := ParseInterval("5s"); err == nil {
		t.Fatalf("expected error for sub-10s interval")
	}
}
