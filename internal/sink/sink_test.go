package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/westquant/pulse/internal/core"
)

func testSignals() []core.Signal {
	return []core.Signal{
		{
			ID: "a", Symbol: "BTCUSDT", Side: core.SideBuy, Price: 100,
			Confidence: 0.8, Strength: core.StrengthStrong,
			Reason: "r1", Generator: "trend", Timestamp: time.Now().UTC(),
		},
		{
			ID: "b", Symbol: "ETHUSDT", Side: core.SideSell, Price: 50,
			Confidence: 0.6, Strength: core.StrengthModerate,
			Reason: "r2", Generator: "technical", Timestamp: time.Now().UTC(),
		},
	}
}

func TestLogSink(t *testing.T) {
	s := NewLogSink(nil)
	if s.Name() != "log" {
		t.Errorf("Name() = %s", s.Name())
	}
	if err := s.Emit(context.Background(), testSignals()); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestJSONLSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "signals.jsonl")

	s, err := NewJSONLSink(path)
	if err != nil {
		t.Fatalf("NewJSONLSink: %v", err)
	}
	if err := s.Emit(context.Background(), testSignals()); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var got []core.Signal
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var sig core.Signal
		if err := json.Unmarshal(scanner.Bytes(), &sig); err != nil {
			t.Fatalf("line is not valid JSON: %v", err)
		}
		got = append(got, sig)
	}

	if len(got) != 2 {
		t.Fatalf("read %d signals, want 2", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("signals out of order: %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].Side != core.SideBuy || got[0].Price != 100 {
		t.Errorf("round trip mangled signal: %+v", got[0])
	}
}

func TestJSONLSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.jsonl")

	for i := 0; i < 2; i++ {
		s, err := NewJSONLSink(path)
		if err != nil {
			t.Fatalf("NewJSONLSink: %v", err)
		}
		if err := s.Emit(context.Background(), testSignals()[:1]); err != nil {
			t.Fatalf("Emit: %v", err)
		}
		s.Close()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Fatalf("file has %d lines, want 2", lines)
	}
}
