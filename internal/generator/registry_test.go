package generator

import (
	"fmt"
	"testing"
	"time"

	"github.com/westquant/pulse/internal/core"
)

// stubGenerator is a scripted generator for registry tests.
type stubGenerator struct {
	name   string
	sigs   []core.Signal
	err    error
	panics bool
	calls  int
}

func (s *stubGenerator) Name() string          { return s.name }
func (s *stubGenerator) Description() string   { return "stub" }
func (s *stubGenerator) Init(cfg Config) error { return nil }
func (s *stubGenerator) Generate(md core.MarketData) ([]core.Signal, error) {
	s.calls++
	if s.panics {
		panic("boom")
	}
	return s.sigs, s.err
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(&stubGenerator{name: "a"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&stubGenerator{name: "a"}); err == nil {
		t.Fatal("duplicate registration accepted")
	}
	if err := r.Register(&stubGenerator{name: ""}); err == nil {
		t.Fatal("empty name accepted")
	}
	if err := r.Register(nil); err == nil {
		t.Fatal("nil generator accepted")
	}

	if _, ok := r.Get("a"); !ok {
		t.Error("Get(a) not found")
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) found")
	}
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry(nil)
	for _, name := range []string{"technical", "trend", "breakout"} {
		if err := r.Register(&stubGenerator{name: name}); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}

	names := r.Names()
	want := []string{"technical", "trend", "breakout"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", names, want)
		}
	}
	if got := len(r.GetAll()); got != 3 {
		t.Fatalf("GetAll() length = %d, want 3", got)
	}
}

func TestRegistryFailureIsolation(t *testing.T) {
	good := &stubGenerator{name: "good", sigs: []core.Signal{{
		ID: "1", Symbol: "BTCUSDT", Side: core.SideBuy, Price: 100,
		Confidence: 0.6, Reason: "ok", Generator: "good",
	}}}
	failing := &stubGenerator{name: "failing", err: fmt.Errorf("feed unavailable")}
	panicking := &stubGenerator{name: "panicking", panics: true}

	r := NewRegistry(nil)
	for _, g := range []Generator{failing, panicking, good} {
		if err := r.Register(g); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	md := mkMarketData("BTCUSDT", time.Now(), []float64{100})
	sigs := r.Generate(md)
	if len(sigs) != 1 || sigs[0].Generator != "good" {
		t.Fatalf("Generate = %v, want only the healthy generator's signal", sigs)
	}
	if good.calls != 1 || failing.calls != 1 || panicking.calls != 1 {
		t.Errorf("calls = %d/%d/%d, want every generator invoked once",
			good.calls, failing.calls, panicking.calls)
	}
}

func TestRegistryFailureHook(t *testing.T) {
	failing := &stubGenerator{name: "failing", err: fmt.Errorf("feed unavailable")}
	panicking := &stubGenerator{name: "panicking", panics: true}
	good := &stubGenerator{name: "good"}

	r := NewRegistry(nil)
	for _, g := range []Generator{failing, panicking, good} {
		if err := r.Register(g); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	failures := make(map[string]int)
	r.OnFailure(func(name string) { failures[name]++ })

	r.Generate(mkMarketData("BTCUSDT", time.Now(), []float64{100}))
	if failures["failing"] != 1 || failures["panicking"] != 1 {
		t.Errorf("failure hook calls = %v, want one per broken generator", failures)
	}
	if failures["good"] != 0 {
		t.Errorf("failure hook fired for a healthy generator: %v", failures)
	}
}

func TestRegistryGenerateNamed(t *testing.T) {
	a := &stubGenerator{name: "a", sigs: []core.Signal{{ID: "1", Generator: "a"}}}
	b := &stubGenerator{name: "b", sigs: []core.Signal{{ID: "2", Generator: "b"}}}

	r := NewRegistry(nil)
	r.Register(a)
	r.Register(b)

	md := mkMarketData("BTCUSDT", time.Now(), []float64{100})
	sigs := r.GenerateNamed(md, []string{"b", "missing"})
	if len(sigs) != 1 || sigs[0].Generator != "b" {
		t.Fatalf("GenerateNamed = %v, want only b's signal", sigs)
	}
	if a.calls != 0 {
		t.Errorf("excluded generator invoked %d times", a.calls)
	}

	// Empty name list runs everything.
	if sigs := r.GenerateNamed(md, nil); len(sigs) != 2 {
		t.Fatalf("GenerateNamed(nil) returned %d signals, want 2", len(sigs))
	}
}

func TestRegistryGenerateBatch(t *testing.T) {
	emitted := &stubGenerator{name: "g", sigs: []core.Signal{{
		ID: "1", Symbol: "X", Side: core.SideSell, Price: 10,
		Confidence: 0.5, Reason: "r", Generator: "g",
	}}}

	r := NewRegistry(nil)
	if err := r.Register(emitted); err != nil {
		t.Fatalf("Register: %v", err)
	}

	batch := []core.MarketData{
		mkMarketData("BTCUSDT", time.Now(), []float64{100}),
		mkMarketData("ETHUSDT", time.Now(), []float64{50}),
	}
	sigs := r.GenerateBatch(batch)
	if len(sigs) != 2 {
		t.Fatalf("GenerateBatch returned %d signals, want 2", len(sigs))
	}
	if emitted.calls != 2 {
		t.Errorf("generator invoked %d times, want 2", emitted.calls)
	}
}
