package generator

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/westquant/pulse/internal/core"
)

// Registry holds the set of active generators and fans market data out to
// them. A failing or panicking generator never blocks the others: its
// error is logged and the scan continues.
type Registry struct {
	mu        sync.RWMutex
	logger    *zap.Logger
	order     []string
	gens      map[string]Generator
	onFailure func(generator string)
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger: logger,
		gens:   make(map[string]Generator),
	}
}

// Register adds a generator. Registering the same name twice is an error.
func (r *Registry) Register(g Generator) error {
	if g == nil {
		return core.WrapError(core.ErrValidation, fmt.Errorf("nil generator"))
	}
	name := g.Name()
	if name == "" {
		return core.WrapError(core.ErrValidation, fmt.Errorf("generator has empty name"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.gens[name]; ok {
		return core.WrapError(core.ErrValidation, fmt.Errorf("generator %q already registered", name))
	}
	r.gens[name] = g
	r.order = append(r.order, name)
	r.logger.Info("generator registered", zap.String("name", name))
	return nil
}

// OnFailure sets a callback invoked with the generator's name whenever it
// errors or panics during a scan.
func (r *Registry) OnFailure(fn func(generator string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFailure = fn
}

func (r *Registry) failureHook() func(string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onFailure
}

// Get returns the generator by name.
func (r *Registry) Get(name string) (Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gens[name]
	return g, ok
}

// GetAll returns all generators in registration order.
func (r *Registry) GetAll() []Generator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Generator, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.gens[name])
	}
	return out
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Generate runs every generator against one symbol's market data and
// collects the emitted signals. Generator errors and panics are contained
// and logged.
func (r *Registry) Generate(md core.MarketData) []core.Signal {
	return r.GenerateNamed(md, nil)
}

// GenerateNamed runs only the named generators. A nil or empty name list
// means all of them. Unknown names are skipped.
func (r *Registry) GenerateNamed(md core.MarketData, names []string) []core.Signal {
	allowed := make(map[string]bool, len(names))
	for _, name := range names {
		allowed[name] = true
	}

	var out []core.Signal
	for _, g := range r.GetAll() {
		if len(allowed) > 0 && !allowed[g.Name()] {
			continue
		}
		sigs, err := r.runOne(g, md)
		if err != nil {
			r.logger.Warn("generator failed",
				zap.String("generator", g.Name()),
				zap.String("symbol", md.Symbol),
				zap.Error(err),
			)
			if fn := r.failureHook(); fn != nil {
				fn(g.Name())
			}
			continue
		}
		out = append(out, sigs...)
	}
	return out
}

// GenerateBatch runs a full scan over multiple symbols. A failure on one
// symbol never stops the batch.
func (r *Registry) GenerateBatch(batch []core.MarketData) []core.Signal {
	var out []core.Signal
	for _, md := range batch {
		out = append(out, r.Generate(md)...)
	}
	return out
}

func (r *Registry) runOne(g Generator, md core.MarketData) (sigs []core.Signal, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			sigs = nil
			err = core.WrapError(core.ErrGeneratorFailed, fmt.Errorf("panic: %v", rec))
		}
	}()
	sigs, err = g.Generate(md)
	if err != nil {
		return nil, core.WrapError(core.ErrGeneratorFailed, err)
	}
	return sigs, nil
}
