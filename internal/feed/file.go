package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/westquant/pulse/internal/core"
)

// FileSource reads bars from a JSONL file, one bar object per line. The
// file is parsed once and served from memory; Reload picks up new data.
type FileSource struct {
	mu     sync.RWMutex
	logger *zap.Logger
	path   string
	bars   map[string][]core.Bar
	loaded bool
}

// NewFileSource creates a source over a JSONL bar file. The file is read
// lazily on first fetch.
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{
		logger: logger,
		path:   path,
		bars:   make(map[string][]core.Bar),
	}
}

// Fetch returns the most recent limit bars for the symbol. A symbol with
// no data yields ErrNoData.
func (s *FileSource) Fetch(ctx context.Context, symbol string, limit int) (core.MarketData, error) {
	if err := ctx.Err(); err != nil {
		return core.MarketData{}, err
	}
	if err := s.ensureLoaded(); err != nil {
		return core.MarketData{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	bars, ok := s.bars[symbol]
	if !ok || len(bars) == 0 {
		return core.MarketData{}, core.WrapError(core.ErrNoData, fmt.Errorf("no bars for %s", symbol))
	}
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}

	out := make([]core.Bar, len(bars))
	copy(out, bars)
	return core.MarketData{Symbol: symbol, Bars: out}, nil
}

// Reload re-reads the file on the next fetch.
func (s *FileSource) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
}

func (s *FileSource) ensureLoaded() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("opening bar file: %w", err)
	}
	defer f.Close()

	bars := make(map[string][]core.Bar)
	var skipped int

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var bar core.Bar
		if err := json.Unmarshal(line, &bar); err != nil {
			skipped++
			continue
		}
		if err := bar.Validate(); err != nil {
			skipped++
			continue
		}
		bars[bar.Symbol] = append(bars[bar.Symbol], bar)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading bar file: %w", err)
	}

	for symbol := range bars {
		sort.Slice(bars[symbol], func(i, j int) bool {
			return bars[symbol][i].CloseTime.Before(bars[symbol][j].CloseTime)
		})
	}

	if skipped > 0 {
		s.logger.Warn("skipped malformed bars",
			zap.String("path", s.path),
			zap.Int("count", skipped),
		)
	}

	s.bars = bars
	s.loaded = true
	return nil
}
