package explorer

import (
	"context"
	"log/slog"
	"sync"

	"rivergauge-server/internal/modules/stations/types"
)

type Searcher interface {
	SearchStations(ctx context.Context, req types.SearchRequest) ([]types.Card, error)
}

// Result is what a Search produced. Stale is set when a newer search was
// started before this one finished; its cards were not kept.
type Result struct {
	Request types.SearchRequest
	Cards   []types.Card
	Err     error
	Stale   bool
}

// Session keeps the last search result shown to the user.
type Session struct {
	searcher Searcher
	logger   *slog.Logger
	seq      Sequencer

	mu      sync.RWMutex
	current Result
}

func NewSession(searcher Searcher, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{searcher: searcher, logger: logger}
}

// Search runs req and makes it the current result unless a later Search
// was issued in the meantime. Requests are never cancelled; late answers
// are discarded.
func (s *Session) Search(ctx context.Context, req types.SearchRequest) Result {
	seq := s.seq.Next()
	cards, err := s.searcher.SearchStations(ctx, req)
	res := Result{Request: req, Cards: cards, Err: err}

	applied := s.seq.Commit(seq, func() {
		s.mu.Lock()
		s.current = res
		s.mu.Unlock()
	})
	if !applied {
		s.logger.Debug("dropping stale search result", "seq", seq, "state", req.State, "county", req.County)
		res.Stale = true
	}
	return res
}

// Current returns the last applied result.
func (s *Session) Current() Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
