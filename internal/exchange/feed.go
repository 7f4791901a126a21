// Package exchange replays recorded market data as a stream of exchange snapshots.
package exchange

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"prosperity-go/internal/datamodel"
	"prosperity-go/internal/marketdata"
	"prosperity-go/internal/metrics"
)

// Snapshot is the exchange as seen at one timestamp. State carries the order depths and
// listings; MarketTrades are the bot trades printed at this timestamp, which the exchange
// matches against before they are shown to traders on the next tick.
type Snapshot struct {
	Day          int
	Timestamp    int
	State        *datamodel.TradingState
	MarketTrades map[datamodel.Symbol][]datamodel.Trade
}

// Feed replays one day of a book, optionally paced and filtered to a symbol set.
type Feed struct {
	book     *marketdata.Book
	tape     *marketdata.TradeTape
	listings map[datamodel.Symbol]datamodel.Listing
	log      zerolog.Logger
	pace     time.Duration
	symbols  map[string]struct{}
	mu       sync.RWMutex
}

// Option configures Feed construction parameters.
type Option func(*Feed)

// WithPace sleeps d between snapshots. Zero replays as fast as the consumer reads.
func WithPace(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.pace = d
		}
	}
}

// WithListings overrides the listings attached to each state.
func WithListings(listings map[datamodel.Symbol]datamodel.Listing) Option {
	return func(f *Feed) {
		if len(listings) > 0 {
			f.listings = listings
		}
	}
}

// WithTrades attaches the market trade tape for the same day.
func WithTrades(tape *marketdata.TradeTape) Option {
	return func(f *Feed) { f.tape = tape }
}

// NewFeed constructs a replay of book.
func NewFeed(book *marketdata.Book, log zerolog.Logger, opts ...Option) *Feed {
	f := &Feed{book: book, log: log}
	for _, opt := range opts {
		opt(f)
	}
	if f.listings == nil {
		f.listings = book.DefaultListings()
	}
	return f
}

// SetSymbols restricts the replay to symbols; an empty list replays every product.
func (f *Feed) SetSymbols(symbols []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	unique := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		unique[sym] = struct{}{}
	}
	if len(unique) == 0 {
		unique = nil
	}
	f.symbols = unique
}

// Symbols returns the replayed symbols in sorted order.
func (f *Feed) Symbols() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.symbols == nil {
		return f.book.Products()
	}
	out := make([]string, 0, len(f.symbols))
	for sym := range f.symbols {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of snapshots the feed will emit.
func (f *Feed) Len() int { return len(f.book.Timestamps()) }

// Snapshot builds the snapshot at ts.
func (f *Feed) Snapshot(ts int) Snapshot {
	state := f.book.StateAt(ts, f.listings)
	trades := f.tape.BySymbol(ts)

	f.mu.RLock()
	filter := f.symbols
	f.mu.RUnlock()
	if filter != nil {
		for sym := range state.OrderDepths {
			if _, ok := filter[sym]; ok {
				continue
			}
			delete(state.OrderDepths, sym)
			delete(state.Listings, sym)
			delete(state.OwnTrades, sym)
			delete(state.MarketTrades, sym)
			delete(state.Position, sym)
			delete(state.Observations.PlainValueObservations, sym)
			delete(state.Observations.ConversionObservations, sym)
		}
		for sym := range trades {
			if _, ok := filter[sym]; !ok {
				delete(trades, sym)
			}
		}
	}
	return Snapshot{Day: f.book.Day, Timestamp: ts, State: state, MarketTrades: trades}
}

// Run pushes every snapshot onto out in timestamp order and closes out when it returns.
// It stops early with the context error when ctx is canceled.
func (f *Feed) Run(ctx context.Context, out chan<- Snapshot) error {
	defer close(out)

	var ticker *time.Ticker
	if f.pace > 0 {
		ticker = time.NewTicker(f.pace)
		defer ticker.Stop()
	}
	timestamps := f.book.Timestamps()
	f.log.Debug().Int("day", f.book.Day).Int("snapshots", len(timestamps)).Msg("replay start")
	for i, ts := range timestamps {
		if ticker != nil && i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		snap := f.Snapshot(ts)
		select {
		case out <- snap:
			for sym := range snap.State.OrderDepths {
				metrics.TicksTotal.WithLabelValues(sym).Inc()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
