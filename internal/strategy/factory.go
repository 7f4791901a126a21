package strategy

import (
	"strings"

	"github.com/rs/zerolog"

	"prosperity-go/internal/risk"
)

// Product names traded by the built-in strategies.
const (
	RainforestResin = "RAINFOREST_RESIN"
	Kelp            = "KELP"
	SquidInk        = "SQUID_INK"
	Djembes         = "DJEMBES"
	Jams            = "JAMS"
	Croissants      = "CROISSANTS"
	PicnicBasket1   = "PICNIC_BASKET1"
	PicnicBasket2   = "PICNIC_BASKET2"
)

// Modes accepted by Build.
const (
	ModeResin      = "resin"
	ModeRound2     = "round2"
	ModeSquidTrend = "squid_trend"
	ModeFull       = "full"
)

// Params expresses tunable knobs required by strategy constructors. Zero values take defaults.
type Params struct {
	ResinFairValue      float64
	ResinSizeMultiplier int
	ResinLayers         int
	MinEdge             float64

	SquidWindow         int
	SquidSkewDivisor    float64
	SquidSizeMultiplier int

	TrendPeriodTicks     int
	TrendEvalLength      int
	TrendRollingPeriod   int
	TrendTickSize        int
	TrendMaxMove         float64
	TrendWeakThreshold   float64
	TrendStrongThreshold float64
	TrendWeakQty         int
	TrendStrongQty       int
	TrendWeakPosition    int
	TrendStrongPosition  int

	BasketWindow          int
	BasketThreshold       float64
	BasketDjembeThreshold float64
	BasketVolume          int

	OBILevels      int
	OBIThreshold   float64
	OBIWindowTicks int
	OBIQty         int
}

// WithDefaults fills every unset knob with its tuned default.
func (p Params) WithDefaults() Params {
	setF := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	setI := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	setF(&p.ResinFairValue, 10000)
	setI(&p.ResinSizeMultiplier, 5)
	setI(&p.ResinLayers, 2)
	setF(&p.MinEdge, 5)

	setI(&p.SquidWindow, 10)
	setF(&p.SquidSkewDivisor, 10)
	setI(&p.SquidSizeMultiplier, 5)

	setI(&p.TrendPeriodTicks, 33)
	setI(&p.TrendEvalLength, 8)
	setI(&p.TrendRollingPeriod, 30)
	setI(&p.TrendTickSize, 100)
	setF(&p.TrendMaxMove, 20)
	setF(&p.TrendWeakThreshold, 0.3)
	setF(&p.TrendStrongThreshold, 0.6)
	setI(&p.TrendWeakQty, 2)
	setI(&p.TrendStrongQty, 8)
	setI(&p.TrendWeakPosition, 40)
	setI(&p.TrendStrongPosition, 25)

	setI(&p.BasketWindow, 3000)
	setF(&p.BasketThreshold, 1.2)
	setF(&p.BasketDjembeThreshold, 1.2)
	setI(&p.BasketVolume, 5)

	setI(&p.OBILevels, 3)
	setF(&p.OBIThreshold, 0.25)
	setI(&p.OBIWindowTicks, 20)
	setI(&p.OBIQty, 5)
	return p
}

// Resin-only mode quotes a single order sized at ten per tick of edge.
const (
	resinOnlySizeMultiplier = 10
	resinOnlyLayers         = 1
)

// Build returns a trader matching the configured mode.
func Build(mode string, params Params, limits risk.Limits, log zerolog.Logger) Trader {
	normalized := strings.ToLower(strings.TrimSpace(mode))
	if normalized == ModeResin {
		if params.ResinSizeMultiplier <= 0 {
			params.ResinSizeMultiplier = resinOnlySizeMultiplier
		}
		if params.ResinLayers <= 0 {
			params.ResinLayers = resinOnlyLayers
		}
	}
	p := params.WithDefaults()
	resin := NewFixedFairMaker(RainforestResin, p.ResinFairValue, p.MinEdge, p.ResinSizeMultiplier, p.ResinLayers)
	squid := NewRollingMeanReverter(SquidInk, p.SquidWindow, p.SquidSkewDivisor, p.MinEdge, p.SquidSizeMultiplier)
	baskets := NewBasketArbitrage(p.BasketWindow, p.BasketThreshold, p.BasketDjembeThreshold, p.BasketVolume)

	switch normalized {
	case ModeResin:
		return NewComposite(normalized, limits, log, resin)
	case ModeSquidTrend, "trend", "iris":
		return NewComposite(ModeSquidTrend, limits, log, NewTrendUnwinder(SquidInk, p))
	case ModeFull:
		kelp := NewImbalanceMomentum(Kelp, p.OBILevels, p.OBIThreshold, p.OBIWindowTicks, p.OBIQty)
		return NewComposite(normalized, limits, log, resin, kelp, squid, baskets)
	default:
		return NewComposite(ModeRound2, limits, log, resin, squid, baskets)
	}
}
