// Package analysis computes the picnic basket spread study over recorded mid prices.
package analysis

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"sort"
	"strconv"

	"prosperity-go/internal/marketdata"
	"prosperity-go/internal/stats"
	"prosperity-go/internal/strategy"
)

// DayLength separates consecutive days on the combined time axis.
const DayLength = 1_000_000

// DefaultWindow is the z-score look-back in ticks.
const DefaultWindow = 3000

// Pivot aligns product mids on a common time axis. Missing mids are NaN.
type Pivot struct {
	Times []int
	Mids  map[string][]float64
}

// NewPivot pivots price rows into one mid series per product keyed by day*DayLength+timestamp.
func NewPivot(rows []marketdata.PriceRow) *Pivot {
	index := make(map[int]int)
	var times []int
	for _, row := range rows {
		t := row.Day*DayLength + row.Timestamp
		if _, ok := index[t]; !ok {
			index[t] = 0
			times = append(times, t)
		}
	}
	sort.Ints(times)
	for i, t := range times {
		index[t] = i
	}

	p := &Pivot{Times: times, Mids: make(map[string][]float64)}
	for _, row := range rows {
		series, ok := p.Mids[row.Product]
		if !ok {
			series = make([]float64, len(times))
			for i := range series {
				series[i] = math.NaN()
			}
			p.Mids[row.Product] = series
		}
		series[index[row.Day*DayLength+row.Timestamp]] = row.MidPrice
	}
	return p
}

// Series returns the mids of product, all NaN when it never traded.
func (p *Pivot) Series(product string) []float64 {
	if s, ok := p.Mids[product]; ok {
		return s
	}
	out := make([]float64, len(p.Times))
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Products lists the pivoted products in sorted order.
func (p *Pivot) Products() []string {
	out := make([]string, 0, len(p.Mids))
	for k := range p.Mids {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Point is one time step of the spread study. Values that cannot be formed yet are NaN.
type Point struct {
	Time         int
	Djembe       float64
	BasketDiff   float64
	SyntheticA   float64
	SyntheticB   float64
	SpreadA      float64
	SpreadB      float64
	SpreadDjembe float64
	ZA           float64
	ZB           float64
	ZDjembe      float64
	NormA        float64
	NormB        float64
	NormDjembe   float64
}

type nullable float64

func (f nullable) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// MarshalJSON renders NaN values as null.
func (pt Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Time         int      `json:"time"`
		Djembe       nullable `json:"djembe"`
		BasketDiff   nullable `json:"basket_diff"`
		SyntheticA   nullable `json:"synthetic_a"`
		SyntheticB   nullable `json:"synthetic_b"`
		SpreadA      nullable `json:"spread_a"`
		SpreadB      nullable `json:"spread_b"`
		SpreadDjembe nullable `json:"spread_djembe"`
		ZA           nullable `json:"z_a"`
		ZB           nullable `json:"z_b"`
		ZDjembe      nullable `json:"z_djembe"`
		NormA        nullable `json:"norm_a"`
		NormB        nullable `json:"norm_b"`
		NormDjembe   nullable `json:"norm_djembe"`
	}{
		pt.Time, nullable(pt.Djembe), nullable(pt.BasketDiff), nullable(pt.SyntheticA), nullable(pt.SyntheticB),
		nullable(pt.SpreadA), nullable(pt.SpreadB), nullable(pt.SpreadDjembe),
		nullable(pt.ZA), nullable(pt.ZB), nullable(pt.ZDjembe),
		nullable(pt.NormA), nullable(pt.NormB), nullable(pt.NormDjembe),
	})
}

// BasketSpreads prices both baskets against their constituents at every time step, scores the
// spreads against a rolling window and rescales them into [-2, 2].
func BasketSpreads(p *Pivot, window int) []Point {
	if window <= 0 {
		window = DefaultWindow
	}
	dj := p.Series(strategy.Djembes)
	jams := p.Series(strategy.Jams)
	cr := p.Series(strategy.Croissants)
	b1 := p.Series(strategy.PicnicBasket1)
	b2 := p.Series(strategy.PicnicBasket2)

	points := make([]Point, len(p.Times))
	a := make([]float64, len(points))
	b := make([]float64, len(points))
	d := make([]float64, len(points))
	for i, t := range p.Times {
		s := strategy.ComputeSpreads(dj[i], jams[i], cr[i], b1[i], b2[i])
		points[i] = Point{
			Time:         t,
			Djembe:       dj[i],
			BasketDiff:   b1[i] - 1.5*b2[i],
			SyntheticA:   s.SyntheticA,
			SyntheticB:   s.SyntheticB,
			SpreadA:      s.A,
			SpreadB:      s.B,
			SpreadDjembe: s.Djembe,
		}
		a[i], b[i], d[i] = s.A, s.B, s.Djembe
	}

	zA, zB, zD := stats.RollingZScores(a, window), stats.RollingZScores(b, window), stats.RollingZScores(d, window)
	nA, nB, nD := stats.Normalize(a, -2, 2), stats.Normalize(b, -2, 2), stats.Normalize(d, -2, 2)
	for i := range points {
		points[i].ZA, points[i].ZB, points[i].ZDjembe = zA[i], zB[i], zD[i]
		points[i].NormA, points[i].NormB, points[i].NormDjembe = nA[i], nB[i], nD[i]
	}
	return points
}

// CSVHeader is the column layout written by WriteCSV.
var CSVHeader = []string{
	"alltime", "djembe", "basket_diff", "synthetic_A", "synthetic_B",
	"spread_A", "spread_B", "spread_djembe",
	"z_score_A", "z_score_B", "z_score_djembe",
	"norm_spread_A", "norm_spread_B", "norm_spread_djembe",
}

// WriteCSV writes points as comma separated values; NaN cells are left empty.
func WriteCSV(w io.Writer, points []Point) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return err
	}
	for _, pt := range points {
		rec := []string{strconv.Itoa(pt.Time)}
		for _, v := range []float64{
			pt.Djembe, pt.BasketDiff, pt.SyntheticA, pt.SyntheticB,
			pt.SpreadA, pt.SpreadB, pt.SpreadDjembe,
			pt.ZA, pt.ZB, pt.ZDjembe,
			pt.NormA, pt.NormB, pt.NormDjembe,
		} {
			rec = append(rec, cell(v))
		}
		if err := writer.Write(rec); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func cell(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
