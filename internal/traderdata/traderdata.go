// Package traderdata encodes the state a trader carries between ticks inside the traderData string.
package traderdata

import (
	"encoding/json"
	"fmt"
)

// Sample is the placeholder traderData the simulator and local loaders hand out before any state exists.
const Sample = "SAMPLE"

// Pending remembers an own trade that should be unwound at a later tick.
type Pending struct {
	Price     int `json:"price"`
	Remaining int `json:"remaining"` // signed: >0 after a buy, <0 after a sell
	Timestamp int `json:"timestamp"`
}

// Memory is the decoded traderData: bounded float series keyed by name plus pending unwinds per product.
type Memory struct {
	SeriesByName map[string][]float64 `json:"series,omitempty"`
	PendingBy    map[string]Pending   `json:"pending,omitempty"`
}

// New returns an empty memory.
func New() *Memory {
	return &Memory{
		SeriesByName: make(map[string][]float64),
		PendingBy:    make(map[string]Pending),
	}
}

// Decode parses traderData; an empty string or the sample placeholder yields an empty memory.
func Decode(raw string) (*Memory, error) {
	if raw == "" || raw == Sample {
		return New(), nil
	}
	mem := New()
	if err := json.Unmarshal([]byte(raw), mem); err != nil {
		return nil, fmt.Errorf("decode trader data: %w", err)
	}
	if mem.SeriesByName == nil {
		mem.SeriesByName = make(map[string][]float64)
	}
	if mem.PendingBy == nil {
		mem.PendingBy = make(map[string]Pending)
	}
	return mem, nil
}

// Encode renders the memory back into a traderData string.
func (m *Memory) Encode() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode trader data: %w", err)
	}
	return string(data), nil
}

// Series returns the named series (nil when absent). Callers must not retain it across Push calls.
func (m *Memory) Series(name string) []float64 {
	return m.SeriesByName[name]
}

// Len returns the length of the named series.
func (m *Memory) Len(name string) int { return len(m.SeriesByName[name]) }

// Push appends v to the named series and drops the oldest values beyond maxLen (maxLen <= 0 is unbounded).
func (m *Memory) Push(name string, v float64, maxLen int) {
	series := append(m.SeriesByName[name], v)
	if maxLen > 0 && len(series) > maxLen {
		series = append([]float64(nil), series[len(series)-maxLen:]...)
	}
	m.SeriesByName[name] = series
}

// Trim drops the oldest values of the named series beyond maxLen.
func (m *Memory) Trim(name string, maxLen int) {
	series := m.SeriesByName[name]
	if maxLen <= 0 || len(series) <= maxLen {
		return
	}
	m.SeriesByName[name] = append([]float64(nil), series[len(series)-maxLen:]...)
}

// SetPending stores an unwind record for product.
func (m *Memory) SetPending(product string, p Pending) {
	m.PendingBy[product] = p
}

// Pending returns the unwind record for product.
func (m *Memory) Pending(product string) (Pending, bool) {
	p, ok := m.PendingBy[product]
	return p, ok
}

// ClearPending forgets the unwind record for product.
func (m *Memory) ClearPending(product string) {
	delete(m.PendingBy, product)
}
