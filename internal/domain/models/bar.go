package models

import (
	"math"
	"time"
)

// Bar represents one daily OHLCV record.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Valid reports whether the bar is usable: finite OHLCV, positive close,
// non-negative volume.
func (b Bar) Valid() bool {
	for _, v := range [5]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Close > 0 && b.Volume >= 0
}

// PriceSeries is an ordered, per-asset sequence of bars. Immutable once
// loaded for a run; sorted ascending by date with unique dates.
type PriceSeries struct {
	Ticker string
	Bars   []Bar
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	return len(s.Bars)
}

// ValidLen returns the number of valid bars; malformed rows in a feed do
// not count toward history requirements.
func (s *PriceSeries) ValidLen() int {
	n := 0
	for _, b := range s.Bars {
		if b.Valid() {
			n++
		}
	}
	return n
}

// LastBar returns the most recent bar, or false if the series is empty.
func (s *PriceSeries) LastBar() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Closes returns the close column.
func (s *PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}
