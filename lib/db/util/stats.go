package util

import "math"

// Spread summarizes how evenly a set of values (e.g. entries per shard) is distributed
type Spread struct {
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	StdDeviation float64 `json:"std_deviation"`
	// Quality is 1 for a perfectly even distribution and approaches 0 for a skewed one
	Quality float64 `json:"quality"`
}

// NewSpread computes the spread of values
func NewSpread(values []float64) Spread {
	if len(values) == 0 {
		return Spread{}
	}

	s := Spread{Min: values[0], Max: values[0]}
	var sum float64
	for _, v := range values {
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean = sum / float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - s.Mean) * (v - s.Mean)
	}
	s.StdDeviation = math.Sqrt(sq / float64(len(values)))

	// combine coefficient of variation and min/max ratio
	ratio, cv := 1.0, 0.0
	if s.Max > 0 {
		ratio = s.Min / s.Max
	}
	if s.Mean > 0 {
		cv = s.StdDeviation / s.Mean
	}
	s.Quality = (1.0-math.Min(1.0, cv))*0.5 + ratio*0.5

	return s
}
