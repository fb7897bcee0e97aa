package staging

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// QuantizedProjection maps a sequence of values summing to max onto space integer units.
// The rounding error of every step is carried into the next one, so the steps of a complete
// sequence always add up to exactly space.
type QuantizedProjection struct {
	max        int64
	space      int64
	aggregated int64
	projected  int64
	step       int64
}

// NewQuantizedProjection projects values totalling max onto space units
func NewQuantizedProjection(max, space int64) *QuantizedProjection {
	return &QuantizedProjection{max: max, space: space}
}

// Next consumes one value. It returns false, leaving the projection unchanged, when the value
// would push the running total past max.
func (p *QuantizedProjection) Next(value int64) bool {
	if value < 0 || p.aggregated+value > p.max {
		return false
	}
	p.aggregated += value
	projected := roundDiv(p.space*p.aggregated, p.max)
	p.step = projected - p.projected
	p.projected = projected
	return true
}

// Step is the integer width allotted to the last consumed value
func (p *QuantizedProjection) Step() int64 {
	return p.step
}

// roundDiv is round(a/b) for a >= 0, b > 0
func roundDiv(a, b int64) int64 {
	if b <= 0 {
		return 0
	}
	return (2*a + b) / (2 * b)
}

// Project distributes space integer units over weights proportionally, summing to exactly space.
// Negative weights count as zero; when every weight is zero the units are spread evenly.
func Project(weights []int64, space int) []int {
	widths := make([]int, len(weights))
	if len(weights) == 0 || space <= 0 {
		return widths
	}

	values := make([]int64, len(weights))
	var total int64
	for i, w := range weights {
		if w > 0 {
			values[i] = w
			total += w
		}
	}
	if total == 0 {
		for i := range values {
			values[i] = 1
		}
		total = int64(len(values))
	}

	projection := NewQuantizedProjection(total, int64(space))
	for i, v := range values {
		projection.Next(v)
		widths[i] = int(projection.Step())
	}
	return widths
}

var weightSuffixes = []byte{'k', 'M', 'B', 'T'}

// FitInFour abbreviates value to at most four characters, left-padded with spaces:
// plain integers below 1000, otherwise one decimal and a k, M, B or T suffix when that fits
// and no decimal when it does not. Values of 1000T and above render as "999T".
func FitInFour(value int64) string {
	if value < 1000 {
		return pad(strconv.FormatInt(value, 10), 4)
	}

	weight := 0
	for v := value; v >= 1000 && weight < len(weightSuffixes); v /= 1000 {
		weight++
	}

	for {
		scaled := float64(value) / math.Pow(1000, float64(weight))
		suffix := weightSuffixes[weight-1]

		result := fmt.Sprintf("%.1f%c", scaled, suffix)
		if len(result) <= 4 {
			return pad(result, 4)
		}
		rounded := math.Round(scaled)
		if rounded >= 1000 && weight < len(weightSuffixes) {
			weight++
			continue
		}
		if rounded >= 1000 {
			// 1000T and beyond saturate
			return fmt.Sprintf("999%c", suffix)
		}
		return pad(fmt.Sprintf("%.0f%c", rounded, suffix), 4)
	}
}

func pad(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return strings.Repeat(" ", length-len(s)) + s
}
