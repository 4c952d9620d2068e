package glucose

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrShape is returned when input is not a flat sequence of numbers.
var ErrShape = errors.New("expected a one-dimensional glucose series")

// Series holds glucose readings (mg/dL) at a fixed sampling interval.
// Missing readings are NaN.
type Series []float64

// Mask marks readings to exclude from analysis. It always has the same
// length as the Series it was computed from.
type Mask []bool

// Missing reports whether v is a missing reading.
func Missing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// Count returns the number of true positions.
func (m Mask) Count() int {
	count := 0
	for _, b := range m {
		if b {
			count++
		}
	}
	return count
}

// ParseSeries decodes a JSON array of numbers, where null is a missing reading.
func ParseSeries(raw []byte) (Series, error) {
	var s Series
	if err := s.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: got null", ErrShape)
	}
	return s, nil
}

func (s *Series) UnmarshalJSON(raw []byte) error {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		*s = nil
		return nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return fmt.Errorf("%w: %v", ErrShape, err)
	}

	out := make(Series, len(elems))
	for i, elem := range elems {
		elem = bytes.TrimSpace(elem)
		if bytes.Equal(elem, []byte("null")) {
			out[i] = math.NaN()
			continue
		}
		var v float64
		if err := json.Unmarshal(elem, &v); err != nil {
			return fmt.Errorf("%w: element %d is not a number", ErrShape, i)
		}
		out[i] = v
	}

	*s = out
	return nil
}

func (s Series) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		if Missing(v) {
			buf.WriteString("null")
			continue
		}
		buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
