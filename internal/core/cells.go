package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseAmount coerces a raw cell to a monthly amount. Blank cells, text that
// is not a number, NaN, infinities and negative values all become 0.
func ParseAmount(v any) float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case bool:
		if x {
			f = 1
		}
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return 0
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = p
	default:
		return 0
	}
	return clampAmount(f)
}

func clampAmount(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// saturate caps a sum of non-negative amounts at math.MaxFloat64 so an
// overflow never reads as 0. NaN becomes 0.
func saturate(f float64) float64 {
	switch {
	case math.IsNaN(f), math.IsInf(f, -1):
		return 0
	case math.IsInf(f, 1):
		return math.MaxFloat64
	}
	return f
}

// Text renders a cell as a string. The second result is false for values
// that have no sensible text form (channels, funcs, composite values) or
// whose String method panics.
func Text(v any) (s string, ok bool) {
	switch x := v.(type) {
	case nil:
		return "", true
	case string:
		return x, true
	case []byte:
		return string(x), true
	case bool:
		return strconv.FormatBool(x), true
	case float64:
		return formatFloat(x), true
	case float32:
		return formatFloat(float64(x)), true
	case int:
		return strconv.Itoa(x), true
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x), true
	case json.Number:
		return x.String(), true
	case time.Time:
		return x.Format(time.DateTime), true
	case error:
		return stringOf(x.Error)
	case fmt.Stringer:
		return stringOf(x.String)
	}
	return "", false
}

func stringOf(fn func() string) (s string, ok bool) {
	defer func() {
		if recover() != nil {
			s, ok = "", false
		}
	}()
	return fn(), true
}

// label renders a cell for a text column; unrenderable values become "".
func label(v any) string {
	s, _ := Text(v)
	return s
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
