package definition

import (
	"fmt"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// DecodeOptions decodes an option map into out (a pointer to one of the
// *Options structs). String numbers and similar loose values are accepted.
func DecodeOptions(options map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("creating option decoder: %w", err)
	}
	if err := dec.Decode(options); err != nil {
		return fmt.Errorf("decoding options: %w", err)
	}
	return nil
}

// Compare evaluates actual <op> expected. Numeric operands (including
// numeric strings) compare as numbers; everything else compares as text.
// An unknown op is treated as equality.
func Compare(actual any, op string, expected any) bool {
	a, aNum := toFloat(actual)
	e, eNum := toFloat(expected)
	if aNum && eNum {
		switch op {
		case OpNotEqual:
			return a != e
		case OpGreaterThan:
			return a > e
		case OpLessThan:
			return a < e
		case OpGreaterEqual:
			return a >= e
		case OpLessEqual:
			return a <= e
		default:
			return a == e
		}
	}

	as, es := fmt.Sprint(actual), fmt.Sprint(expected)
	if actual == nil {
		as = ""
	}
	if expected == nil {
		es = ""
	}
	switch op {
	case OpNotEqual:
		return as != es
	case OpGreaterThan:
		return as > es
	case OpLessThan:
		return as < es
	case OpGreaterEqual:
		return as >= es
	case OpLessEqual:
		return as <= es
	default:
		return as == es
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case bool:
		return 0, false
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Truthy reports whether a feedback value counts as true.
func Truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		return b != "" && b != "false" && b != "0"
	default:
		if f, ok := toFloat(v); ok {
			return f != 0
		}
		return true
	}
}
