package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/farhapartex/adlibrary-proxy/internal/models"
)

// Coerce converts v into values that serialize cleanly: byte slices become
// strings and nested maps and slices are converted element by element.
func Coerce(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Coerce(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Coerce(val)
		}
		return out
	default:
		return v
	}
}

// text renders a raw value as a string. Missing values yield "".
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		b, err := json.Marshal(Coerce(v))
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	return text(m[key])
}

func mapField(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	sub, _ := m[key].(map[string]any)
	return sub
}

// firstMap returns the first element of the list under key when it is a map.
func firstMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	list, ok := m[key].([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	first, _ := list[0].(map[string]any)
	return first
}

// intField reads an integer, accepting numbers and numeric strings.
func intField(m map[string]any, key string) int {
	f, ok := number(m[key])
	if !ok {
		return 0
	}
	return int(f)
}

func number(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// maxEpochSeconds is 9999-12-31T23:59:59Z.
const maxEpochSeconds = 253402300799

// epochDate renders an epoch-seconds value as YYYY-MM-DD in UTC. Zero,
// missing and unparsable values yield "".
func epochDate(v any) string {
	secs, ok := number(v)
	if !ok || secs == 0 || math.Abs(secs) > maxEpochSeconds {
		return ""
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC().Format(models.DateLayout)
}
