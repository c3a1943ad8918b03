package pm

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// ResultPrefix is the fixed first token of a result line.
const ResultPrefix = "RESULT"

type resultPair struct {
	key   string
	value string
}

// Result gathers key-value pairs and prints them as a single structured
// output line of the form
//
//	RESULT key1=value1 key2=value2 ...
//
// for consumption by line-oriented downstream tooling such as
// sqlplot-tools. The zero value is ready to use.
//
// Keys and string values are not escaped; values containing spaces,
// '=' or newlines will break the line format.
type Result struct {
	pairs []resultPair
}

// Add records a key-value pair. Booleans are formatted as true/false,
// integers in decimal, floats in their shortest round-trip form and
// strings verbatim. Any other value is rendered as compact JSON.
func (r *Result) Add(key string, value any) {
	r.pairs = append(r.pairs, resultPair{key: key, value: formatResultValue(value)})
}

// AddReport records every data point of a phase report. The report's
// metrics and data objects are unfolded under "metrics." and "data."
// prefixes, and each child phase is unfolded recursively under its own
// name, so keys contain dots reflecting the report structure. The output
// may become verbose and is not meant to stay human readable.
func (r *Result) AddReport(rep Report) {
	r.addPhase("", rep)
}

// Sort orders the stored pairs by key.
func (r *Result) Sort() {
	sort.SliceStable(r.pairs, func(i, j int) bool { return r.pairs[i].key < r.pairs[j].key })
}

// Len returns the number of stored pairs.
func (r *Result) Len() int { return len(r.pairs) }

// Line builds a result line with the given prefix, without a trailing
// newline.
func (r *Result) Line(prefix string) string {
	line := prefix
	for _, pair := range r.pairs {
		line += " " + pair.key + "=" + pair.value
	}
	return line
}

// String builds the result line with the default RESULT prefix.
func (r *Result) String() string { return r.Line(ResultPrefix) }

// Print writes the result line, terminated by a newline.
func (r *Result) Print(w io.Writer) error {
	_, err := fmt.Fprintln(w, r.String())
	return err
}

func (r *Result) addPhase(prefix string, rep Report) {
	if len(rep.Metrics) > 0 {
		r.addTree(joinKey(prefix, "metrics"), normalize(rep.Metrics))
	}
	if len(rep.Data) > 0 {
		r.addTree(joinKey(prefix, "data"), normalize(rep.Data))
	}
	for _, child := range rep.Children {
		r.addPhase(joinKey(prefix, child.Name), child)
	}
}

// addTree unfolds a decoded JSON value into dotted key-value pairs.
// Object keys are visited in sorted order so the unfolding is
// deterministic; array elements use their index as key.
func (r *Result) addTree(prefix string, v any) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			r.addTree(joinKey(prefix, k), t[k])
		}
	case []any:
		for i, sub := range t {
			r.addTree(joinKey(prefix, strconv.Itoa(i)), sub)
		}
	default:
		r.pairs = append(r.pairs, resultPair{key: prefix, value: formatResultValue(t)})
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// normalize reduces an arbitrary JSON-marshalable value to the decoded
// JSON forms (map[string]any, []any, float64, string, bool, nil) that
// addTree traverses. Meter snapshots are structs; the round trip unfolds
// them the same way the serialized report would.
func normalize(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	var decoded any
	if err := json.Unmarshal(b, &decoded); err != nil {
		return string(b)
	}
	return decoded
}

func formatResultValue(value any) string {
	switch t := value.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(t)
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int8:
		return strconv.FormatInt(int64(t), 10)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint8:
		return strconv.FormatUint(uint64(t), 10)
	case uint16:
		return strconv.FormatUint(uint64(t), 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}
