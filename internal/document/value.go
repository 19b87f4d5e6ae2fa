package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

var errNotObject = errors.New("not a JSON object")

// Text is a leaf value rendered as plain text. Falsy JSON values (null, false, 0, "") are empty.
type Text string

func (t Text) String() string { return string(t) }

// List is a sequence of values rendered as text. A non-array value decodes to an empty list.
type List []string

// Timestamp is a Unix time in seconds. Zero means absent.
type Timestamp int64

// Field is one key/value pair of an Object.
type Field struct {
	Key   string
	Value any
}

// Object is a JSON object with its key order preserved.
type Object []Field

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, f := range o {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// DecodeValue decodes arbitrary JSON into nil, bool, float64, string, []any or Object.
// Invalid or empty input yields nil.
func DecodeValue(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	v, err := decodeToken(dec)
	if err != nil {
		return nil
	}
	return v
}

func decodeToken(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			arr := []any{}
			for dec.More() {
				v, err := decodeToken(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		case '{':
			obj := Object{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := keyTok.(string)
				v, err := decodeToken(dec)
				if err != nil {
					return nil, err
				}
				obj = append(obj, Field{Key: key, Value: v})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		}
		return nil, io.ErrUnexpectedEOF
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return t, nil
	}
}

// String renders a decoded value the way a browser would coerce it to text: arrays are
// joined with commas, null is empty, numbers use the shortest representation.
func String(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return formatNumber(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case []any:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = String(e)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(val, ",")
	case Object:
		parts := make([]string, len(val))
		for i, f := range val {
			parts[i] = f.Key + ": " + String(f.Value)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + String(val[k])
		}
		return strings.Join(parts, ", ")
	case Text:
		return string(val)
	case List:
		return strings.Join(val, ",")
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Truthy reports whether v is a non-empty value: not null, false, 0, NaN or "".
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case float64:
		return val != 0 && !math.IsNaN(val)
	case int:
		return val != 0
	case int64:
		return val != 0
	default:
		return true
	}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func object(data []byte) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errNotObject
	}
	return obj, nil
}

// optional decodes raw into a new T. Missing, null or malformed input yields nil.
func optional[T any](raw json.RawMessage) *T {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil
	}
	return v
}

func decodeText(raw json.RawMessage) Text {
	v := DecodeValue(raw)
	if !Truthy(v) {
		return ""
	}
	return Text(String(v))
}

func decodeList(raw json.RawMessage) List {
	arr, ok := DecodeValue(raw).([]any)
	if !ok {
		return nil
	}
	out := make(List, len(arr))
	for i, e := range arr {
		out[i] = String(e)
	}
	return out
}

func decodeTimestamp(raw json.RawMessage) Timestamp {
	switch v := DecodeValue(raw).(type) {
	case float64:
		return Timestamp(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return Timestamp(f)
		}
	}
	return 0
}

// decodeID accepts a plain string id, a number, or an extended JSON {"$oid": "..."} object.
func decodeID(raw json.RawMessage) string {
	switch v := DecodeValue(raw).(type) {
	case string:
		return v
	case float64:
		return formatNumber(v)
	case Object:
		if oid, ok := v.Get("$oid"); ok {
			if s, ok := oid.(string); ok {
				return s
			}
		}
	}
	return ""
}
