// Package render maps documents onto named display slots.
package render

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kalambet/amabrowser/internal/document"
)

// DateLayout is the German two-digit date-time format used for creation times.
const DateLayout = "02.01.2006, 15:04:05"

// FormatDate renders Unix seconds in the local time zone. Zero renders as "".
func FormatDate(unixSeconds int64) string {
	return FormatDateIn(unixSeconds, time.Local)
}

// FormatDateIn renders Unix seconds in loc. Zero renders as "".
func FormatDateIn(unixSeconds int64, loc *time.Location) string {
	if unixSeconds == 0 {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(unixSeconds, 0).In(loc).Format(DateLayout)
}

// FormatArray joins a sequence with ", ". Anything that is not a sequence renders as "".
func FormatArray(v any) string {
	switch arr := v.(type) {
	case []any:
		parts := make([]string, len(arr))
		for i, e := range arr {
			parts[i] = document.String(e)
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(arr, ", ")
	case document.List:
		return strings.Join(arr, ", ")
	default:
		return ""
	}
}

// FormatObject renders an object as "key: value" pairs joined by ", ", and a sequence of
// objects as such groups joined by "; ". Scalars render as their string form and falsy
// values as "".
func FormatObject(v any) string {
	if !document.Truthy(v) {
		return ""
	}
	switch val := v.(type) {
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			if entries, ok := objectEntries(item); ok {
				parts[i] = entries
				continue
			}
			parts[i] = document.String(item)
		}
		return strings.Join(parts, "; ")
	}
	if entries, ok := objectEntries(v); ok {
		return entries
	}
	return document.String(v)
}

func objectEntries(v any) (string, bool) {
	var pairs []string
	switch obj := v.(type) {
	case document.Object:
		for _, f := range obj {
			pairs = append(pairs, f.Key+": "+document.String(f.Value))
		}
	case map[string]any:
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			pairs = append(pairs, k+": "+document.String(obj[k]))
		}
	case []any:
		for i, e := range obj {
			pairs = append(pairs, strconv.Itoa(i)+": "+document.String(e))
		}
	default:
		return "", false
	}
	return strings.Join(pairs, ", "), true
}
