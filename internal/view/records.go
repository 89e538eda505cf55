// Package view turns raw admin API records into display rows: it joins
// collections client-side, flattens references and parses timestamps.
package view

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/kongcli/internal/constants"
	"github.com/fivetwenty-io/kongcli/pkg/kong"
)

// TimeLayout is used for parsed timestamps.
const TimeLayout = "2006-01-02 15:04:05-07:00"

// maxUnixSeconds is 9999-12-31T23:59:59Z. Larger values are milliseconds.
const maxUnixSeconds = 253402300799

var referenceKeys = []string{"consumer", "route", "service"}

// RefID returns the id a record points to for key ("consumer", "route" or
// "service"), accepting the nested {"key": {"id": ...}}, the flattened
// "key.id" and the legacy "key_id" forms.
func RefID(r kong.Record, key string) string {
	if id := kong.RefID(r, key); id != "" {
		return id
	}

	if id := kong.StringField(r, key+".id"); id != "" {
		return id
	}

	return kong.StringField(r, key+"_id")
}

// SubstituteIDs returns a copy of r where consumer, route and service
// references are replaced by a flat "<key>.id" field. Null references are
// dropped.
func SubstituteIDs(r kong.Record) kong.Record {
	out := copyRecord(r)

	for _, key := range referenceKeys {
		if _, ok := out[key]; ok {
			if id := kong.RefID(out, key); id != "" {
				out[key+".id"] = id
			}

			delete(out, key)

			continue
		}

		if id, ok := out[key+"_id"]; ok {
			out[key+".id"] = id
			delete(out, key+"_id")
		}
	}

	return out
}

// ParseTimestamps returns a copy of r with created_at and updated_at turned
// into UTC times. Values too large to be seconds are read as milliseconds.
func ParseTimestamps(r kong.Record) kong.Record {
	out := copyRecord(r)

	for _, key := range []string{constants.FieldCreatedAt, constants.FieldUpdatedAt} {
		if ts, ok := toFloat(out[key]); ok {
			out[key] = FromUnix(ts)
		}
	}

	return out
}

// FromUnix converts a seconds or milliseconds timestamp to UTC.
func FromUnix(ts float64) time.Time {
	if ts > maxUnixSeconds || ts < -maxUnixSeconds {
		ts /= 1000
	}

	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * float64(time.Second))

	return time.Unix(sec, nsec).UTC()
}

// Prepare applies SubstituteIDs and ParseTimestamps.
func Prepare(r kong.Record) kong.Record {
	return ParseTimestamps(SubstituteIDs(r))
}

// PrepareAll applies Prepare to every record.
func PrepareAll(records []kong.Record) []kong.Record {
	out := make([]kong.Record, 0, len(records))
	for _, r := range records {
		out = append(out, Prepare(r))
	}

	return out
}

// SortByName sorts records by their name field in place.
func SortByName(records []kong.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return kong.StringField(records[i], "name") < kong.StringField(records[j], "name")
	})
}

// FormatValue renders a record value for a table cell.
func FormatValue(value interface{}) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case json.Number:
		return typed.String()
	case int:
		return strconv.Itoa(typed)
	case time.Time:
		return typed.Format(TimeLayout)
	case []string:
		return strings.Join(typed, "\n")
	case []interface{}:
		if parts, ok := scalars(typed); ok {
			return strings.Join(parts, "\n")
		}

		return PrettyJSON(typed)
	default:
		return PrettyJSON(typed)
	}
}

// PrettyJSON renders value as indented JSON with sorted keys.
func PrettyJSON(value interface{}) string {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return ""
	}

	return string(encoded)
}

// Keys returns the union of keys of records, sorted.
func Keys(records []kong.Record) []string {
	seen := make(map[string]bool)

	var keys []string

	for _, r := range records {
		for key := range r {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}

	sort.Strings(keys)

	return keys
}

func scalars(values []interface{}) ([]string, bool) {
	parts := make([]string, 0, len(values))

	for _, value := range values {
		switch value.(type) {
		case map[string]interface{}, []interface{}:
			return nil, false
		}

		parts = append(parts, FormatValue(value))
	}

	return parts, true
}

func toFloat(value interface{}) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case json.Number:
		f, err := typed.Float64()

		return f, err == nil
	default:
		return 0, false
	}
}

func copyRecord(r kong.Record) kong.Record {
	out := make(kong.Record, len(r))
	for key, value := range r {
		out[key] = value
	}

	return out
}

func stringList(value interface{}) []string {
	switch typed := value.(type) {
	case nil:
		return nil
	case string:
		if typed == "" {
			return nil
		}

		return []string{typed}
	case []string:
		return typed
	case []interface{}:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			out = append(out, FormatValue(item))
		}

		return out
	default:
		return []string{FormatValue(typed)}
	}
}
