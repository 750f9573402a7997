package telenet

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is a decoded JSON object as returned by the portal.
type Record map[string]any

func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// String returns the value under key as a string, numbers are formatted and anything
// else yields "".
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// Float returns the value under key as a number, numeric strings are parsed.
func (r Record) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, err := StrToFloat(v)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// Amount is the strict form of Float for monetary values, a value that is neither a
// number nor a parseable numeric string is an error.
func (r Record) Amount(key string) (float64, error) {
	switch v := r[key].(type) {
	case float64:
		return v, nil
	case json.Number:
		return v.Float64()
	case string:
		f, err := StrToFloat(v)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("%s: missing", key)
	}
	return 0, fmt.Errorf("%s: unexpected %T", key, r[key])
}

func (r Record) Bool(key string) bool {
	v, _ := r[key].(bool)
	return v
}

func toRecord(v any) (Record, bool) {
	switch m := v.(type) {
	case Record:
		return m, true
	case map[string]any:
		return Record(m), true
	}
	return nil, false
}

// Record returns the nested object under key or nil.
func (r Record) Record(key string) Record {
	m, _ := toRecord(r[key])
	return m
}

// Records returns the objects of the array under key, skipping non-objects.
func (r Record) Records(key string) []Record {
	list, ok := r[key].([]any)
	if !ok {
		typed, _ := r[key].([]Record)
		return typed
	}
	out := make([]Record, 0, len(list))
	for _, v := range list {
		m, ok := toRecord(v)
		if !ok {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Without returns a shallow copy of the record minus the given keys.
func (r Record) Without(keys ...string) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// UserDetails is the identity record of the logged in customer.
type UserDetails Record

func (u UserDetails) CustomerNumber() string {
	return Record(u).String("customer_number")
}

// System is the backend discriminator, ex. TELENET_LEGACY or NETCRACKER.
func (u UserDetails) System() string {
	return Record(u).String("bss_system")
}
