package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var jsonNull = []byte("null")

// Object is a JSON object that remembers the order of its keys.
// Duplicate keys keep their first position and their last value.
type Object struct {
	fields *orderedmap.OrderedMap[string, json.RawMessage]
}

func (o *Object) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return nil
	}
	fields := orderedmap.New[string, json.RawMessage]()
	if err := fields.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("decode JSON object: %w", err)
	}
	o.fields = fields
	return nil
}

// MarshalJSON writes the fields in key order.
func (o Object) MarshalJSON() ([]byte, error) {
	if o.fields == nil {
		return []byte("{}"), nil
	}
	return o.fields.MarshalJSON()
}

// Keys returns the field names in payload order.
func (o Object) Keys() []string {
	if o.fields == nil {
		return nil
	}
	keys := make([]string, 0, o.fields.Len())
	for pair := o.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Field returns the raw value of key.
func (o Object) Field(key string) (json.RawMessage, bool) {
	if o.fields == nil {
		return nil, false
	}
	return o.fields.Get(key)
}

// Has reports whether key is present, even with a null value.
func (o Object) Has(key string) bool {
	_, ok := o.Field(key)
	return ok
}

// Set appends or replaces a field with the JSON encoding of v.
func (o *Object) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if o.fields == nil {
		o.fields = orderedmap.New[string, json.RawMessage]()
	}
	o.fields.Set(key, raw)
	return nil
}

func (o Object) Len() int {
	if o.fields == nil {
		return 0
	}
	return o.fields.Len()
}

// TickerValues is a ticker -> number mapping in payload order.
type TickerValues struct {
	values *orderedmap.OrderedMap[string, float64]
}

// NewTickerValues builds a TickerValues from parallel slices.
func NewTickerValues(keys []string, values []float64) *TickerValues {
	tv := &TickerValues{values: orderedmap.New[string, float64](len(keys))}
	for i, k := range keys {
		tv.values.Set(k, values[i])
	}
	return tv
}

// UnmarshalJSON rejects null and non-numeric values instead of reading them as 0.
func (tv *TickerValues) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return nil
	}
	var obj Object
	if err := obj.UnmarshalJSON(data); err != nil {
		return err
	}
	values := orderedmap.New[string, float64](obj.Len())
	for pair := obj.fields.Oldest(); pair != nil; pair = pair.Next() {
		if bytes.Equal(bytes.TrimSpace(pair.Value), jsonNull) {
			return fmt.Errorf("value for %q is null", pair.Key)
		}
		var v float64
		if err := json.Unmarshal(pair.Value, &v); err != nil {
			return fmt.Errorf("value for %q is not a number: %w", pair.Key, err)
		}
		values.Set(pair.Key, v)
	}
	tv.values = values
	return nil
}

func (tv TickerValues) MarshalJSON() ([]byte, error) {
	if tv.values == nil {
		return []byte("{}"), nil
	}
	return tv.values.MarshalJSON()
}

// Keys returns the tickers in payload order.
func (tv *TickerValues) Keys() []string {
	if tv == nil || tv.values == nil {
		return nil
	}
	keys := make([]string, 0, tv.values.Len())
	for pair := tv.values.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Lookup returns the value for ticker and whether it is present.
func (tv *TickerValues) Lookup(ticker string) (float64, bool) {
	if tv == nil || tv.values == nil {
		return 0, false
	}
	return tv.values.Get(ticker)
}

// Len returns the number of tickers.
func (tv *TickerValues) Len() int {
	if tv == nil || tv.values == nil {
		return 0
	}
	return tv.values.Len()
}
