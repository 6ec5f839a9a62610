package protocol

import "time"

// Payload is the loosely typed key/value mapping carried by actions and
// responses. Values coming off the wire follow encoding/json conventions:
// numbers are float64, nested mappings are map[string]any.
type Payload map[string]any

// Get returns the raw value for key.
func (p Payload) Get(key string) (any, bool) {
	v, ok := p[key]
	return v, ok
}

// Has reports whether key is present, regardless of its value.
func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns the value for key when it is a non-empty string.
func (p Payload) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// StringOr returns the string value for key, or def when the key is missing
// or not a string.
func (p Payload) StringOr(key, def string) string {
	s, ok := p.String(key)
	if !ok {
		return def
	}
	return s
}

// Seconds interprets the value for key as a duration in seconds. Missing,
// non-numeric, and non-positive values fall back to def.
func (p Payload) Seconds(key string, def time.Duration) time.Duration {
	v, ok := p[key]
	if !ok {
		return def
	}

	var secs float64
	switch n := v.(type) {
	case float64:
		secs = n
	case int:
		secs = float64(n)
	case int64:
		secs = float64(n)
	default:
		return def
	}

	if secs <= 0 {
		return def
	}
	return time.Duration(secs * float64(time.Second))
}
