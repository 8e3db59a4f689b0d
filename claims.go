package idtoken

import (
	"encoding/json"
	"time"
)

// Claims is the decoded payload of an ID token. A Claims value returned by
// Verifier.Verify has already passed every policy check; one returned by
// ParsePayload has not been verified at all.
//
// Values are the raw JSON decodings: strings, bools, float64 numbers, and
// []interface{} for arrays. Use the accessors rather than fishing in the map.
type Claims map[string]interface{}

// Issuer returns the `iss` claim, or "" if absent.
func (c Claims) Issuer() string {
	return c.String("iss")
}

// Subject returns the `sub` claim, the stable per-user identifier, or "" if
// absent.
func (c Claims) Subject() string {
	return c.String("sub")
}

// Audiences returns the `aud` claim as a set. Tokens carry either a single
// audience string or a collection; both are normalized to a slice. Returns
// nil when the claim is absent or not audience-shaped.
func (c Claims) Audiences() []string {
	switch aud := c["aud"].(type) {
	case string:
		if aud == "" {
			return nil
		}
		return []string{aud}
	case []string:
		return aud
	case []interface{}:
		var out []string
		for _, v := range aud {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// ExpiresAt returns the `exp` claim as an absolute timestamp. ok is false
// when the claim is absent or malformed.
func (c Claims) ExpiresAt() (exp time.Time, ok bool) {
	switch v := c["exp"].(type) {
	case float64:
		return time.Unix(int64(v), 0), true
	case int64:
		return time.Unix(v, 0), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return time.Unix(n, 0), true
		}
	}
	return time.Time{}, false
}

// String returns the named claim if it is present and a string, "" otherwise.
func (c Claims) String(name string) string {
	s, _ := c[name].(string)
	return s
}

// Bool returns the named claim if it is present and a bool.
func (c Claims) Bool(name string) (value, ok bool) {
	value, ok = c[name].(bool)
	return
}

// subset copies only the named claims, for error reporting.
func (c Claims) subset(names ...string) Claims {
	out := Claims{}
	for _, name := range names {
		if v, ok := c[name]; ok {
			out[name] = v
		}
	}
	return out
}
