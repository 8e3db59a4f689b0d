// Package keyset manages the public keys used to verify Google ID token
// signatures. A Source yields the current candidate keys; the Remote source
// fetches them from Google's well-known JWKS endpoint, and Cache layers
// HTTP cache semantics on top so repeated verifications don't repeatedly
// hit the network.
package keyset

import (
	"context"
	"crypto"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"google.golang.org/grpc/codes"

	"github.com/dpup/idtoken/errors"
)

// GoogleCertsURL is the well-known endpoint where Google publishes the JWKS
// used to sign ID tokens. Keys rotate periodically; previously published
// keys remain valid for outstanding tokens until dropped from the set.
const GoogleCertsURL = "https://www.googleapis.com/oauth2/v3/certs"

// Key is a single candidate verification key, decoded from its JWK form.
type Key struct {
	// ID is the key's `kid`. May be empty for pinned keys.
	ID string

	// Algorithm is the JWS algorithm the key was published for, e.g.
	// "RS256". May be empty if the JWKS omits `alg`.
	Algorithm string

	// Public is the decoded public key, typically *rsa.PublicKey or
	// *ecdsa.PublicKey.
	Public crypto.PublicKey
}

// Source yields the current set of candidate verification keys. The order of
// the returned slice is the order in which keys should be trialed; callers
// must not mutate it.
type Source interface {
	Keys(ctx context.Context) ([]Key, error)
}

// Static returns a Source backed by a fixed list of keys. It never fails and
// never caches; there is nothing to refresh. Useful for tests and for
// pinning a known key.
func Static(keys ...Key) Source {
	return staticSource(keys)
}

type staticSource []Key

func (s staticSource) Keys(ctx context.Context) ([]Key, error) {
	return s, nil
}

// FetchError reports a failed attempt to retrieve or parse a remote key set.
type FetchError struct {
	// URL of the key set endpoint.
	URL string

	// Status is the HTTP status code when a response was received but
	// unusable. Zero for transport-level failures.
	Status int

	// Err is the underlying transport or parse failure.
	Err error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("keyset: fetching %s failed with status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("keyset: fetching %s failed: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Code classifies fetch failures for errors.Code and errors.HTTPStatusCode.
func (e *FetchError) Code() codes.Code {
	return codes.Unavailable
}

// ParseJWKS decodes a JSON Web Key Set document into candidate keys,
// preserving the order elements appear in the document. Private key material
// in the document is reduced to its public part.
func ParseJWKS(data []byte) ([]Key, error) {
	set, err := jwk.Parse(data)
	if err != nil {
		return nil, errors.WrapPrefix(err, "keyset: invalid JWKS document", 0)
	}
	public, err := jwk.PublicSetOf(set)
	if err != nil {
		return nil, errors.WrapPrefix(err, "keyset: invalid JWKS document", 0)
	}

	keys := make([]Key, 0, public.Len())
	for i := 0; i < public.Len(); i++ {
		k, ok := public.Key(i)
		if !ok {
			continue
		}
		var raw interface{}
		if err := k.Raw(&raw); err != nil {
			return nil, errors.WrapPrefix(err, "keyset: unusable key in JWKS document", 0)
		}
		keys = append(keys, Key{
			ID:        k.KeyID(),
			Algorithm: k.Algorithm().String(),
			Public:    raw,
		})
	}
	return keys, nil
}
