package idtoken

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/dpup/idtoken/errors"
	"github.com/dpup/idtoken/keyset"
)

// Google signs ID tokens with RS256; ES256 is also accepted for forward
// compatibility with the certs endpoint publishing EC keys.
var supportedAlgs = []string{"RS256", "ES256"}

var parser = jwt.NewParser(
	jwt.WithValidMethods(supportedAlgs),
	// Claim checks are the Verifier's job; the decoder is purely structural
	// and cryptographic, with no dependence on the wall clock.
	jwt.WithoutClaimsValidation(),
)

// decode parses the token's envelope and verifies its signature with a
// single candidate key. Structural malformation, an unsupported algorithm,
// or a signature mismatch all fail; claims are returned as-is, unchecked.
func decode(token string, key keyset.Key) (Claims, error) {
	claims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return key.Public, nil
	})
	if err != nil {
		return nil, err
	}
	return Claims(claims), nil
}

// ParsePayload decodes a token's claims WITHOUT verifying its signature.
// Useful for logging and debugging; never trust the result.
func ParsePayload(token string) (Claims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, errors.WrapPrefix(err, "idtoken: malformed token", 0)
	}
	return Claims(claims), nil
}
