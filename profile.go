package idtoken

import (
	"google.golang.org/grpc/codes"

	"github.com/dpup/idtoken/errors"
)

// ErrNotClaims is returned by Project when the value passed is not a claims
// record — most commonly a raw encoded token that was never verified.
var ErrNotClaims = errors.NewC("idtoken: value is not a claims record", codes.InvalidArgument)

// Profile is the fixed display shape derived from a verified claim set,
// intended for consumption by UI layers. Fields mirror the corresponding
// claims one-for-one; a claim absent from the token leaves its field empty.
type Profile struct {
	// UserID is the stable per-user identifier, from `sub`.
	UserID string `json:"user_id"`

	// Email address, from `email`.
	Email string `json:"email,omitempty"`

	// EmailVerified reports whether Google verified the address, from
	// `email_verified`. Nil when the claim is absent.
	EmailVerified *bool `json:"email_verified,omitempty"`

	// FullName, from `name`.
	FullName string `json:"full_name,omitempty"`

	// GivenName, from `given_name`.
	GivenName string `json:"given_name,omitempty"`

	// FamilyName, from `family_name`.
	FamilyName string `json:"family_name,omitempty"`

	// PictureURL points at the user's avatar, from `picture`.
	PictureURL string `json:"picture_url,omitempty"`
}

// Project maps a verified claim set onto a Profile. It is a pure field
// projection: no defaulting, no validation of individual values. A nil input
// yields a nil profile, which is the identity case and not an error; any
// value that is not claims-shaped yields ErrNotClaims.
func Project(v interface{}) (*Profile, error) {
	switch c := v.(type) {
	case nil:
		return nil, nil
	case Claims:
		if c == nil {
			return nil, nil
		}
		return projectClaims(c), nil
	case map[string]interface{}:
		if c == nil {
			return nil, nil
		}
		return projectClaims(Claims(c)), nil
	}
	return nil, errors.Mark(ErrNotClaims, 0)
}

func projectClaims(c Claims) *Profile {
	p := &Profile{
		UserID:     c.String("sub"),
		Email:      c.String("email"),
		FullName:   c.String("name"),
		GivenName:  c.String("given_name"),
		FamilyName: c.String("family_name"),
		PictureURL: c.String("picture"),
	}
	if verified, ok := c.Bool("email_verified"); ok {
		p.EmailVerified = &verified
	}
	return p
}
