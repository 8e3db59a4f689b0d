// Package idtoken verifies Google-issued identity tokens.
//
// Given an encoded token, a Verifier checks that it was signed by a holder
// of one of Google's published signing keys and that its claims satisfy a
// fixed policy: issued by Google, addressed to one of the accepted audiences
// (your OAuth client IDs), and not yet expired. Signing keys rotate, so the
// verifier trial-decodes against every candidate key; the keys themselves
// are fetched from Google's well-known JWKS endpoint and reused across calls
// per the response's HTTP cache headers.
//
// Basic usage:
//
//	v := idtoken.New(idtoken.WithAudiences("client-123.apps.googleusercontent.com"))
//	claims, err := v.Verify(ctx, encodedToken)
//	if err != nil {
//	    // Token is not from Google, or is from Google but doesn't apply here.
//	}
//	profile, _ := idtoken.Project(claims)
//
// Verification failures are typed: a *DecodeSignatureError means the token
// could not be cryptographically verified, a *InvalidClaimsError means the
// signature checked out but policy did not. Callers should treat both as
// "not authenticated" and keep the structured error for logs; claim values
// inside the errors are sensitive diagnostic data.
package idtoken

import (
	"context"
	"net/http"
	"strings"
	"time"

	"google.golang.org/grpc/codes"

	"github.com/dpup/idtoken/errors"
	"github.com/dpup/idtoken/internal/config"
	"github.com/dpup/idtoken/keyset"
	"github.com/dpup/idtoken/logging"
)

// The two issuer values Google stamps on ID tokens. Both are always
// accepted; which one appears depends on which Google library minted the
// token.
const (
	issuerGoogle      = "accounts.google.com"
	issuerGoogleHTTPS = "https://accounts.google.com"
)

// Names of the claim checks reported by InvalidClaimsError.
const (
	CheckIssuer   = "issuer"
	CheckAudience = "audience"
	CheckExpiry   = "expiry"
)

// Option configures a Verifier.
type Option func(*Verifier)

// WithAudiences sets the audience identifiers the verifier accepts. A token
// passes the audience check iff its audience claim intersects this set; with
// no accepted audiences configured every token fails the check.
func WithAudiences(audiences ...string) Option {
	return func(v *Verifier) {
		v.audiences = append(v.audiences, audiences...)
	}
}

// WithKeySource substitutes the source of verification keys, replacing the
// default cached remote fetch. The caller keeps ownership of any cache the
// source wraps, so it can be shared across verifiers explicitly.
func WithKeySource(src keyset.Source) Option {
	return func(v *Verifier) {
		v.source = src
	}
}

// WithKeys pins a static key list, bypassing remote fetch entirely. Useful
// for tests and air-gapped deployments.
func WithKeys(keys ...keyset.Key) Option {
	return func(v *Verifier) {
		v.source = keyset.Static(keys...)
	}
}

// WithHTTPClient substitutes the HTTP client used by the default remote key
// source. Ignored if WithKeySource or WithKeys is also given.
func WithHTTPClient(client *http.Client) Option {
	return func(v *Verifier) {
		v.httpClient = client
	}
}

// WithClock substitutes the time source used for the expiry check, for
// tests.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// New creates a Verifier. With no options, accepted audiences come from the
// `idtoken.audiences` config key and keys are fetched from Google's JWKS
// endpoint through a verifier-owned cache.
func New(opts ...Option) *Verifier {
	config.EnsureDefaultsLoaded(Config)

	v := &Verifier{now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	if v.audiences == nil {
		v.audiences = Config.Strings("idtoken.audiences")
	}
	if v.source == nil {
		remote := keyset.NewRemote(
			keyset.WithURL(Config.String("idtoken.certsUrl")),
			keyset.WithTimeout(Config.Duration("idtoken.httpTimeout")),
			keyset.WithHTTPClient(v.httpClient),
		)
		if Config.Bool("idtoken.cache.enabled") {
			v.source = keyset.NewCache(remote, keyset.WithMinTTL(Config.Duration("idtoken.cache.minTtl")))
		} else {
			v.source = remote
		}
	}
	return v
}

// Verifier validates encoded ID tokens against Google's signing keys and a
// fixed claim policy. Construct once and hold for the application's
// lifetime; it is stateless across calls except through its key cache, and
// safe for concurrent use.
type Verifier struct {
	audiences  []string
	source     keyset.Source
	httpClient *http.Client
	now        func() time.Time
}

// Verify decodes the token, validates its signature against the current key
// set, and applies the issuer, audience, and expiry checks. On success the
// decoded claims are returned unchanged. Failures are either a
// *DecodeSignatureError or a *InvalidClaimsError.
func (v *Verifier) Verify(ctx context.Context, token string) (Claims, error) {
	keys, err := v.source.Keys(ctx)
	if err != nil {
		// Key unavailability means the signature cannot be checked, which is
		// indistinguishable from an unverifiable token.
		return nil, &DecodeSignatureError{Err: err}
	}

	// Trial-decode in source order. The signer isn't known a priori, so the
	// first key that verifies wins; an older still-published key may have
	// signed an outstanding token.
	var claims Claims
	var lastErr error
	for _, key := range keys {
		c, err := decode(token, key)
		if err != nil {
			lastErr = err
			continue
		}
		claims = c
		logging.Debugw(ctx, "idtoken: signature verified", "kid", key.ID)
		break
	}
	if claims == nil {
		if lastErr == nil {
			lastErr = errors.New("no verification keys available")
		}
		return nil, &DecodeSignatureError{Err: lastErr}
	}

	// The three checks are applied independently so the error reports
	// exactly which ones failed.
	var failed []string
	if iss := claims.Issuer(); iss != issuerGoogle && iss != issuerGoogleHTTPS {
		failed = append(failed, CheckIssuer)
	}
	if !intersects(claims.Audiences(), v.audiences) {
		failed = append(failed, CheckAudience)
	}
	if exp, ok := claims.ExpiresAt(); !ok || !exp.After(v.now()) {
		failed = append(failed, CheckExpiry)
	}
	if len(failed) > 0 {
		logging.Warnw(ctx, "idtoken: token rejected", "checks", failed, "sub", claims.Subject())
		return nil, &InvalidClaimsError{
			Failed: failed,
			Claims: claims.subset("iss", "aud", "exp"),
		}
	}

	return claims, nil
}

func intersects(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

// DecodeSignatureError indicates the token could not be cryptographically
// verified: it is structurally malformed, uses an unsupported signing
// algorithm, its signature matches none of the candidate keys, or the keys
// themselves could not be obtained.
type DecodeSignatureError struct {
	// Err is the last underlying decode failure, kept for diagnostics.
	Err error
}

func (e *DecodeSignatureError) Error() string {
	return "idtoken: token could not be verified: " + e.Err.Error()
}

func (e *DecodeSignatureError) Unwrap() error {
	return e.Err
}

// Code classifies the failure for errors.Code and errors.HTTPStatusCode.
func (e *DecodeSignatureError) Code() codes.Code {
	return codes.Unauthenticated
}

// InvalidClaimsError indicates the token's signature verified but one or
// more claim checks failed: the token is genuinely from its signer, it just
// doesn't apply here. The offending claim values are retained for
// developer-facing logs and must not be shown to end users.
type InvalidClaimsError struct {
	// Failed names the checks that did not pass, a subset of CheckIssuer,
	// CheckAudience, CheckExpiry.
	Failed []string

	// Claims holds the actual issuer, audience, and expiry claim values.
	Claims Claims
}

func (e *InvalidClaimsError) Error() string {
	return "idtoken: claims failed checks: " + strings.Join(e.Failed, ", ")
}

// Code classifies the failure for errors.Code and errors.HTTPStatusCode.
func (e *InvalidClaimsError) Code() codes.Code {
	return codes.PermissionDenied
}
