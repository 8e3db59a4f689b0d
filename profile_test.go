package idtoken

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/idtoken/errors"
)

func TestProjectIdentityCases(t *testing.T) {
	p, err := Project(nil)
	require.NoError(t, err)
	assert.Nil(t, p, "absent input maps to absent output")

	var c Claims
	p, err = Project(c)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestProjectFullClaims(t *testing.T) {
	claims := Claims{
		"sub":            "110169484474386276334",
		"email":          "jane@example.com",
		"email_verified": true,
		"name":           "Jane Doe",
		"given_name":     "Jane",
		"family_name":    "Doe",
		"picture":        "https://example.com/jane.jpg",
		"iss":            "accounts.google.com",
	}

	p, err := Project(claims)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "110169484474386276334", p.UserID)
	assert.Equal(t, "jane@example.com", p.Email)
	require.NotNil(t, p.EmailVerified)
	assert.True(t, *p.EmailVerified)
	assert.Equal(t, "Jane Doe", p.FullName)
	assert.Equal(t, "Jane", p.GivenName)
	assert.Equal(t, "Doe", p.FamilyName)
	assert.Equal(t, "https://example.com/jane.jpg", p.PictureURL)
}

func TestProjectMissingFieldsStayAbsent(t *testing.T) {
	p, err := Project(Claims{"sub": "12345", "email": "j@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "12345", p.UserID)
	assert.Empty(t, p.PictureURL, "missing picture is absent, not an error")
	assert.Nil(t, p.EmailVerified)
	assert.Empty(t, p.FullName)
}

func TestProjectRejectsNonClaims(t *testing.T) {
	// A raw encoded token passed where verified claims were expected.
	_, err := Project("eyJhbGciOiJSUzI1NiJ9.e30.sig")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotClaims))

	_, err = Project(42)
	assert.True(t, errors.Is(err, ErrNotClaims))

	_, err = Project([]string{"not", "claims"})
	assert.True(t, errors.Is(err, ErrNotClaims))
}

func TestProjectAcceptsPlainMap(t *testing.T) {
	p, err := Project(map[string]interface{}{"sub": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "abc", p.UserID)
}
