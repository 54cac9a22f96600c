package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	j := &JWTer{Secret: []byte("s3cret"), Issuer: "anime-shop", TTL: time.Hour}
	tok, exp, err := j.Issue("u1", "a@b.c", []string{"Customer", "Staff"})
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UID)
	assert.Equal(t, []string{"Customer", "Staff"}, c.Roles)
	assert.True(t, c.HasAnyRole("Admin", "Staff"))
	assert.False(t, c.HasAnyRole("Admin"))
	assert.True(t, c.HasAnyRole())
}

func TestParseRejectsForeignToken(t *testing.T) {
	a := &JWTer{Secret: []byte("a"), Issuer: "anime-shop", TTL: time.Hour}
	b := &JWTer{Secret: []byte("b"), Issuer: "anime-shop", TTL: time.Hour}
	tok, _, err := a.Issue("u1", "", nil)
	require.NoError(t, err)
	_, err = b.Parse(tok)
	assert.Error(t, err)

	other := &JWTer{Secret: []byte("a"), Issuer: "someone-else", TTL: time.Hour}
	_, err = other.Parse(tok)
	assert.Error(t, err)
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", UserID(ctx))
	assert.False(t, HasAnyRole(ctx))

	ctx = WithClaims(ctx, &Claims{UID: "u9", Roles: []string{"Admin"}})
	assert.Equal(t, "u9", UserID(ctx))
	assert.True(t, HasAnyRole(ctx, "Admin"))
}
