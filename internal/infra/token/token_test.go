package token

import (
	"testing"

	"emsforge/internal/domain/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	u := &users.User{ID: 7, Email: "jane@example.com", Role: users.RoleStudent}

	tok, err := Issue("secret", u)
	require.NoError(t, err)

	claims, err := Parse("secret", tok)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", claims["email"])
	assert.Equal(t, users.RoleStudent, claims["role"])
	assert.Equal(t, float64(7), claims["user_id"])
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tok, err := Issue("secret", &users.User{ID: 1, Email: "a@b.com"})
	require.NoError(t, err)

	_, err = Parse("other-secret", tok)
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("secret", "not-a-token")
	assert.Error(t, err)
}
