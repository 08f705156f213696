// AngelaMos | 2026
// security_test.go

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := VerifyPassword("correct horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong horse", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = HashPassword("")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestVerifyPasswordTimingSafeWithoutHash(t *testing.T) {
	ok, _, err := VerifyPasswordTimingSafe("anything", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	empty := ""
	ok, _, err = VerifyPasswordTimingSafe("anything", &empty)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckPasswordLength(t *testing.T) {
	assert.ErrorIs(t, CheckPasswordLength("short"), ErrWeakPassword)
	assert.ErrorIs(t, CheckPasswordLength("short"), ErrInvalidInput)
	assert.NoError(t, CheckPasswordLength("12345678"))
	assert.ErrorIs(t, CheckPasswordLength("ééééééé"), ErrWeakPassword)
}

func TestRefreshTokenHashing(t *testing.T) {
	token, err := GenerateRefreshToken()
	require.NoError(t, err)

	other, err := GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)

	hash := HashToken(token)
	assert.True(t, CompareTokenHash(token, hash))
	assert.False(t, CompareTokenHash(other, hash))
}

func TestPasswordTooLong(t *testing.T) {
	long := make([]rune, MaxPasswordLength+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.ErrorIs(t, CheckPasswordLength(string(long)), ErrPasswordTooLong)
}

func TestVerifyPasswordRehashesOutdatedParams(t *testing.T) {
	current := PasswordParams
	t.Cleanup(func() { PasswordParams = current })

	PasswordParams = Argon2Params{Memory: 8 * 1024, Time: 1, Threads: 1, KeyLen: 32}
	oldHash, err := HashPassword("correct horse")
	require.NoError(t, err)
	PasswordParams = current

	ok, newHash, err := VerifyPasswordWithRehash("correct horse", oldHash)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotEmpty(t, newHash)
	assert.Contains(t, newHash, "m=65536,t=1,p=4")

	ok, newHash, err = VerifyPasswordWithRehash("correct horse", newHash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, newHash)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	for _, hash := range []string{
		"",
		"plain",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=1$m=1,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1,t=1,p=1$!!$a2V5",
	} {
		_, err := VerifyPassword("anything", hash)
		assert.ErrorIs(t, err, ErrMalformedHash, hash)
	}
}
