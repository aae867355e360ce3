package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLoginAuthenticate(t *testing.T) {
	setupTestDB(t)
	ps := NewProfileService()

	profile, err := ps.Register(testCtx(), "biscuit_mom", "Biscuit's Mom", "", "squeaky-toy-42")
	require.NoError(t, err)
	require.NotZero(t, profile.ID)
	assert.NotEqual(t, "squeaky-toy-42", profile.Password)

	token, userID, err := ps.Login(testCtx(), "biscuit_mom", "squeaky-toy-42")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, userID)
	require.NotEmpty(t, token)

	resolved, err := ps.Authenticate(testCtx(), token)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, resolved)

	require.NoError(t, ps.Logout(testCtx(), token))
	_, err = ps.Authenticate(testCtx(), token)
	var permissionErr *PermissionError
	require.ErrorAs(t, err, &permissionErr)
}

func TestRegisterDuplicateNickname(t *testing.T) {
	setupTestDB(t)
	ps := NewProfileService()

	_, err := ps.Register(testCtx(), "rex", "Rex", "", "pw-one")
	require.NoError(t, err)

	_, err = ps.Register(testCtx(), "rex", "Other Rex", "", "pw-two")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestLoginWrongPassword(t *testing.T) {
	setupTestDB(t)
	ps := NewProfileService()

	_, err := ps.Register(testCtx(), "luna", "Luna", "", "correct")
	require.NoError(t, err)

	_, _, err = ps.Login(testCtx(), "luna", "wrong")
	var permissionErr *PermissionError
	require.ErrorAs(t, err, &permissionErr)

	_, _, err = ps.Login(testCtx(), "nobody", "correct")
	require.ErrorAs(t, err, &permissionErr)
}
