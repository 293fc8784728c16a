package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeRole(t *testing.T) {
	require.Equal(t, RoleAdmin, NormalizeRole("admin"))
	require.Equal(t, RoleAdmin, NormalizeRole("  ADMIN "))
	require.Equal(t, RoleStudent, NormalizeRole("student"))
	require.Equal(t, RoleStudent, NormalizeRole("professor"))
	require.Equal(t, RoleStudent, NormalizeRole(""))
}

func TestValidRole(t *testing.T) {
	require.True(t, ValidRole("admin"))
	require.True(t, ValidRole("Student"))
	require.False(t, ValidRole("superuser"))
	require.False(t, ValidRole(""))
}

func TestIsAdmin(t *testing.T) {
	require.True(t, IsAdmin(RoleAdmin))
	require.False(t, IsAdmin(RoleStudent))
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	require.NotEqual(t, "hunter22", hash)

	require.True(t, CheckPassword(hash, "hunter22"))
	require.False(t, CheckPassword(hash, "hunter23"))
}
