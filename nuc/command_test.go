package nuc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	for _, str := range []string{"/", "/nil", "/nil/db/read"} {
		cmd, err := ParseCommand(str)
		require.NoError(t, err)
		require.Equal(t, str, cmd.String())
	}
	for _, str := range []string{"", "nil", "nil/db"} {
		_, err := ParseCommand(str)
		require.Error(t, err, "expected %q to fail", str)
	}
}

func TestSegments(t *testing.T) {
	require.Nil(t, Command("/").Segments())
	require.Equal(t, []string{"nil", "db"}, Command("/nil/db").Segments())
	// empty components are filtered
	require.Equal(t, []string{"nil", "db"}, Command("/nil//db/").Segments())
}

func TestIsAttenuationOf(t *testing.T) {
	require.True(t, Command("/a/b/c").IsAttenuationOf("/a"))
	require.True(t, Command("/a/b/c").IsAttenuationOf("/a/b"))
	require.True(t, Command("/a/b/c").IsAttenuationOf("/a/b/c"))
	require.False(t, Command("/a/b").IsAttenuationOf("/a/c"))
	require.False(t, Command("/a").IsAttenuationOf("/a/b"))
	require.False(t, Command("/other").IsAttenuationOf("/nil"))

	// anything attenuates the root
	require.True(t, Command("/a").IsAttenuationOf("/"))
	require.True(t, Command("/").IsAttenuationOf("/"))

	// the revoke command attenuates everything
	require.True(t, RevokeCommand.IsAttenuationOf("/nil/db"))
	require.True(t, RevokeCommand.IsAttenuationOf("/"))
}
