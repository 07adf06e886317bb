package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteCommandsRegistered(t *testing.T) {
	for _, name := range []string{"category", "brand", "product", "variant"} {
		cmd, _, err := rootCmd.Find([]string{"delete", name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
	for _, name := range []string{"sweep", "migrate"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestDeleteRejectsBadID(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	defer rootCmd.SetArgs(nil)

	for _, args := range [][]string{
		{"delete", "product", "abc"},
		{"delete", "category", "0"},
	} {
		rootCmd.SetArgs(args)
		err := rootCmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid")
	}

	rootCmd.SetArgs([]string{"delete", "brand"})
	assert.Error(t, rootCmd.Execute())
}
