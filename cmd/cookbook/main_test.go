package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/cookbook/internal/auth"
	"github.com/Kerhoff/cookbook/internal/config"
	"github.com/Kerhoff/cookbook/pkg/logger"
)

func TestHashPasswordCmd(t *testing.T) {
	t.Run("FromArgument", func(t *testing.T) {
		cmd := hashPasswordCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"s3cret"})
		require.NoError(t, cmd.Execute())

		assert.True(t, auth.VerifyPassword(strings.TrimSpace(out.String()), "s3cret"))
	})

	t.Run("FromStdin", func(t *testing.T) {
		cmd := hashPasswordCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetIn(strings.NewReader("hunter2\n"))
		cmd.SetArgs([]string{})
		require.NoError(t, cmd.Execute())

		assert.True(t, auth.VerifyPassword(strings.TrimSpace(out.String()), "hunter2"))
	})

	t.Run("Empty", func(t *testing.T) {
		cmd := hashPasswordCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetIn(strings.NewReader("\n"))
		cmd.SetArgs([]string{})
		assert.Error(t, cmd.Execute())
	})
}

func TestOpenStoreInMemory(t *testing.T) {
	repos, db, err := openStore(&config.Config{}, logger.Discard())
	require.NoError(t, err)
	assert.Nil(t, db)
	assert.NotNil(t, repos.Lists)
	assert.NotNil(t, repos.Items)
}
