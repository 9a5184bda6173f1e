package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mitra-laporan-api/internal/models"
	"github.com/noah-isme/mitra-laporan-api/internal/service"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTokenCommandIssuesVerifiableToken(t *testing.T) {
	out, err := execute(t, "token", "--secret", "s3cret", "--role", "mitra", "--partner", "Acme", "--user", "u-9")
	require.NoError(t, err)

	claims, err := service.NewAccessService("s3cret").ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, models.RoleMitra, claims.Role)
	assert.Equal(t, "Acme", claims.PartnerName)
	assert.Equal(t, "u-9", claims.UserID)
}

func TestTokenCommandValidatesFlags(t *testing.T) {
	_, err := execute(t, "token", "--secret", "s", "--role", "guest")
	assert.ErrorContains(t, err, "role must be")

	_, err = execute(t, "token", "--secret", "s", "--role", "MITRA")
	assert.ErrorContains(t, err, "--partner")
}

func TestRootListsCommands(t *testing.T) {
	root := newRootCmd()
	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"migrate", "sweep", "token", "cache"})
}

func TestCacheFlushRejectsUnknownNamespace(t *testing.T) {
	_, err := execute(t, "cache", "flush", "unknown")
	assert.ErrorContains(t, err, "invalid argument")
}
