package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func writeDotenv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func unsetAfterTest(t *testing.T, key string) {
	t.Helper()
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() { _ = os.Unsetenv(key) })
}

func TestLoadDotenv_Valid(t *testing.T) {
	unsetAfterTest(t, "ECONSTORE_DOTENV_VALID")
	core, logs := observer.New(zap.WarnLevel)

	LoadDotenv(zap.New(core), writeDotenv(t, "ECONSTORE_DOTENV_VALID=yes\n"))

	assert.Equal(t, "yes", os.Getenv("ECONSTORE_DOTENV_VALID"))
	assert.Zero(t, logs.Len())
}

func TestLoadDotenv_MissingIsSilent(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	LoadDotenv(zap.New(core), filepath.Join(t.TempDir(), "absent.env"))

	assert.Zero(t, logs.Len())
}

func TestLoadDotenv_MalformedIsLogged(t *testing.T) {
	unsetAfterTest(t, "ECONSTORE_DOTENV_BROKEN")
	core, logs := observer.New(zap.WarnLevel)
	path := writeDotenv(t, "ECONSTORE_DOTENV_BROKEN=\"unterminated\n")

	LoadDotenv(zap.New(core), path)

	entries := logs.FilterMessage("Skipping dotenv file").All()
	require.Len(t, entries, 1)
	assert.Equal(t, path, entries[0].ContextMap()["path"])
	assert.Empty(t, os.Getenv("ECONSTORE_DOTENV_BROKEN"))
}
