package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestNewApp(t *testing.T) {
	app := newApp()
	require.NotNil(t, app)
	assert.Equal(t, "revtrust", app.Name)
	assert.NotNil(t, app.Before)
	assert.NotNil(t, app.After)

	names := make([]string, 0, len(app.Commands))
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{"auth", "import", "precompute", "trust", "server"}, names)
}

func TestGetHomeDir(t *testing.T) {
	assert.NotEmpty(t, getHomeDir())
}

func TestReadReviewsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews.json")
	require.NoError(t, os.WriteFile(path, []byte(
		`[{"text":"great product","rating":5},{"text":"MUST BUY","rating":5}]`), 0600))

	reviews, err := readReviewsFile(path)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "great product", reviews[0].Text)
	assert.Equal(t, 5.0, reviews[0].Rating)
}

func TestReadReviewsFile_Errors(t *testing.T) {
	_, err := readReviewsFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))
	_, err = readReviewsFile(path)
	assert.Error(t, err)
}

func TestOracleKeyRoundtrip(t *testing.T) {
	keyring.MockInit()
	home := t.TempDir()

	require.NoError(t, saveOracleKey(home, "secret-key"))
	assert.Equal(t, "secret-key", getOracleKey(home))
}

func TestOracleKey_EnvWins(t *testing.T) {
	keyring.MockInit()
	home := t.TempDir()
	require.NoError(t, saveOracleKey(home, "stored-key"))

	t.Setenv(keyEnvVar, "env-key")
	assert.Equal(t, "env-key", getOracleKey(home))
}

func TestOracleKey_FileFallback(t *testing.T) {
	t.Setenv(keyEnvVar, "")
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, keyFileName), []byte("file-key\n"), 0600))

	// no keyring entry under this service in the mock
	keyring.MockInitWithError(os.ErrNotExist)
	assert.Equal(t, "file-key", getOracleKey(home))
}

func TestOracleKey_Unset(t *testing.T) {
	t.Setenv(keyEnvVar, "")
	keyring.MockInitWithError(os.ErrNotExist)
	assert.Empty(t, getOracleKey(t.TempDir()))
}
