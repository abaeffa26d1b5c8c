package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAllowList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.txt")
	require.NoError(t, os.WriteFile(path, []byte("B001\n  B002  \n\nB003\n"), 0600))

	allow, err := readAllowList(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"B001": true, "B002": true, "B003": true}, allow)
}

func TestReadAllowList_MissingFile(t *testing.T) {
	_, err := readAllowList(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}
