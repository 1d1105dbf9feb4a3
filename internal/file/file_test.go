package file

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExists(t *testing.T) {
	dir, err := ioutil.TempDir("", "bbdata-file")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	file := filepath.Join(dir, "config")
	require.False(t, Exists(file))
	require.NoError(t, ioutil.WriteFile(file, []byte("{}"), 0644))
	require.True(t, Exists(file))
}
