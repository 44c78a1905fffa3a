package bundled

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	assert.Contains(t, Names(), "basic-v1.zip")
}

func TestFS(t *testing.T) {
	data, err := fs.ReadFile(FS(), "basic-v1.zip")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
