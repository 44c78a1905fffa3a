package xfs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandTilde(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	assert.Equal(t, "/home/tester", ExpandTilde("~"))
	assert.Equal(t, filepath.Join("/home/tester", "models", "m2"), ExpandTilde("~/models/m2"))
	assert.Equal(t, "/models/m2", ExpandTilde("/models/m2"))
	assert.Equal(t, "~other/m2", ExpandTilde("~other/m2"))
}
