package env

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ekisa-team/stronghold/internal/envvar"
)

func TestParse(t *testing.T) {
	assert.Equal(t, Production, Parse("production"))
	assert.Equal(t, Production, Parse(" PROD "))
	assert.Equal(t, Development, Parse(""))
	assert.Equal(t, Development, Parse("staging"))
}

func TestFromEnv(t *testing.T) {
	t.Setenv(envvar.StrongholdEnv, "production")
	assert.True(t, FromEnv().IsProduction())

	t.Setenv(envvar.StrongholdEnv, "")
	assert.False(t, FromEnv().IsProduction())
}
