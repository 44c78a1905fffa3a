package env

import (
	"os"
	"strings"

	"github.com/ekisa-team/stronghold/internal/envvar"
)

// Environment is the deployment environment the process runs in.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// FromEnv reads the environment from STRONGHOLD_ENV, defaulting to development.
func FromEnv() Environment {
	return Parse(os.Getenv(envvar.StrongholdEnv))
}

// Parse converts a string into an Environment. Unknown values map to development.
func Parse(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prod", "production":
		return Production
	default:
		return Development
	}
}

// IsProduction reports whether e is the production environment.
func (e Environment) IsProduction() bool {
	return e == Production
}
