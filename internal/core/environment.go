package core

import "strings"

// Environment is the deployment stage the assistant runs in. It drives the
// logger format and whether verbose provider traces are emitted.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

func (e Environment) String() string {
	return string(e)
}

// IsProduction reports whether the environment corresponds to production.
func (e Environment) IsProduction() bool {
	return e == Production
}

// Quiet reports whether log output should be suppressed entirely (unit tests).
func (e Environment) Quiet() bool {
	return e == Testing
}

// ParseEnvironment normalises APP_ENV into one of the known environments.
// Unknown or empty values fall back to Development.
func ParseEnvironment(v string) Environment {
	switch Environment(strings.ToLower(strings.TrimSpace(v))) {
	case Production, "prod":
		return Production
	case Staging:
		return Staging
	case Testing, "test":
		return Testing
	default:
		return Development
	}
}
