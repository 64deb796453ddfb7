package riskconf

import (
	"os"
	"strings"

	"go.uber.org/zap"
)

// Environment is a deployment stage. It determines which override document
// and which remote parameter-store path prefix apply, and it is resolved
// exactly once per process lifetime.
type Environment string

// The closed set of deployment stages.
const (
	Development Environment = "dev"
	UAT         Environment = "uat"
	Production  Environment = "prod"
)

// EnvVar is the process environment variable holding the deployment stage.
const EnvVar = "ENV"

// ParseEnvironment normalizes a raw stage name. Matching is
// case-insensitive and accepts both short and long spellings.
func ParseEnvironment(raw string) (Environment, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "dev", "development":
		return Development, true
	case "uat", "user-acceptance-test":
		return UAT, true
	case "prod", "production":
		return Production, true
	}

	return "", false
}

// DetectEnvironment reads the deployment stage from EnvVar. Unset or
// unrecognized values fall back to Development; an unrecognized value is
// logged as a warning. DetectEnvironment never fails.
func DetectEnvironment(log *zap.Logger) Environment {
	if log == nil {
		log = zap.NewNop()
	}

	raw := os.Getenv(EnvVar)
	env, ok := ParseEnvironment(raw)

	if !ok {
		if raw != "" {
			log.Warn("unrecognized deployment environment, falling back to development",
				zap.String("variable", EnvVar), zap.String("value", raw))
		}

		return Development
	}

	return env
}
