// Package envloader is a configuration loader for the riskconf package. It
// overlays configuration with values from the process environment and an
// optional dotenv file. The dotenv file is a developer convenience: it never
// overwrites variables already set externally, so real deployment
// environment variables always win over file-provided defaults.
//
// Flat variable names are projected into the nested configuration tree
// through a bindings table; see DefaultBindings. The locator value may name
// an alternate dotenv file:
//
//	env:
//	env:.env.local
package envloader

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/judejinjin/riskconf"
)

const errPref = "envloader"

// DefaultBindings maps process environment variables onto configuration
// tree paths. The table covers the credentials and toggles every deployment
// of the platform carries; service-specific variables are added through
// Options.Bindings.
var DefaultBindings = map[string]string{
	"AWS_ACCESS_KEY_ID":      "cloud.aws.access_key_id",
	"AWS_SECRET_ACCESS_KEY":  "cloud.aws.secret_access_key",
	"AWS_SESSION_TOKEN":      "cloud.aws.session_token",
	"AWS_DEFAULT_REGION":     "cloud.aws.region",
	"AWS_REGION":             "cloud.aws.region",
	"SECRET_KEY":             "security.secret_key",
	"JWT_SECRET_KEY":         "security.jwt_secret_key",
	"USE_PARAMETER_STORE":    "features.use_parameter_store",
	"ALLOW_INSECURE_SECRETS": "features.allow_insecure_secrets",
}

// Options configures an environment loader.
type Options struct {
	// Path is the dotenv file loaded before the process environment is
	// read. A missing file is not an error.
	Path string

	// Bindings extends DefaultBindings with additional variable-to-path
	// projections. On conflict the extension wins.
	Bindings map[string]string
}

// Loader overlays configuration with process environment variables.
type Loader struct {
	opts Options
}

// NewLoader creates a new loader instance.
func NewLoader(opts Options) *Loader {
	return &Loader{
		opts: opts,
	}
}

// Load imports bound environment variables into a configuration layer.
func (l *Loader) Load(loc *riskconf.Locator) (any, error) {
	path := l.opts.Path

	if loc.Value != "" {
		path = loc.Value
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			// godotenv never overwrites variables already present in the
			// process environment.
			if err := godotenv.Load(path); err != nil {
				return nil, fmt.Errorf("%s: cannot load %s: %w", errPref, path, err)
			}
		}
	}

	config := make(riskconf.M)
	bind(config, DefaultBindings)
	bind(config, l.opts.Bindings)

	if len(config) == 0 {
		return nil, nil
	}

	return config, nil
}

func bind(config riskconf.M, bindings map[string]string) {
	for envName, path := range bindings {
		value, ok := os.LookupEnv(envName)

		if !ok || value == "" {
			continue
		}

		setPath(config, path, value)
	}
}

func setPath(config riskconf.M, path, value string) {
	keys := strings.Split(path, ".")
	node := config

	for _, key := range keys[:len(keys)-1] {
		child, ok := node[key].(riskconf.M)

		if !ok {
			child = make(riskconf.M)
			node[key] = child
		}

		node = child
	}

	node[keys[len(keys)-1]] = value
}
