package riskconf

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/iph0/merger"
	"go.uber.org/zap"
)

const errPref = "riskconf"

// envToken is the placeholder substituted with the effective environment
// name in configuration locators.
const envToken = "{env}"

// DefaultRemoteTimeout bounds a single remote parameter-store or secrets
// round trip, so an unreachable backend degrades to local sources instead
// of hanging startup.
const DefaultRemoteTimeout = 5 * time.Second

// DefaultLocators is the locator list used when ResolverConfig.Locators is
// empty: a base document shared by all environments, an environment-specific
// override document and the process-environment overlay. Layers loaded by
// rightmost locator have highest priority.
var DefaultLocators = []string{"file:base.yaml", "file:" + envToken + ".yaml", "env:"}

// M type is a convenient alias for a map[string]any map.
type M = map[string]any

// A type is a convenient alias for a []any slice.
type A = []any

// Loader is an interface for configuration loaders. A loader reports a
// missing layer with an error matching fs.ErrNotExist; the resolver decides
// whether the layer was required.
type Loader interface {
	Load(loc *Locator) (any, error)
}

// RemoteSource is the capability interface for the optional remote
// parameter store. Fetch returns the configuration document stored under
// the environment and application prefix. Fetch failures never fail
// resolution; they downgrade to a warning and local sources are used.
type RemoteSource interface {
	Fetch(ctx context.Context, env Environment, app string) (M, error)
}

// SecretSource is the capability interface for the secrets backend used to
// expand secret references in database and cloud-service sections.
type SecretSource interface {
	Fetch(ctx context.Context, name string) (map[string]string, error)
}

// ResolverConfig is a structure with configuration parameters for a
// configuration resolver.
type ResolverConfig struct {
	// AppName names the application in remote parameter-store paths
	// (/{environment}/{app_name}/...).
	AppName string

	// Environment pins the deployment stage. When empty the stage is
	// detected from the process environment (see DetectEnvironment).
	Environment Environment

	// Loaders specifies configuration loaders. Map keys represent names of
	// configuration loaders, that further can be used in configuration
	// locators.
	Loaders map[string]Loader

	// Locators lists configuration layers in merge order; the {env} token
	// is substituted with the effective environment name. The first locator
	// is the base layer and must resolve; later layers tolerate absence.
	// Defaults to DefaultLocators.
	Locators []string

	// Remote is the optional remote parameter store. Nil disables the
	// remote layer entirely; resolution is then identical to the
	// remote-unreachable case.
	Remote RemoteSource

	// Secrets resolves secret references found in database and
	// cloud-service sections.
	Secrets SecretSource

	// Logger receives detection and fallback warnings. Defaults to a nop
	// logger.
	Logger *zap.Logger

	// RemoteTimeout bounds each remote-store and secrets call. Defaults to
	// DefaultRemoteTimeout.
	RemoteTimeout time.Duration

	// DisableExpansion disables ${path} expansion in string values.
	DisableExpansion bool

	// AllowInsecureSecrets downgrades secret-resolution failures to a
	// warning outside production, leaving the unresolved reference in the
	// returned section so local development can fall back to manually-set
	// environment variables. Ignored in production.
	AllowInsecureSecrets bool
}

// Resolver loads configuration layers from the configured sources, merges
// them into one configuration tree and serves read-only snapshots of it.
// The tree is built on first access and cached for the process lifetime;
// the resolver performs no live reloading.
//
// A Resolver is safe for concurrent use.
type Resolver struct {
	config   ResolverConfig
	env      Environment
	log      *zap.Logger
	validate *validator.Validate

	mu       sync.Mutex
	root     M
	sections map[string]M
}

// NewResolver creates a new configuration resolver instance. Construct one
// resolver at application startup and pass it to consumers.
func NewResolver(config ResolverConfig) (*Resolver, error) {
	if config.AppName == "" {
		return nil, fmt.Errorf("%s: no application name specified", errPref)
	}

	if len(config.Loaders) == 0 {
		return nil, fmt.Errorf("%s: no configuration loaders specified", errPref)
	}

	log := config.Logger

	if log == nil {
		log = zap.NewNop()
	}

	env := config.Environment

	if env == "" {
		env = DetectEnvironment(log)
	} else {
		parsed, ok := ParseEnvironment(string(env))

		if !ok {
			return nil, fmt.Errorf("%s: unknown environment: %s", errPref, env)
		}

		env = parsed
	}

	if len(config.Locators) == 0 {
		config.Locators = DefaultLocators
	}

	if config.RemoteTimeout <= 0 {
		config.RemoteTimeout = DefaultRemoteTimeout
	}

	return &Resolver{
		config:   config,
		env:      env,
		log:      log,
		validate: validator.New(),
		sections: make(map[string]M),
	}, nil
}

// Environment returns the effective deployment stage, resolved exactly once
// at construction time.
func (r *Resolver) Environment() Environment {
	return r.env
}

// Config returns the effective configuration document. The document is a
// deep copy; mutating it does not affect subsequently resolved
// configurations.
func (r *Resolver) Config(ctx context.Context) (M, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	root, err := r.rootLocked(ctx)

	if err != nil {
		return nil, err
	}

	return copyTree(root).(M), nil
}

// rootLocked returns the merged configuration tree, building it on first
// access. The caller must hold r.mu.
func (r *Resolver) rootLocked(ctx context.Context) (M, error) {
	if r.root != nil {
		return r.root, nil
	}

	root, err := r.build(ctx)

	if err != nil {
		return nil, err
	}

	r.root = root

	return root, nil
}

func (r *Resolver) build(ctx context.Context) (M, error) {
	var tree any

	for i, rawLoc := range r.config.Locators {
		rawLoc = strings.ReplaceAll(rawLoc, envToken, string(r.env))
		loc, err := ParseLocator(rawLoc)

		if err != nil {
			return nil, err
		}

		loader, ok := r.config.Loaders[loc.Loader]

		if !ok {
			return nil, fmt.Errorf("%s: unknown loader: %s", errPref, loc.Loader)
		}

		layer, err := loader.Load(loc)

		if err != nil {
			if i > 0 && errors.Is(err, fs.ErrNotExist) {
				r.log.Debug("optional configuration layer not found",
					zap.String("locator", loc.String()))
				continue
			}

			return nil, &LoadError{Locator: loc.String(), Err: err}
		}

		if layer == nil {
			if i == 0 {
				return nil, &LoadError{Locator: loc.String(), Err: fs.ErrNotExist}
			}

			continue
		}

		tree = merger.Merge(tree, layer)
	}

	if r.config.Remote != nil {
		rctx, cancel := context.WithTimeout(ctx, r.config.RemoteTimeout)
		layer, err := r.config.Remote.Fetch(rctx, r.env, r.config.AppName)
		cancel()

		if err != nil {
			r.log.Warn("remote parameter store unavailable, continuing with local sources",
				zap.String("app", r.config.AppName), zap.Error(err))
		} else if len(layer) > 0 {
			tree = merger.Merge(tree, layer)
		}
	}

	config, ok := tree.(M)

	if !ok {
		return nil,
			fmt.Errorf("%s: merged configuration must be a map of type riskconf.M, but got: %T",
				errPref, tree)
	}

	// Layers may alias loader-owned maps and slices; expansion mutates
	// values in place, so work on a private copy.
	config = copyTree(config).(M)

	if !r.config.DisableExpansion {
		if err := expandTree(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

func copyTree(node any) any {
	switch n := node.(type) {
	case M:
		out := make(M, len(n))

		for key, value := range n {
			out[key] = copyTree(value)
		}

		return out
	case map[string]string:
		out := make(map[string]string, len(n))

		for key, value := range n {
			out[key] = value
		}

		return out
	case A:
		out := make(A, len(n))

		for i, value := range n {
			out[i] = copyTree(value)
		}

		return out
	default:
		return node
	}
}
