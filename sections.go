package riskconf

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Reserved keys marking a section whose credentials live in the secrets
// backend rather than inline.
const (
	useSecretsKey = "use_secrets_manager"
	secretNameKey = "secret_name"
)

// Top-level section groups of the configuration document.
const (
	databaseGroup = "database"
	cloudGroup    = "cloud"
)

// DatabaseConfig holds connection parameters for one logical database.
type DatabaseConfig struct {
	Host        string `conf:"host" validate:"required"`
	Port        int    `conf:"port" validate:"gte=0,lte=65535"`
	Name        string `conf:"name"`
	Username    string `conf:"username"`
	Password    string `conf:"password"`
	SSLMode     string `conf:"ssl_mode"`
	PoolSize    int    `conf:"pool_size" validate:"gte=0"`
	PoolTimeout int    `conf:"pool_timeout" validate:"gte=0"`
}

// CloudConfig holds parameters for one named cloud service.
type CloudConfig struct {
	Region          string `conf:"region"`
	Bucket          string `conf:"bucket"`
	Endpoint        string `conf:"endpoint"`
	AccessKeyID     string `conf:"access_key_id"`
	SecretAccessKey string `conf:"secret_access_key"`
	SessionToken    string `conf:"session_token"`
}

// DBSection returns the raw configuration mapping of a named database with
// any secret reference already expanded. The mapping is a deep copy.
func (r *Resolver) DBSection(ctx context.Context, name string) (M, error) {
	return r.section(ctx, databaseGroup, name)
}

// DBConfig returns the typed, validated configuration of a named database.
func (r *Resolver) DBConfig(ctx context.Context, name string) (DatabaseConfig, error) {
	sec, err := r.section(ctx, databaseGroup, name)

	if err != nil {
		return DatabaseConfig{}, err
	}

	var db DatabaseConfig

	if err := Decode(sec, &db); err != nil {
		return DatabaseConfig{},
			fmt.Errorf("%s: cannot decode database section %s: %w", errPref, name, err)
	}

	if err := r.validate.Struct(db); err != nil {
		return DatabaseConfig{},
			fmt.Errorf("%s: invalid database section %s: %w", errPref, name, err)
	}

	return db, nil
}

// CloudSection returns the raw configuration mapping of a named cloud
// service with any secret reference already expanded. The mapping is a deep
// copy.
func (r *Resolver) CloudSection(ctx context.Context, name string) (M, error) {
	return r.section(ctx, cloudGroup, name)
}

// CloudConfig returns the typed, validated configuration of a named cloud
// service.
func (r *Resolver) CloudConfig(ctx context.Context, name string) (CloudConfig, error) {
	sec, err := r.section(ctx, cloudGroup, name)

	if err != nil {
		return CloudConfig{}, err
	}

	var cloud CloudConfig

	if err := Decode(sec, &cloud); err != nil {
		return CloudConfig{},
			fmt.Errorf("%s: cannot decode cloud section %s: %w", errPref, name, err)
	}

	if err := r.validate.Struct(cloud); err != nil {
		return CloudConfig{},
			fmt.Errorf("%s: invalid cloud section %s: %w", errPref, name, err)
	}

	return cloud, nil
}

// section resolves one named sub-mapping, expands its secret reference and
// caches the result for the process lifetime.
func (r *Resolver) section(ctx context.Context, group, name string) (M, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := group + ":" + name

	if sec, ok := r.sections[key]; ok {
		return copyTree(sec).(M), nil
	}

	root, err := r.rootLocked(ctx)

	if err != nil {
		return nil, err
	}

	sections, ok := root[group].(M)

	if !ok {
		return nil, &UnknownSectionError{Kind: group, Name: name}
	}

	raw, ok := sections[name].(M)

	if !ok {
		return nil, &UnknownSectionError{
			Kind:      group,
			Name:      name,
			Available: sectionNames(sections),
		}
	}

	sec := copyTree(raw).(M)
	memo := make(map[string]map[string]string)

	if err := r.expandSecrets(ctx, sec, memo); err != nil {
		return nil, err
	}

	r.sections[key] = sec

	return copyTree(sec).(M), nil
}

// expandSecrets substitutes the decrypted secret values into a section that
// references the secrets backend, removing the reference keys from the
// result. Failures are fatal in production; outside production they
// downgrade to a warning when AllowInsecureSecrets is set, keeping the
// unresolved reference in place.
func (r *Resolver) expandSecrets(ctx context.Context, sec M, memo map[string]map[string]string) error {
	if !asBool(sec[useSecretsKey]) {
		return nil
	}

	secretName, _ := sec[secretNameKey].(string)

	if secretName == "" {
		return &SecretError{
			Err: fmt.Errorf("%s is set but %s is missing", useSecretsKey, secretNameKey),
		}
	}

	values, err := r.fetchSecret(ctx, secretName, memo)

	if err != nil {
		if r.env != Production && r.config.AllowInsecureSecrets {
			r.log.Warn("secret resolution failed, leaving reference unresolved",
				zap.String("secret", secretName), zap.Error(err))
			return nil
		}

		return err
	}

	for key, value := range values {
		sec[key] = value
	}

	delete(sec, useSecretsKey)
	delete(sec, secretNameKey)

	return nil
}

// fetchSecret resolves one named secret. Values are memoized for the
// duration of a single resolution call only, so a secret referenced by
// multiple sections is fetched once per call and re-fetched on the next
// process start.
func (r *Resolver) fetchSecret(ctx context.Context, name string, memo map[string]map[string]string) (map[string]string, error) {
	if values, ok := memo[name]; ok {
		return values, nil
	}

	if r.config.Secrets == nil {
		return nil, &SecretError{Name: name, Err: errors.New("no secret source configured")}
	}

	sctx, cancel := context.WithTimeout(ctx, r.config.RemoteTimeout)
	defer cancel()

	values, err := r.config.Secrets.Fetch(sctx, name)

	if err != nil {
		var serr *SecretError

		if errors.As(err, &serr) {
			return nil, err
		}

		return nil, &SecretError{Name: name, Err: err}
	}

	memo[name] = values

	return values, nil
}

func sectionNames(sections M) []string {
	names := make([]string, 0, len(sections))

	for name := range sections {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func asBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(v) {
		case "true", "1", "yes", "on":
			return true
		}
	}

	return false
}
