/*
Package riskconf resolves application configuration through a layered
precedence chain. Configuration layers are loaded from different sources and
merged into the one configuration tree; later layers override earlier ones
key-by-key, nested mappings merge recursively and lists are replaced
wholesale. The precedence order is total and deterministic:

	remote parameter store > process environment and .env file > files

The remote parameter store is a best-effort enhancement, never a hard
dependency: when it is disabled or unreachable, resolution proceeds with the
local sources and the outcome is identical to the store being absent.

The deployment stage (dev, uat, prod) is read from the ENV variable exactly
once per process and selects both the environment-specific override document
and the remote path prefix. The resolved tree is built lazily on first
access, cached for the process lifetime and handed out as deep copies, so a
caller can never corrupt another caller's view.

	logger, _ := zap.NewProduction()

	resolver, err := riskconf.NewResolver(riskconf.ResolverConfig{
		AppName: "riskplatform",
		Loaders: map[string]riskconf.Loader{
			"file": fileloader.NewLoader("config"),
			"env":  envloader.NewLoader(envloader.Options{Path: ".env"}),
		},
		Remote:  ssmconf.NewFromConfig(awsCfg),
		Secrets: secretconf.NewFromConfig(awsCfg),
		Logger:  logger,
	})
	if err != nil {
		log.Fatal(err)
	}

	db, err := resolver.DBConfig(ctx, "riskdb")

Database and cloud-service sections may reference the secrets backend
instead of carrying inline credentials:

	database:
	  riskdb:
	    host: riskdb.internal
	    port: 5432
	    use_secrets_manager: true
	    secret_name: riskplatform/riskdb

The resolver substitutes the decrypted key/value pairs into the section and
removes both reference keys before returning it. A failed resolution is
fatal in production and never falls back to a guessed value.

String values can reference other configuration parameters with
${dotted.path} syntax; "$$" escapes the expansion:

	storage:
	  root: /srv/riskplatform
	  uploads: ${storage.root}/uploads
*/
package riskconf
