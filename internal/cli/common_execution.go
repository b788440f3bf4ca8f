package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/planetzero/internal/config"
	"github.com/rshade/planetzero/internal/engine"
	"github.com/rshade/planetzero/internal/logging"
	"github.com/rshade/planetzero/internal/store"
)

// auditContext holds common context for audit logging within a mutating command.
type auditContext struct {
	logger  logging.AuditLogger
	traceID string
	params  map[string]string
	start   time.Time
	command string
}

// newAuditContext creates a new audit context.
func newAuditContext(ctx context.Context, command string, params map[string]string) *auditContext {
	return &auditContext{
		logger:  logging.AuditLoggerFromContext(ctx),
		traceID: logging.TraceIDFromContext(ctx),
		params:  params,
		start:   time.Now(),
		command: command,
	}
}

// logFailure logs an audit entry for a failed operation.
func (a *auditContext) logFailure(ctx context.Context, err error) {
	entry := logging.NewAuditEntry(a.command, a.traceID).
		WithParameters(a.params).
		WithError(err.Error()).
		WithDuration(a.start)
	a.logger.Log(ctx, *entry)
}

// logSuccess logs an audit entry for a successful operation.
func (a *auditContext) logSuccess(ctx context.Context, records int, totalKg float64) {
	entry := logging.NewAuditEntry(a.command, a.traceID).
		WithParameters(a.params).
		WithSuccess(records, totalKg).
		WithDuration(a.start)
	a.logger.Log(ctx, *entry)
}

// finish records err or success and passes err through.
func (a *auditContext) finish(ctx context.Context, err error, records int, totalKg float64) error {
	if err != nil {
		a.logFailure(ctx, err)
		return err
	}
	a.logSuccess(ctx, records, totalKg)
	return nil
}

// storeOptions resolves the configured store. An empty path lands under the
// configuration directory so PLANETZERO_HOME relocates data too.
func storeOptions(cfg *config.Config) (store.Options, error) {
	opts := store.Options{Driver: cfg.Store.Driver, Path: cfg.Store.Path}
	if opts.Path != "" || opts.Driver == store.DriverMemory {
		return opts, nil
	}
	dir, err := config.GetConfigDir()
	if err != nil {
		return store.Options{}, err
	}
	def, err := store.DefaultPath(opts.Driver)
	if err != nil {
		return store.Options{}, err
	}
	opts.Path = filepath.Join(dir, filepath.Base(def))
	return opts, nil
}

// openEngine opens the configured store and builds an Engine over it. The
// returned cleanup closes the store.
func openEngine(ctx context.Context) (*engine.Engine, func(), error) {
	log := logging.FromContext(ctx)
	cfg := config.GetGlobalConfig()

	opts, err := storeOptions(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving store path: %w", err)
	}
	st, err := store.Open(ctx, opts)
	if err != nil {
		log.Error().Ctx(ctx).Err(err).Str("driver", opts.Driver).Str("path", opts.Path).Msg("failed to open store")
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}

	eng := engine.New(st, st, engine.WithBaseline(cfg.Emissions.BaselineDailyKg))
	cleanup := func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Warn().Ctx(ctx).Err(closeErr).Msg("closing store")
		}
	}
	return eng, cleanup, nil
}

// withEngine runs fn against a freshly opened engine.
func withEngine(cmd *cobra.Command, fn func(ctx context.Context, eng *engine.Engine) error) error {
	ctx := cmd.Context()
	eng, cleanup, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx, eng)
}

// currentUser returns the acting user from --user, PLANETZERO_USER or
// identity.user, in that order of precedence.
func currentUser() (string, error) {
	id := strings.TrimSpace(config.GetGlobalConfig().Identity.User)
	if id == "" {
		return "", fmt.Errorf("%w: no user selected: pass --user or run 'planetzero config set identity.user <id>'",
			engine.ErrValidation)
	}
	return id, nil
}

// ensureCurrentUser resolves the acting user and makes sure an identity record
// exists so leaderboard names resolve.
func ensureCurrentUser(ctx context.Context, eng *engine.Engine) (string, error) {
	id, err := currentUser()
	if err != nil {
		return "", err
	}
	if _, err = eng.EnsureUser(ctx, id, config.GetGlobalConfig().Identity.Name); err != nil {
		return "", fmt.Errorf("registering user %s: %w", id, err)
	}
	return id, nil
}
