package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"rwdledger/core/events"
	"rwdledger/core/genesis"
	"rwdledger/core/state"
	"rwdledger/native/rewards"
	"rwdledger/observability"
	"rwdledger/storage"
)

// Runtime serialises rewards operations over a shared database. Each
// operation runs against a write-buffering overlay: on success the overlay is
// committed in one batch and the buffered events are published; on failure
// both are discarded.
type Runtime struct {
	mu      sync.Mutex
	db      storage.Database
	params  rewards.Params
	emitter events.Emitter
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.RewardsMetrics
}

// Option customises a Runtime.
type Option func(*Runtime)

// WithEmitter routes committed events to emitter.
func WithEmitter(emitter events.Emitter) Option {
	return func(r *Runtime) {
		if emitter != nil {
			r.emitter = emitter
		}
	}
}

// WithLogger overrides the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTracer records a span per operation.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Runtime) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// WithMetrics records operation outcomes and ledger gauges.
func WithMetrics(metrics *observability.RewardsMetrics) Option {
	return func(r *Runtime) { r.metrics = metrics }
}

// NewRuntime validates params and wires the runtime over db.
func NewRuntime(db storage.Database, params rewards.Params, opts ...Option) (*Runtime, error) {
	if db == nil {
		return nil, fmt.Errorf("runtime: database must not be nil")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	r := &Runtime{
		db:      db,
		params:  params,
		emitter: events.NoopEmitter{},
		logger:  slog.Default(),
		tracer:  noop.NewTracerProvider().Tracer("rwdledger"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Params returns the engine configuration.
func (r *Runtime) Params() rewards.Params { return r.params }

func (r *Runtime) engine(manager *state.Manager, emitter events.Emitter) *rewards.Engine {
	engine := rewards.NewEngine(r.params)
	engine.SetState(manager)
	engine.SetEmitter(emitter)
	engine.SetLogger(r.logger)
	return engine
}

// Execute runs fn atomically. The context is only checked before the
// operation starts; a running operation is never interrupted.
func (r *Runtime) Execute(ctx context.Context, operation string, fn func(*rewards.Engine) error) error {
	return r.execute(ctx, operation, func(_ *state.Manager, engine *rewards.Engine) error {
		return fn(engine)
	})
}

func (r *Runtime) execute(ctx context.Context, operation string, fn func(*state.Manager, *rewards.Engine) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := r.tracer.Start(ctx, "rewards."+operation, trace.WithAttributes(attribute.String("rewards.operation", operation)))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	overlay := storage.NewOverlay(r.db)
	buffer := events.NewBuffer()
	manager := state.NewManager(overlay)
	err := fn(manager, r.engine(manager, buffer))
	if err == nil {
		if commitErr := overlay.Commit(); commitErr != nil {
			err = fmt.Errorf("runtime: commit %s: %w", operation, commitErr)
		}
	}
	r.metrics.ObserveOperation(operation, time.Since(start), err)
	if err != nil {
		overlay.Discard()
		buffer.Reset()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.DebugContext(ctx, "rewards operation failed", "operation", operation, "error", err)
		return err
	}
	published := buffer.Flush(r.emitter)
	span.SetAttributes(attribute.Int("rewards.events", len(published)))
	r.refreshGauges()
	return nil
}

// View runs fn against a read-only snapshot. Writes made by fn are dropped
// and events are discarded.
func (r *Runtime) View(ctx context.Context, fn func(*rewards.Engine) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	overlay := storage.NewOverlay(r.db)
	defer overlay.Discard()
	return fn(r.engine(state.NewManager(overlay), events.NoopEmitter{}))
}

// ApplyGenesis seeds an empty ledger from spec and runs the optional rewards
// bootstrap on behalf of its admin. A ledger that was already seeded is left
// untouched.
func (r *Runtime) ApplyGenesis(ctx context.Context, spec *genesis.GenesisSpec) error {
	if spec == nil {
		return nil
	}
	if spec.CollateralMint() != r.params.CollateralMint {
		return fmt.Errorf("runtime: genesis collateral mint does not match params")
	}
	err := r.execute(ctx, "genesis", func(manager *state.Manager, engine *rewards.Engine) error {
		if err := genesis.Apply(spec, manager); err != nil {
			return err
		}
		boot := spec.Rewards
		if boot == nil {
			return nil
		}
		admin := boot.AdminAddress()
		if _, err := engine.InitializeToken(admin, rewards.TokenArgs{
			Name:     boot.Name,
			Symbol:   boot.Symbol,
			URI:      boot.URI,
			Decimals: boot.Decimals,
		}); err != nil {
			return err
		}
		if _, err := engine.InitializeFreeze(admin); err != nil {
			return err
		}
		_, err := engine.InitializeFees(admin, rewards.FeeSchedule{
			MintFeeBps:       boot.MintFeeBps,
			TransferFeeBps:   boot.TransferFeeBps,
			RedemptionFeeBps: boot.RedemptionFeeBps,
			FeeCollector:     boot.FeeCollectorAddress(),
		})
		return err
	})
	if errors.Is(err, genesis.ErrAlreadyApplied) {
		r.logger.Info("genesis already applied")
		return nil
	}
	if err == nil {
		r.logger.Info("genesis applied", "allocations", len(spec.Allocations()))
	}
	return err
}

// refreshGauges publishes supply, vault and freeze gauges from committed
// state. Called with r.mu held.
func (r *Runtime) refreshGauges() {
	if r.metrics == nil {
		return
	}
	engine := r.engine(state.NewManager(r.db), events.NoopEmitter{})
	if supply, err := engine.Supply(); err == nil {
		r.metrics.SetSupply(supply)
	}
	if vault, err := engine.Vault(); err == nil {
		r.metrics.SetVaultBalance(vault.Balance)
	}
	if freeze, err := engine.FreezeState(); err == nil {
		r.metrics.SetFreeze(freeze.IsFrozen, freeze.FreezeMint, freeze.FreezeBurn)
	}
}
