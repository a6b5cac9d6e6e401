package service

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/deppfellow/start-service/internal/database"
	"github.com/deppfellow/start-service/internal/logger"
	"github.com/deppfellow/start-service/internal/model"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
)

// Container is what services are built from: the namespace and model
// registry used to resolve models, the transactor models run on, and the
// logger.
type Container struct {
	Models *model.Registry
	DB     database.Transactor
	Logger *zerolog.Logger

	// SlowThreshold flags model operations slower than this duration.
	// Zero disables the warning.
	SlowThreshold time.Duration
}

// ModelRef is the model a service asks for. The zero value asks for the
// conventional model named after the service.
type ModelRef struct {
	name    string
	factory model.Factory
}

// ModelName refers to a model by registry name, either fully qualified or
// short ("Category" resolves as "{namespace}.model.Category").
func ModelName(name string) ModelRef {
	return ModelRef{name: name}
}

// ModelFactory binds a service to a factory directly, bypassing the registry.
func ModelFactory(f model.Factory) ModelRef {
	return ModelRef{factory: f}
}

// Options customise Build. The zero value derives everything by convention.
type Options struct {
	// Name overrides the name derived from the service type.
	Name  string
	Model ModelRef
}

// Initializer is implemented by services that need setup after their model
// is resolved. An error aborts construction.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Resource is the CRUD surface every Base-backed service exposes.
type Resource interface {
	Name() string
	Model() (model.Model, error)
	GetList(ctx context.Context, filter model.Filter, order model.Order) ([]model.Record, error)
	GetPage(ctx context.Context, filter model.Filter, order model.Order, page model.PageRequest) (*model.Page, error)
	GetInfo(ctx context.Context, filter model.Filter, with []string) (model.Record, error)
	Create(ctx context.Context, input model.Record) (model.Record, error)
	Update(ctx context.Context, input model.Record) (model.Record, error)
	Remove(ctx context.Context, filter any) (int, error)
}

var _ Resource = (*Base)(nil)

// Base is the generic CRUD service over exactly one model.
//
// Concrete services embed *Base and are built with Build. A Base is immutable
// once built; WithTx returns a copy bound to a transaction.
type Base struct {
	name    string
	factory model.Factory // nil when unset
	db      database.Transactor
	tx      database.Tx
	logger  *zerolog.Logger
	slow    time.Duration
}

// Build constructs a service of type S.
//
// The name comes from opts.Name or the short name of S. The model is resolved
// in this order:
//   - opts.Model holds a factory: use it
//   - opts.Model names a model: look it up as given, then as
//     "{namespace}.model.{name}"; fail with ErrModelNotFound otherwise
//   - "{namespace}.model.{service name}" is registered: use it
//   - otherwise the model stays unset and every operation fails with ErrModelNotFound
//
// wrap embeds the base into S. Initialize runs last when S implements Initializer.
func Build[S any](ctx context.Context, c *Container, opts Options, wrap func(*Base) S) (S, error) {
	var zero S

	name := opts.Name
	if name == "" {
		name = NameOf[S]()
	}

	factory, err := resolveModel(c.Models, name, opts.Model)
	if err != nil {
		return zero, err
	}

	base := &Base{
		name:    name,
		factory: factory,
		db:      c.DB,
		logger:  c.Logger,
		slow:    c.SlowThreshold,
	}
	if base.logger == nil {
		nop := zerolog.Nop()
		base.logger = &nop
	}

	svc := wrap(base)

	if init, ok := any(svc).(Initializer); ok {
		if err := init.Initialize(ctx); err != nil {
			return zero, fmt.Errorf("initializing %s service: %w", name, err)
		}
	}

	base.logger.Debug().
		Str("service", name).
		Bool("model_resolved", factory != nil).
		Msg("service built")

	return svc, nil
}

// NameOf derives a service name from its Go type: the short type name with a
// trailing "Service" trimmed, so *ArticleService becomes "Article".
func NameOf[S any]() string {
	t := reflect.TypeFor[S]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	name := t.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if trimmed := strings.TrimSuffix(name, "Service"); trimmed != "" {
		name = trimmed
	}
	return name
}

func resolveModel(registry *model.Registry, name string, ref ModelRef) (model.Factory, error) {
	if ref.factory != nil {
		return ref.factory, nil
	}

	if registry == nil {
		if ref.name != "" {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, ref.name)
		}
		return nil, nil
	}

	if ref.name != "" {
		if f, ok := registry.Lookup(ref.name); ok {
			return f, nil
		}
		if f, ok := registry.Lookup(registry.Qualified(ref.name)); ok {
			return f, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, ref.name)
	}

	if f, ok := registry.Lookup(registry.Qualified(name)); ok {
		return f, nil
	}
	return nil, nil
}

// Name returns the service name.
func (b *Base) Name() string { return b.name }

// Resolved reports whether the service has a model.
func (b *Base) Resolved() bool { return b.factory != nil }

// Model returns a fresh model instance.
func (b *Base) Model() (model.Model, error) {
	if b.factory == nil {
		return nil, fmt.Errorf("%w: service %s has no model", ErrModelNotFound, b.name)
	}
	m := b.factory()
	if m == nil {
		return nil, fmt.Errorf("%w: service %s model factory returned nil", ErrModelNotFound, b.name)
	}
	return m, nil
}

// querier returns the handle operations run on: the bound transaction, or
// the transactor itself.
func (b *Base) querier() database.Querier {
	if b.tx != nil {
		return b.tx
	}
	if b.db == nil {
		return database.NopTransactor{}
	}
	return b.db
}

// GetList returns the records matching filter in order.
func (b *Base) GetList(ctx context.Context, filter model.Filter, order model.Order) (rows []model.Record, err error) {
	defer b.observe(ctx, "list", time.Now(), &err)

	m, err := b.Model()
	if err != nil {
		return nil, err
	}
	return m.List(ctx, b.querier(), filter, order)
}

// GetPage returns one page of the records matching filter.
func (b *Base) GetPage(ctx context.Context, filter model.Filter, order model.Order, page model.PageRequest) (p *model.Page, err error) {
	defer b.observe(ctx, "page", time.Now(), &err)

	m, err := b.Model()
	if err != nil {
		return nil, err
	}
	return m.Page(ctx, b.querier(), filter, order, page)
}

// GetInfo returns the first record matching filter with the relations in with loaded.
func (b *Base) GetInfo(ctx context.Context, filter model.Filter, with []string) (rec model.Record, err error) {
	defer b.observe(ctx, "info", time.Now(), &err)

	m, err := b.Model()
	if err != nil {
		return nil, err
	}
	return m.Info(ctx, b.querier(), filter, with)
}

// Create inserts input without its timestamp fields.
func (b *Base) Create(ctx context.Context, input model.Record) (rec model.Record, err error) {
	defer b.observe(ctx, "create", time.Now(), &err)

	m, err := b.Model()
	if err != nil {
		return nil, err
	}

	rec, err = m.Insert(ctx, b.querier(), inputFilter(input))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}
	return rec, nil
}

// Update loads the record named by the primary key in input and writes the
// rest of input to it, without the timestamp fields.
func (b *Base) Update(ctx context.Context, input model.Record) (rec model.Record, err error) {
	defer b.observe(ctx, "update", time.Now(), &err)

	m, err := b.Model()
	if err != nil {
		return nil, err
	}

	pk := m.PrimaryKey()
	id, ok := input[pk]
	if !ok || isEmpty(id) {
		return nil, &PrimaryKeyError{Key: pk}
	}

	q := b.querier()

	current, err := m.Find(ctx, q, id)
	if err != nil {
		return nil, err
	}

	rec, err = m.Update(ctx, q, current[pk], inputFilter(input))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}
	return rec, nil
}

// Remove deletes by primary key and returns how many records went.
//
// filter is a single key, a comma-joined string of keys or a slice of keys.
// A batch loads the matching records and deletes them one by one inside a
// transaction; on a transaction-bound service it joins that transaction.
// Keys that match nothing in a batch are skipped. A single key that matches
// nothing is model.ErrNotFound.
func (b *Base) Remove(ctx context.Context, filter any) (n int, err error) {
	defer b.observe(ctx, "remove", time.Now(), &err)

	if _, err := b.Model(); err != nil {
		return 0, err
	}

	keys, batch := removeKeys(filter)
	if !batch {
		return b.removeOne(ctx, filter)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	err = b.Transaction(ctx, func(tb *Base) error {
		var txErr error
		n, txErr = tb.removeBatch(ctx, keys)
		return txErr
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (b *Base) removeOne(ctx context.Context, key any) (int, error) {
	m, err := b.Model()
	if err != nil {
		return 0, err
	}
	q := b.querier()

	rec, err := m.Find(ctx, q, key)
	if err != nil {
		return 0, err
	}
	if err := m.Delete(ctx, q, rec[m.PrimaryKey()]); err != nil {
		return 0, err
	}
	return 1, nil
}

func (b *Base) removeBatch(ctx context.Context, keys []any) (int, error) {
	m, err := b.Model()
	if err != nil {
		return 0, err
	}
	q := b.querier()
	pk := m.PrimaryKey()

	rows, err := m.FindIn(ctx, q, keys)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, row := range rows {
		if err := m.Delete(ctx, q, row[pk]); err != nil {
			return n, fmt.Errorf("removing %s %v: %w", b.name, row[pk], err)
		}
		n++
	}
	return n, nil
}

// StartTrans opens a transaction on the service's transactor. Pair it with
// WithTx to run operations inside it. Without a transactor the transaction
// opens on the same no-op handle single operations run on.
func (b *Base) StartTrans(ctx context.Context) (database.Tx, error) {
	if b.db == nil {
		return database.NopTransactor{}.Begin(ctx)
	}
	return b.db.Begin(ctx)
}

// StartCommit commits tx.
func (b *Base) StartCommit(ctx context.Context, tx database.Tx) error {
	if tx == nil {
		return ErrNoTransaction
	}
	return tx.Commit(ctx)
}

// StartRollback rolls tx back.
func (b *Base) StartRollback(ctx context.Context, tx database.Tx) error {
	if tx == nil {
		return ErrNoTransaction
	}
	return tx.Rollback(ctx)
}

// WithTx returns a copy of the service whose operations run on tx.
func (b *Base) WithTx(tx database.Tx) *Base {
	bound := *b
	bound.tx = tx
	return &bound
}

// Tx returns the bound transaction, or nil.
func (b *Base) Tx() database.Tx { return b.tx }

// Transaction runs fn with a transaction-bound copy of the service. It
// commits when fn returns nil and rolls back otherwise, including on panic.
// A service already bound to a transaction runs fn inside it.
func (b *Base) Transaction(ctx context.Context, fn func(tb *Base) error) (err error) {
	if b.tx != nil {
		return fn(b)
	}

	tx, err := b.StartTrans(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(b.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			logger.FromContext(ctx, b.logger).Error().
				Err(rbErr).
				Str("service", b.name).
				Msg("transaction rollback failed")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (b *Base) observe(ctx context.Context, op string, start time.Time, err *error) {
	elapsed := time.Since(start)
	log := logger.FromContext(ctx, b.logger)

	var e *zerolog.Event
	switch {
	case *err != nil:
		e = log.Debug().Err(*err)
	case b.slow > 0 && elapsed > b.slow:
		e = log.Warn().Dur("threshold", b.slow)
	default:
		e = log.Debug()
	}

	e.Str("service", b.name).
		Str("operation", op).
		Bool("in_tx", b.tx != nil).
		Dur("duration", elapsed).
		Msg("service operation")
}

// inputFilter drops the fields the model writes itself.
func inputFilter(input model.Record) model.Record {
	return input.Without(model.CreateTimeColumn, model.UpdateTimeColumn)
}

// removeKeys reports whether filter names a batch and returns its keys.
func removeKeys(filter any) ([]any, bool) {
	if s, ok := filter.(string); ok {
		if !strings.Contains(s, ",") {
			return nil, false
		}
		var keys []any
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				keys = append(keys, part)
			}
		}
		return keys, true
	}
	return model.Slice(filter)
}

// isEmpty treats nil, "", "0", zero numbers and false as empty. Whitespace is a value.
func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == "" || x == "0"
	case bool:
		return !x
	}

	if f, err := cast.ToFloat64E(v); err == nil {
		return f == 0
	}
	return false
}
