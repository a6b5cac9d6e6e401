// Package memory implements model.Model in process memory.
//
// It mirrors the postgres driver's semantics (typed coercion, unknown-column
// errors, auto-increment keys, auto-timestamps, unique columns) so services
// behave the same on either driver. The Store itself is the transactor: a
// write whose Querier is one of its transactions is journaled for rollback.
// Transactions are not isolated; other callers see their writes at once.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/deppfellow/start-service/internal/database"
	"github.com/deppfellow/start-service/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/spf13/cast"
)

// uniqueViolation is the SQLSTATE Postgres reports for a unique constraint.
const uniqueViolation = "23505"

// Store holds the rows of every table. Tables built from the same Store share data.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*tableData
	now    func() time.Time
}

type tableData struct {
	nextID int64
	seq    int64
	rows   map[string]*row
}

type row struct {
	seq    int64
	record model.Record
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		tables: make(map[string]*tableData),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Factory returns a model.Factory producing tables for schema backed by s.
func (s *Store) Factory(schema *model.Schema) model.Factory {
	return func() model.Model {
		return s.Table(schema)
	}
}

// Table returns a model for schema backed by s.
func (s *Store) Table(schema *model.Schema) *Table {
	return &Table{schema: schema, store: s}
}

// Len returns the number of rows held for table.
func (s *Store) Len(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if data, ok := s.tables[table]; ok {
		return len(data.rows)
	}
	return 0
}

// lookup returns the table's storage or an empty placeholder. Callers hold s.mu
// for reading at least.
func (s *Store) lookup(table string) *tableData {
	if data, ok := s.tables[table]; ok {
		return data
	}
	return &tableData{nextID: 1, rows: map[string]*row{}}
}

// data returns the table's storage, creating it. Callers hold s.mu for writing.
func (s *Store) data(table string) *tableData {
	data, ok := s.tables[table]
	if !ok {
		data = &tableData{nextID: 1, rows: make(map[string]*row)}
		s.tables[table] = data
	}
	return data
}

// Ensure Table implements the interface.
var _ model.Model = (*Table)(nil)

// Table is an in-memory model.Model over one schema.
type Table struct {
	schema *model.Schema
	store  *Store
}

func (t *Table) Schema() *model.Schema { return t.schema }

func (t *Table) PrimaryKey() string { return t.schema.PrimaryKey() }

// List returns clones of the matching rows in order.
func (t *Table) List(_ context.Context, _ database.Querier, filter model.Filter, order model.Order) ([]model.Record, error) {
	filter, err := t.schema.CoerceFilter(filter)
	if err != nil {
		return nil, err
	}
	order, err = t.schema.ResolveOrder(order)
	if err != nil {
		return nil, err
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	return t.selectRows(filter, order), nil
}

// Page returns one page of the matching rows.
func (t *Table) Page(ctx context.Context, q database.Querier, filter model.Filter, order model.Order, req model.PageRequest) (*model.Page, error) {
	rows, err := t.List(ctx, q, filter, order)
	if err != nil {
		return nil, err
	}

	req = req.Normalize()
	start := min(req.Offset(), len(rows))
	end := min(start+req.Size, len(rows))

	return model.NewPage(rows[start:end], int64(len(rows)), req), nil
}

// Info returns the first matching row with relations loaded.
func (t *Table) Info(ctx context.Context, q database.Querier, filter model.Filter, with []string) (model.Record, error) {
	rows, err := t.List(ctx, q, filter, nil)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, model.NotFound(t.schema.Table)
	}

	rec := rows[0]
	if err := model.LoadRelations(ctx, q, t, rec, with); err != nil {
		return nil, err
	}
	return rec, nil
}

// Find returns the row with primary key pk.
func (t *Table) Find(_ context.Context, _ database.Querier, pk any) (model.Record, error) {
	key, err := t.key(pk)
	if err != nil {
		return nil, err
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	r, ok := t.store.lookup(t.schema.Table).rows[key]
	if !ok {
		return nil, model.NotFound(t.schema.Table)
	}
	return r.record.Clone(), nil
}

// FindIn returns the rows whose primary key is in pks, ordered by primary key.
func (t *Table) FindIn(ctx context.Context, q database.Querier, pks []any) ([]model.Record, error) {
	if len(pks) == 0 {
		return []model.Record{}, nil
	}
	return t.List(ctx, q, model.Filter{t.PrimaryKey(): pks}, model.Asc(t.PrimaryKey()))
}

// Insert stores a new row. A missing integer primary key is auto-assigned.
func (t *Table) Insert(_ context.Context, q database.Querier, data model.Record) (model.Record, error) {
	values, err := t.schema.CoerceRecord(data)
	if err != nil {
		return nil, err
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	td := t.store.data(t.schema.Table)
	pk := t.PrimaryKey()

	if values[pk] == nil {
		col, _ := t.schema.Column(pk)
		if col.Type != model.TypeInt {
			return nil, fmt.Errorf("%w: %s.%s is required", model.ErrInvalidValue, t.schema.Table, pk)
		}
		values[pk] = td.nextID
	}

	key := cast.ToString(values[pk])
	if _, exists := td.rows[key]; exists {
		return nil, fmt.Errorf("%w: duplicate %s.%s %s", model.ErrInvalidValue, t.schema.Table, pk, key)
	}
	if err := t.checkUnique(td, values, ""); err != nil {
		return nil, err
	}
	if id, ok := values[pk].(int64); ok && id >= td.nextID {
		td.nextID = id + 1
	}

	rec := make(model.Record, len(t.schema.Columns))
	for _, name := range t.schema.ColumnNames() {
		rec[name] = values[name]
	}
	if t.schema.Timestamps {
		now := t.store.now()
		rec[model.CreateTimeColumn] = now
		rec[model.UpdateTimeColumn] = now
	}

	t.store.txFor(q).record(t.schema.Table, key, nil)
	td.seq++
	td.rows[key] = &row{seq: td.seq, record: rec}

	return rec.Clone(), nil
}

// Update merges data into the row with primary key pk. The primary key itself
// is never rewritten.
func (t *Table) Update(_ context.Context, q database.Querier, pk any, data model.Record) (model.Record, error) {
	key, err := t.key(pk)
	if err != nil {
		return nil, err
	}
	values, err := t.schema.CoerceRecord(data.Without(t.PrimaryKey()))
	if err != nil {
		return nil, err
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	td := t.store.data(t.schema.Table)
	r, ok := td.rows[key]
	if !ok {
		return nil, model.NotFound(t.schema.Table)
	}
	if err := t.checkUnique(td, values, key); err != nil {
		return nil, err
	}

	t.store.txFor(q).record(t.schema.Table, key, r)
	for k, v := range values {
		r.record[k] = v
	}
	if t.schema.Timestamps {
		r.record[model.UpdateTimeColumn] = t.store.now()
	}

	return r.record.Clone(), nil
}

// Delete removes the row with primary key pk.
func (t *Table) Delete(_ context.Context, q database.Querier, pk any) error {
	key, err := t.key(pk)
	if err != nil {
		return err
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	td := t.store.data(t.schema.Table)
	r, ok := td.rows[key]
	if !ok {
		return model.NotFound(t.schema.Table)
	}
	t.store.txFor(q).record(t.schema.Table, key, r)
	delete(td.rows, key)
	return nil
}

// checkUnique fails like Postgres when another row already holds one of the
// unique values in values. skip is the key of the row being written.
// Callers hold the store lock.
func (t *Table) checkUnique(td *tableData, values model.Record, skip string) error {
	for _, col := range t.schema.Columns {
		v := values[col.Name]
		if !col.Unique || v == nil {
			continue
		}
		for key, r := range td.rows {
			if key == skip || r.record[col.Name] == nil {
				continue
			}
			if compare(r.record[col.Name], v) == 0 {
				constraint := t.schema.Table + "_" + col.Name + "_key"
				return &pgconn.PgError{
					Severity:       "ERROR",
					Code:           uniqueViolation,
					Message:        fmt.Sprintf("duplicate key value violates unique constraint %q", constraint),
					Detail:         fmt.Sprintf("Key (%s)=(%v) already exists.", col.Name, v),
					TableName:      t.schema.Table,
					ConstraintName: constraint,
				}
			}
		}
	}
	return nil
}

func (t *Table) key(pk any) (string, error) {
	v, err := t.schema.Coerce(t.PrimaryKey(), pk)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", fmt.Errorf("%w: %s.%s is nil", model.ErrInvalidValue, t.schema.Table, t.PrimaryKey())
	}
	return cast.ToString(v), nil
}

// selectRows filters and sorts. Callers hold the store lock.
func (t *Table) selectRows(filter model.Filter, order model.Order) []model.Record {
	td := t.store.lookup(t.schema.Table)

	matched := make([]*row, 0, len(td.rows))
	for _, r := range td.rows {
		if matches(r.record, filter) {
			matched = append(matched, r)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		for _, by := range order {
			c := compare(matched[i].record[by.Column], matched[j].record[by.Column])
			if c == 0 {
				continue
			}
			if by.Desc {
				return c > 0
			}
			return c < 0
		}
		return matched[i].seq < matched[j].seq
	})

	out := make([]model.Record, 0, len(matched))
	for _, r := range matched {
		out = append(out, r.record.Clone())
	}
	return out
}

func matches(rec model.Record, filter model.Filter) bool {
	for column, want := range filter {
		got := rec[column]

		if items, ok := model.Slice(want); ok {
			found := false
			for _, item := range items {
				if compare(got, item) == 0 && (got == nil) == (item == nil) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
			continue
		}

		if want == nil {
			if got != nil {
				return false
			}
			continue
		}
		if got == nil || compare(got, want) != 0 {
			return false
		}
	}
	return true
}

// compare orders nil first, then by time, bool, number and finally by string form.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt)
		}
	}

	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ab == bb:
				return 0
			case !ab:
				return -1
			default:
				return 1
			}
		}
	}

	if isNumber(a) && isNumber(b) {
		af, bf := cast.ToFloat64(a), cast.ToFloat64(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	as, bs := cast.ToString(a), cast.ToString(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}
