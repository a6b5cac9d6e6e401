// Package pgmodel implements model.Model over a PostgreSQL table through pgx.
//
// Statements are built from the schema: identifiers are sanitised with
// pgx.Identifier, values are always bound as parameters and every column a
// caller names must be declared by the schema.
package pgmodel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deppfellow/start-service/internal/database"
	"github.com/deppfellow/start-service/internal/model"
	"github.com/jackc/pgx/v5"
)

// Ensure Table implements the interface.
var _ model.Model = (*Table)(nil)

// Table is a model.Model over one PostgreSQL table.
type Table struct {
	schema *model.Schema
	now    func() time.Time
}

// New returns a table model for schema.
func New(schema *model.Schema) *Table {
	return &Table{
		schema: schema,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Factory returns a model.Factory producing table models for schema.
func Factory(schema *model.Schema) model.Factory {
	return func() model.Model {
		return New(schema)
	}
}

func (t *Table) Schema() *model.Schema { return t.schema }

func (t *Table) PrimaryKey() string { return t.schema.PrimaryKey() }

// List runs a SELECT over the matching rows.
func (t *Table) List(ctx context.Context, q database.Querier, filter model.Filter, order model.Order) ([]model.Record, error) {
	query, args, err := t.selectSQL(filter, order, 0, 0)
	if err != nil {
		return nil, err
	}
	return t.collect(ctx, q, query, args)
}

// Page counts the matching rows, then selects one page of them.
func (t *Table) Page(ctx context.Context, q database.Querier, filter model.Filter, order model.Order, req model.PageRequest) (*model.Page, error) {
	req = req.Normalize()

	countQuery, countArgs, err := t.countSQL(filter)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := q.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("table:%s: counting rows: %w", t.schema.Table, err)
	}

	query, args, err := t.selectSQL(filter, order, req.Size, req.Offset())
	if err != nil {
		return nil, err
	}
	rows, err := t.collect(ctx, q, query, args)
	if err != nil {
		return nil, err
	}

	return model.NewPage(rows, total, req), nil
}

// Info selects the first matching row and loads the requested relations.
func (t *Table) Info(ctx context.Context, q database.Querier, filter model.Filter, with []string) (model.Record, error) {
	query, args, err := t.selectSQL(filter, nil, 1, 0)
	if err != nil {
		return nil, err
	}

	rec, err := t.collectOne(ctx, q, query, args)
	if err != nil {
		return nil, err
	}

	if err := model.LoadRelations(ctx, q, t, rec, with); err != nil {
		return nil, err
	}
	return rec, nil
}

// Find selects the row with primary key pk.
func (t *Table) Find(ctx context.Context, q database.Querier, pk any) (model.Record, error) {
	query, args, err := t.selectSQL(model.Filter{t.PrimaryKey(): pk}, nil, 1, 0)
	if err != nil {
		return nil, err
	}
	return t.collectOne(ctx, q, query, args)
}

// FindIn selects the rows whose primary key is in pks.
func (t *Table) FindIn(ctx context.Context, q database.Querier, pks []any) ([]model.Record, error) {
	if len(pks) == 0 {
		return []model.Record{}, nil
	}
	return t.List(ctx, q, model.Filter{t.PrimaryKey(): pks}, model.Asc(t.PrimaryKey()))
}

// Insert adds a row and returns it as stored.
func (t *Table) Insert(ctx context.Context, q database.Querier, data model.Record) (model.Record, error) {
	query, args, err := t.insertSQL(data)
	if err != nil {
		return nil, err
	}
	return t.collectOne(ctx, q, query, args)
}

// Update writes data to the row with primary key pk and returns it as stored.
func (t *Table) Update(ctx context.Context, q database.Querier, pk any, data model.Record) (model.Record, error) {
	query, args, err := t.updateSQL(pk, data)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return t.Find(ctx, q, pk)
	}
	return t.collectOne(ctx, q, query, args)
}

// Delete removes the row with primary key pk.
func (t *Table) Delete(ctx context.Context, q database.Querier, pk any) error {
	query, args, err := t.deleteSQL(pk)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("table:%s: delete: %w", t.schema.Table, err)
	}
	if tag.RowsAffected() == 0 {
		return model.NotFound(t.schema.Table)
	}
	return nil
}

func (t *Table) collect(ctx context.Context, q database.Querier, query string, args []any) ([]model.Record, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("table:%s: query: %w", t.schema.Table, err)
	}

	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("table:%s: collect: %w", t.schema.Table, err)
	}

	out := make([]model.Record, 0, len(maps))
	for _, m := range maps {
		out = append(out, model.Record(m))
	}
	return out, nil
}

func (t *Table) collectOne(ctx context.Context, q database.Querier, query string, args []any) (model.Record, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("table:%s: query: %w", t.schema.Table, err)
	}

	m, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NotFound(t.schema.Table)
		}
		return nil, fmt.Errorf("table:%s: collect: %w", t.schema.Table, err)
	}
	return model.Record(m), nil
}
