// Package model defines the persistence capability that services delegate to.
//
// A Model is a persistence-backed entity type. It is described by a Schema and
// implemented by a driver (see the pgmodel and memory subpackages). Models are
// resolved by name through a Registry, which plays the role of the container
// in the service layer.
package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/start-service/internal/database"
)

var (
	// ErrNotFound is returned when no record matches a primary key or filter.
	ErrNotFound = errors.New("record not found")

	// ErrUnknownColumn is returned when a filter, order or payload names a
	// column the schema does not declare.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrUnknownRelation is returned when Info is asked to load a relation the
	// schema does not declare.
	ErrUnknownRelation = errors.New("unknown relation")

	// ErrInvalidValue is returned when a value cannot be coerced to its column type.
	ErrInvalidValue = errors.New("invalid value")
)

// NotFound returns ErrNotFound tagged with table, as "table:<name>: record not found".
func NotFound(table string) error {
	return fmt.Errorf("table:%s: %w", table, ErrNotFound)
}

// Record is a single row keyed by column name.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Without returns a copy of the record with the given keys removed.
func (r Record) Without(keys ...string) Record {
	out := r.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Filter is a conjunction of column conditions.
//
// A scalar value means equality, a slice value means membership and a nil
// value means IS NULL.
type Filter map[string]any

// Factory returns a fresh Model instance.
type Factory func() Model

// Model is the capability set a service delegates to. Every operation runs on
// the explicit Querier handle it is given, which is either the connection pool
// or an open transaction.
type Model interface {
	// Schema describes the table backing the model.
	Schema() *Schema

	// PrimaryKey returns the primary key column name.
	PrimaryKey() string

	List(ctx context.Context, q database.Querier, filter Filter, order Order) ([]Record, error)
	Page(ctx context.Context, q database.Querier, filter Filter, order Order, req PageRequest) (*Page, error)

	// Info returns the first record matching filter with the named relations
	// loaded. It returns ErrNotFound when nothing matches.
	Info(ctx context.Context, q database.Querier, filter Filter, with []string) (Record, error)

	Find(ctx context.Context, q database.Querier, pk any) (Record, error)
	FindIn(ctx context.Context, q database.Querier, pks []any) ([]Record, error)

	Insert(ctx context.Context, q database.Querier, data Record) (Record, error)
	Update(ctx context.Context, q database.Querier, pk any, data Record) (Record, error)
	Delete(ctx context.Context, q database.Querier, pk any) error
}
