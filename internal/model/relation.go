package model

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/deppfellow/start-service/internal/database"
)

// RelationKind tells LoadRelations which side holds the foreign key.
type RelationKind int

const (
	// HasMany: related rows carry ForeignKey pointing at the owner's LocalKey.
	HasMany RelationKind = iota
	// HasOne is HasMany limited to the first match.
	HasOne
	// BelongsTo: the owner carries ForeignKey pointing at the related row's LocalKey.
	BelongsTo
)

// Relation declares a named association loaded by Info.
type Relation struct {
	Kind RelationKind

	// Related produces the model on the other side. Registry.Lazy is the usual
	// source so that schemas can reference each other.
	Related Factory

	ForeignKey string

	// LocalKey defaults to the owner's primary key for HasMany/HasOne and to
	// the related primary key for BelongsTo.
	LocalKey string
}

// LoadRelations loads each relation named in with into rec, keyed by the
// relation name. A missing BelongsTo or HasOne target is stored as nil.
func LoadRelations(ctx context.Context, q database.Querier, owner Model, rec Record, with []string) error {
	schema := owner.Schema()

	for _, name := range with {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		rel, ok := schema.Relations[name]
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownRelation, schema.Table, name)
		}

		var related Model
		if rel.Related != nil {
			related = rel.Related()
		}
		if related == nil {
			return fmt.Errorf("%w: %s.%s has no related model", ErrUnknownRelation, schema.Table, name)
		}

		switch rel.Kind {
		case HasMany:
			rows, err := related.List(ctx, q, Filter{rel.ForeignKey: rec[localKey(rel, owner)]}, nil)
			if err != nil {
				return fmt.Errorf("loading %s.%s: %w", schema.Table, name, err)
			}
			if rows == nil {
				rows = []Record{}
			}
			rec[name] = rows

		case HasOne:
			row, err := related.Info(ctx, q, Filter{rel.ForeignKey: rec[localKey(rel, owner)]}, nil)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return fmt.Errorf("loading %s.%s: %w", schema.Table, name, err)
			}
			rec[name] = row

		case BelongsTo:
			fk := rec[rel.ForeignKey]
			if fk == nil {
				rec[name] = nil
				continue
			}
			row, err := related.Info(ctx, q, Filter{localKey(rel, related): fk}, nil)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return fmt.Errorf("loading %s.%s: %w", schema.Table, name, err)
			}
			rec[name] = row

		default:
			return fmt.Errorf("%w: %s.%s has kind %d", ErrUnknownRelation, schema.Table, name, rel.Kind)
		}
	}

	return nil
}

func localKey(rel Relation, fallback Model) string {
	if rel.LocalKey != "" {
		return rel.LocalKey
	}
	return fallback.PrimaryKey()
}
