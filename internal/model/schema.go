package model

import (
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/cast"
)

// Timestamp columns written by the drivers when Schema.Timestamps is set.
// Services strip them from caller input.
const (
	CreateTimeColumn = "create_time"
	UpdateTimeColumn = "update_time"
)

// ColumnType is the logical type a column's values are coerced to.
type ColumnType string

const (
	TypeInt   ColumnType = "int"
	TypeFloat ColumnType = "float"
	TypeText  ColumnType = "text"
	TypeBool  ColumnType = "bool"
	TypeTime  ColumnType = "time"
	TypeJSON  ColumnType = "json"
)

// Column declares one table column.
type Column struct {
	Name string
	Type ColumnType

	// Unique mirrors a UNIQUE constraint. The memory driver enforces it;
	// on Postgres the constraint itself does.
	Unique bool
}

// Schema describes the table behind a model.
type Schema struct {
	// Table is the database table name.
	Table string

	// PK is the primary key column. Defaults to "id".
	PK string

	Columns []Column

	// Timestamps makes the driver fill create_time on insert and update_time
	// on every write.
	Timestamps bool

	// DefaultOrder applies when a query gives no order. Falls back to the
	// primary key ascending.
	DefaultOrder Order

	Relations map[string]Relation
}

// PrimaryKey returns the primary key column name.
func (s *Schema) PrimaryKey() string {
	if s.PK == "" {
		return "id"
	}
	return s.PK
}

// Column looks up a declared column.
func (s *Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames lists the declared column names in declaration order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		names = append(names, c.Name)
	}
	return names
}

// Coerce converts v to the type of the named column. Nil passes through.
func (s *Schema) Coerce(column string, v any) (any, error) {
	col, ok := s.Column(column)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, s.Table, column)
	}
	if v == nil {
		return nil, nil
	}

	var (
		out any
		err error
	)
	switch col.Type {
	case TypeInt:
		out, err = cast.ToInt64E(v)
	case TypeFloat:
		out, err = cast.ToFloat64E(v)
	case TypeText:
		out, err = cast.ToStringE(v)
	case TypeBool:
		out, err = cast.ToBoolE(v)
	case TypeTime:
		var t time.Time
		t, err = cast.ToTimeE(v)
		out = t.UTC()
	default:
		out = v
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s.%s: %v", ErrInvalidValue, s.Table, column, err)
	}
	return out, nil
}

// CoerceRecord coerces every value of data. Unknown columns are an error.
func (s *Schema) CoerceRecord(data Record) (Record, error) {
	out := make(Record, len(data))
	for k, v := range data {
		cv, err := s.Coerce(k, v)
		if err != nil {
			return nil, err
		}
		out[k] = cv
	}
	return out, nil
}

// CoerceFilter coerces filter values, including every element of slice values.
func (s *Schema) CoerceFilter(filter Filter) (Filter, error) {
	out := make(Filter, len(filter))
	for k, v := range filter {
		if items, ok := Slice(v); ok {
			coerced := make([]any, 0, len(items))
			for _, item := range items {
				cv, err := s.Coerce(k, item)
				if err != nil {
					return nil, err
				}
				coerced = append(coerced, cv)
			}
			out[k] = coerced
			continue
		}
		cv, err := s.Coerce(k, v)
		if err != nil {
			return nil, err
		}
		out[k] = cv
	}
	return out, nil
}

// ResolveOrder validates order against the schema and applies the defaults.
func (s *Schema) ResolveOrder(order Order) (Order, error) {
	if len(order) == 0 {
		order = s.DefaultOrder
	}
	if len(order) == 0 {
		return Asc(s.PrimaryKey()), nil
	}
	for _, by := range order {
		if _, ok := s.Column(by.Column); !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, s.Table, by.Column)
		}
	}
	return order, nil
}

// Slice reports whether v is a slice or array (other than []byte) and returns
// its elements.
func Slice(v any) ([]any, bool) {
	switch items := v.(type) {
	case nil, []byte, string:
		return nil, false
	case []any:
		return items, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
