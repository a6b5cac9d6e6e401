package pgmodel

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/deppfellow/start-service/internal/model"
	"github.com/jackc/pgx/v5"
)

// args accumulates positional parameters.
type args []any

func (a *args) bind(v any) string {
	*a = append(*a, v)
	return "$" + strconv.Itoa(len(*a))
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func (t *Table) table() string {
	return ident(t.schema.Table)
}

func (t *Table) columns() string {
	names := t.schema.ColumnNames()
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = ident(name)
	}
	return strings.Join(quoted, ", ")
}

// where renders filter as a WHERE clause. Keys are sorted so that the
// statement text is stable.
func (t *Table) where(filter model.Filter, a *args) (string, error) {
	if len(filter) == 0 {
		return "", nil
	}

	coerced, err := t.schema.CoerceFilter(filter)
	if err != nil {
		return "", err
	}

	keys := make([]string, 0, len(coerced))
	for k := range coerced {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]string, 0, len(keys))
	for _, k := range keys {
		v := coerced[k]
		col := ident(k)

		if items, ok := model.Slice(v); ok {
			if len(items) == 0 {
				conds = append(conds, "FALSE")
				continue
			}
			params := make([]string, len(items))
			for i, item := range items {
				params[i] = a.bind(item)
			}
			conds = append(conds, fmt.Sprintf("%s IN (%s)", col, strings.Join(params, ", ")))
			continue
		}

		if v == nil {
			conds = append(conds, col+" IS NULL")
			continue
		}
		conds = append(conds, fmt.Sprintf("%s = %s", col, a.bind(v)))
	}

	return " WHERE " + strings.Join(conds, " AND "), nil
}

func (t *Table) orderBy(order model.Order) (string, error) {
	order, err := t.schema.ResolveOrder(order)
	if err != nil {
		return "", err
	}

	terms := make([]string, len(order))
	for i, by := range order {
		dir := "ASC"
		if by.Desc {
			dir = "DESC"
		}
		terms[i] = ident(by.Column) + " " + dir
	}
	return " ORDER BY " + strings.Join(terms, ", "), nil
}

// selectSQL builds a SELECT. A zero limit means no LIMIT clause.
func (t *Table) selectSQL(filter model.Filter, order model.Order, limit, offset int) (string, []any, error) {
	var a args

	where, err := t.where(filter, &a)
	if err != nil {
		return "", nil, err
	}
	orderBy, err := t.orderBy(order)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s%s%s", t.columns(), t.table(), where, orderBy)
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %s", a.bind(limit))
	}
	if offset > 0 {
		fmt.Fprintf(&b, " OFFSET %s", a.bind(offset))
	}

	return b.String(), a, nil
}

func (t *Table) countSQL(filter model.Filter) (string, []any, error) {
	var a args

	where, err := t.where(filter, &a)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", t.table(), where), a, nil
}

// sortedValues coerces data and returns its columns in sorted order.
func (t *Table) sortedValues(data model.Record) ([]string, model.Record, error) {
	values, err := t.schema.CoerceRecord(data)
	if err != nil {
		return nil, nil, err
	}

	cols := make([]string, 0, len(values))
	for k := range values {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols, values, nil
}

func (t *Table) insertSQL(data model.Record) (string, []any, error) {
	data = data.Clone()
	if data == nil {
		data = model.Record{}
	}
	if t.schema.Timestamps {
		now := t.now()
		data[model.CreateTimeColumn] = now
		data[model.UpdateTimeColumn] = now
	}

	cols, values, err := t.sortedValues(data)
	if err != nil {
		return "", nil, err
	}

	if len(cols) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s", t.table(), t.columns()), nil, nil
	}

	var a args
	names := make([]string, len(cols))
	params := make([]string, len(cols))
	for i, col := range cols {
		names[i] = ident(col)
		params[i] = a.bind(values[col])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		t.table(), strings.Join(names, ", "), strings.Join(params, ", "), t.columns())
	return query, a, nil
}

// updateSQL builds an UPDATE by primary key. It returns an empty statement
// when there is nothing to write.
func (t *Table) updateSQL(pk any, data model.Record) (string, []any, error) {
	data = data.Without(t.PrimaryKey())
	if data == nil {
		data = model.Record{}
	}
	if len(data) == 0 && !t.schema.Timestamps {
		return "", nil, nil
	}
	if t.schema.Timestamps {
		data[model.UpdateTimeColumn] = t.now()
	}

	cols, values, err := t.sortedValues(data)
	if err != nil {
		return "", nil, err
	}
	key, err := t.schema.Coerce(t.PrimaryKey(), pk)
	if err != nil {
		return "", nil, err
	}

	var a args
	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = %s", ident(col), a.bind(values[col]))
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s RETURNING %s",
		t.table(), strings.Join(sets, ", "), ident(t.PrimaryKey()), a.bind(key), t.columns())
	return query, a, nil
}

func (t *Table) deleteSQL(pk any) (string, []any, error) {
	key, err := t.schema.Coerce(t.PrimaryKey(), pk)
	if err != nil {
		return "", nil, err
	}

	var a args
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", t.table(), ident(t.PrimaryKey()), a.bind(key))
	return query, a, nil
}
