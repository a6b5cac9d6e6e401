package memory

import (
	"context"
	"testing"
	"time"

	"github.com/deppfellow/start-service/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagSchema() *model.Schema {
	return &model.Schema{
		Table: "tags",
		Columns: []model.Column{
			{Name: "id", Type: model.TypeInt},
			{Name: "name", Type: model.TypeText},
			{Name: "weight", Type: model.TypeInt},
			{Name: "create_time", Type: model.TypeTime},
			{Name: "update_time", Type: model.TypeTime},
		},
		Timestamps: true,
	}
}

func newTestTable(t *testing.T) (*Store, *Table) {
	t.Helper()
	store := NewStore()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	return store, store.Table(tagSchema())
}

func seed(t *testing.T, table *Table, names ...string) {
	t.Helper()
	for i, name := range names {
		_, err := table.Insert(context.Background(), nil, model.Record{"name": name, "weight": len(names) - i})
		require.NoError(t, err)
	}
}

func TestTable_Insert_AssignsIDAndTimestamps(t *testing.T) {
	_, table := newTestTable(t)
	ctx := context.Background()

	rec, err := table.Insert(ctx, nil, model.Record{"name": "go"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), rec["id"])
	assert.Equal(t, "go", rec["name"])
	assert.Nil(t, rec["weight"])
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), rec["create_time"])
	assert.Equal(t, rec["create_time"], rec["update_time"])

	rec, err = table.Insert(ctx, nil, model.Record{"name": "rust"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec["id"])
}

func TestTable_Insert_ExplicitIDAdvancesSequence(t *testing.T) {
	_, table := newTestTable(t)
	ctx := context.Background()

	_, err := table.Insert(ctx, nil, model.Record{"id": "10", "name": "ten"})
	require.NoError(t, err)

	rec, err := table.Insert(ctx, nil, model.Record{"name": "next"})
	require.NoError(t, err)
	assert.Equal(t, int64(11), rec["id"])

	_, err = table.Insert(ctx, nil, model.Record{"id": 10, "name": "dup"})
	assert.ErrorIs(t, err, model.ErrInvalidValue)
}

func TestTable_Insert_UnknownColumn(t *testing.T) {
	_, table := newTestTable(t)

	_, err := table.Insert(context.Background(), nil, model.Record{"name": "go", "color": "blue"})
	assert.ErrorIs(t, err, model.ErrUnknownColumn)
}

func TestTable_Insert_InvalidValue(t *testing.T) {
	_, table := newTestTable(t)

	_, err := table.Insert(context.Background(), nil, model.Record{"name": "go", "weight": "heavy"})
	assert.ErrorIs(t, err, model.ErrInvalidValue)
}

func TestTable_FindCoercesKey(t *testing.T) {
	_, table := newTestTable(t)
	seed(t, table, "a", "b")

	rec, err := table.Find(context.Background(), nil, "2")
	require.NoError(t, err)
	assert.Equal(t, "b", rec["name"])

	_, err = table.Find(context.Background(), nil, 99)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTable_FindReturnsCopy(t *testing.T) {
	_, table := newTestTable(t)
	seed(t, table, "a")

	rec, err := table.Find(context.Background(), nil, 1)
	require.NoError(t, err)
	rec["name"] = "mutated"

	again, err := table.Find(context.Background(), nil, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", again["name"])
}

func TestTable_List_FilterAndOrder(t *testing.T) {
	_, table := newTestTable(t)
	seed(t, table, "a", "b", "c", "d")
	ctx := context.Background()

	tests := []struct {
		name   string
		filter model.Filter
		order  model.Order
		want   []string
	}{
		{name: "default order is primary key", want: []string{"a", "b", "c", "d"}},
		{name: "order by weight asc", order: model.Asc("weight"), want: []string{"d", "c", "b", "a"}},
		{name: "order by name desc", order: model.Desc("name"), want: []string{"d", "c", "b", "a"}},
		{name: "equality", filter: model.Filter{"name": "c"}, want: []string{"c"}},
		{name: "membership", filter: model.Filter{"id": []string{"1", "3"}}, want: []string{"a", "c"}},
		{name: "string number equality", filter: model.Filter{"weight": "4"}, want: []string{"a"}},
		{name: "no match", filter: model.Filter{"name": "z"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := table.List(ctx, nil, tt.filter, tt.order)
			require.NoError(t, err)

			names := make([]string, 0, len(rows))
			for _, r := range rows {
				names = append(names, r["name"].(string))
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestTable_List_NullFilter(t *testing.T) {
	_, table := newTestTable(t)
	ctx := context.Background()
	_, err := table.Insert(ctx, nil, model.Record{"name": "heavy", "weight": 5})
	require.NoError(t, err)
	_, err = table.Insert(ctx, nil, model.Record{"name": "unset"})
	require.NoError(t, err)

	rows, err := table.List(ctx, nil, model.Filter{"weight": nil}, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "unset", rows[0]["name"])
}

func TestTable_List_UnknownOrderColumn(t *testing.T) {
	_, table := newTestTable(t)

	_, err := table.List(context.Background(), nil, nil, model.Asc("color"))
	assert.ErrorIs(t, err, model.ErrUnknownColumn)
}

func TestTable_Page(t *testing.T) {
	_, table := newTestTable(t)
	seed(t, table, "a", "b", "c", "d", "e")

	page, err := table.Page(context.Background(), nil, nil, nil, model.PageRequest{Page: 2, Size: 2})
	require.NoError(t, err)

	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 2, page.PerPage)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 3, page.LastPage)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "c", page.Data[0]["name"])
	assert.Equal(t, "d", page.Data[1]["name"])

	page, err = table.Page(context.Background(), nil, nil, nil, model.PageRequest{Page: 9, Size: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.NotNil(t, page.Data)
}

func TestTable_Update(t *testing.T) {
	store, table := newTestTable(t)
	seed(t, table, "a")

	later := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return later }

	rec, err := table.Update(context.Background(), nil, "1", model.Record{"id": 42, "name": "renamed"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), rec["id"])
	assert.Equal(t, "renamed", rec["name"])
	assert.Equal(t, later, rec["update_time"])
	assert.NotEqual(t, later, rec["create_time"])

	_, err = table.Update(context.Background(), nil, 7, model.Record{"name": "x"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTable_DeleteAndFindIn(t *testing.T) {
	store, table := newTestTable(t)
	seed(t, table, "a", "b", "c")
	ctx := context.Background()

	rows, err := table.FindIn(ctx, nil, []any{"3", 1, int64(9)})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0]["id"])
	assert.Equal(t, int64(3), rows[1]["id"])

	require.NoError(t, table.Delete(ctx, nil, 2))
	assert.Equal(t, 2, store.Len("tags"))
	assert.ErrorIs(t, table.Delete(ctx, nil, 2), model.ErrNotFound)
}

func TestTable_InfoLoadsRelations(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	authors := &model.Schema{
		Table:   "authors",
		Columns: []model.Column{{Name: "id", Type: model.TypeInt}, {Name: "name", Type: model.TypeText}},
	}
	books := &model.Schema{
		Table: "books",
		Columns: []model.Column{
			{Name: "id", Type: model.TypeInt},
			{Name: "author_id", Type: model.TypeInt},
			{Name: "title", Type: model.TypeText},
		},
		Relations: map[string]model.Relation{
			"author": {Kind: model.BelongsTo, Related: store.Factory(authors), ForeignKey: "author_id"},
		},
	}
	authors.Relations = map[string]model.Relation{
		"books": {Kind: model.HasMany, Related: store.Factory(books), ForeignKey: "author_id"},
		"first": {Kind: model.HasOne, Related: store.Factory(books), ForeignKey: "author_id"},
	}

	authorTable, bookTable := store.Table(authors), store.Table(books)
	_, err := authorTable.Insert(ctx, nil, model.Record{"name": "Ursula"})
	require.NoError(t, err)
	_, err = authorTable.Insert(ctx, nil, model.Record{"name": "Nobody"})
	require.NoError(t, err)
	_, err = bookTable.Insert(ctx, nil, model.Record{"author_id": 1, "title": "Earthsea"})
	require.NoError(t, err)
	_, err = bookTable.Insert(ctx, nil, model.Record{"author_id": 1, "title": "Lathe"})
	require.NoError(t, err)
	_, err = bookTable.Insert(ctx, nil, model.Record{"title": "Orphan"})
	require.NoError(t, err)

	author, err := authorTable.Info(ctx, nil, model.Filter{"id": 1}, []string{"books", "first"})
	require.NoError(t, err)
	assert.Len(t, author["books"], 2)
	assert.Equal(t, "Earthsea", author["first"].(model.Record)["title"])

	lonely, err := authorTable.Info(ctx, nil, model.Filter{"id": 2}, []string{"books", "first"})
	require.NoError(t, err)
	assert.Empty(t, lonely["books"])
	assert.Nil(t, lonely["first"])

	book, err := bookTable.Info(ctx, nil, model.Filter{"title": "Earthsea"}, []string{"author"})
	require.NoError(t, err)
	assert.Equal(t, "Ursula", book["author"].(model.Record)["name"])

	orphan, err := bookTable.Info(ctx, nil, model.Filter{"title": "Orphan"}, []string{"author"})
	require.NoError(t, err)
	assert.Nil(t, orphan["author"])

	_, err = bookTable.Info(ctx, nil, model.Filter{"id": 1}, []string{"publisher"})
	assert.ErrorIs(t, err, model.ErrUnknownRelation)

	_, err = bookTable.Info(ctx, nil, model.Filter{"id": 99}, nil)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTable_UniqueColumn(t *testing.T) {
	ctx := context.Background()
	schema := tagSchema()
	schema.Columns[1].Unique = true
	table := NewStore().Table(schema)

	_, err := table.Insert(ctx, nil, model.Record{"name": "go"})
	require.NoError(t, err)
	_, err = table.Insert(ctx, nil, model.Record{"name": "rust"})
	require.NoError(t, err)

	_, err = table.Insert(ctx, nil, model.Record{"name": "go"})
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "23505", pgErr.Code)
	assert.Equal(t, "tags_name_key", pgErr.ConstraintName)
	assert.Equal(t, "tags", pgErr.TableName)

	_, err = table.Update(ctx, nil, 2, model.Record{"name": "go"})
	require.ErrorAs(t, err, &pgErr)

	_, err = table.Update(ctx, nil, 1, model.Record{"name": "go", "weight": 3})
	assert.NoError(t, err, "a row keeps its own value")

	_, err = table.Insert(ctx, nil, model.Record{"weight": 1})
	require.NoError(t, err)
	_, err = table.Insert(ctx, nil, model.Record{"weight": 2})
	assert.NoError(t, err, "nulls never collide")
}
