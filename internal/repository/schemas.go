package repository

import "github.com/deppfellow/start-service/internal/model"

// Registry names of the application's models, short form.
const (
	CategoryModel = "Category"
	ArticleModel  = "Article"
)

// CategorySchema describes the categories table. Its articles relation
// resolves through reg so that it follows whichever driver registered Article.
func CategorySchema(reg *model.Registry) *model.Schema {
	return &model.Schema{
		Table: "categories",
		Columns: []model.Column{
			{Name: "id", Type: model.TypeInt},
			{Name: "name", Type: model.TypeText},
			{Name: "slug", Type: model.TypeText, Unique: true},
			{Name: "sort", Type: model.TypeInt},
			{Name: "status", Type: model.TypeBool},
			{Name: model.CreateTimeColumn, Type: model.TypeTime},
			{Name: model.UpdateTimeColumn, Type: model.TypeTime},
		},
		Timestamps:   true,
		DefaultOrder: model.Order{{Column: "sort"}, {Column: "id"}},
		Relations: map[string]model.Relation{
			"articles": {
				Kind:       model.HasMany,
				Related:    reg.Lazy(ArticleModel),
				ForeignKey: "category_id",
			},
		},
	}
}

// ArticleSchema describes the articles table.
func ArticleSchema(reg *model.Registry) *model.Schema {
	return &model.Schema{
		Table: "articles",
		Columns: []model.Column{
			{Name: "id", Type: model.TypeInt},
			{Name: "category_id", Type: model.TypeInt},
			{Name: "title", Type: model.TypeText},
			{Name: "content", Type: model.TypeText},
			{Name: "views", Type: model.TypeInt},
			{Name: "published", Type: model.TypeBool},
			{Name: "meta", Type: model.TypeJSON},
			{Name: model.CreateTimeColumn, Type: model.TypeTime},
			{Name: model.UpdateTimeColumn, Type: model.TypeTime},
		},
		Timestamps:   true,
		DefaultOrder: model.Desc(model.CreateTimeColumn),
		Relations: map[string]model.Relation{
			"category": {
				Kind:       model.BelongsTo,
				Related:    reg.Lazy(CategoryModel),
				ForeignKey: "category_id",
			},
		},
	}
}
