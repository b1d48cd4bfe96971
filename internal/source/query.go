package source

import "example.com/sakila-migration/internal/models"

// ColumnType is the Go-side type a declared column is scanned into.
type ColumnType int

const (
	ColumnInt ColumnType = iota
	ColumnText
)

func (t ColumnType) String() string {
	switch t {
	case ColumnInt:
		return "int"
	case ColumnText:
		return "text"
	default:
		return "unknown"
	}
}

// Column declares one projected column of a Query.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// Query is a fixed projection over one source table. Queries are declared
// here and never assembled from caller input.
type Query struct {
	Entity  string
	SQL     string
	Columns []Column
}

var (
	CityQuery = Query{
		Entity: models.EntityCity,
		SQL:    "SELECT city_id, city, country_id FROM city",
		Columns: []Column{
			{Name: "city_id", Type: ColumnInt},
			{Name: "city", Type: ColumnText},
			{Name: "country_id", Type: ColumnInt},
		},
	}

	CountryQuery = Query{
		Entity: models.EntityCountry,
		SQL:    "SELECT country_id, country FROM country",
		Columns: []Column{
			{Name: "country_id", Type: ColumnInt},
			{Name: "country", Type: ColumnText},
		},
	}

	// description and release_year are nullable in the Sakila film table.
	FilmQuery = Query{
		Entity: models.EntityFilm,
		SQL:    "SELECT film_id, title, description, release_year, language_id FROM film",
		Columns: []Column{
			{Name: "film_id", Type: ColumnInt},
			{Name: "title", Type: ColumnText},
			{Name: "description", Type: ColumnText, Nullable: true},
			{Name: "release_year", Type: ColumnInt, Nullable: true},
			{Name: "language_id", Type: ColumnInt},
		},
	}

	ActorQuery = Query{
		Entity: models.EntityActor,
		SQL:    "SELECT actor_id, first_name, last_name FROM actor",
		Columns: []Column{
			{Name: "actor_id", Type: ColumnInt},
			{Name: "first_name", Type: ColumnText},
			{Name: "last_name", Type: ColumnText},
		},
	}

	CategoryQuery = Query{
		Entity: models.EntityCategory,
		SQL:    "SELECT category_id, name FROM category",
		Columns: []Column{
			{Name: "category_id", Type: ColumnInt},
			{Name: "name", Type: ColumnText},
		},
	}

	LanguageQuery = Query{
		Entity: models.EntityLanguage,
		SQL:    "SELECT language_id, name FROM language",
		Columns: []Column{
			{Name: "language_id", Type: ColumnInt},
			{Name: "name", Type: ColumnText},
		},
	}
)

// column returns the declared column with the given name.
func (q Query) column(name string) (int, Column, bool) {
	for i, c := range q.Columns {
		if c.Name == name {
			return i, c, true
		}
	}
	return -1, Column{}, false
}
