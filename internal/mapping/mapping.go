// Package mapping turns source rows into destination values. Every function
// here is pure: no I/O, deterministic, and it never substitutes a value for a
// NULL in a non-nullable column.
package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"

	"example.com/sakila-migration/internal/models"
	"example.com/sakila-migration/internal/source"
)

// KVRecord is a key and its serialized JSON value.
type KVRecord struct {
	Key   string
	Value string
}

// City maps a city row to "city:<id>" -> {"id","name","country_id"}.
func City(row *source.Row) (KVRecord, error) {
	id, err := row.Int("city_id")
	if err != nil {
		return KVRecord{}, mappingError(row, err)
	}
	name, err := row.Text("city")
	if err != nil {
		return KVRecord{}, mappingError(row, err)
	}
	countryID, err := row.Int("country_id")
	if err != nil {
		return KVRecord{}, mappingError(row, err)
	}
	return kvRecord(row, models.KeyPrefixCity, id, models.CityValue{ID: id, Name: name, CountryID: countryID})
}

// Country maps a country row to "country:<id>" -> {"id","name"}.
func Country(row *source.Row) (KVRecord, error) {
	id, err := row.Int("country_id")
	if err != nil {
		return KVRecord{}, mappingError(row, err)
	}
	name, err := row.Text("country")
	if err != nil {
		return KVRecord{}, mappingError(row, err)
	}
	return kvRecord(row, models.KeyPrefixCountry, id, models.CountryValue{ID: id, Name: name})
}

// Film maps a film row to its document. description and release_year are
// nullable and stored as null when absent.
func Film(row *source.Row) (bson.D, error) {
	id, err := row.Int("film_id")
	if err != nil {
		return nil, mappingError(row, err)
	}
	title, err := row.Text("title")
	if err != nil {
		return nil, mappingError(row, err)
	}
	description, err := row.OptionalText("description")
	if err != nil {
		return nil, mappingError(row, err)
	}
	releaseYear, err := row.OptionalInt("release_year")
	if err != nil {
		return nil, mappingError(row, err)
	}
	languageID, err := row.Int("language_id")
	if err != nil {
		return nil, mappingError(row, err)
	}
	return bson.D{
		{Key: models.DocumentIDField, Value: id},
		{Key: "title", Value: title},
		{Key: "description", Value: nullable(description)},
		{Key: "release_year", Value: nullable(releaseYear)},
		{Key: "language_id", Value: languageID},
	}, nil
}

// Actor maps an actor row to its document.
func Actor(row *source.Row) (bson.D, error) {
	id, err := row.Int("actor_id")
	if err != nil {
		return nil, mappingError(row, err)
	}
	firstName, err := row.Text("first_name")
	if err != nil {
		return nil, mappingError(row, err)
	}
	lastName, err := row.Text("last_name")
	if err != nil {
		return nil, mappingError(row, err)
	}
	return bson.D{
		{Key: models.DocumentIDField, Value: id},
		{Key: "first_name", Value: firstName},
		{Key: "last_name", Value: lastName},
	}, nil
}

// Category maps a category row to its document.
func Category(row *source.Row) (bson.D, error) {
	return namedDocument(row, "category_id")
}

// Language maps a language row to its document.
func Language(row *source.Row) (bson.D, error) {
	return namedDocument(row, "language_id")
}

// namedDocument builds {_id, name} for the tables that only carry a name.
func namedDocument(row *source.Row, idColumn string) (bson.D, error) {
	id, err := row.Int(idColumn)
	if err != nil {
		return nil, mappingError(row, err)
	}
	name, err := row.Text("name")
	if err != nil {
		return nil, mappingError(row, err)
	}
	return bson.D{
		{Key: models.DocumentIDField, Value: id},
		{Key: "name", Value: name},
	}, nil
}

func kvRecord(row *source.Row, prefix string, id int64, value any) (KVRecord, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return KVRecord{}, mappingError(row, fmt.Errorf("failed to marshal value: %w", err))
	}
	return KVRecord{Key: prefix + strconv.FormatInt(id, 10), Value: string(b)}, nil
}

// mappingError classifies an accessor failure. Schema mismatches keep their
// own code; everything else is a MappingError.
func mappingError(row *source.Row, err error) error {
	var me *models.MigrationError
	if errors.As(err, &me) {
		return err
	}
	return models.NewMappingError(row.Entity(), err)
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}
