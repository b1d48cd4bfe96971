package models

// Entity names as they appear in logs, reports and metrics.
const (
	EntityCity     = "city"
	EntityCountry  = "country"
	EntityFilm     = "film"
	EntityActor    = "actor"
	EntityCategory = "category"
	EntityLanguage = "language"
)

// Phase names. A phase groups the entity tasks sharing one destination connection.
const (
	PhaseInit      = "init"
	PhaseKV        = "kv"
	PhaseDocuments = "documents"
	PhaseFinalize  = "finalize"
)

// Destination collection names in the document store.
const (
	CollectionFilms      = "films"
	CollectionActors     = "actors"
	CollectionCategories = "categories"
	CollectionLanguages  = "languages"
)

// KV key prefixes. Keys are the prefix followed by the decimal primary key.
const (
	KeyPrefixCity    = "city:"
	KeyPrefixCountry = "country:"
)

// DocumentIDField is the reserved identifier key of every migrated document.
const DocumentIDField = "_id"

// CityValue is the JSON value stored under "city:<id>".
type CityValue struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CountryID int64  `json:"country_id"`
}

// CountryValue is the JSON value stored under "country:<id>".
type CountryValue struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// KVKeyPrefixes lists every key prefix the KV phase writes.
func KVKeyPrefixes() []string {
	return []string{KeyPrefixCity, KeyPrefixCountry}
}

// DocumentCollections lists every collection the document phase writes, in task order.
func DocumentCollections() []string {
	return []string{CollectionFilms, CollectionActors, CollectionCategories, CollectionLanguages}
}
