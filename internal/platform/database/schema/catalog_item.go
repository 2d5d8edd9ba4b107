package schema

// CatalogItemTable represents the 'catalog.item' table
type CatalogItemTable struct {
	Table           string
	ID              string
	URL             string
	Title           string
	PriceYen        string
	PriceUSD        string
	PreviewImageURL string
	IsAdult         string
	CircleName      string
	AuthorNames     string
	Genres          string
	Events          string
	Reservations    string
	LastUpdated     string
}

// CatalogItem is the schema definition for catalog.item
var CatalogItem = CatalogItemTable{
	Table:           "catalog.item",
	ID:              "id",
	URL:             "url",
	Title:           "title",
	PriceYen:        "priceyen",
	PriceUSD:        "priceusd",
	PreviewImageURL: "previewimageurl",
	IsAdult:         "isadult",
	CircleName:      "circlename",
	AuthorNames:     "authornames",
	Genres:          "genres",
	Events:          "events",
	Reservations:    "reservations",
	LastUpdated:     "lastupdated",
}

// Columns returns all standard column names
func (t CatalogItemTable) Columns() []string {
	return []string{
		t.ID, t.URL, t.Title, t.PriceYen, t.PriceUSD, t.PreviewImageURL,
		t.IsAdult, t.CircleName, t.AuthorNames, t.Genres, t.Events,
		t.Reservations, t.LastUpdated,
	}
}
