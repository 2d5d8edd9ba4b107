package schema

// CatalogParticipantTable represents the 'catalog.participant' table
type CatalogParticipantTable struct {
	Table        string
	ID           string
	DiscordID    string
	Name         string
	Reservations string
	LastUpdated  string
}

// CatalogParticipant is the schema definition for catalog.participant
var CatalogParticipant = CatalogParticipantTable{
	Table:        "catalog.participant",
	ID:           "id",
	DiscordID:    "discordid",
	Name:         "name",
	Reservations: "reservations",
	LastUpdated:  "lastupdated",
}

// Columns returns all standard column names
func (t CatalogParticipantTable) Columns() []string {
	return []string{t.ID, t.DiscordID, t.Name, t.Reservations, t.LastUpdated}
}
