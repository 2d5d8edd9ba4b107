// Copyright (c) 2026 Comiket Bot. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comiketbot/comiket/internal/platform/apperr"
	"github.com/comiketbot/comiket/internal/platform/database/schema"
	"github.com/comiketbot/comiket/internal/platform/dberr"
	"github.com/comiketbot/comiket/pkg/uuidv7"
)

// participantLink is the stored shape of one entry in
// catalog.participant.reservations.
type participantLink struct {
	ItemID  string    `json:"item_id"`
	AddedAt time.Time `json:"added_at"`
}

// itemLink is the stored shape of one entry in catalog.item.reservations.
type itemLink struct {
	ParticipantID string    `json:"participant_id"`
	AddedAt       time.Time `json:"added_at"`
}

// PostgresRepository implements [Repository] on a pgx connection pool.
//
// The two-sided reservation writes run inside one transaction, so a failure
// on the second side rolls back the first: the redundant lists cannot drift
// apart through this code path.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (repository *PostgresRepository) AddItem(ctx context.Context, params NewItemParams) (*ItemWithReservations, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, '[]'::jsonb, $12)
	`, schema.CatalogItem.Table, strings.Join(schema.CatalogItem.Columns(), ", "))

	id := uuidv7.New()
	now := time.Now().UTC()

	_, err := repository.db.Exec(ctx, query,
		id,
		params.URL,
		params.Title,
		params.PriceYen,
		params.PriceUSD,
		params.PreviewImageURL,
		params.IsAdult,
		params.CircleName,
		params.AuthorNames,
		params.Genres,
		params.Events,
		now,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "add_item")
	}

	return &ItemWithReservations{
		Item: Item{
			ID:              id,
			URL:             params.URL,
			Title:           params.Title,
			PriceYen:        params.PriceYen,
			PriceUSD:        params.PriceUSD,
			PreviewImageURL: params.PreviewImageURL,
			IsAdult:         params.IsAdult,
			CircleName:      params.CircleName,
			AuthorNames:     params.AuthorNames,
			Genres:          params.Genres,
			Events:          params.Events,
			LastUpdated:     now,
		},
		Reservations: []ParticipantReservation{},
	}, nil
}

func (repository *PostgresRepository) ItemByURL(ctx context.Context, url string) (*ItemWithReservations, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		strings.Join(schema.CatalogItem.Columns(), ", "), schema.CatalogItem.Table, schema.CatalogItem.URL)

	item, links, err := scanItemRow(repository.db.QueryRow(ctx, query, url))
	if err != nil {
		return nil, dberr.Wrap(err, "get_item_by_url")
	}

	reservations, err := repository.resolveItemLinks(ctx, item.ID, links)
	if err != nil {
		return nil, err
	}

	return &ItemWithReservations{Item: *item, Reservations: reservations}, nil
}

func (repository *PostgresRepository) ItemByID(ctx context.Context, id string) (*ItemWithReservations, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		strings.Join(schema.CatalogItem.Columns(), ", "), schema.CatalogItem.Table, schema.CatalogItem.ID)

	item, links, err := scanItemRow(repository.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_item_by_id")
	}

	reservations, err := repository.resolveItemLinks(ctx, item.ID, links)
	if err != nil {
		return nil, err
	}

	return &ItemWithReservations{Item: *item, Reservations: reservations}, nil
}

func (repository *PostgresRepository) AddParticipant(ctx context.Context, discordID int64, name string) (*ParticipantWithReservations, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, '[]'::jsonb, $4)
	`, schema.CatalogParticipant.Table, strings.Join(schema.CatalogParticipant.Columns(), ", "))

	id := uuidv7.New()
	now := time.Now().UTC()

	if _, err := repository.db.Exec(ctx, query, id, discordID, name, now); err != nil {
		return nil, dberr.Wrap(err, "add_participant")
	}

	return &ParticipantWithReservations{
		Participant: Participant{
			ID:          id,
			DiscordID:   discordID,
			Name:        name,
			LastUpdated: now,
		},
		Reservations: []ItemReservation{},
	}, nil
}

func (repository *PostgresRepository) ParticipantByDiscordID(ctx context.Context, discordID int64) (*ParticipantWithReservations, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		strings.Join(schema.CatalogParticipant.Columns(), ", "),
		schema.CatalogParticipant.Table, schema.CatalogParticipant.DiscordID)

	participant, links, err := scanParticipantRow(repository.db.QueryRow(ctx, query, discordID))
	if err != nil {
		return nil, dberr.Wrap(err, "get_participant_by_discord_id")
	}

	reservations, err := repository.resolveParticipantLinks(ctx, participant.ID, links)
	if err != nil {
		return nil, err
	}

	return &ParticipantWithReservations{Participant: *participant, Reservations: reservations}, nil
}

func (repository *PostgresRepository) RenameParticipant(ctx context.Context, id string, name string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1 AND %s <> $2`,
		schema.CatalogParticipant.Table, schema.CatalogParticipant.Name,
		schema.CatalogParticipant.LastUpdated, schema.CatalogParticipant.ID,
		schema.CatalogParticipant.Name)

	// Zero rows is fine here: the name already matched.
	_, err := repository.db.Exec(ctx, query, id, name, time.Now().UTC())
	return dberr.Wrap(err, "rename_participant")
}

func (repository *PostgresRepository) AddReservation(ctx context.Context, participant *ParticipantWithReservations, item *ItemWithReservations) error {
	// One timestamp, computed once, written to both sides.
	now := time.Now().UTC()

	participantEntry, err := json.Marshal(participantLink{ItemID: item.ID, AddedAt: now})
	if err != nil {
		return apperr.Internal(err)
	}
	itemEntry, err := json.Marshal(itemLink{ParticipantID: participant.ID, AddedAt: now})
	if err != nil {
		return apperr.Internal(err)
	}

	tx, err := repository.db.Begin(ctx)
	if err != nil {
		return dberr.Wrap(err, "begin_add_reservation")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := pushLink(ctx, tx, linkSide{
		table:    schema.CatalogParticipant.Table,
		listCol:  schema.CatalogParticipant.Reservations,
		touchCol: schema.CatalogParticipant.LastUpdated,
		refField: "item_id",
	}, participant.ID, item.ID, participantEntry, now); err != nil {
		return err
	}

	if err := pushLink(ctx, tx, linkSide{
		table:    schema.CatalogItem.Table,
		listCol:  schema.CatalogItem.Reservations,
		touchCol: schema.CatalogItem.LastUpdated,
		refField: "participant_id",
	}, item.ID, participant.ID, itemEntry, now); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return dberr.Wrap(err, "commit_add_reservation")
	}

	// Patch the in-memory snapshots so callers need not re-read.
	participant.Reservations = append(participant.Reservations, ItemReservation{Item: item.Item, AddedAt: now})
	participant.LastUpdated = now
	item.Reservations = append(item.Reservations, ParticipantReservation{Participant: participant.Participant, AddedAt: now})
	item.LastUpdated = now

	return nil
}

func (repository *PostgresRepository) RemoveReservation(ctx context.Context, participant *ParticipantWithReservations, item *ItemWithReservations) error {
	now := time.Now().UTC()

	tx, err := repository.db.Begin(ctx)
	if err != nil {
		return dberr.Wrap(err, "begin_remove_reservation")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := pullLink(ctx, tx, linkSide{
		table:    schema.CatalogParticipant.Table,
		listCol:  schema.CatalogParticipant.Reservations,
		touchCol: schema.CatalogParticipant.LastUpdated,
		refField: "item_id",
	}, participant.ID, item.ID, now); err != nil {
		return err
	}

	if err := pullLink(ctx, tx, linkSide{
		table:    schema.CatalogItem.Table,
		listCol:  schema.CatalogItem.Reservations,
		touchCol: schema.CatalogItem.LastUpdated,
		refField: "participant_id",
	}, item.ID, participant.ID, now); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return dberr.Wrap(err, "commit_remove_reservation")
	}

	kept := participant.Reservations[:0:0]
	for _, r := range participant.Reservations {
		if r.Item.ID != item.ID {
			kept = append(kept, r)
		}
	}
	participant.Reservations = kept
	participant.LastUpdated = now

	keptBy := item.Reservations[:0:0]
	for _, r := range item.Reservations {
		if r.Participant.ID != participant.ID {
			keptBy = append(keptBy, r)
		}
	}
	item.Reservations = keptBy
	item.LastUpdated = now

	return nil
}

func (repository *PostgresRepository) ListParticipants(ctx context.Context) ([]*ParticipantWithReservations, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s ASC`,
		strings.Join(schema.CatalogParticipant.Columns(), ", "),
		schema.CatalogParticipant.Table, schema.CatalogParticipant.ID)

	rows, err := repository.db.Query(ctx, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_participants")
	}

	// Collect first, resolve after: link resolution issues its own queries.
	scanned, err := collectParticipantRows(rows)
	if err != nil {
		return nil, err
	}

	result := make([]*ParticipantWithReservations, 0, len(scanned))
	for _, p := range scanned {
		reservations, err := repository.resolveParticipantLinks(ctx, p.participant.ID, p.links)
		if err != nil {
			return nil, err
		}
		result = append(result, &ParticipantWithReservations{Participant: *p.participant, Reservations: reservations})
	}

	return result, nil
}

func (repository *PostgresRepository) ListItems(ctx context.Context) ([]*ItemWithReservations, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s ASC`,
		strings.Join(schema.CatalogItem.Columns(), ", "),
		schema.CatalogItem.Table, schema.CatalogItem.ID)

	rows, err := repository.db.Query(ctx, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_items")
	}

	scanned, err := collectItemRows(rows)
	if err != nil {
		return nil, err
	}

	result := make([]*ItemWithReservations, 0, len(scanned))
	for _, p := range scanned {
		reservations, err := repository.resolveItemLinks(ctx, p.item.ID, p.links)
		if err != nil {
			return nil, err
		}
		result = append(result, &ItemWithReservations{Item: *p.item, Reservations: reservations})
	}

	return result, nil
}

// # Link push/pull

// linkSide names the table-specific parts of the shared push/pull queries.
type linkSide struct {
	table    string
	listCol  string
	touchCol string
	refField string
}

// pushLink appends entry to one side's reservation list, conditional on the
// link being absent. Appending is atomic per row; the absence guard closes
// the concurrent double-reserve race.
func pushLink(ctx context.Context, tx pgx.Tx, side linkSide, rowID, refID string, entry []byte, now time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = %s || jsonb_build_array($2::jsonb), %s = $3
		WHERE %s = $1
		  AND NOT EXISTS (
			SELECT 1 FROM jsonb_array_elements(%s) AS entry
			WHERE entry->>'%s' = $4
		  )
	`, side.table, side.listCol, side.listCol, side.touchCol, "id", side.listCol, side.refField)

	cmd, err := tx.Exec(ctx, query, rowID, entry, now, refID)
	if err != nil {
		return dberr.Wrap(err, "push_reservation")
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}

	// Zero rows modified: either the link is already present or the row is
	// gone. Probe to tell the two apart.
	var exists bool
	probe := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, side.table)
	if err := tx.QueryRow(ctx, probe, rowID).Scan(&exists); err != nil {
		return dberr.Wrap(err, "probe_reservation_row")
	}
	if exists {
		return apperr.Conflict("Reservation already exists")
	}
	return apperr.Integrity("Reservation endpoint no longer exists",
		fmt.Errorf("%s id=%s vanished during reservation", side.table, rowID))
}

// pullLink removes the matching entry from one side's reservation list. A
// link absent where one was expected means the caller skipped its
// HasReserved check, or the lists drifted: both are fatal.
func pullLink(ctx context.Context, tx pgx.Tx, side linkSide, rowID, refID string, now time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = (
			SELECT COALESCE(jsonb_agg(entry), '[]'::jsonb)
			FROM jsonb_array_elements(%s) AS entry
			WHERE entry->>'%s' <> $2
		    ),
		    %s = $3
		WHERE %s = $1
		  AND EXISTS (
			SELECT 1 FROM jsonb_array_elements(%s) AS entry
			WHERE entry->>'%s' = $2
		  )
	`, side.table, side.listCol, side.listCol, side.refField, side.touchCol, "id", side.listCol, side.refField)

	cmd, err := tx.Exec(ctx, query, rowID, refID, now)
	if err != nil {
		return dberr.Wrap(err, "pull_reservation")
	}
	if cmd.RowsAffected() == 0 {
		return apperr.Integrity("Reservation missing where one was expected",
			fmt.Errorf("%s id=%s holds no link to %s", side.table, rowID, refID))
	}
	return nil
}

// # Row scanning and link resolution

type scannedItem struct {
	item  *Item
	links []itemLink
}

type scannedParticipant struct {
	participant *Participant
	links       []participantLink
}

// collectItemRows drains rows into scanned items. Iteration can end early
// without a scan failure (connection reset, statement timeout); that error
// surfaces from rows.Err and a partial result is never returned.
func collectItemRows(rows pgx.Rows) ([]scannedItem, error) {
	defer rows.Close()

	var scanned []scannedItem
	for rows.Next() {
		item, links, err := scanItemRow(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_item")
		}
		scanned = append(scanned, scannedItem{item: item, links: links})
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_items")
	}

	return scanned, nil
}

// collectParticipantRows is the participant counterpart of
// [collectItemRows].
func collectParticipantRows(rows pgx.Rows) ([]scannedParticipant, error) {
	defer rows.Close()

	var scanned []scannedParticipant
	for rows.Next() {
		participant, links, err := scanParticipantRow(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_participant")
		}
		scanned = append(scanned, scannedParticipant{participant: participant, links: links})
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_participants")
	}

	return scanned, nil
}

// scanItemRow decodes one catalog.item row in [schema.CatalogItem.Columns] order.
func scanItemRow(row pgx.Row) (*Item, []itemLink, error) {
	var (
		item     Item
		rawLinks []byte
	)

	err := row.Scan(
		&item.ID, &item.URL, &item.Title, &item.PriceYen, &item.PriceUSD,
		&item.PreviewImageURL, &item.IsAdult, &item.CircleName,
		&item.AuthorNames, &item.Genres, &item.Events,
		&rawLinks, &item.LastUpdated,
	)
	if err != nil {
		return nil, nil, err
	}

	var links []itemLink
	if err := json.Unmarshal(rawLinks, &links); err != nil {
		return nil, nil, apperr.Integrity("Stored reservation list is unreadable", err)
	}

	return &item, links, nil
}

// scanParticipantRow decodes one catalog.participant row in
// [schema.CatalogParticipant.Columns] order.
func scanParticipantRow(row pgx.Row) (*Participant, []participantLink, error) {
	var (
		participant Participant
		rawLinks    []byte
	)

	err := row.Scan(
		&participant.ID, &participant.DiscordID, &participant.Name,
		&rawLinks, &participant.LastUpdated,
	)
	if err != nil {
		return nil, nil, err
	}

	var links []participantLink
	if err := json.Unmarshal(rawLinks, &links); err != nil {
		return nil, nil, apperr.Integrity("Stored reservation list is unreadable", err)
	}

	return &participant, links, nil
}

// resolveItemLinks turns an item's stored links into participant snapshots.
// A dangling participant id means the redundant lists have drifted.
func (repository *PostgresRepository) resolveItemLinks(ctx context.Context, itemID string, links []itemLink) ([]ParticipantReservation, error) {
	reservations := make([]ParticipantReservation, 0, len(links))
	for _, link := range links {
		participant, err := repository.participantByID(ctx, link.ParticipantID)
		if err != nil {
			if dberr.IsNotFound(err) {
				return nil, apperr.Integrity("Item reservation references a participant that does not exist",
					fmt.Errorf("item %s -> participant %s", itemID, link.ParticipantID))
			}
			return nil, err
		}
		reservations = append(reservations, ParticipantReservation{Participant: *participant, AddedAt: link.AddedAt})
	}
	return reservations, nil
}

// resolveParticipantLinks turns a participant's stored links into item
// snapshots. A dangling item id means the redundant lists have drifted.
func (repository *PostgresRepository) resolveParticipantLinks(ctx context.Context, participantID string, links []participantLink) ([]ItemReservation, error) {
	reservations := make([]ItemReservation, 0, len(links))
	for _, link := range links {
		item, err := repository.itemByIDBare(ctx, link.ItemID)
		if err != nil {
			if dberr.IsNotFound(err) {
				return nil, apperr.Integrity("Participant reservation references an item that does not exist",
					fmt.Errorf("participant %s -> item %s", participantID, link.ItemID))
			}
			return nil, err
		}
		reservations = append(reservations, ItemReservation{Item: *item, AddedAt: link.AddedAt})
	}
	return reservations, nil
}

// itemByIDBare fetches an item without resolving its reservation list.
// Used during link resolution, where pulling the counterpart's own links
// would recurse forever.
func (repository *PostgresRepository) itemByIDBare(ctx context.Context, id string) (*Item, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s FROM %s WHERE %s = $1`,
		schema.CatalogItem.ID, schema.CatalogItem.URL, schema.CatalogItem.Title,
		schema.CatalogItem.PriceYen, schema.CatalogItem.PriceUSD, schema.CatalogItem.PreviewImageURL,
		schema.CatalogItem.IsAdult, schema.CatalogItem.CircleName, schema.CatalogItem.AuthorNames,
		schema.CatalogItem.Genres, schema.CatalogItem.Events, schema.CatalogItem.LastUpdated,
		schema.CatalogItem.Table, schema.CatalogItem.ID)

	item := &Item{}
	err := repository.db.QueryRow(ctx, query, id).Scan(
		&item.ID, &item.URL, &item.Title, &item.PriceYen, &item.PriceUSD,
		&item.PreviewImageURL, &item.IsAdult, &item.CircleName,
		&item.AuthorNames, &item.Genres, &item.Events, &item.LastUpdated,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "get_item_bare")
	}

	return item, nil
}

// participantByID fetches a participant without resolving their reservation list.
func (repository *PostgresRepository) participantByID(ctx context.Context, id string) (*Participant, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s = $1`,
		schema.CatalogParticipant.ID, schema.CatalogParticipant.DiscordID,
		schema.CatalogParticipant.Name, schema.CatalogParticipant.LastUpdated,
		schema.CatalogParticipant.Table, schema.CatalogParticipant.ID)

	participant := &Participant{}
	err := repository.db.QueryRow(ctx, query, id).Scan(
		&participant.ID, &participant.DiscordID, &participant.Name, &participant.LastUpdated,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "get_participant_bare")
	}

	return participant, nil
}
