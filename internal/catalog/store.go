// Copyright (c) 2026 Comiket Bot. All rights reserved.

package catalog

import "context"

// Repository is the sole mutator of persisted catalog state. It owns the
// two-sided reservation protocol and every query over items and
// participants.
//
// Lookups return [dberr.ErrNotFound]-classified errors on a miss. A
// reservation entry referencing a row that no longer exists is an integrity
// error and is never swallowed.
type Repository interface {
	// AddItem validates params and inserts a new item with an empty
	// reservation list. A duplicate URL is a conflict (the insert is
	// atomic; there is no check-then-insert window).
	AddItem(ctx context.Context, params NewItemParams) (*ItemWithReservations, error)

	// ItemByURL fetches an item by its shop URL, resolving every
	// reservation to a participant snapshot.
	ItemByURL(ctx context.Context, url string) (*ItemWithReservations, error)

	// ItemByID is ItemByURL keyed by generated id.
	ItemByID(ctx context.Context, id string) (*ItemWithReservations, error)

	// AddParticipant inserts a new participant with an empty reservation
	// list. A duplicate Discord id is a conflict.
	AddParticipant(ctx context.Context, discordID int64, name string) (*ParticipantWithReservations, error)

	// ParticipantByDiscordID fetches a participant by Discord id,
	// resolving every reservation to an item snapshot.
	ParticipantByDiscordID(ctx context.Context, discordID int64) (*ParticipantWithReservations, error)

	// RenameParticipant updates the stored display name. Renaming to the
	// current name is a no-op, not an error.
	RenameParticipant(ctx context.Context, id string, name string) error

	// AddReservation links participant and item: one entry appended to
	// each side's stored list, both carrying the same timestamp, both
	// rows' last-updated bumped, all inside a single transaction. An
	// existing link is a conflict; a missing row is an integrity error.
	// On success the passed-in snapshots are updated in place, saving a
	// re-read.
	AddReservation(ctx context.Context, participant *ParticipantWithReservations, item *ItemWithReservations) error

	// RemoveReservation is the mirror operation: the entry is pulled from
	// both sides in a single transaction. A link absent on either side is
	// an integrity error (the caller should have checked HasReserved) and
	// nothing is committed.
	RemoveReservation(ctx context.Context, participant *ParticipantWithReservations, item *ItemWithReservations) error

	// ListParticipants returns every participant with resolved
	// reservations. Export path only: costs one item lookup per stored
	// link.
	ListParticipants(ctx context.Context) ([]*ParticipantWithReservations, error)

	// ListItems returns every item with resolved reservations. Export
	// path only.
	ListItems(ctx context.Context) ([]*ItemWithReservations, error)
}
