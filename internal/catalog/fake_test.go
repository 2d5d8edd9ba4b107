// Copyright (c) 2026 Comiket Bot. All rights reserved.

package catalog_test

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/comiketbot/comiket/internal/catalog"
	"github.com/comiketbot/comiket/internal/platform/apperr"
	"github.com/comiketbot/comiket/internal/platform/dberr"
	"github.com/comiketbot/comiket/pkg/uuidv7"
)

// fakeRepository is an in-memory [catalog.Repository] honouring the same
// contract as the Postgres one: two-sided links with shared timestamps,
// conflicts on duplicates, integrity errors on links that should exist but
// do not. Returned values are clones of stored state.
type fakeRepository struct {
	items        map[string]*catalog.ItemWithReservations
	itemIDByURL  map[string]string
	participants map[string]*catalog.ParticipantWithReservations
	idByDiscord  map[int64]string
	clock        func() time.Time
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		items:        map[string]*catalog.ItemWithReservations{},
		itemIDByURL:  map[string]string{},
		participants: map[string]*catalog.ParticipantWithReservations{},
		idByDiscord:  map[int64]string{},
		clock:        func() time.Time { return time.Now().UTC() },
	}
}

func (f *fakeRepository) AddItem(_ context.Context, params catalog.NewItemParams) (*catalog.ItemWithReservations, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if _, exists := f.itemIDByURL[params.URL]; exists {
		return nil, apperr.Conflict("Record already exists")
	}

	stored := &catalog.ItemWithReservations{
		Item: catalog.Item{
			ID:              uuidv7.New(),
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
			LastUpdated:     f.clock(),
		},
		Reservations: []catalog.ParticipantReservation{},
	}
	f.items[stored.ID] = stored
	f.itemIDByURL[params.URL] = stored.ID

	return cloneItem(stored), nil
}

func (f *fakeRepository) ItemByURL(_ context.Context, url string) (*catalog.ItemWithReservations, error) {
	id, ok := f.itemIDByURL[url]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	return cloneItem(f.items[id]), nil
}

func (f *fakeRepository) ItemByID(_ context.Context, id string) (*catalog.ItemWithReservations, error) {
	stored, ok := f.items[id]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	return cloneItem(stored), nil
}

func (f *fakeRepository) AddParticipant(_ context.Context, discordID int64, name string) (*catalog.ParticipantWithReservations, error) {
	if _, exists := f.idByDiscord[discordID]; exists {
		return nil, apperr.Conflict("Record already exists")
	}

	stored := &catalog.ParticipantWithReservations{
		Participant: catalog.Participant{
			ID:          uuidv7.New(),
			DiscordID:   discordID,
			Name:        name,
			LastUpdated: f.clock(),
		},
		Reservations: []catalog.ItemReservation{},
	}
	f.participants[stored.ID] = stored
	f.idByDiscord[discordID] = stored.ID

	return cloneParticipant(stored), nil
}

func (f *fakeRepository) ParticipantByDiscordID(_ context.Context, discordID int64) (*catalog.ParticipantWithReservations, error) {
	id, ok := f.idByDiscord[discordID]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	return cloneParticipant(f.participants[id]), nil
}

func (f *fakeRepository) RenameParticipant(_ context.Context, id string, name string) error {
	stored, ok := f.participants[id]
	if !ok {
		return dberr.ErrNotFound
	}
	if stored.Name != name {
		stored.Name = name
		stored.LastUpdated = f.clock()
	}
	return nil
}

func (f *fakeRepository) AddReservation(_ context.Context, participant *catalog.ParticipantWithReservations, item *catalog.ItemWithReservations) error {
	storedParticipant, ok := f.participants[participant.ID]
	if !ok {
		return apperr.Integrity("Reservation endpoint no longer exists", fmt.Errorf("participant %s", participant.ID))
	}
	storedItem, ok := f.items[item.ID]
	if !ok {
		return apperr.Integrity("Reservation endpoint no longer exists", fmt.Errorf("item %s", item.ID))
	}
	if storedParticipant.HasReserved(item.ID) || storedItem.ReservedBy(participant.ID) {
		return apperr.Conflict("Reservation already exists")
	}

	now := f.clock()
	storedParticipant.Reservations = append(storedParticipant.Reservations,
		catalog.ItemReservation{Item: storedItem.Item, AddedAt: now})
	storedParticipant.LastUpdated = now
	storedItem.Reservations = append(storedItem.Reservations,
		catalog.ParticipantReservation{Participant: storedParticipant.Participant, AddedAt: now})
	storedItem.LastUpdated = now

	participant.Reservations = append(participant.Reservations,
		catalog.ItemReservation{Item: item.Item, AddedAt: now})
	participant.LastUpdated = now
	item.Reservations = append(item.Reservations,
		catalog.ParticipantReservation{Participant: participant.Participant, AddedAt: now})
	item.LastUpdated = now

	return nil
}

func (f *fakeRepository) RemoveReservation(_ context.Context, participant *catalog.ParticipantWithReservations, item *catalog.ItemWithReservations) error {
	storedParticipant, okP := f.participants[participant.ID]
	storedItem, okI := f.items[item.ID]
	if !okP || !okI {
		return apperr.Integrity("Reservation endpoint no longer exists", nil)
	}
	if !storedParticipant.HasReserved(item.ID) || !storedItem.ReservedBy(participant.ID) {
		// Nothing is modified: the pull is all-or-nothing.
		return apperr.Integrity("Reservation missing where one was expected", nil)
	}

	now := f.clock()
	storedParticipant.Reservations = dropItem(storedParticipant.Reservations, item.ID)
	storedParticipant.LastUpdated = now
	storedItem.Reservations = dropParticipant(storedItem.Reservations, participant.ID)
	storedItem.LastUpdated = now

	participant.Reservations = dropItem(participant.Reservations, item.ID)
	participant.LastUpdated = now
	item.Reservations = dropParticipant(item.Reservations, participant.ID)
	item.LastUpdated = now

	return nil
}

func (f *fakeRepository) ListParticipants(_ context.Context) ([]*catalog.ParticipantWithReservations, error) {
	result := make([]*catalog.ParticipantWithReservations, 0, len(f.participants))
	for _, stored := range f.participants {
		result = append(result, cloneParticipant(stored))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakeRepository) ListItems(_ context.Context) ([]*catalog.ItemWithReservations, error) {
	result := make([]*catalog.ItemWithReservations, 0, len(f.items))
	for _, stored := range f.items {
		result = append(result, cloneItem(stored))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func cloneItem(stored *catalog.ItemWithReservations) *catalog.ItemWithReservations {
	clone := *stored
	clone.Reservations = append([]catalog.ParticipantReservation(nil), stored.Reservations...)
	return &clone
}

func cloneParticipant(stored *catalog.ParticipantWithReservations) *catalog.ParticipantWithReservations {
	clone := *stored
	clone.Reservations = append([]catalog.ItemReservation(nil), stored.Reservations...)
	return &clone
}

func dropItem(reservations []catalog.ItemReservation, itemID string) []catalog.ItemReservation {
	kept := reservations[:0:0]
	for _, r := range reservations {
		if r.Item.ID != itemID {
			kept = append(kept, r)
		}
	}
	return kept
}

func dropParticipant(reservations []catalog.ParticipantReservation, participantID string) []catalog.ParticipantReservation {
	kept := reservations[:0:0]
	for _, r := range reservations {
		if r.Participant.ID != participantID {
			kept = append(kept, r)
		}
	}
	return kept
}

// # Scripted collaborators

// fakeSource serves canned metadata by URL and counts fetches.
type fakeSource struct {
	pages   map[string]catalog.ItemMetadata
	fetches int
}

func (f *fakeSource) Fetch(_ context.Context, url string) (*catalog.ItemMetadata, error) {
	f.fetches++
	page, ok := f.pages[url]
	if !ok {
		return nil, apperr.Upstream("Item page not found", nil)
	}
	page.URL = url
	return &page, nil
}

// fakeRates converts with a fixed rate, or fails every call when err is set.
type fakeRates struct {
	rate float64
	err  error
}

func (f *fakeRates) ToTarget(_ context.Context, amount float64) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return amount * f.rate, nil
}
