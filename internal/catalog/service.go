// Copyright (c) 2026 Comiket Bot. All rights reserved.

package catalog

import (
	"context"
	"log/slog"
	"sort"

	"github.com/comiketbot/comiket/internal/platform/apperr"
	"github.com/comiketbot/comiket/internal/platform/dberr"
	"github.com/comiketbot/comiket/pkg/uuidv7"
)

// # Collaborator Contracts

// ItemMetadata is what the shop page scraper hands back: the raw facts of a
// product page, before validation and before any currency math.
type ItemMetadata struct {
	URL             string
	Title           string
	PriceYen        int
	PreviewImageURL string
	IsAdult         bool
	CircleName      *string
	AuthorNames     []string
	Genres          []string
	Events          []string
}

// MetadataSource fetches product metadata for a shop URL. Implemented by the
// Melonbooks scraper.
type MetadataSource interface {
	Fetch(ctx context.Context, url string) (*ItemMetadata, error)
}

// RateConverter converts a yen amount into the configured target currency.
// Implemented by the currency converter.
type RateConverter interface {
	ToTarget(ctx context.Context, amount float64) (float64, error)
}

// # Result Types

// ReserveResult reports the outcome of a Reserve call.
type ReserveResult struct {
	Item            *ItemWithReservations
	Participant     *ParticipantWithReservations
	AlreadyReserved bool
}

// UnreserveResult reports the outcome of an Unreserve call.
type UnreserveResult struct {
	Item        *ItemWithReservations
	Participant *ParticipantWithReservations
	WasReserved bool
}

// ParticipantSummary is one row of the export report.
type ParticipantSummary struct {
	Participant *ParticipantWithReservations
	NumItems    int
	TotalYen    int
	TotalTarget float64
}

// ExportReport carries everything the front end needs to render the export
// message and its CSV attachment.
type ExportReport struct {
	Summaries []ParticipantSummary
	Items     []*ItemWithReservations
}

// # Service Layer

// Service orchestrates the reservation workflows: it resolves shop URLs to
// catalogue items (scraping on first sight), keeps participant records in
// step with Discord, and drives the two-sided reservation protocol.
type Service struct {
	repo   Repository
	source MetadataSource
	rates  RateConverter
	logger *slog.Logger
}

// NewService constructs a new [Service] with its required collaborators.
func NewService(repo Repository, source MetadataSource, rates RateConverter, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		source: source,
		rates:  rates,
		logger: logger,
	}
}

// # Reservation Workflows

/*
Reserve records that a Discord user wants the item behind a shop URL.

Description: The item is looked up by URL and scraped into existence on
first sight; the participant is looked up by Discord id and created on
first sight, with the stored display name refreshed when it drifted.
Reserving an item twice is reported, not failed.

Parameters:
  - context: context.Context
  - discordID: int64 (The caller's Discord user id)
  - name: string (The caller's current display name)
  - url: string (The shop product page URL)

Returns:
  - *ReserveResult: The linked item and participant snapshots
  - error: Scrape, validation, or persistence errors
*/
func (service *Service) Reserve(context context.Context, discordID int64, name string, url string) (*ReserveResult, error) {
	item, err := service.itemByURLOrCreate(context, url)
	if err != nil {
		return nil, err
	}

	participant, err := service.participantOrCreate(context, discordID, name)
	if err != nil {
		return nil, err
	}

	// Idempotency check against the fresh snapshot
	if participant.HasReserved(item.ID) {
		return &ReserveResult{Item: item, Participant: participant, AlreadyReserved: true}, nil
	}

	if err := service.repo.AddReservation(context, participant, item); err != nil {
		// A concurrent handler may have won the race between the snapshot
		// read and the conditional push. Same outcome for the user.
		if dberr.IsConflict(err) {
			return &ReserveResult{Item: item, Participant: participant, AlreadyReserved: true}, nil
		}
		return nil, err
	}

	return &ReserveResult{Item: item, Participant: participant}, nil
}

/*
Unreserve removes a Discord user's reservation on the item behind a URL.

Description: Both endpoints must already be known to the catalogue; an
unknown URL or an unknown user is a not-found error with a useful message.
Removing a reservation that does not exist is reported, not failed.

Parameters:
  - context: context.Context
  - discordID: int64 (The caller's Discord user id)
  - url: string (The shop product page URL)

Returns:
  - *UnreserveResult: The unlinked item and participant snapshots
  - error: Lookup or persistence errors
*/
func (service *Service) Unreserve(context context.Context, discordID int64, url string) (*UnreserveResult, error) {
	item, err := service.repo.ItemByURL(context, url)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, apperr.NotFound("Item")
		}
		return nil, err
	}

	participant, err := service.repo.ParticipantByDiscordID(context, discordID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, apperr.NotFound("Participant")
		}
		return nil, err
	}

	if !participant.HasReserved(item.ID) {
		return &UnreserveResult{Item: item, Participant: participant}, nil
	}

	if err := service.repo.RemoveReservation(context, participant, item); err != nil {
		return nil, err
	}

	return &UnreserveResult{Item: item, Participant: participant, WasReserved: true}, nil
}

// # Lookups

/*
Reservations lists everything a Discord user currently holds.

Description: An unknown user simply holds nothing; that case returns an
empty view rather than an error, so the front end renders an empty list.

Parameters:
  - context: context.Context
  - discordID: int64 (The target Discord user id)

Returns:
  - *ParticipantWithReservations: The participant and their resolved items
  - error: Persistence errors
*/
func (service *Service) Reservations(context context.Context, discordID int64) (*ParticipantWithReservations, error) {
	participant, err := service.repo.ParticipantByDiscordID(context, discordID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return &ParticipantWithReservations{
				Participant:  Participant{DiscordID: discordID},
				Reservations: []ItemReservation{},
			}, nil
		}
		return nil, err
	}
	return participant, nil
}

/*
ItemByID fetches one catalogue item by its generated identifier.

Description: The identifier arrives from chat, so its format is checked
before any database round trip; garbage input is a validation error, not
an internal one.

Parameters:
  - context: context.Context
  - id: string (The item's UUID as printed in embeds)

Returns:
  - *ItemWithReservations: The hydrated item snapshot
  - error: Validation, ErrNotFound, or persistence errors
*/
func (service *Service) ItemByID(context context.Context, id string) (*ItemWithReservations, error) {
	if !uuidv7.IsValid(id) {
		return nil, apperr.ValidationError("That does not look like an item id")
	}
	return service.repo.ItemByID(context, id)
}

// # Export

/*
Export assembles the full reservation report.

Description: Builds one summary row per participant (item count, yen
total, converted total) sorted by yen total ascending, plus the complete
item list for the CSV matrix. The currency conversion is best-effort: an
unavailable rate zeroes the converted column rather than failing the
whole report.

Parameters:
  - context: context.Context

Returns:
  - *ExportReport: Summaries plus the item matrix
  - error: Persistence errors
*/
func (service *Service) Export(context context.Context) (*ExportReport, error) {
	participants, err := service.repo.ListParticipants(context)
	if err != nil {
		return nil, err
	}

	items, err := service.repo.ListItems(context)
	if err != nil {
		return nil, err
	}

	summaries := make([]ParticipantSummary, 0, len(participants))
	for _, participant := range participants {
		totalYen := participant.TotalPriceYen()

		totalTarget, err := service.rates.ToTarget(context, float64(totalYen))
		if err != nil {
			service.logger.Warn("export: rate unavailable, omitting converted totals", "error", err)
			totalTarget = 0
		}

		summaries = append(summaries, ParticipantSummary{
			Participant: participant,
			NumItems:    len(participant.Reservations),
			TotalYen:    totalYen,
			TotalTarget: totalTarget,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].TotalYen < summaries[j].TotalYen
	})

	return &ExportReport{Summaries: summaries, Items: items}, nil
}

// # Internal Resolution

// itemByURLOrCreate returns the catalogue item for url, scraping and
// inserting it on first sight. A lost insert race falls back to the winner's
// row.
func (service *Service) itemByURLOrCreate(context context.Context, url string) (*ItemWithReservations, error) {
	item, err := service.repo.ItemByURL(context, url)
	if err == nil {
		return item, nil
	}
	if !dberr.IsNotFound(err) {
		return nil, err
	}

	metadata, err := service.source.Fetch(context, url)
	if err != nil {
		return nil, err
	}

	priceUSD, err := service.rates.ToTarget(context, float64(metadata.PriceYen))
	if err != nil {
		// The yen price is the source of truth; a dead rate API must not
		// block reservations.
		service.logger.Warn("reserve: rate unavailable, storing zero converted price",
			"url", url, "error", err)
		priceUSD = 0
	}

	created, err := service.repo.AddItem(context, NewItemParams{
		URL:             metadata.URL,
		Title:           metadata.Title,
		PriceYen:        metadata.PriceYen,
		PriceUSD:        priceUSD,
		PreviewImageURL: metadata.PreviewImageURL,
		IsAdult:         metadata.IsAdult,
		CircleName:      metadata.CircleName,
		AuthorNames:     metadata.AuthorNames,
		Genres:          metadata.Genres,
		Events:          metadata.Events,
	})
	if err == nil {
		return created, nil
	}
	if dberr.IsConflict(err) {
		// Another handler scraped and inserted the same URL first.
		return service.repo.ItemByURL(context, url)
	}
	return nil, err
}

// participantOrCreate returns the participant for discordID, creating the
// record on first sight and refreshing a drifted display name otherwise.
func (service *Service) participantOrCreate(context context.Context, discordID int64, name string) (*ParticipantWithReservations, error) {
	participant, err := service.repo.ParticipantByDiscordID(context, discordID)
	if err == nil {
		if participant.Name != name {
			if err := service.repo.RenameParticipant(context, participant.ID, name); err != nil {
				return nil, err
			}
			participant.Name = name
		}
		return participant, nil
	}
	if !dberr.IsNotFound(err) {
		return nil, err
	}

	created, err := service.repo.AddParticipant(context, discordID, name)
	if err == nil {
		return created, nil
	}
	if dberr.IsConflict(err) {
		// Lost the first-sight race; the winner's row is authoritative.
		return service.repo.ParticipantByDiscordID(context, discordID)
	}
	return nil, err
}
