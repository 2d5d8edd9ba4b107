// Copyright (c) 2026 Comiket Bot. All rights reserved.

package catalog

import (
	"time"

	"github.com/comiketbot/comiket/internal/platform/validate"
)

// Item represents one doujin tracked by the bot, with the metadata scraped
// from its shop page. The shop URL is the business key: one row exists per
// distinct URL, created the first time anyone references it.
type Item struct {
	ID              string    `json:"id"`
	URL             string    `json:"url"`
	Title           string    `json:"title"`
	PriceYen        int       `json:"price_yen"`
	PriceUSD        float64   `json:"price_usd"` // converted once at insert time, not recomputed
	PreviewImageURL string    `json:"preview_image_url"`
	IsAdult         bool      `json:"is_adult"`
	CircleName      *string   `json:"circle_name"`
	AuthorNames     []string  `json:"author_names"`
	Genres          []string  `json:"genres"`
	Events          []string  `json:"events"`
	LastUpdated     time.Time `json:"last_updated"`
}

// ItemWithReservations is an Item plus its resolved reservation list.
//
// It is a read snapshot: mutating it does not touch stored state. All writes
// go through the [Repository].
type ItemWithReservations struct {
	Item
	Reservations []ParticipantReservation `json:"reservations"`
}

// ReservedBy reports whether the participant currently holds a reservation
// on this item.
func (i *ItemWithReservations) ReservedBy(participantID string) bool {
	for _, r := range i.Reservations {
		if r.Participant.ID == participantID {
			return true
		}
	}
	return false
}

// NewItemParams carries the decoded fields for a new catalog item. It is the
// explicit decode/validate step between raw scraped metadata and a persisted
// record.
type NewItemParams struct {
	URL             string
	Title           string
	PriceYen        int
	PriceUSD        float64
	PreviewImageURL string
	IsAdult         bool
	CircleName      *string
	AuthorNames     []string
	Genres          []string
	Events          []string
}

// Validate checks every field before any persistence call runs. A failure
// here means nothing was written.
func (p NewItemParams) Validate() error {
	v := &validate.Validator{}
	v.Required("url", p.URL).
		HTTPURL("url", p.URL).
		Required("title", p.Title).
		MaxLen("title", p.Title, 512).
		NonNegative("price_yen", p.PriceYen).
		Required("preview_image_url", p.PreviewImageURL).
		HTTPURL("preview_image_url", p.PreviewImageURL).
		StringList("author_names", p.AuthorNames).
		StringList("genres", p.Genres).
		StringList("events", p.Events)

	if p.CircleName != nil {
		v.Required("circle_name", *p.CircleName)
	}

	return v.Err()
}
