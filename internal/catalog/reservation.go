// Copyright (c) 2026 Comiket Bot. All rights reserved.

package catalog

import "time"

// A reservation link is stored redundantly on both of its endpoints: the
// item's record lists the participants holding it, and the participant's
// record lists the items held. Both entries carry the same timestamp. The
// [Repository] is the only component allowed to write either side.

// ItemReservation is one entry of a participant's reservation list: the
// reserved item, resolved to a full snapshot, plus when the link was made.
type ItemReservation struct {
	Item    Item      `json:"item"`
	AddedAt time.Time `json:"added_at"`
}

// ParticipantReservation is one entry of an item's reservation list: the
// participant holding it plus when the link was made.
type ParticipantReservation struct {
	Participant Participant `json:"participant"`
	AddedAt     time.Time   `json:"added_at"`
}
