// Copyright (c) 2026 Comiket Bot. All rights reserved.

package bot

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comiketbot/comiket/internal/catalog"
)

func exportFixture() *catalog.ExportReport {
	now := time.Now().UTC()

	alice := catalog.Participant{ID: "p-alice", DiscordID: 111, Name: "alice", LastUpdated: now}
	bob := catalog.Participant{ID: "p-bob", DiscordID: 222, Name: "bob", LastUpdated: now}

	cheap := &catalog.ItemWithReservations{
		Item: catalog.Item{ID: "i-cheap", URL: "https://shop.example/1", Title: "Comic Sample Vol.1", PriceYen: 1000},
		Reservations: []catalog.ParticipantReservation{
			{Participant: alice, AddedAt: now},
			{Participant: bob, AddedAt: now},
		},
	}
	expensive := &catalog.ItemWithReservations{
		Item: catalog.Item{ID: "i-expensive", URL: "https://shop.example/2", Title: "Comic Sample Vol.2", PriceYen: 3000},
		Reservations: []catalog.ParticipantReservation{
			{Participant: bob, AddedAt: now},
		},
	}

	return &catalog.ExportReport{
		Summaries: []catalog.ParticipantSummary{
			{
				Participant: &catalog.ParticipantWithReservations{Participant: alice},
				NumItems:    1,
				TotalYen:    1000,
				TotalTarget: 6.7,
			},
			{
				Participant: &catalog.ParticipantWithReservations{Participant: bob},
				NumItems:    2,
				TotalYen:    4000,
				TotalTarget: 26.8,
			},
		},
		Items: []*catalog.ItemWithReservations{cheap, expensive},
	}
}

/*
TestExportCSV verifies the matrix layout: fixed columns, one name column
per participant, X marks matching the stored links.
*/
func TestExportCSV(t *testing.T) {
	payload, err := exportCSV(exportFixture())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(payload)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"item_id", "url", "title", "price_yen", "alice", "bob"}, records[0])
	assert.Equal(t, []string{"i-cheap", "https://shop.example/1", "Comic Sample Vol.1", "1000", "X", "X"}, records[1])
	assert.Equal(t, []string{"i-expensive", "https://shop.example/2", "Comic Sample Vol.2", "3000", "", "X"}, records[2])
}

/*
TestSummaryLines verifies the mention lines and their order.
*/
func TestSummaryLines(t *testing.T) {
	lines := summaryLines(exportFixture())

	require.Len(t, lines, 2)
	assert.Equal(t, "<@111> reserved 1 for a total of ¥1000 ($6.70)", lines[0])
	assert.Equal(t, "<@222> reserved 2 for a total of ¥4000 ($26.80)", lines[1])
}

/*
TestSummaryLines_NoConversion verifies that a zero converted total drops
the dollar suffix instead of printing $0.00.
*/
func TestSummaryLines_NoConversion(t *testing.T) {
	report := exportFixture()
	for index := range report.Summaries {
		report.Summaries[index].TotalTarget = 0
	}

	lines := summaryLines(report)
	assert.Equal(t, "<@111> reserved 1 for a total of ¥1000", lines[0])
}
