// Copyright (c) 2026 Comiket Bot. All rights reserved.

package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/comiketbot/comiket/internal/catalog"
	"github.com/comiketbot/comiket/pkg/pointer"
	"github.com/comiketbot/comiket/pkg/slice"
)

// embedColor is the melon green used on all bot embeds.
const embedColor = 0x76B852

// listPageSize caps the lines per reservation-list embed, well under the
// description size limit.
const listPageSize = 15

// itemEmbed renders one catalogue item as a Discord embed.
func itemEmbed(item *catalog.ItemWithReservations) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Price", Value: fmt.Sprintf("¥%d", item.PriceYen), Inline: true},
	}
	if item.PriceUSD > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Price (USD)", Value: fmt.Sprintf("$%.2f", item.PriceUSD), Inline: true,
		})
	}

	adult := "No"
	if item.IsAdult {
		adult = "Yes"
	}
	fields = append(fields, &discordgo.MessageEmbedField{Name: "R18", Value: adult, Inline: true})

	if len(item.Genres) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Genres", Value: strings.Join(item.Genres, ", "),
		})
	}
	if len(item.Events) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Events", Value: strings.Join(item.Events, ", "),
		})
	}
	if len(item.Reservations) > 0 {
		names := slice.Map(item.Reservations, func(r catalog.ParticipantReservation) string {
			return r.Participant.Name
		})
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Reserved by", Value: strings.Join(names, ", "),
		})
	}

	return &discordgo.MessageEmbed{
		Title:     embedHeading(item),
		URL:       item.URL,
		Color:     embedColor,
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: item.PreviewImageURL},
		Fields:    fields,
		Footer:    &discordgo.MessageEmbedFooter{Text: "id: " + item.ID},
	}
}

// embedHeading formats "Title — Circle (Author, Author)", dropping the
// parts the shop page did not have.
func embedHeading(item *catalog.ItemWithReservations) string {
	heading := item.Title
	if circle := pointer.Val(item.CircleName); circle != "" {
		heading += " — " + circle
	}
	if len(item.AuthorNames) > 0 {
		heading += " (" + strings.Join(item.AuthorNames, ", ") + ")"
	}
	return heading
}

// listEmbeds renders a reservation list as one or more embeds, numbered
// continuously across pages, with the totals on the final page.
func listEmbeds(subject string, participant *catalog.ParticipantWithReservations, totalLine string) []*discordgo.MessageEmbed {
	total := len(participant.Reservations)
	pages := (total + listPageSize - 1) / listPageSize

	embeds := make([]*discordgo.MessageEmbed, 0, pages)
	for page := 0; page < pages; page++ {
		start := page * listPageSize
		end := min(start+listPageSize, total)

		var lines []string
		for index, reservation := range participant.Reservations[start:end] {
			lines = append(lines, fmt.Sprintf("%d. [%s](%s) — ¥%d",
				start+index+1, reservation.Item.Title, reservation.Item.URL, reservation.Item.PriceYen))
		}

		title := fmt.Sprintf("%s %d reservation(s)", subject, total)
		if pages > 1 {
			title = fmt.Sprintf("%s (%d/%d)", title, page+1, pages)
		}

		embed := &discordgo.MessageEmbed{
			Title:       title,
			Color:       embedColor,
			Description: strings.Join(lines, "\n"),
		}
		if page == pages-1 {
			embed.Footer = &discordgo.MessageEmbedFooter{Text: totalLine}
		}
		embeds = append(embeds, embed)
	}

	return embeds
}
