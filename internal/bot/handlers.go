// Copyright (c) 2026 Comiket Bot. All rights reserved.

package bot

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/comiketbot/comiket/internal/platform/apperr"
)

// handleAdd reserves the item behind a shop URL for the caller, scraping it
// into the catalogue on first sight.
func (b *Bot) handleAdd(ctx context.Context, session *discordgo.Session, message *discordgo.MessageCreate, args []string) error {
	if len(args) != 1 {
		return apperr.ValidationError(fmt.Sprintf("Usage: %sadd <url>", b.prefix))
	}
	url := args[0]
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return apperr.ValidationError("That does not look like a shop URL")
	}

	discordID, name, err := callerIdentity(message)
	if err != nil {
		return err
	}

	result, err := b.service.Reserve(ctx, discordID, name, url)
	if err != nil {
		return err
	}

	if result.AlreadyReserved {
		_, err = session.ChannelMessageSend(message.ChannelID,
			fmt.Sprintf("You already reserved **%s**.", result.Item.Title))
		return err
	}

	_, err = session.ChannelMessageSendComplex(message.ChannelID, &discordgo.MessageSend{
		Content: fmt.Sprintf("Reserved **%s** for %s.", result.Item.Title, message.Author.Mention()),
		Embeds:  []*discordgo.MessageEmbed{itemEmbed(result.Item)},
	})
	return err
}

// handleRemove releases the caller's reservation on the item behind a URL.
func (b *Bot) handleRemove(ctx context.Context, session *discordgo.Session, message *discordgo.MessageCreate, args []string) error {
	if len(args) != 1 {
		return apperr.ValidationError(fmt.Sprintf("Usage: %srm <url>", b.prefix))
	}

	discordID, _, err := callerIdentity(message)
	if err != nil {
		return err
	}

	result, err := b.service.Unreserve(ctx, discordID, args[0])
	if err != nil {
		return err
	}

	text := fmt.Sprintf("Removed your reservation on **%s**.", result.Item.Title)
	if !result.WasReserved {
		text = fmt.Sprintf("You had no reservation on **%s**.", result.Item.Title)
	}

	_, err = session.ChannelMessageSend(message.ChannelID, text)
	return err
}

// handleList shows the caller's reservations, or the first mentioned
// user's.
func (b *Bot) handleList(ctx context.Context, session *discordgo.Session, message *discordgo.MessageCreate) error {
	discordID, _, err := callerIdentity(message)
	if err != nil {
		return err
	}
	subject := "You have"
	if len(message.Mentions) > 0 {
		target := message.Mentions[0]
		discordID, err = strconv.ParseInt(target.ID, 10, 64)
		if err != nil {
			return apperr.Internal(fmt.Errorf("unparseable mention id %q: %w", target.ID, err))
		}
		subject = target.Mention() + " has"
	}

	participant, err := b.service.Reservations(ctx, discordID)
	if err != nil {
		return err
	}

	if len(participant.Reservations) == 0 {
		_, err = session.ChannelMessageSend(message.ChannelID, subject+" no reservations.")
		return err
	}

	totalYen := participant.TotalPriceYen()
	totalLine := fmt.Sprintf("Total: ¥%d", totalYen)
	if totalTarget, convErr := b.rates.ToTarget(ctx, float64(totalYen)); convErr == nil {
		totalLine = fmt.Sprintf("Total: ¥%d ($%.2f)", totalYen, totalTarget)
	}

	for _, embed := range listEmbeds(subject, participant, totalLine) {
		if _, err := session.ChannelMessageSendEmbed(message.ChannelID, embed); err != nil {
			return err
		}
	}
	return nil
}

// handleShow renders one item by the id printed in its embed.
func (b *Bot) handleShow(ctx context.Context, session *discordgo.Session, message *discordgo.MessageCreate, args []string) error {
	if len(args) != 1 {
		return apperr.ValidationError(fmt.Sprintf("Usage: %sshow <id>", b.prefix))
	}

	item, err := b.service.ItemByID(ctx, args[0])
	if err != nil {
		return err
	}

	_, err = session.ChannelMessageSendEmbed(message.ChannelID, itemEmbed(item))
	return err
}

// handleExport posts the per-user summary plus the CSV attachment.
func (b *Bot) handleExport(ctx context.Context, session *discordgo.Session, message *discordgo.MessageCreate) error {
	report, err := b.service.Export(ctx)
	if err != nil {
		return err
	}

	if len(report.Items) == 0 {
		_, err = session.ChannelMessageSend(message.ChannelID, "Nothing has been reserved yet.")
		return err
	}

	csvPayload, err := exportCSV(report)
	if err != nil {
		return err
	}

	_, err = session.ChannelMessageSendComplex(message.ChannelID, &discordgo.MessageSend{
		Content: strings.Join(summaryLines(report), "\n"),
		Files: []*discordgo.File{{
			Name:        "reservations.csv",
			ContentType: "text/csv",
			Reader:      bytes.NewReader(csvPayload),
		}},
	})
	return err
}

// handleHelp lists the commands. Static, no service call.
func (b *Bot) handleHelp(session *discordgo.Session, message *discordgo.MessageCreate) error {
	help := strings.Join([]string{
		fmt.Sprintf("`%sadd <url>` — reserve the item behind a Melonbooks URL", b.prefix),
		fmt.Sprintf("`%srm <url>` — remove your reservation", b.prefix),
		fmt.Sprintf("`%sls [@user]` — list reservations with totals", b.prefix),
		fmt.Sprintf("`%sshow <id>` — show one item by its id", b.prefix),
		fmt.Sprintf("`%sexport` — summary message plus CSV attachment", b.prefix),
	}, "\n")

	_, err := session.ChannelMessageSend(message.ChannelID, help)
	return err
}
