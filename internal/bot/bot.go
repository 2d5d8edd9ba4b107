// Copyright (c) 2026 Comiket Bot. All rights reserved.

/*
Package bot is the Discord front end: it turns prefix commands in guild
text channels into catalogue service calls and renders the results as
embeds, messages, and file attachments.

Error policy: every failure is reported to the channel exactly once, using
the user-safe message from the error taxonomy; causes stay in the log.
*/
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/comiketbot/comiket/internal/catalog"
	"github.com/comiketbot/comiket/internal/platform/apperr"
	"github.com/comiketbot/comiket/internal/platform/constants"
)

// Bot owns the Discord session and routes chat commands to the service.
type Bot struct {
	session *discordgo.Session
	service *catalog.Service
	rates   catalog.RateConverter
	prefix  string
	logger  *slog.Logger
}

// New builds the bot around a fresh Discord session. The session is not
// opened until [Bot.Start].
func New(token, prefix string, service *catalog.Service, rates catalog.RateConverter, logger *slog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("bot: create session: %w", err)
	}

	bot := &Bot{
		session: session,
		service: service,
		rates:   rates,
		prefix:  prefix,
		logger:  logger,
	}

	// Reading command text requires the privileged message content intent.
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
	session.AddHandler(bot.onMessageCreate)

	return bot, nil
}

// Start opens the gateway connection. Commands are handled on discordgo's
// own goroutines from this point on.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("bot: open session: %w", err)
	}

	b.logger.Info("discord session open", "prefix", b.prefix)
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() error {
	return b.session.Close()
}

// Ping reports whether the gateway session has completed its READY
// handshake. Used by the readiness probe.
func (b *Bot) Ping() error {
	if !b.session.DataReady {
		return fmt.Errorf("bot: gateway session not ready")
	}
	return nil
}

// onMessageCreate is the single gateway entry point: filter, parse, route.
func (b *Bot) onMessageCreate(session *discordgo.Session, message *discordgo.MessageCreate) {
	if message.Author == nil || message.Author.Bot {
		return
	}
	if !strings.HasPrefix(message.Content, b.prefix) {
		return
	}

	fields := strings.Fields(strings.TrimPrefix(message.Content, b.prefix))
	if len(fields) == 0 {
		return
	}
	command, args := fields[0], fields[1:]

	// Gateway handlers have no deadline of their own.
	ctx, cancel := context.WithTimeout(context.Background(), constants.CommandTimeout)
	defer cancel()

	var err error
	switch command {
	case "add":
		err = b.handleAdd(ctx, session, message, args)
	case "rm":
		err = b.handleRemove(ctx, session, message, args)
	case "ls":
		err = b.handleList(ctx, session, message)
	case "show":
		err = b.handleShow(ctx, session, message, args)
	case "export":
		err = b.handleExport(ctx, session, message)
	case "help":
		err = b.handleHelp(session, message)
	default:
		return
	}

	if err != nil {
		b.reportError(session, message, command, err)
	}
}

// reportError renders err to the channel once and logs the cause. The
// handler chain never sees the error again.
func (b *Bot) reportError(session *discordgo.Session, message *discordgo.MessageCreate, command string, err error) {
	b.logger.Error("command failed",
		"command", command,
		"user", message.Author.ID,
		"channel", message.ChannelID,
		"error", err,
	)

	if _, sendErr := session.ChannelMessageSend(message.ChannelID, apperr.UserMessage(err)); sendErr != nil {
		b.logger.Error("error reply failed", "channel", message.ChannelID, "error", sendErr)
	}
}

// callerIdentity extracts the Discord id and the best available display
// name for the message author.
func callerIdentity(message *discordgo.MessageCreate) (int64, string, error) {
	id, err := strconv.ParseInt(message.Author.ID, 10, 64)
	if err != nil {
		return 0, "", apperr.Internal(fmt.Errorf("unparseable author id %q: %w", message.Author.ID, err))
	}
	return id, displayName(message), nil
}

// displayName prefers the guild nickname, then the global display name,
// then the account name.
func displayName(message *discordgo.MessageCreate) string {
	if message.Member != nil && message.Member.Nick != "" {
		return message.Member.Nick
	}
	if message.Author.GlobalName != "" {
		return message.Author.GlobalName
	}
	return message.Author.Username
}
