// Package gateway is the thin chat-platform shim. It adapts discord
// sessions and events to the bot's ports and carries no workflow logic.
package gateway

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/labstack/gommon/log"

	"github.com/NathanKirby/AlgoMod-Bot/internal/boot"
	"github.com/NathanKirby/AlgoMod-Bot/internal/model"
)

type Events interface {
	Message(ctx context.Context, msg model.Message)
	MemberUpdate(ctx context.Context, change model.RoleChange)
	MemberLeave(ctx context.Context, memberID string, roleIDs []string)
}

type Gateway struct {
	session *discordgo.Session
	config  *boot.Config
}

func New(config *boot.Config) (*Gateway, error) {
	session, err := discordgo.New("Bot " + config.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMembers |
		discordgo.IntentGuildMessages |
		discordgo.IntentMessageContent |
		discordgo.IntentDirectMessages

	return &Gateway{session: session, config: config}, nil
}

// Open registers the event handlers and connects the session.
func (g *Gateway) Open(events Events) error {
	g.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		events.Message(context.Background(), model.Message{
			ID:         m.ID,
			ChannelID:  m.ChannelID,
			AuthorID:   m.Author.ID,
			AuthorName: m.Author.Username,
			AvatarHash: m.Author.Avatar,
			Text:       m.Content,
			IsBot:      m.Author.Bot,
		})
	})

	g.session.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberUpdate) {
		before := []string{}
		if m.BeforeUpdate != nil {
			before = m.BeforeUpdate.Roles
		}
		events.MemberUpdate(context.Background(), model.RoleChange{
			MemberID:    m.User.ID,
			RolesBefore: before,
			RolesAfter:  m.Roles,
		})
	})

	g.session.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberRemove) {
		events.MemberLeave(context.Background(), m.User.ID, m.Roles)
	})

	if err := g.session.Open(); err != nil {
		return fmt.Errorf("opening session: %w", err)
	}
	return nil
}

func (g *Gateway) Close() error {
	return g.session.Close()
}

func (g *Gateway) Reply(ctx context.Context, to model.Message, text string) error {
	_, err := g.session.ChannelMessageSendReply(to.ChannelID, text, &discordgo.MessageReference{
		MessageID: to.ID,
		ChannelID: to.ChannelID,
	})
	if err != nil {
		return fmt.Errorf("sending reply: %w", err)
	}
	return nil
}

func (g *Gateway) Send(ctx context.Context, channelID, text string) error {
	if _, err := g.session.ChannelMessageSend(channelID, text); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

func (g *Gateway) RolesOf(ctx context.Context, memberID string) ([]string, error) {
	member, err := g.session.GuildMember(g.config.Discord.GuildID, memberID)
	if err != nil {
		return nil, fmt.Errorf("fetching member %s: %w", memberID, err)
	}
	return member.Roles, nil
}

func (g *Gateway) Grant(ctx context.Context, memberID, roleID string) error {
	if err := g.session.GuildMemberRoleAdd(g.config.Discord.GuildID, memberID, roleID); err != nil {
		return fmt.Errorf("granting role %s to %s: %w", roleID, memberID, err)
	}
	return nil
}

func (g *Gateway) Revoke(ctx context.Context, memberID, roleID string) error {
	if err := g.session.GuildMemberRoleRemove(g.config.Discord.GuildID, memberID, roleID); err != nil {
		return fmt.Errorf("revoking role %s from %s: %w", roleID, memberID, err)
	}
	return nil
}

// Notify posts to the ops channel. A notification that cannot be delivered
// is logged and dropped.
func (g *Gateway) Notify(ctx context.Context, format string, args ...any) {
	if _, err := g.session.ChannelMessageSend(g.config.Discord.LogChannel, fmt.Sprintf(format, args...)); err != nil {
		log.Warnf("posting to ops channel: %v", err)
	}
}
