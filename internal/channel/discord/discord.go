// Package discord is the Discord adapter. The assistant answers DMs and
// guild messages that mention it.
package discord

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/foremanhq/foreman/internal/channel"
)

type Adapter struct {
	token    string
	session  *discordgo.Session
	logger   *slog.Logger
	incoming chan *channel.Message
}

// New creates a Discord adapter.
func New(token string, logger *slog.Logger) *Adapter {
	return &Adapter{
		token:    token,
		logger:   logger,
		incoming: make(chan *channel.Message, 100),
	}
}

func (d *Adapter) Name() string {
	return "discord"
}

func (d *Adapter) Enabled() bool {
	return d.token != ""
}

func (d *Adapter) Start(ctx context.Context) error {
	session, err := discordgo.New("Bot " + d.token)
	if err != nil {
		return err
	}
	d.session = session

	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author.Bot {
			return
		}
		if m.GuildID != "" && !mentioned(s.State.User.ID, m.Mentions) {
			return
		}

		msg := &channel.Message{
			ID:        m.ID,
			Channel:   "discord",
			UserID:    m.Author.ID,
			Kind:      channel.KindText,
			Content:   m.Content,
			Timestamp: m.Timestamp.Unix(),
		}
		select {
		case d.incoming <- msg:
		case <-ctx.Done():
		}
	})

	if err := session.Open(); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		session.Close()
	}()
	return nil
}

func (d *Adapter) Stop() error {
	if d.session != nil {
		d.session.Close()
	}
	close(d.incoming)
	return nil
}

// Send delivers to a user's DM channel. A raw channel ID also works, which
// is how operator notices reach a configured channel.
func (d *Adapter) Send(target string, resp *channel.Response) error {
	if dm, err := d.session.UserChannelCreate(target); err == nil {
		target = dm.ID
	}
	_, err := d.session.ChannelMessageSend(target, resp.Content)
	return err
}

func (d *Adapter) Incoming() <-chan *channel.Message {
	return d.incoming
}

func mentioned(botID string, mentions []*discordgo.User) bool {
	for _, m := range mentions {
		if m.ID == botID {
			return true
		}
	}
	return false
}
