package handlers

import (
	"github.com/bytedance/sonic"
	"github.com/disgoorg/snowflake/v2"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/HarmonyChat/Cadence/app"
	"github.com/HarmonyChat/Cadence/guild"
	"github.com/HarmonyChat/Cadence/metrics"
)

// ChannelEventPacket carries one channel create or update.
type ChannelEventPacket struct {
	GuildID snowflake.ID   `json:"guild_id"`
	Channel *guild.Channel `json:"channel"`
}

// ChannelDeletePacket drops one channel.
type ChannelDeletePacket struct {
	GuildID   snowflake.ID `json:"guild_id"`
	ChannelID snowflake.ID `json:"channel_id"`
}

// EmojiEventPacket carries one emoji create or update.
type EmojiEventPacket struct {
	GuildID snowflake.ID `json:"guild_id"`
	Emoji   *guild.Emoji `json:"emoji"`
}

// EmojiDeletePacket drops one emoji.
type EmojiDeletePacket struct {
	GuildID snowflake.ID `json:"guild_id"`
	EmojiID snowflake.ID `json:"emoji_id"`
}

// RegisterChannels sets up the channel and emoji delta subscriptions.
func RegisterChannels(nc *nats.Conn, instance *app.Cadence) {
	channelUpsertHandler(nc, instance, "guilds.channels.create", "channel_create")
	channelUpsertHandler(nc, instance, "guilds.channels.update", "channel_update")
	channelDeleteHandler(nc, instance)
	emojiUpsertHandler(nc, instance, "guilds.emojis.create", "emoji_create")
	emojiUpsertHandler(nc, instance, "guilds.emojis.update", "emoji_update")
	emojiDeleteHandler(nc, instance)
}

func channelUpsertHandler(nc *nats.Conn, instance *app.Cadence, subject, event string) {
	_, err := nc.Subscribe(instance.Subject(subject), func(msg *nats.Msg) {
		var packet ChannelEventPacket
		if err := sonic.Unmarshal(msg.Data, &packet); err != nil || packet.Channel == nil {
			instance.Logger.Warn("Invalid channel packet", zap.String("subject", subject), zap.Error(err))
			return
		}

		g, ok := lookupGuild(instance, packet.GuildID, event)
		if !ok {
			return
		}

		g.UpsertChannel(packet.Channel)
		metrics.EventCount.WithLabelValues(event).Inc()
	})
	if err != nil {
		instance.Logger.Fatal("Error subscribing", zap.String("subject", subject), zap.Error(err))
	}
	instance.Logger.Info("Listening for channel deltas", zap.String("subject", subject))
}

func channelDeleteHandler(nc *nats.Conn, instance *app.Cadence) {
	const subject = "guilds.channels.delete"

	_, err := nc.Subscribe(instance.Subject(subject), func(msg *nats.Msg) {
		var packet ChannelDeletePacket
		if err := sonic.Unmarshal(msg.Data, &packet); err != nil {
			instance.Logger.Warn("Invalid channel delete packet", zap.Error(err))
			return
		}

		g, ok := lookupGuild(instance, packet.GuildID, "channel_delete")
		if !ok {
			return
		}

		g.RemoveChannel(packet.ChannelID)
		metrics.EventCount.WithLabelValues("channel_delete").Inc()
	})
	if err != nil {
		instance.Logger.Fatal("Error subscribing", zap.String("subject", subject), zap.Error(err))
	}
	instance.Logger.Info("Listening for channel deletes", zap.String("subject", subject))
}

func emojiUpsertHandler(nc *nats.Conn, instance *app.Cadence, subject, event string) {
	_, err := nc.Subscribe(instance.Subject(subject), func(msg *nats.Msg) {
		var packet EmojiEventPacket
		if err := sonic.Unmarshal(msg.Data, &packet); err != nil || packet.Emoji == nil {
			instance.Logger.Warn("Invalid emoji packet", zap.String("subject", subject), zap.Error(err))
			return
		}

		g, ok := lookupGuild(instance, packet.GuildID, event)
		if !ok {
			return
		}

		g.UpsertEmoji(packet.Emoji)
		metrics.EventCount.WithLabelValues(event).Inc()
	})
	if err != nil {
		instance.Logger.Fatal("Error subscribing", zap.String("subject", subject), zap.Error(err))
	}
	instance.Logger.Info("Listening for emoji deltas", zap.String("subject", subject))
}

func emojiDeleteHandler(nc *nats.Conn, instance *app.Cadence) {
	const subject = "guilds.emojis.delete"

	_, err := nc.Subscribe(instance.Subject(subject), func(msg *nats.Msg) {
		var packet EmojiDeletePacket
		if err := sonic.Unmarshal(msg.Data, &packet); err != nil {
			instance.Logger.Warn("Invalid emoji delete packet", zap.Error(err))
			return
		}

		g, ok := lookupGuild(instance, packet.GuildID, "emoji_delete")
		if !ok {
			return
		}

		g.RemoveEmoji(packet.EmojiID)
		metrics.EventCount.WithLabelValues("emoji_delete").Inc()
	})
	if err != nil {
		instance.Logger.Fatal("Error subscribing", zap.String("subject", subject), zap.Error(err))
	}
	instance.Logger.Info("Listening for emoji deletes", zap.String("subject", subject))
}
