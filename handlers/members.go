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

// MemberEventPacket carries one member add or update.
type MemberEventPacket struct {
	GuildID snowflake.ID  `json:"guild_id"`
	Member  *guild.Member `json:"member"`
}

// MemberRemovePacket drops one member from the cache.
type MemberRemovePacket struct {
	GuildID snowflake.ID `json:"guild_id"`
	UserID  snowflake.ID `json:"user_id"`
}

// MemberChunkPacket is a bulk slice of the member list, sent in answer to a
// guilds.members.request signal.
type MemberChunkPacket struct {
	GuildID snowflake.ID    `json:"guild_id"`
	Members []*guild.Member `json:"members"`
}

// RegisterMembers sets up the member delta subscriptions.
func RegisterMembers(nc *nats.Conn, instance *app.Cadence) {
	memberUpsertHandler(nc, instance, "guilds.members.add", "member_add")
	memberUpsertHandler(nc, instance, "guilds.members.update", "member_update")
	memberRemoveHandler(nc, instance)
	memberChunkHandler(nc, instance)
}

func memberUpsertHandler(nc *nats.Conn, instance *app.Cadence, subject, event string) {
	_, err := nc.Subscribe(instance.Subject(subject), func(msg *nats.Msg) {
		var packet MemberEventPacket
		if err := sonic.Unmarshal(msg.Data, &packet); err != nil || packet.Member == nil {
			instance.Logger.Warn("Invalid member packet", zap.String("subject", subject), zap.Error(err))
			return
		}

		g, ok := lookupGuild(instance, packet.GuildID, event)
		if !ok {
			return
		}

		g.UpsertMember(packet.Member)
		metrics.EventCount.WithLabelValues(event).Inc()
	})
	if err != nil {
		instance.Logger.Fatal("Error subscribing", zap.String("subject", subject), zap.Error(err))
	}
	instance.Logger.Info("Listening for member deltas", zap.String("subject", subject))
}

func memberRemoveHandler(nc *nats.Conn, instance *app.Cadence) {
	const subject = "guilds.members.remove"

	_, err := nc.Subscribe(instance.Subject(subject), func(msg *nats.Msg) {
		var packet MemberRemovePacket
		if err := sonic.Unmarshal(msg.Data, &packet); err != nil {
			instance.Logger.Warn("Invalid member remove packet", zap.Error(err))
			return
		}

		g, ok := lookupGuild(instance, packet.GuildID, "member_remove")
		if !ok {
			return
		}

		g.RemoveMember(packet.UserID)
		metrics.EventCount.WithLabelValues("member_remove").Inc()
	})
	if err != nil {
		instance.Logger.Fatal("Error subscribing", zap.String("subject", subject), zap.Error(err))
	}
	instance.Logger.Info("Listening for member removals", zap.String("subject", subject))
}

func memberChunkHandler(nc *nats.Conn, instance *app.Cadence) {
	const subject = "guilds.members.chunk"

	_, err := nc.Subscribe(instance.Subject(subject), func(msg *nats.Msg) {
		var packet MemberChunkPacket
		if err := sonic.Unmarshal(msg.Data, &packet); err != nil {
			instance.Logger.Warn("Invalid member chunk packet", zap.Error(err))
			return
		}

		g, ok := lookupGuild(instance, packet.GuildID, "member_chunk")
		if !ok {
			return
		}

		for _, m := range packet.Members {
			if m != nil {
				g.UpsertMember(m)
			}
		}
		metrics.EventCount.WithLabelValues("member_chunk").Inc()

		instance.Logger.Debug("Applied member chunk",
			zap.String("guild_id", packet.GuildID.String()),
			zap.Int("members", len(packet.Members)))
	})
	if err != nil {
		instance.Logger.Fatal("Error subscribing", zap.String("subject", subject), zap.Error(err))
	}
	instance.Logger.Info("Listening for member chunks", zap.String("subject", subject))
}
