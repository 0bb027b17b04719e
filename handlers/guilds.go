// Package handlers wires the inbound event stream to the guild registry.
// Each subscription decodes one payload kind and applies it: full snapshot
// subjects replace the aggregate wholesale, per-entity subjects patch one
// map entry in place. The replace-vs-patch policy therefore lives entirely
// here, not in the aggregate.
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

// GuildDeletePacket removes a guild from the mirror.
type GuildDeletePacket struct {
	ID snowflake.ID `json:"id"`
}

// GuildSummary is one entry of the guilds.list reply.
type GuildSummary struct {
	ID          snowflake.ID `json:"id"`
	Name        string       `json:"name"`
	MemberCount int          `json:"member_count"`
	Synced      bool         `json:"synced"`
}

// GuildListPacket is the guilds.list reply.
type GuildListPacket struct {
	Guilds []GuildSummary `json:"guilds"`
}

// RegisterGuilds sets up the guild-level subscriptions.
func RegisterGuilds(nc *nats.Conn, instance *app.Cadence) {
	snapshotHandler(nc, instance, "guilds.create", "guild_create")
	snapshotHandler(nc, instance, "guilds.update", "guild_update")
	guildDeleteHandler(nc, instance)
	guildListHandler(nc, instance)
}

// snapshotHandler applies full guild snapshots by wholesale replacement.
func snapshotHandler(nc *nats.Conn, instance *app.Cadence, subject, event string) {
	_, err := nc.Subscribe(instance.Subject(subject), func(msg *nats.Msg) {
		var snapshot guild.Snapshot
		if err := sonic.Unmarshal(msg.Data, &snapshot); err != nil {
			instance.Logger.Warn("Invalid guild snapshot", zap.String("subject", subject), zap.Error(err))
			return
		}

		instance.Guilds.Replace(guild.New(snapshot))
		metrics.EventCount.WithLabelValues(event).Inc()
		metrics.GuildCount.Set(float64(instance.Guilds.Count()))
	})
	if err != nil {
		instance.Logger.Fatal("Error subscribing", zap.String("subject", subject), zap.Error(err))
	}
	instance.Logger.Info("Listening for guild snapshots", zap.String("subject", subject))
}

func guildDeleteHandler(nc *nats.Conn, instance *app.Cadence) {
	const subject = "guilds.delete"

	_, err := nc.Subscribe(instance.Subject(subject), func(msg *nats.Msg) {
		var packet GuildDeletePacket
		if err := sonic.Unmarshal(msg.Data, &packet); err != nil {
			instance.Logger.Warn("Invalid guild delete packet", zap.Error(err))
			return
		}

		instance.Guilds.Remove(packet.ID)
		metrics.EventCount.WithLabelValues("guild_delete").Inc()
		metrics.GuildCount.Set(float64(instance.Guilds.Count()))
	})
	if err != nil {
		instance.Logger.Fatal("Error subscribing", zap.String("subject", subject), zap.Error(err))
	}
	instance.Logger.Info("Listening for guild deletes", zap.String("subject", subject))
}

// guildListHandler answers list requests with a summary of the mirror.
func guildListHandler(nc *nats.Conn, instance *app.Cadence) {
	const subject = "guilds.list"

	_, err := nc.Subscribe(instance.Subject(subject), func(msg *nats.Msg) {
		all := instance.Guilds.All()
		packet := GuildListPacket{Guilds: make([]GuildSummary, 0, len(all))}
		for _, g := range all {
			packet.Guilds = append(packet.Guilds, GuildSummary{
				ID:          g.ID,
				Name:        g.Name,
				MemberCount: len(g.Members()),
				Synced:      g.Synced(),
			})
		}

		response, err := sonic.Marshal(packet)
		if err != nil {
			instance.Logger.Error("Error marshalling guild list", zap.Error(err))
			return
		}
		if err := msg.Respond(response); err != nil {
			instance.Logger.Error("Error responding to guild list request", zap.Error(err))
		}
	})
	if err != nil {
		instance.Logger.Fatal("Error subscribing", zap.String("subject", subject), zap.Error(err))
	}
	instance.Logger.Info("Listening for guild list requests", zap.String("subject", subject))
}

// lookupGuild resolves the target aggregate for a delta, logging a skip for
// guilds the mirror does not hold.
func lookupGuild(instance *app.Cadence, id snowflake.ID, event string) (*guild.Guild, bool) {
	g, ok := instance.Guilds.Guild(id)
	if !ok {
		instance.Logger.Warn("Delta for unknown guild",
			zap.String("guild_id", id.String()),
			zap.String("event", event))
		return nil, false
	}
	return g, true
}
