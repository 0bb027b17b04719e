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

// RoleEventPacket carries one role create or update.
type RoleEventPacket struct {
	GuildID snowflake.ID `json:"guild_id"`
	Role    *guild.Role  `json:"role"`
}

// RoleDeletePacket drops one role.
type RoleDeletePacket struct {
	GuildID snowflake.ID `json:"guild_id"`
	RoleID  snowflake.ID `json:"role_id"`
}

// RegisterRoles sets up the role delta subscriptions.
func RegisterRoles(nc *nats.Conn, instance *app.Cadence) {
	roleUpsertHandler(nc, instance, "guilds.roles.create", "role_create")
	roleUpsertHandler(nc, instance, "guilds.roles.update", "role_update")
	roleDeleteHandler(nc, instance)
}

func roleUpsertHandler(nc *nats.Conn, instance *app.Cadence, subject, event string) {
	_, err := nc.Subscribe(instance.Subject(subject), func(msg *nats.Msg) {
		var packet RoleEventPacket
		if err := sonic.Unmarshal(msg.Data, &packet); err != nil || packet.Role == nil {
			instance.Logger.Warn("Invalid role packet", zap.String("subject", subject), zap.Error(err))
			return
		}

		g, ok := lookupGuild(instance, packet.GuildID, event)
		if !ok {
			return
		}

		g.UpsertRole(packet.Role)
		metrics.EventCount.WithLabelValues(event).Inc()
	})
	if err != nil {
		instance.Logger.Fatal("Error subscribing", zap.String("subject", subject), zap.Error(err))
	}
	instance.Logger.Info("Listening for role deltas", zap.String("subject", subject))
}

func roleDeleteHandler(nc *nats.Conn, instance *app.Cadence) {
	const subject = "guilds.roles.delete"

	_, err := nc.Subscribe(instance.Subject(subject), func(msg *nats.Msg) {
		var packet RoleDeletePacket
		if err := sonic.Unmarshal(msg.Data, &packet); err != nil {
			instance.Logger.Warn("Invalid role delete packet", zap.Error(err))
			return
		}

		g, ok := lookupGuild(instance, packet.GuildID, "role_delete")
		if !ok {
			return
		}

		// Members still listing the role keep the stale id; permission
		// resolution skips it.
		g.RemoveRole(packet.RoleID)
		metrics.EventCount.WithLabelValues("role_delete").Inc()
	})
	if err != nil {
		instance.Logger.Fatal("Error subscribing", zap.String("subject", subject), zap.Error(err))
	}
	instance.Logger.Info("Listening for role deletes", zap.String("subject", subject))
}
