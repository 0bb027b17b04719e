package handlers

import (
	"context"
	"errors"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/snowflake/v2"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/HarmonyChat/Cadence/app"
	"github.com/HarmonyChat/Cadence/guild"
)

// StateRequestPacket addresses one user inside one guild.
type StateRequestPacket struct {
	GuildID snowflake.ID `json:"guild_id"`
	UserID  snowflake.ID `json:"user_id"`
}

// SyncRequestPacket asks the service to request a guild's full member list.
type SyncRequestPacket struct {
	GuildID snowflake.ID `json:"guild_id"`
}

// StateResponse is the reply envelope for state queries.
type StateResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// PermissionsData is the payload of a permissions query reply.
type PermissionsData struct {
	Permissions uint64   `json:"permissions"`
	Names       []string `json:"names"`
}

// RegisterState sets up the request/reply query surface over the mirror.
func RegisterState(nc *nats.Conn, instance *app.Cadence) {
	memberGetHandler(nc, instance)
	permissionsGetHandler(nc, instance)
	voiceGetHandler(nc, instance)
	syncHandler(nc, instance)
}

func respond(instance *app.Cadence, msg *nats.Msg, response StateResponse) {
	data, err := sonic.Marshal(response)
	if err != nil {
		instance.Logger.Error("Error marshalling state response", zap.Error(err))
		return
	}
	if err := msg.Respond(data); err != nil {
		instance.Logger.Error("Error responding to state request", zap.Error(err))
	}
}

// memberGetHandler resolves a member with cache-fill: a miss goes through
// the remote API once and a successful fetch is memoized.
func memberGetHandler(nc *nats.Conn, instance *app.Cadence) {
	const subject = "state.members.get"

	_, err := nc.Subscribe(instance.Subject(subject), func(msg *nats.Msg) {
		var packet StateRequestPacket
		if err := sonic.Unmarshal(msg.Data, &packet); err != nil {
			respond(instance, msg, StateResponse{Error: "ERR_INVALID_MESSAGE_FORMAT"})
			return
		}

		g, ok := instance.Guilds.Guild(packet.GuildID)
		if !ok {
			respond(instance, msg, StateResponse{Error: "ERR_UNKNOWN_GUILD"})
			return
		}

		m, err := g.Member(context.Background(), instance.API, packet.UserID)
		switch {
		case errors.Is(err, guild.ErrNotFound):
			respond(instance, msg, StateResponse{Error: "ERR_UNKNOWN_MEMBER"})
		case err != nil:
			instance.Logger.Warn("Member fetch failed",
				zap.String("guild_id", packet.GuildID.String()),
				zap.String("user_id", packet.UserID.String()),
				zap.Error(err))
			respond(instance, msg, StateResponse{Error: "ERR_FETCH_FAILED"})
		default:
			respond(instance, msg, StateResponse{Success: true, Data: m})
		}
	})
	if err != nil {
		instance.Logger.Fatal("Error subscribing", zap.String("subject", subject), zap.Error(err))
	}
	instance.Logger.Info("Listening for member queries", zap.String("subject", subject))
}

func permissionsGetHandler(nc *nats.Conn, instance *app.Cadence) {
	const subject = "state.permissions.get"

	_, err := nc.Subscribe(instance.Subject(subject), func(msg *nats.Msg) {
		var packet StateRequestPacket
		if err := sonic.Unmarshal(msg.Data, &packet); err != nil {
			respond(instance, msg, StateResponse{Error: "ERR_INVALID_MESSAGE_FORMAT"})
			return
		}

		g, ok := instance.Guilds.Guild(packet.GuildID)
		if !ok {
			respond(instance, msg, StateResponse{Error: "ERR_UNKNOWN_GUILD"})
			return
		}

		value, err := g.Permissions(packet.UserID)
		if err != nil {
			respond(instance, msg, StateResponse{Error: "ERR_UNKNOWN_MEMBER"})
			return
		}

		respond(instance, msg, StateResponse{Success: true, Data: PermissionsData{
			Permissions: value.Raw(),
			Names:       value.Names(),
		}})
	})
	if err != nil {
		instance.Logger.Fatal("Error subscribing", zap.String("subject", subject), zap.Error(err))
	}
	instance.Logger.Info("Listening for permission queries", zap.String("subject", subject))
}

func voiceGetHandler(nc *nats.Conn, instance *app.Cadence) {
	const subject = "state.voice.get"

	_, err := nc.Subscribe(instance.Subject(subject), func(msg *nats.Msg) {
		var packet StateRequestPacket
		if err := sonic.Unmarshal(msg.Data, &packet); err != nil {
			respond(instance, msg, StateResponse{Error: "ERR_INVALID_MESSAGE_FORMAT"})
			return
		}

		g, ok := instance.Guilds.Guild(packet.GuildID)
		if !ok {
			respond(instance, msg, StateResponse{Error: "ERR_UNKNOWN_GUILD"})
			return
		}

		state, ok := g.VoiceStateFor(packet.UserID)
		if !ok {
			respond(instance, msg, StateResponse{Error: "ERR_NOT_CONNECTED"})
			return
		}
		respond(instance, msg, StateResponse{Success: true, Data: state})
	})
	if err != nil {
		instance.Logger.Fatal("Error subscribing", zap.String("subject", subject), zap.Error(err))
	}
	instance.Logger.Info("Listening for voice queries", zap.String("subject", subject))
}

// syncHandler triggers the one-shot member-list request for a guild.
func syncHandler(nc *nats.Conn, instance *app.Cadence) {
	const subject = "state.sync"

	_, err := nc.Subscribe(instance.Subject(subject), func(msg *nats.Msg) {
		var packet SyncRequestPacket
		if err := sonic.Unmarshal(msg.Data, &packet); err != nil {
			respond(instance, msg, StateResponse{Error: "ERR_INVALID_MESSAGE_FORMAT"})
			return
		}

		g, ok := instance.Guilds.Guild(packet.GuildID)
		if !ok {
			respond(instance, msg, StateResponse{Error: "ERR_UNKNOWN_GUILD"})
			return
		}

		if err := g.Sync(instance.Gateway); err != nil {
			instance.Logger.Warn("Member sync request failed",
				zap.String("guild_id", packet.GuildID.String()),
				zap.Error(err))
			respond(instance, msg, StateResponse{Error: "ERR_SYNC_FAILED"})
			return
		}
		respond(instance, msg, StateResponse{Success: true})
	})
	if err != nil {
		instance.Logger.Fatal("Error subscribing", zap.String("subject", subject), zap.Error(err))
	}
	instance.Logger.Info("Listening for sync requests", zap.String("subject", subject))
}
