package handlers

import (
	"github.com/bytedance/sonic"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/HarmonyChat/Cadence/app"
	"github.com/HarmonyChat/Cadence/guild"
	"github.com/HarmonyChat/Cadence/metrics"
)

// RegisterVoice sets up the voice-state subscription.
func RegisterVoice(nc *nats.Conn, instance *app.Cadence) {
	const subject = "guilds.voice.update"

	_, err := nc.Subscribe(instance.Subject(subject), func(msg *nats.Msg) {
		var state guild.VoiceState
		if err := sonic.Unmarshal(msg.Data, &state); err != nil || state.SessionID == "" {
			instance.Logger.Warn("Invalid voice state packet", zap.Error(err))
			return
		}

		g, ok := lookupGuild(instance, state.GuildID, "voice_state_update")
		if !ok {
			return
		}

		// A zero channel id means the session disconnected.
		if state.ChannelID == 0 {
			g.RemoveVoiceState(state.SessionID)
		} else {
			g.UpsertVoiceState(&state)
		}
		metrics.EventCount.WithLabelValues("voice_state_update").Inc()
	})
	if err != nil {
		instance.Logger.Fatal("Error subscribing", zap.String("subject", subject), zap.Error(err))
	}
	instance.Logger.Info("Listening for voice state updates", zap.String("subject", subject))
}
