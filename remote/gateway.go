package remote

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/snowflake/v2"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/HarmonyChat/Cadence/guild"
	"github.com/HarmonyChat/Cadence/utils"
)

// MembersRequestPacket asks the event stream for a guild's full member list.
// A zero limit means no cap.
type MembersRequestPacket struct {
	GuildID snowflake.ID `json:"guild_id"`
	Query   string       `json:"query"`
	Limit   int          `json:"limit"`
}

// Gateway publishes fire-and-forget signals toward the event stream. The
// answering member chunks come back through the inbound handlers.
type Gateway struct {
	nc     *nats.Conn
	prefix string
	logger *zap.Logger
}

var _ guild.Gateway = (*Gateway)(nil)

// NewGateway creates a gateway signal publisher.
func NewGateway(nc *nats.Conn, prefix string, logger *zap.Logger) *Gateway {
	return &Gateway{
		nc:     nc,
		prefix: prefix,
		logger: logger,
	}
}

// RequestMembers emits one request-guild-members signal. There is no reply
// to observe; publish errors are the only failure surface.
func (g *Gateway) RequestMembers(guildID snowflake.ID, query string, limit int) error {
	data, err := sonic.Marshal(MembersRequestPacket{
		GuildID: guildID,
		Query:   query,
		Limit:   limit,
	})
	if err != nil {
		return fmt.Errorf("marshal members request: %w", err)
	}

	subject := utils.EnsurePrefixed(g.prefix, "guilds.members.request")
	if err := g.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish members request: %w", err)
	}

	g.logger.Debug("Requested guild members",
		zap.String("guild_id", guildID.String()),
		zap.Int("limit", limit))
	return nil
}
