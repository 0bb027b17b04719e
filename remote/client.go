// Package remote implements the outbound API surface over NATS
// request/reply. Every call sends one request and interprets a
// {success, error, data} reply envelope; failures surface unchanged as
// guild.ErrNotFound or *guild.APIError, never retried here.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/HarmonyChat/Cadence/guild"
	"github.com/HarmonyChat/Cadence/metrics"
	"github.com/HarmonyChat/Cadence/utils"
)

// Error codes the remote service maps to an absent outcome.
const (
	codeUnknownMember = "ERR_UNKNOWN_MEMBER"
	codeUnknownGuild  = "ERR_UNKNOWN_GUILD"
	codeUnknownRole   = "ERR_UNKNOWN_ROLE"
)

// envelope is the reply wrapper every API subject answers with.
type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Client talks to the remote guild service over NATS request/reply.
type Client struct {
	nc      *nats.Conn
	prefix  string
	timeout time.Duration
	logger  *zap.Logger
}

var _ guild.API = (*Client)(nil)

// NewClient creates a remote client. The prefix namespaces API subjects per
// environment; timeout bounds each request when the caller's context has no
// earlier deadline.
func NewClient(nc *nats.Conn, prefix string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		nc:      nc,
		prefix:  prefix,
		timeout: timeout,
		logger:  logger,
	}
}

// request performs one request/reply round trip and decodes the envelope
// into out when provided.
func (c *Client) request(ctx context.Context, subject string, payload, out any) error {
	data, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", subject, err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	msg := nats.NewMsg(utils.EnsurePrefixed(c.prefix, subject))
	msg.Data = data
	requestID := uuid.NewString()
	msg.Header.Set("Request-Id", requestID)

	resp, err := c.nc.RequestMsgWithContext(ctx, msg)
	if err != nil {
		metrics.RemoteCalls.WithLabelValues(subject, "error").Inc()
		return fmt.Errorf("request %s: %w", subject, err)
	}

	var env envelope
	if err := sonic.Unmarshal(resp.Data, &env); err != nil {
		metrics.RemoteCalls.WithLabelValues(subject, "error").Inc()
		return fmt.Errorf("decode %s reply: %w", subject, err)
	}

	if !env.Success {
		metrics.RemoteCalls.WithLabelValues(subject, "failed").Inc()
		c.logger.Debug("Remote call failed",
			zap.String("subject", subject),
			zap.String("request_id", requestID),
			zap.String("code", env.Error))

		switch env.Error {
		case codeUnknownMember, codeUnknownGuild, codeUnknownRole:
			return guild.ErrNotFound
		default:
			return &guild.APIError{Code: env.Error, Message: env.Message}
		}
	}

	metrics.RemoteCalls.WithLabelValues(subject, "ok").Inc()

	if out != nil && len(env.Data) > 0 {
		if err := sonic.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s reply data: %w", subject, err)
		}
	}
	return nil
}

type memberRequest struct {
	GuildID snowflake.ID `json:"guild_id"`
	UserID  snowflake.ID `json:"user_id"`
}

type roleRequest struct {
	GuildID snowflake.ID `json:"guild_id"`
	RoleID  snowflake.ID `json:"role_id,omitempty"`
}

type roleUpdateRequest struct {
	GuildID snowflake.ID `json:"guild_id"`
	RoleID  snowflake.ID `json:"role_id"`
	guild.RoleUpdate
}

type banRequest struct {
	GuildID           snowflake.ID `json:"guild_id"`
	UserID            snowflake.ID `json:"user_id"`
	DeleteMessageDays int          `json:"delete_message_days"`
}

type nicknameRequest struct {
	GuildID snowflake.ID `json:"guild_id"`
	UserID  snowflake.ID `json:"user_id"`
	Nick    string       `json:"nick"`
}

type memberRolesRequest struct {
	GuildID snowflake.ID   `json:"guild_id"`
	UserID  snowflake.ID   `json:"user_id"`
	Roles   []snowflake.ID `json:"roles"`
}

// FetchMember looks a member up remotely. Unknown users surface as
// guild.ErrNotFound.
func (c *Client) FetchMember(ctx context.Context, guildID, userID snowflake.ID) (*guild.Member, error) {
	var m guild.Member
	err := c.request(ctx, "api.guilds.members.get", memberRequest{GuildID: guildID, UserID: userID}, &m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateRole asks the remote service for a fresh role on the guild.
func (c *Client) CreateRole(ctx context.Context, guildID snowflake.ID) (*guild.Role, error) {
	var r guild.Role
	err := c.request(ctx, "api.guilds.roles.create", roleRequest{GuildID: guildID}, &r)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteRole deletes a role.
func (c *Client) DeleteRole(ctx context.Context, guildID, roleID snowflake.ID) error {
	return c.request(ctx, "api.guilds.roles.delete", roleRequest{GuildID: guildID, RoleID: roleID}, nil)
}

// UpdateRole pushes a role's mutable fields.
func (c *Client) UpdateRole(ctx context.Context, guildID, roleID snowflake.ID, update guild.RoleUpdate) error {
	return c.request(ctx, "api.guilds.roles.update", roleUpdateRequest{
		GuildID:    guildID,
		RoleID:     roleID,
		RoleUpdate: update,
	}, nil)
}

// KickMember removes a member from a guild.
func (c *Client) KickMember(ctx context.Context, guildID, userID snowflake.ID) error {
	return c.request(ctx, "api.guilds.members.kick", memberRequest{GuildID: guildID, UserID: userID}, nil)
}

// BanMember bans a user, deleting their recent messages.
func (c *Client) BanMember(ctx context.Context, guildID, userID snowflake.ID, deleteMessageDays int) error {
	return c.request(ctx, "api.guilds.bans.create", banRequest{
		GuildID:           guildID,
		UserID:            userID,
		DeleteMessageDays: deleteMessageDays,
	}, nil)
}

// SetMemberNickname sets or clears a member's nickname.
func (c *Client) SetMemberNickname(ctx context.Context, guildID, userID snowflake.ID, nick string) error {
	return c.request(ctx, "api.guilds.members.nickname", nicknameRequest{
		GuildID: guildID,
		UserID:  userID,
		Nick:    nick,
	}, nil)
}

// SetMemberRoles replaces a member's role list.
func (c *Client) SetMemberRoles(ctx context.Context, guildID, userID snowflake.ID, roleIDs []snowflake.ID) error {
	return c.request(ctx, "api.guilds.members.roles", memberRolesRequest{
		GuildID: guildID,
		UserID:  userID,
		Roles:   roleIDs,
	}, nil)
}

// ListBans fetches a guild's ban list.
func (c *Client) ListBans(ctx context.Context, guildID snowflake.ID) ([]guild.Ban, error) {
	var bans []guild.Ban
	err := c.request(ctx, "api.guilds.bans.list", roleRequest{GuildID: guildID}, &bans)
	if err != nil {
		return nil, err
	}
	return bans, nil
}

// DeleteBan lifts a ban.
func (c *Client) DeleteBan(ctx context.Context, guildID, userID snowflake.ID) error {
	return c.request(ctx, "api.guilds.bans.delete", memberRequest{GuildID: guildID, UserID: userID}, nil)
}
