package guild

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// User is the platform-wide identity a member wraps.
type User struct {
	ID            snowflake.ID `json:"id"`
	Username      string       `json:"username"`
	Discriminator string       `json:"discriminator"`
	Avatar        []byte       `json:"avatar,omitempty"`
	Bot           bool         `json:"bot"`
}

// Mention returns the plain user-reference string.
func (u User) Mention() string {
	return fmt.Sprintf("<@%s>", u.ID)
}

// Member is a user's per-guild state. Its identity is always the embedded
// user's id. The role list holds references by id; duplicates are kept as
// given.
type Member struct {
	User     User           `json:"user"`
	GuildID  snowflake.ID   `json:"guild_id"`
	Nick     string         `json:"nick,omitempty"`
	Mute     bool           `json:"mute"`
	Deaf     bool           `json:"deaf"`
	JoinedAt time.Time      `json:"joined_at"`
	Roles    []snowflake.ID `json:"roles"`
}

// ID is an alias for the embedded user's id.
func (m *Member) ID() snowflake.ID {
	return m.User.ID
}

// Guild resolves the owning guild through the registry.
func (m *Member) Guild(res Resolver) (*Guild, bool) {
	return res.Guild(m.GuildID)
}

// Owner reports whether this member owns the guild.
func (m *Member) Owner(res Resolver) bool {
	g, ok := res.Guild(m.GuildID)
	return ok && g.OwnerID == m.ID()
}

// Mention returns the nickname-mention form when a nickname is set, and the
// plain user mention otherwise.
func (m *Member) Mention() string {
	if m.Nick != "" {
		return fmt.Sprintf("<@!%s>", m.ID())
	}
	return m.User.Mention()
}

// VoiceState returns the member's live voice state, if connected.
func (m *Member) VoiceState(res Resolver) (*VoiceState, bool) {
	g, ok := res.Guild(m.GuildID)
	if !ok {
		return nil, false
	}
	return g.VoiceStateFor(m.ID())
}

// Kick removes the member from the guild.
func (m *Member) Kick(ctx context.Context, client API) error {
	return client.KickMember(ctx, m.GuildID, m.ID())
}

// Ban bans the member, deleting their messages from the last
// deleteMessageDays days.
func (m *Member) Ban(ctx context.Context, client API, deleteMessageDays int) error {
	return client.BanMember(ctx, m.GuildID, m.ID(), deleteMessageDays)
}

// SetNickname sets the member's nickname. An empty string clears it.
func (m *Member) SetNickname(ctx context.Context, client API, nick string) error {
	return client.SetMemberNickname(ctx, m.GuildID, m.ID(), nick)
}

// AddRole appends a role id to the member's list and sends the full
// replacement list; the remote API replaces rather than appends. A role the
// member already carries is sent twice rather than deduplicated.
func (m *Member) AddRole(ctx context.Context, client API, roleID snowflake.ID) error {
	roles := make([]snowflake.ID, 0, len(m.Roles)+1)
	roles = append(roles, m.Roles...)
	roles = append(roles, roleID)
	return client.SetMemberRoles(ctx, m.GuildID, m.ID(), roles)
}
