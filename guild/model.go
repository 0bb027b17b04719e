package guild

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/disgoorg/snowflake/v2"

	"github.com/HarmonyChat/Cadence/permissions"
)

// VerificationLevel is the bar a user must clear before participating.
type VerificationLevel int

const (
	VerificationNone VerificationLevel = iota
	VerificationLow
	VerificationMedium
	VerificationHigh
	VerificationExtreme
)

func (l VerificationLevel) String() string {
	switch l {
	case VerificationNone:
		return "none"
	case VerificationLow:
		return "low"
	case VerificationMedium:
		return "medium"
	case VerificationHigh:
		return "high"
	case VerificationExtreme:
		return "extreme"
	default:
		return fmt.Sprintf("verification(%d)", int(l))
	}
}

// ChannelType discriminates text, voice and category channels.
type ChannelType int

const (
	ChannelText     ChannelType = 0
	ChannelVoice    ChannelType = 2
	ChannelCategory ChannelType = 4
)

// Role grants a permission bitset to the members carrying it. The role whose
// id equals the guild id is the guild's implicit "everyone" role.
type Role struct {
	ID          snowflake.ID      `json:"id"`
	GuildID     snowflake.ID      `json:"guild_id"`
	Name        string            `json:"name"`
	Hoist       bool              `json:"hoist"`
	Managed     bool              `json:"managed"`
	Color       int               `json:"color"`
	Permissions permissions.Value `json:"permissions"`
	Position    int               `json:"position"`
	Mentionable bool              `json:"mentionable"`
}

// Mention returns the role-reference string.
func (r *Role) Mention() string {
	return fmt.Sprintf("<@&%s>", r.ID)
}

// Delete removes the role from its guild.
func (r *Role) Delete(ctx context.Context, client API) error {
	return client.DeleteRole(ctx, r.GuildID, r.ID)
}

// Save pushes the role's mutable fields to the remote API.
func (r *Role) Save(ctx context.Context, client API) error {
	return client.UpdateRole(ctx, r.GuildID, r.ID, RoleUpdate{
		Name:        r.Name,
		Permissions: r.Permissions.Raw(),
		Position:    r.Position,
		Color:       r.Color,
		Hoist:       r.Hoist,
		Mentionable: r.Mentionable,
	})
}

// Channel is a text, voice or category channel inside a guild.
type Channel struct {
	ID       snowflake.ID `json:"id"`
	GuildID  snowflake.ID `json:"guild_id"`
	Name     string       `json:"name"`
	Type     ChannelType  `json:"type"`
	Position int          `json:"position"`
	Topic    string       `json:"topic,omitempty"`
}

// Mention returns the channel-reference string.
func (c *Channel) Mention() string {
	return fmt.Sprintf("<#%s>", c.ID)
}

// Emoji is a custom emoji registered on a guild.
type Emoji struct {
	ID            snowflake.ID   `json:"id"`
	GuildID       snowflake.ID   `json:"guild_id"`
	Name          string         `json:"name"`
	RequireColons bool           `json:"require_colons"`
	Managed       bool           `json:"managed"`
	Roles         []snowflake.ID `json:"roles"`
}

// VoiceState is one user's live voice connection, keyed by session id.
type VoiceState struct {
	GuildID   snowflake.ID `json:"guild_id"`
	ChannelID snowflake.ID `json:"channel_id"`
	UserID    snowflake.ID `json:"user_id"`
	SessionID string       `json:"session_id"`
	Deaf      bool         `json:"deaf"`
	Mute      bool         `json:"mute"`
	SelfDeaf  bool         `json:"self_deaf"`
	SelfMute  bool         `json:"self_mute"`
	Suppress  bool         `json:"suppress"`
}

// Snapshot is a fully decoded point-in-time guild payload as delivered by
// the event stream. New turns it into an aggregate.
type Snapshot struct {
	ID                snowflake.ID      `json:"id"`
	OwnerID           snowflake.ID      `json:"owner_id"`
	Name              string            `json:"name"`
	Icon              []byte            `json:"icon,omitempty"`
	Splash            []byte            `json:"splash,omitempty"`
	Region            string            `json:"region"`
	VerificationLevel VerificationLevel `json:"verification_level"`
	Features          []string          `json:"features"`
	MemberCount       int               `json:"member_count"`
	Roles             []*Role           `json:"roles"`
	Members           []*Member         `json:"members"`
	Channels          []*Channel        `json:"channels"`
	Emojis            []*Emoji          `json:"emojis"`
	VoiceStates       []*VoiceState     `json:"voice_states"`
}

// Guild is the in-memory aggregate for a single guild. It exclusively owns
// its nested collections; children only carry the guild id back-reference.
type Guild struct {
	ID                snowflake.ID
	OwnerID           snowflake.ID
	Name              string
	Icon              []byte
	Splash            []byte
	Region            string
	VerificationLevel VerificationLevel
	Features          []string
	MemberCount       int

	mu          sync.RWMutex
	members     map[snowflake.ID]*Member
	roles       map[snowflake.ID]*Role
	channels    map[snowflake.ID]*Channel
	emojis      map[snowflake.ID]*Emoji
	voiceStates map[string]*VoiceState

	synced atomic.Bool
}

// New builds a guild aggregate from a decoded snapshot. Every child entity
// is stamped with the guild id exactly once, here; each snapshot owns its
// own child instances so stamping never touches another aggregate's data.
func New(s Snapshot) *Guild {
	g := &Guild{
		ID:                s.ID,
		OwnerID:           s.OwnerID,
		Name:              s.Name,
		Icon:              s.Icon,
		Splash:            s.Splash,
		Region:            s.Region,
		VerificationLevel: s.VerificationLevel,
		Features:          s.Features,
		MemberCount:       s.MemberCount,
		members:           make(map[snowflake.ID]*Member, len(s.Members)),
		roles:             make(map[snowflake.ID]*Role, len(s.Roles)),
		channels:          make(map[snowflake.ID]*Channel, len(s.Channels)),
		emojis:            make(map[snowflake.ID]*Emoji, len(s.Emojis)),
		voiceStates:       make(map[string]*VoiceState, len(s.VoiceStates)),
	}

	for _, m := range s.Members {
		m.GuildID = g.ID
		g.members[m.ID()] = m
	}
	for _, r := range s.Roles {
		r.GuildID = g.ID
		g.roles[r.ID] = r
	}
	for _, c := range s.Channels {
		c.GuildID = g.ID
		g.channels[c.ID] = c
	}
	for _, e := range s.Emojis {
		e.GuildID = g.ID
		g.emojis[e.ID] = e
	}
	for _, v := range s.VoiceStates {
		v.GuildID = g.ID
		g.voiceStates[v.SessionID] = v
	}

	return g
}

// CachedMember returns the member from the local cache only, without any
// remote fetch.
func (g *Guild) CachedMember(userID snowflake.ID) (*Member, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	m, ok := g.members[userID]
	return m, ok
}

// Role returns the role with the given id.
func (g *Guild) Role(id snowflake.ID) (*Role, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.roles[id]
	return r, ok
}

// Channel returns the channel with the given id.
func (g *Guild) Channel(id snowflake.ID) (*Channel, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.channels[id]
	return c, ok
}

// Emoji returns the emoji with the given id.
func (g *Guild) Emoji(id snowflake.ID) (*Emoji, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.emojis[id]
	return e, ok
}

// Members returns a copy of the member list.
func (g *Guild) Members() []*Member {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Member, 0, len(g.members))
	for _, m := range g.members {
		out = append(out, m)
	}
	return out
}

// Roles returns a copy of the role list.
func (g *Guild) Roles() []*Role {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Role, 0, len(g.roles))
	for _, r := range g.roles {
		out = append(out, r)
	}
	return out
}

// Channels returns a copy of the channel list.
func (g *Guild) Channels() []*Channel {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Channel, 0, len(g.channels))
	for _, c := range g.channels {
		out = append(out, c)
	}
	return out
}

// Emojis returns a copy of the emoji list.
func (g *Guild) Emojis() []*Emoji {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Emoji, 0, len(g.emojis))
	for _, e := range g.emojis {
		out = append(out, e)
	}
	return out
}

// VoiceStates returns a copy of the voice-state list.
func (g *Guild) VoiceStates() []*VoiceState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*VoiceState, 0, len(g.voiceStates))
	for _, v := range g.voiceStates {
		out = append(out, v)
	}
	return out
}

// VoiceStateFor scans the voice states for the given user. Voice occupancy
// is small relative to membership, so the linear scan is fine.
func (g *Guild) VoiceStateFor(userID snowflake.ID) (*VoiceState, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, v := range g.voiceStates {
		if v.UserID == userID {
			return v, true
		}
	}
	return nil, false
}

// UpsertMember patches one member into the cache, stamping the guild id.
func (g *Guild) UpsertMember(m *Member) {
	m.GuildID = g.ID
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members[m.ID()] = m
}

// RemoveMember drops a member from the cache.
func (g *Guild) RemoveMember(userID snowflake.ID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.members, userID)
}

// UpsertRole patches one role, stamping the guild id.
func (g *Guild) UpsertRole(r *Role) {
	r.GuildID = g.ID
	g.mu.Lock()
	defer g.mu.Unlock()
	g.roles[r.ID] = r
}

// RemoveRole drops a role. Members still listing the role id keep the stale
// reference; permission resolution skips it.
func (g *Guild) RemoveRole(id snowflake.ID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.roles, id)
}

// UpsertChannel patches one channel, stamping the guild id.
func (g *Guild) UpsertChannel(c *Channel) {
	c.GuildID = g.ID
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[c.ID] = c
}

// RemoveChannel drops a channel.
func (g *Guild) RemoveChannel(id snowflake.ID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.channels, id)
}

// UpsertEmoji patches one emoji, stamping the guild id.
func (g *Guild) UpsertEmoji(e *Emoji) {
	e.GuildID = g.ID
	g.mu.Lock()
	defer g.mu.Unlock()
	g.emojis[e.ID] = e
}

// RemoveEmoji drops an emoji.
func (g *Guild) RemoveEmoji(id snowflake.ID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.emojis, id)
}

// UpsertVoiceState patches one voice state, keyed by session id.
func (g *Guild) UpsertVoiceState(v *VoiceState) {
	v.GuildID = g.ID
	g.mu.Lock()
	defer g.mu.Unlock()
	g.voiceStates[v.SessionID] = v
}

// RemoveVoiceState drops the voice state for a session.
func (g *Guild) RemoveVoiceState(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.voiceStates, sessionID)
}
