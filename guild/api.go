package guild

import (
	"context"
	"errors"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
)

var (
	// ErrNotFound reports that a remote lookup found nothing. Lookups that
	// miss the cache and then miss remotely surface it as the absent outcome.
	ErrNotFound = errors.New("not found")

	// ErrUnknownMember reports a permission resolution for a user whose
	// member record was never cached. Callers must resolve the member first.
	ErrUnknownMember = errors.New("member not present in cache")
)

// APIError is an opaque failure returned by the remote API. The core does
// not interpret or retry it.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %s", e.Code)
	}
	return fmt.Sprintf("api error: %s: %s", e.Code, e.Message)
}

// RoleUpdate carries the mutable fields of a role for an update call.
// Permissions travel as the raw bitset integer.
type RoleUpdate struct {
	Name        string `json:"name"`
	Permissions uint64 `json:"permissions"`
	Position    int    `json:"position"`
	Color       int    `json:"color"`
	Hoist       bool   `json:"hoist"`
	Mentionable bool   `json:"mentionable"`
}

// Ban is a single entry of a guild's ban list.
type Ban struct {
	User   User   `json:"user"`
	Reason string `json:"reason,omitempty"`
}

// API is the outbound request surface the guild state depends on. FetchMember
// returns ErrNotFound when the user is not a member; every other failure is
// an *APIError or transport error, surfaced unchanged.
type API interface {
	FetchMember(ctx context.Context, guildID, userID snowflake.ID) (*Member, error)
	CreateRole(ctx context.Context, guildID snowflake.ID) (*Role, error)
	DeleteRole(ctx context.Context, guildID, roleID snowflake.ID) error
	UpdateRole(ctx context.Context, guildID, roleID snowflake.ID, update RoleUpdate) error
	KickMember(ctx context.Context, guildID, userID snowflake.ID) error
	BanMember(ctx context.Context, guildID, userID snowflake.ID, deleteMessageDays int) error
	SetMemberNickname(ctx context.Context, guildID, userID snowflake.ID, nick string) error
	SetMemberRoles(ctx context.Context, guildID, userID snowflake.ID, roleIDs []snowflake.ID) error
	ListBans(ctx context.Context, guildID snowflake.ID) ([]Ban, error)
	DeleteBan(ctx context.Context, guildID, userID snowflake.ID) error
}

// Gateway is the fire-and-forget signal surface toward the event stream.
type Gateway interface {
	RequestMembers(guildID snowflake.ID, query string, limit int) error
}

// Resolver resolves a guild id to its aggregate. Children hold only their
// guild id and look the parent up through a Resolver, never through an
// owning pointer.
type Resolver interface {
	Guild(id snowflake.ID) (*Guild, bool)
}
