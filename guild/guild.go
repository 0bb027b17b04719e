package guild

import (
	"context"
	"errors"
	"fmt"

	"github.com/disgoorg/snowflake/v2"

	"github.com/HarmonyChat/Cadence/metrics"
	"github.com/HarmonyChat/Cadence/permissions"
)

// Member resolves a member by user id, fetching it from the remote API on a
// cache miss. A successful fetch is memoized; a failed fetch caches nothing,
// so a retried call is free to fetch again. Two concurrent misses for the
// same id may both fetch; the last insert wins.
func (g *Guild) Member(ctx context.Context, client API, userID snowflake.ID) (*Member, error) {
	if m, ok := g.CachedMember(userID); ok {
		metrics.MemberLookups.WithLabelValues("hit").Inc()
		return m, nil
	}
	metrics.MemberLookups.WithLabelValues("miss").Inc()

	m, err := client.FetchMember(ctx, g.ID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.MemberLookups.WithLabelValues("absent").Inc()
			return nil, fmt.Errorf("member %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("fetch member %s: %w", userID, err)
	}

	metrics.MemberLookups.WithLabelValues("fetched").Inc()
	g.UpsertMember(m)
	return m, nil
}

// Permissions computes the effective permission bitset for a user: the
// owner holds the administrator value outright; everyone else accumulates
// the everyone-role base plus each of their roles' grants. Role ids that no
// longer resolve are skipped. The member must already be cached; this does
// not fetch, and an unknown member is a caller error, not zero permissions.
func (g *Guild) Permissions(userID snowflake.ID) (permissions.Value, error) {
	if g.OwnerID == userID {
		return permissions.Administrator, nil
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	m, ok := g.members[userID]
	if !ok {
		return 0, fmt.Errorf("permissions for %s: %w", userID, ErrUnknownMember)
	}

	var value permissions.Value
	if everyone, ok := g.roles[g.ID]; ok {
		value = everyone.Permissions
	}
	for _, id := range m.Roles {
		if role, ok := g.roles[id]; ok {
			value = value.Add(role.Permissions)
		}
	}
	return value, nil
}

// CreateRole asks the remote API for a fresh role. The local role map is
// untouched; the event stream delivers the resulting role delta.
func (g *Guild) CreateRole(ctx context.Context, client API) (*Role, error) {
	return client.CreateRole(ctx, g.ID)
}

// DeleteRole dispatches a role deletion.
func (g *Guild) DeleteRole(ctx context.Context, client API, roleID snowflake.ID) error {
	return client.DeleteRole(ctx, g.ID, roleID)
}

// UpdateRole pushes a role's mutable fields to the remote API.
func (g *Guild) UpdateRole(ctx context.Context, client API, r *Role) error {
	return client.UpdateRole(ctx, g.ID, r.ID, RoleUpdate{
		Name:        r.Name,
		Permissions: r.Permissions.Raw(),
		Position:    r.Position,
		Color:       r.Color,
		Hoist:       r.Hoist,
		Mentionable: r.Mentionable,
	})
}

// Bans lists the guild's bans.
func (g *Guild) Bans(ctx context.Context, client API) ([]Ban, error) {
	return client.ListBans(ctx, g.ID)
}

// CreateBan bans a user, deleting their messages from the last
// deleteMessageDays days.
func (g *Guild) CreateBan(ctx context.Context, client API, userID snowflake.ID, deleteMessageDays int) error {
	return client.BanMember(ctx, g.ID, userID, deleteMessageDays)
}

// DeleteBan lifts a ban.
func (g *Guild) DeleteBan(ctx context.Context, client API, userID snowflake.ID) error {
	return client.DeleteBan(ctx, g.ID, userID)
}

// Sync requests the full member list once per aggregate instance. Later
// calls are no-ops, even racing ones; the synced flag flips with a single
// compare-and-swap.
func (g *Guild) Sync(gw Gateway) error {
	if !g.synced.CompareAndSwap(false, true) {
		return nil
	}
	return gw.RequestMembers(g.ID, "", 0)
}

// Synced reports whether the full member list was already requested.
func (g *Guild) Synced() bool {
	return g.synced.Load()
}
