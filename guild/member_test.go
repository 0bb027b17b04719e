package guild_test

import (
	"context"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HarmonyChat/Cadence/guild"
)

func testRegistry(t *testing.T, guilds ...*guild.Guild) *guild.Registry {
	t.Helper()
	reg := guild.NewRegistry(zap.NewNop())
	for _, g := range guilds {
		reg.Replace(g)
	}
	return reg
}

func TestMemberID(t *testing.T) {
	t.Parallel()

	m := &guild.Member{User: guild.User{ID: snowflake.ID(3)}}
	assert.Equal(t, snowflake.ID(3), m.ID())
}

func TestMemberMention(t *testing.T) {
	t.Parallel()

	m := &guild.Member{User: guild.User{ID: snowflake.ID(3)}}
	assert.Equal(t, "<@3>", m.Mention())

	m.Nick = "quill"
	assert.Equal(t, "<@!3>", m.Mention())
}

func TestMemberOwner(t *testing.T) {
	t.Parallel()

	g := guild.New(testSnapshot())
	reg := testRegistry(t, g)

	owner, ok := g.CachedMember(snowflake.ID(9))
	require.True(t, ok)
	assert.True(t, owner.Owner(reg))

	other, ok := g.CachedMember(snowflake.ID(3))
	require.True(t, ok)
	assert.False(t, other.Owner(reg))
}

func TestMemberVoiceState(t *testing.T) {
	t.Parallel()

	g := guild.New(testSnapshot())
	reg := testRegistry(t, g)

	m, ok := g.CachedMember(snowflake.ID(3))
	require.True(t, ok)

	v, ok := m.VoiceState(reg)
	require.True(t, ok)
	assert.Equal(t, snowflake.ID(21), v.ChannelID)

	owner, _ := g.CachedMember(snowflake.ID(9))
	_, ok = owner.VoiceState(reg)
	assert.False(t, ok)
}

func TestMemberKickAndBan(t *testing.T) {
	t.Parallel()

	g := guild.New(testSnapshot())
	api := newFakeAPI()
	ctx := context.Background()

	m, _ := g.CachedMember(snowflake.ID(3))
	require.NoError(t, m.Kick(ctx, api))
	assert.Equal(t, []snowflake.ID{snowflake.ID(3)}, api.kicked)

	require.NoError(t, m.Ban(ctx, api, 3))
	assert.Equal(t, 3, api.banned[snowflake.ID(3)])
}

func TestMemberSetNickname(t *testing.T) {
	t.Parallel()

	g := guild.New(testSnapshot())
	api := newFakeAPI()
	ctx := context.Background()

	m, _ := g.CachedMember(snowflake.ID(3))
	require.NoError(t, m.SetNickname(ctx, api, "quill"))
	assert.Equal(t, "quill", api.nicknames[snowflake.ID(3)])

	// Empty value clears the nickname.
	require.NoError(t, m.SetNickname(ctx, api, ""))
	assert.Equal(t, "", api.nicknames[snowflake.ID(3)])
}

func TestMemberAddRoleSendsFullList(t *testing.T) {
	t.Parallel()

	g := guild.New(testSnapshot())
	api := newFakeAPI()
	ctx := context.Background()

	m, _ := g.CachedMember(snowflake.ID(3))
	require.NoError(t, m.AddRole(ctx, api, snowflake.ID(7)))
	assert.Equal(t, []snowflake.ID{snowflake.ID(5), snowflake.ID(7)}, api.roleLists[snowflake.ID(3)])

	// The local list is untouched until the event stream delivers the change.
	assert.Equal(t, []snowflake.ID{snowflake.ID(5)}, m.Roles)
}

func TestMemberAddRolePermitsDuplicates(t *testing.T) {
	t.Parallel()

	g := guild.New(testSnapshot())
	api := newFakeAPI()
	ctx := context.Background()

	m, _ := g.CachedMember(snowflake.ID(3))
	require.NoError(t, m.AddRole(ctx, api, snowflake.ID(5)))
	assert.Equal(t, []snowflake.ID{snowflake.ID(5), snowflake.ID(5)}, api.roleLists[snowflake.ID(3)])
}

func TestRoleMentionAndDispatch(t *testing.T) {
	t.Parallel()

	g := guild.New(testSnapshot())
	api := newFakeAPI()
	ctx := context.Background()

	r, ok := g.Role(snowflake.ID(5))
	require.True(t, ok)
	assert.Equal(t, "<@&5>", r.Mention())

	require.NoError(t, r.Delete(ctx, api))
	assert.Equal(t, []snowflake.ID{snowflake.ID(5)}, api.deleted)

	r.Name = "scrivener"
	require.NoError(t, r.Save(ctx, api))
	assert.Equal(t, "scrivener", api.roleUpdates[snowflake.ID(5)].Name)
}

func TestUserAndChannelMentions(t *testing.T) {
	t.Parallel()

	u := guild.User{ID: snowflake.ID(9)}
	assert.Equal(t, "<@9>", u.Mention())

	c := &guild.Channel{ID: snowflake.ID(20)}
	assert.Equal(t, "<#20>", c.Mention())
}
