package remote_test

import (
	"context"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/snowflake/v2"
	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HarmonyChat/Cadence/guild"
	"github.com/HarmonyChat/Cadence/remote"
)

type reply struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func setupTest(t *testing.T) (*nats.Conn, *remote.Client) {
	t.Helper()

	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	srv := natsserver.RunServer(&opts)
	t.Cleanup(srv.Shutdown)

	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	client := remote.NewClient(nc, "", 2*time.Second, zap.NewNop())
	return nc, client
}

// respondWith installs a responder that answers every request on the subject
// with the given envelope and captures request payloads.
func respondWith(t *testing.T, nc *nats.Conn, subject string, r reply) <-chan []byte {
	t.Helper()

	captured := make(chan []byte, 8)
	_, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		captured <- msg.Data
		data, err := sonic.Marshal(r)
		require.NoError(t, err)
		require.NoError(t, msg.Respond(data))
	})
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	return captured
}

func TestFetchMember(t *testing.T) {
	t.Parallel()

	nc, client := setupTest(t)
	respondWith(t, nc, "api.guilds.members.get", reply{
		Success: true,
		Data: &guild.Member{
			User: guild.User{ID: snowflake.ID(42), Username: "latecomer"},
			Nick: "late",
		},
	})

	m, err := client.FetchMember(context.Background(), snowflake.ID(1), snowflake.ID(42))
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(42), m.ID())
	assert.Equal(t, "late", m.Nick)
}

func TestFetchMemberNotFound(t *testing.T) {
	t.Parallel()

	nc, client := setupTest(t)
	respondWith(t, nc, "api.guilds.members.get", reply{
		Success: false,
		Error:   "ERR_UNKNOWN_MEMBER",
	})

	_, err := client.FetchMember(context.Background(), snowflake.ID(1), snowflake.ID(42))
	require.ErrorIs(t, err, guild.ErrNotFound)
}

func TestRemoteFailureSurfacesAsAPIError(t *testing.T) {
	t.Parallel()

	nc, client := setupTest(t)
	respondWith(t, nc, "api.guilds.members.kick", reply{
		Success: false,
		Error:   "ERR_MISSING_PERMISSIONS",
		Message: "kick_members required",
	})

	err := client.KickMember(context.Background(), snowflake.ID(1), snowflake.ID(42))
	require.Error(t, err)

	var apiErr *guild.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "ERR_MISSING_PERMISSIONS", apiErr.Code)
	assert.Contains(t, apiErr.Error(), "kick_members required")
}

func TestSetMemberRolesPayload(t *testing.T) {
	t.Parallel()

	nc, client := setupTest(t)
	captured := respondWith(t, nc, "api.guilds.members.roles", reply{Success: true})

	roleIDs := []snowflake.ID{snowflake.ID(5), snowflake.ID(5), snowflake.ID(7)}
	err := client.SetMemberRoles(context.Background(), snowflake.ID(1), snowflake.ID(3), roleIDs)
	require.NoError(t, err)

	var sent struct {
		GuildID snowflake.ID   `json:"guild_id"`
		UserID  snowflake.ID   `json:"user_id"`
		Roles   []snowflake.ID `json:"roles"`
	}
	require.NoError(t, sonic.Unmarshal(<-captured, &sent))
	assert.Equal(t, snowflake.ID(1), sent.GuildID)
	assert.Equal(t, snowflake.ID(3), sent.UserID)

	// Duplicate ids and ordering survive the wire untouched.
	assert.Equal(t, roleIDs, sent.Roles)
}

func TestUpdateRolePayload(t *testing.T) {
	t.Parallel()

	nc, client := setupTest(t)
	captured := respondWith(t, nc, "api.guilds.roles.update", reply{Success: true})

	err := client.UpdateRole(context.Background(), snowflake.ID(1), snowflake.ID(5), guild.RoleUpdate{
		Name:        "writer",
		Permissions: 0x800,
		Position:    2,
		Color:       0x336699,
		Hoist:       true,
		Mentionable: true,
	})
	require.NoError(t, err)

	var sent map[string]any
	require.NoError(t, sonic.Unmarshal(<-captured, &sent))
	assert.Equal(t, "writer", sent["name"])
	assert.Equal(t, float64(0x800), sent["permissions"])
	assert.Equal(t, true, sent["hoist"])
}

func TestListBans(t *testing.T) {
	t.Parallel()

	nc, client := setupTest(t)
	respondWith(t, nc, "api.guilds.bans.list", reply{
		Success: true,
		Data: []guild.Ban{
			{User: guild.User{ID: snowflake.ID(66)}, Reason: "spam"},
		},
	})

	bans, err := client.ListBans(context.Background(), snowflake.ID(1))
	require.NoError(t, err)
	require.Len(t, bans, 1)
	assert.Equal(t, "spam", bans[0].Reason)
}

func TestRequestTimeout(t *testing.T) {
	t.Parallel()

	nc, client := setupTest(t)
	_ = nc // no responder installed

	short, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.FetchMember(short, snowflake.ID(1), snowflake.ID(42))
	require.Error(t, err)
}

func TestGatewayRequestMembers(t *testing.T) {
	t.Parallel()

	nc, _ := setupTest(t)
	gw := remote.NewGateway(nc, "", zap.NewNop())

	received := make(chan remote.MembersRequestPacket, 1)
	_, err := nc.Subscribe("guilds.members.request", func(msg *nats.Msg) {
		var packet remote.MembersRequestPacket
		if sonic.Unmarshal(msg.Data, &packet) == nil {
			received <- packet
		}
	})
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	require.NoError(t, gw.RequestMembers(snowflake.ID(1), "", 0))

	select {
	case packet := <-received:
		assert.Equal(t, snowflake.ID(1), packet.GuildID)
		assert.Equal(t, "", packet.Query)
		assert.Equal(t, 0, packet.Limit)
	case <-time.After(2 * time.Second):
		t.Fatal("no members request received")
	}
}
