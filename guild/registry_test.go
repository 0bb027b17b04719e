package guild_test

import (
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HarmonyChat/Cadence/guild"
)

func TestRegistryReplaceAndGet(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)
	g := guild.New(testSnapshot())
	reg.Replace(g)

	got, ok := reg.Guild(g.ID)
	require.True(t, ok)
	assert.Same(t, g, got)
	assert.Equal(t, 1, reg.Count())
}

func TestRegistryWholesaleReplacement(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)

	old := guild.New(testSnapshot())
	reg.Replace(old)

	// A new snapshot for the same id swaps the whole aggregate; the old
	// one keeps serving in-flight references unchanged.
	s := testSnapshot()
	s.Name = "renamed"
	s.Members = s.Members[:1]
	fresh := guild.New(s)
	reg.Replace(fresh)

	got, ok := reg.Guild(old.ID)
	require.True(t, ok)
	assert.Same(t, fresh, got)
	assert.Equal(t, "renamed", got.Name)

	_, ok = got.CachedMember(snowflake.ID(3))
	assert.False(t, ok)
	_, ok = old.CachedMember(snowflake.ID(3))
	assert.True(t, ok)
}

func TestRegistryRemove(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t, guild.New(testSnapshot()))
	reg.Remove(snowflake.ID(1))

	_, ok := reg.Guild(snowflake.ID(1))
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Count())

	// Removing an unknown id is a no-op.
	reg.Remove(snowflake.ID(404))
}

func TestRegistryAll(t *testing.T) {
	t.Parallel()

	a := guild.New(testSnapshot())
	s := testSnapshot()
	s.ID = snowflake.ID(2)
	b := guild.New(s)

	reg := testRegistry(t, a, b)
	assert.Len(t, reg.All(), 2)
}
