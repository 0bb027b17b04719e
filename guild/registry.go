package guild

import (
	"github.com/disgoorg/snowflake/v2"
	"github.com/puzpuzpuz/xsync"
	"go.uber.org/zap"
)

// Registry holds every guild currently mirrored from the remote service,
// keyed by guild id. Full snapshots replace the aggregate wholesale; deltas
// patch the existing aggregate in place through its upsert/remove methods.
type Registry struct {
	guilds *xsync.MapOf[string, *Guild]
	logger *zap.Logger
}

var _ Resolver = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		guilds: xsync.NewMapOf[*Guild](),
		logger: logger,
	}
}

// Replace swaps in a freshly constructed aggregate, discarding any previous
// aggregate for the same id. In-flight references to the old aggregate's
// children keep reading the old snapshot.
func (r *Registry) Replace(g *Guild) {
	r.guilds.Store(g.ID.String(), g)
	r.logger.Debug("Replaced guild",
		zap.String("guild_id", g.ID.String()),
		zap.String("name", g.Name))
}

// Guild resolves a guild by id.
func (r *Registry) Guild(id snowflake.ID) (*Guild, bool) {
	return r.guilds.Load(id.String())
}

// Remove drops a guild from the registry.
func (r *Registry) Remove(id snowflake.ID) {
	if _, ok := r.guilds.LoadAndDelete(id.String()); ok {
		r.logger.Debug("Removed guild", zap.String("guild_id", id.String()))
	}
}

// Count returns the number of mirrored guilds.
func (r *Registry) Count() int {
	n := 0
	r.guilds.Range(func(string, *Guild) bool {
		n++
		return true
	})
	return n
}

// All returns a copy of the guild list.
func (r *Registry) All() []*Guild {
	out := make([]*Guild, 0)
	r.guilds.Range(func(_ string, g *Guild) bool {
		out = append(out, g)
		return true
	})
	return out
}
