package app

import (
	"go.uber.org/zap"

	"github.com/HarmonyChat/Cadence/guild"
	"github.com/HarmonyChat/Cadence/utils"
)

// Cadence bundles the shared collaborators the handlers work against.
type Cadence struct {
	Guilds  *guild.Registry
	API     guild.API
	Gateway guild.Gateway
	Prefix  string
	Logger  *zap.Logger
}

// Subject applies the environment subject prefix.
func (c *Cadence) Subject(subject string) string {
	return utils.EnsurePrefixed(c.Prefix, subject)
}
