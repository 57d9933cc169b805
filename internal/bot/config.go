package bot

// BotConfig carries the bot's own tunables, separate from the domain
// constants that live in internal/spacedrep and internal/session.
type BotConfig struct {
	// AdminUserIDs are Telegram user IDs allowed to run /pool, /reset and
	// /import.
	AdminUserIDs []int64
}

// DefaultConfig returns the default bot configuration.
func DefaultConfig() *BotConfig {
	return &BotConfig{}
}
