package schema

// DefaultHistoryLimit caps how many prior messages accompany a prompt.
const DefaultHistoryLimit = 20

// DefaultCreditsPerTurn is charged against the session for each completed turn.
const DefaultCreditsPerTurn = 1

// ServiceConfig controls core service behavior.
type ServiceConfig struct {
	DefaultModel   ModelID
	HistoryLimit   int
	CreditsPerTurn int
}

// NormalizeServiceConfig applies defaults to unset fields.
func NormalizeServiceConfig(cfg ServiceConfig) ServiceConfig {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.CreditsPerTurn <= 0 {
		cfg.CreditsPerTurn = DefaultCreditsPerTurn
	}
	return cfg
}
