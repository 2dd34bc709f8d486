package topics

const (
	// Odds
	OddsSnapshots = "odds_snapshots"
)
