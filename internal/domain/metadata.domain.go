package domain

import "time"

// Metadata keys.
const (
	MetaLastRefreshedAt = "last_refreshed_at"
)

// MetaTimeLayout is how timestamps are stored in the metadata table.
const MetaTimeLayout = time.RFC3339Nano
