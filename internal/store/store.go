package store

import (
	"context"
	"time"
)

// Keys held in the durable preference store. Values are strings; booleans
// are stored as "true"/"false".
const (
	KeyLastUsedProvider = "lastUsedProvider"
	KeyLastUsedModel    = "lastUsedModel"
	KeyShowTimestamp    = "show_timestamp"
	KeyUseStreaming     = "use_streaming"
	KeyModelPresets     = "model_presets" // JSON array of model names
)

// KeyTranslatorTabID lives in the session-scoped store only: set when the
// translator tab is created, cleared when that tab closes.
const KeyTranslatorTabID = "translatorTabId"

// Store is a narrow string key-value interface over the preference
// storage. Get returns "" without error for absent keys.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, key string) error
}

// Cache adds TTL-bounded JSON storage, used for transcript caching.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}
