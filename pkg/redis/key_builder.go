package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// KeyPostChannel is the pub/sub channel carrying option events for a post
func (kb *KeyBuilder) KeyPostChannel(postUUID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyPostChannel, postUUID))
}

// KeyFinalizedHandle marks a setup intent handle as already finalized
func (kb *KeyBuilder) KeyFinalizedHandle(handle string) string {
	return kb.BuildKey(fmt.Sprintf(KeyFinalizedHandle, handle))
}
