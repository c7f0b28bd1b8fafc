package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a user's login session (JTI).
func (r *CacheKeyStruct) UserSessionKey(userID string) string {
	return fmt.Sprintf("login:%s", userID)
}

// SectionStartKey returns the cache key for a tryout attempt's active
// section start timestamp.
func (r *CacheKeyStruct) SectionStartKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:section_start", attemptID)
}

// SectionIndexKey returns the cache key for a tryout attempt's active
// section index.
func (r *CacheKeyStruct) SectionIndexKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:section_index", attemptID)
}

// AttemptResultsKey returns the cache key for a completed attempt's results.
func (r *CacheKeyStruct) AttemptResultsKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:results", attemptID)
}

// ImportDedupKey returns the cache key the queue uses for provider-side
// deduplication of a dispatched job.
func (r *CacheKeyStruct) ImportDedupKey(dedupID string) string {
	return fmt.Sprintf("queue:dedup:%s", dedupID)
}

// JobLockKey returns the cache key a worker holds while processing a
// queued message.
func (r *CacheKeyStruct) JobLockKey(messageID string) string {
	return fmt.Sprintf("queue:lock:%s", messageID)
}

var CacheKey = NewCacheKeyStruct()
