package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const cacheVersion = "1.0"

// CacheManager keeps an on-disk YAML index of each account's conversations,
// so the CLI can list them without connecting.
type CacheManager struct {
	cacheDir string
}

// CacheMetadata stores metadata about a cached index
type CacheMetadata struct {
	SessionKey   string    `yaml:"session_key"`
	CacheVersion string    `yaml:"cache_version"`
	CreatedAt    time.Time `yaml:"created_at"`
	UpdatedAt    time.Time `yaml:"updated_at"`
}

// ConversationIndex is the YAML index of one account's conversations
type ConversationIndex struct {
	Conversations []ConversationSummary `yaml:"conversations"`
	Metadata      CacheMetadata         `yaml:"metadata"`
}

// NewCacheManager creates a new cache manager
func NewCacheManager(cacheDir string) *CacheManager {
	return &CacheManager{
		cacheDir: cacheDir,
	}
}

// EnsureCacheDir ensures the cache directory exists
func (cm *CacheManager) EnsureCacheDir() error {
	return os.MkdirAll(cm.cacheDir, 0755)
}

// GetCacheDir returns the cache directory path
func (cm *CacheManager) GetCacheDir() string {
	return cm.cacheDir
}

// GetIndexPath returns the path to the conversation index of a session key
func (cm *CacheManager) GetIndexPath(sessionKey string) string {
	return filepath.Join(cm.cacheDir, fmt.Sprintf("conversations_%s.yaml", safeFileName(sessionKey)))
}

// IsFresh reports whether the index of sessionKey exists and was updated
// within maxAge.
func (cm *CacheManager) IsFresh(sessionKey string, maxAge time.Duration) bool {
	index, err := cm.LoadIndex(sessionKey)
	if err != nil {
		return false
	}
	return time.Since(index.Metadata.UpdatedAt) <= maxAge
}

// LoadIndex loads the conversation index of a session key
func (cm *CacheManager) LoadIndex(sessionKey string) (*ConversationIndex, error) {
	data, err := os.ReadFile(cm.GetIndexPath(sessionKey))
	if err != nil {
		return nil, err
	}

	var index ConversationIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to unmarshal index: %w", err)
	}
	if index.Metadata.SessionKey != "" && index.Metadata.SessionKey != sessionKey {
		return nil, fmt.Errorf("index belongs to %q, not %q", index.Metadata.SessionKey, sessionKey)
	}

	return &index, nil
}

// SaveIndex writes the conversation index of its session key
func (cm *CacheManager) SaveIndex(index *ConversationIndex) error {
	if err := cm.EnsureCacheDir(); err != nil {
		return err
	}

	data, err := yaml.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	path := cm.GetIndexPath(index.Metadata.SessionKey)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// SaveConversations replaces the cached list of a session key, keeping the
// original creation time of the index.
func (cm *CacheManager) SaveConversations(sessionKey string, conversations []ConversationSummary) error {
	now := time.Now()
	index := &ConversationIndex{
		Conversations: conversations,
		Metadata: CacheMetadata{
			SessionKey:   sessionKey,
			CacheVersion: cacheVersion,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}
	if existing, err := cm.LoadIndex(sessionKey); err == nil && !existing.Metadata.CreatedAt.IsZero() {
		index.Metadata.CreatedAt = existing.Metadata.CreatedAt
	}
	if index.Conversations == nil {
		index.Conversations = []ConversationSummary{}
	}
	return cm.SaveIndex(index)
}

// LoadConversations returns the cached list of a session key and when it was
// written.
func (cm *CacheManager) LoadConversations(sessionKey string) ([]ConversationSummary, time.Time, error) {
	index, err := cm.LoadIndex(sessionKey)
	if err != nil {
		return nil, time.Time{}, err
	}
	if index.Metadata.CacheVersion != cacheVersion {
		return nil, time.Time{}, fmt.Errorf("unsupported cache version %q", index.Metadata.CacheVersion)
	}
	return index.Conversations, index.Metadata.UpdatedAt, nil
}

// ClearCache removes the index of a session key
func (cm *CacheManager) ClearCache(sessionKey string) error {
	if err := os.Remove(cm.GetIndexPath(sessionKey)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ClearAll removes every conversation index in the cache directory
func (cm *CacheManager) ClearAll() error {
	matches, err := filepath.Glob(filepath.Join(cm.cacheDir, "conversations_*.yaml"))
	if err != nil {
		return err
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// safeFileName replaces characters that are not portable in file names.
// Account ids such as "@alice:example.org" keep their shape.
func safeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}
