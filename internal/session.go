package internal

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"
)

const (
	passphraseLength = 32
	dataDirLength    = 7
	alphanumeric     = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// ClientSession is the locally generated part of a session: the provider's
// connection config plus the storage passphrase and data directory.
type ClientSession struct {
	Passphrase string          `json:"passphrase"`
	DataDir    string          `json:"data_dir,omitempty"`
	Config     json.RawMessage `json:"config,omitempty"`
}

// Session is the authenticated state of one provider account
type Session struct {
	ProviderKind string
	AccountID    string
	Client       ClientSession
	User         json.RawMessage // provider auth tokens, opaque to the engine
	SyncToken    *string
}

// persistedSession is the on-disk layout of a session value
type persistedSession struct {
	ClientSession ClientSession   `json:"client_session"`
	UserSession   json.RawMessage `json:"user_session"`
	SyncToken     *string         `json:"sync_token"`
}

// Key returns the storage key "{provider_kind}-{account_id}".
func (s *Session) Key() string {
	return SessionKey(s.ProviderKind, s.AccountID)
}

// SessionKey builds a storage key from its parts.
func SessionKey(kind, accountID string) string {
	return kind + "-" + accountID
}

// ParseSessionKey splits a storage key at the first "-". Provider kinds never
// contain a dash; account ids may.
func ParseSessionKey(key string) (kind, accountID string, err error) {
	kind, accountID, ok := strings.Cut(key, "-")
	if !ok || kind == "" || accountID == "" {
		return "", "", fmt.Errorf("invalid session key format: %q", key)
	}
	return kind, accountID, nil
}

// MarshalSession encodes a session in the persisted layout.
func MarshalSession(s *Session) ([]byte, error) {
	user := s.User
	if len(user) == 0 {
		user = json.RawMessage("null")
	}
	data, err := json.Marshal(persistedSession{
		ClientSession: s.Client,
		UserSession:   user,
		SyncToken:     s.SyncToken,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return data, nil
}

// UnmarshalSession decodes a persisted session stored under key.
func UnmarshalSession(key string, data []byte) (*Session, error) {
	kind, accountID, err := ParseSessionKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStoredSession, err)
	}

	var ps persistedSession
	if err := json.Unmarshal(data, &ps); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStoredSession, err)
	}
	if ps.ClientSession.Passphrase == "" {
		return nil, fmt.Errorf("%w: missing passphrase", ErrMalformedStoredSession)
	}

	return &Session{
		ProviderKind: kind,
		AccountID:    accountID,
		Client:       ps.ClientSession,
		User:         ps.UserSession,
		SyncToken:    ps.SyncToken,
	}, nil
}

// NewClientSession generates a fresh passphrase and a random data directory
// under dataRoot. An empty dataRoot leaves DataDir unset.
func NewClientSession(dataRoot string, config json.RawMessage) (ClientSession, error) {
	passphrase, err := randomString(passphraseLength)
	if err != nil {
		return ClientSession{}, err
	}

	cs := ClientSession{Passphrase: passphrase, Config: config}
	if dataRoot != "" {
		sub, err := randomString(dataDirLength)
		if err != nil {
			return ClientSession{}, err
		}
		cs.DataDir = filepath.Join(dataRoot, sub)
	}
	return cs, nil
}

func randomString(n int) (string, error) {
	max := big.NewInt(int64(len(alphanumeric)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random string: %w", err)
		}
		b[i] = alphanumeric[idx.Int64()]
	}
	return string(b), nil
}

func stringPtr(s string) *string {
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
