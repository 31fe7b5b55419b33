// Package relay implements a provider that talks to a per-network bridge
// process over a websocket. Each call is one JSON request answered by one
// JSON response carrying the same id.
package relay

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iksnae/chat-timeline/internal"
)

// Methods understood by a bridge
const (
	MethodAuthenticate      = "authenticate"
	MethodResume            = "resume"
	MethodSync              = "sync"
	MethodListConversations = "list_conversations"
	MethodFetchHistory      = "fetch_history"
	MethodResolveSender     = "resolve_sender"
	MethodDeleteEvent       = "delete_event"
	MethodLogout            = "logout"
)

// Error codes a bridge may return
const (
	CodeAuthFailed     = "auth_failed"
	CodeSessionExpired = "session_expired"
	CodeNotFound       = "not_found"
	CodeUnavailable    = "unavailable"
	CodeTimeout        = "timeout"
)

// Request is a call sent to the bridge
type Request struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the bridge's answer to a Request
type Response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *WireError      `json:"error,omitempty"`
}

// WireError is an error reported by the bridge
type WireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *WireError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap maps bridge codes onto the provider error taxonomy
func (e *WireError) Unwrap() error {
	switch e.Code {
	case CodeAuthFailed:
		return internal.ErrAuthenticationFailed
	case CodeSessionExpired:
		return internal.ErrSessionExpired
	case CodeNotFound:
		return internal.ErrConversationNotFound
	case CodeUnavailable, CodeTimeout:
		return internal.ErrTransientNetwork
	}
	return nil
}

type authenticateParams struct {
	Credentials internal.Credentials `json:"credentials"`
	DataDir     string               `json:"data_dir,omitempty"`
	Passphrase  string               `json:"passphrase"`
}

type authenticateResult struct {
	AccountID   string          `json:"account_id"`
	UserSession json.RawMessage `json:"user_session"`
}

type resumeParams struct {
	AccountID   string          `json:"account_id"`
	UserSession json.RawMessage `json:"user_session"`
	DataDir     string          `json:"data_dir,omitempty"`
	Passphrase  string          `json:"passphrase"`
}

type resumeResult struct {
	// UserSession is set when the bridge refreshed the tokens
	UserSession json.RawMessage `json:"user_session,omitempty"`
}

type syncParams struct {
	Cursor *string `json:"cursor"`
}

type syncResult struct {
	Events    []internal.RawEvent `json:"events"`
	NextToken string              `json:"next_token"`
}

type listResult struct {
	Conversations []internal.ConversationSummary `json:"conversations"`
}

type fetchParams struct {
	ConversationID string  `json:"conversation_id"`
	Before         *string `json:"before"`
	Limit          int     `json:"limit"`
}

type fetchResult struct {
	Events     []internal.RawEvent `json:"events"`
	NextCursor *string             `json:"next_cursor"`
}

type resolveParams struct {
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
}

type deleteParams struct {
	ConversationID string `json:"conversation_id"`
	EventID        string `json:"event_id"`
}

// endpointConfig is stored in ClientSession.Config so a session resumes
// against the bridge it was created with.
type endpointConfig struct {
	URL string `json:"url"`
}

func endpointFrom(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var cfg endpointConfig
	if err := json.Unmarshal(raw, &cfg); err != nil || cfg.URL == "" {
		return "", false
	}
	return cfg.URL, true
}

var errClosed = errors.New("relay connection closed")
