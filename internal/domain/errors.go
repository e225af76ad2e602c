package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingStartNode = errors.New("workflow has no start node")
	// Error text is part of the builder contract and surfaced verbatim.
	ErrNoToolSelected   = errors.New("No tool selected")
	ErrToolNotFound     = errors.New("tool not found")
	ErrStepBudget       = errors.New("step budget exceeded")
	ErrRunTimeout       = errors.New("workflow execution timed out")
	ErrUnknownNodeType  = errors.New("no handler registered for node type")
	ErrLedgerClosed     = errors.New("ledger is closed")
	ErrLedgerNotFound   = errors.New("ledger record not found")
)

// ValidationError reports a malformed request or definition. Never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ConcurrencyError is the fail-fast rejection of a second run for a
// (agentID, userID) key that already has one in flight.
type ConcurrencyError struct {
	AgentID string
	UserID  string
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("execution already in progress for agent %s and user %s", e.AgentID, e.UserID)
}

func NewConcurrencyError(agentID, userID string) *ConcurrencyError {
	return &ConcurrencyError{AgentID: agentID, UserID: userID}
}

func IsConcurrencyError(err error) bool {
	var ce *ConcurrencyError
	return errors.As(err, &ce)
}

// CredentialError reports a missing active key for a provider.
type CredentialError struct {
	Provider Provider
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("no active credential for provider %s", e.Provider)
}

func NewCredentialError(provider Provider) *CredentialError {
	return &CredentialError{Provider: provider}
}

func IsCredentialError(err error) bool {
	var ce *CredentialError
	return errors.As(err, &ce)
}

// AccessDeniedError reports a tool that is neither built-in nor owned by
// the requesting user.
type AccessDeniedError struct {
	ToolID string
	UserID string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied to tool %s for user %s", e.ToolID, e.UserID)
}

func NewAccessDeniedError(toolID, userID string) *AccessDeniedError {
	return &AccessDeniedError{ToolID: toolID, UserID: userID}
}

func IsAccessDenied(err error) bool {
	var ae *AccessDeniedError
	return errors.As(err, &ae)
}

// RateLimitError reports a per-user quota violation. The check runs before
// any HTTP call is issued, so it is never retried at the transport layer.
type RateLimitError struct {
	Key           string
	Limit         int
	WindowSeconds int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: %d requests per %d seconds", e.Key, e.Limit, e.WindowSeconds)
}

func NewRateLimitError(key string, limit, windowSeconds int) *RateLimitError {
	return &RateLimitError{Key: key, Limit: limit, WindowSeconds: windowSeconds}
}

func IsRateLimitError(err error) bool {
	var re *RateLimitError
	return errors.As(err, &re)
}

// NodeExecutionError wraps any handler failure with the node it came from.
type NodeExecutionError struct {
	NodeID   string
	NodeType NodeType
	Err      error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %s (%s): %v", e.NodeID, e.NodeType, e.Err)
}

func (e *NodeExecutionError) Unwrap() error {
	return e.Err
}

func NewNodeExecutionError(nodeID string, nodeType NodeType, err error) *NodeExecutionError {
	return &NodeExecutionError{NodeID: nodeID, NodeType: nodeType, Err: err}
}

func IsNodeExecutionError(err error) bool {
	var ne *NodeExecutionError
	return errors.As(err, &ne)
}

// HTTPError is the transport-level failure shape. Status 0 marks a
// low-level network failure, 408 a cancelled or timed-out request.
type HTTPError struct {
	Status     int
	StatusText string
	URL        string
	Response   interface{}
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("network error requesting %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("http %d %s requesting %s", e.Status, e.StatusText, e.URL)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func IsHTTPError(err error) bool {
	var he *HTTPError
	return errors.As(err, &he)
}

// HTTPStatus extracts the status code of a wrapped HTTPError, or -1.
func HTTPStatus(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	return -1
}
