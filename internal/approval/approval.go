// Package approval mediates between a proposed tool action and user or
// automatic consent. Asking is an asynchronous suspension point: only the
// requesting handler blocks, never the whole task loop.
package approval

import (
	"crypto/sha256"
	"fmt"
)

// Kind classifies what is being approved.
type Kind string

const (
	KindTool    Kind = "tool"
	KindCommand Kind = "command"
	KindDiff    Kind = "diff"
	KindMode    Kind = "mode"
)

// Level is the configured policy for a tool.
type Level string

const (
	// LevelAllow approves without asking.
	LevelAllow Level = "allow"
	// LevelAsk suspends on the responder.
	LevelAsk Level = "ask"
	// LevelDeny rejects without asking.
	LevelDeny Level = "deny"
)

// Request is one pending approval.
type Request struct {
	Kind    Kind
	Tool    string
	Payload string // structured summary of the pending action, JSON or text
	Partial bool   // streaming preview, must not suspend

	// CacheKey is the full content identifying the action for session
	// decisions. Payload may truncate for display; this must not.
	// Empty falls back to Payload.
	CacheKey string
}

// Decision is the responder's answer.
type Decision int

const (
	DecisionDeny Decision = iota
	DecisionApprove
	// DecisionApproveSession approves this and future identical requests.
	DecisionApproveSession
	// DecisionDenySession denies this and future identical requests.
	DecisionDenySession
)

// Approved reports whether the decision lets the action proceed.
func (d Decision) Approved() bool {
	return d == DecisionApprove || d == DecisionApproveSession
}

// cacheKey identifies "for the session" decisions. Command approvals are
// keyed by content hash so different commands are decided separately.
func cacheKey(req *Request) string {
	if req.Kind == KindCommand {
		content := req.CacheKey
		if content == "" {
			content = req.Payload
		}
		sum := sha256.Sum256([]byte(content))
		return fmt.Sprintf("%s:%x", req.Tool, sum[:8])
	}
	return req.Tool
}
