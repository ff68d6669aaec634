package llm

import (
	"context"
	"errors"
)

// Role of a chat message author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

var ErrUnknownProvider = errors.New("unknown provider")

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request describes a chat completion.
type Request struct {
	Model       string
	System      string
	Messages    []Message
	Temperature float64
}

// Response is the outcome of a finished stream.
type Response struct {
	Text         string
	Model        string
	FinishReason string
}

// SnapshotFunc receives the full text produced so far. Calls are serial.
// Returning an error aborts the stream.
type SnapshotFunc func(snapshot string) error

// Client is a minimal streaming LLM interface to allow pluggable providers.
type Client interface {
	Stream(ctx context.Context, req Request, onSnapshot SnapshotFunc) (Response, error)
	Models(ctx context.Context) ([]string, error)
}
