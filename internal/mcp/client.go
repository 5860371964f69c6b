package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
)

// ToolDefinition is a remote tool as returned by tools/list.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ContentItem is a single typed fragment in a tools/call result. Only
// items with type "text" carry meaning for this client.
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// callToolResult is the result payload of a tools/call response.
// Content stays nil when the field is absent, which is distinct from a
// present-but-empty list: the former is a malformed response, the latter
// a valid zero-hit result.
type callToolResult struct {
	Content []ContentItem `json:"content"`
}

// toolsListResult is the result payload of a tools/list response.
type toolsListResult struct {
	Tools []ToolDefinition `json:"tools"`
}

// Client provides typed access to the endpoint's protocol operations
// (tools/list, tools/call). Each call is an independent request/response
// exchange; the only state shared across concurrent calls is the id
// counter, which exists for protocol conformance, never for response
// demultiplexing.
type Client struct {
	transport Transport
	logger    *slog.Logger
	nextID    atomic.Int64
}

// NewClient creates a client over the given transport.
func NewClient(transport Transport, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		transport: transport,
		logger:    logger,
	}
}

// CallTool invokes a remote tool by name with the given arguments and
// returns the result's text content. Non-text content items are dropped
// without error; surviving text items are joined with one blank line in
// their original order. The first failure along the way (transport,
// decode, protocol error, or missing content) is returned as-is, never
// retried.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	params := map[string]any{
		"name":      name,
		"arguments": args,
	}

	resp, err := c.call(ctx, "tools/call", params)
	if err != nil {
		return "", err
	}

	var result callToolResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return "", fmt.Errorf("unmarshal tools/call result: %w", err)
	}

	if result.Content == nil {
		return "", ErrNoContent
	}

	return joinText(result.Content), nil
}

// ListTools calls tools/list and returns the remote tool descriptors.
func (c *Client) ListTools(ctx context.Context) ([]ToolDefinition, error) {
	resp, err := c.call(ctx, "tools/list", nil)
	if err != nil {
		return nil, err
	}

	var result toolsListResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("unmarshal tools/list result: %w", err)
	}

	return result.Tools, nil
}

// call sends one JSON-RPC request through the full pipeline: envelope,
// transport, decode, protocol-error check. Ids from the atomic counter
// are unique and strictly increasing for the lifetime of this client.
func (c *Client) call(ctx context.Context, method string, params any) (*Response, error) {
	id := c.nextID.Add(1)
	req := NewRequest(id, method, params)

	raw, err := c.transport.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, mode, err := DecodeBody(raw)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("decoded response",
		"method", method,
		"id", id,
		"mode", mode.String(),
	)

	if resp.Error != nil {
		return nil, resp.Error
	}

	if len(resp.Result) == 0 {
		return nil, ErrNoContent
	}

	return resp, nil
}

// joinText keeps the text items and joins their text fields with a
// blank line. An empty surviving list yields an empty string.
func joinText(items []ContentItem) string {
	var parts []string
	for _, item := range items {
		if item.Type == "text" {
			parts = append(parts, item.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}
