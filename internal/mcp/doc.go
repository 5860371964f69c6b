// Package mcp implements the MCP (Model Context Protocol) client used to
// reach the hosted search endpoint.
//
// The endpoint speaks JSON-RPC 2.0 over HTTPS POST. Depending on
// server-side buffering it answers with either a single JSON document or
// a text/event-stream body, so the transport returns the raw body and a
// two-stage decoder selects the representation: strict JSON first, then
// SSE data-line recovery. Tool results are reduced to plain text by
// keeping text content items and discarding the rest.
//
// This implementation covers the client side only and performs no
// handshake: the hosted endpoint is stateless per call and requires no
// authentication.
package mcp
