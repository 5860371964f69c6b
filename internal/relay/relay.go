// Package relay registers the hosted search tools on a local tool
// registry. Each local tool is a thin adapter: it maps its arguments
// onto one of the endpoint's remote tools, invokes it through the MCP
// client, and forwards the resulting text unchanged. Any failure from
// the client is flattened here, and only here, into a uniform
// "Error: <message>" text payload, so hosts that match on response text
// ("No data:", "No content", "timed out", an HTTP status, an RPC code)
// keep working.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/searchrelay/searchrelay/internal/journal"
	"github.com/searchrelay/searchrelay/internal/mcp"
	"github.com/searchrelay/searchrelay/internal/tools"
)

// AllowedRemoteTools is the fixed allowlist of remote tool identifiers
// advertised to the endpoint in the request URL.
var AllowedRemoteTools = []string{
	"web_search",
	"news_search",
	"image_search",
	"video_search",
	"scholar_search",
}

// adapter declares one local tool: its registry schema, the remote tool
// it targets, and the argument mapping between the two. Adapters do no
// validation of domain arguments; the remote server owns that.
type adapter struct {
	name        string
	description string
	params      map[string]any
	remote      string
	mapArgs     func(args map[string]any) map[string]any
}

// queryParam is the one property every adapter shares.
var queryParam = map[string]any{
	"type":        "string",
	"description": "The search query",
}

// countParam limits the number of results.
var countParam = map[string]any{
	"type":        "integer",
	"description": "Maximum number of results to return (default 10)",
}

func adapters() []adapter {
	return []adapter{
		{
			name:        "web_search",
			description: "Search the web. Returns titles, URLs, and snippets for matching pages.",
			params: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": queryParam,
					"count": countParam,
				},
				"required": []string{"query"},
			},
			remote: "web_search",
			mapArgs: func(args map[string]any) map[string]any {
				return searchArgs(args)
			},
		},
		{
			name:        "news_search",
			description: "Search recent news articles. Supports an optional publication date range.",
			params: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": queryParam,
					"from_date": map[string]any{
						"type":        "string",
						"description": "Earliest publication date (YYYY-MM-DD)",
					},
					"to_date": map[string]any{
						"type":        "string",
						"description": "Latest publication date (YYYY-MM-DD)",
					},
					"count": countParam,
				},
				"required": []string{"query"},
			},
			remote: "news_search",
			mapArgs: func(args map[string]any) map[string]any {
				out := searchArgs(args)
				copyArg(out, args, "from_date")
				copyArg(out, args, "to_date")
				return out
			},
		},
		{
			name:        "image_search",
			description: "Search for images. Returns image URLs with source pages and descriptions.",
			params: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": queryParam,
					"count": countParam,
				},
				"required": []string{"query"},
			},
			remote: "image_search",
			mapArgs: func(args map[string]any) map[string]any {
				return searchArgs(args)
			},
		},
		{
			name:        "video_search",
			description: "Search for videos. Returns video URLs with titles and durations.",
			params: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": queryParam,
					"count": countParam,
				},
				"required": []string{"query"},
			},
			remote: "video_search",
			mapArgs: func(args map[string]any) map[string]any {
				return searchArgs(args)
			},
		},
		{
			name:        "scholar_search",
			description: "Search academic papers and citations. Supports an optional publication year range.",
			params: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": queryParam,
					"year_from": map[string]any{
						"type":        "integer",
						"description": "Earliest publication year",
					},
					"year_to": map[string]any{
						"type":        "integer",
						"description": "Latest publication year",
					},
					"count": countParam,
				},
				"required": []string{"query"},
			},
			remote: "scholar_search",
			mapArgs: func(args map[string]any) map[string]any {
				out := searchArgs(args)
				copyArg(out, args, "year_from")
				copyArg(out, args, "year_to")
				return out
			},
		},
		{
			name:        "site_search",
			description: "Search the web restricted to a single site or domain.",
			params: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": queryParam,
					"site": map[string]any{
						"type":        "string",
						"description": "The site or domain to search within (e.g. example.com)",
					},
					"count": countParam,
				},
				"required": []string{"query", "site"},
			},
			// The endpoint has no dedicated site tool; a site: prefix on
			// the web_search query covers it.
			remote: "web_search",
			mapArgs: func(args map[string]any) map[string]any {
				out := searchArgs(args)
				site, _ := args["site"].(string)
				query, _ := args["query"].(string)
				out["query"] = fmt.Sprintf("site:%s %s", site, query)
				return out
			},
		},
	}
}

// searchArgs maps the common query/count pair onto the remote shape.
func searchArgs(args map[string]any) map[string]any {
	out := map[string]any{
		"query": args["query"],
	}
	if count, ok := args["count"]; ok {
		out["max_results"] = count
	}
	return out
}

// copyArg copies key from args to out when present.
func copyArg(out, args map[string]any, key string) {
	if v, ok := args[key]; ok {
		out[key] = v
	}
}

// RegisterAll registers every adapter on the registry and returns the
// number registered. The journal may be nil, in which case invocations
// are not recorded.
func RegisterAll(registry *tools.Registry, client *mcp.Client, jrnl *journal.Store, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}

	count := 0
	for _, a := range adapters() {
		registry.Register(&tools.Tool{
			Name:        a.name,
			Description: a.description,
			Parameters:  a.params,
			Handler:     relayHandler(a, client, jrnl, logger),
		})
		count++

		logger.Debug("registered search tool",
			"tool", a.name,
			"remote_tool", a.remote,
		)
	}

	return count
}

// relayHandler builds the handler for one adapter. The returned handler
// never fails: failures become "Error: <message>" text so the host
// always receives a text payload.
func relayHandler(a adapter, client *mcp.Client, jrnl *journal.Store, logger *slog.Logger) func(ctx context.Context, args map[string]any) (string, error) {
	return func(ctx context.Context, args map[string]any) (string, error) {
		start := time.Now()
		text, err := client.CallTool(ctx, a.remote, a.mapArgs(args))
		elapsed := time.Since(start)

		if err != nil {
			text = "Error: " + err.Error()
			logger.Warn("search tool call failed",
				"tool", a.name,
				"remote_tool", a.remote,
				"elapsed", elapsed,
				"error", err,
			)
		}

		record(ctx, jrnl, a, elapsed, err, logger)
		return text, nil
	}
}

// record writes one journal entry. Journal failures are logged, never
// surfaced: telemetry must not break a working call.
func record(ctx context.Context, jrnl *journal.Store, a adapter, elapsed time.Duration, callErr error, logger *slog.Logger) {
	if jrnl == nil {
		return
	}

	rec := journal.Record{
		InvocationID: tools.InvocationIDFromContext(ctx),
		Tool:         a.name,
		RemoteTool:   a.remote,
		Duration:     elapsed,
		Outcome:      journal.OutcomeOK,
	}
	if callErr != nil {
		rec.Outcome = journal.OutcomeError
		rec.Error = callErr.Error()
	}

	// Use a fresh context: the call's context may already be cancelled
	// or past its deadline, and the record should survive that.
	if err := jrnl.Record(context.WithoutCancel(ctx), rec); err != nil {
		logger.Warn("journal write failed", "tool", a.name, "error", err)
	}
}
