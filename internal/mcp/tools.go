package mcp

import (
	"context"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/argusmon/argus/internal/monitor"
)

// StatusInput is the input for query_status tool.
type StatusInput struct {
	JQ string `json:"jq,omitempty" jsonschema:"A jq query string to filter and/or aggregate endpoint statuses. Query receives an array. Each object is like '{\"id\": \"...\", \"name\": \"...\", \"kind\": \"http\", \"target\": \"https://...\", \"status\": \"UP\", \"uptime\": 0.99, \"avg_latency_ms\": ..., \"latest_check\": {\"time\": \"{RFC 3339}\", \"status\": \"...\", \"latency_ms\": ..., \"message\": \"...\"}}'. You can use 'parse_url' filter to parse http targets. For example, '.[] | {name: .name, status: .status, message: .latest_check.message}' to get the current state of every endpoint."`
}

// FetchStatusByJQ fetches every endpoint's status from the store and
// applies the jq query.
func FetchStatusByJQ(ctx context.Context, s Store, input StatusInput) (Output, error) {
	jq, err := ParseJQ(input.JQ)
	if err != nil {
		return Output{}, fmt.Errorf("failed to parse jq query: %w", err)
	}

	endpoints := make(map[string]monitor.Endpoint)
	for _, ep := range s.Endpoints() {
		endpoints[ep.ID] = ep
	}

	statuses := s.Statuses()
	targets := make([]any, 0, len(statuses))
	for _, st := range statuses {
		targets = append(targets, StatusToMap(endpoints[st.EndpointID], st))
	}

	return jq.Run(ctx, targets)
}

// IncidentsInput is the input for query_incidents tool.
type IncidentsInput struct {
	IncludeOngoing  *bool  `json:"include_ongoing,omitempty" jsonschema:"Whether to include ongoing incidents in the result. If omitted, ongoing incidents are included."`
	IncludeResolved bool   `json:"include_resolved,omitempty" jsonschema:"Whether to include resolved incidents in the result. If omitted, resolved incidents are not included."`
	JQ              string `json:"jq,omitempty" jsonschema:"A jq query string to filter and/or aggregate incidents. Query receives an array ordered oldest first. Each object is like '{\"id\": \"...\", \"endpoint\": \"...\", \"status\": \"ongoing\", \"started_at\": \"{RFC 3339}\", \"resolved_at\": \"{RFC 3339 or null}\", \"duration_ms\": ..., \"updates\": [...]}'. For example, '.[] | select(.resolved_at == null) | {endpoint: .endpoint, started_at: .started_at}' to get incidents that are still open."`
}

// FetchIncidentsByJQ fetches incidents from the store and applies the jq
// query.
func FetchIncidentsByJQ(ctx context.Context, s Store, input IncidentsInput) (Output, error) {
	jq, err := ParseJQ(input.JQ)
	if err != nil {
		return Output{}, fmt.Errorf("failed to parse jq query: %w", err)
	}

	names := endpointNames(s)
	includeOngoing := input.IncludeOngoing == nil || *input.IncludeOngoing

	all := s.Incidents()
	incidents := make([]any, 0, len(all))
	for _, in := range all {
		if in.Ongoing() && !includeOngoing {
			continue
		}
		if !in.Ongoing() && !input.IncludeResolved {
			continue
		}
		incidents = append(incidents, IncidentToMap(in, names[in.EndpointID]))
	}

	sort.Slice(incidents, func(i, j int) bool {
		return incidents[i].(map[string]any)["started_at_unix"].(int64) < incidents[j].(map[string]any)["started_at_unix"].(int64)
	})

	return jq.Run(ctx, incidents)
}

// AlertsInput is the input for query_alerts tool.
type AlertsInput struct {
	IncludeResolved bool   `json:"include_resolved,omitempty" jsonschema:"Whether to include resolved alerts in the result. If omitted, only open alerts are returned."`
	JQ              string `json:"jq,omitempty" jsonschema:"A jq query string to filter and/or aggregate alerts. Query receives an array ordered oldest first. Each object is like '{\"id\": \"...\", \"endpoint\": \"...\", \"severity\": \"critical\", \"status\": \"active\", \"message\": \"...\", \"created_at\": \"{RFC 3339}\", \"acknowledged_at\": \"{RFC 3339 or null}\"}'. For example, '.[] | select(.acknowledged_at == null) | .endpoint' to list endpoints with unacknowledged alerts."`
}

// FetchAlertsByJQ fetches alerts from the store and applies the jq query.
func FetchAlertsByJQ(ctx context.Context, s Store, input AlertsInput) (Output, error) {
	jq, err := ParseJQ(input.JQ)
	if err != nil {
		return Output{}, fmt.Errorf("failed to parse jq query: %w", err)
	}

	names := endpointNames(s)

	all := s.Alerts()
	alerts := make([]any, 0, len(all))
	for _, al := range all {
		if !al.Open() && !input.IncludeResolved {
			continue
		}
		alerts = append(alerts, AlertToMap(al, names[al.EndpointID]))
	}

	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].(map[string]any)["created_at_unix"].(int64) < alerts[j].(map[string]any)["created_at_unix"].(int64)
	})

	return jq.Run(ctx, alerts)
}

func endpointNames(s Store) map[string]string {
	names := make(map[string]string)
	for _, ep := range s.Endpoints() {
		names[ep.ID] = ep.Name
	}
	return names
}

// AddReadOnlyTools adds the read-only query tools to the MCP server.
// These tools are: query_status, query_incidents, query_alerts.
func AddReadOnlyTools(server *mcp.Server, s Store) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_status",
		Title:       "Query status",
		Description: "Fetch the current status of every monitored endpoint from the Argus server.",
		Annotations: &mcp.ToolAnnotations{
			IdempotentHint: true,
			ReadOnlyHint:   true,
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (*mcp.CallToolResult, Output, error) {
		output, err := FetchStatusByJQ(ctx, s, input)
		return nil, output, err
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_incidents",
		Title:       "Query incidents",
		Description: "Fetch ongoing and past incidents from the Argus server.",
		Annotations: &mcp.ToolAnnotations{
			IdempotentHint: true,
			ReadOnlyHint:   true,
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input IncidentsInput) (*mcp.CallToolResult, Output, error) {
		output, err := FetchIncidentsByJQ(ctx, s, input)
		return nil, output, err
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_alerts",
		Title:       "Query alerts",
		Description: "Fetch open and resolved alerts from the Argus server.",
		Annotations: &mcp.ToolAnnotations{
			IdempotentHint: true,
			ReadOnlyHint:   true,
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input AlertsInput) (*mcp.CallToolResult, Output, error) {
		output, err := FetchAlertsByJQ(ctx, s, input)
		return nil, output, err
	})
}
