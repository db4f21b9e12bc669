package mcp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/argusmon/argus/internal/monitor"
	"github.com/argusmon/argus/internal/probe"
)

// EndpointSpec is an ad-hoc endpoint definition for the check_endpoint
// tool. It carries the same kind-specific fields as a stored endpoint but
// is never persisted.
type EndpointSpec struct {
	Kind          string `json:"kind" jsonschema:"Probe kind. One of: http, icmp, tcp, ssh, telnet, sftp."`
	URL           string `json:"url,omitempty" jsonschema:"Target URL for http endpoints."`
	Host          string `json:"host,omitempty" jsonschema:"Target host for icmp, tcp, ssh, telnet, and sftp endpoints."`
	Port          int    `json:"port,omitempty" jsonschema:"Target port for tcp, ssh, telnet, and sftp endpoints. Defaults to 22 for ssh and sftp."`
	Username      string `json:"username,omitempty" jsonschema:"Login user for ssh and sftp endpoints."`
	Password      string `json:"password,omitempty" jsonschema:"Login password for ssh and sftp endpoints."`
	IdentityFile  string `json:"identity_file,omitempty" jsonschema:"Path to a private key file for ssh and sftp endpoints."`
	RemotePath    string `json:"remote_path,omitempty" jsonschema:"Directory to list for sftp endpoints."`
	ExpectStatus  int    `json:"expect_status,omitempty" jsonschema:"Expected HTTP status code for http endpoints. Defaults to 200."`
	ExpectContent string `json:"expect_content,omitempty" jsonschema:"Substring the HTTP response body must contain."`
	Timeout       int    `json:"timeout,omitempty" jsonschema:"Probe timeout in seconds. Defaults to 10."`
}

// Endpoint converts the definition into a checkable endpoint.
func (s EndpointSpec) Endpoint() monitor.Endpoint {
	ep := monitor.Endpoint{
		Kind:          monitor.Kind(s.Kind),
		Enabled:       true,
		URL:           s.URL,
		Host:          s.Host,
		Port:          s.Port,
		Username:      s.Username,
		Password:      s.Password,
		IdentityFile:  s.IdentityFile,
		RemotePath:    s.RemotePath,
		ExpectStatus:  s.ExpectStatus,
		ExpectContent: s.ExpectContent,
		Timeout:       s.Timeout,
	}
	ep.Name = ep.Target()
	ep.ID = ep.Label()
	return ep
}

// CheckEndpointInput is the input for check_endpoint tool.
type CheckEndpointInput struct {
	Endpoints []EndpointSpec `json:"endpoints" jsonschema:"Endpoint definitions to check. Each endpoint is probed once."`
}

// CheckEndpointOutput is the output of check_endpoint tool.
type CheckEndpointOutput struct {
	Results []map[string]any `json:"results" jsonschema:"Results of probing each endpoint."`
}

// checkOnce probes a single ad-hoc endpoint and returns the result.
func checkOnce(ctx context.Context, ep monitor.Endpoint) map[string]any {
	p, err := probe.New(ep)
	if err != nil {
		rec := monitor.NewResult(ep.ID, monitor.StatusUnknown, time.Now(), 0, fmt.Sprintf("failed to create prober: %s", err))
		return ResultToMap(ep.Label(), rec)
	}

	ctx, cancel := context.WithTimeout(ctx, ep.TimeoutDuration())
	defer cancel()

	return ResultToMap(ep.Label(), probe.Check(ctx, p))
}

// CheckEndpoint probes the given endpoint definitions and returns the
// results.
func CheckEndpoint(ctx context.Context, input CheckEndpointInput) (CheckEndpointOutput, error) {
	if len(input.Endpoints) == 0 {
		return CheckEndpointOutput{}, fmt.Errorf("at least one endpoint definition is required")
	}

	results := make([]map[string]any, 0, len(input.Endpoints))

	var wg sync.WaitGroup
	resultChan := make(chan map[string]any, len(input.Endpoints))

	for _, spec := range input.Endpoints {
		wg.Add(1)
		go func(ep monitor.Endpoint) {
			defer wg.Done()
			resultChan <- checkOnce(ctx, ep)
		}(spec.Endpoint())
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for result := range resultChan {
		results = append(results, result)
	}

	return CheckEndpointOutput{Results: results}, nil
}

// AddLocalTools adds the local-only tools to the MCP server.
// These tools are: check_endpoint.
func AddLocalTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_endpoint",
		Title:       "Check endpoint",
		Description: "Probe endpoint definitions once. This performs one-shot checks without saving the endpoints or starting continuous monitoring.",
		Annotations: &mcp.ToolAnnotations{
			IdempotentHint: true,
			ReadOnlyHint:   false,
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input CheckEndpointInput) (*mcp.CallToolResult, CheckEndpointOutput, error) {
		output, err := CheckEndpoint(ctx, input)
		return nil, output, err
	})
}
