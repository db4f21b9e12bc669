package mcp

import (
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/argusmon/argus/internal/meta"
)

// serverIdentity is the title and instruction text presented to MCP clients.
type serverIdentity struct {
	Title        string
	Instructions string
}

func remoteIdentity() serverIdentity {
	return serverIdentity{
		Title: "Argus",
		Instructions: "Argus is a network endpoint monitoring tool. " +
			"Statuses, incidents and alerts can be large, so it is recommended " +
			"to extract the necessary information using jq queries instead of " +
			"fetching all data at once.",
	}
}

func localIdentity() serverIdentity {
	return serverIdentity{
		Title: "Argus Local MCP",
		Instructions: "Argus local MCP server. This server can query " +
			"monitoring state and run one-shot endpoint checks.",
	}
}

func (id serverIdentity) named(instanceName string) serverIdentity {
	if instanceName == "" {
		return id
	}
	id.Title = fmt.Sprintf("%s (%s)", id.Title, instanceName)
	id.Instructions = fmt.Sprintf("%s This Argus instance's name is %q.", id.Instructions, instanceName)
	return id
}

func newServer(id serverIdentity, s Store) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "argus",
			Version: meta.Version,
			Title:   id.Title,
		},
		&mcp.ServerOptions{
			Instructions: id.Instructions,
		},
	)

	AddReadOnlyTools(server, s)
	return server
}

// NewRemoteServer creates an MCP server exposing only the read-only query
// tools, for serving to remote clients.
func NewRemoteServer(instanceName string, s Store) *mcp.Server {
	return newServer(remoteIdentity().named(instanceName), s)
}

// NewLocalServer creates an MCP server that also carries the local-only
// tools, like the one-shot endpoint check.
func NewLocalServer(instanceName string, s Store) *mcp.Server {
	server := newServer(localIdentity().named(instanceName), s)
	AddLocalTools(server)
	return server
}

// Handler wraps a remote MCP server in a stateless HTTP handler.
func Handler(instanceName string, s Store) http.Handler {
	server := NewRemoteServer(instanceName, s)

	return mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{
		Stateless:    true,
		JSONResponse: true,
	})
}
