package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"

	"github.com/argusmon/argus/internal/config"
	mcputil "github.com/argusmon/argus/internal/mcp"
	"github.com/argusmon/argus/internal/storage"
	"github.com/argusmon/argus/internal/store"
)

// MCPCommand represents the mcp subcommand.
type MCPCommand struct {
	OutStream io.Writer
	ErrStream io.Writer
}

var defaultMCPCommand = &MCPCommand{
	OutStream: os.Stdout,
	ErrStream: os.Stderr,
}

const MCPHelp = `Argus mcp -- Serve the local MCP interface over stdio

Usage: argus mcp [OPTIONS...]

The local MCP server answers status, incident, and alert queries from the
state file, and can run one-shot endpoint checks. It never writes the state
file, so it is safe to run next to a server that owns the same file.

Options:
  -c, --config  Path to configuration file.
  -d, --data    Path to the state file. Overrides storage.data_file.
  -n, --name    Instance name.
  -h, --help    Show this help message and exit.
`

func (cmd *MCPCommand) Run(args []string) int {
	flags := pflag.NewFlagSet("argus mcp", pflag.ContinueOnError)

	configPath := flags.StringP("config", "c", "", "Path to configuration file")
	dataFile := flags.StringP("data", "d", "", "Path to the state file")
	instanceName := flags.StringP("name", "n", "", "Instance name")
	help := flags.BoolP("help", "h", false, "Show this message and exit")

	if err := flags.Parse(args); err != nil {
		fmt.Fprintln(cmd.ErrStream, err)
		fmt.Fprintf(cmd.ErrStream, "\nPlease see `%s mcp -h` for more information.\n", args[0])
		return 2
	}

	if *help {
		io.WriteString(cmd.OutStream, MCPHelp)
		return 0
	}

	conf, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: %s\n", err)
		return 2
	}
	if *dataFile != "" {
		conf.Storage.DataFile = *dataFile
	}

	snap, err := storage.Load(conf.Storage.DataFile)
	if err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: failed to load state file: %s\n", err)
		return 1
	}

	st := store.New(nil)
	st.HistoryLength = conf.Storage.HistoryLength
	st.Load(snap)

	server := mcputil.NewLocalServer(*instanceName, st)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: MCP server error: %s\n", err)
		return 1
	}

	return 0
}
