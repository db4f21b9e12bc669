package main

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/spf13/pflag"

	"github.com/argusmon/argus/internal/config"
	"github.com/argusmon/argus/internal/logging"
	"github.com/argusmon/argus/internal/meta"
	"github.com/argusmon/argus/internal/probe"
)

const (
	SHUTDOWN_TIMEOUT = 10 * time.Second
)

func init() {
	probe.HTTPUserAgent = fmt.Sprintf("argus/%s health check", meta.Version)
}

type ArgusCommand struct {
	OutStream io.Writer
	ErrStream io.Writer

	ConfigPath   string
	Listen       string
	DataFile     string
	LogFile      string
	InstanceName string
	OneshotMode  bool
	ShowVersion  bool
	ShowHelp     bool
}

var defaultArgusCommand = &ArgusCommand{
	OutStream: os.Stdout,
	ErrStream: os.Stderr,
}

//go:embed help.txt
var helpText string

func (cmd *ArgusCommand) PrintUsage(detail bool) {
	tmpl := template.Must(template.New("help.txt").Parse(helpText))
	tmpl.Execute(cmd.ErrStream, map[string]interface{}{
		"Version": meta.Version,
		"Short":   !detail,
	})
}

func (cmd *ArgusCommand) ParseArgs(args []string) (exitCode int) {
	flags := pflag.NewFlagSet("argus", pflag.ContinueOnError)

	flags.StringVarP(&cmd.ConfigPath, "config", "c", "", "Path to configuration file")
	flags.StringVarP(&cmd.Listen, "listen", "l", "", "Listen address of the HTTP server")
	flags.StringVarP(&cmd.DataFile, "data", "d", "", "Path to the state file")
	flags.StringVar(&cmd.LogFile, "log-file", "", "Path to the log file")
	flags.StringVarP(&cmd.InstanceName, "name", "n", "", "Instance name")
	flags.BoolVarP(&cmd.OneshotMode, "oneshot", "1", false, "Check status only once and exit")
	flags.BoolVarP(&cmd.ShowVersion, "version", "v", false, "Show version")
	flags.BoolVarP(&cmd.ShowHelp, "help", "h", false, "Show help message")

	if err := flags.Parse(args[1:]); err != nil {
		fmt.Fprintln(cmd.ErrStream, err)
		fmt.Fprintf(cmd.ErrStream, "\nPlease see `%s -h` for more information.\n", args[0])
		return 2
	}

	if cmd.ShowVersion || cmd.ShowHelp {
		return 0
	}

	if cmd.OneshotMode {
		if flags.Changed("listen") {
			fmt.Fprintln(cmd.ErrStream, "warning: listen option will ignored in the oneshot mode.")
		}
		if flags.Changed("log-file") {
			fmt.Fprintln(cmd.ErrStream, "warning: log-file option will ignored in the oneshot mode.")
		}
	}

	if rest := flags.Args(); len(rest) > 0 {
		fmt.Fprintf(cmd.ErrStream, "invalid argument: unexpected argument: %s\n", strings.Join(rest, " "))
		fmt.Fprintf(cmd.ErrStream, "\nPlease see `%s -h` for more information.\n", args[0])
		return 2
	}

	return 0
}

func (cmd *ArgusCommand) PrintVersion() {
	fmt.Fprintf(cmd.OutStream, "Argus version %s (%s)\n", meta.Version, meta.Commit)
}

// LoadConfig reads the configuration file and applies the command line
// overrides on top of it.
func (cmd *ArgusCommand) LoadConfig() (*config.Config, error) {
	conf, err := config.Load(cmd.ConfigPath)
	if err != nil {
		return nil, err
	}

	if cmd.Listen != "" {
		conf.Server.Listen = cmd.Listen
	}
	if cmd.DataFile != "" {
		conf.Storage.DataFile = cmd.DataFile
	}
	if cmd.LogFile != "" {
		conf.Log.File = cmd.LogFile
	}

	return conf, nil
}

func (cmd *ArgusCommand) Run(args []string) (exitCode int) {
	if code := cmd.ParseArgs(args); code != 0 {
		return code
	}

	if cmd.ShowVersion {
		cmd.PrintVersion()
		return 0
	}

	if cmd.ShowHelp {
		cmd.PrintUsage(true)
		return 0
	}

	conf, err := cmd.LoadConfig()
	if err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: %s\n", err)
		return 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cmd.OneshotMode {
		return cmd.RunOneshot(ctx, conf)
	}

	logger, err := logging.New(conf.Log)
	if err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: failed to set up logging: %s\n", err)
		return 1
	}
	defer logger.Sync()

	return cmd.RunServer(ctx, conf, logger)
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "oneshot":
			os.Args[1] = "-1"
			os.Exit(defaultArgusCommand.Run(os.Args))
		case "mcp":
			os.Exit(defaultMCPCommand.Run(os.Args))
		}
	}

	os.Exit(defaultArgusCommand.Run(os.Args))
}
