package main_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/argusmon/argus/cmd/argus"
	"github.com/argusmon/argus/internal/config"
)

func testServerConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		Server: config.ServerConfig{Listen: "127.0.0.1:0"},
		Storage: config.StorageConfig{
			DataFile:      filepath.Join(t.TempDir(), "state.json"),
			HistoryLength: 50,
		},
		SelfCheck: config.SelfCheckConfig{Targets: []string{"127.0.0.1:9"}},
	}
}

func TestArgusCommand_RunServer(t *testing.T) {
	conf := testServerConfig(t)

	buf := bytes.NewBuffer([]byte{})
	cmd := main.ArgusCommand{
		OutStream: buf,
		ErrStream: buf,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	code := cmd.RunServer(ctx, conf, zap.NewNop())
	if code != 0 {
		t.Errorf("unexpected exit code: %d\n%s", code, buf.String())
	}

	if _, err := os.Stat(conf.Storage.DataFile); err != nil {
		t.Errorf("expected the state file to be created but got %s", err)
	}
}

func TestArgusCommand_RunServer_error(t *testing.T) {
	tests := []struct {
		Name    string
		Mutate  func(*config.Config)
		Pattern string
	}{
		{
			Name: "bad-listen-address",
			Mutate: func(conf *config.Config) {
				conf.Server.Listen = "127.0.0.1:99999"
			},
			Pattern: `^error: listen tcp: `,
		},
		{
			Name: "unwritable-state-file",
			Mutate: func(conf *config.Config) {
				conf.Storage.DataFile = filepath.Join(conf.Storage.DataFile, "no-such-dir", "state.json")
			},
			Pattern: `^error: .*failed to open snapshot file`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			conf := testServerConfig(t)
			tt.Mutate(conf)

			buf := bytes.NewBuffer([]byte{})
			cmd := main.ArgusCommand{
				OutStream: buf,
				ErrStream: buf,
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			code := cmd.RunServer(ctx, conf, zap.NewNop())
			if code != 1 {
				t.Errorf("expected exit code 1 but got %d\n%s", code, buf.String())
			}

			if ok, _ := regexp.MatchString(tt.Pattern, buf.String()); !ok {
				t.Errorf("output expected to match with %q but not matched:\n%s", tt.Pattern, buf.String())
			}
		})
	}
}
