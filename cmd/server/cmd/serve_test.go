package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Togather-Foundation/campus/internal/config"
)

func TestServeCommandHelp(t *testing.T) {
	cmd := newServeCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("serve command --help failed: %v", err)
	}

	output := buf.String()
	for _, expected := range []string{
		"Start the HTTP server",
		"--host",
		"--port",
		"--migrate",
		"server host address",
	} {
		if !strings.Contains(output, expected) {
			t.Errorf("expected help text to contain %q, got:\n%s", expected, output)
		}
	}
}

func TestServeCommandFlagParsing(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expectError bool
	}{
		{name: "valid host flag", args: []string{"--host", "127.0.0.1"}},
		{name: "valid port flag", args: []string{"--port", "9090"}},
		{name: "migrate flag", args: []string{"--migrate"}},
		{name: "invalid port value", args: []string{"--port", "invalid"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newServeCommand()
			err := cmd.ParseFlags(tt.args)
			if tt.expectError && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestApplyServeFlags(t *testing.T) {
	cfg := config.Config{Server: config.ServerConfig{Host: "0.0.0.0", Port: 8080}}

	applyServeFlags(&cfg, serveFlags{})
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8080 {
		t.Errorf("empty flags must not change config, got %+v", cfg.Server)
	}

	applyServeFlags(&cfg, serveFlags{host: "127.0.0.1", port: 9090})
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9090 {
		t.Errorf("expected flag overrides, got %+v", cfg.Server)
	}
}
