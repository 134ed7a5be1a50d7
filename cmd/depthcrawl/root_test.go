package main

import (
	"testing"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "depthcrawl" {
			t.Errorf("expected use 'depthcrawl', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := map[string]bool{
			"crawl":   false,
			"init":    false,
			"report":  false,
			"show":    false,
			"version": false,
		}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Name()]; ok {
				want[sub.Name()] = true
			}
		}
		for name, found := range want {
			if !found {
				t.Errorf("expected %s subcommand", name)
			}
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage {
			t.Error("expected SilenceUsage to be true")
		}
		if !cmd.SilenceErrors {
			t.Error("expected SilenceErrors to be true")
		}
	})
}

func TestGetVerboseFlag(t *testing.T) {
	t.Parallel()

	t.Run("inherits persistent flag", func(t *testing.T) {
		t.Parallel()

		root := NewRootCmd()
		if err := root.ParseFlags([]string{"-v"}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		crawlCmd, _, err := root.Find([]string{"crawl"})
		if err != nil {
			t.Fatalf("failed to find crawl command: %v", err)
		}
		if !getVerboseFlag(crawlCmd) {
			t.Error("expected verbose to be true")
		}
	})

	t.Run("false without root", func(t *testing.T) {
		t.Parallel()
		if getVerboseFlag(NewCrawlCmd()) {
			t.Error("expected verbose to be false")
		}
	})
}
