/*
Copyright 2025 David Arnold
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
)

// executeConsole runs the root command with args and returns its stdout.
func executeConsole(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewConsoleCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func findSubcommand(cmd *cobra.Command, use string) *cobra.Command {
	for _, sub := range cmd.Commands() {
		if sub.Use == use {
			return sub
		}
	}
	return nil
}

func TestNewConsoleConfig(t *testing.T) {
	cc := NewConsoleConfig()

	if cc.configFlags == nil {
		t.Errorf("NewConsoleConfig() configFlags is nil")
	}
	if cc.restConfig != nil {
		t.Errorf("NewConsoleConfig() restConfig should be resolved lazily")
	}
}

func TestNewConsoleCmdNotNil(t *testing.T) {
	cmd := NewConsoleCmd()

	if cmd.Use != "cloudconsole" {
		t.Errorf("NewConsoleCmd() Use = %q, want %q", cmd.Use, "cloudconsole")
	}
	if cmd.Short == "" {
		t.Errorf("NewConsoleCmd() Short is empty")
	}
	if cmd.Long == "" {
		t.Errorf("NewConsoleCmd() Long is empty")
	}
}

func TestNewConsoleCmdSubcommands(t *testing.T) {
	cmd := NewConsoleCmd()

	for _, use := range []string{"price", "routes", "live"} {
		if findSubcommand(cmd, use) == nil {
			t.Errorf("cloudconsole command does not have %q subcommand", use)
		}
	}
}

func TestNewConsoleCmdFlags(t *testing.T) {
	cmd := NewConsoleCmd()

	for _, name := range []string{"output", "theme", "compact", "debug", "cloud-cache-ttl", "cloud-cache-disk", "namespace", "kubeconfig"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("%s flag not found", name)
		}
	}

	if f := cmd.PersistentFlags().Lookup("output"); f != nil && f.Shorthand != "o" {
		t.Errorf("output flag shorthand = %q, want %q", f.Shorthand, "o")
	}
}
