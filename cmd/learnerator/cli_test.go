package main

import (
	"testing"
)

func TestCommandsRegistered(t *testing.T) {
	want := []string{"provision", "probe", "plan", "stage", "resources", "groups", "ask"}
	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestPlanSubcommands(t *testing.T) {
	sub := map[string]bool{}
	for _, c := range planCmd.Commands() {
		sub[c.Name()] = true
	}
	if !sub["generate"] || !sub["show"] {
		t.Errorf("plan subcommands = %v, want generate and show", sub)
	}
}

func TestGroupsSubcommands(t *testing.T) {
	sub := map[string]bool{}
	for _, c := range groupsCmd.Commands() {
		sub[c.Name()] = true
	}
	for _, name := range []string{"list", "show", "forget"} {
		if !sub[name] {
			t.Errorf("groups subcommand %q not registered", name)
		}
	}
}
