package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stairwalk/internal/render"
)

var extrasCmd = &cobra.Command{
	Use:   "extras",
	Short: "List the available drawers",
	Long: `Shows every drawer that can be enabled through the config's extras list.
Drawers run after the core processes on every tick.`,
	Run: runExtras,
}

func runExtras(_ *cobra.Command, _ []string) {
	drawers := render.List()

	if len(drawers) == 0 {
		fmt.Println("No drawers available.")
		return
	}

	fmt.Println("Available drawers:")
	fmt.Println()

	// Calculate column widths
	maxNameLen := 4 // "Name" header
	for _, d := range drawers {
		if len(d.Name) > maxNameLen {
			maxNameLen = len(d.Name)
		}
	}

	// Print header
	fmt.Printf("  %-*s  %s\n", maxNameLen, "Name", "Description")
	fmt.Printf("  %-*s  %s\n", maxNameLen, "----", "-----------")

	for _, d := range drawers {
		fmt.Printf("  %-*s  %s\n", maxNameLen, d.Name, d.Description)
	}

	fmt.Println()
	fmt.Println("Enable drawers by listing them under 'extras:' in the config.")
}
