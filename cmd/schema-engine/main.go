package main

import (
	"os"

	"github.com/satishbabariya/schema-engine/cmd/schema-engine/commands"
	"github.com/satishbabariya/schema-engine/internal/ui"
)

func main() {
	if err := commands.Execute(); err != nil {
		ui.PrintError("%v", err)
		os.Exit(1)
	}
}
