// Package cli wires the cobra command tree.
package cli

import (
	"github.com/mongopad/mongopad/core/cli/cmd"
)

// Execute runs the root command
func Execute() error {
	return cmd.Execute()
}
