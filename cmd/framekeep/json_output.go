package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeErrorJSON emits a failure as a structured object on stderr so JSON
// consumers can branch on the code without parsing the message.
func writeErrorJSON(cmd *cobra.Command, code string, err error) {
	enc := json.NewEncoder(cmd.ErrOrStderr())
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{
		"error":   code,
		"message": err.Error(),
	})
}
