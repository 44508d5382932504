// Command agent turns natural-language requests into confirmed tool calls
// against the weather tool server. It runs one-shot from the terminal or as
// an HTTP dispatch and approval API.
package main

import (
	"log/slog"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
