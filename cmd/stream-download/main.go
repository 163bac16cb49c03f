package main

import (
	"go-stream-download/cmd/stream-download/cmd"
)

func main() {
	// Execute the root command (defined in cmd/root.go)
	cmd.Execute()
}
