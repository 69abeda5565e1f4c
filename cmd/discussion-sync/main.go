// Command discussion-sync mirrors GitHub Discussions into Markdown files.
package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/discussion-sync/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetServiceFactory(buildServices)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
