// Command hh-autoupdate keeps an hh.ru résumé at the top of search results.
package main

import (
	"os"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/adapters/driving/cli"
)

// version is set via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
