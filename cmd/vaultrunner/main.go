// Command vaultrunner compiles and runs Vault Runner programs.
package main

import (
	"os"

	"vaultrunner/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
