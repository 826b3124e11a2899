// Command dataclean validates applicant datasets: it downloads the input
// CSV from object storage, partitions rows into clean and rejected sets,
// republishes both and posts a summary to a chat webhook.
//
// Usage:
//
//	dataclean run                 # one pipeline run
//	dataclean validate data.csv   # local validation, no storage access
//	dataclean serve               # HTTP trigger and run ledger
package main

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/dataclean/internal/core"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if core.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		}
		os.Exit(1)
	}
}
