// Command logscan reports how many audited operations succeeded and failed
// in the service's daily log files over a date range.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"ms-concerts/internal/logscan"

	"github.com/spf13/pflag"
)

func main() {
	today := time.Now().Format(logscan.DateLayout)

	start := pflag.String("start", today, "first day to include (dd_mm_yyyy)")
	end := pflag.String("end", today, "last day to include (dd_mm_yyyy)")
	dir := pflag.StringP("dir", "d", "logs", "directory holding log_dd_mm_yyyy.log files")
	asJSON := pflag.Bool("json", false, "print the counts as JSON")
	pflag.Parse()

	counts, err := logscan.ParseLogs(*start, *end, *dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logscan: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		if err := json.NewEncoder(os.Stdout).Encode(counts); err != nil {
			fmt.Fprintf(os.Stderr, "logscan: %v\n", err)
			os.Exit(1)
		}
		return
	}
	fmt.Printf("successes: %d\nfailures:  %d\n", counts.Successes, counts.Failures)
}
