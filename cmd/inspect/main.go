package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"branchdb/pkg/logger"
	"branchdb/pkg/store"
)

// inspect dumps the raw keyspace of a branchdb store for debugging. Keys
// are grouped by prefix; pass --prefix to narrow, --values to include the
// JSON documents.
func main() {
	var (
		path   string
		prefix string
		values bool
	)
	flag.StringVar(&path, "db", "", "path to the pebble store directory")
	flag.StringVar(&prefix, "prefix", "", "only dump keys with this prefix")
	flag.BoolVar(&values, "values", false, "print document bodies")
	flag.Parse()
	if path == "" {
		fmt.Fprintln(os.Stderr, "--db required")
		os.Exit(2)
	}

	logger.InitWithLevel("error", "text")
	if err := store.Open(path); err != nil {
		fmt.Fprintf(os.Stderr, "open failed: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	keys, err := store.ScanKeys(prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		os.Exit(1)
	}

	counts := map[string]int{}
	for _, k := range keys {
		ns := k
		if i := strings.Index(k, ":"); i >= 0 {
			ns = k[:i+1]
		}
		counts[ns]++
		if values {
			v, err := store.Get(k)
			if err != nil {
				fmt.Printf("%s\t<error: %v>\n", k, err)
				continue
			}
			fmt.Printf("%s\t%s\n", k, v)
		} else {
			fmt.Println(k)
		}
	}

	fmt.Fprintf(os.Stderr, "\n%d keys", len(keys))
	for ns, n := range counts {
		fmt.Fprintf(os.Stderr, "  %s=%d", ns, n)
	}
	fmt.Fprintln(os.Stderr)
}
