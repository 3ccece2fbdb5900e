package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"nanopubd/pkg/logger"
	"nanopubd/pkg/store"
)

// Offline diagnostic: dump journal state and peer cursors straight from
// a DB path while the server is stopped.
func main() {
	var p string
	flag.StringVar(&p, "path", "", "db path to inspect")
	flag.Parse()
	if p == "" {
		fmt.Fprintln(os.Stderr, "--path required")
		os.Exit(2)
	}
	logger.Init()

	st, err := store.Open(filepath.Join(p, "store"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "open failed: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	for _, key := range []string{"journal:id", "journal:next-nanopub-no", "journal:page-size"} {
		v, err := st.Get(key)
		if err != nil {
			fmt.Printf("%s: <%v>\n", key, err)
			continue
		}
		fmt.Printf("%s: %s\n", key, v)
	}

	err = st.ScanPrefix("peer:", func(key string, v []byte) error {
		fmt.Printf("%s: %s\n", key, v)
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "peer scan failed: %v\n", err)
		os.Exit(1)
	}
}
