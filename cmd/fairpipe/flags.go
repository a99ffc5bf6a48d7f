package main

import (
	"flag"
	"fmt"
	"strings"
)

// parseArgs parses flags that may appear before or after positional
// arguments and checks the positional count.
func parseArgs(fs *flag.FlagSet, args []string, want int) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
	if len(positional) != want {
		fs.Usage()
		return nil, fmt.Errorf("expected %d argument(s), got %d", want, len(positional))
	}
	return positional, nil
}

// splitList parses a comma-separated flag value
func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
