// ddns6 keeps a Cloudflare AAAA record pointed at the first reachable global
// IPv6 address of a network interface.
package main

import (
	"fmt"
	"log/slog"
	"os"
)

// Version and BuildDate are set via ldflags during build.
// Example: -ldflags="-X main.Version=v1.0.0 -X main.BuildDate=2026-01-03"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "ddns6: %v\n", err)
		os.Exit(1)
	}
}
