package main

import (
	"context"
	"fmt"
	"os"

	"github.com/twdrugfinder/drugfinder/cmd"
	"github.com/twdrugfinder/drugfinder/internal/buildinfo"
	"github.com/twdrugfinder/drugfinder/internal/conf"
	"github.com/twdrugfinder/drugfinder/internal/logger"
)

// Set at build time with -ldflags "-X main.version=... -X main.buildDate=...".
var (
	version   = buildinfo.UnknownValue
	buildDate = buildinfo.UnknownValue
)

func main() {
	os.Exit(run())
}

func run() int {
	settings := &conf.Settings{}
	build := buildinfo.NewContext(version, buildDate)

	rootCmd := cmd.RootCommand(settings, build)
	err := rootCmd.ExecuteContext(context.Background())
	_ = logger.Global().Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
