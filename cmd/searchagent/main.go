package main

import (
	"context"
	_ "embed"
	"os"
	"os/signal"
	"syscall"

	"github.com/LouYuanbo1/searchagent/cmd/searchagent/commands"
)

// appconfig.json is embedded at build time; --config overrides it at run time.
//
//go:embed appconfig/appconfig.json
var appConfig []byte

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	commands.ExecuteContext(ctx, appConfig)
}
