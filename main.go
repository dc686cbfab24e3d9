// main is the entry point for the opendxi CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/opendxi/cmd"
	"github.com/huangsam/opendxi/internal/contract"
	"github.com/huangsam/opendxi/internal/iocache"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd.SetContext(ctx)
	cmd.SetStoreManager(iocache.Manager)

	err := cmd.Execute()
	iocache.CloseStores()
	stop()
	if err != nil {
		contract.LogFatal("opendxi", err)
	}
}
