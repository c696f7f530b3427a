// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/bartekus/capprobe/cmd/capprobe/commands"
	"github.com/bartekus/capprobe/cmd/capprobe/internal/clierr"
	"github.com/bartekus/capprobe/internal/worker"
)

func main() {
	// The process-pool probe re-executes this binary as its worker.
	if worker.IsWorker() {
		os.Exit(worker.Main())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := commands.NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(clierr.ExitCodeOf(err))
	}
}
