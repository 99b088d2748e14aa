// Command treeldr compiles layouts and hydrates tree values from RDF
// datasets.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spruceid/treeldr-sub002/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "Error:", err)

	os.Exit(cli.GetExitCode(err))
}
