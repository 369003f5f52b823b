// Command prepare splits a raw phishing dataset into train and test files.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"github.com/ezoic/phishing-classifier/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	env := cli.Env{Fs: afero.NewOsFs(), Stderr: os.Stderr}

	cmd := cli.NewPrepareCommand(env)
	cmd.SetContext(ctx)
	code := cli.Execute(cmd, env)
	stop()
	os.Exit(code)
}
