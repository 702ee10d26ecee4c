package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// initReplayApp initializes the txreplay app. This function is called by the
// main function and unit tests.
func initReplayApp() *cli.App {
	return &cli.App{
		Name:     "Transaction Replay Tool",
		HelpName: "txreplay",
		Usage:    "re-executes mined transactions against the reconstructed state of their block",
		Flags:    []cli.Flag{},
		Commands: []*cli.Command{
			&RunCommand,
		},
	}
}

func main() {
	app := initReplayApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
