package main

import (
	"context"
	"fmt"
	"os"

	"survey-bot/internal/cli"
	"survey-bot/internal/config"
)

func main() {
	config.LoadEnv()

	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
