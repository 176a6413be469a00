package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"supply-agent/internal/adapters/cli"
	"supply-agent/internal/adapters/repl"
	"supply-agent/internal/app"
	"supply-agent/internal/config"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		logrus.Fatalf("logger: %v", err)
	}

	ctx := context.Background()
	rt, err := app.Bootstrap(ctx, cfg, log, nil)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer rt.Close()

	if len(os.Args) > 1 {
		if err := cli.Run(ctx, rt.Service, os.Args[1:], os.Stdin, os.Stdout); err != nil {
			if errors.Is(err, cli.ErrUsage) {
				fmt.Fprintln(os.Stderr, err)
				rt.Close()
				os.Exit(2)
			}
			rt.Close()
			log.Fatalf("%v", err)
		}
		return
	}

	repl.Run(ctx, rt.Service, bufio.NewReader(os.Stdin), os.Stdout)
}
