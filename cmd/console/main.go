package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gfconnector/billing-console/internal/client"
	"github.com/gfconnector/billing-console/internal/config"
	"github.com/gfconnector/billing-console/pkg/logger"
)

const usage = `usage: console [--env=path] <command> [flags] [args]

commands:
  login -u user -p password   start a session
  logout                      drop the stored session
  health                      check the backend
  list [filters]              one page of transactions
  browse [filters]            interactive list with selection and bulk confirm
  show <id>                   transaction detail
  confirm <id>                confirm billing and issue the invoice
  bulk-confirm <id>...        confirm billing for several transactions
  refund -reason text <id>    refund and issue a credit note
  review                      step through the pending billing queue
  invoice-pdf [-out f] <id>   download the invoice PDF
  credit-note-pdf [-out f] <id>
  resend <id>                 e-mail the invoice again
  init-billing                backfill billing statuses
  stats                       dashboard statistics
  settings                    active billing settings
  watch                       print the pending billing count as it changes
`

func main() {
	os.Exit(realMain())
}

func realMain() int {
	err := config.Load(config.ArgEnvPath(os.Args))
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		return 1
	}
	cfg := config.Get()
	if !cfg.AppDebug {
		_ = logger.Reconfigure("quiet")
	}
	defer logger.Sync()

	args := withoutEnvArg(os.Args[1:])
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	api, err := client.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create api client:", err)
		return 1
	}
	if closer, ok := api.(io.Closer); ok {
		defer closer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(api, cfg, os.Stdin, os.Stdout).run(ctx, args); err != nil {
		if client.IsUnauthorized(err) {
			fmt.Fprintln(os.Stderr, "not logged in or session expired, run: console login")
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		return 1
	}
	return 0
}

func withoutEnvArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if strings.HasPrefix(a, "--env=") {
			continue
		}
		out = append(out, a)
	}
	return out
}
