// Command library is a terminal client for the library management API.
//
//	library [-o text|json|yaml] [-env-file FILE] COMMAND [flags] [args]
//
// Configuration comes from the environment, see Config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/libraryclient/pkg/apiclient"
	"github.com/dmitrymomot/libraryclient/pkg/guard"
	"github.com/dmitrymomot/libraryclient/pkg/logger"
	"github.com/dmitrymomot/libraryclient/pkg/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, loadConfig)
	stop()
	os.Exit(code)
}

type configLoader func(envFiles ...string) (Config, error)

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, load configLoader) int {
	global := flag.NewFlagSet("library", flag.ContinueOnError)
	global.SetOutput(stderr)
	format := global.String("o", FormatText, "output format: text, json or yaml")
	envFile := global.String("env-file", "", "load variables from this .env file")
	global.Usage = func() { usage(stderr) }
	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if global.NArg() == 0 || global.Arg(0) == "help" {
		usage(stderr)
		if global.NArg() == 0 {
			return 2
		}
		return 0
	}
	cmd, ok := lookup(global.Arg(0))
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", global.Arg(0))
		usage(stderr)
		return 2
	}

	out, err := newPrinter(stdout, *format)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := load(files...)
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 1
	}

	a, err := newApp(ctx, cfg, out, stdin, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.log.WarnContext(ctx, "close failed", logger.Error(err))
		}
	}()

	// a stored credential is resolved before any command runs
	if _, err := a.session.Wait(ctx); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if err := guard.Check(cmd.capability, a.session); err != nil {
		return report(ctx, a, stderr, err)
	}

	if err := cmd.run(ctx, a, global.Args()[1:]); err != nil {
		return report(ctx, a, stderr, err)
	}
	return 0
}

// report prints err for humans and returns the exit code.
func report(ctx context.Context, a *app, stderr io.Writer, err error) int {
	a.log.DebugContext(ctx, "command failed", logger.Error(err))

	var sessErr *session.Error
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintln(stderr, "error:", err)
		return 2
	case errors.Is(err, guard.ErrLoginRequired):
		fmt.Fprintln(stderr, "error: you are not signed in, run: library login")
	case errors.Is(err, guard.ErrForbidden), errors.Is(err, apiclient.ErrForbidden):
		fmt.Fprintln(stderr, "error: this command requires an administrator")
	case errors.As(err, &sessErr):
		fmt.Fprintln(stderr, "error:", sessErr.Message)
	case errors.Is(err, apiclient.ErrUnauthorized):
		fmt.Fprintln(stderr, "error: session expired, run: library login")
	case apiclient.Message(err) != "":
		fmt.Fprintln(stderr, "error:", apiclient.Message(err))
	default:
		fmt.Fprintln(stderr, "error:", err)
	}
	return 1
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: library [-o text|json|yaml] [-env-file FILE] COMMAND [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands {
		line := c.name
		if c.usage != "" {
			line += " " + c.usage
		}
		fmt.Fprintf(w, "  %-18s %s", c.name, c.summary)
		if c.capability != guard.None {
			fmt.Fprintf(w, " [%s]", c.capability)
		}
		fmt.Fprintln(w)
		if c.usage != "" {
			fmt.Fprintf(w, "  %-18s   %s\n", "", line)
		}
	}
}
