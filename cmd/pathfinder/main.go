// Command pathfinder edits a remote weighted graph and runs breadth-first
// traversal and shortest-path queries against it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"pathfinder/internal/config"
	"pathfinder/internal/domain"
)

// errUsage marks a command line that could not be understood
var errUsage = errors.New("usage error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// globalOptions are the flags accepted before the command name
type globalOptions struct {
	configPath string
	apiURL     string
	output     string
	yes        bool
}

// run parses the command line and executes one command
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var opts globalOptions

	fs := flag.NewFlagSet("pathfinder", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "config file (default: search standard locations)")
	fs.StringVar(&opts.apiURL, "api", "", "backend URL, overrides the config file")
	fs.StringVar(&opts.output, "o", "text", "output format: text, json or yaml")
	fs.BoolVar(&opts.yes, "yes", false, "answer yes to confirmation prompts")
	fs.Usage = func() { printUsage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() == 0 {
		printUsage(stderr, fs)
		return fmt.Errorf("%w: no command given", errUsage)
	}
	if !validOutput(opts.output) {
		return fmt.Errorf("%w: unknown output format %q", errUsage, opts.output)
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}

	cfg, cfgPath, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.apiURL != "" {
		cfg.API.URL = strings.TrimRight(opts.apiURL, "/")
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	a, err := newApp(cfg, cfgPath, opts, stdin, stdout, stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	return cmd.run(ctx, a, fs.Args()[1:])
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: pathfinder [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %s\n", name, commands[name].summary)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fs.PrintDefaults()
}

// describe renders err for the terminal, adding a hint where the fix is a
// known command
func describe(err error) string {
	msg := err.Error()
	switch domain.KindOf(err) {
	case domain.KindSessionExpired:
		return msg + " (run 'pathfinder login')"
	case domain.KindBusy:
		return msg + " (another request is in flight)"
	}
	return msg
}
