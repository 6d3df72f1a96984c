package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"github.com/ao-picterra/pycterra-cli/internal/api"
	"github.com/ao-picterra/pycterra-cli/internal/cmderrors"
	"github.com/ao-picterra/pycterra-cli/internal/cmdgen"
	"github.com/ao-picterra/pycterra-cli/internal/picterra"
)

// commandRun invokes one client method with the collected argument
// values. Runners are registered per snake_case method name, alongside
// the method table the registry is built from.
type commandRun func(ctx context.Context, client *picterra.Client, args cmdgen.Values) (interface{}, error)

// cli ties the generated command registry to the runners and the
// process-level configuration. It holds no per-invocation state.
type cli struct {
	registry *cmdgen.Registry
	runners  map[string]commandRun
	apiFlags map[string]*api.Flags
	cfg      *config
	out      io.Writer
	errOut   io.Writer
	log      hclog.Logger
}

// newCLI builds the command registry from the method table and wires the
// shared API flags into every generated flag set. It fails on a
// malformed table, including a method without a registered runner.
func newCLI(cfg *config, out, errOut io.Writer) (*cli, error) {
	c := &cli{
		runners:  runners,
		apiFlags: make(map[string]*api.Flags),
		cfg:      cfg,
		out:      out,
		errOut:   errOut,
		log:      newLogger(hclog.Error, errOut),
	}

	registry, err := cmdgen.Build(c.log, prog, apiMethods)
	if err != nil {
		return nil, err
	}
	c.registry = registry

	for _, name := range registry.Names() {
		cmd, _ := registry.Lookup(name)
		if _, ok := c.runners[cmd.Desc.Method]; !ok {
			return nil, errors.Errorf("method %q has no registered runner", cmd.Desc.Method)
		}
		c.apiFlags[name] = api.NewFlags(cmd.FlagSet())
		cmd.FlagSet().SetOutput(errOut)
		usage := cmd.Usage()
		cmd.FlagSet().Usage = func() {
			cmdgen.RenderUsage(errOut, usage)
		}
	}
	return c, nil
}

// run matches the first argument to a command, parses its flags, and
// dispatches. The returned error is a cmderrors type carrying the exit
// code; nil means success.
func (c *cli) run(args []string) error {
	if len(args) == 0 || args[0] == "help" {
		cmdgen.RenderUsage(c.out, c.usageText())
		return nil
	}

	name := args[0]
	cmd, ok := c.registry.Lookup(name)
	if !ok {
		return cmderrors.ExitCode(1, errors.Errorf("%s: unknown command %q\nRun '%s help' for usage.", prog, name, prog))
	}

	// Coercion failures (bad UUIDs, out-of-set choices, unparsable
	// numbers) surface here; the flag set has already reported them.
	if err := cmd.Parse(args[1:]); err != nil {
		return cmderrors.ExitCode(2, nil)
	}

	if err := c.dispatch(context.Background(), cmd); err != nil {
		var usageErr *cmderrors.UsageError
		if stderrors.As(err, &usageErr) {
			fmt.Fprintf(c.errOut, "error: %s\n\n", usageErr.Message)
			cmdgen.RenderUsage(c.errOut, cmd.Usage())
			return cmderrors.ExitCode(2, nil)
		}
		return err
	}
	return nil
}

// dispatch executes a parsed command: verbosity, credential check,
// client construction, argument collection, invocation, rendering. All
// failures are classified here and nowhere below.
func (c *cli) dispatch(ctx context.Context, cmd *cmdgen.Command) error {
	c.applyVerbosity(cmd.Verbosity())
	c.log.Debug("handling command", "command", cmd.Desc.Name)

	// The credential gate runs before any network-capable object is
	// constructed, for every command.
	if c.cfg.APIKey == "" {
		c.log.Error("missing API key")
		return cmderrors.ExitCode(1, errors.Errorf("Missing '%s' environment variable", apiKeyEnvVar))
	}

	client := picterra.NewClient(api.NewClient(api.ClientOpts{
		Endpoint: c.cfg.Endpoint,
		APIKey:   c.cfg.APIKey,
		Flags:    c.apiFlags[cmd.Desc.Name],
		Out:      c.errOut,
	}))
	c.log.Debug("instantiated API client", "endpoint", c.cfg.Endpoint)

	args, err := cmd.Collect()
	if err != nil {
		return cmderrors.Usage(err.Error())
	}

	c.log.Info("executing", "command", cmd.Desc.Name, "args", fmt.Sprintf("%v", args))
	result, err := c.runners[cmd.Desc.Method](ctx, client, args)
	if err == nil {
		if page, ok := result.(*picterra.ResultsPage); ok {
			var items []interface{}
			if items, err = page.Collect(ctx); err == nil {
				result = items
			}
		}
	}
	if err != nil {
		if picterra.IsClientError(err) {
			c.log.Error("got error from API", "err", err)
			return cmderrors.ExitCode(1, err)
		}
		// Unexpected failures still fail the invocation; absorbing them
		// would hide real bugs.
		c.log.Error("unexpected failure", "err", err)
		return cmderrors.ExitCode(1, err)
	}

	if result == nil {
		c.log.Info("method did not return anything")
		return nil
	}
	c.log.Info("method returned something")
	return render(c.out, result)
}

// applyVerbosity sets the process-wide logging severity from the
// repeatable -v flag count. It is not restored afterwards; the process
// exits after one invocation.
func (c *cli) applyVerbosity(count int) {
	var level hclog.Level
	switch {
	case count >= 3:
		level = hclog.Trace
	case count == 2:
		level = hclog.Info
	case count == 1:
		level = hclog.Warn
	default:
		level = hclog.Error
	}
	c.log = newLogger(level, c.errOut)
	hclog.SetDefault(c.log)
	c.log.Debug("logging level set", "level", level.String())
}

func newLogger(level hclog.Level, out io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   prog,
		Level:  level,
		Output: out,
	})
}

// usageText renders the top-level help from the registry. The result is
// printed with Fprintf: command help lines had their percent characters
// escaped at introspection time.
func (c *cli) usageText() string {
	b := fmt.Sprintf(`%[1]s is a command-line client for the Picterra API.

Usage:

	%[1]s [options] command [command options]

The options are:

	-version	print the version and exit
	-endpoint=	the API endpoint to use (overrides $%[2]s)
	-config=	a JSON configuration file {"apiKey": "<secret>", "endpoint": "..."}

The commands are:

`, prog, endpointEnvVar)
	for _, desc := range c.registry.Descriptors() {
		b += fmt.Sprintf("\t%-28s", desc.Name) + desc.Help + "\n"
	}
	b += fmt.Sprintf("\nUse \"%s <command> -h\" for more information about a command.\n", prog)
	return b
}
