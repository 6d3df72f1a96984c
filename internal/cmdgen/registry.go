package cmdgen

import (
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// Registry maps command names to their ready-to-parse commands. It is
// built once at process start and read-only afterwards.
type Registry struct {
	commands map[string]*Command
	names    []string
}

// Command is one generated sub-command: the introspected descriptor, its
// flag set, and the value holders the flags write into.
type Command struct {
	Desc CommandDesc

	flagSet *flag.FlagSet
	verbose countValue
	params  map[string]*paramState
	usage   string
}

type paramState struct {
	desc ParamDesc
	set  bool
	val  interface{}
}

// Build constructs the registry for the given method table. It returns
// an error on duplicate command names or duplicate parameter names,
// which indicate a malformed table. Building twice from the same table
// yields structurally identical descriptors.
func Build(log hclog.Logger, prog string, specs []MethodSpec) (*Registry, error) {
	r := &Registry{commands: make(map[string]*Command, len(specs))}
	for _, spec := range specs {
		desc := Introspect(log, spec)
		if _, dup := r.commands[desc.Name]; dup {
			return nil, errors.Errorf("duplicate command %q", desc.Name)
		}

		cmd := &Command{
			Desc:    desc,
			flagSet: flag.NewFlagSet(desc.Name, flag.ContinueOnError),
			params:  make(map[string]*paramState, len(desc.Params)),
		}
		cmd.flagSet.Var(&cmd.verbose, "verbose", "verbosity level (1-3)")
		cmd.flagSet.Var(&cmd.verbose, "v", "verbosity level (1-3)")

		for _, pd := range desc.Params {
			if _, dup := cmd.params[pd.Name]; dup {
				return nil, errors.Errorf("command %q declares parameter %q twice", desc.Name, pd.Name)
			}
			state := &paramState{desc: pd}
			cmd.params[pd.Name] = state

			if pd.Coercion.Kind == KindBool {
				cmd.flagSet.Var(&toggleValue{state: state}, pd.Flag, pd.Help)
				cmd.flagSet.Var(&toggleValue{state: state, invert: true}, "no-"+pd.Flag, pd.Help)
				if pd.Short != "" {
					cmd.flagSet.Var(&toggleValue{state: state}, pd.Short, pd.Help)
				}
				continue
			}
			cmd.flagSet.Var(&coerceValue{state: state}, pd.Flag, pd.Help)
			if pd.Short != "" {
				cmd.flagSet.Var(&coerceValue{state: state}, pd.Short, pd.Help)
			}
		}

		cmd.usage = buildUsage(prog, desc)
		r.commands[desc.Name] = cmd
		r.names = append(r.names, desc.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Lookup returns the command registered under the given name.
func (r *Registry) Lookup(name string) (*Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Names returns all command names in sorted order.
func (r *Registry) Names() []string {
	return r.names
}

// Descriptors returns the command descriptors in sorted name order.
func (r *Registry) Descriptors() []CommandDesc {
	descs := make([]CommandDesc, 0, len(r.names))
	for _, name := range r.names {
		descs = append(descs, r.commands[name].Desc)
	}
	return descs
}

// FlagSet exposes the command's flag set so the caller can attach shared
// flags and redirect its output before parsing.
func (c *Command) FlagSet() *flag.FlagSet {
	return c.flagSet
}

// Parse parses the command's flags. Coercion failures (malformed UUIDs,
// values outside a choice set, unparsable numbers) surface here, before
// any dispatch work happens.
func (c *Command) Parse(args []string) error {
	return c.flagSet.Parse(args)
}

// Verbosity returns how many times -v/--verbose was given.
func (c *Command) Verbosity() int {
	return int(c.verbose)
}

// Usage returns the command's usage text. The text is a format string:
// doc-derived content had its percent characters escaped at introspection
// time, so it must be rendered with Fprintf.
func (c *Command) Usage() string {
	return c.usage
}

// Collect gathers one value per declared parameter: the parsed value if
// the flag was given, the registered default otherwise. It fails if any
// required flag is missing.
func (c *Command) Collect() (Values, error) {
	vals := make(Values, len(c.params))
	var missing []string
	for _, pd := range c.Desc.Params {
		state := c.params[pd.Name]
		switch {
		case state.set:
			vals[pd.Name] = state.val
		case pd.Required:
			missing = append(missing, "--"+pd.Flag)
		case pd.Default == None:
			vals[pd.Name] = nil
		default:
			vals[pd.Name] = pd.Default
		}
	}
	if len(missing) > 0 {
		return nil, errors.Errorf("missing required arguments: %s", strings.Join(missing, ", "))
	}
	return vals, nil
}

// Values holds the collected arguments of one invocation, keyed by
// canonical parameter name.
type Values map[string]interface{}

// String returns a required string argument. It panics on a name or kind
// mismatch: runners are authored against the same table the registry is
// built from, so a mismatch is a programming error.
func (v Values) String(name string) string {
	return v[name].(string)
}

// OptString returns an optional string argument, nil when absent.
func (v Values) OptString(name string) *string {
	if v[name] == nil {
		return nil
	}
	s := v[name].(string)
	return &s
}

func (v Values) Int(name string) int {
	return v[name].(int)
}

func (v Values) Float(name string) float64 {
	return v[name].(float64)
}

func (v Values) Bool(name string) bool {
	return v[name].(bool)
}

// coerceValue adapts a parameter's coercion rule to the flag.Value
// interface. Long and short spellings share the same state, so either
// form produces the same collected value.
type coerceValue struct {
	state *paramState
}

func (c *coerceValue) String() string {
	if c == nil || c.state == nil || !c.state.set {
		return ""
	}
	return fmt.Sprint(c.state.val)
}

func (c *coerceValue) Set(raw string) error {
	val, err := coerce(c.state.desc.Coercion, raw)
	if err != nil {
		return err
	}
	c.state.val = val
	c.state.set = true
	return nil
}

func coerce(co Coercion, raw string) (interface{}, error) {
	switch co.Kind {
	case KindString:
		return raw, nil
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.Errorf("invalid integer value: %q", raw)
		}
		return n, nil
	case KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.Errorf("invalid float value: %q", raw)
		}
		return f, nil
	case KindUUID:
		// Canonical hyphenated form only; the value stays a string so it
		// serializes as one.
		if _, err := uuid.Parse(raw); err != nil || len(raw) != 36 {
			return nil, errors.Errorf("invalid UUID value: %q", raw)
		}
		return raw, nil
	case KindChoice:
		for _, choice := range co.Choices {
			if raw == choice {
				return coerce(Coercion{Kind: co.Elem}, raw)
			}
		}
		return nil, errors.Errorf("invalid choice: %q (choose from %s)", raw, strings.Join(co.Choices, ", "))
	default:
		return nil, errors.Errorf("unhandled coercion kind %v", co.Kind)
	}
}

// toggleValue implements the boolean toggle: the plain flag stores true,
// the no- form stores false.
type toggleValue struct {
	state  *paramState
	invert bool
}

func (t *toggleValue) String() string { return "" }

func (t *toggleValue) IsBoolFlag() bool { return true }

func (t *toggleValue) Set(raw string) error {
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return errors.Errorf("invalid boolean value: %q", raw)
	}
	if t.invert {
		b = !b
	}
	t.state.val = b
	t.state.set = true
	return nil
}

// countValue counts flag occurrences, for the repeatable verbosity flag.
type countValue int

func (c *countValue) String() string { return strconv.Itoa(int(*c)) }

func (c *countValue) IsBoolFlag() bool { return true }

func (c *countValue) Set(string) error {
	*c++
	return nil
}

// RenderUsage writes a usage format string to w, interpreting the
// percent escapes applied to doc-derived lines at introspection time.
func RenderUsage(w io.Writer, usage string) {
	fmt.Fprint(w, strings.ReplaceAll(usage, "%%", "%"))
}

// buildUsage renders a command's usage text once, grouping required and
// optional flags the way the generated parser declares them.
func buildUsage(prog string, desc CommandDesc) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Usage of '%s %s':\n", prog, desc.Name)
	if desc.Help != "" {
		b.WriteString("\n" + desc.Help + "\n")
	}

	var required, optional []ParamDesc
	for _, pd := range desc.Params {
		if pd.Required {
			required = append(required, pd)
		} else {
			optional = append(optional, pd)
		}
	}
	writeGroup := func(title string, params []ParamDesc) {
		if len(params) == 0 {
			return
		}
		b.WriteString("\n" + title + ":\n")
		for _, pd := range params {
			b.WriteString("  " + flagSpelling(pd) + "\n")
			if help := flagHelp(pd); help != "" {
				b.WriteString("    \t" + help + "\n")
			}
		}
	}
	writeGroup("Required arguments", required)
	writeGroup("Optional arguments", optional)

	b.WriteString("\nGeneral:\n  --verbose, -v\n    \tverbosity level (1-3), repeatable\n")
	return b.String()
}

func flagSpelling(pd ParamDesc) string {
	s := "--" + pd.Flag
	if pd.Coercion.Kind == KindBool {
		s += " / --no-" + pd.Flag
	}
	if pd.Short != "" {
		s += ", -" + pd.Short
	}
	return s
}

func flagHelp(pd ParamDesc) string {
	help := pd.Help
	if pd.Coercion.Kind == KindChoice {
		choices := "(one of: " + strings.Join(pd.Coercion.Choices, ", ") + ")"
		if help == "" {
			help = choices
		} else {
			help += " " + choices
		}
	}
	if !pd.Required && pd.Default != None && pd.Default != nil {
		help += fmt.Sprintf(" (default %v)", pd.Default)
	}
	return strings.TrimSpace(help)
}
