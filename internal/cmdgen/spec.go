package cmdgen

import (
	"reflect"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// None is the default of an optional parameter that defaults to "no
// value". Collect resolves it to a nil argument when the flag is absent.
var None = &struct{ noValue bool }{true}

// MethodSpec describes one method of the upstream API client. Entries
// are authored once, mirroring the client's reference documentation: the
// doc block uses the same "name: description" lines as the upstream
// docstrings, which Introspect parses into per-flag help.
type MethodSpec struct {
	// Name is the snake_case method name; the command name is its
	// kebab-case form.
	Name string

	// Doc is the method's documentation block. The first line that does
	// not mention beta or experimental status becomes the command help.
	Doc string

	// Params lists the method's parameters in declaration order.
	Params []ParamSpec
}

// ParamSpec is one authored parameter.
type ParamSpec struct {
	// Name is the canonical snake_case parameter name.
	Name string

	// Type is the declared type (one of the Type* variables), or nil
	// when the upstream reference leaves the parameter untyped.
	Type reflect.Type

	// Default makes the parameter optional. nil means required; None
	// means optional with no value.
	Default interface{}

	// Literals is the closed set of permitted values, when the upstream
	// API declares one.
	Literals []interface{}
}

// CommandDesc is the introspected, immutable form of a MethodSpec.
type CommandDesc struct {
	Name   string // kebab-case command name
	Method string // snake_case method name
	Help   string // one-line help, may be empty
	Params []ParamDesc
}

// ParamDesc is one introspected parameter.
type ParamDesc struct {
	Name     string // canonical snake_case name
	Flag     string // kebab-case long flag name
	Short    string // single-letter alias, empty when none was assigned
	Required bool
	Default  interface{}
	Coercion Coercion
	Help     string // may be empty
}

// CommandName converts a snake_case method name to its kebab-case
// command name.
func CommandName(method string) string {
	return strings.ReplaceAll(method, "_", "-")
}

// MethodName converts a kebab-case command name back to the snake_case
// method it dispatches to.
func MethodName(command string) string {
	return strings.ReplaceAll(command, "-", "_")
}

// Introspect derives the command descriptor for one method spec. It is a
// pure function: introspecting the same spec twice yields structurally
// identical descriptors.
func Introspect(log hclog.Logger, spec MethodSpec) CommandDesc {
	desc := CommandDesc{
		Name:   CommandName(spec.Name),
		Method: spec.Name,
	}

	docLines := splitDocLines(spec.Doc)
	desc.Help = commandHelp(docLines)
	if desc.Help == "" {
		log.Warn("method has no help", "method", spec.Name)
	}

	shortOK := distinctInitials(spec.Params)
	for _, p := range spec.Params {
		coercion := Infer(log, p.Name, p.Type, p.Literals)
		pd := ParamDesc{
			Name:     p.Name,
			Flag:     CommandName(p.Name),
			Required: p.Default == nil,
			Default:  p.Default,
			Coercion: coercion,
			Help:     paramHelp(log, spec.Name, p.Name, docLines, coercion),
		}
		if shortOK && p.Name[0] != 'v' && p.Name[0] != 'h' {
			pd.Short = p.Name[:1]
		}
		desc.Params = append(desc.Params, pd)
	}
	return desc
}

// splitDocLines breaks a doc block into trimmed, non-empty lines with
// literal percent characters escaped, so the lines can later be embedded
// in usage text rendered through a format string.
func splitDocLines(doc string) []string {
	var lines []string
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, strings.ReplaceAll(line, "%", "%%"))
	}
	return lines
}

// commandHelp picks the first doc line that does not flag the method as
// unstable.
func commandHelp(docLines []string) string {
	for _, line := range docLines {
		if strings.Contains(line, "beta") || strings.Contains(line, "experimental") {
			continue
		}
		return line
	}
	return ""
}

// paramHelp finds the doc line describing a parameter ("name: text") and
// appends the coerced primitive type in brackets. A choice set carries
// its own value list, so it suppresses the type suffix.
func paramHelp(log hclog.Logger, method, param string, docLines []string, coercion Coercion) string {
	for _, line := range docLines {
		if !strings.HasPrefix(line, param) {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) < 2 {
			log.Warn("parameter doc line has no description", "method", method, "param", param, "line", line)
			return ""
		}
		help := strings.TrimSpace(parts[1])
		if suffix := typeSuffix(coercion); suffix != "" {
			help += " [" + suffix + "]"
		}
		return help
	}
	log.Warn("parameter has no help", "method", method, "param", param)
	return ""
}

func typeSuffix(c Coercion) string {
	switch c.Kind {
	case KindString, KindInt, KindFloat, KindUUID:
		return c.Kind.String()
	default:
		// Toggles and choice sets are self-describing.
		return ""
	}
}

// distinctInitials reports whether every parameter starts with a unique
// letter, the precondition for handing out single-letter aliases.
func distinctInitials(params []ParamSpec) bool {
	seen := make(map[byte]bool, len(params))
	for _, p := range params {
		if p.Name == "" || seen[p.Name[0]] {
			return false
		}
		seen[p.Name[0]] = true
	}
	return true
}
