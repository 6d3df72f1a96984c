// Package cmdgen turns a statically-authored description of an API
// client's method surface into ready-to-parse CLI commands: one flag set
// per method, one coercing flag per parameter.
//
// The original tool derived all of this by reflecting over the client's
// live signatures and docstrings at startup. Here the same facts are
// authored once as a table of MethodSpec values, which keeps the mapping
// checkable at compile time while preserving the derivation rules
// (coercion kinds, help lines, short aliases) that made the generated
// commands uniform.
package cmdgen

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-hclog"
)

// Kind is the rule used to turn a raw command-line string into a typed
// argument value.
type Kind int

const (
	// KindString passes the raw text through unchanged.
	KindString Kind = iota

	// KindInt parses the text as a base-10 integer.
	KindInt

	// KindFloat parses the text as a 64-bit float.
	KindFloat

	// KindBool is a boolean toggle: --flag sets true, --no-flag sets
	// false, absence keeps the default.
	KindBool

	// KindUUID validates the text as a canonical hyphenated UUID but
	// passes it onward as a plain string: the request encoder needs
	// primitive string values, not a box type.
	KindUUID

	// KindChoice restricts the value to a closed set of literals, each
	// coerced per the set's element kind.
	KindChoice
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindUUID:
		return "uuid"
	case KindChoice:
		return "choice"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Coercion is the resolved parsing rule for one parameter.
type Coercion struct {
	Kind Kind

	// Elem is the primitive kind of the literals when Kind is KindChoice.
	Elem Kind

	// Choices holds the permitted spellings when Kind is KindChoice.
	Choices []string
}

// Declared parameter types for authoring MethodSpec tables. A pointer
// type marks the parameter as also accepting an explicit "no value".
var (
	TypeString    = reflect.TypeOf("")
	TypeInt       = reflect.TypeOf(int(0))
	TypeFloat     = reflect.TypeOf(float64(0))
	TypeBool      = reflect.TypeOf(false)
	TypeOptString = reflect.PointerTo(TypeString)
	TypeOptInt    = reflect.PointerTo(TypeInt)
	TypeOptFloat  = reflect.PointerTo(TypeFloat)
	TypeOptBool   = reflect.PointerTo(TypeBool)
)

// idSuffix marks parameters whose string value must be a well-formed
// UUID, per the upstream API's naming convention.
const idSuffix = "_id"

// Infer decides the coercion rule for a parameter from its declared type
// (nil when the upstream reference leaves it untyped), its name, and an
// optional closed set of literal values. Unknown types degrade to raw
// strings with a diagnostic rather than failing the build.
func Infer(log hclog.Logger, name string, typ reflect.Type, literals []interface{}) Coercion {
	switch {
	case typ == nil && len(literals) == 0:
		log.Warn("parameter has no declared type", "param", name)
		return Coercion{Kind: KindString}
	case typ == TypeBool || typ == TypeOptBool:
		return Coercion{Kind: KindBool}
	case typ == TypeString && hasIDSuffix(name):
		return Coercion{Kind: KindUUID}
	case typ == TypeString:
		return Coercion{Kind: KindString}
	case typ == TypeInt:
		return Coercion{Kind: KindInt}
	case typ == TypeFloat:
		return Coercion{Kind: KindFloat}
	case typ != nil && typ.Kind() == reflect.Pointer:
		// Optional wrapper: use the inner type's kind directly. Note the
		// UUID naming rule applies to plain strings only.
		switch typ.Elem() {
		case TypeString:
			return Coercion{Kind: KindString}
		case TypeInt:
			return Coercion{Kind: KindInt}
		case TypeFloat:
			return Coercion{Kind: KindFloat}
		}
	case len(literals) > 0:
		if c, ok := inferChoice(literals); ok {
			return c
		}
	}
	log.Warn("parameter has an unhandled type, treating as untyped", "param", name, "type", fmt.Sprint(typ))
	return Coercion{Kind: KindString}
}

func hasIDSuffix(name string) bool {
	return len(name) > len(idSuffix) && name[len(name)-len(idSuffix):] == idSuffix
}

// inferChoice finds the common primitive kind of a literal set, testing
// int, then float, then string. A mixed set has no common kind.
func inferChoice(literals []interface{}) (Coercion, bool) {
	for _, elem := range []struct {
		kind Kind
		is   func(interface{}) bool
	}{
		{KindInt, func(v interface{}) bool { _, ok := v.(int); return ok }},
		{KindFloat, func(v interface{}) bool { _, ok := v.(float64); return ok }},
		{KindString, func(v interface{}) bool { _, ok := v.(string); return ok }},
	} {
		all := true
		for _, l := range literals {
			if !elem.is(l) {
				all = false
				break
			}
		}
		if !all {
			continue
		}
		choices := make([]string, len(literals))
		for i, l := range literals {
			choices[i] = fmt.Sprint(l)
		}
		return Coercion{Kind: KindChoice, Elem: elem.kind, Choices: choices}, true
	}
	return Coercion{}, false
}
