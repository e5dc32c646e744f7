// Package override lets the reproduction CLI hand-edit a stored
// counterexample before re-running it: the user supplies a go-patch
// op-definition document (the same YAML shape cmd/graft's --go-patch flag
// parses), it is applied to the *decoded* value produced by a failing
// rep_key, and the patched value is re-encoded through Domain.Pickify to
// obtain a new rep_key — one layer up from where the engine's
// own edit machinery (pkg/pickcheck.Edits) works directly on the pick
// stream.
package override

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cppforlife/go-patch/patch"
	"github.com/geofffranks/yaml"
)

// Parse decodes a go-patch op-definition document into applyable Ops.
func Parse(doc []byte) (patch.Ops, error) {
	opdefs := []patch.OpDefinition{}
	if err := yaml.Unmarshal(doc, &opdefs); err != nil {
		return nil, fmt.Errorf("parsing override document: %w", err)
	}
	ops, err := patch.NewOpsFromDefinitions(opdefs)
	if err != nil {
		return nil, fmt.Errorf("building override ops: %w", err)
	}
	return ops, nil
}

// Apply patches value (the decoded result of a Domain.Build script, e.g. a
// map[string]interface{} from combinators.Object) with ops, returning the
// edited value. The caller re-encodes the result through the same Domain's
// Pickify to get a new reply sequence.
func Apply(ops patch.Ops, value interface{}) (interface{}, error) {
	out, err := ops.Apply(value)
	if err != nil {
		return nil, fmt.Errorf("applying override: %w", err)
	}
	return out, nil
}

// ParseSets turns repeated CLI "--set /path=value" flags into one Ops,
// each becoming a "replace" op-definition at the given go-patch path.
func ParseSets(args []string) (patch.Ops, error) {
	opdefs := make([]patch.OpDefinition, 0, len(args))
	for _, arg := range args {
		path, valStr, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid override %q: expected /path=value", arg)
		}
		var val interface{} = valStr
		if n, err := strconv.ParseInt(valStr, 10, 64); err == nil {
			val = int(n)
		} else if b, err := strconv.ParseBool(valStr); err == nil {
			val = b
		}
		opdefs = append(opdefs, patch.OpDefinition{Type: "replace", Path: &path, Value: &val})
	}
	return patch.NewOpsFromDefinitions(opdefs)
}
