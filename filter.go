package treediff

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// OptionPrefilterExpr compiles src into a skip predicate with the expr
// language & returns the corresponding diff option. The expression is
// evaluated once per descent with two variables in scope:
//
//	path  the parent container's path as a list of keys & indexes
//	key   the key or index about to be descended
//
// A truthy result skips the subtree. Example: `key == "secret"` or
// `len(path) > 0 && path[0] == "metadata"`
func OptionPrefilterExpr(src string) (DiffOption, error) {
	program, err := expr.Compile(src,
		expr.Env(prefilterEnv{}),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compiling prefilter %q: %w", src, err)
	}
	return OptionPrefilter(exprPrefilter(program)), nil
}

type prefilterEnv struct {
	Path []any `expr:"path"`
	Key  any   `expr:"key"`
}

func exprPrefilter(program *vm.Program) func(path Path, key any) bool {
	return func(path Path, key any) bool {
		out, err := expr.Run(program, prefilterEnv{Path: path, Key: key})
		if err != nil {
			return false
		}
		skip, _ := out.(bool)
		return skip
	}
}
