package stdlib

import (
	"encoding/hex"
	"fmt"

	"github.com/segmentio/fasthash/fnv1a"
	"github.com/zeebo/blake3"

	"aleng/internal/ast"
	"aleng/internal/runtime"
)

func hashFunc(name string, sum func(s string) string) runtime.NativeFunc {
	return func(ev *runtime.Evaluator, args []runtime.Value, call *ast.CallExpr) (runtime.Value, error) {
		if err := expectArgs(ev, call, name, args, 1); err != nil {
			return nil, err
		}
		s, err := stringArg(ev, call, name, args[0])
		if err != nil {
			return nil, err
		}
		return runtime.String(sum(s)), nil
	}
}

func newHashLibrary() *runtime.Library {
	return &runtime.Library{
		Functions: map[string]runtime.NativeFunc{
			"Blake3": hashFunc("Blake3", func(s string) string {
				digest := blake3.Sum256([]byte(s))
				return hex.EncodeToString(digest[:])
			}),
			"Fnv32": hashFunc("Fnv32", func(s string) string {
				return fmt.Sprintf("%08x", fnv1a.HashString32(s))
			}),
			"Fnv64": hashFunc("Fnv64", func(s string) string {
				return fmt.Sprintf("%016x", fnv1a.HashString64(s))
			}),
		},
	}
}
