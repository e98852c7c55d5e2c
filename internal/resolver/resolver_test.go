package resolver

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"aya/internal/word"
)

func mapLoader(files map[string]string) Loader {
	return LoaderFunc(func(path string) (string, error) {
		src, ok := files[path]
		if !ok {
			return "", fmt.Errorf("no such module: %s", path)
		}
		return src, nil
	})
}

func TestResolveSingleModuleConstants(t *testing.T) {
	code := "const limit = $00ff\n+const shared = $0010\n"
	modules, err := Resolve(code, "main.aya", mapLoader(nil))
	require.NoError(t, err)
	require.Len(t, modules.List, 1)

	main := modules.List[0]
	require.Equal(t, word.Word(0x00ff), main.Symbols["limit"])
	require.Equal(t, word.Word(0x0010), main.Symbols["shared"])
}

func TestResolveRejectsOutOfRangeConstant(t *testing.T) {
	code := "const bad = $1FFFFF\n"
	_, err := Resolve(code, "main.aya", mapLoader(nil))
	require.Error(t, err)
}

func TestResolveImportWithResolvedVariables(t *testing.T) {
	main := `const seed = $0042
import "math.aya" Math &[$4000] {
	scale: !seed,
	bias: $0001
}
`
	mathSrc := "const unused = $0000\n"
	modules, err := Resolve(main, "main.aya", mapLoader(map[string]string{
		"math.aya": mathSrc,
	}))
	require.NoError(t, err)
	require.Len(t, modules.List, 2)

	mainModule := modules.List[0]
	require.Len(t, mainModule.Imports, 1)
	require.Equal(t, "math.aya", mainModule.Imports[0])

	mathModule := modules.List[1]
	require.Equal(t, "Math", mathModule.Name)
	require.NotNil(t, mathModule.Variables)
	scale := mathModule.Variables["scale"]
	require.True(t, scale.IsResolved)
	require.Equal(t, word.Word(0x0042), scale.Value)

	bias := mathModule.Variables["bias"]
	require.True(t, bias.IsResolved)
	require.Equal(t, word.Word(0x0001), bias.Value)
}

func TestResolveImportWithFieldAccessor(t *testing.T) {
	main := `import "a.aya" A &[$1000] {}
import "b.aya" B &[$2000] {
	value: [A.exported]
}
`
	modules, err := Resolve(main, "main.aya", mapLoader(map[string]string{
		"a.aya": "+const exported = $0099\n",
		"b.aya": "const unused = $0000\n",
	}))
	require.NoError(t, err)
	require.Len(t, modules.List, 3)

	b := modules.List[2]
	require.Equal(t, "B", b.Name)
	value := b.Variables["value"]
	require.False(t, value.IsResolved)
	require.Equal(t, "A", value.ModuleName)
	require.Equal(t, "exported", value.FieldName)
}

func TestResolveUndefinedImportVariableFails(t *testing.T) {
	main := `import "math.aya" Math &[$4000] {
	scale: !missing
}
`
	_, err := Resolve(main, "main.aya", mapLoader(map[string]string{
		"math.aya": "const unused = $0000\n",
	}))
	require.Error(t, err)
}

func TestResolveDuplicateImportVariableFails(t *testing.T) {
	main := `import "math.aya" Math &[$4000] {
	x: $0001,
	x: $0002
}
`
	_, err := Resolve(main, "main.aya", mapLoader(map[string]string{
		"math.aya": "const unused = $0000\n",
	}))
	require.Error(t, err)
}

func TestResolveDiamondImportVisitsOnce(t *testing.T) {
	main := `import "left.aya" Left &[$1000] {}
import "right.aya" Right &[$2000] {}
`
	left := `import "shared.aya" Shared &[$3000] {}
`
	right := `import "shared.aya" Shared &[$3100] {}
`
	modules, err := Resolve(main, "main.aya", mapLoader(map[string]string{
		"left.aya":   left,
		"right.aya":  right,
		"shared.aya": "const x = $0001\n",
	}))
	require.NoError(t, err)
	require.Len(t, modules.List, 4)
}

func TestResolveCyclicImportFails(t *testing.T) {
	main := `import "a.aya" A &[$1000] {}
`
	a := `import "main.aya" Main &[$2000] {}
`
	_, err := Resolve(main, "main.aya", mapLoader(map[string]string{
		"a.aya":    a,
		"main.aya": main,
	}))
	require.Error(t, err)
}
