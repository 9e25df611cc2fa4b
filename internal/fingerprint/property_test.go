//go:build property
// +build property

package fingerprint

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestFileSetHashPermutationProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("file set hash ignores order", prop.ForAll(
		func(contents []string) bool {
			forward := make([][]byte, len(contents))
			reverse := make([][]byte, len(contents))
			for i, c := range contents {
				forward[i] = []byte(c)
				reverse[len(contents)-1-i] = []byte(c)
			}
			return FileSetHash(forward) == FileSetHash(reverse)
		},
		gen.SliceOf(gen.AnyString()),
	))

	properties.Property("only the empty set hashes to the sentinel", prop.ForAll(
		func(contents []string) bool {
			files := make([][]byte, len(contents))
			for i, c := range contents {
				files[i] = []byte(c)
			}
			return (FileSetHash(files) == Empty) == (len(files) == 0)
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

func TestCompositeHashMapOrderProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("composite hash is independent of insertion order", prop.ForAll(
		func(keys []string, values []string) bool {
			forward := make(map[string]any)
			backward := make(map[string]any)
			n := len(keys)
			if len(values) < n {
				n = len(values)
			}
			for i := 0; i < n; i++ {
				forward[keys[i]] = values[i]
			}
			for i := n - 1; i >= 0; i-- {
				if _, seen := backward[keys[i]]; !seen {
					backward[keys[i]] = forward[keys[i]]
				}
			}
			h1, err1 := CompositeHash("primary", forward)
			h2, err2 := CompositeHash("primary", backward)
			if err1 != nil || err2 != nil {
				return false
			}
			return h1 == h2
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
