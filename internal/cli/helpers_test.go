package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tyinfer/internal/engine"
)

var (
	testSpecsDir     = filepath.Join("..", "..", "testdata", "specs")
	testScenariosDir = filepath.Join("..", "..", "testdata", "scenarios")
)

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeSpec writes a CUE file into dir, creating dir if needed.
func writeSpec(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

// decodeResponse decodes a CLIResponse whose data is of type T.
func decodeResponse[T any](t *testing.T, out string) (CLIResponse, T) {
	t.Helper()
	var raw struct {
		CLIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw))

	var data T
	if len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, &data))
	}
	return raw.CLIResponse, data
}

// solveInto records covariantUpper sessions with the given IDs into dbPath.
func solveInto(t *testing.T, dbPath string, ids ...string) {
	t.Helper()
	for _, id := range ids {
		cmd := newSolveCommand(&RootOptions{Format: "text"}, engine.NewFixedGenerator(id))
		_, err := execute(t, cmd, testSpecsDir, "--problem", "covariantUpper", "--db", dbPath)
		require.NoError(t, err)
	}
}

const covariantSpec = `
package test

problem: covariantUpper: {
	constructors: {
		Any: {}
		Int: supertypes: ["Any"]
		List: {
			params: [{name: "E", variance: "out"}]
			supertypes: ["Any"]
		}
	}
	variables: {
		T: {}
		R: local: true
	}
	constraints: [
		{sub: "T", super: "List<R>", position: "receiver"},
		{sub: "R", super: "Int"},
	]
}
`
