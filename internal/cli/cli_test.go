package cli_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/illuscio-dev/spanmarshal-go/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(test *testing.T, input string, args ...string) (string, error) {
	cmd := cli.NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommands(test *testing.T) {
	names := make([]string, 0)
	for _, cmd := range cli.NewRootCommand().Commands() {
		names = append(names, cmd.Name())
	}
	assert.Subset(test, names, []string{"convert", "schema", "formats"})
}

func TestConvertJSONToXML(test *testing.T) {
	out, err := run(test, `{"b":"x","a":1}`, "convert", "--from", "json", "--to", "xml")
	require.NoError(test, err)
	assert.Equal(test, "<object><a>1</a><b>x</b></object>", out)
}

func TestConvertSniffsInput(test *testing.T) {
	out, err := run(test, `{"name":"Ann"}`, "convert", "--to", "nt")
	require.NoError(test, err)
	assert.Equal(
		test, `_:b1 <http://illuscio.com/spanmarshal/property/name> "Ann" .`+"\n", out,
	)
}

func TestConvertFiles(test *testing.T) {
	assert := assert.New(test)

	dir := test.TempDir()
	inPath := filepath.Join(dir, "in.xml")
	outPath := filepath.Join(dir, "out.yaml")
	require.NoError(test, os.WriteFile(inPath, []byte("<object><a>x</a></object>"), 0o600))

	out, err := run(test, "", "convert", inPath, "--from", "xml", "--to", "yaml", "--out", outPath)
	require.NoError(test, err)
	assert.Empty(out)

	written, err := os.ReadFile(outPath)
	require.NoError(test, err)
	assert.Equal("a: x\n", string(written))
}

func TestConvertErrors(test *testing.T) {
	assert := assert.New(test)

	_, err := run(test, "{}", "convert", "--from", "json", "--to", "csv")
	assert.EqualError(err, "cannot encode csv")

	_, err = run(test, "{}", "convert", "--from", "ttl", "--to", "json")
	assert.EqualError(err, "cannot decode text/turtle")

	_, err = run(test, "", "convert", filepath.Join(test.TempDir(), "missing.json"))
	assert.Error(err)
}

func TestSchemaCommand(test *testing.T) {
	assert := assert.New(test)

	out, err := run(test, `{"a":"x"}`, "schema", "--from", "json")
	require.NoError(test, err)
	assert.Contains(out, `<schema xmlns="http://www.w3.org/2001/XMLSchema"`)

	out, err = run(test, `{"a":"x"}`, "schema", "--from", "json", "--to", "schema")
	require.NoError(test, err)
	assert.True(strings.HasPrefix(out, `{"type":"object"`))

	_, err = run(test, `{"a":"x"}`, "schema", "--to", "json")
	assert.EqualError(err, "schema format must be xsd or schema, got: json")
}

func TestFormatsCommand(test *testing.T) {
	out, err := run(test, "", "formats")
	require.NoError(test, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(test, lines, 9)
	assert.Contains(test, out, "application/json           encode, decode\n")
	assert.Contains(test, out, "text/turtle                encode\n")
}
