package yml

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

type document struct {
	Name  string `yaml:"name" validate:"required"`
	Count int    `yaml:"count" validate:"gte=0"`
}

func TestDecode(t *testing.T) {
	testCases := []struct {
		description string
		input       string
		expect      document
		expectErr   bool
	}{
		{description: "valid", input: "name: a\ncount: 2\n", expect: document{Name: "a", Count: 2}},
		{description: "empty", input: ""},
		{description: "unknown field", input: "name: a\nother: 1\n", expectErr: true},
		{description: "malformed", input: "name: [", expectErr: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			var actual document
			err := Decode([]byte(testCase.input), &actual)
			if testCase.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.expect, actual)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "doc.yaml")
	require.NoError(t, os.WriteFile(location, []byte("name: loaded\n"), 0o644))

	var actual document
	require.NoError(t, Load(context.Background(), afs.New(), location, &actual))
	assert.Equal(t, "loaded", actual.Name)
	assert.NoError(t, Validator().Struct(&actual))

	err := Load(context.Background(), nil, filepath.Join(dir, "missing.yaml"), &actual)
	assert.Error(t, err)
}

func TestValidator(t *testing.T) {
	assert.Same(t, Validator(), Validator())
	assert.Error(t, Validator().Struct(&document{Count: -1}))
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("LABFLOW_A", "1")
	t.Setenv("LABFLOW_B", "2")
	testCases := []struct {
		description string
		input       string
		expect      string
	}{
		{description: "plain", input: "just text", expect: "just text"},
		{description: "single", input: "seed: ${env.LABFLOW_A}", expect: "seed: 1"},
		{description: "repeated", input: "${env.LABFLOW_A}-${env.LABFLOW_B}-${env.LABFLOW_A}", expect: "1-2-1"},
		{description: "unset", input: "x=${env.LABFLOW_UNSET}.", expect: "x=."},
		{description: "malformed name", input: "start ${env.X and ${env.LABFLOW_B} end", expect: "start ${env.X and 2 end"},
		{description: "unterminated", input: "a ${env.LABFLOW_A", expect: "a ${env.LABFLOW_A"},
		{description: "empty name", input: "oops ${env.} done", expect: "oops  done"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			assert.Equal(t, testCase.expect, ExpandEnv(testCase.input))
		})
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("LABFLOW_DOC_NAME", "from-env")
	location := filepath.Join(t.TempDir(), "doc.yaml")
	require.NoError(t, os.WriteFile(location, []byte("name: ${env.LABFLOW_DOC_NAME}\ncount: 3\n"), 0o644))
	var doc document
	require.NoError(t, Load(context.Background(), afs.New(), location, &doc))
	assert.Equal(t, document{Name: "from-env", Count: 3}, doc)
}
