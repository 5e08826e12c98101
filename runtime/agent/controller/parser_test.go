package controller

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skeinworks/skein/runtime/agent/event"
)

func TestJSONActionParserPlainObject(t *testing.T) {
	t.Parallel()

	p := JSONActionParser{}
	action, err := p.Parse(`{"action": "run_command", "args": {"command": "go test ./..."}}`)
	require.NoError(t, err)
	require.Equal(t, event.RunCommandAction{Command: "go test ./..."}, action)
}

func TestJSONActionParserFencedWithProse(t *testing.T) {
	t.Parallel()

	p := JSONActionParser{}
	text := "I will write the file now.\n```json\n" +
		`{"action": "write_file", "args": {"path": "main.go", "content": "package main"}}` +
		"\n```\nDone."
	action, err := p.Parse(text)
	require.NoError(t, err)
	require.Equal(t, event.WriteFileAction{Path: "main.go", Content: "package main"}, action)
}

func TestJSONActionParserNestedBraces(t *testing.T) {
	t.Parallel()

	p := JSONActionParser{}
	action, err := p.Parse(`{"action": "message", "args": {"content": "use {braces} and \"quotes\""}}`)
	require.NoError(t, err)
	require.Equal(t, event.MessageAction{Content: `use {braces} and "quotes"`}, action)
}

func TestJSONActionParserFinish(t *testing.T) {
	t.Parallel()

	p := JSONActionParser{}
	action, err := p.Parse(`{"action": "finish", "args": {"outputs": {"answer": "42"}}}`)
	require.NoError(t, err)
	require.Equal(t, event.FinishAction{Outputs: map[string]string{"answer": "42"}}, action)
}

func TestJSONActionParserErrors(t *testing.T) {
	t.Parallel()

	p := JSONActionParser{}

	cases := []struct {
		name string
		text string
	}{
		{"no json", "I think we should look at the tests first."},
		{"unknown kind", `{"action": "self_destruct", "args": {}}`},
		{"missing action field", `{"args": {"command": "ls"}}`},
		{"observation kind", `{"action": "command_output", "args": {}}`},
		{"condensation", `{"action": "condensation", "args": {}}`},
		{"unbalanced", `{"action": "message", "args": {"content": "oops"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := p.Parse(tc.text)
			require.Error(t, err)
		})
	}
}
