package input

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/term"
)

type readWriter struct {
	io.Reader
	io.Writer
}

func withTerminal(t *testing.T, in string) *bytes.Buffer {
	out := new(bytes.Buffer)
	Terminal = term.NewTerminal(readWriter{bytes.NewBufferString(in), out}, "")
	t.Cleanup(func() { Terminal = nil })
	return out
}

func TestReadLine(t *testing.T) {
	out := withTerminal(t, "hello\r")
	s, err := ReadLine(io.Discard, "Enter > ")
	require.NoError(t, err)
	require.Equal(t, "hello", s)
	require.Contains(t, out.String(), "Enter > ")
}

func TestReadPassword(t *testing.T) {
	out := withTerminal(t, "//Alice\r")
	s, err := ReadPassword(io.Discard, "Secret > ")
	require.NoError(t, err)
	require.Equal(t, "//Alice", s)
	require.NotContains(t, out.String(), "//Alice")
}

func TestReadLineEOF(t *testing.T) {
	withTerminal(t, "")
	_, err := ReadLine(io.Discard, "> ")
	require.ErrorIs(t, err, io.EOF)
}
