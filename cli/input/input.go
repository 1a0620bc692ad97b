/*
Package input reads user input: lines and secrets, either from the
interactive terminal or from stdin when it's not a terminal.
*/
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Terminal is a terminal used for input. If `nil`, stdin is used.
var Terminal *term.Terminal

// stdin is shared between calls so that buffered input isn't lost.
var stdin = bufio.NewReader(os.Stdin)

// ReadLine reads line from the input without trailing '\n'.
func ReadLine(w io.Writer, prompt string) (string, error) {
	if Terminal != nil {
		_, err := Terminal.Write([]byte(prompt))
		if err != nil {
			return "", err
		}
		raw, err := Terminal.ReadLine()
		return strings.TrimRight(raw, "\r\n"), err
	}
	fmt.Fprint(w, prompt)
	line, err := stdin.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadPassword reads user password with prompt. Echo is disabled if stdin
// is a terminal.
func ReadPassword(w io.Writer, prompt string) (string, error) {
	if Terminal != nil {
		return Terminal.ReadPassword(prompt)
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return ReadLine(w, prompt)
	}
	fmt.Fprint(w, prompt)
	rawPass, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(w)
	return strings.TrimRight(string(rawPass), "\r\n"), nil
}
