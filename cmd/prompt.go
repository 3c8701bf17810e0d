package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/illarion/safelist/internal/crypto"
)

var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrNotTerminal      = errors.New("cannot prompt: stdin is not a terminal")
)

// Prompter asks the user for input
type Prompter interface {
	// ReadSecret reads a line without echo
	ReadSecret(prompt string) ([]byte, error)
	// ReadLine reads a visible line
	ReadLine(prompt string) (string, error)
	// Interactive reports whether a person can answer
	Interactive() bool
}

// TerminalPrompter prompts on a terminal, echoing nothing for secrets
type TerminalPrompter struct {
	in     *os.File
	out    io.Writer
	reader *bufio.Reader
}

// NewTerminalPrompter creates a prompter reading from in and writing prompts to out
func NewTerminalPrompter(in *os.File, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: in, out: out, reader: bufio.NewReader(in)}
}

func (p *TerminalPrompter) Interactive() bool {
	return term.IsTerminal(int(p.in.Fd()))
}

// ReadSecret reads a password from the terminal without echoing
func (p *TerminalPrompter) ReadSecret(prompt string) ([]byte, error) {
	if !p.Interactive() {
		return nil, ErrNotTerminal
	}
	fmt.Fprint(p.out, prompt)

	secret, err := term.ReadPassword(int(p.in.Fd()))
	fmt.Fprintln(p.out) // New line after password

	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return secret, nil
}

func (p *TerminalPrompter) ReadLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.reader.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readSecretConfirm reads a secret twice and ensures both entries match
func readSecretConfirm(p Prompter, what string) ([]byte, error) {
	first, err := p.ReadSecret(fmt.Sprintf("Enter %s: ", what))
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(first)

	second, err := p.ReadSecret(fmt.Sprintf("Confirm %s: ", what))
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(second)

	if !crypto.ConstantTimeCompare(first, second) {
		return nil, ErrPasswordMismatch
	}

	// Return a copy of the secret
	result := make([]byte, len(first))
	copy(result, first)
	return result, nil
}

// confirm asks a yes/no question; anything but y or yes is no
func confirm(p Prompter, question string) bool {
	if !p.Interactive() {
		return false
	}
	answer, err := p.ReadLine(question + " [y/N]: ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
