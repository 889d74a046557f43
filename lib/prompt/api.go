package prompt

import (
	"bufio"
	"errors"
	"io"
	"os"
	"sync"
)

// ErrEmpty is returned by Choose when the operator makes an empty selection.
var ErrEmpty = errors.New("empty selection")

// Presenter is the presentation collaborator: it presents choices and
// prompts for confirmation, text and passwords.
type Presenter interface {
	// Choose presents options and returns the index of the one chosen.
	Choose(title string, options []string) (int, error)
	// Confirm asks a yes/no question. Only an explicit yes is true.
	Confirm(question string) (bool, error)
	Input(prompt string) (string, error)
	// Password reads a secret without echoing it.
	Password(prompt string) (string, error)
}

// Option is one entry of a menu of typed values.
type Option[T any] struct {
	Label string
	Value T
}

// Select presents the labels of options and returns the chosen value. This
// decouples menu wording from control flow.
func Select[T any](p Presenter, title string, options []Option[T]) (T, error) {
	labels := make([]string, 0, len(options))
	for _, option := range options {
		labels = append(labels, option.Label)
	}
	var zero T
	index, err := p.Choose(title, labels)
	if err != nil {
		return zero, err
	}
	return options[index].Value, nil
}

type Terminal struct {
	input   *bufio.Reader
	inputFd int
	output  io.Writer
}

// NewTerminal returns a line-oriented Presenter on standard input and
// output.
func NewTerminal() *Terminal {
	return &Terminal{
		input:   bufio.NewReader(os.Stdin),
		inputFd: int(os.Stdin.Fd()),
		output:  os.Stdout,
	}
}

// NewTerminalWithIO returns a Presenter using the given reader and writer.
// Passwords are read as plain lines.
func NewTerminalWithIO(input io.Reader, output io.Writer) *Terminal {
	return &Terminal{input: bufio.NewReader(input), inputFd: -1, output: output}
}

func (t *Terminal) Choose(title string, options []string) (int, error) {
	return t.choose(title, options)
}

func (t *Terminal) Confirm(question string) (bool, error) {
	return t.confirm(question)
}

func (t *Terminal) Input(prompt string) (string, error) {
	return t.readLine(prompt)
}

func (t *Terminal) Password(prompt string) (string, error) {
	return t.password(prompt)
}

// Scripted is a Presenter which answers from a fixed list, for tests. Choose
// accepts a 1-based number or an exact label, Confirm accepts the same words
// as the terminal. Running out of answers yields io.EOF.
type Scripted struct {
	mutex   sync.Mutex
	answers []string
	prompts []string
}

func NewScripted(answers ...string) *Scripted {
	return &Scripted{answers: answers}
}

// Prompts returns every title, question and prompt presented so far.
func (s *Scripted) Prompts() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]string(nil), s.prompts...)
}

func (s *Scripted) Choose(title string, options []string) (int, error) {
	answer, err := s.next(title)
	if err != nil {
		return -1, err
	}
	return parseChoice(answer, options)
}

func (s *Scripted) Confirm(question string) (bool, error) {
	answer, err := s.next(question)
	if err != nil {
		return false, err
	}
	return IsYes(answer), nil
}

func (s *Scripted) Input(prompt string) (string, error) {
	return s.next(prompt)
}

func (s *Scripted) Password(prompt string) (string, error) {
	return s.next(prompt)
}

// IsYes returns true only for "y" or "yes", ignoring case and surrounding
// whitespace.
func IsYes(answer string) bool {
	return isYes(answer)
}
