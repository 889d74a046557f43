package prompt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/term"
)

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func parseChoice(answer string, options []string) (int, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return -1, ErrEmpty
	}
	if number, err := strconv.Atoi(answer); err == nil {
		if number < 1 || number > len(options) {
			return -1, fmt.Errorf("choice %d out of range 1-%d",
				number, len(options))
		}
		return number - 1, nil
	}
	for index, option := range options {
		if option == answer {
			return index, nil
		}
	}
	return -1, fmt.Errorf("unknown choice: %s", answer)
}

func (t *Terminal) readLine(prompt string) (string, error) {
	fmt.Fprint(t.output, prompt)
	line, err := t.input.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (t *Terminal) choose(title string, options []string) (int, error) {
	if len(options) < 1 {
		return -1, ErrEmpty
	}
	fmt.Fprintln(t.output, title)
	for index, option := range options {
		fmt.Fprintf(t.output, "  %2d) %s\n", index+1, option)
	}
	for {
		answer, err := t.readLine("Choice (empty to cancel): ")
		if err != nil {
			return -1, err
		}
		index, err := parseChoice(answer, options)
		if err == ErrEmpty {
			return -1, err
		}
		if err != nil {
			fmt.Fprintln(t.output, err)
			continue
		}
		return index, nil
	}
}

func (t *Terminal) confirm(question string) (bool, error) {
	answer, err := t.readLine(question + " [y/N] ")
	if err != nil {
		return false, err
	}
	return isYes(answer), nil
}

func (t *Terminal) password(prompt string) (string, error) {
	if t.inputFd < 0 || !term.IsTerminal(t.inputFd) {
		return t.readLine(prompt)
	}
	fmt.Fprint(t.output, prompt)
	secret, err := term.ReadPassword(t.inputFd)
	fmt.Fprintln(t.output)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}

func (s *Scripted) next(prompt string) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.prompts = append(s.prompts, prompt)
	if len(s.answers) < 1 {
		return "", io.EOF
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}
