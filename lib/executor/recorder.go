package executor

import (
	"io"
	"strings"
)

type rule struct {
	prefix  string
	handler func(Command) (*Result, error)
}

func (r *Recorder) execute(cmd Command) (*Result, error) {
	call := Call{Command: cmd}
	if cmd.Stdin != nil {
		if data, err := io.ReadAll(cmd.Stdin); err == nil {
			call.StdinData = string(data)
		}
	}
	line := cmd.String()
	r.mutex.Lock()
	r.calls = append(r.calls, call)
	var handler func(Command) (*Result, error)
	for index := len(r.rules) - 1; index >= 0; index-- {
		if strings.HasPrefix(line, r.rules[index].prefix) {
			handler = r.rules[index].handler
			break
		}
	}
	r.mutex.Unlock()
	if handler == nil {
		return &Result{}, nil
	}
	result, err := handler(cmd)
	if err != nil {
		return result, err
	}
	if result == nil {
		result = &Result{}
	}
	if result.ExitCode != 0 {
		return result, &ExitError{Command: cmd, Result: result}
	}
	if cmd.Output != nil {
		cmd.Output.Write(result.Stdout)
	}
	return result, nil
}

func (r *Recorder) matching(prefix string) []Call {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var calls []Call
	for _, call := range r.calls {
		if strings.HasPrefix(call.String(), prefix) {
			calls = append(calls, call)
		}
	}
	return calls
}
