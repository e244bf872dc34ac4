package console

import (
	"io"
	"strings"

	"github.com/chzyer/readline"
)

const (
	Yes = "y"
	No  = "n"
)

// stdin is replaced in tests.
var stdin io.ReadCloser

// YesOrNo asks question and defaults to No.
func YesOrNo(question string) (string, error) {
	return Prompt(question, No, Yes)
}

// Prompt asks question until interrupted and returns the answer if it is one
// of constraints, the first constraint otherwise.
func Prompt(question string, constraints ...string) (string, error) {
	var prompt strings.Builder
	prompt.WriteString(question)
	if len(constraints) > 0 {
		prompt.WriteString(" [")
		for i, c := range constraints {
			if i > 0 {
				prompt.WriteString("/")
			}
			if i == 0 {
				c = strings.ToUpper(c)
			}
			prompt.WriteString(c)
		}
		prompt.WriteString("]")
	}
	prompt.WriteString(": ")
	rl, err := readline.NewEx(&readline.Config{
		Prompt: prompt.String(),
		Stdin:  stdin,
		Stdout: writer,
	})
	if err != nil {
		return "", err
	}
	defer func() { _ = rl.Close() }()
	response, err := rl.Readline()
	if err != nil {
		return "", err
	}
	if len(constraints) == 0 {
		return response, nil
	}
	normalized := strings.ToLower(strings.TrimSpace(response))
	for _, c := range constraints {
		if normalized == c {
			return normalized, nil
		}
	}
	// empty or unknown answers pick the default
	return constraints[0], nil
}
