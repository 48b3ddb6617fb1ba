package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
)

// Decider answers a multiple choice question. The returned value is always one of
// options, spelled as in options.
type Decider interface {
	Choose(question string, options []string, def string) (string, error)
}

// Console reads answers line by line. An empty line or end of input selects the
// default; anything that is not an option asks again.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

func (c *Console) Choose(question string, options []string, def string) (string, error) {
	if err := checkOptions(options, def); err != nil {
		return "", err
	}

	for {
		fmt.Fprintf(c.out, "%s [%s]<%s>: ", question, strings.Join(options, "/"), def)
		line, err := c.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}

		answer := strings.TrimSpace(line)
		if answer == "" {
			return def, nil
		}
		if match, ok := lookup(options, answer); ok {
			return match, nil
		}
		if errors.Is(err, io.EOF) {
			return def, nil
		}
		fmt.Fprintf(c.out, "Unrecognized answer %q.\n", answer)
	}
}

// Terminal shows an arrow-key selection list with the default preselected.
type Terminal struct{}

func (Terminal) Choose(question string, options []string, def string) (string, error) {
	if err := checkOptions(options, def); err != nil {
		return "", err
	}

	pos := 0
	for i, o := range options {
		if o == def {
			pos = i
		}
	}
	s := promptui.Select{
		Label:     question,
		Items:     options,
		CursorPos: pos,
	}
	_, result, err := s.Run()
	if errors.Is(err, promptui.ErrEOF) {
		return def, nil
	}
	return result, err
}

// Scripted replays fixed answers and records the questions it was asked. When the
// answers run out, the default is chosen.
type Scripted struct {
	Answers []string
	Asked   []string
}

func (s *Scripted) Choose(question string, options []string, def string) (string, error) {
	if err := checkOptions(options, def); err != nil {
		return "", err
	}
	s.Asked = append(s.Asked, question)

	if len(s.Answers) == 0 {
		return def, nil
	}
	answer := s.Answers[0]
	s.Answers = s.Answers[1:]
	if answer == "" {
		return def, nil
	}
	match, ok := lookup(options, answer)
	if !ok {
		return "", fmt.Errorf("scripted answer %q is not one of %v", answer, options)
	}
	return match, nil
}

func lookup(options []string, answer string) (string, bool) {
	for _, o := range options {
		if strings.EqualFold(o, answer) {
			return o, true
		}
	}
	return "", false
}

func checkOptions(options []string, def string) error {
	if len(options) == 0 {
		return errors.New("no options to choose from")
	}
	if _, ok := lookup(options, def); !ok {
		return fmt.Errorf("default %q is not one of %v", def, options)
	}
	return nil
}
