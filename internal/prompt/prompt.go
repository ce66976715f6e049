// Package prompt asks the operator line-oriented questions on a terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/spf13/cast"
)

// ErrAborted is returned when input ends before a question is answered.
var ErrAborted = errors.New("input closed")

// Other is offered by SelectOrOther for a value outside the list.
const Other = "Other..."

type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

func (p *Prompter) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrAborted
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Text asks for a free-form answer. An empty answer returns def.
func (p *Prompter) Text(label, def string) (string, error) {
	if def != "" {
		p.Printf("%s [%s]: ", label, def)
	} else {
		p.Printf("%s: ", label)
	}
	s, err := p.readLine()
	if err != nil {
		return "", err
	}
	if s == "" {
		return def, nil
	}
	return s, nil
}

// Required repeats the question until the answer is not blank.
func (p *Prompter) Required(label, def string) (string, error) {
	for {
		s, err := p.Text(label, def)
		if err != nil {
			return "", err
		}
		if s != "" {
			return s, nil
		}
		p.Printf("  a value is required\n")
	}
}

// Amount asks for a non-negative number, repeating on bad input.
func (p *Prompter) Amount(label string, def float64) (float64, error) {
	for {
		s, err := p.Text(label, strconv.FormatFloat(def, 'f', -1, 64))
		if err != nil {
			return 0, err
		}
		f, err := cast.ToFloat64E(s)
		if err == nil && f >= 0 {
			return f, nil
		}
		p.Printf("  %q is not a non-negative number\n", s)
	}
}

// Select lists choices and returns the picked index. The answer may be the
// 1-based number or the choice itself, case-insensitively.
func (p *Prompter) Select(label string, choices []string) (int, error) {
	if len(choices) == 0 {
		return -1, fmt.Errorf("%s: nothing to choose from", label)
	}
	p.Printf("%s\n", label)
	for i, c := range choices {
		p.Printf("  %d) %s\n", i+1, c)
	}
	for {
		p.Printf("> ")
		s, err := p.readLine()
		if err != nil {
			return -1, err
		}
		if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(choices) {
			return n - 1, nil
		}
		for i, c := range choices {
			if s != "" && strings.EqualFold(s, c) {
				return i, nil
			}
		}
		p.Printf("  pick 1-%d\n", len(choices))
	}
}

// SelectOrOther picks from choices or, through the Other entry, takes a typed value.
// other reports whether the value came from outside choices.
func (p *Prompter) SelectOrOther(label string, choices []string) (value string, other bool, err error) {
	all := append(append([]string{}, choices...), Other)
	i, err := p.Select(label, all)
	if err != nil {
		return "", false, err
	}
	if i < len(choices) {
		return choices[i], false, nil
	}
	v, err := p.Required("Enter value", "")
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Confirm asks a yes/no question. An empty answer returns def.
func (p *Prompter) Confirm(label string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		p.Printf("%s [%s]: ", label, hint)
		s, err := p.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(s) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		p.Printf("  answer y or n\n")
	}
}

// ConfirmReplace shows both versions of a record and asks whether to overwrite.
// A closed input declines.
func (p *Prompter) ConfirmReplace(existing, incoming model.Record) bool {
	p.Printf("\nA record for %s already exists.\n", existing.Key())
	p.Printf("  Existing: %s\n", existing)
	p.Printf("  New:      %s\n", incoming)
	ok, err := p.Confirm("Replace the existing record?", false)
	return err == nil && ok
}

// ConfirmExtend asks whether value may join the constants list. A closed input declines.
func (p *Prompter) ConfirmExtend(list model.ConstantList, value string) bool {
	ok, err := p.Confirm(fmt.Sprintf("%q is not a known %s. Add it?", value, list.Label()), false)
	return err == nil && ok
}
