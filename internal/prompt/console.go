// Package prompt asks for parameter values on a console.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/config"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/resolver"
)

// Console is a line based resolver.Prompter. It is not safe for
// concurrent use.
type Console struct {
	in  *bufio.Reader
	out io.Writer
	// pending holds a read left running by a cancelled Ask; the next Ask
	// takes its line instead of starting a second reader.
	pending chan readResult

	name  *color.Color
	hint  *color.Color
	issue *color.Color
}

// NewConsole reads answers from in and writes questions to out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:    bufio.NewReader(in),
		out:   out,
		name:  color.New(color.FgCyan, color.Bold),
		hint:  color.New(color.FgHiBlack),
		issue: color.New(color.FgRed),
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Ask prints the question and reads lines until one parses. An empty line
// accepts the default. End of input and context cancellation abort.
func (c *Console) Ask(ctx context.Context, q resolver.Question) (any, error) {
	if q.Help != "" {
		fmt.Fprintln(c.out, c.hint.Sprint(q.Help))
	}
	if len(q.Choices) > 0 {
		fmt.Fprintln(c.out, c.hint.Sprintf("choices: %s", strings.Join(q.Choices, ", ")))
	}

	for {
		fmt.Fprintf(c.out, "%s%s: ", c.name.Sprint(q.Path()), c.suffix(q))
		line, err := c.readLine(ctx)
		if err != nil {
			return nil, err
		}

		if line == "" {
			if q.Default != nil {
				return q.Default, nil
			}
			if q.Optional {
				return nil, nil
			}
			fmt.Fprintln(c.out, c.issue.Sprint("a value is required"))
			continue
		}

		v, err := parse(q, line)
		if err != nil {
			fmt.Fprintln(c.out, c.issue.Sprint(reason(err)))
			continue
		}
		return v, nil
	}
}

// suffix renders the type hint and default shown after the path.
func (c *Console) suffix(q resolver.Question) string {
	switch q.Type.Kind {
	case config.KindBool:
		switch q.Default {
		case true:
			return " [Y/n]"
		case false:
			return " [y/N]"
		default:
			return " [y/n]"
		}
	case config.KindStringList:
		hint := " (comma separated)"
		if q.Default != nil {
			hint += " [" + display(q.Default) + "]"
		}
		return hint
	}
	if q.Default == nil {
		return ""
	}
	return " [" + display(q.Default) + "]"
}

type readResult struct {
	line string
	err  error
}

func (c *Console) readLine(ctx context.Context) (string, error) {
	if c.pending == nil {
		done := make(chan readResult, 1)
		go func() {
			line, err := c.in.ReadString('\n')
			done <- readResult{line, err}
		}()
		c.pending = done
	}

	select {
	case <-ctx.Done():
		fmt.Fprintln(c.out)
		return "", &resolver.AbortError{Cause: ctx.Err()}
	case r := <-c.pending:
		c.pending = nil
		if r.err != nil && (!errors.Is(r.err, io.EOF) || r.line == "") {
			fmt.Fprintln(c.out)
			return "", &resolver.AbortError{Cause: r.err}
		}
		return strings.TrimSpace(r.line), nil
	}
}

func parse(q resolver.Question, line string) (any, error) {
	if q.Parse == nil {
		return line, nil
	}
	return q.Parse(line)
}

func reason(err error) string {
	var ce *config.CoercionError
	if errors.As(err, &ce) && ce.Reason != "" {
		return fmt.Sprintf("invalid %s: %s", ce.Type, ce.Reason)
	}
	return err.Error()
}

func display(v any) string {
	switch x := v.(type) {
	case []string:
		return strings.Join(x, ", ")
	case config.Tuple:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}
