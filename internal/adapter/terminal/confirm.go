// Package terminal asks for confirmation on stdin, with a styled summary when
// stdin is a terminal and plain text when it is a pipe.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	cf "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/confirmation"
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Prompter shows one pending call at a time and reads a line of input.
// A single reader goroutine owns the input so a prompt abandoned on
// cancellation does not swallow the answer to the next one.
type Prompter struct {
	in    io.Reader
	out   io.Writer
	width int
	plain bool

	turn     chan struct{}
	lines    chan string
	readOnce sync.Once
}

// New creates a prompter on in and out. When in is a terminal the summary
// box is styled and sized to its width; otherwise it is plain text.
func New(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: in, out: out, turn: make(chan struct{}, 1), lines: make(chan string), plain: true}
	if f, ok := in.(*os.File); ok && Interactive(f) {
		p.plain = false
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 { //nolint:gosec // G115: fd fits in int
			p.width = w - 2
		}
	}
	return p
}

// Interactive reports whether f is attached to a terminal.
func Interactive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: fd fits in int
}

// Name returns "terminal".
func (p *Prompter) Name() string { return string(cf.ChannelTerminal) }

// RequestConfirmation renders the request and waits for a line. End of input
// is an empty answer, which denies.
func (p *Prompter) RequestConfirmation(ctx context.Context, req cf.Request) (cf.Response, error) {
	select {
	case p.turn <- struct{}{}:
	case <-ctx.Done():
		return cf.Response{}, ctx.Err()
	}
	defer func() { <-p.turn }()

	p.readOnce.Do(func() { go p.readLines() })

	if p.plain {
		_, _ = fmt.Fprintln(p.out, RenderPlain(req))
	} else {
		_, _ = fmt.Fprintln(p.out, Render(req, p.width))
	}
	_, _ = fmt.Fprintf(p.out, "Type '%s' to proceed: ", req.Token)

	select {
	case line, ok := <-p.lines:
		if !ok {
			line = ""
		}
		return cf.Response{Input: line, Responder: responder(), Channel: cf.ChannelTerminal}, nil
	case <-ctx.Done():
		_, _ = fmt.Fprintln(p.out)
		return cf.Response{}, ctx.Err()
	}
}

func (p *Prompter) readLines() {
	sc := bufio.NewScanner(p.in)
	for sc.Scan() {
		p.lines <- sc.Text()
	}
	close(p.lines)
}

// Render formats the request as a bordered summary with arguments in key order.
func Render(req cf.Request, width int) string {
	keys := sortedKeys(req.Args)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Confirmation required: "+req.Tool) + "\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "%s %v\n", keyStyle.Render(k+":"), req.Args[k])
	}
	b.WriteString(keyStyle.Render("call: ") + req.Summary)

	style := boxStyle
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(b.String())
}

// RenderPlain formats the request without styling, for pipes and logs.
func RenderPlain(req cf.Request) string {
	var b strings.Builder
	b.WriteString("Confirmation required: " + req.Tool + "\n")
	for _, k := range sortedKeys(req.Args) {
		fmt.Fprintf(&b, "  %s: %v\n", k, req.Args[k])
	}
	b.WriteString("  call: " + req.Summary)
	return b.String()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func responder() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "terminal"
}
