package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kalambet/amabrowser/internal/navigator"
	"github.com/kalambet/amabrowser/internal/render"
)

const (
	clearScreen = "\x1b[H\x1b[2J"
	helpLine    = "←/h previous  →/l next  Del/d delete  r latest  q quit"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Browse documents interactively in the terminal",
	Long: `Browse documents interactively in the terminal, starting at the latest one.

Keys:
  ArrowLeft, h    previous document
  ArrowRight, l   next document
  Delete, d       delete the displayed document (asks first)
  r               jump to the latest document
  q, Ctrl-C       quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return fmt.Errorf("view needs an interactive terminal; use show instead")
		}
		saved, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("entering raw mode: %w", err)
		}
		defer term.Restore(fd, saved)

		out := crlfWriter{w: os.Stdout}
		logger := slog.New(slog.NewTextHandler(crlfWriter{w: os.Stderr}, &slog.HandlerOptions{Level: logLevel}))
		v := newViewer(client, newRenderer(), out, &rawTerminal{fd: fd, saved: saved}, logger)
		return v.run(cmd.Context(), os.Stdin)
	},
}

// terminalMode switches the terminal between raw key input and line-buffered prompts.
type terminalMode interface {
	cooked() error
	raw() error
}

type rawTerminal struct {
	fd    int
	saved *term.State
}

func (t *rawTerminal) cooked() error { return term.Restore(t.fd, t.saved) }

func (t *rawTerminal) raw() error {
	_, err := term.MakeRaw(t.fd)
	return err
}

// crlfWriter translates "\n" to "\r\n" for terminals in raw mode.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// terminalPrompter queues alerts until the next repaint and asks confirmations with
// the terminal in cooked mode.
type terminalPrompter struct {
	mode    terminalMode
	confirm func(label string) bool

	mu     sync.Mutex
	alerts []string
}

func (p *terminalPrompter) Alert(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, msg)
}

func (p *terminalPrompter) Confirm(msg string) bool {
	if p.mode != nil {
		if err := p.mode.cooked(); err == nil {
			defer p.mode.raw()
		}
	}
	return p.confirm(msg)
}

func (p *terminalPrompter) drain() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.alerts
	p.alerts = nil
	return out
}

type viewer struct {
	nav   *navigator.Navigator
	slots *render.SlotSet
	ui    *terminalPrompter
	out   io.Writer
}

func newViewer(api navigator.API, r *render.Renderer, out io.Writer, mode terminalMode, logger *slog.Logger) *viewer {
	slots := render.NewSlotSet()
	ui := &terminalPrompter{mode: mode, confirm: confirmPrompt}
	return &viewer{
		nav:   navigator.New(api, slots, ui, navigator.WithRenderer(r), navigator.WithLogger(logger)),
		slots: slots,
		ui:    ui,
		out:   out,
	}
}

// run shows the latest document, then dispatches keys read from in until quit or EOF.
func (v *viewer) run(ctx context.Context, in io.Reader) error {
	v.handle(ctx, keyReload)

	buf := make([]byte, 32)
	for {
		n, err := in.Read(buf)
		for _, k := range parseKeys(buf[:n]) {
			if !v.handle(ctx, k) {
				return nil
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading keys: %w", err)
		}
	}
}

// handle runs the operation bound to k and repaints. It returns false on quit.
func (v *viewer) handle(ctx context.Context, k key) bool {
	switch k {
	case keyPrevious:
		v.nav.LoadPrevious(ctx)
	case keyNext:
		v.nav.LoadNext(ctx)
	case keyDelete:
		v.nav.Delete(ctx)
	case keyReload:
		v.nav.LoadLatest(ctx)
	case keyQuit:
		fmt.Fprintln(v.out)
		return false
	default:
		return true
	}
	v.paint()
	return true
}

func (v *viewer) paint() {
	fmt.Fprint(v.out, clearScreen)
	if id, ok := v.nav.Cursor(); ok {
		writeSlots(v.out, id, v.slots)
	} else {
		fmt.Fprintln(v.out, "No document displayed.")
	}
	fmt.Fprintln(v.out)
	for _, msg := range v.ui.drain() {
		warningColor.Fprintln(v.out, "⚠ "+msg)
	}
	fmt.Fprintln(v.out, helpLine)
}

type key int

const (
	keyNone key = iota
	keyPrevious
	keyNext
	keyDelete
	keyReload
	keyQuit
)

// parseKeys decodes raw terminal input into viewer keys. Unbound input is dropped.
func parseKeys(b []byte) []key {
	var keys []key
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case 0x1b:
			// CSI / SS3 sequences: ESC [ D, ESC O C, ESC [ 3 ~ ...
			if i+2 >= len(b) || (b[i+1] != '[' && b[i+1] != 'O') {
				continue
			}
			switch b[i+2] {
			case 'D':
				keys = append(keys, keyPrevious)
			case 'C':
				keys = append(keys, keyNext)
			case '3':
				if i+3 < len(b) && b[i+3] == '~' {
					keys = append(keys, keyDelete)
					i++
				}
			}
			i += 2
		case 'h':
			keys = append(keys, keyPrevious)
		case 'l':
			keys = append(keys, keyNext)
		case 'd':
			keys = append(keys, keyDelete)
		case 'r':
			keys = append(keys, keyReload)
		case 'q', 0x03, 0x04:
			keys = append(keys, keyQuit)
		}
	}
	return keys
}
