// Package term is a minimal tcell-based host: a single-pane viewer for
// one TLA+ document that renders verdict overlays as gutter marks,
// colored spans, and a failed-step background.
//
// It exists so the bridge can run standalone in a terminal; any real
// editor integration supplies its own host.Host instead.
package term

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/proofpane/internal/host"
	"github.com/dshills/proofpane/internal/overlay"
	"github.com/dshills/proofpane/internal/verdict"
)

// gutterMarks maps each verdict kind to its gutter rune, mirroring the
// icon set referenced by the overlay styles.
var gutterMarks = map[verdict.Kind]rune{
	verdict.KindProved:   '+',
	verdict.KindFailed:   'x',
	verdict.KindOmitted:  'o',
	verdict.KindMissing:  '?',
	verdict.KindPending:  '.',
	verdict.KindProgress: '~',
}

// Host is a single-document terminal host.
type Host struct {
	mu sync.Mutex

	screen   tcell.Screen
	view     *View
	commands map[string]host.CommandFunc
	styles   *overlay.Registry
	light    bool

	topLine int
	ready   bool
	quit    chan struct{}
	once    sync.Once
}

// Option configures a Host.
type Option func(*Host)

// WithLightTheme selects the light presentation theme; backgrounds for
// failed steps use the light variant.
func WithLightTheme() Option {
	return func(h *Host) { h.light = true }
}

// New creates a host showing the given file.
func New(path string, opts ...Option) (*Host, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}

	h := &Host{
		screen:   screen,
		commands: make(map[string]host.CommandFunc),
		quit:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.view = newView(h, "file://"+abs, string(content))
	return h, nil
}

// SetStyles attaches the bridge's style registry for rendering lookups.
func (h *Host) SetStyles(styles *overlay.Registry) {
	h.mu.Lock()
	h.styles = styles
	h.mu.Unlock()
}

// View returns the single pane, for the document-open handshake.
func (h *Host) View() *View {
	return h.view
}

// VisibleEditors implements host.Host.
func (h *Host) VisibleEditors() []host.EditorView {
	return []host.EditorView{h.view}
}

// ActiveEditor implements host.Host.
func (h *Host) ActiveEditor() host.EditorView {
	return h.view
}

// RegisterCommand implements host.Host.
func (h *Host) RegisterCommand(name string, fn host.CommandFunc) {
	h.mu.Lock()
	h.commands[name] = fn
	h.mu.Unlock()
}

// invoke runs a registered command against the pane.
func (h *Host) invoke(name string) {
	h.mu.Lock()
	fn := h.commands[name]
	h.mu.Unlock()
	if fn != nil {
		fn(h.view)
	}
}

// Run enters the event loop until the user quits. checkCommand names
// the command bound to the check key.
func (h *Host) Run(checkCommand string) error {
	if err := h.screen.Init(); err != nil {
		return err
	}
	defer h.screen.Fini()

	h.mu.Lock()
	h.ready = true
	h.mu.Unlock()

	h.redraw()
	for {
		select {
		case <-h.quit:
			return nil
		default:
		}

		switch ev := h.screen.PollEvent().(type) {
		case *tcell.EventResize:
			h.screen.Sync()
			h.redraw()
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyEscape || ev.Rune() == 'q':
				return nil
			case ev.Key() == tcell.KeyUp || ev.Rune() == 'k':
				h.view.moveCursor(-1)
			case ev.Key() == tcell.KeyDown || ev.Rune() == 'j':
				h.view.moveCursor(1)
			case ev.Rune() == 'c':
				h.invoke(checkCommand)
			}
			h.redraw()
		}
	}
}

// Close stops a running event loop. Idempotent.
func (h *Host) Close() {
	h.once.Do(func() { close(h.quit) })
}

// redraw paints the document with its current overlays.
func (h *Host) redraw() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.ready {
		return
	}
	h.screen.Clear()
	_, height := h.screen.Size()

	// Keep the cursor in view.
	cursor := h.view.cursorPos().Line
	if cursor < h.topLine {
		h.topLine = cursor
	}
	if cursor >= h.topLine+height-1 {
		h.topLine = cursor - height + 2
	}

	lines := h.view.lines
	for row := 0; row < height-1; row++ {
		lineNo := h.topLine + row
		if lineNo >= len(lines) {
			break
		}
		h.drawLine(row, lineNo, lines[lineNo])
	}
	h.drawStatus(height - 1)
	h.screen.Show()
}

// drawLine renders one document line: gutter mark, text, and overlay
// coloring.
func (h *Host) drawLine(row, lineNo int, text string) {
	base := tcell.StyleDefault
	if lineNo == h.view.cursorPos().Line {
		base = base.Bold(true)
	}

	mark, markStyle, lineStyle := h.lineDecoration(lineNo, base)
	h.screen.SetContent(0, row, mark, nil, markStyle)
	h.screen.SetContent(1, row, ' ', nil, base)

	for i, r := range []rune(text) {
		st := lineStyle
		if st == base {
			st = h.spanDecoration(lineNo, i, base)
		}
		h.screen.SetContent(2+i, row, r, nil, st)
	}
}

// lineDecoration picks the gutter mark and, for whole-line styles, the
// line coloring. Later kinds in the fixed order win the gutter slot so
// a failed mark is never hidden by a proved one on the same line.
func (h *Host) lineDecoration(lineNo int, base tcell.Style) (rune, tcell.Style, tcell.Style) {
	mark := ' '
	markStyle := base
	lineStyle := base

	if h.styles == nil {
		return mark, markStyle, lineStyle
	}
	for _, kind := range verdict.Kinds() {
		style := h.styles.Handle(kind)
		if style == nil {
			continue
		}
		for _, entry := range h.view.entriesLocked(style) {
			if lineNo < entry.Range.Start.Line || lineNo > entry.Range.End.Line {
				continue
			}
			mark = gutterMarks[kind]
			markStyle = base.Foreground(tcell.GetColor(style.RulerColor))
			if style.WholeLine {
				lineStyle = h.applyBackground(base.Foreground(tcell.GetColor(style.RulerColor)), style)
			}
		}
	}
	return mark, markStyle, lineStyle
}

// spanDecoration colors one character cell from exact-span styles.
func (h *Host) spanDecoration(lineNo, col int, base tcell.Style) tcell.Style {
	if h.styles == nil {
		return base
	}
	st := base
	for _, kind := range verdict.Kinds() {
		style := h.styles.Handle(kind)
		if style == nil || style.WholeLine {
			continue
		}
		for _, entry := range h.view.entriesLocked(style) {
			if !covers(entry.Range, lineNo, col) {
				continue
			}
			st = h.applyBackground(base.Foreground(tcell.GetColor(style.RulerColor)), style)
		}
	}
	return st
}

// applyBackground adds the themed background for styles that carry one.
func (h *Host) applyBackground(st tcell.Style, style *overlay.Style) tcell.Style {
	bg := style.DarkBackground
	if h.light {
		bg = style.LightBackground
	}
	if bg != "" {
		st = st.Background(tcell.GetColor(bg))
	}
	return st
}

// covers reports whether the half-open range includes (line, col).
func covers(r verdict.Range, line, col int) bool {
	if line < r.Start.Line || line > r.End.Line {
		return false
	}
	if line == r.Start.Line && col < r.Start.Character {
		return false
	}
	if line == r.End.Line && col >= r.End.Character {
		return false
	}
	return true
}

// drawStatus paints the bottom status line.
func (h *Host) drawStatus(row int) {
	status := fmt.Sprintf(" %s  line %d  [c]heck step  [q]uit",
		strings.TrimPrefix(h.view.uri, "file://"), h.view.cursorPos().Line+1)
	st := tcell.StyleDefault.Reverse(true)
	width, _ := h.screen.Size()
	col := 0
	for _, r := range status {
		if col >= width {
			break
		}
		h.screen.SetContent(col, row, r, nil, st)
		col++
	}
	for ; col < width; col++ {
		h.screen.SetContent(col, row, ' ', nil, st)
	}
}
