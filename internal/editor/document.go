package editor

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf16"
)

// Op is one run of document content: either text or a single embed.
type Op struct {
	Text  string            `json:"text,omitempty" yaml:"text,omitempty"`
	Embed map[string]string `json:"embed,omitempty" yaml:"embed,omitempty"`
}

func (o Op) length() int {
	if o.Embed != nil {
		return 1
	}
	return TextLength(o.Text)
}

// Snapshot is an exportable copy of a Document.
type Snapshot struct {
	Length    int    `json:"length" yaml:"length"`
	Selection *Range `json:"selection,omitempty" yaml:"selection,omitempty"`
	Ops       []Op   `json:"ops" yaml:"ops"`
}

// Document is an in-memory Editor. Embeds have length 1 and text is measured
// in UTF-16 code units. It is safe for concurrent use.
type Document struct {
	mu        sync.Mutex
	ops       []Op
	length    int
	selection *Range
	root      *EventTarget
	caret     func(x, y float64) (int, bool)
	modules   map[string]any
	logger    *slog.Logger
}

// DocumentOption configures a Document.
type DocumentOption func(*Document)

// WithCaretResolver sets the function used to map a drop point to an index.
func WithCaretResolver(fn func(x, y float64) (int, bool)) DocumentOption {
	return func(d *Document) {
		d.caret = fn
	}
}

// WithText seeds the document with text.
func WithText(text string) DocumentOption {
	return func(d *Document) {
		if text != "" {
			d.ops = []Op{{Text: text}}
			d.length = TextLength(text)
		}
	}
}

// WithSelection sets the initial selection.
func WithSelection(index int) DocumentOption {
	return func(d *Document) {
		d.selection = &Range{Index: index}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) DocumentOption {
	return func(d *Document) {
		d.logger = logger
	}
}

// NewDocument creates an empty document.
func NewDocument(opts ...DocumentOption) *Document {
	d := &Document{
		modules: make(map[string]any),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(d)
	}

	d.root = NewEventTarget(d.logger)
	if d.selection != nil {
		d.selection.Index = clamp(d.selection.Index, 0, d.length)
	}

	return d
}

// Root returns the document's event surface.
func (d *Document) Root() Surface {
	return d.root
}

// GetSelection returns a copy of the selection, or nil.
func (d *Document) GetSelection(focus bool) *Range {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.selection == nil {
		return nil
	}
	r := *d.selection
	return &r
}

// GetLength returns the document length.
func (d *Document) GetLength() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.length
}

// InsertEmbed inserts an embed at index.
func (d *Document) InsertEmbed(index int, embedType string, value string, source Source) error {
	if embedType == "" {
		return fmt.Errorf("embed type is required")
	}
	return d.insert(index, Op{Embed: map[string]string{embedType: value}}, source)
}

// InsertText inserts text at index. Empty text is a no-op.
func (d *Document) InsertText(index int, text string, source Source) error {
	if text == "" {
		return nil
	}
	return d.insert(index, Op{Text: text}, source)
}

// SetSelection collapses the selection to index, clamped to the document.
func (d *Document) SetSelection(index int, source Source) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selection = &Range{Index: clamp(index, 0, d.length)}
}

// CaretRangeFromPoint resolves a drop point through the configured resolver.
func (d *Document) CaretRangeFromPoint(x, y float64) (int, bool) {
	if d.caret == nil {
		return 0, false
	}
	index, ok := d.caret(x, y)
	if !ok {
		return 0, false
	}
	return clamp(index, 0, d.GetLength()), true
}

// Ops returns a copy of the document content.
func (d *Document) Ops() []Op {
	d.mu.Lock()
	defer d.mu.Unlock()
	return copyOps(d.ops)
}

// Text returns the document text with each embed rendered as U+FFFC.
func (d *Document) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var b strings.Builder
	for _, op := range d.ops {
		if op.Embed != nil {
			b.WriteRune('\uFFFC')
			continue
		}
		b.WriteString(op.Text)
	}
	return b.String()
}

// Snapshot returns an exportable copy of the document.
func (d *Document) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := Snapshot{Length: d.length, Ops: copyOps(d.ops)}
	if d.selection != nil {
		r := *d.selection
		s.Selection = &r
	}
	return s
}

// UseModule instantiates a registered module for this document and keeps it
// for the document's lifetime.
func (d *Document) UseModule(name string, options any) (any, error) {
	module, err := Instantiate(name, d, options)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.modules[name] = module
	d.mu.Unlock()

	return module, nil
}

// Module returns a module previously added with UseModule.
func (d *Document) Module(name string) (any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.modules[name]
	return m, ok
}

func (d *Document) insert(index int, op Op, source Source) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if index < 0 || index > d.length {
		return fmt.Errorf("failed to insert at %d of %d; %w", index, d.length, ErrIndexOutOfRange)
	}

	pos := 0
	i := 0
	for ; i < len(d.ops); i++ {
		l := d.ops[i].length()
		if index < pos+l {
			break
		}
		pos += l
	}

	if i < len(d.ops) && index > pos {
		// Split the text run containing index.
		head, tail := splitText(d.ops[i].Text, index-pos)
		d.ops[i] = Op{Text: head}
		d.ops = insertOps(d.ops, i+1, op, Op{Text: tail})
	} else {
		d.ops = insertOps(d.ops, i, op)
	}
	d.ops = mergeText(d.ops)
	d.length += op.length()

	d.logger.Debug("document insert",
		"index", index,
		"length", op.length(),
		"embed", op.Embed != nil,
		"source", source,
	)

	return nil
}

// TextLength returns the length of s in UTF-16 code units.
func TextLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func splitText(s string, units int) (string, string) {
	encoded := utf16.Encode([]rune(s))
	return string(utf16.Decode(encoded[:units])), string(utf16.Decode(encoded[units:]))
}

func insertOps(ops []Op, at int, add ...Op) []Op {
	out := make([]Op, 0, len(ops)+len(add))
	out = append(out, ops[:at]...)
	out = append(out, add...)
	return append(out, ops[at:]...)
}

func mergeText(ops []Op) []Op {
	out := ops[:0]
	for _, op := range ops {
		if op.Embed == nil && op.Text == "" {
			continue
		}
		if n := len(out); n > 0 && op.Embed == nil && out[n-1].Embed == nil {
			out[n-1].Text += op.Text
			continue
		}
		out = append(out, op)
	}
	return out
}

func copyOps(ops []Op) []Op {
	out := make([]Op, len(ops))
	for i, op := range ops {
		out[i] = Op{Text: op.Text}
		if op.Embed != nil {
			out[i].Embed = make(map[string]string, len(op.Embed))
			for k, v := range op.Embed {
				out[i].Embed[k] = v
			}
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
