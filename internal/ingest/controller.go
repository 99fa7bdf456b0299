// Package ingest attaches drop and paste handling to an editor. Image items
// are read into payloads and either handed to a caller-supplied handler or
// embedded at the cursor; plain text is probed and inserted as an image link
// or as literal text.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/leefowlercu/imagedrop/internal/classify"
	"github.com/leefowlercu/imagedrop/internal/editor"
	"github.com/leefowlercu/imagedrop/internal/events"
	"github.com/leefowlercu/imagedrop/internal/metrics"
	"github.com/leefowlercu/imagedrop/internal/minify"
	"github.com/leefowlercu/imagedrop/internal/payload"
)

// ModuleName is the editor registry name of the controller.
const ModuleName = "modules/imageDropAndPaste"

// MIMETypeURIList tags payloads whose content is an image URL taken from text.
const MIMETypeURIList = "text/uri-list"

// MIMETypePlainText tags payloads whose content is literal text.
const MIMETypePlainText = "text/plain"

var (
	imageTypePattern = regexp.MustCompile(`(?i)^image/(gif|jpe?g|a?png|svg|webp|bmp)`)
	plainTextPattern = regexp.MustCompile(`(?i)^text/plain$`)
	htmlTextPattern  = regexp.MustCompile(`(?i)^text/html$`)
)

// Handler receives routed content instead of the default insertion. It is
// called from the item's goroutine.
type Handler func(dataURL, mimeType string, p payload.Payload)

// Prober classifies a string as an image URL.
type Prober interface {
	ProbeIsImage(ctx context.Context, rawURL string) (bool, error)
}

// Minifier downsizes image payloads.
type Minifier interface {
	Minify(ctx context.Context, p payload.Payload, opts minify.Options) (payload.Payload, error)
}

// Options configures a Controller.
type Options struct {
	// Handler, when set, receives every routed item and default insertion
	// is skipped.
	Handler Handler

	// Minify, when set, minifies image payloads before default insertion.
	Minify *minify.Options

	Prober   Prober
	Minifier Minifier

	// Bus, when set, receives an event per item outcome.
	Bus events.Bus

	Logger *slog.Logger
}

type contentKind string

const (
	contentImage contentKind = "image"
	contentText  contentKind = "text"
)

// itemRef identifies an item in logs and outcome events.
type itemRef struct {
	eventID  string
	origin   string
	mimeType string
}

// Controller handles drop and paste events for one editor. Listeners stay
// attached for the editor's lifetime.
type Controller struct {
	editor   editor.Editor
	handler  Handler
	minify   *minify.Options
	prober   Prober
	minifier Minifier
	bus      events.Bus
	logger   *slog.Logger

	wg sync.WaitGroup
}

// New creates a controller and attaches its drop and paste listeners to the
// editor's root surface.
func New(ed editor.Editor, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		editor:   ed,
		handler:  opts.Handler,
		minify:   opts.Minify,
		prober:   opts.Prober,
		minifier: opts.Minifier,
		bus:      opts.Bus,
		logger:   logger.With("component", "ingest"),
	}

	if c.prober == nil {
		c.prober = classify.NewProber(classify.WithLogger(logger))
	}
	if c.minifier == nil {
		c.minifier = minify.New(minify.WithLogger(logger))
	}

	root := ed.Root()
	root.AddEventListener(editor.Drop, c.handleDrop)
	root.AddEventListener(editor.Paste, c.handlePaste)

	return c
}

// Wait blocks until every item started so far has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) handleDrop(ev editor.Event) {
	e, ok := ev.(*DropEvent)
	if !ok {
		return
	}

	e.PreventDefault()
	metrics.RecordEvent("drop")

	if len(e.Files) == 0 {
		return
	}

	if placer, ok := c.editor.(editor.CaretPlacer); ok {
		if index, ok := placer.CaretRangeFromPoint(e.X, e.Y); ok {
			c.editor.SetSelection(index, editor.SourceUser)
		}
	}

	for _, item := range e.Files {
		ref := itemRef{eventID: e.ID, origin: "drop", mimeType: item.Type()}
		// Dropped files are only ever images; string entries are classified
		// like pasted items.
		c.dispatchItem(e, ref, item, item.Kind() == KindString)
	}
}

func (c *Controller) handlePaste(ev editor.Event) {
	e, ok := ev.(*PasteEvent)
	if !ok {
		return
	}

	metrics.RecordEvent("paste")

	if len(e.Items) == 0 {
		return
	}

	if HasHTMLText(e.Items) {
		metrics.EventsDeferredTotal.Inc()
		c.logger.Debug("paste contains html; deferring to native handling", "event_id", e.ID)
		c.publish(events.PasteDeferred, &events.DeferredEvent{EventID: e.ID, Reason: "html"})
		return
	}

	for _, item := range e.Items {
		ref := itemRef{eventID: e.ID, origin: "paste", mimeType: item.Type()}
		c.dispatchItem(e, ref, item, true)
	}
}

type preventer interface {
	PreventDefault()
}

// dispatchItem classifies item by MIME type and starts its processing on a
// new goroutine. Unrecognized items are left alone.
func (c *Controller) dispatchItem(e preventer, ref itemRef, item Item, allowText bool) {
	switch {
	case IsImageType(item.Type()):
		e.PreventDefault()
		c.spawn(func(ctx context.Context) {
			c.processImage(ctx, ref, item)
		})
	case allowText && IsPlainText(item.Type()):
		e.PreventDefault()
		c.spawn(func(ctx context.Context) {
			c.processText(ctx, ref, item)
		})
	default:
		metrics.RecordItem("ignored")
	}
}

func (c *Controller) spawn(fn func(ctx context.Context)) {
	c.wg.Add(1)
	metrics.ItemsInFlight.Inc()

	go func() {
		defer c.wg.Done()
		defer metrics.ItemsInFlight.Dec()
		fn(context.Background())
	}()
}

func (c *Controller) processImage(ctx context.Context, ref itemRef, item Item) {
	metrics.RecordItem("image")

	p, err := Read(ctx, item)
	if err != nil {
		c.fail(ref, "read", err)
		return
	}
	if p.IsEmpty() {
		return
	}

	ref.mimeType = p.MIMEType
	c.route(ctx, ref, p.Content, p, contentImage)
}

func (c *Controller) processText(ctx context.Context, ref itemRef, item Item) {
	text, err := readOnce(ctx, item.ReadString)
	if err != nil {
		c.fail(ref, "read", err)
		return
	}

	isImage, err := c.prober.ProbeIsImage(ctx, text)
	if isImage {
		metrics.RecordItem("image_url")
		ref.mimeType = MIMETypeURIList
		c.route(ctx, ref, text, payload.New(text, MIMETypeURIList), contentImage)
		return
	}

	c.logger.Debug("text is not an image url", "event_id", ref.eventID, "reason", err)
	metrics.RecordItem("text")
	ref.mimeType = MIMETypePlainText
	c.route(ctx, ref, text, payload.New(text, MIMETypePlainText), contentText)
}

func (c *Controller) route(ctx context.Context, ref itemRef, content string, p payload.Payload, kind contentKind) {
	if c.handler != nil {
		metrics.HandlerCallsTotal.Inc()
		c.handler(content, ref.mimeType, p)
		c.publish(events.ItemHandled, &events.ItemEvent{
			EventID:  ref.eventID,
			Origin:   ref.origin,
			Kind:     string(kind),
			MIMEType: ref.mimeType,
			Index:    -1,
			Size:     len(content),
		})
		return
	}

	if kind == contentImage && c.minify != nil && p.IsDataURL() {
		minified, err := c.minifier.Minify(ctx, p, *c.minify)
		if err != nil {
			c.fail(ref, "minify", err)
			return
		}
		content = minified.Content
	}

	index, err := c.insert(content, kind)
	if err != nil {
		c.fail(ref, "insert", err)
		return
	}

	metrics.RecordInsertion(string(kind))
	c.publish(events.ItemInserted, &events.ItemEvent{
		EventID:  ref.eventID,
		Origin:   ref.origin,
		Kind:     string(kind),
		MIMEType: ref.mimeType,
		Index:    index,
		Size:     len(content),
	})
}

// insert places content at the selection start, or at the end of the
// document when there is no selection, and moves the caret past it.
func (c *Controller) insert(content string, kind contentKind) (int, error) {
	index := -1
	if sel := c.editor.GetSelection(true); sel != nil {
		index = sel.Index
	}
	if index < 0 {
		index = c.editor.GetLength()
	}

	switch kind {
	case contentImage:
		if err := c.editor.InsertEmbed(index, editor.EmbedImage, content, editor.SourceUser); err != nil {
			return -1, err
		}
		c.editor.SetSelection(index+1, editor.SourceUser)
	case contentText:
		if err := c.editor.InsertText(index, content, editor.SourceUser); err != nil {
			return -1, err
		}
		c.editor.SetSelection(index+editor.TextLength(content), editor.SourceUser)
	}

	return index, nil
}

func (c *Controller) fail(ref itemRef, stage string, err error) {
	metrics.RecordItemError(stage)
	c.logger.Warn("failed to ingest item",
		"event_id", ref.eventID,
		"origin", ref.origin,
		"mime_type", ref.mimeType,
		"stage", stage,
		"error", err,
	)
	c.publish(events.ItemFailed, &events.ItemEvent{
		EventID:  ref.eventID,
		Origin:   ref.origin,
		MIMEType: ref.mimeType,
		Index:    -1,
		Stage:    stage,
		Err:      err.Error(),
	})
}

func (c *Controller) publish(eventType events.EventType, p any) {
	if c.bus == nil {
		return
	}
	if err := c.bus.Publish(context.Background(), events.NewEvent(eventType, p)); err != nil {
		c.logger.Debug("failed to publish ingest event", "event_type", eventType, "error", err)
	}
}

// IsImageType reports whether mimeType is on the image allow-list. The match
// is a case-insensitive prefix match.
func IsImageType(mimeType string) bool {
	return imageTypePattern.MatchString(mimeType)
}

// IsPlainText reports whether mimeType is exactly text/plain, ignoring case.
func IsPlainText(mimeType string) bool {
	return plainTextPattern.MatchString(mimeType)
}

// HasHTMLText reports whether any item is HTML text.
func HasHTMLText(items []Item) bool {
	for _, item := range items {
		if htmlTextPattern.MatchString(item.Type()) {
			return true
		}
	}
	return false
}

func init() {
	editor.Register(ModuleName, func(ed editor.Editor, options any) (any, error) {
		switch o := options.(type) {
		case nil:
			return New(ed, Options{}), nil
		case Options:
			return New(ed, o), nil
		case *Options:
			if o == nil {
				return New(ed, Options{}), nil
			}
			return New(ed, *o), nil
		default:
			return nil, fmt.Errorf("unsupported options type %T", options)
		}
	})
}
