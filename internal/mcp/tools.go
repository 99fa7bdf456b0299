package mcp

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/leefowlercu/imagedrop/internal/ingest"
	"github.com/leefowlercu/imagedrop/internal/minify"
	"github.com/leefowlercu/imagedrop/internal/payload"
)

const (
	toolProbeImageURL = "probe_image_url"
	toolPasteText     = "paste_text"
	toolPasteImage    = "paste_image"
	toolMinifyImage   = "minify_image"
)

type probeResult struct {
	URL    string `json:"url"`
	Image  bool   `json:"image"`
	Reason string `json:"reason,omitempty"`
}

type pasteResult struct {
	EventID   string `json:"event_id"`
	Length    int    `json:"length"`
	Selection *int   `json:"selection,omitempty"`
}

func (s *Server) registerTools() {
	if s.prober != nil {
		s.mcpServer.AddTool(mcp.NewTool(
			toolProbeImageURL,
			mcp.WithTitleAnnotation("Probe Image URL"),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDescription("Report whether a URL resolves to a decodable image. URLs ending in a known image extension are accepted without loading."),
			mcp.WithString("url", mcp.Required(), mcp.Description("The URL to classify.")),
		), s.handleProbeImageURL)
	}

	if s.doc != nil {
		s.mcpServer.AddTool(mcp.NewTool(
			toolPasteText,
			mcp.WithTitleAnnotation("Paste Text"),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithDescription("Paste text at the document selection. Image URLs are embedded as images; other text is inserted literally."),
			mcp.WithString("text", mcp.Required(), mcp.MinLength(1), mcp.Description("The text to paste.")),
		), s.handlePasteText)

		s.mcpServer.AddTool(mcp.NewTool(
			toolPasteImage,
			mcp.WithTitleAnnotation("Paste Image"),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithDescription("Paste an image at the document selection."),
			mcp.WithString("data", mcp.Required(), mcp.Description("Image bytes as base64 or a data: URL.")),
			mcp.WithString("mime_type", mcp.Description("Image MIME type; sniffed from the bytes when omitted.")),
			mcp.WithString("name", mcp.Description("File name recorded on the pasted item.")),
		), s.handlePasteImage)
	}

	if s.minifier != nil {
		s.mcpServer.AddTool(mcp.NewTool(
			toolMinifyImage,
			mcp.WithTitleAnnotation("Minify Image"),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDescription("Scale an image to fit a bounding box and re-encode it."),
			mcp.WithString("data", mcp.Required(), mcp.Description("Image bytes as base64 or a data: URL.")),
			mcp.WithString("output_type", mcp.Description("Output MIME type; defaults to the input type.")),
			mcp.WithNumber("max_width", mcp.Min(1), mcp.Description("Maximum output width in pixels.")),
			mcp.WithNumber("max_height", mcp.Min(1), mcp.Description("Maximum output height in pixels.")),
			mcp.WithNumber("quality", mcp.Min(0), mcp.Max(1), mcp.Description("Encoder quality in [0, 1].")),
		), s.handleMinifyImage)
	}
}

func (s *Server) handleProbeImageURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url is required"), nil
	}

	isImage, err := s.prober.ProbeIsImage(ctx, rawURL)
	result := probeResult{URL: rawURL, Image: isImage}
	if err != nil {
		result.Reason = err.Error()
	}
	return mcp.NewToolResultText(toJSON(result)), nil
}

func (s *Server) handlePasteText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil || text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	return s.paste(ingest.NewStringItem(ingest.MIMETypePlainText, text)), nil
}

func (s *Server) handlePasteImage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, mimeType, err := decodeImageArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name := request.GetString("name", "")
	if name == "" {
		name = "pasted"
	}
	return s.paste(ingest.NewFileItem(name, mimeType, data)), nil
}

func (s *Server) paste(item ingest.Item) *mcp.CallToolResult {
	event := ingest.NewPasteEvent(item)
	s.doc.Root().Dispatch(event)
	if s.waiter != nil {
		s.waiter.Wait()
	}

	snap := s.doc.Snapshot()
	result := pasteResult{EventID: event.ID, Length: snap.Length}
	if snap.Selection != nil {
		index := snap.Selection.Index
		result.Selection = &index
	}

	s.logger.Debug("pasted via tool", "event_id", event.ID, "mime_type", item.Type())
	return mcp.NewToolResultText(toJSON(result))
}

func (s *Server) handleMinifyImage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, mimeType, err := decodeImageArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := minifyOptions(request, s.defaults)
	target := request.GetString("output_type", mimeType)

	out, outType, err := s.minifier.MinifyBytes(ctx, data, target, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("minify failed: %v", err)), nil
	}

	summary := fmt.Sprintf("%s, %d -> %d bytes", outType, len(data), len(out))
	return mcp.NewToolResultImage(summary, base64.StdEncoding.EncodeToString(out), outType), nil
}

// minifyOptions overlays the request's bounds and quality on defaults.
func minifyOptions(request mcp.CallToolRequest, defaults minify.Options) minify.Options {
	opts := defaults
	opts.MaxWidth = request.GetInt("max_width", opts.MaxWidth)
	opts.MaxHeight = request.GetInt("max_height", opts.MaxHeight)
	opts.Quality = request.GetFloat("quality", opts.Quality)
	return opts
}

// decodeImageArg reads the data argument as a data URL or plain base64.
// The MIME type comes from the data URL, then mime_type, then sniffing.
func decodeImageArg(request mcp.CallToolRequest) ([]byte, string, error) {
	raw, err := request.RequireString("data")
	if err != nil || strings.TrimSpace(raw) == "" {
		return nil, "", fmt.Errorf("data is required")
	}
	raw = strings.TrimSpace(raw)

	var (
		data     []byte
		mimeType string
	)
	if strings.HasPrefix(raw, "data:") {
		mimeType, data, err = payload.ParseDataURL(raw)
		if err != nil {
			return nil, "", fmt.Errorf("invalid data URL: %v", err)
		}
	} else {
		data, err = base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, "", fmt.Errorf("data is not valid base64: %v", err)
		}
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("data is empty")
	}

	if mimeType == "" {
		mimeType = request.GetString("mime_type", "")
	}
	if mimeType == "" {
		mimeType = payload.DetectMIME(data)
	}
	if !ingest.IsImageType(mimeType) {
		return nil, "", fmt.Errorf("%s is not an image type", mimeType)
	}
	return data, mimeType, nil
}
