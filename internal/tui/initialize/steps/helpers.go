package steps

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/leefowlercu/imagedrop/internal/tui/styles"
)

// NavigationHelp is the key help for selection steps.
func NavigationHelp() string {
	return renderHelp([]helpItem{
		{key: "↑/↓", desc: "navigate"},
		{key: "enter", desc: "select"},
		{key: "esc", desc: "back"},
		{key: "ctrl+c", desc: "quit"},
	})
}

// NavigationHelpWithInput is the key help for steps with text inputs.
func NavigationHelpWithInput() string {
	return renderHelp([]helpItem{
		{key: "tab", desc: "next field"},
		{key: "enter", desc: "continue"},
		{key: "esc", desc: "back"},
		{key: "ctrl+c", desc: "quit"},
	})
}

type helpItem struct {
	key  string
	desc string
}

func renderHelp(items []helpItem) string {
	sep := styles.MutedText.Render(" • ")

	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, styles.HelpKey.Render(item.key)+" "+styles.MutedText.Render(item.desc))
	}
	return strings.Join(parts, sep)
}

// FormatError renders err, or nothing for nil.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	return styles.ErrorText.Render(fmt.Sprintf("Error: %s", err.Error()))
}

// FormatSuccess renders a success line.
func FormatSuccess(msg string) string {
	return styles.SuccessText.Render("✓ " + msg)
}

// FormatWarning renders a warning line.
func FormatWarning(msg string) string {
	return styles.WarningText.Render("⚠ " + msg)
}

// FormatMuted renders secondary text.
func FormatMuted(msg string) string {
	return styles.MutedText.Render(msg)
}

func stepHeading(title, lead string) string {
	heading := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Secondary).
		Render(title)
	return heading + "\n\n" + styles.MutedText.Render(lead) + "\n\n"
}

// CheckPortInUse reports whether something accepts TCP connections on port
// at host. An empty or unspecified host is checked on loopback.
func CheckPortInUse(host string, port int) bool {
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), 100*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// parsePort parses a TCP port number.
func parsePort(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("port is required")
	}
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("port must be a number")
	}
	if port < 1 || port > 65535 {
		return 0, errors.New("port must be between 1 and 65535")
	}
	return port, nil
}

// splitList splits a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
