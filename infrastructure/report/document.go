// Package report renders harvest results and transcripts as markdown or text files.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/naoterumaker/youtube-transcriber/infrastructure/filecsv"
)

// Format is the output format of a transcript document.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
)

// ParseFormat accepts md or txt; an empty string means md.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatMarkdown:
		return FormatMarkdown, nil
	case FormatText:
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want md or txt)", s)
	}
}

// Ext is the file extension for f, including the dot.
func (f Format) Ext() string {
	if f == FormatText {
		return ".txt"
	}
	return ".md"
}

// Document is one transcript ready to be rendered.
type Document struct {
	Title     string
	URL       string
	Language  string
	Text      string
	Generated time.Time
}

// Render returns the document body in format f. Text output is the transcript alone.
func (d Document) Render(f Format) string {
	if f == FormatText {
		return d.Text
	}
	var sb strings.Builder
	sb.WriteString("# YouTube Transcript\n\n")
	if d.Title != "" {
		fmt.Fprintf(&sb, "**Title:** %s\n\n", d.Title)
	}
	fmt.Fprintf(&sb, "**URL:** %s\n\n", d.URL)
	if d.Language != "" {
		fmt.Fprintf(&sb, "**Language:** %s\n\n", d.Language)
	}
	fmt.Fprintf(&sb, "**Generated:** %s\n\n", d.Generated.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "---\n\n%s\n", d.Text)
	return sb.String()
}

// WriteDocument renders d into path, creating parent directories.
func WriteDocument(path string, d Document, f Format) error {
	file, err := filecsv.NewFile(path)
	if err != nil {
		return err
	}
	if _, err := file.WriteString(d.Render(f)); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
