// Package report renders a downloadable report of a recorded session.
package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/claude/fittracker/internal/models"
	"github.com/yuin/goldmark"
)

// Format selects the report encoding.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ParseFormat maps a query value to a Format. Empty means Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// Document is a rendered report ready to be served as a download.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Renderer renders session reports with dates in a fixed location.
type Renderer struct {
	loc *time.Location
	md  goldmark.Markdown
}

// New creates a Renderer. A nil loc means time.Local.
func New(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.Local
	}
	return &Renderer{loc: loc, md: goldmark.New()}
}

// Render produces the report of s in the given format. workoutName may be
// empty when the ficha was deleted.
func (r *Renderer) Render(s models.WorkoutSession, workoutName string, format Format) (*Document, error) {
	md := r.Markdown(s, workoutName)
	switch format {
	case FormatMarkdown:
		return &Document{
			Filename:    FileName(s.Date.In(r.loc), "md"),
			ContentType: "text/markdown; charset=utf-8",
			Body:        []byte(md),
		}, nil
	case FormatHTML:
		body, err := r.HTML(md)
		if err != nil {
			return nil, err
		}
		return &Document{
			Filename:    FileName(s.Date.In(r.loc), "html"),
			ContentType: "text/html; charset=utf-8",
			Body:        body,
		}, nil
	}
	return nil, fmt.Errorf("unknown report format %q", format)
}

// FileName returns treino-YYYY-MM-DD.ext.
func FileName(date time.Time, ext string) string {
	return fmt.Sprintf("treino-%s.%s", date.Format("2006-01-02"), ext)
}

// Markdown renders the report body.
func (r *Renderer) Markdown(s models.WorkoutSession, workoutName string) string {
	var b strings.Builder

	b.WriteString("# Relatório de Treino\n\n")
	fmt.Fprintf(&b, "- **Data:** %s\n", s.Date.In(r.loc).Format("02/01/2006"))
	fmt.Fprintf(&b, "- **Treino:** %s\n", workoutName)
	fmt.Fprintf(&b, "- **Duração:** %d minutos\n", s.Duration)
	fmt.Fprintf(&b, "- **Status:** %s\n", status(s.Completed, "Concluído", "Incompleto"))

	if notes := strings.TrimSpace(s.Notes); notes != "" {
		fmt.Fprintf(&b, "\n## Observações\n\n%s\n", notes)
	}

	if len(s.Exercises) > 0 {
		b.WriteString("\n## Exercícios\n\n")
		for i, ex := range s.Exercises {
			fmt.Fprintf(&b, "%d. **%s** - %d séries x %s repetições\n", i+1, ex.Name, ex.Sets, ex.Reps)
			if ex.RestTime > 0 {
				fmt.Fprintf(&b, "   - Descanso: %ds\n", ex.RestTime)
			}
			if ex.Weight != nil {
				fmt.Fprintf(&b, "   - Peso: %skg\n", strconv.FormatFloat(*ex.Weight, 'f', -1, 64))
			}
			if notes := strings.TrimSpace(ex.Notes); notes != "" {
				fmt.Fprintf(&b, "   - Obs: %s\n", notes)
			}
			fmt.Fprintf(&b, "   - Status: %s\n", status(ex.Completed, "Concluído", "Pendente"))
		}
	}

	if len(s.Photos) > 0 {
		b.WriteString("\n## Fotos\n\n")
		for _, p := range s.Photos {
			fmt.Fprintf(&b, "- <%s>\n", p)
		}
	}
	return b.String()
}

// HTML converts a Markdown report into a standalone HTML page.
func (r *Renderer) HTML(markdown string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>Relatório de Treino</title></head>
<body>
`)
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return nil, fmt.Errorf("rendering report html: %w", err)
	}
	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes(), nil
}

func status(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
