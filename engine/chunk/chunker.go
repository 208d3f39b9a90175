// Package chunk splits raw document text into overlapping bounded segments
// ready for embedding. Markdown input is split preferentially at heading and
// paragraph boundaries; plain text uses fixed-size sliding windows. Sizes and
// overlap are measured in characters (runes).
package chunk

import (
	"regexp"
	"strings"

	"github.com/jobbooster/jobbooster/engine/domain"
)

const (
	// DefaultSize is the target chunk size in characters.
	DefaultSize = 400
	// DefaultOverlap is the number of characters shared between consecutive chunks.
	DefaultOverlap = 50
)

// rulesetMarker tags markdown sections carrying personal writing rules,
// e.g. "[RULESET: email]". Such sections are indexed whole.
var rulesetMarker = regexp.MustCompile(`\[RULESET:\s*([^\]]+)\]`)

// Chunker produces chunks of at most size characters, with consecutive
// sliding-window chunks sharing exactly overlap characters at the boundary.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker. Overlap must be strictly smaller than size.
func New(size, overlap int) (*Chunker, error) {
	if err := domain.ValidateChunking(size, overlap); err != nil {
		return nil, err
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the configured chunk size in characters.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap in characters.
func (c *Chunker) Overlap() int { return c.overlap }

// Split chunks one source document according to its format hint.
// Empty input yields no chunks.
func (c *Chunker) Split(doc domain.SourceDocument) []domain.Chunk {
	switch doc.Format {
	case domain.FormatMarkdown:
		return c.splitMarkdown(doc)
	default:
		return c.splitText(doc)
	}
}

// splitText applies fixed-size sliding windows over the raw text. Input
// shorter than the chunk size yields exactly one chunk equal to the input.
func (c *Chunker) splitText(doc domain.SourceDocument) []domain.Chunk {
	var chunks []domain.Chunk
	for _, w := range c.windows(doc.Text) {
		chunks = append(chunks, domain.Chunk{
			Text:   w,
			Source: doc.Source,
			Index:  len(chunks),
		})
	}
	return chunks
}

// splitMarkdown splits at heading boundaries first. Sections that fit the
// chunk size become one chunk each; larger sections are packed by paragraph
// and only hard-cut as a last resort. Ruleset sections are never subdivided.
func (c *Chunker) splitMarkdown(doc domain.SourceDocument) []domain.Chunk {
	var chunks []domain.Chunk
	add := func(text, ruleset string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		chunks = append(chunks, domain.Chunk{
			Text:    text,
			Source:  doc.Source,
			Index:   len(chunks),
			Ruleset: ruleset,
		})
	}

	for _, section := range splitSections(doc.Text) {
		if m := rulesetMarker.FindStringSubmatch(section); m != nil {
			add(section, strings.ToLower(strings.TrimSpace(m[1])))
			continue
		}
		if runeLen(section) <= c.size {
			add(section, "")
			continue
		}
		for _, part := range c.packParagraphs(section) {
			add(part, "")
		}
	}
	return chunks
}

// windows returns sliding windows of size runes advancing by size-overlap,
// so consecutive windows share exactly overlap runes. The final window keeps
// whatever remains.
func (c *Chunker) windows(text string) []string {
	r := []rune(text)
	if len(r) == 0 {
		return nil
	}
	if len(r) <= c.size {
		return []string{text}
	}
	step := c.size - c.overlap
	var out []string
	for start := 0; ; start += step {
		end := start + c.size
		if end >= len(r) {
			out = append(out, string(r[start:]))
			return out
		}
		out = append(out, string(r[start:end]))
	}
}

// packParagraphs greedily groups a section's paragraphs into parts of at most
// size runes. A single paragraph exceeding the size is hard-cut into windows.
func (c *Chunker) packParagraphs(section string) []string {
	var parts []string
	var buf strings.Builder
	bufLen := 0

	flush := func() {
		if bufLen > 0 {
			parts = append(parts, buf.String())
			buf.Reset()
			bufLen = 0
		}
	}

	for _, para := range strings.Split(section, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		n := runeLen(para)
		if n > c.size {
			flush()
			parts = append(parts, c.windows(para)...)
			continue
		}
		// +2 accounts for the paragraph separator.
		if bufLen > 0 && bufLen+2+n > c.size {
			flush()
		}
		if bufLen > 0 {
			buf.WriteString("\n\n")
			bufLen += 2
		}
		buf.WriteString(para)
		bufLen += n
	}
	flush()
	return parts
}

// splitSections cuts markdown at heading lines, keeping each heading with the
// text that follows it.
func splitSections(text string) []string {
	lines := strings.Split(text, "\n")
	var sections []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			sections = append(sections, strings.Join(current, "\n"))
			current = nil
		}
	}

	for _, line := range lines {
		if isHeading(line) {
			flush()
		}
		current = append(current, line)
	}
	flush()
	return sections
}

func isHeading(line string) bool {
	trimmed := strings.TrimLeft(line, "#")
	level := len(line) - len(trimmed)
	return level >= 1 && level <= 6 && strings.HasPrefix(trimmed, " ")
}

func runeLen(s string) int {
	return len([]rune(s))
}
