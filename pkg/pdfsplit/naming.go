package pdfsplit

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// DefaultPattern names chunks "<stem>_part_01.pdf", "<stem>_part_02.pdf", ...
const DefaultPattern = "{stem}_part_{i:02d}.pdf"

const maxPadWidth = 64

// formatSpecRegex matches the accepted numeric format specs: "d", "5d", "03d".
var formatSpecRegex = regexp.MustCompile(`^(0?)([0-9]*)d$`)

type field int

const (
	fieldLiteral field = iota
	fieldStem
	fieldIndex1
	fieldIndex0
	fieldStart
	fieldEnd
)

var fieldNames = map[string]field{
	"stem":  fieldStem,
	"i":     fieldIndex1,
	"i0":    fieldIndex0,
	"start": fieldStart,
	"end":   fieldEnd,
}

type segment struct {
	field   field
	literal string
	width   int
	zeroPad bool
}

// Template is a parsed NameTemplate. It is immutable and safe for reuse.
type Template struct {
	pattern  string
	segments []segment
}

// ParseTemplate compiles pattern. An empty pattern selects DefaultPattern.
func ParseTemplate(pattern string) (*Template, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	t := &Template{pattern: pattern}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{field: fieldLiteral, literal: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch c {
		case '{':
			if i+1 < len(pattern) && pattern[i+1] == '{' {
				lit.WriteByte('{')
				i += 2
				continue
			}
			j := strings.IndexByte(pattern[i+1:], '}')
			if j < 0 {
				return nil, templateError(pattern, "unterminated '{' at offset %d", i)
			}
			seg, err := parsePlaceholder(pattern, pattern[i+1:i+1+j])
			if err != nil {
				return nil, err
			}
			flush()
			t.segments = append(t.segments, seg)
			i += j + 2
		case '}':
			if i+1 < len(pattern) && pattern[i+1] == '}' {
				lit.WriteByte('}')
				i += 2
				continue
			}
			return nil, templateError(pattern, "single '}' at offset %d", i)
		default:
			lit.WriteByte(c)
			i++
		}
	}
	flush()
	return t, nil
}

func parsePlaceholder(pattern, body string) (segment, error) {
	name, spec, hasSpec := strings.Cut(body, ":")
	f, ok := fieldNames[name]
	if !ok {
		return segment{}, templateError(pattern, "unknown placeholder {%s}", body)
	}
	seg := segment{field: f}
	if !hasSpec {
		return seg, nil
	}
	if f == fieldStem {
		return segment{}, templateError(pattern, "{stem} does not take a format spec")
	}
	m := formatSpecRegex.FindStringSubmatch(spec)
	if m == nil {
		return segment{}, templateError(pattern, "bad format spec %q in {%s}", spec, body)
	}
	seg.zeroPad = m[1] == "0"
	if m[2] != "" {
		w, err := strconv.Atoi(m[2])
		if err != nil || w > maxPadWidth {
			return segment{}, templateError(pattern, "bad width %q in {%s}", m[2], body)
		}
		seg.width = w
	}
	return seg, nil
}

func templateError(pattern, format string, args ...any) *Error {
	return newError(KindTemplate, "template", "", fmt.Errorf("%q: %s", pattern, fmt.Sprintf(format, args...)))
}

// String returns the source pattern.
func (t *Template) String() string { return t.pattern }

// Render substitutes every placeholder for one chunk.
func (t *Template) Render(stem string, c ChunkSpec) string {
	var b strings.Builder
	for _, s := range t.segments {
		switch s.field {
		case fieldLiteral:
			b.WriteString(s.literal)
		case fieldStem:
			b.WriteString(stem)
		case fieldIndex1:
			b.WriteString(pad(c.Index1, s))
		case fieldIndex0:
			b.WriteString(pad(c.Index0, s))
		case fieldStart:
			b.WriteString(pad(c.Range.Start, s))
		case fieldEnd:
			b.WriteString(pad(c.Range.End, s))
		}
	}
	return b.String()
}

func pad(v int, s segment) string {
	str := strconv.Itoa(v)
	if len(str) >= s.width {
		return str
	}
	fill := " "
	if s.zeroPad {
		fill = "0"
	}
	return strings.Repeat(fill, s.width-len(str)) + str
}

// FileName renders the chunk's output file name, appending ".pdf" when missing.
// Names that are empty or would leave the output directory are rejected.
func (t *Template) FileName(stem string, c ChunkSpec) (string, error) {
	name := ensurePDFSuffix(t.Render(stem, c))
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" || base == "." || base == ".." || strings.ContainsAny(name, `/\`) {
		return "", templateError(t.pattern, "renders invalid file name %q for chunk %d", name, c.Index1)
	}
	return name, nil
}

// RenderName parses pattern and renders the file name of one chunk.
func RenderName(pattern, stem string, c ChunkSpec) (string, error) {
	t, err := ParseTemplate(pattern)
	if err != nil {
		return "", err
	}
	return t.FileName(stem, c)
}

func ensurePDFSuffix(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return name
	}
	return name + ".pdf"
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
