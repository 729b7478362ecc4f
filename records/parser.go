// Package records splits an archive source into generation records: one QR
// code per non-blank line, written as "<text>[|<filename>]".
package records

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/openclaw/qrcodemaker/paths"
	"github.com/openclaw/qrcodemaker/qr"
)

// Separator divides a line's text from its explicit filename. The last
// occurrence on a line wins.
const Separator = "|"

// maxLineSize bounds a single source line.
const maxLineSize = 16 << 20

// LeadingSeparatorPolicy decides what happens to a line that starts with the
// separator, i.e. one with an empty text part.
type LeadingSeparatorPolicy int

const (
	// DropLeadingSeparator yields the line as a Dropped record; no image is made.
	DropLeadingSeparator LeadingSeparatorPolicy = iota
	// EmptyTextLeadingSeparator yields a record whose text is the header alone.
	EmptyTextLeadingSeparator
)

// ParsePolicy accepts "drop" or "empty".
func ParsePolicy(s string) (LeadingSeparatorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop":
		return DropLeadingSeparator, nil
	case "empty":
		return EmptyTextLeadingSeparator, nil
	}
	return DropLeadingSeparator, fmt.Errorf("unknown leading separator policy %q (want drop or empty)", s)
}

func (p LeadingSeparatorPolicy) String() string {
	if p == EmptyTextLeadingSeparator {
		return "empty"
	}
	return "drop"
}

// Record is one (text, filename) pair taken from a source line.
type Record struct {
	Line     int    // 1-based source line
	Text     string // header + text part
	Filename string // extension-normalized target filename
	// AutoIndex is the sequential name used for lines without a separator,
	// or -1 when the filename was explicit.
	AutoIndex int
	// Dropped marks a leading-separator line rejected by the policy.
	Dropped bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithLeadingSeparator sets the policy for lines starting with the separator.
func WithLeadingSeparator(policy LeadingSeparatorPolicy) Option {
	return func(p *Parser) { p.policy = policy }
}

// Parser streams records from a source. Use it like bufio.Scanner:
//
//	for p.Next() {
//		rec := p.Record()
//	}
//	if err := p.Err(); err != nil { ... }
type Parser struct {
	sc     *bufio.Scanner
	header string
	format qr.Format
	policy LeadingSeparatorPolicy

	line int
	auto int
	rec  Record
}

// NewParser returns a Parser reading r. header is prepended to every text and
// format determines the extension added to filenames.
func NewParser(r io.Reader, header string, format qr.Format, opts ...Option) *Parser {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	sc.Split(scanLines)

	p := &Parser{sc: sc, header: header, format: format}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Next advances to the next record, skipping blank lines. It returns false at
// the end of input or on a read error.
func (p *Parser) Next() bool {
	for p.sc.Scan() {
		p.line++
		line := p.sc.Text()
		if line == "" {
			continue
		}
		p.rec = p.parse(line)
		return true
	}
	return false
}

// Record returns the record produced by the last call to Next.
func (p *Parser) Record() Record {
	return p.rec
}

// Err returns the first non-EOF read error.
func (p *Parser) Err() error {
	if err := p.sc.Err(); err != nil {
		return fmt.Errorf("read line %d: %w", p.line+1, err)
	}
	return nil
}

func (p *Parser) parse(line string) Record {
	rec := Record{Line: p.line, AutoIndex: -1}

	i := strings.LastIndex(line, Separator)
	switch {
	case i > 0:
		rec.Text = p.header + trim(line[:i])
		rec.Filename = trim(line[i+1:])
	case i < 0:
		rec.Text = p.header + line
		rec.AutoIndex = p.auto
		rec.Filename = strconv.Itoa(p.auto)
		p.auto++
	default:
		if p.policy != EmptyTextLeadingSeparator {
			rec.Dropped = true
			return rec
		}
		rec.Text = p.header
		rec.Filename = trim(line[len(Separator):])
	}

	rec.Filename = paths.NormalizeExtension(rec.Filename, p.format)
	return rec
}

// scanLines splits on "\n", "\r\n" or a lone "\r" and drops the terminator.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		// Need one more byte to tell "\r" from "\r\n".
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// trim strips leading and trailing bytes up to and including space, control
// characters among them. Unicode spaces such as U+00A0 are kept.
func trim(s string) string {
	return strings.TrimFunc(s, func(r rune) bool { return r <= ' ' })
}
