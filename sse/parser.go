// ABOUTME: Server-Sent Events reader for the analysis stream client.
// ABOUTME: Reads from an io.Reader and yields events per the W3C EventSource framing rules.

package sse

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// DefaultEventType is the type assigned to events without an "event:" field.
const DefaultEventType = "message"

// Event is a single Server-Sent Event, either parsed from a stream or
// about to be written to one.
type Event struct {
	Type  string // from "event:" line, defaults to "message"
	Data  string // from "data:" line(s), joined with newlines for multi-line
	ID    string // from "id:" line
	Retry int    // from "retry:" line, -1 if not set
}

// Parser reads SSE events from an io.Reader.
type Parser struct {
	lines   *lineReader
	done    bool
	started bool

	eventType string
	dataLines []string
	hasData   bool
	id        string
	retry     int
}

// NewParser creates a parser that reads from r.
func NewParser(r io.Reader) *Parser {
	return &Parser{
		lines: newLineReader(r),
		retry: -1,
	}
}

// Next returns the next event from the stream.
// Returns io.EOF when the stream ends. A pending event without a trailing
// blank line is still dispatched before io.EOF.
func (p *Parser) Next() (Event, error) {
	if p.done {
		return Event{}, io.EOF
	}

	for {
		line, err := p.lines.readLine()
		if err != nil {
			if err == io.EOF {
				p.done = true
				if p.hasData {
					evt := p.buildEvent()
					p.resetState()
					return evt, nil
				}
				return Event{}, io.EOF
			}
			return Event{}, err
		}

		if !p.started {
			p.started = true
			line = strings.TrimPrefix(line, "\ufeff")
		}

		if line == "" {
			if !p.hasData {
				continue
			}
			evt := p.buildEvent()
			p.resetState()
			return evt, nil
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := parseLine(line)
		p.processField(field, value)
	}
}

// parseLine splits an SSE line into field name and value. Without a colon
// the whole line is the field name. A single leading space in the value is
// stripped.
func parseLine(line string) (field, value string) {
	field, value, ok := strings.Cut(line, ":")
	if !ok {
		return line, ""
	}
	value = strings.TrimPrefix(value, " ")
	return field, value
}

func (p *Parser) processField(field, value string) {
	switch field {
	case "event":
		p.eventType = value
	case "data":
		p.dataLines = append(p.dataLines, value)
		p.hasData = true
	case "id":
		// Ids containing NUL are ignored.
		if !strings.ContainsRune(value, 0) {
			p.id = value
		}
	case "retry":
		if n, err := strconv.Atoi(value); err == nil && n >= 0 {
			p.retry = n
		}
	}
}

func (p *Parser) buildEvent() Event {
	eventType := p.eventType
	if eventType == "" {
		eventType = DefaultEventType
	}
	return Event{
		Type:  eventType,
		Data:  strings.Join(p.dataLines, "\n"),
		ID:    p.id,
		Retry: p.retry,
	}
}

func (p *Parser) resetState() {
	p.eventType = ""
	p.dataLines = nil
	p.hasData = false
	p.id = ""
	p.retry = -1
}

// lineReader reads lines terminated by CR, LF or CRLF. bufio.Scanner does
// not treat a bare CR as a terminator, so this is done by hand.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 4096)}
}

func (s *lineReader) readLine() (string, error) {
	var line strings.Builder
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			if err == io.EOF && line.Len() > 0 {
				return line.String(), nil
			}
			return "", err
		}

		switch b {
		case '\n':
			return line.String(), nil
		case '\r':
			if next, err := s.r.ReadByte(); err == nil && next != '\n' {
				_ = s.r.UnreadByte()
			}
			return line.String(), nil
		}

		line.WriteByte(b)
	}
}
