package transcript

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TimeLayout is the timestamp format used inside documents.
const TimeLayout = "2006-01-02 15:04:05"

const armHeader = "Tipo de Atendimento: "

type Speaker int

const (
	User Speaker = iota + 1
	Bot
)

func (s Speaker) Label() string {
	switch s {
	case User:
		return "Usuário"
	case Bot:
		return "Bot"
	default:
		return "?"
	}
}

type EntryKind int

const (
	Turn EntryKind = iota
	StartMarker
	EndMarker
)

// Entry is one line group of a transcript: a turn or an interaction marker.
type Entry struct {
	Kind      EntryKind
	Timestamp time.Time
	Speaker   Speaker
	Text      string
}

// Document is a rendered or parsed transcript.
type Document struct {
	Arm     string
	Entries []Entry
}

var (
	turnLine  = regexp.MustCompile(`^\[(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\] (Usuário|Bot): (.*)$`)
	startLine = regexp.MustCompile(`^--- Início da interação: (\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}) ---$`)
	endLine   = regexp.MustCompile(`^--- Fim da interação: (\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}) ---$`)
)

// Render writes the arm header, a blank line and one line per entry. Multi-line
// turn text is written as is.
func (d *Document) Render() []byte {
	var b bytes.Buffer
	b.WriteString(armHeader)
	b.WriteString(d.Arm)
	b.WriteString("\n\n")
	for i, e := range d.Entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		ts := e.Timestamp.Format(TimeLayout)
		switch e.Kind {
		case StartMarker:
			fmt.Fprintf(&b, "--- Início da interação: %s ---", ts)
		case EndMarker:
			fmt.Fprintf(&b, "--- Fim da interação: %s ---", ts)
		default:
			fmt.Fprintf(&b, "[%s] %s: %s", ts, e.Speaker.Label(), e.Text)
		}
	}
	return b.Bytes()
}

// Turns returns only the user and bot entries.
func (d *Document) Turns() []Entry {
	var out []Entry
	for _, e := range d.Entries {
		if e.Kind == Turn {
			out = append(out, e)
		}
	}
	return out
}

// Start is the first interaction-start timestamp.
func (d *Document) Start() (time.Time, bool) {
	for _, e := range d.Entries {
		if e.Kind == StartMarker {
			return e.Timestamp, true
		}
	}
	return time.Time{}, false
}

// End is the last interaction-end timestamp.
func (d *Document) End() (time.Time, bool) {
	for i := len(d.Entries) - 1; i >= 0; i-- {
		if d.Entries[i].Kind == EndMarker {
			return d.Entries[i].Timestamp, true
		}
	}
	return time.Time{}, false
}

// Parse reads a document produced by Render. Lines that are neither markers
// nor turn headers continue the text of the previous turn. Timestamps are read
// in the local zone.
func Parse(data []byte) (*Document, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !sc.Scan() {
		return nil, fmt.Errorf("empty transcript")
	}
	header := strings.TrimSuffix(sc.Text(), "\r")
	if !strings.HasPrefix(header, armHeader) {
		return nil, fmt.Errorf("missing %q header", strings.TrimSpace(armHeader))
	}
	doc := &Document{Arm: strings.TrimSpace(strings.TrimPrefix(header, armHeader))}

	lineNo := 1
	for sc.Scan() {
		lineNo++
		line := strings.TrimSuffix(sc.Text(), "\r")

		if m := startLine.FindStringSubmatch(line); m != nil {
			ts, err := parseTime(m[1], lineNo)
			if err != nil {
				return nil, err
			}
			doc.Entries = append(doc.Entries, Entry{Kind: StartMarker, Timestamp: ts})
			continue
		}
		if m := endLine.FindStringSubmatch(line); m != nil {
			ts, err := parseTime(m[1], lineNo)
			if err != nil {
				return nil, err
			}
			doc.Entries = append(doc.Entries, Entry{Kind: EndMarker, Timestamp: ts})
			continue
		}
		if m := turnLine.FindStringSubmatch(line); m != nil {
			ts, err := parseTime(m[1], lineNo)
			if err != nil {
				return nil, err
			}
			speaker := User
			if m[2] == "Bot" {
				speaker = Bot
			}
			doc.Entries = append(doc.Entries, Entry{Kind: Turn, Timestamp: ts, Speaker: speaker, Text: m[3]})
			continue
		}

		n := len(doc.Entries)
		switch {
		case n > 0 && doc.Entries[n-1].Kind == Turn:
			doc.Entries[n-1].Text += "\n" + line
		case n == 0 && line == "":
			// blank separator after the header
		default:
			return nil, fmt.Errorf("line %d: unexpected content %q", lineNo, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return doc, nil
}

func parseTime(s string, lineNo int) (time.Time, error) {
	ts, err := time.ParseInLocation(TimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("line %d: bad timestamp %q: %w", lineNo, s, err)
	}
	return ts, nil
}
