package archive

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

// Kind selects a document family. Each family has its own index.
type Kind string

const (
	Transcripts Kind = "transcript"
	Assessments Kind = "assessment"
)

var ErrNotFound = errors.New("document not found")

// Archive stores finished documents and keeps a most-recent-first index of
// their names per Kind. Put never overwrites: when name is taken the document
// is stored as "{base}_2{ext}", "{base}_3{ext}" and so on, and Put returns the
// name actually used. Put must serialize index updates of the same Kind.
type Archive interface {
	Put(ctx context.Context, kind Kind, name string, body []byte) (string, error)
	Get(ctx context.Context, kind Kind, name string) ([]byte, error)
	Index(ctx context.Context, kind Kind) ([]string, error)
}

func validate(kind Kind, name string) error {
	switch kind {
	case Transcripts, Assessments:
	default:
		return fmt.Errorf("unknown document kind %q", kind)
	}
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid document name %q", name)
	}
	return nil
}

// maxNameAttempts caps the suffixes tried for one name.
const maxNameAttempts = 100

// ErrNameTaken is returned when every suffixed variant of a name is in use.
var ErrNameTaken = errors.New("document name already taken")

// candidate is name itself for attempt 1 and "{base}_{n}{ext}" afterwards.
func candidate(name string, n int) string {
	if n == 1 {
		return name
	}
	ext := path.Ext(name)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext)
}

// NameLayout is the timestamp layout embedded in document names.
const NameLayout = "2006-01-02_15-04-05"

// DocumentName builds "{prefix}{sessionID}_{timestamp}.txt". Path separators in
// the session id are replaced so the name stays a single path element.
func DocumentName(prefix, sessionID string, at time.Time) string {
	safe := strings.NewReplacer("/", "_", `\`, "_").Replace(sessionID)
	return fmt.Sprintf("%s%s_%s.txt", prefix, safe, at.Format(NameLayout))
}
