package content

import "fmt"

// ContentType is inert metadata describing the body.
type ContentType string

const (
	Text     ContentType = "Text"
	Media    ContentType = "Media"
	Document ContentType = "Document"
	Thread   ContentType = "Thread"
)

// Valid reports whether t is one of the known content types.
func (t ContentType) Valid() bool {
	switch t {
	case Text, Media, Document, Thread:
		return true
	default:
		return false
	}
}

func (t ContentType) String() string { return string(t) }

func (t *ContentType) UnmarshalText(b []byte) error {
	v := ContentType(b)
	if !v.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownContentType, string(b))
	}
	*t = v
	return nil
}
