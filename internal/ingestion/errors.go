// Package ingestion turns uploaded document bytes into normalized plain text
// with coarse layout blocks.
package ingestion

import (
	"errors"
	"fmt"
)

// ErrUnreadableDocument matches every UnreadableDocumentError via errors.Is
var ErrUnreadableDocument = errors.New("unreadable document")

// UnreadableDocumentError reports a document no handler could turn into text
type UnreadableDocumentError struct {
	FileName string
	Format   string
	Message  string
	Cause    error
}

func (e *UnreadableDocumentError) Error() string {
	msg := fmt.Sprintf("%s %q", ErrUnreadableDocument, e.FileName)
	if e.Format != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Format)
	}
	msg = fmt.Sprintf("%s: %s", msg, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *UnreadableDocumentError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrUnreadableDocument
func (e *UnreadableDocumentError) Is(target error) bool {
	return target == ErrUnreadableDocument
}
