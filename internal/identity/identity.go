package identity

import "github.com/google/uuid"

var idFunc = uuid.NewString

// NewID returns an opaque unique identifier for new titles and replay events.
func NewID() string {
	return idFunc()
}

// SetIDFunc overrides the generator used by NewID. Passing nil resets it.
func SetIDFunc(fn func() string) {
	if fn == nil {
		idFunc = uuid.NewString
		return
	}
	idFunc = fn
}
