package client

import "sync"

// Editor is the opaque text widget the client drives: remote mutations are
// pushed into it, and the embedder wires its local change events to
// Client.EmitEdit. ApplyDelta reports whether the delta fit the current
// buffer; on false the client falls back to ReplaceContent.
type Editor interface {
	ApplyDelta(d Delta) bool
	ReplaceContent(content string)
	Content() string
}

// Buffer is a plain in-memory Editor, enough for headless embedders and
// tests.
type Buffer struct {
	mu   sync.Mutex
	text string
}

func NewBuffer() *Buffer { return &Buffer{} }

func (b *Buffer) ApplyDelta(d Delta) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	next, ok := d.apply(b.text)
	if ok {
		b.text = next
	}
	return ok
}

func (b *Buffer) ReplaceContent(content string) {
	b.mu.Lock()
	b.text = content
	b.mu.Unlock()
}

func (b *Buffer) Content() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}
