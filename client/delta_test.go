package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeltaApply(t *testing.T) {
	tests := []struct {
		name string
		in   string
		d    Delta
		want string
		ok   bool
	}{
		{"insert at start", "world", Delta{0, 0, "hello "}, "hello world", true},
		{"replace range", "abcdef", Delta{2, 4, "XY"}, "abXYef", true},
		{"delete range", "abcdef", Delta{1, 5, ""}, "af", true},
		{"append", "ab", Delta{2, 2, "c"}, "abc", true},
		{"whole buffer", "old", Delta{0, 3, "new"}, "new", true},
		{"negative start", "ab", Delta{-1, 1, "x"}, "ab", false},
		{"end before start", "ab", Delta{2, 1, "x"}, "ab", false},
		{"end past buffer", "ab", Delta{0, 3, "x"}, "ab", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.d.apply(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBufferEditor(t *testing.T) {
	b := NewBuffer()
	b.ReplaceContent("hello")
	assert.True(t, b.ApplyDelta(Delta{5, 5, " world"}))
	assert.Equal(t, "hello world", b.Content())

	// An out-of-bounds delta leaves the buffer untouched.
	assert.False(t, b.ApplyDelta(Delta{0, 99, "x"}))
	assert.Equal(t, "hello world", b.Content())
}
