package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		line     string
		mode     Mode
		window   [WindowSize]string
		context  []string
		fragment string
	}{
		{"", ModePredict, [WindowSize]string{}, nil, ""},
		{"   ", ModePredict, [WindowSize]string{}, nil, ""},
		{"ca", ModeSearch, [WindowSize]string{"", "", "", "", "ca"}, nil, "ca"},
		{"the ca", ModeSearch, [WindowSize]string{"", "", "", "the", "ca"}, []string{"the"}, "ca"},
		{"the ", ModePredict, [WindowSize]string{"", "", "", "the", ""}, []string{"the"}, ""},
		{"the\n", ModePredict, [WindowSize]string{"", "", "", "the", ""}, []string{"the"}, ""},
		{"  the \t ca", ModeSearch, [WindowSize]string{"", "", "", "the", "ca"}, []string{"the"}, "ca"},
		{"a b c d e f", ModeSearch, [WindowSize]string{"b", "c", "d", "e", "f"}, []string{"b", "c", "d", "e"}, "f"},
		{"a b c d e ", ModePredict, [WindowSize]string{"b", "c", "d", "e", ""}, []string{"b", "c", "d", "e"}, ""},
		{"The Ca", ModeSearch, [WindowSize]string{"", "", "", "The", "Ca"}, []string{"The"}, "Ca"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			q := ParseQuery(tt.line)
			assert.Equal(t, tt.mode, q.Mode)
			assert.Equal(t, tt.window, q.Window)
			assert.Equal(t, tt.fragment, q.Fragment)
			if tt.context == nil {
				assert.Empty(t, q.Context)
			} else {
				assert.Equal(t, tt.context, q.Context)
			}
			for _, w := range q.Context {
				assert.NotEmpty(t, w)
			}
		})
	}
}

func TestQueryKey(t *testing.T) {
	assert.Equal(t, ParseQuery("the ca").Key(), ParseQuery("  the ca").Key())
	assert.NotEqual(t, ParseQuery("the ca").Key(), ParseQuery("the ca ").Key())
	assert.NotEqual(t, ParseQuery("a bc").Key(), ParseQuery("ab c").Key())
	assert.NotEqual(t, ParseQuery("the").Key(), ParseQuery("the ").Key())
}
