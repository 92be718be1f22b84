package messages

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "blank line between", input: "a\n\nb\n", want: []string{"a", "b"}},
		{name: "crlf", input: "hello\r\n\r\nworld\r\n", want: []string{"hello", "world"}},
		{name: "mixed endings no trailing newline", input: "one\r\ntwo\nthree", want: []string{"one", "two", "three"}},
		{name: "whitespace only lines kept", input: "x\n   \n\t\ny\n", want: []string{"x", "   ", "\t", "y"}},
		{name: "whitespace line with crlf", input: "a\r\n \r\n\r\nb", want: []string{"a", " ", "b"}},
		{name: "inner spacing kept", input: "  padded text  \n", want: []string{"  padded text  "}},
		{name: "bom stripped", input: "\xEF\xBB\xBFfirst\nsecond\n", want: []string{"first", "second"}},
		{name: "empty", input: "", want: nil},
		{name: "only blanks", input: "\n\r\n\n", want: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(strings.NewReader(tc.input))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParsePreservesOrderAndDuplicates(t *testing.T) {
	var lines []string
	for i := 0; i < 50; i++ {
		lines = append(lines, strings.Repeat("m", i%7+1))
	}

	got, err := Parse(strings.NewReader(strings.Join(lines, "\n\n")))
	require.NoError(t, err)
	assert.Equal(t, lines, got)
}

func TestParseLongLine(t *testing.T) {
	long := strings.Repeat("x", 3<<20)

	got, err := Parse(strings.NewReader("short\n" + long + "\nafter\n"))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "short", got[0])
	assert.Len(t, got[1], len(long))
	assert.Equal(t, "after", got[2])
}

func TestParseReadError(t *testing.T) {
	readErr := errors.New("disk went away")
	r := io.MultiReader(strings.NewReader("first\nsecond"), iotest.ErrReader(readErr))

	got, err := Parse(r)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, readErr)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "msg.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi there\n\nsecond line\n"), 0644))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"hi there", "second line"}, got)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
