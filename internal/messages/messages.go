// Package messages reads the queue of lines to send into a thread.
package messages

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads path and returns its non-empty lines in file order.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open message file: %w", err)
	}
	defer f.Close()

	msgs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read message file %s: %w", path, err)
	}
	return msgs, nil
}

// Parse splits r on LF or CRLF and drops empty lines. Every other line,
// whitespace-only ones included, is returned verbatim. Lines have no length cap.
func Parse(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)

	var msgs []string
	first := true
	for {
		line, err := br.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		line = bytes.TrimSuffix(line, []byte("\n"))
		line = bytes.TrimSuffix(line, []byte("\r"))
		if first {
			line = bytes.TrimPrefix(line, utf8BOM)
			first = false
		}
		if len(line) > 0 {
			msgs = append(msgs, string(line))
		}
		if err == io.EOF {
			return msgs, nil
		}
	}
}
