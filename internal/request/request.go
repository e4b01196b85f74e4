// Package request extracts what the command layer needs from a raw request buffer.
//
// Parsing is deliberately shallow: only the request line is tokenized and query
// values are found by literal scanning. Nothing here ever fails; missing pieces
// come back empty.
package request

import (
	"bytes"
	"strings"
)

// Request is the parsed form of a single raw request.
type Request struct {
	Method string
	Target string // path including query, e.g. "/color?v=1.2.3"
	Path   string // target without query
	Line   string // the full first line
	Raw    []byte
}

// Parse tokenizes the first line of raw. Empty lines ahead of the request
// line are skipped (RFC 9112 section 2.2).
func Parse(raw []byte) Request {
	line := bytes.TrimLeft(raw, "\r\n")
	if i := bytes.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}

	req := Request{Line: string(line), Raw: raw}
	fields := strings.Fields(req.Line)
	if len(fields) > 0 {
		req.Method = fields[0]
	}
	if len(fields) > 1 {
		req.Target = fields[1]
		req.Path = req.Target
		if i := strings.IndexByte(req.Path, '?'); i >= 0 {
			req.Path = req.Path[:i]
		}
	}
	return req
}

// Param looks up a query value in the request buffer.
func (r Request) Param(name string) (string, bool) {
	return ExtractParam(r.Raw, name)
}

// ExtractParam finds the first literal "<name>=" in raw and returns what follows
// up to the nearest space or '&', or to the end of the buffer.
// The value is returned as-is, without percent-decoding.
func ExtractParam(raw []byte, name string) (string, bool) {
	key := []byte(name + "=")
	start := bytes.Index(raw, key)
	if start < 0 {
		return "", false
	}
	rest := raw[start+len(key):]
	if end := bytes.IndexAny(rest, " &"); end >= 0 {
		rest = rest[:end]
	}
	return string(rest), true
}
