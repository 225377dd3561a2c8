// Package jsonrpc implements the client side of the framed protocol spoken
// with the external symbol-analysis process: Content-Length framing over a
// byte stream, the message envelope, and request/response correlation.
package jsonrpc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrFraming is the category error for malformed frames. Specific framing
// failures wrap it so callers can match with errors.Is.
var ErrFraming = errors.New("jsonrpc: framing error")

const contentLengthHeader = "Content-Length"

// WriteFrame writes one framed message: a Content-Length header line, a
// blank line, then exactly the payload bytes.
func WriteFrame(w io.Writer, payload []byte) error {
	if _, err := fmt.Fprintf(w, "%s: %d\r\n\r\n", contentLengthHeader, len(payload)); err != nil {
		return fmt.Errorf("jsonrpc: write header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("jsonrpc: write body: %w", err)
	}
	return nil
}

// ReadFrame reads one framed message from r and returns the body bytes.
// Header names match case-insensitively and unrecognized headers are
// skipped. A clean end of stream at a message boundary returns io.EOF; a
// stream that ends mid-header or mid-body is a framing error, as is a
// header line without a colon or a missing or non-numeric Content-Length.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	contentLength := -1
	first := true
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				if first && line == "" {
					return nil, io.EOF
				}
				return nil, fmt.Errorf("%w: stream ended mid-header", ErrFraming)
			}
			return nil, fmt.Errorf("jsonrpc: read header: %w", err)
		}
		first = false

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%w: header line %q has no colon", ErrFraming, line)
		}
		if !strings.EqualFold(strings.TrimSpace(name), contentLengthHeader) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: bad Content-Length %q", ErrFraming, strings.TrimSpace(value))
		}
		contentLength = n
	}

	if contentLength < 0 {
		return nil, fmt.Errorf("%w: missing Content-Length header", ErrFraming)
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: stream ended mid-body", ErrFraming)
		}
		return nil, fmt.Errorf("jsonrpc: read body: %w", err)
	}
	return body, nil
}
