package jsonrpc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrProtocol is the category error for well-framed but semantically
// invalid traffic: responses carrying neither result nor error, a stream
// that ends before a match arrives, or a bounded wait that expires.
var ErrProtocol = errors.New("jsonrpc: protocol error")

// deadlineSetter is implemented by transports that support read deadlines,
// such as the *os.File end of a process stdout pipe. When the transport
// lacks it, waits are unbounded.
type deadlineSetter interface {
	SetReadDeadline(t time.Time) error
}

// Conn correlates calls with responses over one framed stream. It owns the
// request-id counter for the connection: ids start at 1, increment by 1 per
// call, and are never reused; notifications do not consume an id.
//
// Conn is not safe for concurrent use. The pipeline issues one call at a
// time and synchronously drains incoming messages until the match arrives.
type Conn struct {
	w       io.Writer
	r       *bufio.Reader
	rd      deadlineSetter // nil when r has no deadline support
	nextID  int64
	timeout time.Duration
}

// NewConn wraps a read/write stream pair. timeout bounds each WaitFor when
// the reader supports deadlines; 0 waits forever.
func NewConn(r io.Reader, w io.Writer, timeout time.Duration) *Conn {
	c := &Conn{w: w, r: bufio.NewReader(r), timeout: timeout}
	if ds, ok := r.(deadlineSetter); ok {
		c.rd = ds
	}
	return c
}

// Call writes a request envelope and returns the id allocated for it. The
// caller is expected to follow up with WaitFor.
func (c *Conn) Call(method string, params any) (int64, error) {
	c.nextID++
	id := c.nextID
	req, err := newRequest(&id, method, params)
	if err != nil {
		return 0, err
	}
	if err := c.writeRequest(req); err != nil {
		return 0, err
	}
	log.Debug().Int64("id", id).Str("method", method).Msg("jsonrpc: call")
	return id, nil
}

// Notify writes a fire-and-forget envelope with no id; no response is
// expected or awaited.
func (c *Conn) Notify(method string, params any) error {
	req, err := newRequest(nil, method, params)
	if err != nil {
		return err
	}
	if err := c.writeRequest(req); err != nil {
		return err
	}
	log.Debug().Str("method", method).Msg("jsonrpc: notify")
	return nil
}

func (c *Conn) writeRequest(req *Request) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("jsonrpc: marshal request: %w", err)
	}
	return WriteFrame(c.w, payload)
}

// Read decodes the next incoming message.
func (c *Conn) Read() (*Message, error) {
	body, err := ReadFrame(c.r)
	if err != nil {
		return nil, err
	}
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal message: %v", ErrProtocol, err)
	}
	return &msg, nil
}

// WaitFor blocks until the response matching id arrives, discarding
// non-matching messages along the way. End of stream before the match, a
// response carrying neither result nor error, and deadline expiry all
// surface as protocol errors.
func (c *Conn) WaitFor(id int64) (*Message, error) {
	if c.rd != nil && c.timeout > 0 {
		if err := c.rd.SetReadDeadline(time.Now().Add(c.timeout)); err == nil {
			defer c.rd.SetReadDeadline(time.Time{}) //nolint:errcheck // best-effort reset
		}
	}

	for {
		msg, err := c.Read()
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return nil, fmt.Errorf("%w: stream ended before response to id %d", ErrProtocol, id)
		case errors.Is(err, os.ErrDeadlineExceeded):
			return nil, fmt.Errorf("%w: timed out waiting for response to id %d", ErrProtocol, id)
		default:
			return nil, err
		}

		if msg.ID == nil || *msg.ID != id {
			log.Debug().Str("method", msg.Method).Msg("jsonrpc: discarding non-matching message")
			continue
		}
		if msg.Result == nil && msg.Error == nil {
			return nil, fmt.Errorf("%w: response to id %d carries neither result nor error", ErrProtocol, id)
		}
		return msg, nil
	}
}
