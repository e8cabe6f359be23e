// Package mpv provides an mpv adapter implementing the Engine interface over
// mpv's JSON IPC protocol.
package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sukerxi/mpvbridge/internal/domain"
	"github.com/sukerxi/mpvbridge/internal/metrics"
)

// mpv reports these error strings for reads of properties without a value.
const (
	errSuccess             = "success"
	errPropertyUnavailable = "property unavailable"
	errPropertyNotFound    = "property not found"
)

// request is one line sent to the IPC socket.
type request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// message is one line received from the IPC socket: either a reply carrying
// request_id and error, or an asynchronous event.
type message struct {
	RequestID int64           `json:"request_id"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	Event     string          `json:"event"`
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Reason    string          `json:"reason"`
}

// Event is an asynchronous notification from mpv.
type Event struct {
	Name     string          // event name, e.g. "file-loaded" or "property-change"
	ID       int64           // observer id for property-change
	Property string          // property name for property-change
	Data     json.RawMessage // property value for property-change
	Reason   string          // end-file reason
}

type reply struct {
	data json.RawMessage
	err  string
}

// Client is a persistent JSON IPC connection. Requests may be issued from any
// goroutine; replies are matched by request id. Events are delivered to the
// handler in arrival order on a goroutine of their own, so a handler may issue
// requests.
type Client struct {
	logger  *slog.Logger
	conn    net.Conn
	handler func(Event)

	nextID  atomic.Int64
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[int64]chan reply
	closed  bool

	events  []Event
	eventCh chan struct{}

	done chan struct{}
	wg   sync.WaitGroup
}

// NewClient starts reading from conn. handler may be nil.
func NewClient(conn net.Conn, logger *slog.Logger, handler func(Event)) *Client {
	c := &Client{
		logger:  logger.With(slog.String("adapter", "mpv_ipc")),
		conn:    conn,
		handler: handler,
		pending: make(map[int64]chan reply),
		eventCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	c.wg.Go(c.readLoop)
	c.wg.Go(c.eventLoop)
	return c
}

// Request sends one command and waits for its reply.
func (c *Client) Request(ctx context.Context, args ...any) (json.RawMessage, error) {
	if len(args) == 0 {
		return nil, domain.ErrEmptyCommand
	}
	op := fmt.Sprint(args[0])

	id := c.nextID.Add(1)
	ch := make(chan reply, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, domain.ErrEngineClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()

	start := time.Now()
	defer func() { metrics.IPCRequestDuration.Observe(time.Since(start).Seconds()) }()

	if err := c.write(ctx, request{Command: args, RequestID: id}); err != nil {
		c.forget(id)
		return nil, domain.NewEngineError(op, target(args), "write failed", err)
	}

	select {
	case r := <-ch:
		return replyResult(op, target(args), r)
	case <-ctx.Done():
		c.forget(id)
		return nil, domain.NewEngineError(op, target(args), "no reply", ctx.Err())
	case <-c.done:
		// the reply may have raced with the shutdown
		select {
		case r := <-ch:
			return replyResult(op, target(args), r)
		default:
		}
		return nil, domain.NewEngineError(op, target(args), "connection closed", domain.ErrEngineClosed)
	}
}

func replyResult(op, target string, r reply) (json.RawMessage, error) {
	switch r.err {
	case errSuccess, "":
		return r.data, nil
	case errPropertyUnavailable, errPropertyNotFound:
		return nil, domain.NewEngineError(op, target, r.err, domain.ErrPropertyUnavailable)
	default:
		return nil, domain.NewEngineError(op, target, r.err, nil)
	}
}

// target is the property name or first argument of a command, for errors.
func target(args []any) string {
	if len(args) < 2 {
		return ""
	}
	return fmt.Sprint(args[1])
}

func (c *Client) write(ctx context.Context, req request) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil && !errors.Is(err, net.ErrClosed) {
		c.logger.Debug("set write deadline failed", slog.Any("error", err))
	}

	// mpv requires newline-delimited JSON
	_, err = c.conn.Write(append(payload, '\n'))
	return err
}

func (c *Client) forget(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) readLoop() {
	defer c.shutdown()

	reader := bufio.NewReader(c.conn)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			c.handleLine(line)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) && !errors.Is(err, io.ErrClosedPipe) {
				c.logger.Warn("ipc read failed", slog.Any("error", err))
			}
			return
		}
	}
}

func (c *Client) handleLine(line []byte) {
	var msg message
	if err := json.Unmarshal(line, &msg); err != nil {
		c.logger.Debug("skipping unparseable ipc line", slog.Any("error", err))
		return
	}

	if msg.Event != "" {
		c.enqueue(Event{
			Name:     msg.Event,
			ID:       msg.ID,
			Property: msg.Name,
			Data:     msg.Data,
			Reason:   msg.Reason,
		})
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[msg.RequestID]
	delete(c.pending, msg.RequestID)
	c.mu.Unlock()

	if !ok {
		c.logger.Debug("reply without pending request", slog.Int64("request_id", msg.RequestID))
		return
	}
	ch <- reply{data: msg.Data, err: msg.Error}
}

func (c *Client) enqueue(ev Event) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()

	select {
	case c.eventCh <- struct{}{}:
	default:
	}
}

func (c *Client) eventLoop() {
	for {
		select {
		case <-c.eventCh:
		case <-c.done:
			return
		}

		for {
			c.mu.Lock()
			if len(c.events) == 0 {
				c.mu.Unlock()
				break
			}
			ev := c.events[0]
			c.events = c.events[1:]
			c.mu.Unlock()

			if c.handler != nil {
				c.handler(ev)
			}
		}
	}
}

// shutdown runs once the read loop ends; pending requests fail.
func (c *Client) shutdown() {
	c.mu.Lock()
	c.closed = true
	c.pending = make(map[int64]chan reply)
	c.mu.Unlock()
	close(c.done)
}

// Done is closed when the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close closes the connection and waits for the loops to stop. Events still
// queued are dropped.
func (c *Client) Close() error {
	err := c.conn.Close()
	c.wg.Wait()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
