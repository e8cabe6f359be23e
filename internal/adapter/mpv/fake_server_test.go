package mpv

import (
	"bufio"
	"encoding/json"
	"net"
	"sync"
	"testing"
)

// fakeMPV answers JSON IPC requests from an in-memory property table.
type fakeMPV struct {
	t    *testing.T
	conn net.Conn

	writeMu sync.Mutex

	mu       sync.Mutex
	props    map[string]any
	commands [][]any
	observed map[int64]string
	noReply  map[string]bool
	failWith map[string]string

	wg sync.WaitGroup
}

// newFakeMPV starts serving and returns the client end of the connection.
func newFakeMPV(t *testing.T) (*fakeMPV, net.Conn) {
	t.Helper()

	server, client := net.Pipe()
	f := &fakeMPV{
		t:        t,
		conn:     server,
		props:    make(map[string]any),
		observed: make(map[int64]string),
		noReply:  make(map[string]bool),
		failWith: make(map[string]string),
	}
	f.wg.Go(f.serve)
	t.Cleanup(f.close)
	return f, client
}

func (f *fakeMPV) close() {
	_ = f.conn.Close()
	f.wg.Wait()
}

func (f *fakeMPV) put(name string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.props[name] = value
}

func (f *fakeMPV) prop(name string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.props[name]
	return v, ok
}

func (f *fakeMPV) received() [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]any, len(f.commands))
	copy(out, f.commands)
	return out
}

func (f *fakeMPV) observedNames() map[int64]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64]string, len(f.observed))
	for k, v := range f.observed {
		out[k] = v
	}
	return out
}

func (f *fakeMPV) send(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		f.t.Errorf("marshal: %v", err)
		return
	}
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	_, _ = f.conn.Write(append(payload, '\n'))
}

func (f *fakeMPV) sendRaw(line string) {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	_, _ = f.conn.Write([]byte(line + "\n"))
}

func (f *fakeMPV) event(name string, fields map[string]any) {
	msg := map[string]any{"event": name}
	for k, v := range fields {
		msg[k] = v
	}
	f.send(msg)
}

func (f *fakeMPV) serve() {
	reader := bufio.NewReader(f.conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return
		}

		var req struct {
			Command   []any `json:"command"`
			RequestID int64 `json:"request_id"`
		}
		if err := json.Unmarshal(line, &req); err != nil || len(req.Command) == 0 {
			continue
		}
		f.handle(req.Command, req.RequestID)
	}
}

func (f *fakeMPV) handle(cmd []any, id int64) {
	verb, _ := cmd[0].(string)

	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	silent := f.noReply[verb]
	failure := f.failWith[verb]
	f.mu.Unlock()

	if silent {
		return
	}
	if failure != "" {
		f.send(map[string]any{"request_id": id, "error": failure})
		return
	}

	switch verb {
	case "get_property":
		name, _ := cmd[1].(string)
		v, ok := f.prop(name)
		if !ok {
			f.send(map[string]any{"request_id": id, "error": "property unavailable"})
			return
		}
		f.send(map[string]any{"request_id": id, "error": "success", "data": v})

	case "set_property", "set":
		name, _ := cmd[1].(string)
		f.put(name, cmd[2])
		f.send(map[string]any{"request_id": id, "error": "success"})

	case "observe_property":
		obsID := int64(cmd[1].(float64))
		name, _ := cmd[2].(string)
		f.mu.Lock()
		f.observed[obsID] = name
		f.mu.Unlock()
		f.send(map[string]any{"request_id": id, "error": "success"})
		// mpv reports the current value right after observing
		v, _ := f.prop(name)
		f.event("property-change", map[string]any{"id": obsID, "name": name, "data": v})

	default:
		f.send(map[string]any{"request_id": id, "error": "success"})
	}
}
