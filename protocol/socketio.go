package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/atomic"

	"github.com/pdf/goiobroker/common"
	"github.com/pdf/goiobroker/protocol/packet"
)

const (
	defaultPath         = `/socket.io/`
	defaultPingInterval = 25 * time.Second
	defaultPingTimeout  = 5 * time.Second
	// Object and state dumps of a real installation run into megabytes
	readLimit = 64 << 20

	eventName            = `name`
	eventStateChange     = `stateChange`
	eventObjectChange    = `objectChange`
	eventReauthenticate  = `reauthenticate`
	eventLog             = `log`
	cmdSubscribe         = `subscribe`
	cmdSubscribeObjects  = `subscribeObjects`
	cmdGetObject         = `getObject`
	cmdGetObjects        = `getObjects`
	cmdGetObjectView     = `getObjectView`
	cmdGetState          = `getState`
	cmdGetStates         = `getStates`
	cmdSetState          = `setState`
	cmdGetHistory        = `getHistory`
	cmdGetCompactSysConf = `getCompactSystemConfig`
	cmdSendTo            = `sendTo`
	cmdLog               = `log`
	systemConfigID       = `system.config`
	viewEnd              = "\u9999"
)

var (
	errAlreadyOpen    = errors.New(`transport already open`)
	errNoClient       = errors.New(`no client set on transport`)
	errServerClosed   = errors.New(`server closed the connection`)
	errDisconnected   = errors.New(`server disconnected the socket`)
	errReauthenticate = errors.New(`server requested reauthentication`)
)

type response struct {
	args []json.RawMessage
	err  error
}

// SocketIO implements a transport to the ioBroker web and socketio adapters,
// speaking Socket.IO v2 over a websocket.  The zero value is ready to use.
type SocketIO struct {
	// Path is the Socket.IO endpoint, /socket.io/ when empty
	Path string
	// RequestTimeout bounds every request, common.DefaultTimeout when zero
	RequestTimeout time.Duration
	// ReconnectInterval is the delay between reconnect attempts once an
	// established connection dropped, common.DefaultReconnectInterval when
	// zero
	ReconnectInterval time.Duration
	// SkipObjects disables loading all objects before reporting ready
	SkipObjects bool
	// HTTPClient performs the websocket handshake, http.DefaultClient when nil
	HTTPClient *http.Client

	initOnce    sync.Once
	client      common.Client
	opts        common.ConnectOptions
	conn        *websocket.Conn
	opened      bool
	running     bool
	ready       chan struct{}
	readyOnce   sync.Once
	sequence    int64
	responseMap map[int64]chan response
	objectSubs  *handlerSet[common.ObjectHandler]
	stateSubs   *handlerSet[common.StateHandler]
	connected   atomic.Bool
	closed      atomic.Bool
	lastPong    atomic.Int64
	quitChan    chan struct{}
	done        chan struct{}
	sync.RWMutex
}

func (p *SocketIO) init() {
	p.initOnce.Do(func() {
		p.ready = make(chan struct{})
		p.quitChan = make(chan struct{})
		p.done = make(chan struct{})
		p.responseMap = make(map[int64]chan response)
		p.objectSubs = newHandlerSet[common.ObjectHandler]()
		p.stateSubs = newHandlerSet[common.StateHandler]()
	})
}

// SetClient sets the client on the transport for bi-directional
// communication
func (p *SocketIO) SetClient(client common.Client) {
	p.init()
	p.Lock()
	p.client = client
	p.Unlock()
}

// Ready is closed once the first Engine.IO handshake with the server
// succeeded
func (p *SocketIO) Ready() <-chan struct{} {
	p.init()
	return p.ready
}

// Open dials the server and starts the session.  A failed dial is returned
// and not retried; once connected, a dropped connection is re-established
// every ReconnectInterval until the transport is closed.
func (p *SocketIO) Open(ctx context.Context, opts common.ConnectOptions) error {
	p.init()
	if p.closed.Load() {
		return common.ErrClosed
	}
	p.Lock()
	if p.opened {
		p.Unlock()
		return errAlreadyOpen
	}
	if p.client == nil {
		p.Unlock()
		return errNoClient
	}
	p.opened = true
	p.opts = opts
	p.Unlock()

	conn, hs, err := p.dial(ctx)
	if err != nil {
		p.Lock()
		p.opened = false
		p.Unlock()
		return err
	}

	p.Lock()
	if p.closed.Load() {
		p.Unlock()
		_ = conn.CloseNow()
		return common.ErrClosed
	}
	p.running = true
	p.Unlock()

	go p.run(conn, hs)
	return nil
}

// Close closes the transport, no further communication is possible
func (p *SocketIO) Close() error {
	p.init()
	if p.closed.Swap(true) {
		return common.ErrClosed
	}
	close(p.quitChan)

	p.RLock()
	conn := p.conn
	running := p.running
	p.RUnlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, `client closed`)
	}
	if running {
		<-p.done
	}
	return nil
}

func (p *SocketIO) endpoint() (string, error) {
	p.RLock()
	raw := p.opts.URL
	p.RUnlock()
	u, err := url.Parse(raw)
	if err != nil {
		return ``, fmt.Errorf("parse url: %w", err)
	}
	switch u.Scheme {
	case `http`, `ws`:
		u.Scheme = `ws`
	case `https`, `wss`:
		u.Scheme = `wss`
	default:
		return ``, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = p.Path
	if u.Path == `` {
		u.Path = defaultPath
	}
	return u.String(), nil
}

func (p *SocketIO) dial(ctx context.Context) (*websocket.Conn, packet.Handshake, error) {
	var hs packet.Handshake
	endpoint, err := p.endpoint()
	if err != nil {
		return nil, hs, err
	}

	log.Debugf("Dialing %s", redact(endpoint))
	conn, _, err := websocket.Dial(ctx, endpoint, &websocket.DialOptions{
		HTTPClient: p.HTTPClient,
	})
	if err != nil {
		return nil, hs, fmt.Errorf("dial %s: %w", redact(endpoint), redactError(endpoint, err))
	}
	conn.SetReadLimit(readLimit)

	_, msg, err := conn.Read(ctx)
	if err != nil {
		_ = conn.CloseNow()
		return nil, hs, fmt.Errorf("read handshake: %w", err)
	}
	frame, err := packet.DecodeFrame(msg)
	if err != nil || frame.Type != packet.Open {
		_ = conn.CloseNow()
		return nil, hs, fmt.Errorf("unexpected handshake %q", msg)
	}
	if err := json.Unmarshal(frame.Data, &hs); err != nil {
		_ = conn.CloseNow()
		return nil, hs, fmt.Errorf("decode handshake: %w", err)
	}
	log.Debugf("Engine.IO session %s open, ping interval %dms", hs.SID, hs.PingInterval)

	p.readyOnce.Do(func() {
		close(p.ready)
	})
	return conn, hs, nil
}

func (p *SocketIO) run(conn *websocket.Conn, hs packet.Handshake) {
	defer close(p.done)
	for conn != nil {
		err := p.session(conn, hs)
		if p.closed.Load() {
			log.Debugf("Transport closed")
			return
		}
		log.Warnf("Connection lost: %v", err)
		conn, hs = p.reconnect()
	}
}

func (p *SocketIO) reconnect() (*websocket.Conn, packet.Handshake) {
	interval := p.ReconnectInterval
	if interval <= 0 {
		interval = common.DefaultReconnectInterval
	}
	for {
		timer := time.NewTimer(interval)
		select {
		case <-p.quitChan:
			timer.Stop()
			return nil, packet.Handshake{}
		case <-timer.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), p.requestTimeout())
		conn, hs, err := p.dial(ctx)
		cancel()
		if err == nil {
			p.Lock()
			if p.closed.Load() {
				p.Unlock()
				_ = conn.CloseNow()
				return nil, hs
			}
			p.Unlock()
			return conn, hs
		}
		log.Warnf("Reconnect failed: %v", err)
	}
}

// session serves one websocket connection until it is lost
func (p *SocketIO) session(conn *websocket.Conn, hs packet.Handshake) error {
	ctx, cancel := context.WithCancel(context.Background())
	var setup sync.WaitGroup

	p.Lock()
	p.conn = conn
	p.Unlock()
	// Close may have run before conn was published
	if p.closed.Load() {
		_ = conn.Close(websocket.StatusNormalClosure, `client closed`)
	}

	p.lastPong.Store(time.Now().UnixNano())
	go p.heartbeat(ctx, conn, hs)

	err := p.read(ctx, conn, &setup)

	cancel()
	_ = conn.CloseNow()

	p.Lock()
	p.conn = nil
	pending := p.responseMap
	p.responseMap = make(map[int64]chan response)
	client := p.client
	p.Unlock()
	for _, ch := range pending {
		ch <- response{err: common.ErrNotConnected}
	}
	setup.Wait()

	if p.connected.Swap(false) {
		client.OnConnectionChange(false)
	}
	client.OnProgress(common.ProgressConnecting)
	return err
}

func (p *SocketIO) read(ctx context.Context, conn *websocket.Conn, setup *sync.WaitGroup) error {
	for {
		typ, msg, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			log.Debugf("Skipping binary message of %d bytes", len(msg))
			continue
		}
		frame, err := packet.DecodeFrame(msg)
		if err != nil {
			log.Warnf("Failed decoding frame %q: %v", msg, err)
			continue
		}
		switch frame.Type {
		case packet.Ping:
			if err := p.writeFrame(ctx, conn, packet.Frame{Type: packet.Pong, Data: frame.Data}); err != nil {
				return err
			}
		case packet.Pong:
			p.lastPong.Store(time.Now().UnixNano())
		case packet.Close:
			return errServerClosed
		case packet.Message:
			if err := p.handle(ctx, conn, frame.Data, setup); err != nil {
				return err
			}
		default:
			log.Debugf("Skipping frame of type %c", frame.Type)
		}
	}
}

func (p *SocketIO) heartbeat(ctx context.Context, conn *websocket.Conn, hs packet.Handshake) {
	interval := time.Duration(hs.PingInterval) * time.Millisecond
	if interval <= 0 {
		interval = defaultPingInterval
	}
	timeout := time.Duration(hs.PingTimeout) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			last := time.Unix(0, p.lastPong.Load())
			if time.Since(last) > interval+timeout {
				log.Warnf("No pong since %v, dropping connection", last)
				_ = conn.Close(websocket.StatusGoingAway, `ping timeout`)
				return
			}
			if err := p.writeFrame(ctx, conn, packet.Frame{Type: packet.Ping}); err != nil {
				log.Debugf("Failed sending ping: %v", err)
				return
			}
		}
	}
}

func (p *SocketIO) handle(ctx context.Context, conn *websocket.Conn, data []byte, setup *sync.WaitGroup) error {
	pkt, err := packet.Decode(data)
	if err != nil {
		log.Warnf("Failed decoding packet %q: %v", data, err)
		return nil
	}
	if pkt.Namespace != `` && pkt.Namespace != `/` {
		log.Debugf("Skipping packet for namespace %s", pkt.Namespace)
		return nil
	}

	switch pkt.Kind {
	case packet.Connect:
		p.connect(ctx, conn, setup)
	case packet.Disconnect:
		return errDisconnected
	case packet.Error:
		return remoteError(`connect`, pkt.Data)
	case packet.Ack:
		p.resolve(pkt)
	case packet.Event:
		return p.dispatch(ctx, conn, pkt)
	}
	return nil
}

// connect announces the client, replays subscriptions, and reports ready in
// the background since loading objects needs the read loop
func (p *SocketIO) connect(ctx context.Context, conn *websocket.Conn, setup *sync.WaitGroup) {
	// Patterns added after the snapshot see connected and subscribe themselves
	p.Lock()
	p.connected.Store(true)
	client := p.client
	name := p.opts.Name
	statePatterns := p.stateSubs.list()
	objectPatterns := p.objectSubs.list()
	p.Unlock()

	client.OnConnectionChange(true)
	client.OnProgress(common.ProgressConnected)

	if err := p.emitOn(ctx, conn, eventName, name); err != nil {
		log.Warnf("Failed announcing client name: %v", err)
	}
	for _, pattern := range statePatterns {
		if err := p.emitOn(ctx, conn, cmdSubscribe, pattern); err != nil {
			log.Warnf("Failed resubscribing states %s: %v", pattern, err)
		}
	}
	for _, pattern := range objectPatterns {
		if err := p.emitOn(ctx, conn, cmdSubscribeObjects, pattern); err != nil {
			log.Warnf("Failed resubscribing objects %s: %v", pattern, err)
		}
	}

	setup.Add(1)
	go func() {
		defer setup.Done()
		var objects map[string]*common.Object
		if !p.SkipObjects {
			var err error
			objects, err = p.GetObjects(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Errorf("Failed loading objects: %v", err)
			} else {
				client.OnProgress(common.ProgressObjectsLoaded)
			}
		}
		if ctx.Err() != nil {
			return
		}
		client.OnProgress(common.ProgressReady)
		client.OnReady(objects)
	}()
}

func (p *SocketIO) resolve(pkt *packet.Packet) {
	if !pkt.HasID {
		log.Warnf("Skipping ack without id: %s", pkt.Data)
		return
	}
	p.Lock()
	ch, ok := p.responseMap[pkt.ID]
	delete(p.responseMap, pkt.ID)
	p.Unlock()
	if !ok {
		log.Warnf("Couldn't find requestor for ack %d: %s", pkt.ID, pkt.Data)
		return
	}
	args, err := pkt.Args()
	ch <- response{args: args, err: err}
}

func (p *SocketIO) dispatch(ctx context.Context, conn *websocket.Conn, pkt *packet.Packet) error {
	name, args, err := pkt.Event()
	if err != nil {
		log.Warnf("Failed decoding event %s: %v", pkt.Data, err)
		return nil
	}
	if pkt.HasID {
		// The socket API never expects a reply from clients
		if ack, err := packet.NewAck(pkt.ID); err == nil {
			_ = p.writeFrame(ctx, conn, ack.Frame())
		}
	}

	switch name {
	case eventStateChange:
		id, raw, ok := changeArgs(args)
		if !ok {
			log.Warnf("Skipping malformed %s: %s", name, pkt.Data)
			return nil
		}
		var state *common.State
		if !packet.IsNull(raw) {
			if err := json.Unmarshal(raw, &state); err != nil {
				log.Warnf("Failed decoding state %s: %v", id, err)
				return nil
			}
		}
		p.RLock()
		handlers := p.stateSubs.match(id)
		p.RUnlock()
		for _, h := range handlers {
			h(id, state)
		}
	case eventObjectChange:
		id, raw, ok := changeArgs(args)
		if !ok {
			log.Warnf("Skipping malformed %s: %s", name, pkt.Data)
			return nil
		}
		var obj *common.Object
		if !packet.IsNull(raw) {
			if err := json.Unmarshal(raw, &obj); err != nil {
				log.Warnf("Failed decoding object %s: %v", id, err)
				return nil
			}
		}
		p.RLock()
		handlers := p.objectSubs.match(id)
		client := p.client
		p.RUnlock()
		if len(handlers) == 0 {
			client.OnObjectChange(id, obj)
		}
		for _, h := range handlers {
			h(id, obj)
		}
	case eventReauthenticate:
		log.Errorf("Server requested reauthentication, check the credentials")
		return errReauthenticate
	case eventLog:
		log.Debugf("Server log: %s", pkt.Data)
	default:
		log.Debugf("Skipping event %s", name)
	}
	return nil
}

func changeArgs(args []json.RawMessage) (string, json.RawMessage, bool) {
	if len(args) == 0 {
		return ``, nil, false
	}
	var id string
	if err := json.Unmarshal(args[0], &id); err != nil {
		return ``, nil, false
	}
	if len(args) < 2 {
		return id, nil, true
	}
	return id, args[1], true
}

func (p *SocketIO) requestTimeout() time.Duration {
	if p.RequestTimeout > 0 {
		return p.RequestTimeout
	}
	return common.DefaultTimeout
}

// writeFrame sends f.  The caller's context is only checked up front: an
// expiring write context tears down the whole websocket, so writes are bounded
// by the request timeout alone.
func (p *SocketIO) writeFrame(ctx context.Context, conn *websocket.Conn, f packet.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(context.Background(), p.requestTimeout())
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, f.Encode())
}

func (p *SocketIO) emitOn(ctx context.Context, conn *websocket.Conn, event string, args ...interface{}) error {
	pkt, err := packet.NewEvent(event, args...)
	if err != nil {
		return err
	}
	return p.writeFrame(ctx, conn, pkt.Frame())
}

// emit sends an event that the server does not acknowledge
func (p *SocketIO) emit(ctx context.Context, event string, args ...interface{}) error {
	p.init()
	p.RLock()
	conn := p.conn
	p.RUnlock()
	if conn == nil || !p.connected.Load() {
		return common.ErrNotConnected
	}
	return p.emitOn(ctx, conn, event, args...)
}

// request sends an event and waits for its acknowledgement
func (p *SocketIO) request(ctx context.Context, event string, args ...interface{}) ([]json.RawMessage, error) {
	p.init()
	pkt, err := packet.NewEvent(event, args...)
	if err != nil {
		return nil, err
	}

	ch := make(chan response, 1)
	p.Lock()
	conn := p.conn
	if conn == nil || !p.connected.Load() {
		p.Unlock()
		return nil, common.ErrNotConnected
	}
	p.sequence++
	id := p.sequence
	p.responseMap[id] = ch
	p.Unlock()

	pkt.ID = id
	pkt.HasID = true
	if err := p.writeFrame(ctx, conn, pkt.Frame()); err != nil {
		p.forget(id)
		return nil, err
	}

	timeout := time.NewTimer(p.requestTimeout())
	defer timeout.Stop()
	select {
	case res := <-ch:
		return res.args, res.err
	case <-ctx.Done():
		p.forget(id)
		return nil, ctx.Err()
	case <-timeout.C:
		p.forget(id)
		return nil, common.ErrTimeout
	}
}

func (p *SocketIO) forget(id int64) {
	p.Lock()
	delete(p.responseMap, id)
	p.Unlock()
}

// call performs a request answered with the (err, result) callback convention
// of the socket API, decoding result into out unless out is nil
func (p *SocketIO) call(ctx context.Context, out interface{}, event string, args ...interface{}) error {
	res, err := p.request(ctx, event, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", event, err)
	}
	if len(res) > 0 && !packet.IsNull(res[0]) {
		return remoteError(event, res[0])
	}
	if out == nil || len(res) < 2 || packet.IsNull(res[1]) {
		return nil
	}
	if err := json.Unmarshal(res[1], out); err != nil {
		return fmt.Errorf("%s: decode result: %w", event, err)
	}
	return nil
}

// SubscribeObject registers handler for changes of objects matching pattern
func (p *SocketIO) SubscribeObject(ctx context.Context, pattern string, handler common.ObjectHandler) error {
	p.init()
	p.Lock()
	first := p.objectSubs.add(pattern, handler)
	connected := p.connected.Load()
	p.Unlock()
	if !first || !connected {
		return nil
	}
	if err := p.emit(ctx, cmdSubscribeObjects, pattern); err != nil {
		p.Lock()
		p.objectSubs.remove(pattern)
		p.Unlock()
		return err
	}
	return nil
}

// SubscribeState registers handler for changes of states matching pattern
func (p *SocketIO) SubscribeState(ctx context.Context, pattern string, handler common.StateHandler) error {
	p.init()
	p.Lock()
	first := p.stateSubs.add(pattern, handler)
	connected := p.connected.Load()
	p.Unlock()
	if !first || !connected {
		return nil
	}
	if err := p.emit(ctx, cmdSubscribe, pattern); err != nil {
		p.Lock()
		p.stateSubs.remove(pattern)
		p.Unlock()
		return err
	}
	return nil
}

// GetObject returns the object with the given id, nil if it does not exist
func (p *SocketIO) GetObject(ctx context.Context, id string) (*common.Object, error) {
	var obj *common.Object
	if err := p.call(ctx, &obj, cmdGetObject, id); err != nil {
		return nil, err
	}
	return obj, nil
}

// GetObjects returns all objects
func (p *SocketIO) GetObjects(ctx context.Context) (map[string]*common.Object, error) {
	objects := make(map[string]*common.Object)
	if err := p.call(ctx, &objects, cmdGetObjects); err != nil {
		return nil, err
	}
	return objects, nil
}

// GetState returns the state with the given id, nil if it does not exist
func (p *SocketIO) GetState(ctx context.Context, id string) (*common.State, error) {
	var state *common.State
	if err := p.call(ctx, &state, cmdGetState, id); err != nil {
		return nil, err
	}
	return state, nil
}

// GetStates returns the states matching any of patterns, or all states when
// none are given
func (p *SocketIO) GetStates(ctx context.Context, patterns ...string) (map[string]*common.State, error) {
	var args []interface{}
	switch len(patterns) {
	case 0:
	case 1:
		args = append(args, patterns[0])
	default:
		args = append(args, patterns)
	}
	states := make(map[string]*common.State)
	if err := p.call(ctx, &states, cmdGetStates, args...); err != nil {
		return nil, err
	}
	return states, nil
}

// SetState writes val to the state id
func (p *SocketIO) SetState(ctx context.Context, id string, val common.StateValue, ack bool) error {
	return p.call(ctx, nil, cmdSetState, id, map[string]interface{}{`val`: val, `ack`: ack})
}

type objectView struct {
	Rows []struct {
		ID    string         `json:"id"`
		Value *common.Object `json:"value"`
	} `json:"rows"`
}

func (p *SocketIO) objectView(ctx context.Context, typ, prefix string) (objectView, error) {
	var view objectView
	err := p.call(ctx, &view, cmdGetObjectView, `system`, typ, map[string]string{
		`startkey`: prefix,
		`endkey`:   prefix + viewEnd,
	})
	return view, err
}

// GetEnums returns the enums below enum.<name>, or all enums for an empty
// name
func (p *SocketIO) GetEnums(ctx context.Context, name string) (map[string]*common.Object, error) {
	prefix := `enum.`
	if name != `` {
		prefix += name + `.`
	}
	view, err := p.objectView(ctx, `enum`, prefix)
	if err != nil {
		return nil, err
	}
	enums := make(map[string]*common.Object, len(view.Rows))
	for _, row := range view.Rows {
		if row.Value != nil {
			enums[row.ID] = row.Value
		}
	}
	return enums, nil
}

// GetGroups returns all user groups
func (p *SocketIO) GetGroups(ctx context.Context) ([]*common.Object, error) {
	view, err := p.objectView(ctx, `group`, `system.group.`)
	if err != nil {
		return nil, err
	}
	groups := make([]*common.Object, 0, len(view.Rows))
	for _, row := range view.Rows {
		if row.Value != nil {
			groups = append(groups, row.Value)
		}
	}
	return groups, nil
}

// GetSystemConfig returns the system.config object
func (p *SocketIO) GetSystemConfig(ctx context.Context) (*common.SystemConfig, error) {
	var cfg *common.SystemConfig
	if err := p.call(ctx, &cfg, cmdGetObject, systemConfigID); err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, common.ErrNotFound
	}
	return cfg, nil
}

// GetCompactSystemConfig returns the reduced system configuration that the
// server hands to unprivileged clients
func (p *SocketIO) GetCompactSystemConfig(ctx context.Context) (*common.SystemConfig, error) {
	var cfg *common.SystemConfig
	if err := p.call(ctx, &cfg, cmdGetCompactSysConf); err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, common.ErrNotFound
	}
	return cfg, nil
}

// GetHistory queries the recorded values of id
func (p *SocketIO) GetHistory(ctx context.Context, id string, opts common.GetHistoryOptions) (*common.GetHistoryResult, error) {
	res, err := p.request(ctx, cmdGetHistory, id, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmdGetHistory, err)
	}
	if len(res) > 0 && !packet.IsNull(res[0]) {
		return nil, remoteError(cmdGetHistory, res[0])
	}
	result := &common.GetHistoryResult{}
	if len(res) > 1 && !packet.IsNull(res[1]) {
		if err := json.Unmarshal(res[1], &result.Values); err != nil {
			return nil, fmt.Errorf("%s: decode values: %w", cmdGetHistory, err)
		}
	}
	if len(res) > 2 && !packet.IsNull(res[2]) {
		_ = json.Unmarshal(res[2], &result.Step)
	}
	if len(res) > 3 && !packet.IsNull(res[3]) {
		_ = json.Unmarshal(res[3], &result.SessionID)
	}
	return result, nil
}

// SendTo sends command with data to an adapter instance, decoding the reply
// into result unless result is nil
func (p *SocketIO) SendTo(ctx context.Context, instance, command string, data interface{}, result interface{}) error {
	res, err := p.request(ctx, cmdSendTo, instance, command, data)
	if err != nil {
		return fmt.Errorf("%s %s %s: %w", cmdSendTo, instance, command, err)
	}
	if result == nil || len(res) == 0 || packet.IsNull(res[0]) {
		return nil
	}
	if err := json.Unmarshal(res[0], result); err != nil {
		return fmt.Errorf("%s %s %s: decode result: %w", cmdSendTo, instance, command, err)
	}
	return nil
}

// Log writes text to the ioBroker log
func (p *SocketIO) Log(ctx context.Context, text string, level common.LogLevel) error {
	return p.emit(ctx, cmdLog, text, level)
}

// redactedError carries the message of an error with the connection password
// masked
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string {
	return e.msg
}

func (e *redactedError) Unwrap() error {
	return e.err
}

// redactError masks the password of endpoint wherever err repeats the query
func redactError(endpoint string, err error) error {
	u, perr := url.Parse(endpoint)
	if perr != nil {
		return err
	}
	msg := err.Error()
	for _, param := range strings.Split(u.RawQuery, `&`) {
		if strings.HasPrefix(param, `pass=`) && len(param) > len(`pass=`) {
			msg = strings.ReplaceAll(msg, param, `pass=xxxxx`)
		}
	}
	if msg == err.Error() {
		return err
	}
	return &redactedError{msg: msg, err: err}
}

// redact masks the password in a connection URL
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Get(`pass`) == `` {
		return raw
	}
	q.Set(`pass`, `xxxxx`)
	u.RawQuery = q.Encode()
	return u.String()
}
