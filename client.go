package goiobroker

import (
	"context"
	"sync"

	"go.uber.org/atomic"

	"github.com/pdf/goiobroker/common"
)

const (
	cmdGetEnabledDPs  = `getEnabledDPs`
	cmdEnableHistory  = `enableHistory`
	cmdDisableHistory = `disableHistory`
)

// Client provides a simple interface for interacting with an ioBroker server.
// Client can not be instantiated manually or it will not function - always use
// NewClient() to obtain a Client instance.
type Client struct {
	config         common.Config
	connectOptions common.ConnectOptions
	nameGenerator  common.NameGenerator
	transport      common.Transport

	connected     *common.Broadcaster[bool]
	progress      *common.Broadcaster[common.Progress]
	objectChanged *common.Broadcaster[common.ObjectChange]
	stateChanged  *common.Broadcaster[common.StateChange]

	listeningObjects map[string]struct{}
	listeningStates  map[string]struct{}

	initialized chan struct{}
	quitChan    chan struct{}
	closed      atomic.Bool
	sync.RWMutex
}

func newClient(cfg common.Config, t common.Transport) *Client {
	return &Client{
		config:           cfg,
		nameGenerator:    common.RandomClientName,
		transport:        t,
		connected:        common.NewBehavior(false),
		progress:         common.NewBehavior(common.ProgressConnecting),
		objectChanged:    common.NewBroadcaster[common.ObjectChange](),
		stateChanged:     common.NewBroadcaster[common.StateChange](),
		listeningObjects: make(map[string]struct{}),
		listeningStates:  make(map[string]struct{}),
		initialized:      make(chan struct{}),
		quitChan:         make(chan struct{}),
	}
}

func (c *Client) bootstrap() {
	defer close(c.initialized)

	ctx, cancel := context.WithTimeout(context.Background(), c.config.BootstrapTimeout)
	defer cancel()
	go func() {
		select {
		case <-c.quitChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	if c.config.AutoConnect {
		common.Log.Debugf("Opening connection as %s", c.connectOptions.Name)
		if err := c.transport.Open(ctx, c.connectOptions); err != nil {
			common.Log.Errorf("Transport can't be started. Make sure host, port and secure settings are correct: %v", err)
			return
		}
	}

	select {
	case <-c.transport.Ready():
		common.Log.Debugf("Transport ready")
	case <-ctx.Done():
		if c.closed.Load() {
			return
		}
		if c.config.AutoConnect {
			common.Log.Errorf("Transport can't be started within %v. Make sure host, port and secure settings are correct.", c.config.BootstrapTimeout)
		} else {
			common.Log.Errorf("Transport can't be started within %v. Make sure the transport is opened with the client's ConnectOptions.", c.config.BootstrapTimeout)
		}
	}
}

// Initialized is closed once the bootstrap started by NewClient finished,
// whether or not the transport became ready
func (c *Client) Initialized() <-chan struct{} {
	return c.initialized
}

// Config returns the configuration of the client, with defaults applied
func (c *Client) Config() common.Config {
	return c.config
}

// ConnectOptions returns the connection descriptor derived from the
// configuration.  Programs that disable AutoConnect open the transport with
// it.
func (c *Client) ConnectOptions() common.ConnectOptions {
	return c.connectOptions
}

// Transport returns the underlying transport, for requests the client does
// not wrap
func (c *Client) Transport() common.Transport {
	return c.transport
}

// Connected returns the current connection state
func (c *Client) Connected() bool {
	return c.connected.Value()
}

// Progress returns the current connection progress
func (c *Client) Progress() common.Progress {
	return c.progress.Value()
}

// WaitReady blocks until the connection is ready to serve requests, the
// client is closed, or ctx is done
func (c *Client) WaitReady(ctx context.Context) error {
	sub, err := c.ProgressChanges()
	if err != nil {
		return err
	}
	for {
		select {
		case progress, ok := <-sub.Events():
			if !ok {
				return common.ErrClosed
			}
			if progress == common.ProgressReady && c.Connected() {
				_ = sub.Close()
				return nil
			}
		case <-ctx.Done():
			_ = sub.Close()
			return ctx.Err()
		}
	}
}

// ConnectedChanges returns a subscription to the connection state, starting
// with the current value
func (c *Client) ConnectedChanges() (*common.Subscription[bool], error) {
	return c.connected.NewSubscription()
}

// ProgressChanges returns a subscription to the connection progress, starting
// with the current value
func (c *Client) ProgressChanges() (*common.Subscription[common.Progress], error) {
	return c.progress.NewSubscription()
}

// ObjectChanges returns a subscription to all object changes.  Call
// ListenObjectChanges to receive changes of further objects.
func (c *Client) ObjectChanges() (*common.Subscription[common.ObjectChange], error) {
	return c.objectChanged.NewSubscription()
}

// StateChanges returns a subscription to all state changes.  Call
// ListenStateChanges to receive changes of further states.
func (c *Client) StateChanges() (*common.Subscription[common.StateChange], error) {
	return c.stateChanged.NewSubscription()
}

// ObjectChangedFilterBy returns a subscription to the changes of the single
// object id.  A nil *Object means the object was deleted.
func (c *Client) ObjectChangedFilterBy(id string) (*common.Subscription[*common.Object], error) {
	sub, err := c.ObjectChanges()
	if err != nil {
		return nil, err
	}
	return common.Filter(sub,
		func(ev common.ObjectChange) bool { return ev.ID == id },
		func(ev common.ObjectChange) *common.Object { return ev.Object },
	), nil
}

// StateChangedFilterBy returns a subscription to the changes of the single
// state id.  A nil *State means the state was deleted.
func (c *Client) StateChangedFilterBy(id string) (*common.Subscription[*common.State], error) {
	sub, err := c.StateChanges()
	if err != nil {
		return nil, err
	}
	return common.Filter(sub,
		func(ev common.StateChange) bool { return ev.ID == id },
		func(ev common.StateChange) *common.State { return ev.State },
	), nil
}

// ListenObjectChanges subscribes to changes of objects matching id, which may
// contain * wildcards.  Listening to the same id twice is a noop.
func (c *Client) ListenObjectChanges(ctx context.Context, id string) error {
	if c.closed.Load() {
		return common.ErrClosed
	}
	c.Lock()
	if _, ok := c.listeningObjects[id]; ok {
		c.Unlock()
		return nil
	}
	c.listeningObjects[id] = struct{}{}
	c.Unlock()

	if err := c.transport.SubscribeObject(ctx, id, c.OnObjectChange); err != nil {
		c.Lock()
		delete(c.listeningObjects, id)
		c.Unlock()
		return err
	}
	return nil
}

// ListenStateChanges subscribes to changes of states matching id, which may
// contain * wildcards.  Listening to the same id twice is a noop.
func (c *Client) ListenStateChanges(ctx context.Context, id string) error {
	if c.closed.Load() {
		return common.ErrClosed
	}
	c.Lock()
	if _, ok := c.listeningStates[id]; ok {
		c.Unlock()
		return nil
	}
	c.listeningStates[id] = struct{}{}
	c.Unlock()

	if err := c.transport.SubscribeState(ctx, id, c.onStateChange); err != nil {
		c.Lock()
		delete(c.listeningStates, id)
		c.Unlock()
		return err
	}
	return nil
}

// OnConnectionChange is for use by transports only.
func (c *Client) OnConnectionChange(connected bool) {
	common.Log.Debugf("Connected: %v", connected)
	c.connected.Publish(connected)
}

// OnProgress is for use by transports only.
func (c *Client) OnProgress(progress common.Progress) {
	common.Log.Debugf("Connection progress: %v", progress)
	c.progress.Publish(progress)
}

// OnReady is for use by transports only.
// Subscribes to every configured auto subscribe id.
func (c *Client) OnReady(objects map[string]*common.Object) {
	common.Log.Infof("Connection ready, %d objects loaded", len(objects))
	ctx, cancel := context.WithTimeout(context.Background(), c.config.RequestTimeout)
	defer cancel()
	for _, id := range c.config.AutoSubscribes {
		if err := c.ListenStateChanges(ctx, id); err != nil {
			common.Log.Warnf("Failed subscribing to %s: %v", id, err)
		}
	}
}

// OnObjectChange is for use by transports only.
func (c *Client) OnObjectChange(id string, obj *common.Object) {
	c.objectChanged.Publish(common.ObjectChange{ID: id, Object: obj})
}

func (c *Client) onStateChange(id string, state *common.State) {
	c.stateChanged.Publish(common.StateChange{ID: id, State: state})
}

// checkReady rejects requests issued before the transport reported ready
func (c *Client) checkReady() error {
	if c.closed.Load() {
		return common.ErrClosed
	}
	if !c.connected.Value() || c.progress.Value() != common.ProgressReady {
		return common.ErrNotReady
	}
	return nil
}

// GetObject returns the object with the given id, nil if it does not exist
func (c *Client) GetObject(ctx context.Context, id string) (*common.Object, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	return c.transport.GetObject(ctx, id)
}

// GetObjects returns all objects
func (c *Client) GetObjects(ctx context.Context) (map[string]*common.Object, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	return c.transport.GetObjects(ctx)
}

// GetState returns the state with the given id, nil if it does not exist
func (c *Client) GetState(ctx context.Context, id string) (*common.State, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	return c.transport.GetState(ctx, id)
}

// GetStates returns the states matching any of patterns, or all states when
// no pattern is given
func (c *Client) GetStates(ctx context.Context, patterns ...string) (map[string]*common.State, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	return c.transport.GetStates(ctx, patterns...)
}

// SetState writes val to the state id, ack marking it as confirmed
func (c *Client) SetState(ctx context.Context, id string, val common.StateValue, ack bool) error {
	if err := c.checkReady(); err != nil {
		return err
	}
	return c.transport.SetState(ctx, id, val, ack)
}

// GetSystemConfig returns the system configuration, the reduced variant when
// compact is set
func (c *Client) GetSystemConfig(ctx context.Context, compact bool) (*common.SystemConfig, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	if compact {
		return c.transport.GetCompactSystemConfig(ctx)
	}
	return c.transport.GetSystemConfig(ctx)
}

// GetEnums returns all enums with the given name, like `rooms` or
// `functions`, or every enum for an empty name
func (c *Client) GetEnums(ctx context.Context, name string) (map[string]*common.Object, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	return c.transport.GetEnums(ctx, name)
}

// GetGroups returns all user groups
func (c *Client) GetGroups(ctx context.Context) ([]*common.Object, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	return c.transport.GetGroups(ctx)
}

// GetHistory returns the recorded values of the state id
func (c *Client) GetHistory(ctx context.Context, id string, opts common.GetHistoryOptions) (*common.GetHistoryResult, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	return c.transport.GetHistory(ctx, id, opts)
}

func (c *Client) historyAdapter(adapter string) string {
	if adapter != `` {
		return adapter
	}
	if c.config.HistoryAdapter != `` {
		return c.config.HistoryAdapter
	}
	return common.DefaultHistoryAdapter
}

// GetHistoryConfigurations returns the history rule of every data point with
// enabled history, by sending getEnabledDPs to the history adapter.  An empty
// adapter selects the configured one.
func (c *Client) GetHistoryConfigurations(ctx context.Context, adapter string) (map[string]common.HistoryConfig, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	result := make(map[string]common.HistoryConfig)
	if err := c.transport.SendTo(ctx, c.historyAdapter(adapter), cmdGetEnabledDPs, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// EnableHistoryForDataPoint enables history recording of the data point id
// with the rule cfg, by sending enableHistory to the history adapter.  An
// empty adapter selects the configured one.
func (c *Client) EnableHistoryForDataPoint(ctx context.Context, id string, cfg common.HistoryConfig, adapter string) (*common.HistoryConfigResult, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	result := new(common.HistoryConfigResult)
	data := map[string]interface{}{`id`: id, `options`: cfg}
	if err := c.transport.SendTo(ctx, c.historyAdapter(adapter), cmdEnableHistory, data, result); err != nil {
		return nil, err
	}
	return result, nil
}

// DisableHistoryForDataPoint disables history recording of the data point id,
// by sending disableHistory to the history adapter.  An empty adapter selects
// the configured one.
func (c *Client) DisableHistoryForDataPoint(ctx context.Context, id string, adapter string) (*common.HistoryConfigResult, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	result := new(common.HistoryConfigResult)
	data := map[string]interface{}{`id`: id}
	if err := c.transport.SendTo(ctx, c.historyAdapter(adapter), cmdDisableHistory, data, result); err != nil {
		return nil, err
	}
	return result, nil
}

// SendTo sends command with data to a specific instance, or all instances of
// an adapter, decoding the reply into result unless result is nil
func (c *Client) SendTo(ctx context.Context, instance, command string, data interface{}, result interface{}) error {
	if err := c.checkReady(); err != nil {
		return err
	}
	return c.transport.SendTo(ctx, instance, command, data, result)
}

// Log writes text to the ioBroker log
func (c *Client) Log(ctx context.Context, text string, level common.LogLevel) error {
	if err := c.checkReady(); err != nil {
		return err
	}
	return c.transport.Log(ctx, text, level)
}

// Close signals the termination of this client, and cleans up resources.
// Every subscription obtained from the client is closed.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return common.ErrClosed
	}
	close(c.quitChan)
	err := c.transport.Close()
	<-c.initialized

	c.connected.Close()
	c.progress.Close()
	c.objectChanged.Close()
	c.stateChanged.Close()
	return err
}
