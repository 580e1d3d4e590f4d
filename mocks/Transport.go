package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pdf/goiobroker/common"
)

// Transport is a mock of common.Transport.  Ready accepts a channel or a
// function returning one as its return value.
type Transport struct {
	mock.Mock
}

// SetClient provides a mock function with given fields: client
func (_m *Transport) SetClient(client common.Client) {
	_m.Called(client)
}

// Open provides a mock function with given fields: ctx, opts
func (_m *Transport) Open(ctx context.Context, opts common.ConnectOptions) error {
	ret := _m.Called(ctx, opts)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, common.ConnectOptions) error); ok {
		r0 = rf(ctx, opts)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Ready provides a mock function with given fields:
func (_m *Transport) Ready() <-chan struct{} {
	ret := _m.Called()

	var r0 <-chan struct{}
	switch rf := ret.Get(0).(type) {
	case func() <-chan struct{}:
		r0 = rf()
	case chan struct{}:
		r0 = rf
	case <-chan struct{}:
		r0 = rf
	}

	return r0
}

// Close provides a mock function with given fields:
func (_m *Transport) Close() error {
	ret := _m.Called()

	var r0 error
	if rf, ok := ret.Get(0).(func() error); ok {
		r0 = rf()
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// SubscribeObject provides a mock function with given fields: ctx, pattern, handler
func (_m *Transport) SubscribeObject(ctx context.Context, pattern string, handler common.ObjectHandler) error {
	ret := _m.Called(ctx, pattern, handler)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, common.ObjectHandler) error); ok {
		r0 = rf(ctx, pattern, handler)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// SubscribeState provides a mock function with given fields: ctx, pattern, handler
func (_m *Transport) SubscribeState(ctx context.Context, pattern string, handler common.StateHandler) error {
	ret := _m.Called(ctx, pattern, handler)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, common.StateHandler) error); ok {
		r0 = rf(ctx, pattern, handler)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// GetObject provides a mock function with given fields: ctx, id
func (_m *Transport) GetObject(ctx context.Context, id string) (*common.Object, error) {
	ret := _m.Called(ctx, id)

	var r0 *common.Object
	if rf, ok := ret.Get(0).(func(context.Context, string) *common.Object); ok {
		r0 = rf(ctx, id)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*common.Object)
	}

	return r0, ret.Error(1)
}

// GetObjects provides a mock function with given fields: ctx
func (_m *Transport) GetObjects(ctx context.Context) (map[string]*common.Object, error) {
	ret := _m.Called(ctx)

	var r0 map[string]*common.Object
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(map[string]*common.Object)
	}

	return r0, ret.Error(1)
}

// GetState provides a mock function with given fields: ctx, id
func (_m *Transport) GetState(ctx context.Context, id string) (*common.State, error) {
	ret := _m.Called(ctx, id)

	var r0 *common.State
	if rf, ok := ret.Get(0).(func(context.Context, string) *common.State); ok {
		r0 = rf(ctx, id)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*common.State)
	}

	return r0, ret.Error(1)
}

// GetStates provides a mock function with given fields: ctx, patterns
func (_m *Transport) GetStates(ctx context.Context, patterns ...string) (map[string]*common.State, error) {
	ret := _m.Called(ctx, patterns)

	var r0 map[string]*common.State
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(map[string]*common.State)
	}

	return r0, ret.Error(1)
}

// SetState provides a mock function with given fields: ctx, id, val, ack
func (_m *Transport) SetState(ctx context.Context, id string, val common.StateValue, ack bool) error {
	ret := _m.Called(ctx, id, val, ack)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, common.StateValue, bool) error); ok {
		r0 = rf(ctx, id, val, ack)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// GetEnums provides a mock function with given fields: ctx, name
func (_m *Transport) GetEnums(ctx context.Context, name string) (map[string]*common.Object, error) {
	ret := _m.Called(ctx, name)

	var r0 map[string]*common.Object
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(map[string]*common.Object)
	}

	return r0, ret.Error(1)
}

// GetGroups provides a mock function with given fields: ctx
func (_m *Transport) GetGroups(ctx context.Context) ([]*common.Object, error) {
	ret := _m.Called(ctx)

	var r0 []*common.Object
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*common.Object)
	}

	return r0, ret.Error(1)
}

// GetSystemConfig provides a mock function with given fields: ctx
func (_m *Transport) GetSystemConfig(ctx context.Context) (*common.SystemConfig, error) {
	ret := _m.Called(ctx)

	var r0 *common.SystemConfig
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*common.SystemConfig)
	}

	return r0, ret.Error(1)
}

// GetCompactSystemConfig provides a mock function with given fields: ctx
func (_m *Transport) GetCompactSystemConfig(ctx context.Context) (*common.SystemConfig, error) {
	ret := _m.Called(ctx)

	var r0 *common.SystemConfig
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*common.SystemConfig)
	}

	return r0, ret.Error(1)
}

// GetHistory provides a mock function with given fields: ctx, id, opts
func (_m *Transport) GetHistory(ctx context.Context, id string, opts common.GetHistoryOptions) (*common.GetHistoryResult, error) {
	ret := _m.Called(ctx, id, opts)

	var r0 *common.GetHistoryResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*common.GetHistoryResult)
	}

	return r0, ret.Error(1)
}

// SendTo provides a mock function with given fields: ctx, instance, command, data, result
func (_m *Transport) SendTo(ctx context.Context, instance string, command string, data interface{}, result interface{}) error {
	ret := _m.Called(ctx, instance, command, data, result)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string, interface{}, interface{}) error); ok {
		r0 = rf(ctx, instance, command, data, result)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Log provides a mock function with given fields: ctx, text, level
func (_m *Transport) Log(ctx context.Context, text string, level common.LogLevel) error {
	ret := _m.Called(ctx, text, level)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, common.LogLevel) error); ok {
		r0 = rf(ctx, text, level)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}
