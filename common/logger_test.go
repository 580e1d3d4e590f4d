package common_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pdf/goiobroker/common"
	"github.com/pdf/goiobroker/mocks"
)

func TestSetLoggerPrefixesMessages(t *testing.T) {
	logger := new(mocks.Logger)
	logger.On(`Infof`, `[goiobroker] connected to %s`, []interface{}{`localhost`}).Return().Once()
	common.SetLogger(logger)
	t.Cleanup(func() { common.SetLogger(new(common.StubLogger)) })

	common.Log.Infof(`connected to %s`, `localhost`)
	logger.AssertExpectations(t)
}

func TestTaggedFollowsSetLogger(t *testing.T) {
	tagged := common.Tagged(`socketio`)

	first := new(mocks.Logger)
	first.On(`Warnf`, `[goiobroker] [socketio] lost`, mock.Anything).Return().Once()
	common.SetLogger(first)
	tagged.Warnf(`lost`)

	second := new(mocks.Logger)
	second.On(`Debugf`, `[goiobroker] [socketio] back`, mock.Anything).Return().Once()
	common.SetLogger(second)
	t.Cleanup(func() { common.SetLogger(new(common.StubLogger)) })
	tagged.Debugf(`back`)

	first.AssertExpectations(t)
	second.AssertExpectations(t)
	first.AssertNotCalled(t, `Debugf`, mock.Anything, mock.Anything)
}

func TestStubLoggerPanics(t *testing.T) {
	assert.PanicsWithValue(t, `boom 1`, func() {
		new(common.StubLogger).Panicf(`boom %d`, 1)
	})
}
