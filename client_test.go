package goiobroker_test

import (
	"context"
	"errors"
	"strings"
	"time"

	. "github.com/pdf/goiobroker"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/format"

	"github.com/pdf/goiobroker/common"
	"github.com/pdf/goiobroker/mocks"
	"github.com/stretchr/testify/mock"
)

func init() {
	format.UseStringerRepresentation = false
}

var _ = Describe("Goiobroker", func() {
	var (
		client        *Client
		mockTransport *mocks.Transport
		mockLogger    *mocks.Logger
		ready         chan struct{}

		stateID  = `javascript.0.counter`
		objectID = `javascript.0.counter`

		config = func() common.Config {
			return common.Config{
				ClientName:       `testClient`,
				Host:             `localhost`,
				Port:             8084,
				BootstrapTimeout: 100 * time.Millisecond,
			}
		}

		makeReady = func() {
			client.OnConnectionChange(true)
			client.OnProgress(common.ProgressReady)
		}
	)

	BeforeEach(func() {
		mockLogger = new(mocks.Logger)
		for _, level := range []string{`Debugf`, `Infof`, `Warnf`, `Errorf`} {
			mockLogger.On(level, mock.Anything, mock.Anything).Return()
		}
		SetLogger(mockLogger)

		ready = make(chan struct{})
		mockTransport = new(mocks.Transport)
		mockTransport.On(`SetClient`, mock.Anything).Return()
		mockTransport.On(`Ready`).Return(ready)
	})

	AfterEach(func() {
		SetLogger(new(common.StubLogger))
	})

	Describe("NewClient", func() {
		AfterEach(func() {
			mockTransport.On(`Close`).Return(nil)
			_ = client.Close()
		})

		It("should set itself as the client of the transport", func() {
			var err error
			client, err = NewClient(config(), mockTransport)
			Expect(err).NotTo(HaveOccurred())
			Expect(client).To(BeAssignableToTypeOf(new(Client)))
			mockTransport.AssertCalled(GinkgoT(), `SetClient`, client)
		})

		It("should reject an invalid configuration", func() {
			cfg := config()
			cfg.Host = ``
			c, err := NewClient(cfg, mockTransport)
			Expect(err).To(HaveOccurred())
			Expect(c).To(BeNil())
			mockTransport.AssertNotCalled(GinkgoT(), `SetClient`, mock.Anything)
			client, _ = NewClient(config(), mockTransport)
		})

		It("should apply defaults to the configuration", func() {
			client, _ = NewClient(config(), mockTransport)
			Expect(client.Config().HistoryAdapter).To(Equal(common.DefaultHistoryAdapter))
			Expect(client.Config().RequestTimeout).To(Equal(common.DefaultTimeout))
			Expect(client.Config().BootstrapTimeout).To(Equal(100 * time.Millisecond))
		})

		It("should use the configured client name", func() {
			client, _ = NewClient(config(), mockTransport)
			Expect(client.ConnectOptions().Name).To(Equal(`testClient`))
			Expect(client.ConnectOptions().URL).To(Equal(`http://localhost:8084/?EIO=3&transport=websocket`))
		})

		It("should generate a client name when none is configured", func() {
			cfg := config()
			cfg.ClientName = ``
			client, _ = NewClient(cfg, mockTransport, WithNameGenerator(func() string {
				return `goiobroker.client42`
			}))
			Expect(client.ConnectOptions().Name).To(Equal(`goiobroker.client42`))
		})

		It("should open the transport when auto connecting", func() {
			cfg := config()
			cfg.AutoConnect = true
			mockTransport.On(`Open`, mock.Anything, mock.Anything).Return(nil).Once()
			client, _ = NewClient(cfg, mockTransport)
			close(ready)
			Eventually(client.Initialized()).Should(BeClosed())
			mockTransport.AssertCalled(GinkgoT(), `Open`, mock.Anything, client.ConnectOptions())
		})

		It("should not wait for readiness when the transport fails to open", func() {
			cfg := config()
			cfg.AutoConnect = true
			mockTransport.On(`Open`, mock.Anything, mock.Anything).Return(errors.New(`refused`)).Once()
			client, _ = NewClient(cfg, mockTransport)
			Eventually(client.Initialized()).Should(BeClosed())
			mockTransport.AssertNotCalled(GinkgoT(), `Ready`)
			mockLogger.AssertCalled(GinkgoT(), `Errorf`, mock.MatchedBy(func(f string) bool {
				return strings.Contains(f, `Transport can't be started`)
			}), mock.Anything)
			Expect(client.Connected()).To(BeFalse())
		})

		It("should not open the transport without auto connect", func() {
			client, _ = NewClient(config(), mockTransport)
			close(ready)
			Eventually(client.Initialized()).Should(BeClosed())
			mockTransport.AssertNotCalled(GinkgoT(), `Open`, mock.Anything, mock.Anything)
		})

		It("should give up waiting after the bootstrap timeout", func() {
			client, _ = NewClient(config(), mockTransport)
			Consistently(client.Initialized(), 50*time.Millisecond).ShouldNot(BeClosed())
			Eventually(client.Initialized()).Should(BeClosed())
			Expect(client.Connected()).To(BeFalse())
			Expect(client.Progress()).To(Equal(common.ProgressConnecting))
			mockLogger.AssertCalled(GinkgoT(), `Errorf`, mock.MatchedBy(func(f string) bool {
				return strings.Contains(f, `Transport can't be started`)
			}), mock.Anything)
		})
	})

	Describe("Client", func() {
		BeforeEach(func() {
			client, _ = NewClient(config(), mockTransport)
			close(ready)
			Eventually(client.Initialized()).Should(BeClosed())
		})

		AfterEach(func() {
			mockTransport.On(`Close`).Return(nil)
			_ = client.Close()
		})

		Context("connection state", func() {
			It("should start disconnected", func() {
				Expect(client.Connected()).To(BeFalse())
				Expect(client.Progress()).To(Equal(common.ProgressConnecting))
			})

			It("should replay the current connection state to new subscribers", func() {
				sub, err := client.ConnectedChanges()
				Expect(err).NotTo(HaveOccurred())
				Eventually(sub.Events()).Should(Receive(BeFalse()))
				client.OnConnectionChange(true)
				Eventually(sub.Events()).Should(Receive(BeTrue()))
				Expect(client.Connected()).To(BeTrue())

				late, _ := client.ConnectedChanges()
				Eventually(late.Events()).Should(Receive(BeTrue()))
			})

			It("should publish progress in order", func() {
				sub, _ := client.ProgressChanges()
				client.OnProgress(common.ProgressConnected)
				client.OnProgress(common.ProgressObjectsLoaded)
				client.OnProgress(common.ProgressReady)
				for _, p := range []common.Progress{
					common.ProgressConnecting,
					common.ProgressConnected,
					common.ProgressObjectsLoaded,
					common.ProgressReady,
				} {
					Eventually(sub.Events()).Should(Receive(Equal(p)))
				}
			})
		})

		Context("before the connection is ready", func() {
			It("should reject requests", func() {
				_, err := client.GetState(ctx(), stateID)
				Expect(err).To(Equal(common.ErrNotReady))
				Expect(client.SetState(ctx(), stateID, 1, false)).To(Equal(common.ErrNotReady))
				_, err = client.GetHistoryConfigurations(ctx(), ``)
				Expect(err).To(Equal(common.ErrNotReady))
				mockTransport.AssertNotCalled(GinkgoT(), `GetState`, mock.Anything, mock.Anything)
			})

			It("should reject requests once the connection is lost", func() {
				makeReady()
				client.OnConnectionChange(false)
				_, err := client.GetObjects(ctx())
				Expect(err).To(Equal(common.ErrNotReady))
			})
		})

		Context("listening", func() {
			It("should subscribe to each auto subscribe id exactly once", func() {
				mockTransport.On(`Close`).Return(nil)
				_ = client.Close()

				cfg := config()
				cfg.AutoSubscribes = []string{stateID, `hm-rpc.0.*`, stateID}
				ready = make(chan struct{})
				mockTransport = new(mocks.Transport)
				mockTransport.On(`SetClient`, mock.Anything).Return()
				mockTransport.On(`Ready`).Return(ready)
				mockTransport.On(`SubscribeState`, mock.Anything, mock.Anything, mock.Anything).Return(nil)
				client, _ = NewClient(cfg, mockTransport)

				client.OnReady(nil)
				client.OnReady(nil)
				mockTransport.AssertNumberOfCalls(GinkgoT(), `SubscribeState`, 2)
				mockTransport.AssertCalled(GinkgoT(), `SubscribeState`, mock.Anything, stateID, mock.Anything)
				mockTransport.AssertCalled(GinkgoT(), `SubscribeState`, mock.Anything, `hm-rpc.0.*`, mock.Anything)
			})

			It("should allow listening again after a failed subscription", func() {
				mockTransport.On(`SubscribeObject`, mock.Anything, objectID, mock.Anything).Return(errors.New(`failed`)).Once()
				mockTransport.On(`SubscribeObject`, mock.Anything, objectID, mock.Anything).Return(nil).Once()
				Expect(client.ListenObjectChanges(ctx(), objectID)).NotTo(Succeed())
				Expect(client.ListenObjectChanges(ctx(), objectID)).To(Succeed())
				Expect(client.ListenObjectChanges(ctx(), objectID)).To(Succeed())
				mockTransport.AssertNumberOfCalls(GinkgoT(), `SubscribeObject`, 2)
			})

			It("should subscribe states again after a failed subscription", func() {
				mockTransport.On(`SubscribeState`, mock.Anything, stateID, mock.Anything).Return(context.Canceled).Once()
				mockTransport.On(`SubscribeState`, mock.Anything, stateID, mock.Anything).Return(nil).Once()
				Expect(client.ListenStateChanges(ctx(), stateID)).To(MatchError(context.Canceled))
				Expect(client.ListenStateChanges(ctx(), stateID)).To(Succeed())
				Expect(client.ListenStateChanges(ctx(), stateID)).To(Succeed())
				mockTransport.AssertNumberOfCalls(GinkgoT(), `SubscribeState`, 2)
			})

			It("should publish state changes filtered by id in order", func() {
				var handler common.StateHandler
				mockTransport.On(`SubscribeState`, mock.Anything, `javascript.0.*`, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
					handler = args.Get(2).(common.StateHandler)
				})
				Expect(client.ListenStateChanges(ctx(), `javascript.0.*`)).To(Succeed())
				Expect(handler).NotTo(BeNil())

				sub, err := client.StateChangedFilterBy(stateID)
				Expect(err).NotTo(HaveOccurred())
				first := &common.State{Val: float64(1)}
				second := &common.State{Val: float64(2)}
				handler(`javascript.0.other`, &common.State{Val: float64(0)})
				handler(stateID, first)
				handler(stateID, second)
				handler(stateID, nil)

				Eventually(sub.Events()).Should(Receive(Equal(first)))
				Eventually(sub.Events()).Should(Receive(Equal(second)))
				Eventually(sub.Events()).Should(Receive(BeNil()))
				Consistently(sub.Events(), 50*time.Millisecond).ShouldNot(Receive())
			})

			It("should publish object changes pushed by the transport", func() {
				all, _ := client.ObjectChanges()
				sub, _ := client.ObjectChangedFilterBy(objectID)
				obj := &common.Object{ID: objectID, Type: `state`}
				client.OnObjectChange(`system.adapter.admin.0`, &common.Object{ID: `system.adapter.admin.0`})
				client.OnObjectChange(objectID, obj)

				Eventually(sub.Events()).Should(Receive(Equal(obj)))
				Eventually(all.Events()).Should(Receive(Equal(common.ObjectChange{
					ID:     `system.adapter.admin.0`,
					Object: &common.Object{ID: `system.adapter.admin.0`},
				})))
				Eventually(all.Events()).Should(Receive(Equal(common.ObjectChange{ID: objectID, Object: obj})))
			})

			It("should refuse listening after close", func() {
				mockTransport.On(`Close`).Return(nil)
				Expect(client.Close()).To(Succeed())
				Expect(client.ListenStateChanges(ctx(), stateID)).To(Equal(common.ErrClosed))
			})
		})

		Context("when ready", func() {
			BeforeEach(makeReady)

			It("should return the state from the transport", func() {
				state := &common.State{Val: `on`, Ack: true}
				mockTransport.On(`GetState`, mock.Anything, stateID).Return(state, nil)
				Expect(client.GetState(ctx(), stateID)).To(Equal(state))
			})

			It("should return errors from the transport", func() {
				mockTransport.On(`GetObject`, mock.Anything, objectID).Return(nil, common.ErrTimeout)
				_, err := client.GetObject(ctx(), objectID)
				Expect(err).To(Equal(common.ErrTimeout))
			})

			It("should pass patterns to GetStates", func() {
				states := map[string]*common.State{stateID: {Val: true}}
				mockTransport.On(`GetStates`, mock.Anything, []string{`javascript.0.*`, `hm-rpc.*`}).Return(states, nil)
				Expect(client.GetStates(ctx(), `javascript.0.*`, `hm-rpc.*`)).To(Equal(states))
			})

			It("should send SetState to the transport", func() {
				mockTransport.On(`SetState`, mock.Anything, stateID, 42, true).Return(nil)
				Expect(client.SetState(ctx(), stateID, 42, true)).To(Succeed())
			})

			It("should return all objects", func() {
				objects := map[string]*common.Object{objectID: {ID: objectID}}
				mockTransport.On(`GetObjects`, mock.Anything).Return(objects, nil)
				Expect(client.GetObjects(ctx())).To(Equal(objects))
			})

			It("should return enums and groups", func() {
				enums := map[string]*common.Object{`enum.rooms.kitchen`: {ID: `enum.rooms.kitchen`}}
				groups := []*common.Object{{ID: `system.group.administrator`}}
				mockTransport.On(`GetEnums`, mock.Anything, `rooms`).Return(enums, nil)
				mockTransport.On(`GetGroups`, mock.Anything).Return(groups, nil)
				Expect(client.GetEnums(ctx(), `rooms`)).To(Equal(enums))
				Expect(client.GetGroups(ctx())).To(Equal(groups))
			})

			It("should select the system config variant", func() {
				full := &common.SystemConfig{ID: `system.config`}
				compact := &common.SystemConfig{Common: common.SystemConfigCommon{Language: `de`}}
				mockTransport.On(`GetSystemConfig`, mock.Anything).Return(full, nil)
				mockTransport.On(`GetCompactSystemConfig`, mock.Anything).Return(compact, nil)
				Expect(client.GetSystemConfig(ctx(), false)).To(Equal(full))
				Expect(client.GetSystemConfig(ctx(), true)).To(Equal(compact))
			})

			It("should return history", func() {
				opts := common.GetHistoryOptions{Instance: `history.0`, Count: 10}
				result := &common.GetHistoryResult{Values: []common.HistoryEntry{{Val: float64(1), TS: 1000}}}
				mockTransport.On(`GetHistory`, mock.Anything, stateID, opts).Return(result, nil)
				Expect(client.GetHistory(ctx(), stateID, opts)).To(Equal(result))
			})

			It("should send messages and log lines", func() {
				mockTransport.On(`SendTo`, mock.Anything, `email.0`, `send`, `hello`, nil).Return(nil)
				mockTransport.On(`Log`, mock.Anything, `hello`, common.LogWarn).Return(nil)
				Expect(client.SendTo(ctx(), `email.0`, `send`, `hello`, nil)).To(Succeed())
				Expect(client.Log(ctx(), `hello`, common.LogWarn)).To(Succeed())
			})

			Context("history configuration", func() {
				It("should query the default history adapter", func() {
					enabled := true
					mockTransport.On(`SendTo`, mock.Anything, common.DefaultHistoryAdapter, `getEnabledDPs`, nil, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
						result := args.Get(4).(*map[string]common.HistoryConfig)
						(*result)[stateID] = common.HistoryConfig{Enabled: &enabled}
					})
					configs, err := client.GetHistoryConfigurations(ctx(), ``)
					Expect(err).NotTo(HaveOccurred())
					Expect(configs).To(HaveKey(stateID))
					Expect(*configs[stateID].Enabled).To(BeTrue())
				})

				It("should prefer an explicit adapter", func() {
					mockTransport.On(`SendTo`, mock.Anything, `sql.0`, `getEnabledDPs`, nil, mock.Anything).Return(nil)
					_, err := client.GetHistoryConfigurations(ctx(), `sql.0`)
					Expect(err).NotTo(HaveOccurred())
				})

				It("should enable history for a data point", func() {
					enabled := true
					cfg := common.HistoryConfig{Enabled: &enabled}
					data := map[string]interface{}{`id`: stateID, `options`: cfg}
					mockTransport.On(`SendTo`, mock.Anything, common.DefaultHistoryAdapter, `enableHistory`, data, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
						args.Get(4).(*common.HistoryConfigResult).Success = true
					})
					result, err := client.EnableHistoryForDataPoint(ctx(), stateID, cfg, ``)
					Expect(err).NotTo(HaveOccurred())
					Expect(result.Success).To(BeTrue())
				})

				It("should disable history for a data point", func() {
					data := map[string]interface{}{`id`: stateID}
					mockTransport.On(`SendTo`, mock.Anything, `history.1`, `disableHistory`, data, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
						args.Get(4).(*common.HistoryConfigResult).Error = `not enabled`
					})
					result, err := client.DisableHistoryForDataPoint(ctx(), stateID, `history.1`)
					Expect(err).NotTo(HaveOccurred())
					Expect(result.Error).To(Equal(`not enabled`))
				})

				It("should return errors from the adapter", func() {
					mockTransport.On(`SendTo`, mock.Anything, mock.Anything, `disableHistory`, mock.Anything, mock.Anything).Return(common.ErrTimeout)
					_, err := client.DisableHistoryForDataPoint(ctx(), stateID, ``)
					Expect(err).To(Equal(common.ErrTimeout))
				})
			})
		})

		Context("closing", func() {
			It("should close successfully", func() {
				mockTransport.On(`Close`).Return(nil)
				Expect(client.Close()).To(Succeed())
			})

			It("should return an error on failed close", func() {
				mockTransport.On(`Close`).Return(errors.New(`close failure`))
				Expect(client.Close()).NotTo(Succeed())
			})

			It("should return an error on double-close", func() {
				mockTransport.On(`Close`).Return(nil)
				Expect(client.Close()).To(Succeed())
				Expect(client.Close()).To(Equal(common.ErrClosed))
			})

			It("should close open subscriptions", func() {
				sub, _ := client.StateChanges()
				filtered, _ := client.ObjectChangedFilterBy(objectID)
				mockTransport.On(`Close`).Return(nil)
				Expect(client.Close()).To(Succeed())
				Eventually(sub.Events()).Should(BeClosed())
				Eventually(filtered.Events()).Should(BeClosed())
			})

			It("should reject requests after close", func() {
				makeReady()
				mockTransport.On(`Close`).Return(nil)
				Expect(client.Close()).To(Succeed())
				_, err := client.GetState(ctx(), stateID)
				Expect(err).To(Equal(common.ErrClosed))
				_, err = client.StateChanges()
				Expect(err).To(Equal(common.ErrClosed))
			})
		})
	})
})
