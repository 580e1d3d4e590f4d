package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdf/goiobroker/common"
)

var (
	flagAck bool

	cmdState = &cobra.Command{
		Use:   `state`,
		Short: `read, write and watch states`,
		Run:   usage,
	}

	cmdStateGet = &cobra.Command{
		Use:     `get <id|pattern>...`,
		Short:   `print states, all of them when no id is given`,
		PreRun:  setupClient,
		Run:     stateGet,
		PostRun: closeClient,
	}

	cmdStateSet = &cobra.Command{
		Use:     `set <id> <value>`,
		Short:   `write a state, the value is parsed as JSON when possible`,
		Args:    cobra.ExactArgs(2),
		PreRun:  setupClient,
		Run:     stateSet,
		PostRun: closeClient,
	}

	cmdStateWatch = &cobra.Command{
		Use:     `watch <id|pattern>...`,
		Short:   `print state changes until interrupted`,
		Args:    cobra.MinimumNArgs(1),
		PreRun:  setupClient,
		Run:     stateWatch,
		PostRun: closeClient,
	}
)

func init() {
	cmdStateSet.Flags().BoolVarP(&flagAck, `ack`, `a`, false, `write the value as acknowledged`)

	cmdState.AddCommand(cmdStateGet)
	cmdState.AddCommand(cmdStateSet)
	cmdState.AddCommand(cmdStateWatch)
}

func stateGet(c *cobra.Command, args []string) {
	ctx, cancel := requestContext()
	defer cancel()

	if len(args) == 1 && !common.IsPattern(args[0]) {
		state, err := client.GetState(ctx, args[0])
		if err != nil {
			logger.WithFields(logrus.Fields{
				`id`:    args[0],
				`error`: err,
			}).Fatalln(`Failed getting state`)
		}
		if state == nil {
			logger.WithField(`id`, args[0]).Fatalln(`State not found`)
		}
		printJSON(state)
		return
	}

	states, err := client.GetStates(ctx, args...)
	if err != nil {
		logger.WithField(`error`, err).Fatalln(`Failed getting states`)
	}
	printJSON(states)
}

func stateSet(c *cobra.Command, args []string) {
	ctx, cancel := requestContext()
	defer cancel()

	val := parseValue(args[1])
	if err := client.SetState(ctx, args[0], val, flagAck); err != nil {
		logger.WithFields(logrus.Fields{
			`id`:    args[0],
			`error`: err,
		}).Fatalln(`Failed setting state`)
	}
	logger.WithFields(logrus.Fields{
		`id`:  args[0],
		`val`: val,
		`ack`: flagAck,
	}).Infoln(`State set`)
}

func stateWatch(c *cobra.Command, args []string) {
	sub, err := client.StateChanges()
	if err != nil {
		logger.WithField(`error`, err).Fatalln(`Failed subscribing`)
	}

	ctx, cancel := requestContext()
	for _, id := range args {
		if err := client.ListenStateChanges(ctx, id); err != nil {
			logger.WithFields(logrus.Fields{
				`id`:    id,
				`error`: err,
			}).Fatalln(`Failed listening to state changes`)
		}
	}
	cancel()

	ctx, cancel = watchContext()
	defer cancel()
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			printJSON(ev)
		case <-ctx.Done():
			return
		}
	}
}
