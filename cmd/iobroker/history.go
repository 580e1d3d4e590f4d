package main

import (
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdf/goiobroker/common"
)

var (
	flagHistorySince     time.Duration
	flagHistoryCount     int
	flagHistoryAggregate string
	flagHistoryOptions   string

	cmdHistory = &cobra.Command{
		Use:   `history`,
		Short: `query recorded values and manage history recording`,
		Run:   usage,
	}

	cmdHistoryGet = &cobra.Command{
		Use:     `get <id>`,
		Short:   `print the recorded values of a state`,
		Args:    cobra.ExactArgs(1),
		PreRun:  setupClient,
		Run:     historyGet,
		PostRun: closeClient,
	}

	cmdHistoryConfig = &cobra.Command{
		Use:     `config`,
		Short:   `print the data points with enabled history and their rules`,
		Args:    cobra.NoArgs,
		PreRun:  setupClient,
		Run:     historyConfig,
		PostRun: closeClient,
	}

	cmdHistoryEnable = &cobra.Command{
		Use:     `enable <id>`,
		Short:   `enable history recording for a data point`,
		Args:    cobra.ExactArgs(1),
		PreRun:  setupClient,
		Run:     historyEnable,
		PostRun: closeClient,
	}

	cmdHistoryDisable = &cobra.Command{
		Use:     `disable <id>`,
		Short:   `disable history recording for a data point`,
		Args:    cobra.ExactArgs(1),
		PreRun:  setupClient,
		Run:     historyDisable,
		PostRun: closeClient,
	}
)

func init() {
	cmdHistoryGet.Flags().DurationVar(&flagHistorySince, `since`, 24*time.Hour, `how far back to query`)
	cmdHistoryGet.Flags().IntVar(&flagHistoryCount, `count`, 0, `maximum number of values`)
	cmdHistoryGet.Flags().StringVar(&flagHistoryAggregate, `aggregate`, ``, `aggregation, like none, minmax, average or total`)
	cmdHistoryEnable.Flags().StringVar(&flagHistoryOptions, `options`, `{"enabled":true}`, `recording rule as JSON`)

	cmdHistory.AddCommand(cmdHistoryGet)
	cmdHistory.AddCommand(cmdHistoryConfig)
	cmdHistory.AddCommand(cmdHistoryEnable)
	cmdHistory.AddCommand(cmdHistoryDisable)
}

func historyGet(c *cobra.Command, args []string) {
	ctx, cancel := requestContext()
	defer cancel()

	now := time.Now()
	opts := common.GetHistoryOptions{
		Instance:  client.Config().HistoryAdapter,
		Start:     now.Add(-flagHistorySince).UnixMilli(),
		End:       now.UnixMilli(),
		Count:     flagHistoryCount,
		Aggregate: flagHistoryAggregate,
		Ack:       true,
		From:      true,
	}
	result, err := client.GetHistory(ctx, args[0], opts)
	if err != nil {
		logger.WithFields(logrus.Fields{
			`id`:    args[0],
			`error`: err,
		}).Fatalln(`Failed getting history`)
	}
	printJSON(result.Values)
}

func historyConfig(c *cobra.Command, args []string) {
	ctx, cancel := requestContext()
	defer cancel()

	configs, err := client.GetHistoryConfigurations(ctx, ``)
	if err != nil {
		logger.WithField(`error`, err).Fatalln(`Failed getting history configurations`)
	}
	printJSON(configs)
}

func historyEnable(c *cobra.Command, args []string) {
	var cfg common.HistoryConfig
	if err := json.Unmarshal([]byte(flagHistoryOptions), &cfg); err != nil {
		logger.WithField(`error`, err).Fatalln(`Invalid recording rule`)
	}

	ctx, cancel := requestContext()
	defer cancel()

	result, err := client.EnableHistoryForDataPoint(ctx, args[0], cfg, ``)
	reportHistoryResult(args[0], `enable`, result, err)
}

func historyDisable(c *cobra.Command, args []string) {
	ctx, cancel := requestContext()
	defer cancel()

	result, err := client.DisableHistoryForDataPoint(ctx, args[0], ``)
	reportHistoryResult(args[0], `disable`, result, err)
}

func reportHistoryResult(id, action string, result *common.HistoryConfigResult, err error) {
	fields := logrus.Fields{`id`: id, `action`: action}
	if err != nil {
		fields[`error`] = err
		logger.WithFields(fields).Fatalln(`Failed changing history`)
	}
	if !result.Success {
		fields[`error`] = result.Error
		logger.WithFields(fields).Fatalln(`History adapter refused the change`)
	}
	logger.WithFields(fields).Infoln(`History changed`)
}
