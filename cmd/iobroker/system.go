package main

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdf/goiobroker/common"
)

var (
	flagCompact        bool
	flagLogLevelServer string

	cmdEnums = &cobra.Command{
		Use:     `enums [name]`,
		Short:   `print enums, like rooms or functions, all of them when no name is given`,
		Args:    cobra.MaximumNArgs(1),
		PreRun:  setupClient,
		Run:     enums,
		PostRun: closeClient,
	}

	cmdGroups = &cobra.Command{
		Use:     `groups`,
		Short:   `print user groups and their members`,
		Args:    cobra.NoArgs,
		PreRun:  setupClient,
		Run:     groups,
		PostRun: closeClient,
	}

	cmdSysConfig = &cobra.Command{
		Use:     `sysconfig`,
		Short:   `print the system configuration`,
		Args:    cobra.NoArgs,
		PreRun:  setupClient,
		Run:     sysConfig,
		PostRun: closeClient,
	}

	cmdSendTo = &cobra.Command{
		Use:     `sendto <instance> <command> [data]`,
		Short:   `send a command to an adapter instance and print the reply, data is parsed as JSON when possible`,
		Args:    cobra.RangeArgs(2, 3),
		PreRun:  setupClient,
		Run:     sendTo,
		PostRun: closeClient,
	}

	cmdLog = &cobra.Command{
		Use:     `log <text>...`,
		Short:   `write a line to the ioBroker log`,
		Args:    cobra.MinimumNArgs(1),
		PreRun:  setupClient,
		Run:     writeLog,
		PostRun: closeClient,
	}
)

func init() {
	cmdSysConfig.Flags().BoolVar(&flagCompact, `compact`, false, `print the reduced configuration`)
	cmdLog.Flags().StringVar(&flagLogLevelServer, `level`, string(common.LogInfo), `log level, one of: [silly,debug,info,warn,error]`)
}

func enums(c *cobra.Command, args []string) {
	ctx, cancel := requestContext()
	defer cancel()

	name := ``
	if len(args) == 1 {
		name = args[0]
	}
	result, err := client.GetEnums(ctx, name)
	if err != nil {
		logger.WithFields(logrus.Fields{
			`name`:  name,
			`error`: err,
		}).Fatalln(`Failed getting enums`)
	}
	printJSON(result)
}

func groups(c *cobra.Command, args []string) {
	ctx, cancel := requestContext()
	defer cancel()

	result, err := client.GetGroups(ctx)
	if err != nil {
		logger.WithField(`error`, err).Fatalln(`Failed getting groups`)
	}
	for _, group := range result {
		logger.WithFields(logrus.Fields{
			`name`:    group.Name(``),
			`members`: strings.Join(group.Members(), `,`),
		}).Infoln(group.ID)
	}
}

func sysConfig(c *cobra.Command, args []string) {
	ctx, cancel := requestContext()
	defer cancel()

	result, err := client.GetSystemConfig(ctx, flagCompact)
	if err != nil {
		logger.WithField(`error`, err).Fatalln(`Failed getting system configuration`)
	}
	printJSON(result)
}

func sendTo(c *cobra.Command, args []string) {
	ctx, cancel := requestContext()
	defer cancel()

	var data interface{}
	if len(args) == 3 {
		data = parseValue(args[2])
	}
	var result interface{}
	if err := client.SendTo(ctx, args[0], args[1], data, &result); err != nil {
		logger.WithFields(logrus.Fields{
			`instance`: args[0],
			`command`:  args[1],
			`error`:    err,
		}).Fatalln(`Failed sending message`)
	}
	printJSON(result)
}

func writeLog(c *cobra.Command, args []string) {
	level := common.LogLevel(flagLogLevelServer)
	if !level.Valid() {
		logger.WithField(`level`, flagLogLevelServer).Fatalln(`Invalid log level`)
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := client.Log(ctx, strings.Join(args, ` `), level); err != nil {
		logger.WithField(`error`, err).Fatalln(`Failed writing log`)
	}
}
