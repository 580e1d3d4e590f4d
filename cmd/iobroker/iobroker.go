// Command iobroker allows performing basic operations on an ioBroker server
// through the socket API of its web or socketio adapter
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
	"github.com/spf13/pflag"

	"github.com/pdf/goiobroker"
	"github.com/pdf/goiobroker/common"
	"github.com/pdf/goiobroker/protocol"
)

var (
	client *goiobroker.Client

	flagConfig   string
	flagEnvFile  string
	flagTimeout  time.Duration
	flagLogLevel string
	flagHost     string
	flagPort     int
	flagSecure   bool
	flagUser     string
	flagPassword string
	flagAdapter  string

	logger = logrus.New()
	app    = &cobra.Command{
		Use:   `iobroker`,
		Short: `read and write states and objects of an ioBroker server`,
		PersistentPreRun: func(c *cobra.Command, args []string) {
			setLogger()
			loadEnv()
		},
	}

	cmdGenerateBashComp = &cobra.Command{
		Use:   `bashcomp <filename>`,
		Short: "generate bash completion at <file>",
		Run:   generateBashComp,
	}

	cmdGenerateDocs = &cobra.Command{
		Use:   `docs <path>`,
		Short: "generate markdown documentation at <path>",
		Run:   generateDocs,
	}
)

func init() {
	goiobroker.SetLogger(logger)

	addPersistentFlags(app.PersistentFlags())

	app.AddCommand(cmdState)
	app.AddCommand(cmdObject)
	app.AddCommand(cmdEnums)
	app.AddCommand(cmdGroups)
	app.AddCommand(cmdSysConfig)
	app.AddCommand(cmdHistory)
	app.AddCommand(cmdSendTo)
	app.AddCommand(cmdLog)
	app.AddCommand(cmdGenerateBashComp)
	app.AddCommand(cmdGenerateDocs)
}

func addPersistentFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&flagConfig, `config`, `c`, ``, `YAML configuration file`)
	flags.StringVar(&flagEnvFile, `env-file`, `.env`, `file with environment variables, ignored when missing`)
	flags.DurationVarP(&flagTimeout, `timeout`, `t`, 10*time.Second, `timeout for connecting and for each request`)
	flags.StringVarP(&flagLogLevel, `log-level`, `L`, `info`, `log level, one of: [debug,info,warn,error]`)
	flags.StringVarP(&flagHost, `host`, `H`, `localhost`, `server host`)
	flags.IntVarP(&flagPort, `port`, `p`, 8084, `server port`)
	flags.BoolVar(&flagSecure, `secure`, false, `connect with TLS`)
	flags.StringVarP(&flagUser, `user`, `u`, ``, `user name, defaults to $IOBROKER_USER`)
	flags.StringVar(&flagPassword, `password`, ``, `password, defaults to $IOBROKER_PASSWORD`)
	flags.StringVar(&flagAdapter, `history-adapter`, ``, `history adapter instance, defaults to `+common.DefaultHistoryAdapter)
}

func main() {
	if err := app.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadEnv() {
	err := godotenv.Load(flagEnvFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WithFields(logrus.Fields{
			`filename`: flagEnvFile,
			`error`:    err,
		}).Fatalln(`Could not load environment file`)
	}
}

func loadConfig(c *cobra.Command) (common.Config, error) {
	var cfg common.Config
	if flagConfig != `` {
		var err error
		if cfg, err = common.LoadConfig(flagConfig); err != nil {
			return cfg, err
		}
	}

	flags := c.Flags()
	if cfg.Host == `` || flags.Changed(`host`) {
		cfg.Host = flagHost
	}
	if cfg.Port == 0 || flags.Changed(`port`) {
		cfg.Port = flagPort
	}
	if flags.Changed(`secure`) {
		cfg.Secure = flagSecure
	}
	if flags.Changed(`history-adapter`) {
		cfg.HistoryAdapter = flagAdapter
	}

	user, password := flagUser, flagPassword
	if user == `` {
		user = os.Getenv(`IOBROKER_USER`)
	}
	if password == `` {
		password = os.Getenv(`IOBROKER_PASSWORD`)
	}
	if user != `` {
		cfg.Credentials = &common.Credentials{User: user, Password: password}
	}

	cfg.AutoConnect = true
	if cfg.BootstrapTimeout == 0 {
		cfg.BootstrapTimeout = flagTimeout
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = flagTimeout
	}
	return cfg, nil
}

func setupClient(c *cobra.Command, args []string) {
	cfg, err := loadConfig(c)
	if err != nil {
		logger.WithField(`error`, err).Fatalln(`Failed loading configuration`)
	}

	transport := &protocol.SocketIO{
		RequestTimeout:    cfg.RequestTimeout,
		ReconnectInterval: cfg.ReconnectInterval,
		SkipObjects:       true,
	}
	client, err = goiobroker.NewClient(cfg, transport)
	if err != nil {
		logger.WithField(`error`, err).Fatalln(`Failed initializing client`)
	}

	ctx, cancel := context.WithTimeout(context.Background(), flagTimeout)
	defer cancel()
	if err := client.WaitReady(ctx); err != nil {
		logger.WithFields(logrus.Fields{
			`host`:  cfg.Host,
			`port`:  cfg.Port,
			`error`: err,
		}).Fatalln(`Failed connecting`)
	}
}

func closeClient(c *cobra.Command, args []string) {
	err := client.Close()
	if err != nil {
		logger.WithField(`error`, err).Fatalln(`Failed closing client`)
	}
}

// requestContext bounds a single command
func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), flagTimeout)
}

// watchContext runs until interrupted
func watchContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, ``, `  `)
	if err != nil {
		logger.WithField(`error`, err).Fatalln(`Failed encoding result`)
	}
	fmt.Println(string(out))
}

// parseValue reads a command line value as JSON, falling back to the raw
// string for anything that is not valid JSON
func parseValue(raw string) common.StateValue {
	var val interface{}
	if err := json.Unmarshal([]byte(raw), &val); err != nil {
		return raw
	}
	return val
}

func generateBashComp(c *cobra.Command, args []string) {
	if len(args) != 1 {
		_ = c.Usage()
		fmt.Println()
		logger.Fatalln(`Missing filename`)
	}

	buf := new(bytes.Buffer)
	f, err := os.Create(args[0])
	if err != nil {
		logger.WithFields(logrus.Fields{
			`filename`: args[0],
			`error`:    err,
		}).Fatalln(`Could not open file`)
	}
	defer f.Close()
	_ = app.GenBashCompletion(buf)
	_, _ = buf.WriteTo(f)
}

func generateDocs(c *cobra.Command, args []string) {
	if len(args) != 1 {
		_ = c.Usage()
		fmt.Println()
		logger.Fatalln(`Missing output path`)
	}

	path := args[0]
	if path[len(path)-1] != os.PathSeparator {
		path += string(os.PathSeparator)
	}
	if err := doc.GenMarkdownTree(app, path); err != nil {
		logger.WithField(`error`, err).Fatalln(`Failed generating docs`)
	}
}

func usage(c *cobra.Command, args []string) {
	_ = c.Usage()
}

func setLogger() {
	switch flagLogLevel {
	case `debug`:
		logger.Level = logrus.DebugLevel
	case `info`:
		logger.Level = logrus.InfoLevel
	case `warn`:
		logger.Level = logrus.WarnLevel
	case `error`:
		logger.Level = logrus.ErrorLevel
	default:
		logger.Level = logrus.InfoLevel
	}
}
