package main

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prognoshealth/todolambda/config"
	"github.com/prognoshealth/todolambda/dispatch"
	"github.com/prognoshealth/todolambda/invoke"
	"github.com/prognoshealth/todolambda/logging"
	"github.com/prognoshealth/todolambda/store"
	"github.com/prognoshealth/todolambda/todo"
)

// Ways of reaching the dispatcher.
const (
	viaRemote   = "remote"
	viaMemory   = "memory"
	viaDynamoDB = "dynamodb"
)

type app struct {
	cfg        *config.Config
	envErr     error
	configFile string
	logFile    string
	via        string
	timeout    time.Duration

	logger *zap.Logger
}

func newApp() *app {
	a := &app{cfg: config.New(), logger: zap.NewNop()}

	cfg, err := config.FromEnv()
	if err != nil {
		a.envErr = err
	} else {
		a.cfg = cfg
	}

	return a
}

func rootCmd() *cobra.Command {
	a := newApp()

	cmd := &cobra.Command{
		Use:           "todo",
		Short:         "Run and manage the todo service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "JSON config file, flags take precedence")
	flags.StringVar(&a.cfg.Region, "region", a.cfg.Region, "AWS region, default to $AWS_REGION")
	flags.StringVar(&a.cfg.Table, "table", a.cfg.Table, "DynamoDB table name, default to $TABLE_NAME")
	flags.StringVar(&a.cfg.DynamoEndpoint, "dynamo-endpoint", a.cfg.DynamoEndpoint, "DynamoDB endpoint for local testing, default to $DYNAMO_ENDPOINT")
	flags.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "debug, info, warn or error, default to $LOG_LEVEL")
	flags.StringVar(&a.logFile, "log-file", "", "write logs to this file instead of stderr")
	flags.DurationVar(&a.timeout, "timeout", 30*time.Second, "timeout of outgoing HTTP calls")

	cmd.AddCommand(a.serveCmd())
	cmd.AddCommand(a.lambdaCmd())
	cmd.AddCommand(a.tuiCmd())
	cmd.AddCommand(a.dispatchCmd())
	cmd.AddCommand(a.createTableCmd())

	return cmd
}

// registerDispatcherFlags adds the flags selecting how the dispatcher is
// reached.
func (a *app) registerDispatcherFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.cfg.Endpoint, "endpoint", a.cfg.Endpoint, "dispatcher endpoint URL, default to $API_GATEWAY_URL")
	cmd.Flags().StringVar(&a.cfg.Function, "function", a.cfg.Function, "dispatcher Lambda function name, default to $DISPATCHER_FUNCTION")
	cmd.Flags().StringVar(&a.via, "via", viaRemote, "how to reach the dispatcher: remote, memory or dynamodb")
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.envErr != nil {
		return a.envErr
	}

	if a.configFile != "" {
		if err := a.loadFile(cmd); err != nil {
			return err
		}
	}

	if err := a.cfg.Validate(); err != nil {
		return err
	}

	var paths []string
	if a.logFile != "" {
		paths = append(paths, a.logFile)
	}

	logger, err := logging.New(a.cfg.LogLevel, paths...)
	if err != nil {
		return err
	}
	a.logger = logger

	return nil
}

// loadFile applies the config file to every setting not given as a flag.
func (a *app) loadFile(cmd *cobra.Command) error {
	b, err := os.ReadFile(a.configFile)
	if err != nil {
		return errors.Wrapf(err, "unable to read config %s", a.configFile)
	}

	fc, err := config.Parse(string(b))
	if err != nil {
		return errors.Wrapf(err, "invalid config %s", a.configFile)
	}

	strs := []struct {
		flag string
		dst  *string
		val  string
	}{
		{"endpoint", &a.cfg.Endpoint, fc.Endpoint},
		{"function", &a.cfg.Function, fc.Function},
		{"table", &a.cfg.Table, fc.Table},
		{"region", &a.cfg.Region, fc.Region},
		{"dynamo-endpoint", &a.cfg.DynamoEndpoint, fc.DynamoEndpoint},
		{"update-response", &a.cfg.UpdateResponse, fc.UpdateResponse},
		{"log-level", &a.cfg.LogLevel, fc.LogLevel},
	}

	for _, s := range strs {
		if s.val != "" && !cmd.Flags().Changed(s.flag) {
			*s.dst = s.val
		}
	}

	if fc.Port != 0 && !cmd.Flags().Changed("port") {
		a.cfg.Port = fc.Port
	}

	return nil
}

func (a *app) dynamoStore() (*store.DynamoStore, error) {
	if err := a.cfg.RequireTable(); err != nil {
		return nil, err
	}

	db, err := store.Connect(a.cfg.Region, store.Endpoint(a.cfg.DynamoEndpoint))
	if err != nil {
		return nil, err
	}

	return store.NewDynamoStore(db), nil
}

// invoker returns the dispatcher client selected by --via.
func (a *app) invoker() (invoke.Invoker, error) {
	switch a.via {
	case viaMemory:
		table := a.cfg.Table
		if table == "" {
			table = "todos"
		}
		d := dispatch.New(table, store.NewMemoryStore(todo.IDAttribute), a.logger)
		a.logger.Info("using in-memory dispatcher", zap.String("table", d.Table()))
		return &invoke.LocalInvoker{Dispatcher: d}, nil

	case viaDynamoDB:
		s, err := a.dynamoStore()
		if err != nil {
			return nil, err
		}
		return &invoke.LocalInvoker{Dispatcher: dispatch.New(a.cfg.Table, s, a.logger)}, nil

	case viaRemote, "":
		if err := a.cfg.RequireDispatcher(); err != nil {
			return nil, err
		}
		if a.cfg.Function != "" {
			return invoke.NewLambdaInvoker(a.cfg.Region, a.cfg.Function)
		}
		return invoke.NewHTTPInvoker(a.cfg.Endpoint, a.timeout), nil
	}

	return nil, errors.Errorf("unknown --via '%s', expected %s, %s or %s", a.via, viaRemote, viaMemory, viaDynamoDB)
}
