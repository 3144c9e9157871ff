package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prognoshealth/todolambda/client"
	"github.com/prognoshealth/todolambda/dispatch"
	"github.com/prognoshealth/todolambda/store"
	"github.com/prognoshealth/todolambda/todo"
	"github.com/prognoshealth/todolambda/tui"
)

func (a *app) tuiCmd() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Manage todos in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				url = "http://localhost:" + strconv.Itoa(a.cfg.Port)
			}

			logger := a.logger
			if a.logFile == "" {
				logger = zap.NewNop()
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			return tui.Run(ctx, client.New(url, a.timeout), logger)
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "todo API base URL, default to http://localhost:$PORT")
	return cmd
}

func (a *app) dispatchCmd() *cobra.Command {
	var operation, payload string

	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Send a single request to the dispatcher and print the result",
		Example: `  todo dispatch
  todo dispatch --operation echo --payload '{"a":1}'
  todo dispatch --operation read --payload '{"Key":{"id":"x"}}' --via dynamodb --table todos`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dispatch.Request{Operation: operation}
			if payload != "" {
				if !json.Valid([]byte(payload)) {
					return errors.New("--payload must be valid JSON")
				}
				req.Payload = json.RawMessage(payload)
			}

			inv, err := a.invoker()
			if err != nil {
				return err
			}

			result, err := inv.Invoke(cmd.Context(), req)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(result))
			return err
		},
	}
	a.registerDispatcherFlags(cmd)
	cmd.Flags().StringVar(&operation, "operation", "", "create, read, update, delete, echo, or empty to list every item")
	cmd.Flags().StringVar(&payload, "payload", "", "request payload as JSON")
	return cmd
}

func (a *app) createTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-table",
		Short: "Create the DynamoDB table holding todos",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RequireTable(); err != nil {
				return err
			}

			db, err := store.Connect(a.cfg.Region, store.Endpoint(a.cfg.DynamoEndpoint))
			if err != nil {
				return err
			}

			if err := store.CreateTable(cmd.Context(), db, a.cfg.Table, todo.IDAttribute); err != nil {
				return err
			}

			a.logger.Info("table created", zap.String("table", a.cfg.Table))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Table %s is ready.\n", a.cfg.Table)
			return err
		},
	}
}
