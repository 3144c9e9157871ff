package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prognoshealth/todolambda/proxy"
)

func (a *app) todoAPI() (*proxy.TodoAPI, error) {
	inv, err := a.invoker()
	if err != nil {
		return nil, err
	}

	update, err := proxy.ParseUpdateResponse(a.cfg.UpdateResponse)
	if err != nil {
		return nil, err
	}

	api := proxy.NewTodoAPI(inv, a.logger)
	api.UpdateResponse = update

	return api, nil
}

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the todo REST API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve()
		},
	}
	a.registerDispatcherFlags(cmd)
	cmd.Flags().IntVar(&a.cfg.Port, "port", a.cfg.Port, "listen port, default to $PORT")
	cmd.Flags().StringVar(&a.cfg.UpdateResponse, "update-response", a.cfg.UpdateResponse, "no-content or updated, default to $UPDATE_RESPONSE")
	return cmd
}

func (a *app) serve() error {
	api, err := a.todoAPI()
	if err != nil {
		return err
	}

	router, err := api.Router()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("starting proxy",
		zap.String("via", a.via),
		zap.String("update_response", a.cfg.UpdateResponse),
		zap.Int("port", a.cfg.Port))

	return proxy.NewServer(router, a.logger).ListenAndServe(ctx, a.cfg.Addr())
}

func (a *app) lambdaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lambda",
		Short: "Serve the todo REST API as an API Gateway v2 Lambda",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.todoAPI()
			if err != nil {
				return err
			}

			handler, err := api.Handler()
			if err != nil {
				return err
			}

			lambda.Start(handler)
			return nil
		},
	}
	a.registerDispatcherFlags(cmd)
	cmd.Flags().StringVar(&a.cfg.UpdateResponse, "update-response", a.cfg.UpdateResponse, "no-content or updated, default to $UPDATE_RESPONSE")
	return cmd
}
