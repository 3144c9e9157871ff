// Command dispatcher is the todo dispatcher Lambda. It maps each request's
// operation onto the DynamoDB table named by TABLE_NAME.
package main

import (
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/prognoshealth/todolambda/config"
	"github.com/prognoshealth/todolambda/dispatch"
	"github.com/prognoshealth/todolambda/logging"
	"github.com/prognoshealth/todolambda/store"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := cfg.RequireTable(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	db, err := store.Connect(cfg.Region, store.Endpoint(cfg.DynamoEndpoint))
	if err != nil {
		logger.Fatal("unable to connect to dynamodb", zap.Error(err))
	}

	d := dispatch.New(cfg.Table, store.NewDynamoStore(db), logger)
	logger.Info("dispatcher ready", zap.String("table", d.Table()), zap.String("region", cfg.Region))

	lambda.Start(d.Handle)
}
