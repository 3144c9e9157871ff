package store

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/pkg/errors"
)

// createTableInput returns the definition of a todo table: on-demand billing
// and a single string hash key.
func createTableInput(name, hashKey string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(name),
		BillingMode: aws.String(dynamodb.BillingModePayPerRequest),
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{
				AttributeName: aws.String(hashKey),
				AttributeType: aws.String(dynamodb.ScalarAttributeTypeS),
			},
		},
		KeySchema: []*dynamodb.KeySchemaElement{
			{
				AttributeName: aws.String(hashKey),
				KeyType:       aws.String(dynamodb.KeyTypeHash),
			},
		},
	}
}

// CreateTable creates table name keyed by hashKey and waits until it is
// active.
func CreateTable(ctx context.Context, db dynamodbiface.DynamoDBAPI, name, hashKey string) error {
	_, err := db.CreateTableWithContext(ctx, createTableInput(name, hashKey))
	if err != nil {
		return errors.Wrapf(err, "failed creating table %s", name)
	}

	err = db.WaitUntilTableExistsWithContext(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)})
	if err != nil {
		return errors.Wrapf(err, "failed waiting for table %s", name)
	}

	return nil
}
