package store

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/pkg/errors"
)

// DynamoStore implements Store on top of a DynamoDB client. Errors coming
// from DynamoDB are returned with a stack attached but an unchanged message.
type DynamoStore struct {
	db dynamodbiface.DynamoDBAPI
}

// NewDynamoStore returns a store backed by db.
func NewDynamoStore(db dynamodbiface.DynamoDBAPI) *DynamoStore {
	return &DynamoStore{db: db}
}

// Endpoint sets a custom DynamoDB endpoint, used for DynamoDB Local.
func Endpoint(endpoint string) func(*aws.Config) {
	return func(c *aws.Config) {
		if endpoint != "" {
			c.Endpoint = aws.String(endpoint)
		}
	}
}

// Connect creates a DynamoDB client for region. It is meant to be called
// once at process start.
func Connect(region string, options ...func(*aws.Config)) (dynamodbiface.DynamoDBAPI, error) {
	cfg := &aws.Config{Region: aws.String(region)}
	for _, option := range options {
		option(cfg)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed getting session")
	}

	return dynamodb.New(sess), nil
}

// putItemInput builds the PutItemInput for item, applying options.
func putItemInput(table string, av map[string]*dynamodb.AttributeValue, o PutOptions) *dynamodb.PutItemInput {
	input := &dynamodb.PutItemInput{
		Item:      av,
		TableName: aws.String(table),
	}

	if o.UniqueAttribute != "" {
		input.ConditionExpression = aws.String("attribute_not_exists(#unique)")
		input.ExpressionAttributeNames = map[string]*string{
			"#unique": aws.String(o.UniqueAttribute),
		}
	}

	return input
}

// Put stores item in table.
func (s *DynamoStore) Put(ctx context.Context, table string, item Item, options ...PutOption) (*Output, error) {
	av, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		return nil, errors.Wrap(err, "failed marshalling item")
	}

	_, err = s.db.PutItemWithContext(ctx, putItemInput(table, av, putOptions(options)))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &Output{}, nil
}

// Get fetches the item addressed by key. A missing item yields an empty
// Output rather than an error.
func (s *DynamoStore) Get(ctx context.Context, table string, key Item) (*Output, error) {
	av, err := dynamodbattribute.MarshalMap(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed marshalling key")
	}

	result, err := s.db.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       av,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	item, err := unmarshalItem(result.Item)
	if err != nil {
		return nil, err
	}

	return &Output{Item: item}, nil
}

// updateItemInput converts input into the sdk shape.
func updateItemInput(table string, input UpdateInput) (*dynamodb.UpdateItemInput, error) {
	key, err := dynamodbattribute.MarshalMap(input.Key)
	if err != nil {
		return nil, errors.Wrap(err, "failed marshalling key")
	}

	out := &dynamodb.UpdateItemInput{
		TableName:        aws.String(table),
		Key:              key,
		UpdateExpression: aws.String(input.UpdateExpression),
	}

	if len(input.ExpressionAttributeNames) > 0 {
		out.ExpressionAttributeNames = aws.StringMap(input.ExpressionAttributeNames)
	}

	if len(input.ExpressionAttributeValues) > 0 {
		values, err := dynamodbattribute.MarshalMap(input.ExpressionAttributeValues)
		if err != nil {
			return nil, errors.Wrap(err, "failed marshalling expression attribute values")
		}
		out.ExpressionAttributeValues = values
	}

	if input.ReturnValues != "" {
		out.ReturnValues = aws.String(input.ReturnValues)
	}

	return out, nil
}

// Update applies an update expression to the item addressed by input.Key.
func (s *DynamoStore) Update(ctx context.Context, table string, input UpdateInput) (*Output, error) {
	uii, err := updateItemInput(table, input)
	if err != nil {
		return nil, err
	}

	result, err := s.db.UpdateItemWithContext(ctx, uii)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	attrs, err := unmarshalItem(result.Attributes)
	if err != nil {
		return nil, err
	}

	return &Output{Attributes: attrs}, nil
}

// Delete removes the item addressed by key. Deleting a missing item is not an
// error.
func (s *DynamoStore) Delete(ctx context.Context, table string, key Item, returnValues string) (*Output, error) {
	av, err := dynamodbattribute.MarshalMap(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed marshalling key")
	}

	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       av,
	}
	if returnValues != "" {
		input.ReturnValues = aws.String(returnValues)
	}

	result, err := s.db.DeleteItemWithContext(ctx, input)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	attrs, err := unmarshalItem(result.Attributes)
	if err != nil {
		return nil, err
	}

	return &Output{Attributes: attrs}, nil
}

// Scan returns every item of table, following pagination until the last
// page. The result is never nil.
func (s *DynamoStore) Scan(ctx context.Context, table string) ([]Item, error) {
	items := []Item{}
	var pageErr error

	input := &dynamodb.ScanInput{TableName: aws.String(table)}
	err := s.db.ScanPagesWithContext(ctx, input, func(page *dynamodb.ScanOutput, lastPage bool) bool {
		for _, av := range page.Items {
			item, err := unmarshalItem(av)
			if err != nil {
				pageErr = err
				return false
			}
			items = append(items, item)
		}
		return true
	})

	if err != nil {
		return nil, errors.WithStack(err)
	}

	if pageErr != nil {
		return nil, pageErr
	}

	return items, nil
}

func unmarshalItem(av map[string]*dynamodb.AttributeValue) (Item, error) {
	if len(av) == 0 {
		return nil, nil
	}

	item := Item{}
	if err := dynamodbattribute.UnmarshalMap(av, &item); err != nil {
		return nil, errors.Wrap(err, "failed unmarshalling item")
	}

	return item, nil
}
