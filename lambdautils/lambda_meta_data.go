package lambdautils

import (
	"context"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"go.uber.org/zap"
)

// LambdaMetaData stored details about the current lambda context.
type LambdaMetaData struct {
	FunctionName    string
	FunctionVersion string
	LogGroupName    string
	LogStreamName   string
	MemoryLimitInMB int
	Context         *lambdacontext.LambdaContext
}

// GetLambdaMetaData returns MetaData extracted from the current lambda context.
func GetLambdaMetaData(ctx context.Context) LambdaMetaData {
	lm := LambdaMetaData{
		FunctionName:    lambdacontext.FunctionName,
		FunctionVersion: lambdacontext.FunctionVersion,
		LogGroupName:    lambdacontext.LogGroupName,
		LogStreamName:   lambdacontext.LogStreamName,
		MemoryLimitInMB: lambdacontext.MemoryLimitInMB,
	}

	lm.Context, _ = lambdacontext.FromContext(ctx)
	return lm
}

// RequestID returns the aws request id of the invocation, or an empty string
// when not running inside a lambda invocation.
func (lm LambdaMetaData) RequestID() string {
	if lm.Context == nil {
		return ""
	}

	return lm.Context.AwsRequestID
}

// Fields returns the metadata as structured log fields. Empty values are
// skipped so local runs don't log blank lambda fields.
func (lm LambdaMetaData) Fields() []zap.Field {
	var fields []zap.Field

	if lm.FunctionName != "" {
		fields = append(fields, zap.String("function", lm.FunctionName))
	}

	if lm.FunctionVersion != "" {
		fields = append(fields, zap.String("version", lm.FunctionVersion))
	}

	if id := lm.RequestID(); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}

	return fields
}

// Logger returns logger annotated with the lambda metadata found in ctx.
func Logger(ctx context.Context, logger *zap.Logger) *zap.Logger {
	return logger.With(GetLambdaMetaData(ctx).Fields()...)
}
