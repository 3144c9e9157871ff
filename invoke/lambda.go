package invoke

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	lambdasvc "github.com/aws/aws-sdk-go/service/lambda"
	"github.com/aws/aws-sdk-go/service/lambda/lambdaiface"
	"github.com/pkg/errors"

	"github.com/prognoshealth/todolambda/dispatch"
)

// LambdaInvoker calls the dispatcher function synchronously through the
// Lambda Invoke API.
type LambdaInvoker struct {
	FunctionName string

	svc lambdaiface.LambdaAPI
}

// NewLambdaInvoker returns an invoker for function in region.
func NewLambdaInvoker(region, function string) (*LambdaInvoker, error) {
	s, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed getting session")
	}

	return &LambdaInvoker{FunctionName: function, svc: lambdasvc.New(s)}, nil
}

// NewLambdaInvokerWithClient returns an invoker using svc.
func NewLambdaInvokerWithClient(svc lambdaiface.LambdaAPI, function string) *LambdaInvoker {
	return &LambdaInvoker{FunctionName: function, svc: svc}
}

// Invoke calls the function with req as event. A function error is returned
// as an UpstreamError.
func (l *LambdaInvoker) Invoke(ctx context.Context, req dispatch.Request) (json.RawMessage, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed marshalling dispatch request")
	}

	out, err := l.svc.InvokeWithContext(ctx, &lambdasvc.InvokeInput{
		FunctionName:   aws.String(l.FunctionName),
		InvocationType: aws.String(lambdasvc.InvocationTypeRequestResponse),
		Payload:        b,
	})
	if err != nil {
		return nil, err
	}

	if out.FunctionError != nil {
		ue := upstreamError(out.Payload)
		if ue == nil {
			ue = &UpstreamError{Type: aws.StringValue(out.FunctionError), Message: string(out.Payload)}
		}
		return nil, ue
	}

	return out.Payload, nil
}
