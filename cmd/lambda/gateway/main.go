package main

import (
	"context"

	"athletehub-api/internal/apperrors"
	"athletehub-api/pkg/lambda"
	"athletehub-api/pkg/server"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

// handle builds the container lazily so a cold start that cannot reach its
// dependencies answers 500 and the next invocation tries again.
func handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	container, err := server.GetConnectionManager().GetContainer(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to initialize container")
		return lambda.ToProxyResponse(lambda.ErrorResponse(apperrors.Upstream("initialize gateway", err))), nil
	}
	return lambda.NewProxyHandler(container.Router, container.Config.BasePath)(ctx, event)
}

func main() {
	awslambda.Start(handle)
}
