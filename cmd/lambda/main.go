// Command lambda exposes the catalog API's net/http handlers behind AWS
// Lambda + API Gateway, using aws-lambda-go-api-proxy to adapt the
// http.Handler built for cmd/api without duplicating any routing logic.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"

	"vislog/pkg/catalogapi"
	"vislog/pkg/catalogdata"
)

var adapter *httpadapter.HandlerAdapter

func init() {
	cfg := catalogdata.LoadConfig()

	store, err := catalogdata.OpenStore(context.Background(), cfg.Store)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	router := catalogapi.NewRouter(cfg, store)
	adapter = httpadapter.New(router)
}

func handleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return adapter.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(handleRequest)
}
