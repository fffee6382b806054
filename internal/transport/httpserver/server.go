// Package httpserver serves the Lambda handler over plain HTTP for local
// development.
package httpserver

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const correlationHeader = "X-Correlation-Id"

// ProxyHandler is the API Gateway proxy contract served by the Lambda.
type ProxyHandler interface {
	Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
}

// New returns an echo server that forwards every request except /metrics
// to h as an API Gateway proxy event.
func New(h ProxyHandler, gatherer prometheus.Gatherer, logger *slog.Logger) *echo.Echo {
	if logger == nil {
		logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator:    uuid.NewString,
		TargetHeader: correlationHeader,
	}))

	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	e.Any("/*", proxy(h, logger))
	return e
}

func proxy(h ProxyHandler, logger *slog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
		}

		event := events.APIGatewayProxyRequest{
			HTTPMethod:            req.Method,
			Path:                  req.URL.Path,
			Headers:               flatten(req.Header),
			MultiValueHeaders:     req.Header,
			QueryStringParameters: flatten(req.URL.Query()),
			Body:                  string(body),
		}
		if event.Headers[correlationHeader] == "" {
			event.Headers[correlationHeader] = c.Response().Header().Get(correlationHeader)
		}

		resp, err := h.Handle(req.Context(), event)
		if err != nil {
			logger.Error("proxy handler failed", "path", req.URL.Path, "err", err)
			return echo.NewHTTPError(http.StatusInternalServerError)
		}

		for k, v := range resp.Headers {
			c.Response().Header().Set(k, v)
		}
		for k, vs := range resp.MultiValueHeaders {
			for _, v := range vs {
				c.Response().Header().Add(k, v)
			}
		}
		contentType := resp.Headers["Content-Type"]
		if contentType == "" {
			contentType = echo.MIMEApplicationJSON
		}
		return c.Blob(resp.StatusCode, contentType, []byte(resp.Body))
	}
}

// flatten keeps the last value of each key, as API Gateway does for the
// single-value maps.
func flatten(values map[string][]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			out[k] = vs[len(vs)-1]
		}
	}
	return out
}
