// Package app assembles the gateway from its configuration. Both the Lambda
// entrypoint and the dev server build through here.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/prometheus/client_golang/prometheus"

	"site-gateway/handler"
	"site-gateway/internal/config"
	"site-gateway/internal/integrations/openai"
	"site-gateway/internal/integrations/paramstore"
	"site-gateway/internal/metrics"
	"site-gateway/internal/repository"
	"site-gateway/internal/router"
	"site-gateway/internal/usecase"
	"site-gateway/internal/validation"
)

type App struct {
	Handler  *handler.Handler
	Registry *prometheus.Registry
}

// AWSLoader resolves the SDK configuration. It is only called when a
// component needs AWS.
type AWSLoader func(ctx context.Context) (aws.Config, error)

type Option func(*builder)

type builder struct {
	loadAWS AWSLoader
	logger  *slog.Logger
}

func WithAWSLoader(l AWSLoader) Option {
	return func(b *builder) {
		b.loadAWS = l
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(b *builder) {
		if l != nil {
			b.logger = l
		}
	}
}

func defaultAWSLoader(ctx context.Context) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx)
}

func Build(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	b := &builder{loadAWS: defaultAWSLoader, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	logger := b.logger

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("app: metrics: %w", err)
	}

	routes, err := router.LoadFile(cfg.RoutesFile)
	if err != nil {
		return nil, fmt.Errorf("app: routing table: %w", err)
	}
	v := validation.New()

	var awsCfg *aws.Config
	needAWS := func() (aws.Config, error) {
		if awsCfg != nil {
			return *awsCfg, nil
		}
		loaded, err := b.loadAWS(ctx)
		if err != nil {
			return aws.Config{}, fmt.Errorf("app: load AWS config: %w", err)
		}
		awsCfg = &loaded
		return loaded, nil
	}

	subOpts := []usecase.SubmissionOption{
		usecase.WithSubmitDelay(usecase.Delay{Base: cfg.SubmitDelay, Jitter: cfg.SubmitJitter}),
		usecase.WithSubmissionMetrics(m),
		usecase.WithSubmissionLogger(logger),
	}
	if cfg.SubmissionsTable != "" {
		ac, err := needAWS()
		if err != nil {
			return nil, err
		}
		rec, err := repository.New(awsdynamodb.NewFromConfig(ac), cfg.SubmissionsTable)
		if err != nil {
			return nil, fmt.Errorf("app: submission log: %w", err)
		}
		subOpts = append(subOpts, usecase.WithRecorder(rec))
	} else {
		logger.Info("submission log disabled, SUBMISSIONS_TABLE not set")
	}
	submissions, err := usecase.NewSubmissionService(v, subOpts...)
	if err != nil {
		return nil, fmt.Errorf("app: submission service: %w", err)
	}

	chat, err := usecase.NewChatService(routes, cfg.MaxMessageLength,
		usecase.WithThinkingDelay(usecase.Delay{Base: cfg.ChatDelay}),
		usecase.WithChatMetrics(m),
		usecase.WithChatLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("app: chat service: %w", err)
	}

	var inquirer handler.Inquirer
	if cfg.InquiryEnabled() {
		ac, err := needAWS()
		if err != nil {
			return nil, err
		}
		params, err := paramstore.New(awsssm.NewFromConfig(ac))
		if err != nil {
			return nil, fmt.Errorf("app: paramstore: %w", err)
		}
		llm, err := openai.NewClient(params, cfg.ParamPrefix)
		if err != nil {
			return nil, fmt.Errorf("app: openai client: %w", err)
		}
		inq, err := usecase.NewInquiryService(params, llm, v, cfg.ParamPrefix, cfg.MaxQueryLength)
		if err != nil {
			return nil, fmt.Errorf("app: inquiry service: %w", err)
		}
		inquirer = inq
	} else {
		logger.Info("inquiry assistant disabled, PARAM_PREFIX not set")
	}

	h, err := handler.NewHandler(submissions, chat, inquirer, handler.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("app: handler: %w", err)
	}
	return &App{Handler: h, Registry: reg}, nil
}
