package server

import (
	"context"
	"fmt"

	"athletehub-api/internal/adapters/storage"
	"athletehub-api/internal/config"
	"athletehub-api/internal/database"
	"athletehub-api/internal/handlers"
	"athletehub-api/internal/identity"
	"athletehub-api/internal/payments"
	"athletehub-api/internal/ratelimit"
	"athletehub-api/internal/repositories"
	"athletehub-api/internal/search"
	"athletehub-api/internal/store/dynamo"
	"athletehub-api/internal/store/sqlstore"
	"athletehub-api/pkg/lambda"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Container holds all gateway dependencies
type Container struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Router  *lambda.Router
	Uploads storage.UploadURLIssuer

	db    *database.ConnectionManager
	redis *redis.Client
}

// Option customizes container construction
type Option func(*containerOptions)

type containerOptions struct {
	awsConfig *aws.Config
	dynamoAPI dynamo.API
	cognito   identity.CognitoAPI
}

// WithAWSConfig skips loading the default AWS configuration chain
func WithAWSConfig(cfg aws.Config) Option {
	return func(o *containerOptions) { o.awsConfig = &cfg }
}

// WithDynamoAPI replaces the DynamoDB client
func WithDynamoAPI(api dynamo.API) Option {
	return func(o *containerOptions) { o.dynamoAPI = api }
}

// WithCognitoAPI replaces the Cognito client
func WithCognitoAPI(api identity.CognitoAPI) Option {
	return func(o *containerOptions) { o.cognito = api }
}

// NewContainer connects every backing service and registers the route table
func NewContainer(ctx context.Context, cfg *config.Config, logger *logrus.Logger, opts ...Option) (*Container, error) {
	if logger == nil {
		logger = NewLogger(cfg)
	}
	var o containerOptions
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container{Config: cfg, Logger: logger}

	c.db = database.NewConnectionManager(cfg.Database, logger)
	if err := c.db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := c.db.GetMigrationManager().RunMigrations(); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	relational, err := sqlstore.New(c.db.GetDB(), repositories.RelationalSchema(),
		sqlstore.WithLogger(logger), sqlstore.WithTimeout(cfg.StoreTimeout))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create relational store: %w", err)
	}

	awsCfg, err := c.loadAWSConfig(ctx, o)
	if err != nil {
		c.Close()
		return nil, err
	}

	dynamoAPI := o.dynamoAPI
	if dynamoAPI == nil {
		dynamoAPI = dynamodb.NewFromConfig(awsCfg, func(opts *dynamodb.Options) {
			if cfg.KeyValue.Endpoint != "" {
				opts.BaseEndpoint = aws.String(cfg.KeyValue.Endpoint)
			}
		})
	}
	keyValue := dynamo.New(dynamoAPI, repositories.KeyValueSchema(cfg.KeyValue),
		dynamo.WithLogger(logger), dynamo.WithTimeout(cfg.StoreTimeout))

	searcher, err := search.New(cfg.Search, relational, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create searcher: %w", err)
	}

	c.Uploads, err = storage.NewFactory(awsCfg, logger).Create(cfg.Storage)
	if err != nil {
		c.Close()
		return nil, err
	}

	var identityClient *identity.Client
	if o.cognito != nil {
		identityClient = identity.NewClient(o.cognito, cfg.Cognito, logger)
	} else {
		identityClient = identity.NewClientFromConfig(awsCfg, cfg.Cognito, logger)
	}

	var routerOpts []lambda.RouterOption
	if cfg.RateLimit.Enabled {
		limiter, client, err := ratelimit.NewFromURL(cfg.RateLimit.RedisURL, cfg.RateLimit.PerMinute, logger)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		c.redis = client
		routerOpts = append(routerOpts, lambda.WithRateLimiter(limiter))
	}

	events := repositories.NewEventRepository(keyValue, cfg.KeyValue.EventsHostIndex)
	c.Router = lambda.NewRouter(logger, routerOpts...)
	handlers.RegisterRoutes(c.Router, handlers.Deps{
		Follows:       repositories.NewFollowRepository(relational),
		Challenges:    repositories.NewChallengeRepository(relational),
		Submissions:   repositories.NewSubmissionRepository(relational),
		Events:        events,
		Registrations: repositories.NewRegistrationRepository(keyValue, cfg.KeyValue.RegistrationsUserIndex),
		Search:        searcher,
		Uploads:       c.Uploads,
		Billing:       payments.NewClient(cfg.Stripe, "", logger),
		Webhooks:      payments.NewWebhookProcessor(cfg.Stripe.WebhookSecret, events, logger),
		Identity:      identityClient,
		Health:        map[string]handlers.HealthChecker{"database": c.db},
		Logger:        logger,
	})

	fields := logrus.Fields{
		"environment": cfg.Environment,
		"mode":        config.GetDeploymentMode(),
		"routes":      len(c.Router.Routes()),
		"search":      cfg.Search.Backend,
		"storage":     cfg.Storage.Type,
		"rate_limit":  cfg.RateLimit.Enabled,
	}
	if sc := config.GetServerlessConfig(); sc.IsLambda {
		fields["function"] = sc.FunctionName
		fields["region"] = sc.Region
		fields["stage"] = sc.Stage
	}
	logger.WithFields(fields).Info("Container initialized")
	return c, nil
}

func (c *Container) loadAWSConfig(ctx context.Context, o containerOptions) (aws.Config, error) {
	if o.awsConfig != nil {
		return *o.awsConfig, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(c.Config.AWSRegion))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

// Database returns the relational connection manager
func (c *Container) Database() *database.ConnectionManager {
	return c.db
}

// Close cleans up all resources
func (c *Container) Close() error {
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			return fmt.Errorf("failed to close redis: %w", err)
		}
		c.redis = nil
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	return nil
}
