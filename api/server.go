package api

import (
	"context"
	"fmt"
	"log/slog"

	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"silentbid/adapters/fraud"
	"silentbid/adapters/oidc"
	"silentbid/adapters/payment"
	redisAdapter "silentbid/adapters/redis"
	internalS3 "silentbid/adapters/s3"
	"silentbid/adapters/sse"
	"silentbid/bidding"
	"silentbid/models"
)

type ServerImpl struct {
	oidcProvider *oidc.Provider
	sseManager   sse.IConnectionManager[BidEventView]
	s3Operator   *internalS3.S3Operator
	htmlChecker  *bluemonday.Policy
	redisClient  *redis.Client
	producer     redisAdapter.IProducer[BidEvent]
	consumer     redisAdapter.IConsumer[sse.PublishRequest[BidEventView]]
	bidService   *bidding.Service
	payments     *payment.Operator
	db           *gorm.DB

	config ServerConfig
}

func NewServer(config ServerConfig) (*ServerImpl, error) {
	const op = "NewServer"

	// 初始化OIDC提供者
	oidcProvider, err := oidc.NewProvider(config.OIDC.IssuerURL, config.OIDC.ClientID, config.OIDC.ClientSecret)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to initial OIDC provider, err=%w", op, err)
	}

	// 初始化S3客戶端
	s3Cfg, err := awsCfg.LoadDefaultConfig(
		context.Background(),
		awsCfg.WithBaseEndpoint(config.S3.Endpoint),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(config.S3.AccessKeyID, config.S3.SecretAccessKey, "")),
		awsCfg.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to load AWS config, err=%w", op, err)
	}
	s3Operator, err := internalS3.NewS3Operator(s3.NewFromConfig(s3Cfg), config.S3.Bucket, config.S3.PublicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create S3 operator, err=%w", op, err)
	}

	// 初始化資料庫連線
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s", config.DB.User, config.DB.Password, config.DB.Host, config.DB.Port, config.DB.Database, config.DB.Schema)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: config.DB.Schema + ".",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to connect to database, err=%w", op, err)
	}
	if err := db.AutoMigrate(
		&models.Admin{},
		&models.AdminIdentity{},
		&models.AuctionItem{},
		&models.Bid{},
		&models.Image{},
	); err != nil {
		return nil, fmt.Errorf("[%s] Fail to migrate database, err=%w", op, err)
	}

	// 初始化Redis連線
	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})

	// 初始化出價事件的生產者
	producer, err := redisAdapter.NewProducer[BidEvent](redisClient, config.Redis.StreamKeys.BidStream)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create producer, err=%w", op, err)
	}

	// 初始化SSE管理器
	consumer, err := redisAdapter.NewConsumer(
		redisClient,
		config.Redis.StreamKeys.BidStream,
		redisAdapter.WithConsumerParseFunc(func(m map[string]any) (sse.PublishRequest[BidEventView], error) {
			bidEvent, err := redisAdapter.DefaultParseFromMessage[BidEvent](m)
			if err != nil {
				return sse.PublishRequest[BidEventView]{}, fmt.Errorf("fail to parse message to sse.PublishRequest[BidEventView], err=%w", err)
			}
			return sse.PublishRequest[BidEventView]{
				Channel: bidEvent.ItemID.String(),
				Message: BidEventView{
					Bidder: bidEvent.Bidder,
					Amount: centsToDollars(bidEvent.Amount),
					Time:   bidEvent.CreatedAt,
				},
			}, nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create consumer, err=%w", op, err)
	}
	sseManager, err := sse.NewConnectionManager[BidEventView](
		sse.WithLogger[BidEventView](slog.Default()),
		sse.WithSubscriber(consumer),
	)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create sse connection manager, err=%w", op, err)
	}

	// 初始化詐欺檢查客戶端
	fraudClient, err := fraud.NewClient(
		config.Fraud.Endpoint,
		config.Fraud.APIKey,
		fraud.WithLogger(slog.Default()),
		fraud.WithModel(config.Fraud.Model),
		fraud.WithTimeout(config.Fraud.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create fraud client, err=%w", op, err)
	}

	// 初始化付款服務
	payments, err := payment.NewOperator(config.Stripe.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create payment operator, err=%w", op, err)
	}

	// 初始化出價服務
	bidService := bidding.NewService(
		bidding.NewGormStore(db),
		fraudOracle{client: fraudClient},
		bidding.WithLogger(slog.Default()),
	)

	return &ServerImpl{
		oidcProvider: oidcProvider,
		sseManager:   sseManager,
		s3Operator:   s3Operator,
		htmlChecker:  bluemonday.UGCPolicy(),
		redisClient:  redisClient,
		producer:     producer,
		consumer:     consumer,
		bidService:   bidService,
		payments:     payments,
		db:           db,
		config:       config,
	}, nil
}

func (impl *ServerImpl) Start() {
	// 啟動producer
	impl.producer.Start()
	// 啟動consumer
	impl.consumer.Start()
	// 啟動sse connection manager
	impl.sseManager.Start()
}

func (impl *ServerImpl) Close() {
	// 關閉producer
	impl.producer.Close()
	// 關閉consumer
	impl.consumer.Close()
	// 關閉sse connection manager
	impl.sseManager.Done()
}

func (impl *ServerImpl) RegisterRoutes(router *gin.Engine) {
	router.GET("/items", impl.GetItems)
	router.GET("/items/:itemID", impl.GetItem)
	router.POST("/items/:itemID/bids", impl.PostItemBid)
	router.GET("/items/:itemID/events", impl.GetItemEvents)
	router.GET("/leaderboard", impl.GetLeaderboard)
	router.POST("/payment/setup-intent", impl.PostPaymentSetupIntent)

	auth := router.Group("/auth")
	auth.GET("/sso/login", impl.GetAuthSsoLogin)
	auth.GET("/sso/callback", impl.GetAuthSsoCallback)
	auth.GET("/logout", impl.GetAuthLogout)

	admin := router.Group("/admin")
	admin.POST("/items", impl.PostAdminItem)
	admin.GET("/items", impl.GetAdminItems)
	admin.PATCH("/items/:itemID/active", impl.PatchAdminItemActive)
	admin.POST("/gala", impl.PostAdminGala)
	admin.GET("/export/winners", impl.GetAdminExportWinners)
	admin.POST("/images", impl.PostAdminImage)
}

// fraudOracle 將詐欺檢查客戶端橋接到出價服務需要的介面
type fraudOracle struct {
	client *fraud.Client
}

func (o fraudOracle) Check(ctx context.Context, input bidding.FraudCheckInput) (bidding.FraudVerdict, error) {
	verdict, err := o.client.Check(ctx, fraud.Input{
		BidAmount:       input.BidAmount,
		UserEmail:       input.UserEmail,
		UserName:        input.UserName,
		ItemDescription: input.ItemDescription,
		CurrentBid:      input.CurrentBid,
	})
	if err != nil {
		return bidding.FraudVerdict{}, err
	}
	return bidding.FraudVerdict{
		IsFraudulent: verdict.IsFraudulent,
		Reason:       verdict.Reason,
	}, nil
}
