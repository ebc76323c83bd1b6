package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"

	"storefront_back_end/internal/config"
)

// Clients holds every external connection. Redis, Elastic and MinIO are
// optional: a nil field means the feature runs in degraded mode.
type Clients struct {
	Firestore    *firestore.Client
	FirebaseAuth *fbauth.Client
	Redis        *redis.Client
	Elastic      *elasticsearch.Client
	MinIO        *minio.Client
}

// Connect opens the connections the configuration asks for.
func Connect(cfg *config.Config) (*Clients, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := &Clients{}

	// 1. Firebase (Firestore + Auth)
	if cfg.FirebaseProjectID != "" {
		if err := c.connectFirebase(ctx, cfg); err != nil {
			c.Close()
			return nil, err
		}
	} else {
		log.Println("⚠️  FIREBASE_PROJECT_ID not set, Firebase disabled")
	}

	// 2. Redis
	if cfg.RedisHost != "" {
		if err := c.connectRedis(ctx, cfg); err != nil {
			c.Close()
			return nil, err
		}
	} else {
		log.Println("⚠️  REDIS_HOST not set, cache, rate limit and live cart disabled")
	}

	// 3. Elasticsearch (search falls back to a scan when unavailable)
	if cfg.ElasticURL != "" {
		c.connectElastic(cfg)
	}

	// 4. MinIO
	if cfg.MinIOEndpoint != "" {
		if err := c.connectMinIO(ctx, cfg); err != nil {
			c.Close()
			return nil, err
		}
	}

	log.Println("✅ External services connected")
	return c, nil
}

func clientOptions(cfg *config.Config) []option.ClientOption {
	var opts []option.ClientOption
	if cfg.FirebaseCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
	}
	return opts
}

func (c *Clients) connectFirebase(ctx context.Context, cfg *config.Config) error {
	opts := clientOptions(cfg)

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return fmt.Errorf("firebase app: %w", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		return fmt.Errorf("firebase auth: %w", err)
	}
	c.FirebaseAuth = authClient

	// context.Background: the client outlives the connect timeout
	fs, err := firestore.NewClient(context.Background(), cfg.FirebaseProjectID, opts...)
	if err != nil {
		return fmt.Errorf("firestore: %w", err)
	}
	c.Firestore = fs

	log.Println("✅ Connected to Firebase project", cfg.FirebaseProjectID)
	return nil
}

func (c *Clients) connectRedis(ctx context.Context, cfg *config.Config) error {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisHost,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis ping: %w", err)
	}
	c.Redis = client
	log.Println("✅ Connected to Redis")
	return nil
}

func (c *Clients) connectElastic(cfg *config.Config) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ElasticURL},
		Username:  cfg.ElasticUser,
		Password:  cfg.ElasticPassword,
	})
	if err != nil {
		log.Printf("⚠️  Elasticsearch client: %v (search fallback only)", err)
		return
	}

	res, err := client.Info()
	if err != nil {
		log.Printf("⚠️  Elasticsearch unreachable: %v (search fallback only)", err)
		return
	}
	defer res.Body.Close()

	c.Elastic = client
	log.Println("✅ Connected to Elasticsearch")
}

func (c *Clients) connectMinIO(ctx context.Context, cfg *config.Config) error {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return fmt.Errorf("minio: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinIOBucket)
	if err != nil {
		return fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("minio make bucket: %w", err)
		}
		log.Println("🪣 Bucket created:", cfg.MinIOBucket)
	} else {
		log.Println("🪣 MinIO bucket present:", cfg.MinIOBucket)
	}

	c.MinIO = client
	log.Println("✅ Connected to MinIO:", cfg.MinIOEndpoint)
	return nil
}

// Close releases the connections that have a Close method.
func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Firestore != nil {
		if err := c.Firestore.Close(); err != nil {
			log.Printf("⚠️  Firestore close: %v", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Printf("⚠️  Redis close: %v", err)
		}
	}
}
