package config

import (
	"context"
	"crypto/tls"
	"errors"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var MongoClient *mongo.Client

// InitMongo connects to MongoDB and verifies the connection with a ping,
// retrying with exponential backoff for up to 30 seconds.
func InitMongo(uri string) error {
	if uri == "" {
		return errors.New("MONGO_URI environment variable is not set")
	}

	clientOpts := options.Client().ApplyURI(uri).
		SetServerSelectionTimeout(20 * time.Second).
		SetConnectTimeout(15 * time.Second).
		SetMaxPoolSize(10).
		SetMinPoolSize(1)

	// Atlas + Go 1.24 TLS negotiation workaround
	if os.Getenv("MONGO_FORCE_TLS_CONFIG") == "true" {
		clientOpts = clientOpts.SetTLSConfig(&tls.Config{
			InsecureSkipVerify: os.Getenv("MONGO_INSECURE_TLS") == "true",
			MinVersion:         tls.VersionTLS12,
			MaxVersion:         tls.VersionTLS12,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return err
	}

	ping := func() error { return client.Ping(ctx, nil) }
	if err := backoff.Retry(ping, backoff.WithContext(connectBackOff(), ctx)); err != nil {
		_ = client.Disconnect(context.Background())
		return err
	}

	MongoClient = client
	return nil
}

func connectBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 30 * time.Second
	return b
}
