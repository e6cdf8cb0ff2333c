package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	conf "github.com/iceymoss/mdrdr/pkg/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var mongoConn = make(map[string]*mongo.Client)
var mongoMutex sync.Mutex

func GetMongoConn(ctx context.Context, cfg conf.MongoConfig) (*mongo.Client, error) {
	mongoMutex.Lock()
	defer mongoMutex.Unlock()
	if client, ok := mongoConn[cfg.URI]; ok {
		return client, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	poolSize := cfg.MaxPoolSize
	if poolSize == 0 {
		poolSize = 120
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetMaxPoolSize(poolSize))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	mongoConn[cfg.URI] = client
	return client, nil
}
