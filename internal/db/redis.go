package db

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// ConnectRedis opens the presence cache client. Redis is optional: an
// empty URL or a failed ping returns nil and presence falls back to the
// profile table alone.
func ConnectRedis(url string) *redis.Client {
	if url == "" {
		log.Println("redis disabled: empty url, presence uses database only")
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("redis disabled: parse url: %v", err)
		return nil
	}

	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis disabled: ping failed: %v", err)
		_ = client.Close()
		return nil
	}

	log.Println("redis connected")
	return client
}
