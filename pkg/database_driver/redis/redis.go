package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Client struct
type Client struct {
	*goredis.Client
}

// ConnectToRedis func - dials redis and pings it before handing the client out
func ConnectToRedis(addr, password string, db int) (*Client, error) {
	if addr == "" {
		return nil, errors.New("cannot estabished the connection")
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logrus.Error(err)
		_ = client.Close()
		return nil, err
	}

	logrus.Info("Connected to redis: ", addr)
	return &Client{Client: client}, nil
}

// DisconnectRedis func
func DisconnectRedis(client *Client) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		logrus.Error(err)
	}
	logrus.Println("Connected with redis has closed")
}
