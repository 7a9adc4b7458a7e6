// Package redis connects to the Redis server that backs shared credential
// storage.
//
// Config is populated from LIBRARY_REDIS_* environment variables through
// pkg/config. Connect parses the URL and pings the server with retries until it
// answers or the connect timeout expires:
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//	client, err := redis.Connect(ctx, cfg)
//
// Ping reports whether an existing client is still reachable.
package redis
