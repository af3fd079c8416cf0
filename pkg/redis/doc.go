// Package redis connects notifykit to Redis through go-redis/v9.
//
// Connect parses REDIS_URL, pings the server and retries until it answers or
// the connect timeout runs out. The client backs the shared tenant cache
// (see tenant.NewRedisCache).
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// DeleteByPrefix purges cached entries under a key prefix with SCAN, and
// Healthcheck returns a ping closure for readiness checks.
package redis
