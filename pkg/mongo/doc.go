// Package mongo connects to MongoDB with the official v2 driver.
//
// notifykit keeps tenant templates in the "templates" collection of
// Config.Database (see render.NewMongoSource). New retries the initial
// connect and ping, stopping early when the context is cancelled:
//
//	db, err := mongo.NewWithDatabase(ctx, cfg, "")
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
// Healthcheck wraps a ping for readiness checks. Errors are sentinels joined
// with the driver error, so errors.Is works on them.
package mongo
