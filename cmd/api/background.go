package main

import (
	"context"
	"time"
)

// pruneStalePushTokensDaily drops push tokens that no device has refreshed
// in 90 days. Expo invalidates them server side long before that; this just
// keeps the table from growing forever.
func (app *application) pruneStalePushTokensDaily() {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		prune := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := app.store.PushTokens.PruneStale(ctx, 90*24*time.Hour); err != nil {
				app.logger.Errorf("Error pruning stale push tokens: %v", err)
			} else {
				app.logger.Infof("Pruned stale push tokens at %s", time.Now().Format(time.RFC1123))
			}
		}

		prune()
		for range ticker.C {
			prune()
		}
	}()
}
