package chaos

import (
	"context"
	"math/rand"
	"time"

	"shopfront/auth"
)

// TokenSource lists the tokens currently held by clients.
type TokenSource func(ctx context.Context) []string

// RevokeRandomSession periodically revokes one held token on the server, as
// if the user had signed out elsewhere.
func RevokeRandomSession(ctx context.Context, svc *auth.Service, tokens TokenSource, seed int64, stop <-chan struct{}) {
	rng := rand.New(rand.NewSource(seed))
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			held := tokens(ctx)
			if len(held) == 0 || rng.Intn(3) != 0 {
				continue
			}
			_ = svc.Revoke(held[rng.Intn(len(held))])
		}
	}
}
