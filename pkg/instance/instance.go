package instance

import "github.com/TetyanaPavlyuk/library-api-service/pkg/env"

const defaultID = "library-worker-0"

// GetID returns LIBRARY_WORKER_ID, WORKER_ID or HOSTNAME, in that order.
func GetID() string {
	return env.Get("WORKER_ID", env.Get("HOSTNAME", defaultID))
}
