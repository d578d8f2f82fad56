/*
Package workers sizes worker pools in containerized environments.

runtime.NumCPU reports the host's CPUs, while GOMAXPROCS follows the
container CPU limit (Go 1.19+ on cgroup v2, and automatically from Go 1.25).
The helpers here scale GOMAXPROCS by a workload multiplier and cap the
result:

	// Thumbnail warmup reads a file, hashes it and resizes it.
	n := workers.ForMixed(8)

An operator override, typically read from an environment variable such as
WARMUP_WORKERS, is applied with [Override]:

	n := workers.Override(os.Getenv("WARMUP_WORKERS"), workers.ForMixed(8), 32)

All functions are safe for concurrent use.
*/
package workers
