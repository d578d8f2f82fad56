// Package memory keeps thumbnail rendering inside the container's memory
// budget.
//
// Decoding a full-size photo can take tens of megabytes, so a warmup over a
// large directory with several workers is the main source of heap growth.
// The package does two things:
//
//   - [ConfigureFromEnv] sets GOMEMLIMIT from the container limit passed in
//     MEMORY_LIMIT (bytes, usually via the Kubernetes Downward API) scaled by
//     MEMORY_RATIO (default 0.85). An explicit GOMEMLIMIT always wins.
//   - [Monitor] samples heap usage against that limit and pauses warmup
//     while usage is above the critical water mark, resuming once it falls
//     below the high water mark. Its Wait method satisfies
//     thumbcache.Throttle.
//
// Without a memory limit the monitor is disabled and Wait never blocks.
//
// # Kubernetes Configuration
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//	- name: MEMORY_RATIO
//	  value: "0.75"  # leave more room for libvips
package memory
