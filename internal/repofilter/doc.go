// Package repofilter selects the repositories a run will search by applying
// mutually exclusive include or exclude name sets to an enumerated directory
// listing.
package repofilter
