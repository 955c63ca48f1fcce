// Package staging owns the on-disk lifecycle of request files.
//
// Uploads and render outputs are written under a staging directory with
// collision-free names. A Scope records every path one request created and
// removes them when the request ends, whatever the outcome. The Sweeper
// reclaims files a crashed process left behind.
package staging
