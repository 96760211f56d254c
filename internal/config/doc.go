// Package config loads the on-disk configuration for a single LFFS device:
// organisation, user and device identity, local blob store backend
// selection, and the base directory layout derived from those.
//
// A device is expected to store its cache, staging area, and propagation log
// within a dedicated base directory. When loading the configuration, the
// first and only argument is the path to the base directory rather than the
// path to the configuration file. The designated directory is expected to
// contain a flat file called 'config', one "key value" pair per line,
// corresponding to the C struct of this package. Many paths are derived from
// the base directory and exposed as methods of C, e.g., cache directory
// path, staging area, propagation log path.
package config
