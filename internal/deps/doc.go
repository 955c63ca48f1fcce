// Package deps reports whether the external engines captioner shells out to
// are installed and usable.
package deps
