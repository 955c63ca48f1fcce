// Package textutil cleans user-supplied text before it is stored or echoed.
package textutil
