// Package textutil provides filename sanitization and the clip-name
// normalization used in exported edit decision lists.
package textutil
