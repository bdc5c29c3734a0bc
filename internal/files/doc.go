// Package files maps request paths onto a served directory tree.
package files
