// Package types provides core types shared across the chatmem library.
// This package has ZERO dependencies on other chatmem packages to avoid
// circular imports.
package types
