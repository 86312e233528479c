// Package doctypes lists the document types compiled into mergedoc.
package doctypes

import (
	"github.com/ginjaninja78/mergedoc-generator/internal/doctypes/invoice"
	"github.com/ginjaninja78/mergedoc-generator/internal/doctypes/salesorder"
	"github.com/ginjaninja78/mergedoc-generator/internal/registry"
)

// Builtin returns the built-in document types in registration order.
func Builtin() []registry.Descriptor {
	return []registry.Descriptor{
		invoice.Descriptor(),
		salesorder.Descriptor(),
	}
}
