// Package tags holds the statically declared structure definitions.
//
// Every definition is a plain tagdef.Structure value. NewRegistry registers all of
// them; Default is a shared registry built at package initialisation.
package tags

import "github.com/EchoTools/tagtool/pkg/tagdef"

// Definitions returns every structure declared by this package.
func Definitions() []*tagdef.Structure {
	return []*tagdef.Structure{
		PitchRange,
		PitchRangeParameter,
		Permutation,
		Promotion,
		PromotionRule,
		RuntimeTimer,
		ShaderParameter,
		ShaderData,
		XboxShader,
		ShaderReference,
		ShaderBlock,
		TagMapping,
		TagResourceReference,
		HsType,
		CacheFileHeader,
		TagMemoryHeader,
		StringIDHeader,
	}
}

// NewRegistry returns a registry holding every definition in this package.
func NewRegistry(opts ...tagdef.Option) *tagdef.Registry {
	r := tagdef.NewRegistry(opts...)
	r.MustRegister(Definitions()...)
	return r
}

// Default is the shared registry of all definitions.
var Default = NewRegistry()
