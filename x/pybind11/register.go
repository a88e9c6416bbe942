package pybind11

import (
	"github.com/CodMac/cppbind/core"
)

func init() {
	core.RegisterClassifier(core.RuntimePybind11, NewClassifier)
	core.RegisterNameResolver(core.RuntimePybind11, NewPybind11Resolver())
	core.RegisterRenderer(core.RuntimePybind11, NewRenderer)
}
