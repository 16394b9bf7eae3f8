package core

import (
	"github.com/wippyai/nativebind/binding"
	"github.com/wippyai/nativebind/native"
	"github.com/wippyai/nativebind/resource"
)

// Namespace is the qualifier of core operations in error tags.
const Namespace = "Core"

// Module holds the classes core registers. Other modules take Mat
// arguments through Mats.
type Module struct {
	Mats *resource.Class[*native.Mat]
}

// Register adds the core operations and the Mat class to reg.
func Register(reg *binding.Registry) (*Module, error) {
	ns := reg.Namespace(Namespace)
	m := &Module{Mats: resource.NewClass[*native.Mat](reg.Env().Table, "Mat")}

	steps := []func() error{
		func() error {
			return ns.Func("getBuildInformation", getBuildInformation,
				binding.WithDoc("native build configuration summary"))
		},
		func() error {
			return ns.Func("getNumThreads", getNumThreads, binding.WithDoc("effective worker thread count"))
		},
		func() error {
			return ns.Func("setNumThreads", setNumThreads,
				binding.WithDoc("set worker thread count; negative restores the default"))
		},
		func() error {
			return ns.Func("getThreadNum", getThreadNum,
				binding.WithDoc("index of the calling worker thread, 0 on the host"))
		},
		func() error {
			return ns.Func("partition", m.partition,
				binding.WithDoc("split elements into equivalence classes of a predicate"))
		},
		func() error {
			return ns.Binding("kmeans", func() binding.Worker { return &kmeansWorker{} },
				binding.WithDoc("cluster points into k groups"))
		},
		func() error {
			return ns.Binding("cartToPolar", func() binding.Worker { return &cartToPolarWorker{mats: m.Mats} },
				binding.WithDoc("magnitude and angle of 2D vectors"))
		},
		func() error {
			return ns.Binding("polarToCart", func() binding.Worker { return &polarToCartWorker{mats: m.Mats} },
				binding.WithDoc("x and y of 2D vectors from magnitude and angle"))
		},
		func() error { return m.registerMat(ns) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return m, nil
}
