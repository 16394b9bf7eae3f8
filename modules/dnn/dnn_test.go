package dnn

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wippyai/nativebind/binding"
	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
	"github.com/wippyai/nativebind/pool"
	"github.com/wippyai/nativebind/resource"
)

// layersWasm exports add(f64, f64) f64, mul(f64, f64) f64 and trap().
var layersWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x0a, 0x02, 0x60, 0x02, 0x7c, 0x7c, 0x01, 0x7c, 0x60, 0x00, 0x00,
	0x03, 0x04, 0x03, 0x00, 0x01, 0x00,
	0x07, 0x14, 0x03, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00, 0x04, 0x74, 0x72, 0x61, 0x70, 0x00, 0x01,
	0x03, 0x6d, 0x75, 0x6c, 0x00, 0x02,
	0x0a, 0x15, 0x03, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0xa0, 0x0b, 0x03, 0x00, 0x00, 0x0b,
	0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0xa2, 0x0b,
}

// typedWasm exports id(i32) i32 and narrow(f32) f32.
var typedWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x0b, 0x02, 0x60, 0x01, 0x7f, 0x01, 0x7f, 0x60, 0x01, 0x7d, 0x01, 0x7d,
	0x03, 0x03, 0x02, 0x00, 0x01,
	0x07, 0x0f, 0x02, 0x02, 0x69, 0x64, 0x00, 0x00, 0x06, 0x6e, 0x61, 0x72, 0x72, 0x6f, 0x77, 0x00, 0x01,
	0x0a, 0x0b, 0x02, 0x04, 0x00, 0x20, 0x00, 0x0b, 0x04, 0x00, 0x20, 0x00, 0x0b,
}

var ctx = context.Background()

// callback is a node-style host callback that records its invocations.
type callback struct {
	calls int
	err   error
	value host.Value
}

func (c *callback) fn() host.Function {
	return func(args ...host.Value) (host.Value, error) {
		c.calls++
		if e, ok := args[0].(error); ok {
			c.err = e
		}
		c.value = args[1]
		return host.Undefined, nil
	}
}

var _ = Describe("dnn bindings", func() {
	var (
		reg   *binding.Registry
		table *resource.Table
		p     *pool.Pool
	)

	BeforeEach(func() {
		p = pool.New(2)
		table = resource.NewTable()
		reg = binding.NewRegistry(binding.NewEnv(host.NewLoop(), p, table))
		Expect(Register(reg)).To(Succeed())
	})

	AfterEach(func() {
		Expect(p.Close()).To(Succeed())
		Expect(table.Close()).To(Succeed())
	})

	drain := func() {
		c, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		Expect(reg.Env().Loop.RunUntilIdle(c)).To(Succeed())
	}

	load := func() host.Value {
		net, err := reg.Call(ctx, "readNetFromWasm", layersWasm)
		Expect(err).To(BeNil())
		return net
	}

	When("loading a network", func() {
		It("wraps the module as a Net", func() {
			net := load()
			Expect(net.(host.Wrapped).ClassName()).To(Equal("Net"))

			names, err := reg.CallMethod(ctx, net, "getLayerNames")
			Expect(err).To(BeNil())
			Expect(names).To(Equal(host.Array{"add", "mul", "trap"}))
		})

		It("reads the module from a file path", func() {
			path := filepath.Join(GinkgoT().TempDir(), "layers.wasm")
			Expect(os.WriteFile(path, layersWasm, 0o644)).To(Succeed())

			net, err := reg.Call(ctx, "readNetFromWasm", path, host.Record{"memoryLimitPages": 16.0})
			Expect(err).To(BeNil())
			Expect(net.(host.Wrapped).Alive()).To(BeTrue())
		})

		It("reports a missing file as a native error", func() {
			_, err := reg.Call(ctx, "readNetFromWasm", filepath.Join(GinkgoT().TempDir(), "missing.wasm"))
			Expect(errors.KindOf(err)).To(Equal(errors.KindNative))
			Expect(err.Error()).To(ContainSubstring("Dnn::ReadNetFromWasm"))
		})

		It("rejects unknown options before loading", func() {
			_, err := reg.Call(ctx, "readNetFromWasm", layersWasm, host.Record{"pages": 1.0})
			Expect(errors.KindOf(err)).To(Equal(errors.KindArgument))
		})

		It("rejects garbage bytes", func() {
			_, err := reg.Call(ctx, "readNetFromWasm", []byte("not wasm"))
			Expect(errors.KindOf(err)).To(Equal(errors.KindNative))
		})

		It("delivers async loads through the callback", func() {
			cb := &callback{}
			_, err := reg.Call(ctx, "readNetFromWasmAsync", layersWasm, cb.fn())
			Expect(err).To(BeNil())
			drain()

			Expect(cb.calls).To(Equal(1))
			Expect(cb.err).To(BeNil())
			Expect(cb.value.(host.Wrapped).ClassName()).To(Equal("Net"))
		})
	})

	When("running layers", func() {
		It("computes a layer synchronously and asynchronously", func() {
			net := load()

			out, err := reg.CallMethod(ctx, net, "forward", "mul", host.Array{3.0, 4.0})
			Expect(err).To(BeNil())
			Expect(out).To(Equal(host.Array{12.0}))

			cb := &callback{}
			_, err = reg.CallMethod(ctx, net, "forwardAsync", "mul", host.Array{3.0, 4.0}, cb.fn())
			Expect(err).To(BeNil())
			drain()
			Expect(cb.calls).To(Equal(1))
			Expect(cb.value).To(Equal(out))
		})

		It("uses the input set by setInput", func() {
			net := load()
			_, err := reg.CallMethod(ctx, net, "setInput", host.Array{1.5, 2.0})
			Expect(err).To(BeNil())

			out, err := reg.CallMethod(ctx, net, "forward", "add")
			Expect(err).To(BeNil())
			Expect(out).To(Equal(host.Array{3.5}))
		})

		It("validates the layer and its width before running", func() {
			net := load()

			_, err := reg.CallMethod(ctx, net, "forward", "softmax", host.Array{1.0})
			Expect(errors.KindOf(err)).To(Equal(errors.KindPrecondition))

			_, err = reg.CallMethod(ctx, net, "forward", "add", host.Array{1.0})
			Expect(errors.KindOf(err)).To(Equal(errors.KindPrecondition))
		})

		It("turns a trap into a native error on the callback", func() {
			net := load()
			cb := &callback{}
			_, err := reg.CallMethod(ctx, net, "forwardAsync", "trap", host.Array{}, cb.fn())
			Expect(err).To(BeNil())
			drain()

			Expect(cb.calls).To(Equal(1))
			Expect(errors.KindOf(cb.err)).To(Equal(errors.KindNative))
			Expect(cb.value).To(Equal(host.Undefined))
		})
	})

	When("layers take integer or single precision inputs", func() {
		var net host.Value

		BeforeEach(func() {
			var err error
			net, err = reg.Call(ctx, "readNetFromWasm", typedWasm)
			Expect(err).To(BeNil())
		})

		It("passes values the parameter type can hold", func() {
			out, err := reg.CallMethod(ctx, net, "forward", "id", host.Array{7.0})
			Expect(err).To(BeNil())
			Expect(out).To(Equal(host.Array{7.0}))

			out, err = reg.CallMethod(ctx, net, "forward", "narrow", host.Array{0.5})
			Expect(err).To(BeNil())
			Expect(out).To(Equal(host.Array{0.5}))
		})

		It("rejects fractional i32 inputs with the element index", func() {
			_, err := reg.CallMethod(ctx, net, "forward", "id", host.Array{1.5})
			Expect(errors.KindOf(err)).To(Equal(errors.KindArgument))

			var e *errors.Error
			Expect(errors.As(err, &e)).To(BeTrue())
			Expect(e.Param).To(Equal("arg 1"))
			Expect(e.Path).To(Equal([]string{"[0]"}))
			Expect(e.Op).To(Equal("Net::Forward"))
		})

		It("rejects values outside the parameter range", func() {
			_, err := reg.CallMethod(ctx, net, "forward", "id", host.Array{3e9})
			Expect(errors.KindOf(err)).To(Equal(errors.KindArgument))

			_, err = reg.CallMethod(ctx, net, "forward", "narrow", host.Array{1e39})
			Expect(errors.KindOf(err)).To(Equal(errors.KindArgument))
		})

		It("reports a rejected async input through the callback", func() {
			cb := &callback{}
			_, err := reg.CallMethod(ctx, net, "forwardAsync", "id", host.Array{1.5}, cb.fn())
			Expect(err).To(BeNil())
			drain()

			Expect(cb.calls).To(Equal(1))
			Expect(errors.KindOf(cb.err)).To(Equal(errors.KindArgument))
			Expect(cb.value).To(Equal(host.Undefined))
		})
	})

	When("the net is released", func() {
		It("fails every later call with an invalid handle error", func() {
			net := load()
			_, err := reg.CallMethod(ctx, net, "release")
			Expect(err).To(BeNil())

			_, err = reg.CallMethod(ctx, net, "getLayerNames")
			Expect(errors.KindOf(err)).To(Equal(errors.KindInvalidHandle))
			Expect(table.Len()).To(Equal(0))
		})
	})
})
