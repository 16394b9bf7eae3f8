package convert

import (
	"math"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
	"github.com/wippyai/nativebind/native"
)

func record(name string, v host.Value, forbidden ...string) (host.Record, error) {
	r, ok := v.(host.Record)
	if !ok {
		return nil, mismatch(name, v)
	}
	for _, key := range forbidden {
		if _, has := r[key]; has {
			return nil, errors.New(errors.PhaseValidate, errors.KindArgument).
				NativeType(name).
				HostType("object").
				Detail("unexpected field %q", key).
				Build()
		}
	}
	return r, nil
}

func numField(r host.Record, key string) (float64, error) {
	v, ok := r[key]
	if !ok || host.IsUndefined(v) {
		return 0, errors.New(errors.PhaseValidate, errors.KindArgument).
			Path(key).
			NativeType("number").
			Detail("missing field").
			Build()
	}
	f, ok := host.AsNumber(v)
	if !ok {
		return 0, errors.New(errors.PhaseValidate, errors.KindArgument).
			Path(key).
			NativeType("number").
			HostType(host.TypeName(v)).
			Build()
	}
	return f, nil
}

func intField(r host.Record, key string) (int, error) {
	f, err := numField(r, key)
	if err != nil {
		return 0, err
	}
	if !host.IsInteger(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, errors.New(errors.PhaseValidate, errors.KindArgument).
			Path(key).
			NativeType("int").
			HostType("number").
			Detail("%v is not an int", f).
			Build()
	}
	return int(f), nil
}

// fields reads several numeric fields, stopping at the first failure.
func fields(r host.Record, keys ...string) ([]float64, error) {
	out := make([]float64, len(keys))
	for i, k := range keys {
		f, err := numField(r, k)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// Point2 converts {x, y} records.
var Point2 Converter[native.Point2] = Func[native.Point2]{
	Name: "Point2",
	From: func(v host.Value) (native.Point2, error) {
		r, err := record("Point2", v, "z")
		if err != nil {
			return native.Point2{}, err
		}
		f, err := fields(r, "x", "y")
		if err != nil {
			return native.Point2{}, retypeField(err, "Point2")
		}
		return native.Point2{X: f[0], Y: f[1]}, nil
	},
	To: func(p native.Point2) host.Value {
		return host.Record{"x": p.X, "y": p.Y}
	},
}

// Point3 converts {x, y, z} records.
var Point3 Converter[native.Point3] = Func[native.Point3]{
	Name: "Point3",
	From: func(v host.Value) (native.Point3, error) {
		r, err := record("Point3", v)
		if err != nil {
			return native.Point3{}, err
		}
		f, err := fields(r, "x", "y", "z")
		if err != nil {
			return native.Point3{}, retypeField(err, "Point3")
		}
		return native.Point3{X: f[0], Y: f[1], Z: f[2]}, nil
	},
	To: func(p native.Point3) host.Value {
		return host.Record{"x": p.X, "y": p.Y, "z": p.Z}
	},
}

func vecFrom(name string, n int, v host.Value) ([]float64, error) {
	items, ok := v.(host.Array)
	if !ok {
		return nil, mismatch(name, v)
	}
	if len(items) != n {
		return nil, errors.New(errors.PhaseValidate, errors.KindArgument).
			NativeType(name).
			HostType("array").
			Detail("expected %d elements, got %d", n, len(items)).
			Build()
	}
	out := make([]float64, n)
	for i, item := range items {
		f, ok := host.AsNumber(item)
		if !ok {
			return nil, errors.ElementMismatch("", i, "number", host.TypeName(item))
		}
		out[i] = f
	}
	return out, nil
}

func vecTo(v []float64) host.Value {
	out := make(host.Array, len(v))
	for i, f := range v {
		out[i] = f
	}
	return out
}

// Vec2 converts two element number arrays.
var Vec2 Converter[native.Vec2] = Func[native.Vec2]{
	Name: "Vec2",
	From: func(v host.Value) (native.Vec2, error) {
		var out native.Vec2
		f, err := vecFrom("Vec2", 2, v)
		copy(out[:], f)
		return out, err
	},
	To: func(v native.Vec2) host.Value { return vecTo(v[:]) },
}

// Vec3 converts three element number arrays.
var Vec3 Converter[native.Vec3] = Func[native.Vec3]{
	Name: "Vec3",
	From: func(v host.Value) (native.Vec3, error) {
		var out native.Vec3
		f, err := vecFrom("Vec3", 3, v)
		copy(out[:], f)
		return out, err
	},
	To: func(v native.Vec3) host.Value { return vecTo(v[:]) },
}

// Vec4 converts four element number arrays.
var Vec4 Converter[native.Vec4] = Func[native.Vec4]{
	Name: "Vec4",
	From: func(v host.Value) (native.Vec4, error) {
		var out native.Vec4
		f, err := vecFrom("Vec4", 4, v)
		copy(out[:], f)
		return out, err
	},
	To: func(v native.Vec4) host.Value { return vecTo(v[:]) },
}

// Vec6 converts six element number arrays.
var Vec6 Converter[native.Vec6] = Func[native.Vec6]{
	Name: "Vec6",
	From: func(v host.Value) (native.Vec6, error) {
		var out native.Vec6
		f, err := vecFrom("Vec6", 6, v)
		copy(out[:], f)
		return out, err
	},
	To: func(v native.Vec6) host.Value { return vecTo(v[:]) },
}

// Size converts {width, height} records.
var Size Converter[native.Size] = Func[native.Size]{
	Name: "Size",
	From: func(v host.Value) (native.Size, error) {
		r, err := record("Size", v)
		if err != nil {
			return native.Size{}, err
		}
		f, err := fields(r, "width", "height")
		if err != nil {
			return native.Size{}, retypeField(err, "Size")
		}
		return native.Size{Width: f[0], Height: f[1]}, nil
	},
	To: func(s native.Size) host.Value {
		return host.Record{"width": s.Width, "height": s.Height}
	},
}

// Rect converts {x, y, width, height} records.
var Rect Converter[native.Rect] = Func[native.Rect]{
	Name: "Rect",
	From: func(v host.Value) (native.Rect, error) {
		r, err := record("Rect", v)
		if err != nil {
			return native.Rect{}, err
		}
		f, err := fields(r, "x", "y", "width", "height")
		if err != nil {
			return native.Rect{}, retypeField(err, "Rect")
		}
		return native.Rect{X: f[0], Y: f[1], Width: f[2], Height: f[3]}, nil
	},
	To: func(r native.Rect) host.Value {
		return host.Record{"x": r.X, "y": r.Y, "width": r.Width, "height": r.Height}
	},
}

// TermCriteria converts {type, maxCount, epsilon} records.
var TermCriteria Converter[native.TermCriteria] = Func[native.TermCriteria]{
	Name: "TermCriteria",
	From: func(v host.Value) (native.TermCriteria, error) {
		r, err := record("TermCriteria", v)
		if err != nil {
			return native.TermCriteria{}, err
		}
		typ, err := intField(r, "type")
		if err != nil {
			return native.TermCriteria{}, retypeField(err, "TermCriteria")
		}
		maxCount, err := intField(r, "maxCount")
		if err != nil {
			return native.TermCriteria{}, retypeField(err, "TermCriteria")
		}
		eps, err := numField(r, "epsilon")
		if err != nil {
			return native.TermCriteria{}, retypeField(err, "TermCriteria")
		}
		return native.TermCriteria{Type: typ, MaxCount: maxCount, Epsilon: eps}, nil
	},
	To: func(c native.TermCriteria) host.Value {
		return host.Record{"type": float64(c.Type), "maxCount": float64(c.MaxCount), "epsilon": c.Epsilon}
	},
}

// KeyPoint converts {x, y, size, angle, response, octave, classId} records.
var KeyPoint Converter[native.KeyPoint] = Func[native.KeyPoint]{
	Name: "KeyPoint",
	From: func(v host.Value) (native.KeyPoint, error) {
		r, err := record("KeyPoint", v)
		if err != nil {
			return native.KeyPoint{}, err
		}
		f, err := fields(r, "x", "y", "size", "angle", "response")
		if err != nil {
			return native.KeyPoint{}, retypeField(err, "KeyPoint")
		}
		octave, err := intField(r, "octave")
		if err != nil {
			return native.KeyPoint{}, retypeField(err, "KeyPoint")
		}
		classID, err := intField(r, "classId")
		if err != nil {
			return native.KeyPoint{}, retypeField(err, "KeyPoint")
		}
		return native.KeyPoint{
			Pt:       native.Point2{X: f[0], Y: f[1]},
			Size:     f[2],
			Angle:    f[3],
			Response: f[4],
			Octave:   octave,
			ClassID:  classID,
		}, nil
	},
	To: func(k native.KeyPoint) host.Value {
		return host.Record{
			"x":        k.Pt.X,
			"y":        k.Pt.Y,
			"size":     k.Size,
			"angle":    k.Angle,
			"response": k.Response,
			"octave":   float64(k.Octave),
			"classId":  float64(k.ClassID),
		}
	},
}

// MatData converts {rows, cols, channels, data} records into a fresh Mat.
var MatData Converter[*native.Mat] = Func[*native.Mat]{
	Name: "MatData",
	From: func(v host.Value) (*native.Mat, error) {
		r, err := record("MatData", v)
		if err != nil {
			return nil, err
		}
		var dims [3]int
		for i, key := range []string{"rows", "cols", "channels"} {
			if dims[i], err = intField(r, key); err != nil {
				return nil, retypeField(err, "MatData")
			}
		}
		raw, ok := r["data"]
		if !ok {
			return nil, retypeField(errors.New(errors.PhaseValidate, errors.KindArgument).
				Path("data").NativeType("Array<double>").Detail("missing field").Build(), "MatData")
		}
		data, err := Array(Double).ToNative(raw)
		if err != nil {
			return nil, prefixPath(err, "data")
		}
		m, err := native.NewMatFromData(dims[0], dims[1], dims[2], data)
		if err != nil {
			return nil, errors.New(errors.PhaseValidate, errors.KindArgument).
				NativeType("MatData").
				HostType("object").
				Cause(err).
				Build()
		}
		return m, nil
	},
	To: func(m *native.Mat) host.Value {
		return host.Record{
			"rows":     float64(m.Rows),
			"cols":     float64(m.Cols),
			"channels": float64(m.Channels),
			"data":     Array(Double).ToHost(m.Data),
		}
	},
}

// retypeField keeps the field path but names the enclosing record type.
func retypeField(err error, name string) error {
	var e *errors.Error
	if !errors.As(err, &e) {
		return err
	}
	c := *e
	if c.Detail == "" && c.NativeType != "" {
		c.Detail = "field expects " + c.NativeType
	}
	c.NativeType = name
	return &c
}

func prefixPath(err error, key string) error {
	var e *errors.Error
	if !errors.As(err, &e) {
		return err
	}
	c := *e
	c.Path = append([]string{key}, e.Path...)
	return &c
}

// Field converts the field key of r with c. Errors carry key in their path.
func Field[T any](r host.Record, key string, c Converter[T]) (T, error) {
	var zero T
	raw, ok := r[key]
	if !ok || host.IsUndefined(raw) {
		return zero, errors.New(errors.PhaseValidate, errors.KindArgument).
			Path(key).
			NativeType(c.TypeName()).
			Detail("missing field").
			Build()
	}
	v, err := c.ToNative(raw)
	if err != nil {
		return zero, prefixPath(err, key)
	}
	return v, nil
}

// HistAxis converts {channel, bins, ranges: [lower, upper]} records.
var HistAxis Converter[native.HistAxis] = Func[native.HistAxis]{
	Name: "HistAxis",
	From: func(v host.Value) (native.HistAxis, error) {
		var ax native.HistAxis
		r, err := record("HistAxis", v)
		if err != nil {
			return ax, err
		}
		if ax.Channel, err = intField(r, "channel"); err != nil {
			return ax, retypeField(err, "HistAxis")
		}
		if ax.Bins, err = intField(r, "bins"); err != nil {
			return ax, retypeField(err, "HistAxis")
		}
		ranges, err := Field(r, "ranges", Vec2)
		if err != nil {
			return ax, err
		}
		ax.Lower, ax.Upper = ranges[0], ranges[1]
		return ax, nil
	},
	To: func(ax native.HistAxis) host.Value {
		return host.Record{
			"channel": float64(ax.Channel),
			"bins":    float64(ax.Bins),
			"ranges":  host.Array{ax.Lower, ax.Upper},
		}
	},
}
