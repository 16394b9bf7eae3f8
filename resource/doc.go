// Package resource binds host objects to native values.
//
// A Table stores native values in generation-checked slots. A Class names
// one native type and hands out Objects, the host-side identity of a
// wrapped value:
//
//	table := resource.NewTable()
//	mats := resource.NewClass[*native.Mat](table, "Mat")
//
//	obj := mats.Wrap(m)          // host now owns m through obj
//	m2, err := mats.Unwrap(obj)  // InvalidHandle error if obj is dead
//	obj.Release()                // drops m, further Unwrap fails
//
// # Lifecycle
//
// Native values implementing Dropper are dropped exactly once: on Release,
// when the Object is garbage collected, on Table.Clear, or on Table.Close.
// A handle never resolves after its value was dropped, even if the slot
// is reused.
//
// # Observers
//
//	unsubscribe := table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    log.Printf("%s %s<%d>", e.Type, e.Class, e.Handle)
//	}))
package resource
