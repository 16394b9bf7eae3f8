package resource

import (
	"testing"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.events = append(o.events, e)
}

type dropCounter struct {
	count int
}

func (d *dropCounter) Drop() {
	d.count++
}

func TestTable_Basic(t *testing.T) {
	table := NewTable()
	id := table.RegisterClass("Mat")

	h, gen, err := table.Insert(id, "test")
	if err != nil || h == 0 {
		t.Fatalf("Insert failed: %v", err)
	}

	val, ok := table.Get(h, gen)
	if !ok || val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	if _, ok := table.GetTyped(h, gen, id); !ok {
		t.Fatal("GetTyped with correct class failed")
	}
	other := table.RegisterClass("Net")
	if _, ok := table.GetTyped(h, gen, other); ok {
		t.Fatal("GetTyped with wrong class should fail")
	}

	if _, ok := table.Remove(h, gen); !ok {
		t.Fatal("Remove failed")
	}
	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Remove")
	}
}

func TestTable_RegisterClassIsIdempotent(t *testing.T) {
	table := NewTable()
	a := table.RegisterClass("Mat")
	b := table.RegisterClass("Mat")
	if a != b {
		t.Fatalf("Expected same id, got %d and %d", a, b)
	}
	if table.ClassName(a) != "Mat" {
		t.Fatalf("Expected class name Mat, got %q", table.ClassName(a))
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable()
	id := table.RegisterClass("Mat")
	obs := &testObserver{}
	unsubscribe := table.Subscribe(obs)

	h, gen, _ := table.Insert(id, "test")
	if len(obs.events) != 1 || obs.events[0].Type != EventWrapped {
		t.Fatalf("Expected one wrapped event, got %v", obs.events)
	}
	if obs.events[0].Handle != h || obs.events[0].Class != "Mat" {
		t.Fatalf("Wrong event payload: %+v", obs.events[0])
	}

	table.Remove(h, gen)
	if len(obs.events) != 2 || obs.events[1].Type != EventReleased {
		t.Fatalf("Expected released event, got %v", obs.events)
	}

	unsubscribe()
	table.Insert(id, "test2")
	if len(obs.events) != 2 {
		t.Fatal("Should not receive events after unsubscribe")
	}
}

func TestTable_ObserverFunc(t *testing.T) {
	table := NewTable()
	var got []EventType
	table.Subscribe(ObserverFunc(func(e Event) { got = append(got, e.Type) }))

	h, gen, _ := table.Insert(1, 1)
	table.Remove(h, gen)

	if len(got) != 2 || got[0] != EventWrapped || got[1] != EventReleased {
		t.Fatalf("Unexpected events: %v", got)
	}
}

func TestTable_Clear(t *testing.T) {
	table := NewTable()
	d := &dropCounter{}

	table.Insert(1, d)
	table.Insert(1, "b")
	table.Insert(1, "c")

	table.Clear()

	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Clear")
	}
	if d.count != 1 {
		t.Fatalf("Expected Drop() once, got %d", d.count)
	}
}

func TestTable_CloseDropsLiveValues(t *testing.T) {
	table := NewTable()
	d := &dropCounter{}
	table.Insert(1, d)

	if err := table.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if d.count != 1 {
		t.Fatalf("Expected Drop() once, got %d", d.count)
	}

	if _, _, err := table.Insert(1, "c"); err == nil {
		t.Fatal("Expected Insert to fail after Close")
	}
}

func TestTable_StaleRemoveDoesNotDrop(t *testing.T) {
	table := NewTable()
	first := &dropCounter{}
	second := &dropCounter{}

	h, gen, _ := table.Insert(1, first)
	table.Remove(h, gen)
	table.Insert(1, second)

	if _, ok := table.Remove(h, gen); ok {
		t.Fatal("Stale Remove should fail")
	}
	if second.count != 0 {
		t.Fatal("Stale Remove dropped the value that reused the slot")
	}
}
