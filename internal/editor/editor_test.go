package editor

import (
	"encoding/json"
	"errors"
	"testing"

	"gopkg.in/yaml.v3"
)

type testEvent struct {
	kind      EventType
	prevented bool
}

func (e *testEvent) Type() EventType        { return e.kind }
func (e *testEvent) DefaultPrevented() bool { return e.prevented }

func TestEventTarget_Dispatch(t *testing.T) {
	target := NewEventTarget(nil)

	var order []string
	target.AddEventListener(Drop, func(e Event) { order = append(order, "first") })
	target.AddEventListener(Drop, func(e Event) {
		order = append(order, "second")
		e.(*testEvent).prevented = true
	})
	target.AddEventListener(Paste, func(e Event) { order = append(order, "paste") })
	target.AddEventListener(Drop, nil)

	if got := target.ListenerCount(Drop); got != 2 {
		t.Errorf("ListenerCount(Drop) = %d, want 2", got)
	}

	proceed := target.Dispatch(&testEvent{kind: Drop})
	if proceed {
		t.Error("Dispatch() = true, want false after PreventDefault")
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("listener order = %v, want [first second]", order)
	}
}

func TestEventTarget_ListenerPanicIsRecovered(t *testing.T) {
	target := NewEventTarget(nil)

	called := false
	target.AddEventListener(Paste, func(e Event) { panic("boom") })
	target.AddEventListener(Paste, func(e Event) { called = true })

	if !target.Dispatch(&testEvent{kind: Paste}) {
		t.Error("Dispatch() = false, want true")
	}
	if !called {
		t.Error("listener after panicking listener was not called")
	}
}

func TestDocument_InsertText(t *testing.T) {
	tests := []struct {
		name     string
		seed     string
		index    int
		text     string
		wantText string
		wantLen  int
	}{
		{"into empty", "", 0, "hello", "hello", 5},
		{"at end", "hello", 5, " world", "hello world", 11},
		{"at start", "world", 0, "hello ", "hello world", 11},
		{"in the middle", "held", 3, "l", "hell" + "d", 5},
		{"surrogate pairs count twice", "", 0, "a😀", "a😀", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := NewDocument(WithText(tt.seed))
			if err := doc.InsertText(tt.index, tt.text, SourceUser); err != nil {
				t.Fatalf("InsertText() error = %v", err)
			}
			if got := doc.Text(); got != tt.wantText {
				t.Errorf("Text() = %q, want %q", got, tt.wantText)
			}
			if got := doc.GetLength(); got != tt.wantLen {
				t.Errorf("GetLength() = %d, want %d", got, tt.wantLen)
			}
		})
	}
}

func TestTextLength(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"hello", 5},
		{"héllo", 5},
		{"日本", 2},
		{"a😀b", 4},
		{"😀😀", 4},
		{"\xff", 1},
	}

	for _, tt := range tests {
		if got := TextLength(tt.in); got != tt.want {
			t.Errorf("TextLength(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDocument_InsertEmbedSplitsText(t *testing.T) {
	doc := NewDocument(WithText("abcd"))

	if err := doc.InsertEmbed(2, EmbedImage, "data:image/png;base64,AA==", SourceUser); err != nil {
		t.Fatalf("InsertEmbed() error = %v", err)
	}

	ops := doc.Ops()
	if len(ops) != 3 {
		t.Fatalf("len(Ops()) = %d, want 3: %+v", len(ops), ops)
	}
	if ops[0].Text != "ab" || ops[2].Text != "cd" {
		t.Errorf("text runs = %q, %q; want ab, cd", ops[0].Text, ops[2].Text)
	}
	if ops[1].Embed[EmbedImage] != "data:image/png;base64,AA==" {
		t.Errorf("embed = %v", ops[1].Embed)
	}
	if doc.GetLength() != 5 {
		t.Errorf("GetLength() = %d, want 5", doc.GetLength())
	}

	// Text inserted right after the embed stays separate from it.
	if err := doc.InsertText(3, "X", SourceUser); err != nil {
		t.Fatalf("InsertText() error = %v", err)
	}
	if got := doc.Text(); got != "ab\uFFFCXcd" {
		t.Errorf("Text() = %q", got)
	}
}

func TestDocument_InsertOutOfRange(t *testing.T) {
	doc := NewDocument(WithText("abc"))

	for _, index := range []int{-1, 4} {
		err := doc.InsertText(index, "x", SourceUser)
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("InsertText(%d) error = %v, want ErrIndexOutOfRange", index, err)
		}
	}

	if err := doc.InsertEmbed(0, "", "x", SourceUser); err == nil {
		t.Error("InsertEmbed() with empty type succeeded, want error")
	}
}

func TestDocument_Selection(t *testing.T) {
	doc := NewDocument(WithText("abc"))
	if sel := doc.GetSelection(true); sel != nil {
		t.Errorf("GetSelection() = %+v, want nil", sel)
	}

	doc.SetSelection(2, SourceUser)
	sel := doc.GetSelection(true)
	if sel == nil || sel.Index != 2 || sel.Length != 0 {
		t.Fatalf("GetSelection() = %+v, want {2 0}", sel)
	}

	sel.Index = 99
	if doc.GetSelection(false).Index != 2 {
		t.Error("GetSelection() returned shared state")
	}

	doc.SetSelection(99, SourceUser)
	if got := doc.GetSelection(false).Index; got != 3 {
		t.Errorf("SetSelection(99) index = %d, want clamped 3", got)
	}

	seeded := NewDocument(WithSelection(10), WithText("ab"))
	if got := seeded.GetSelection(false).Index; got != 2 {
		t.Errorf("WithSelection(10) index = %d, want 2", got)
	}
}

func TestDocument_CaretRangeFromPoint(t *testing.T) {
	var _ CaretPlacer = (*Document)(nil)

	plain := NewDocument()
	if _, ok := plain.CaretRangeFromPoint(1, 1); ok {
		t.Error("CaretRangeFromPoint() ok without resolver")
	}

	doc := NewDocument(WithText("abcdef"), WithCaretResolver(func(x, y float64) (int, bool) {
		return int(x), y >= 0
	}))
	if got, ok := doc.CaretRangeFromPoint(4, 0); !ok || got != 4 {
		t.Errorf("CaretRangeFromPoint(4, 0) = %d, %v; want 4, true", got, ok)
	}
	if got, ok := doc.CaretRangeFromPoint(40, 0); !ok || got != 6 {
		t.Errorf("CaretRangeFromPoint(40, 0) = %d, %v; want clamped 6, true", got, ok)
	}
	if _, ok := doc.CaretRangeFromPoint(1, -1); ok {
		t.Error("CaretRangeFromPoint() ok when resolver declined")
	}
}

func TestDocument_SnapshotEncodes(t *testing.T) {
	doc := NewDocument(WithText("hi"))
	_ = doc.InsertEmbed(2, EmbedImage, "https://example.com/cat.png", SourceUser)
	doc.SetSelection(3, SourceUser)

	snap := doc.Snapshot()

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	want := `{"length":3,"selection":{"index":3,"length":0},"ops":[{"text":"hi"},{"embed":{"image":"https://example.com/cat.png"}}]}`
	if string(data) != want {
		t.Errorf("json = %s\nwant %s", data, want)
	}

	out, err := yaml.Marshal(snap)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	var back Snapshot
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if back.Length != 3 || len(back.Ops) != 2 {
		t.Errorf("yaml snapshot = %+v", back)
	}
}

func TestRegistry(t *testing.T) {
	const name = "modules/test-registry"

	Register(name, func(ed Editor, options any) (any, error) {
		if options == "fail" {
			return nil, errors.New("bad options")
		}
		return options, nil
	})

	if _, ok := Lookup(name); !ok {
		t.Fatal("Lookup() did not find registered module")
	}

	found := false
	for _, m := range Modules() {
		if m == name {
			found = true
		}
	}
	if !found {
		t.Errorf("Modules() = %v, missing %q", Modules(), name)
	}

	doc := NewDocument()
	module, err := doc.UseModule(name, "configured")
	if err != nil {
		t.Fatalf("UseModule() error = %v", err)
	}
	if module != "configured" {
		t.Errorf("UseModule() = %v, want configured", module)
	}
	if m, ok := doc.Module(name); !ok || m != "configured" {
		t.Errorf("Module() = %v, %v", m, ok)
	}

	if _, err := doc.UseModule(name, "fail"); err == nil {
		t.Error("UseModule() with failing factory succeeded")
	}
	if _, err := doc.UseModule("modules/missing", nil); err == nil {
		t.Error("UseModule() for unregistered module succeeded")
	}
}
