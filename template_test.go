package lamina

import (
	"errors"
	"reflect"
	"testing"
)

func TestIntegerTemplate(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    int
		wantErr bool
	}{
		{"int passes through", 5, 5, false},
		{"int64 narrows", int64(9), 9, false},
		{"float truncates", 3.9, 3, false},
		{"string rejected", "5", 0, true},
		{"bool rejected", true, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newTestRoot(t, map[string]any{"v": tt.value})
			got, err := root.Key("v").Get(Integer())
			if tt.wantErr {
				var te *TypeError
				if !errors.As(err, &te) {
					t.Fatalf("expected TypeError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIntegerDefault(t *testing.T) {
	root := newTestRoot(t)

	got, err := root.Key("missing").Get(Integer().WithDefault(42))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != 42 {
		t.Errorf("got %v, want the default 42", got)
	}
}

func TestRequiredTemplateMissing(t *testing.T) {
	root := newTestRoot(t)

	_, err := root.Key("missing").Get(Integer())
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestNumberTemplate(t *testing.T) {
	root := newTestRoot(t, map[string]any{"f": 2.5, "i": 2})

	got, err := root.Key("f").Get(Number())
	if err != nil || got != 2.5 {
		t.Errorf("float = %v, %v", got, err)
	}
	got, err = root.Key("i").Get(Number())
	if err != nil || got != 2 {
		t.Errorf("int should satisfy a number, got %v, %v", got, err)
	}
}

func TestStringTemplate(t *testing.T) {
	root := newTestRoot(t, map[string]any{"s": "hello", "n": 7})

	got, err := root.Key("s").Get(String())
	if err != nil || got != "hello" {
		t.Errorf("got %v, %v", got, err)
	}

	_, err = root.Key("n").Get(String())
	var te *TypeError
	if !errors.As(err, &te) {
		t.Errorf("expected TypeError for non-string, got %v", err)
	}
}

func TestStringPattern(t *testing.T) {
	root := newTestRoot(t, map[string]any{"ok": "abc123", "bad": "123abc"})

	tpl := String().WithPattern("[a-z]+[0-9]+$")
	got, err := root.Key("ok").Get(tpl)
	if err != nil || got != "abc123" {
		t.Errorf("matching value = %v, %v", got, err)
	}

	// The pattern is anchored at the start of the value.
	_, err = root.Key("bad").Get(tpl)
	var ve *ValueError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValueError for pattern mismatch, got %v", err)
	}
}

func TestStringBadPatternIsTemplateError(t *testing.T) {
	root := newTestRoot(t, map[string]any{"s": "x"})

	_, err := root.Key("s").Get(String().WithPattern("["))
	var tpe *TemplateError
	if !errors.As(err, &tpe) {
		t.Errorf("expected TemplateError for an invalid pattern, got %v", err)
	}
}

func TestStringExpandVars(t *testing.T) {
	t.Setenv("LAMINA_TEST_HOME", "/opt/app")
	root := newTestRoot(t, map[string]any{"p": "$LAMINA_TEST_HOME/data"})

	got, err := root.Key("p").Get(String().ExpandVars())
	if err != nil || got != "/opt/app/data" {
		t.Errorf("got %v, %v", got, err)
	}

	// Without the flag the value stays verbatim.
	got, err = root.Key("p").Get(String())
	if err != nil || got != "$LAMINA_TEST_HOME/data" {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestBoolTemplate(t *testing.T) {
	root := newTestRoot(t, map[string]any{"b": true, "s": "yes"})

	got, err := root.Key("b").Get(Bool())
	if err != nil || got != true {
		t.Errorf("got %v, %v", got, err)
	}
	_, err = root.Key("s").Get(Bool())
	var te *TypeError
	if !errors.As(err, &te) {
		t.Errorf("strings do not coerce to bool, got %v", err)
	}
}

func TestShorthandTemplates(t *testing.T) {
	root := newTestRoot(t, map[string]any{"n": 5, "s": "hi"})

	// A plain value used as a template means "this type, this default".
	got, err := root.Key("n").Get(10)
	if err != nil || got != 5 {
		t.Errorf("got %v, %v", got, err)
	}
	got, err = root.Key("missing").Get(10)
	if err != nil || got != 10 {
		t.Errorf("shorthand default = %v, %v", got, err)
	}
	got, err = root.Key("s").Get("fallback")
	if err != nil || got != "hi" {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestAsTemplateRejectsUnknown(t *testing.T) {
	_, err := AsTemplate(struct{}{})
	var tpe *TemplateError
	if !errors.As(err, &tpe) {
		t.Errorf("expected TemplateError, got %v", err)
	}
}

func TestStrSeqTemplate(t *testing.T) {
	root := newTestRoot(t, map[string]any{
		"words": "one two  three",
		"list":  []any{"a", "b"},
		"mixed": []any{"a", 1},
	})

	got, err := root.Key("words").Get(StrSeq())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"one", "two", "three"}) {
		t.Errorf("whitespace split = %v", got)
	}

	got, err = root.Key("list").Get(StrSeq())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("list = %v", got)
	}

	_, err = root.Key("mixed").Get(StrSeq())
	var te *TypeError
	if !errors.As(err, &te) {
		t.Errorf("non-string element should fail, got %v", err)
	}
}

func TestStrSeqNoSplit(t *testing.T) {
	root := newTestRoot(t, map[string]any{"words": "one two"})

	got, err := root.Key("words").Get(StrSeq().NoSplit())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"one two"}) {
		t.Errorf("got %v", got)
	}
}

func TestPairsTemplate(t *testing.T) {
	root := newTestRoot(t, map[string]any{
		"fromstr": "one two three",
		"mixed": []any{
			"bare",
			map[string]any{"key": "val"},
			[]any{"k2", "v2"},
		},
	})

	got, err := root.Key("fromstr").Get(Pairs().WithValueDefault("d"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := []StringPair{{"one", "d"}, {"two", "d"}, {"three", "d"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got, err = root.Key("mixed").Get(Pairs().WithValueDefault("d"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want = []StringPair{{"bare", "d"}, {"key", "val"}, {"k2", "v2"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPairsRejectsOversizedElement(t *testing.T) {
	root := newTestRoot(t, map[string]any{
		"bad": []any{[]any{"a", "b", "c"}},
	})

	_, err := root.Key("bad").Get(Pairs())
	var te *TypeError
	if !errors.As(err, &te) {
		t.Errorf("expected TypeError, got %v", err)
	}
}
