package canonical

import (
	"testing"
	"time"

	"examlock.dev/sebconf/value"
)

func TestSerializeExampleDocument(t *testing.T) {
	doc := value.Dict{
		"startURL":          value.String("https://exam.example.com"),
		"allowQuit":         value.Bool(false),
		"originatorVersion": value.String("3.7.0"),
	}
	want := `{"allowQuit":false,"startURL":"https://exam.example.com"}`
	if got := string(Serialize(doc)); got != want {
		t.Fatalf("Serialize = %s, want %s", got, want)
	}
}

func TestSerializeDeterministic(t *testing.T) {
	doc := value.Dict{
		"b": value.Int(2),
		"A": value.Int(1),
		"c": value.Dict{
			"Z":     value.String("z"),
			"y":     value.String("y"),
			"empty": value.Dict{},
		},
		"list": value.List{value.Int(3), value.Int(1), value.Int(2)},
	}
	first := string(Serialize(doc))
	// Map iteration order is randomized per run; repeated serialization
	// exercises the sorting at every level.
	for i := 0; i < 64; i++ {
		if got := string(Serialize(doc)); got != first {
			t.Fatalf("serialization not deterministic:\n%s\n%s", first, got)
		}
	}
	want := `{"A":1,"b":2,"c":{"y":"y","Z":"z"},"list":[3,1,2]}`
	if first != want {
		t.Fatalf("Serialize = %s, want %s", first, want)
	}
}

func TestSerializeElidesEmptyDictsRecursively(t *testing.T) {
	cases := []struct {
		name string
		doc  value.Dict
		want string
	}{
		{
			name: "direct empty",
			doc:  value.Dict{"valid": value.Dict{"k": value.String("v")}, "empty": value.Dict{}},
			want: `{"valid":{"k":"v"}}`,
		},
		{
			name: "nested empty",
			doc:  value.Dict{"a": value.Dict{"b": value.Dict{"c": value.Dict{}}}},
			want: `{}`,
		},
		{
			name: "mixed",
			doc: value.Dict{
				"keep": value.Dict{"x": value.Int(1), "gone": value.Dict{"deeper": value.Dict{}}},
			},
			want: `{"keep":{"x":1}}`,
		},
		{
			name: "empty root",
			doc:  value.Dict{},
			want: `{}`,
		},
		{
			name: "empty dict inside list survives",
			doc:  value.Dict{"l": value.List{value.Dict{}}},
			want: `{"l":[{}]}`,
		},
	}
	for _, c := range cases {
		if got := string(Serialize(c.doc)); got != c.want {
			t.Errorf("%s: Serialize = %s, want %s", c.name, got, c.want)
		}
	}
}

func TestSerializeOriginatorVersionRootOnly(t *testing.T) {
	doc := value.Dict{
		"originatorVersion": value.String("3.7.0"),
		"nested": value.Dict{
			"originatorVersion": value.String("kept"),
		},
	}
	want := `{"nested":{"originatorVersion":"kept"}}`
	if got := string(Serialize(doc)); got != want {
		t.Fatalf("Serialize = %s, want %s", got, want)
	}
}

func TestSerializeScalars(t *testing.T) {
	cases := []struct {
		name string
		v    value.Value
		want string
	}{
		{"null", value.Null{}, `null`},
		{"nil entry", nil, `null`},
		{"true", value.Bool(true), `true`},
		{"false", value.Bool(false), `false`},
		{"int", value.Int(-42), `-42`},
		{"real", value.Real(0.5), `0.5`},
		{"real integral", value.Real(2), `2`},
		{"string", value.String("plain"), `"plain"`},
		{"quote escape", value.String(`say "hi"`), `"say \"hi\""`},
		{"control escape", value.String("a\nb\tc\x01"), `"a\nb\tc\u0001"`},
		{"backslash untouched", value.String(`C:\exam`), `"C:\exam"`},
		{"bytes", value.Bytes([]byte{0x01, 0x02, 0xFF}), `"AQL/"`},
		{
			"timestamp",
			value.Timestamp(time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)),
			`"2026-03-14T09:26:53.589Z"`,
		},
		{
			"timestamp converts to UTC",
			value.Timestamp(time.Date(2026, 3, 14, 10, 26, 53, 0, time.FixedZone("CET", 3600))),
			`"2026-03-14T09:26:53.000Z"`,
		},
	}
	for _, c := range cases {
		doc := value.Dict{"k": c.v}
		want := `{"k":` + c.want + `}`
		if got := string(Serialize(doc)); got != want {
			t.Errorf("%s: Serialize = %s, want %s", c.name, got, want)
		}
	}
}

func TestSerializeListOrderPreserved(t *testing.T) {
	doc := value.Dict{"urls": value.List{
		value.String("b"), value.String("a"), value.String("c"),
	}}
	want := `{"urls":["b","a","c"]}`
	if got := string(Serialize(doc)); got != want {
		t.Fatalf("Serialize = %s, want %s", got, want)
	}
}
