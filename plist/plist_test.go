package plist

import (
	"strings"
	"testing"
	"time"

	"examlock.dev/sebconf/value"
)

func TestRenderDocument(t *testing.T) {
	doc := value.Dict{
		"startURL":  value.String("https://exam.example.com/start?a=1&b=2"),
		"allowQuit": value.Bool(false),
		"Browser": value.Dict{
			"zoomLevel": value.Real(1.5),
			"maxTabs":   value.Int(3),
		},
		"permittedProcesses": value.List{},
		"examKeySalt":        value.Bytes([]byte{0xDE, 0xAD}),
	}
	want := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>allowQuit</key>
	<false/>
	<key>Browser</key>
	<dict>
		<key>maxTabs</key>
		<integer>3</integer>
		<key>zoomLevel</key>
		<real>1.5</real>
	</dict>
	<key>examKeySalt</key>
	<data>3q0=</data>
	<key>permittedProcesses</key>
	<array/>
	<key>startURL</key>
	<string>https://exam.example.com/start?a=1&amp;b=2</string>
</dict>
</plist>
`
	if got := string(Render(doc)); got != want {
		t.Fatalf("Render mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderKeyOrderMatchesCanonical(t *testing.T) {
	doc := value.Dict{
		"zed":   value.Int(1),
		"Alpha": value.Int(2),
		"beta":  value.Int(3),
	}
	xml := string(Render(doc))
	order := []string{"<key>Alpha</key>", "<key>beta</key>", "<key>zed</key>"}
	last := -1
	for _, k := range order {
		i := strings.Index(xml, k)
		if i < 0 {
			t.Fatalf("missing %s in output", k)
		}
		if i < last {
			t.Fatalf("key %s out of order", k)
		}
		last = i
	}
}

func TestRenderArraysAndDates(t *testing.T) {
	doc := value.Dict{
		"urlFilter": value.List{
			value.Dict{"action": value.Int(1), "expression": value.String("*.example.com")},
			value.String("literal"),
		},
		"validFrom": value.Timestamp(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)),
		"missing":   value.Null{},
	}
	xml := string(Render(doc))
	for _, want := range []string{
		"<array>\n",
		"\t\t<dict>\n",
		"<key>action</key>",
		"<integer>1</integer>",
		"<string>*.example.com</string>",
		"<date>2026-06-01T12:00:00.000Z</date>",
		"<string></string>",
	} {
		if !strings.Contains(xml, want) {
			t.Errorf("output missing %q:\n%s", want, xml)
		}
	}
}

func TestRenderEscapesKeysAndStrings(t *testing.T) {
	doc := value.Dict{
		`a<b>&"c'`: value.String(`<&>"'`),
	}
	xml := string(Render(doc))
	if !strings.Contains(xml, "<key>a&lt;b&gt;&amp;&quot;c&apos;</key>") {
		t.Errorf("key not escaped:\n%s", xml)
	}
	if !strings.Contains(xml, "<string>&lt;&amp;&gt;&quot;&apos;</string>") {
		t.Errorf("string not escaped:\n%s", xml)
	}
}
