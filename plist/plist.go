// Package plist renders a configuration document as an Apple-style XML
// property list, the on-disk format the exam client consumes.
//
// Key ordering at every nesting level follows the same case-insensitive
// comparator as the canonical serializer, so the file stays inspectable and
// diffable consistently with the Config Key. The type mapping differs from
// canonical form: integers and reals are distinct elements (decided by the
// model tag), strings use the five standard XML entities, and timestamps
// render as <date>. Indentation is tab-based and cosmetic.
package plist

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"examlock.dev/sebconf/canonical"
	"examlock.dev/sebconf/value"
)

const (
	header = `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">` + "\n" +
		`<plist version="1.0">` + "\n"
	footer = "</plist>\n"
)

// Render returns the plist XML document for doc.
func Render(doc value.Dict) []byte {
	var sb strings.Builder
	sb.WriteString(header)
	writeDict(&sb, doc, 0)
	sb.WriteByte('\n')
	sb.WriteString(footer)
	return []byte(sb.String())
}

func writeValue(sb *strings.Builder, v value.Value, depth int) {
	switch v := v.(type) {
	case value.Bool:
		if v {
			sb.WriteString("<true/>")
		} else {
			sb.WriteString("<false/>")
		}
	case value.Int:
		sb.WriteString("<integer>")
		sb.WriteString(strconv.FormatInt(int64(v), 10))
		sb.WriteString("</integer>")
	case value.Real:
		sb.WriteString("<real>")
		sb.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 64))
		sb.WriteString("</real>")
	case value.String:
		sb.WriteString("<string>")
		writeEscaped(sb, string(v))
		sb.WriteString("</string>")
	case value.Bytes:
		sb.WriteString("<data>")
		sb.WriteString(base64.StdEncoding.EncodeToString(v))
		sb.WriteString("</data>")
	case value.Timestamp:
		sb.WriteString("<date>")
		sb.WriteString(time.Time(v).UTC().Format(canonical.TimeLayout))
		sb.WriteString("</date>")
	case value.List:
		writeArray(sb, v, depth)
	case value.Dict:
		writeDict(sb, v, depth)
	default:
		// Null, nil, and anything unrecognized renders as an empty string
		// element, matching the canonical serializer's permissive fallback.
		sb.WriteString("<string></string>")
	}
}

func writeArray(sb *strings.Builder, l value.List, depth int) {
	if len(l) == 0 {
		sb.WriteString("<array/>")
		return
	}
	sb.WriteString("<array>\n")
	for _, item := range l {
		writeIndent(sb, depth+1)
		writeValue(sb, item, depth+1)
		sb.WriteByte('\n')
	}
	writeIndent(sb, depth)
	sb.WriteString("</array>")
}

func writeDict(sb *strings.Builder, d value.Dict, depth int) {
	if len(d) == 0 {
		sb.WriteString("<dict/>")
		return
	}
	sb.WriteString("<dict>\n")
	for _, k := range d.SortedKeys() {
		writeIndent(sb, depth+1)
		sb.WriteString("<key>")
		writeEscaped(sb, k)
		sb.WriteString("</key>\n")
		writeIndent(sb, depth+1)
		writeValue(sb, d[k], depth+1)
		sb.WriteByte('\n')
	}
	writeIndent(sb, depth)
	sb.WriteString("</dict>")
}

func writeIndent(sb *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		sb.WriteByte('\t')
	}
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func writeEscaped(sb *strings.Builder, s string) {
	xmlEscaper.WriteString(sb, s)
}
