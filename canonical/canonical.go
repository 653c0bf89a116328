// Package canonical produces the deterministic byte serialization of a
// configuration document that the Config Key is derived from.
//
// The output is a single line of JSON-like text with zero whitespace, keys
// sorted case-insensitively at every nesting level, empty dictionaries
// elided recursively, and the root-level originatorVersion entry removed.
// Two documents that are equal up to key order and originatorVersion always
// serialize to byte-identical output. These rules are the hash's entire
// behavioral surface; changing any of them breaks compatibility with
// deployed verifying servers.
package canonical

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"examlock.dev/sebconf/value"
)

// OriginatorVersionKey is the transient root-level entry recording producer
// metadata. It is excluded from canonical form (only at the root; nested
// keys with the same name are ordinary entries).
const OriginatorVersionKey = "originatorVersion"

// TimeLayout is the timestamp rendering used by canonical form: ISO-8601
// with millisecond precision, UTC, trailing Z.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Serialize returns the canonical form of doc. The result is never
// persisted, only hashed.
func Serialize(doc value.Dict) []byte {
	root := make(value.Dict, len(doc))
	for k, v := range doc {
		if k == OriginatorVersionKey {
			continue
		}
		root[k] = v
	}
	var sb strings.Builder
	writeDict(&sb, root)
	return []byte(sb.String())
}

func writeValue(sb *strings.Builder, v value.Value) {
	switch v := v.(type) {
	case value.Bool:
		if v {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case value.Int:
		sb.WriteString(strconv.FormatInt(int64(v), 10))
	case value.Real:
		sb.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 64))
	case value.String:
		writeQuoted(sb, string(v))
	case value.Bytes:
		writeQuoted(sb, base64.StdEncoding.EncodeToString(v))
	case value.Timestamp:
		writeQuoted(sb, time.Time(v).UTC().Format(TimeLayout))
	case value.List:
		sb.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeValue(sb, item)
		}
		sb.WriteByte(']')
	case value.Dict:
		writeDict(sb, v)
	default:
		// Null, nil entries, and anything unrecognized hash identically to
		// null. Verifying servers depend on this permissive fallback.
		sb.WriteString("null")
	}
}

func writeDict(sb *strings.Builder, d value.Dict) {
	keys := make([]string, 0, len(d))
	for k, v := range d {
		if sub, ok := v.(value.Dict); ok && emptyAfterElision(sub) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return value.KeyLess(keys[i], keys[j]) })

	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		writeQuoted(sb, k)
		sb.WriteByte(':')
		writeValue(sb, d[k])
	}
	sb.WriteByte('}')
}

// emptyAfterElision reports whether d would render with zero entries once
// empty dictionaries are dropped recursively.
func emptyAfterElision(d value.Dict) bool {
	for _, v := range d {
		sub, ok := v.(value.Dict)
		if !ok || !emptyAfterElision(sub) {
			return false
		}
	}
	return true
}

// writeQuoted renders s double-quoted with JSON-style escaping of the quote
// character and control characters. Nothing else is escaped, including
// backslashes: hash compatibility with existing servers takes precedence
// over JSON strictness.
func writeQuoted(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"':
			sb.WriteString(`\"`)
		case r == '\b':
			sb.WriteString(`\b`)
		case r == '\f':
			sb.WriteString(`\f`)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r < 0x20:
			fmt.Fprintf(sb, `\u%04x`, r)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
}
