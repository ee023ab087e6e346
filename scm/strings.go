/*
Copyright (C) 2023-2026  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package scm

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

func init_strings() {
	DeclareTitle("Strings")

	Declare(&Globalenv, &Declaration{
		"string?", "tells if the value is a string",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "any", "value to check"},
		}, "bool",
		func(a ...Scmer) Scmer {
			_, ok := a[0].(string)
			return ok
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"concat", "concatenates stringable values and returns a string",
		0, 10000,
		[]DeclarationParameter{
			DeclarationParameter{"value...", "any", "values to concat"},
		}, "string",
		func(a ...Scmer) Scmer {
			var b strings.Builder
			for _, v := range a {
				b.WriteString(String(v))
			}
			return b.String()
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"substr", "returns a substring",
		2, 3,
		[]DeclarationParameter{
			DeclarationParameter{"value", "string", "string to cut"},
			DeclarationParameter{"start", "number", "start index (0-based)"},
			DeclarationParameter{"length", "number", "optional length"},
		}, "string",
		func(a ...Scmer) Scmer {
			s := String(a[0])
			start := ToInt(a[1])
			if start < 0 {
				start = len(s) + start
			}
			if start < 0 {
				start = 0
			}
			if start > len(s) {
				start = len(s)
			}
			end := len(s)
			if len(a) > 2 {
				end = start + ToInt(a[2])
				if end > len(s) {
					end = len(s)
				}
				if end < start {
					end = start
				}
			}
			return s[start:end]
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"simplify", "turns a stringable input value in the easiest-most value (e.g. turn strings into numbers if they are numeric)",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "any", "value to simplify"},
		}, "any",
		func(a ...Scmer) Scmer {
			if s, ok := a[0].(string); ok {
				return Simplify(s)
			}
			return a[0]
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"strlen", "returns the length of a string",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "string", "string"},
		}, "number",
		func(a ...Scmer) Scmer {
			return int64(len(String(a[0])))
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"toLower", "turns a string into lower case",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "string", "string"},
		}, "string",
		func(a ...Scmer) Scmer {
			return strings.ToLower(String(a[0]))
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"toUpper", "turns a string into upper case",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "string", "string"},
		}, "string",
		func(a ...Scmer) Scmer {
			return strings.ToUpper(String(a[0]))
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"replace", "replaces all occurances in a string with another string",
		3, 3,
		[]DeclarationParameter{
			DeclarationParameter{"value", "string", "string to search in"},
			DeclarationParameter{"search", "string", "search value"},
			DeclarationParameter{"replacement", "string", "replacement value"},
		}, "string",
		func(a ...Scmer) Scmer {
			return strings.ReplaceAll(String(a[0]), String(a[1]), String(a[2]))
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"split", "splits a string using a separator or space",
		1, 2,
		[]DeclarationParameter{
			DeclarationParameter{"value", "string", "string to split"},
			DeclarationParameter{"separator", "string", "separator (default: whitespace)"},
		}, "list",
		func(a ...Scmer) Scmer {
			var parts []string
			if len(a) > 1 {
				parts = strings.Split(String(a[0]), String(a[1]))
			} else {
				parts = strings.Fields(String(a[0]))
			}
			result := make([]Scmer, len(parts))
			for i, p := range parts {
				result[i] = p
			}
			return result
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"collate", "returns the `<` operator for a given collation; collations are BCP 47 language codes, optionally suffixed with _ci (case insensitive) or _cs (case sensitive). Numeric substrings sort naturally.",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"collation", "string", "collation string of the form LANG, LANG_ci or LANG_cs"},
		}, "func",
		func(a ...Scmer) Scmer {
			spec := String(a[0])
			base := spec
			ignoreCase := false
			if strings.HasSuffix(spec, "_ci") {
				base = strings.TrimSuffix(spec, "_ci")
				ignoreCase = true
			} else if strings.HasSuffix(spec, "_cs") {
				base = strings.TrimSuffix(spec, "_cs")
			}
			tag, err := language.Parse(base)
			if err != nil {
				tag = language.Und
			}
			var c *collate.Collator
			if ignoreCase {
				c = collate.New(tag, collate.Numeric, collate.IgnoreCase)
			} else {
				c = collate.New(tag, collate.Numeric)
			}
			return func(b ...Scmer) Scmer {
				return c.CompareString(String(b[0]), String(b[1])) < 0
			}
		}, nil, false,
	})
	Declare(&Globalenv, &Declaration{
		"json_encode", "encodes a value in JSON, treats lists as lists",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "any", "value to encode"},
		}, "string",
		func(a ...Scmer) Scmer {
			b, err := json.Marshal(toJSONValue(a[0]))
			if err != nil {
				panic("json_encode: " + err.Error())
			}
			return string(b)
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"json_decode", "parses JSON into lists and values",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "string", "JSON string"},
		}, "any",
		func(a ...Scmer) Scmer {
			var v any
			if err := json.Unmarshal([]byte(String(a[0])), &v); err != nil {
				panic("json_decode: " + err.Error())
			}
			return fromJSONValue(v)
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"base64_encode", "encodes a string as Base64 (standard encoding)",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "string", "string to encode"},
		}, "string",
		func(a ...Scmer) Scmer {
			return base64.StdEncoding.EncodeToString([]byte(String(a[0])))
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"base64_decode", "decodes a Base64 string (standard encoding)",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "string", "string to decode"},
		}, "string",
		func(a ...Scmer) Scmer {
			b, err := base64.StdEncoding.DecodeString(String(a[0]))
			if err != nil {
				panic("base64_decode: " + err.Error())
			}
			return string(b)
		}, nil, true,
	})
}

func toJSONValue(v Scmer) any {
	switch vv := unwrap(v).(type) {
	case []Scmer:
		out := make([]any, len(vv))
		for i, item := range vv {
			out[i] = toJSONValue(item)
		}
		return out
	case Symbol:
		return string(vv)
	default:
		return vv
	}
}

func fromJSONValue(v any) Scmer {
	switch vv := v.(type) {
	case []any:
		out := make([]Scmer, len(vv))
		for i, item := range vv {
			out[i] = fromJSONValue(item)
		}
		return out
	case map[string]any:
		// assoc list with stable runtime iteration order is not guaranteed;
		// callers that need order must sort keys themselves
		out := make([]Scmer, 0, 2*len(vv))
		for k, item := range vv {
			out = append(out, k, fromJSONValue(item))
		}
		return out
	default:
		return FromAny(vv)
	}
}
