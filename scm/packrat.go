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
	"fmt"
	"regexp"

	packrat "github.com/launix-de/go-packrat"
)

type ScmParser struct {
	Root      packrat.Parser
	Syntax    Scmer // keep syntax for deserializer
	Generator Scmer
	Skipper   *regexp.Regexp
}

type ScmParserVariable struct {
	Parser   packrat.Parser
	Variable Symbol
}

type UndefinedParser struct { // a parser with forward declaration
	Parser packrat.Parser // if we finally found
	En     *Env
	Sym    Symbol
}

// allows self recursion on parsers
func (b *UndefinedParser) Match(s *packrat.Scanner) *packrat.Node {
	if b.Parser == nil {
		v, ok := b.En.Get(b.Sym)
		if !ok {
			panic("error parsing parser: variable does not contain a valid parser: " + string(b.Sym))
		}
		b.Parser = v.(packrat.Parser)
	}
	return b.Parser.Match(s)
}

func (b *ScmParser) String() string {
	return "(parser " + String(b.Syntax) + ")"
}

func (b *ScmParser) Match(s *packrat.Scanner) *packrat.Node {
	m := b.Root.Match(s)
	if m == nil {
		return nil
	}
	return &packrat.Node{Matched: m.Matched, Start: m.Start, Parser: b, Children: []*packrat.Node{m}}
}

func findVarNodes(node *packrat.Node, en *Env) {
	if extractor, ok := node.Parser.(*ScmParserVariable); ok {
		en.Vars[extractor.Variable] = &Binding{Kind: BindValue, Value: ExtractScmer(node.Children[0], en)}
	}
	if _, ok := node.Parser.(*ScmParser); ok {
		return // early exit, don't deep-dive into their variables
	}
	for _, child := range node.Children {
		findVarNodes(child, en)
	}
}

func ExtractScmer(n *packrat.Node, en *Env) Scmer {
	switch parser := n.Parser.(type) {
	case *ScmParser:
		if parser.Generator == nil {
			return ExtractScmer(n.Children[0], en)
		}
		// call generator with the matched variables in scope
		en2 := &Env{Vars: make(Vars), Outer: en, Nodefine: true}
		findVarNodes(n.Children[0], en2)
		return Eval(parser.Generator, en2)
	case *packrat.OrParser:
		return ExtractScmer(n.Children[0], en)
	case *packrat.KleeneParser:
		result := make([]Scmer, 0, len(n.Children)/2+1)
		for i := 0; i < len(n.Children); i += 2 {
			result = append(result, ExtractScmer(n.Children[i], en))
		}
		return result
	case *packrat.ManyParser:
		result := make([]Scmer, 0, len(n.Children)/2+1)
		for i := 0; i < len(n.Children); i += 2 {
			result = append(result, ExtractScmer(n.Children[i], en))
		}
		return result
	case *packrat.MaybeParser: // nil or value
		if len(n.Children) > 0 {
			return ExtractScmer(n.Children[0], en)
		}
		return nil
	}
	return Simplify(n.Matched)
}

func (b *ScmParser) Execute(str string, en *Env) Scmer {
	skipper := b.Skipper
	if skipper == nil {
		skipper = packrat.SkipWhitespaceAndCommentsRegex // also skip C-style comments as whitespaces
	}
	scanner := packrat.NewScanner(str, skipper)
	node, err := packrat.Parse(b, scanner)
	if err != nil {
		panic(err)
	}
	return ExtractScmer(node, en)
}

func (b *ScmParserVariable) Match(s *packrat.Scanner) *packrat.Node {
	m := b.Parser.Match(s)
	if m == nil {
		return nil
	}
	return &packrat.Node{Matched: m.Matched, Start: m.Start, Parser: b, Children: []*packrat.Node{m}}
}

func parseSyntax(syntax Scmer, en *Env) packrat.Parser {
	switch n := syntax.(type) {
	case *Cell:
		return parseSyntax(n.Form, en)
	case string:
		return packrat.NewAtomParser(n, false, true)
	case packrat.Parser: // parser passthrough for precompiled parsers
		return n
	case Symbol:
		if n == Symbol("$") {
			return packrat.NewEndParser(true)
		}
		if n == Symbol("empty") {
			return packrat.NewEmptyParser()
		}
		if v, ok := en.Get(n); ok {
			if result, ok2 := v.(*ScmParser); ok2 {
				return result
			}
		}
		return &UndefinedParser{nil, en, n}
	case []Scmer:
		if len(n) == 0 {
			panic("invalid parser ()")
		}
		switch unwrap(n[0]) {
		case Symbol("parser"): // inner anonymous parser
			var resulter Scmer
			if len(n) > 2 {
				Validate(n[2], "any")
				resulter = n[2]
			}
			var skipper Scmer
			if len(n) > 3 {
				Validate(n[3], "string")
				skipper = n[3]
			}
			return NewParser(n[1], resulter, skipper, en)
		case Symbol("atom"):
			caseinsensitive := false
			if len(n) > 2 {
				caseinsensitive = ToBool(n[2])
			}
			skipws := true
			if len(n) > 3 {
				skipws = ToBool(n[3])
			}
			return packrat.NewAtomParser(String(n[1]), caseinsensitive, skipws)
		case Symbol("regex"):
			caseinsensitive := false
			if len(n) > 2 {
				caseinsensitive = ToBool(n[2])
			}
			skipws := true
			if len(n) > 3 {
				skipws = ToBool(n[3])
			}
			return packrat.NewRegexParser(String(n[1]), caseinsensitive, skipws)
		case Symbol("list"):
			subparser := make([]packrat.Parser, len(n)-1)
			for i := 1; i < len(n); i++ {
				subparser[i-1] = parseSyntax(n[i], en)
			}
			return packrat.NewAndParser(subparser...)
		case Symbol("or"):
			subparser := make([]packrat.Parser, len(n)-1)
			for i := 1; i < len(n); i++ {
				subparser[i-1] = parseSyntax(n[i], en)
			}
			return packrat.NewOrParser(subparser...)
		case Symbol("*"), Symbol("+"):
			subparser := parseSyntax(n[1], en)
			var sepparser packrat.Parser
			if len(n) > 2 {
				sepparser = parseSyntax(n[2], en)
			} else {
				sepparser = packrat.NewEmptyParser()
			}
			return packrat.NewKleeneParser(subparser, sepparser)
		case Symbol("?"):
			if len(n) == 2 {
				return packrat.NewMaybeParser(parseSyntax(n[1], en))
			}
			subparser := make([]packrat.Parser, len(n)-1)
			for i := 1; i < len(n); i++ {
				subparser[i-1] = parseSyntax(n[i], en)
			}
			return packrat.NewMaybeParser(packrat.NewAndParser(subparser...))
		case Symbol("define"):
			result := new(ScmParserVariable)
			result.Variable = mustSymbol(n[1])
			result.Parser = parseSyntax(n[2], en)
			return result
		}
		if isListFn(unwrap(n[0])) {
			subparser := make([]packrat.Parser, len(n)-1)
			for i := 1; i < len(n); i++ {
				subparser[i-1] = parseSyntax(n[i], en)
			}
			return packrat.NewAndParser(subparser...)
		}
	}
	panic("Unknown parser syntax: " + fmt.Sprint(syntax))
}

func NewParser(syntax, generator, whitespace Scmer, en *Env) *ScmParser {
	result := new(ScmParser)
	result.Root = parseSyntax(syntax, en)
	result.Syntax = syntax // for serialization purposes
	result.Generator = generator
	if whitespace != nil {
		result.Skipper = regexp.MustCompile(String(whitespace))
	}
	return result
}

func init_parser() {
	DeclareTitle("Parsers")
	Declare(&Globalenv, &Declaration{
		"parser", `creates a parser

Parser syntax elements:
 - "string" matches an atom
 - (atom "string" [caseinsensitive] [skipws]) matches an atom
 - (regex "pattern" [caseinsensitive] [skipws]) matches a regex
 - (list p1 p2...) matches a sequence
 - (or p1 p2...) matches the first matching alternative
 - (* p [separator]) matches zero or more occurances
 - (+ p [separator]) matches one or more occurances
 - (? p...) optionally matches a sequence
 - (define var p) stores the submatch into a variable usable in the generator
 - (parser syntax [generator [skipper]]) declares an anonymous subparser
 - $ matches the end of input
 - symbol refers to another parser stored in a variable

The resulting parser is a function that takes a string and returns the
generated value.`,
		1, 3,
		[]DeclarationParameter{
			DeclarationParameter{"syntax", "any", "parser syntax tree"},
			DeclarationParameter{"generator", "any", "code evaluated on match; sees the (define ...) variables"},
			DeclarationParameter{"skipper", "string", "whitespace regex"},
		}, "func",
		nil,
		&SpecialForm{Immediate: func(en *Env, list []Scmer) (Scmer, Scmer, *Env) {
			var generator Scmer
			if len(list) > 2 {
				generator = stripCells(list[2])
			}
			var skipper Scmer
			if len(list) > 3 {
				skipper = Eval(list[3], en)
			}
			return NewParser(stripCells(list[1]), generator, skipper, en), nil, nil
		}}, false,
	})
	Declare(&Globalenv, &Declaration{
		"parse", "runs a parser on a string",
		2, 2,
		[]DeclarationParameter{
			DeclarationParameter{"parser", "func", "parser built with (parser ...)"},
			DeclarationParameter{"input", "string", "string to parse"},
		}, "any",
		func(a ...Scmer) Scmer {
			p, ok := a[0].(*ScmParser)
			if !ok {
				panic("parse: first argument must be a parser")
			}
			return p.Execute(String(a[1]), &Globalenv)
		}, nil, false,
	})
}
