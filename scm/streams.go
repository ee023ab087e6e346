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
	"bufio"
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

func init_streams() {
	DeclareTitle("Streams")

	Declare(&Globalenv, &Declaration{
		"stream", "opens a file and returns it as a stream of data",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"filename", "string", "file to open"},
		}, "stream",
		func(a ...Scmer) Scmer {
			f, err := os.Open(String(a[0]))
			if err != nil {
				panic(err)
			}
			return f
		}, nil, false,
	})
	Declare(&Globalenv, &Declaration{
		"stringstream", "turns a string into a stream of data",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "string", "string content"},
		}, "stream",
		func(a ...Scmer) Scmer {
			return strings.NewReader(String(a[0]))
		}, nil, false,
	})
	Declare(&Globalenv, &Declaration{
		"gzip", "turns a compressed gzip stream into a stream of uncompressed data. Create streams with (stream filename)",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"stream", "stream", "input stream"},
		}, "stream",
		func(a ...Scmer) (result Scmer) {
			stream := a[0].(io.Reader)
			result, err := gzip.NewReader(stream)
			if err != nil {
				panic(err)
			}
			return result
		}, nil, false,
	})
	Declare(&Globalenv, &Declaration{
		"xz", "turns a compressed xz stream into a stream of uncompressed data. Create streams with (stream filename)",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"stream", "stream", "input stream"},
		}, "stream",
		func(a ...Scmer) (result Scmer) {
			stream := a[0].(io.Reader)
			result, err := xz.NewReader(stream)
			if err != nil {
				panic(err)
			}
			return result
		}, nil, false,
	})
	Declare(&Globalenv, &Declaration{
		"lz4", "turns a compressed lz4 stream into a stream of uncompressed data. Create streams with (stream filename)",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"stream", "stream", "input stream"},
		}, "stream",
		func(a ...Scmer) Scmer {
			return lz4.NewReader(a[0].(io.Reader))
		}, nil, false,
	})
	Declare(&Globalenv, &Declaration{
		"readAll", "reads a whole stream into a string",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"stream", "stream", "input stream"},
		}, "string",
		func(a ...Scmer) Scmer {
			b, err := io.ReadAll(a[0].(io.Reader))
			if err != nil {
				panic(err)
			}
			if c, ok := a[0].(io.Closer); ok {
				c.Close()
			}
			return string(b)
		}, nil, false,
	})
	Declare(&Globalenv, &Declaration{
		"readLines", "reads a stream line by line and calls a function on each line; returns the number of lines",
		2, 2,
		[]DeclarationParameter{
			DeclarationParameter{"stream", "stream", "input stream"},
			DeclarationParameter{"callback", "func", "function that takes a line"},
		}, "number",
		func(a ...Scmer) Scmer {
			scanner := bufio.NewScanner(a[0].(io.Reader))
			scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
			var count int64
			for scanner.Scan() {
				Apply(a[1], scanner.Text())
				count++
			}
			if err := scanner.Err(); err != nil {
				panic(err)
			}
			if c, ok := a[0].(io.Closer); ok {
				c.Close()
			}
			return count
		}, nil, false,
	})
}
