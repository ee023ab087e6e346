/*
Copyright (C) 2025  Carl-Philip Hänsch

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
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDeclare_WriteDocumentation(t *testing.T) {
	folder := t.TempDir()
	if err := WriteDocumentation(folder); err != nil {
		t.Fatalf("WriteDocumentation: %v", err)
	}
	index, err := os.ReadFile(filepath.Join(folder, "index.md"))
	if err != nil {
		t.Fatalf("index.md: %v", err)
	}
	if !strings.HasPrefix(string(index), "# Documentation\n\n") {
		t.Fatalf("index.md heading malformed: %q", string(index)[:32])
	}
	if !strings.Contains(string(index), "](") {
		t.Fatalf("index.md lists no chapters")
	}
	entries, err := os.ReadDir(folder)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	var chapter string
	for _, e := range entries {
		if e.Name() != "index.md" && strings.HasSuffix(e.Name(), ".md") {
			chapter = e.Name()
			break
		}
	}
	if chapter == "" {
		t.Fatalf("no chapter files written")
	}
	body, err := os.ReadFile(filepath.Join(folder, chapter))
	if err != nil {
		t.Fatalf("%s: %v", chapter, err)
	}
	if !strings.Contains(string(body), "### Parameters\n\n") {
		t.Fatalf("%s parameter section malformed", chapter)
	}
}
