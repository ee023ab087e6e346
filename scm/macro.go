/*
Copyright (C) 2026  Carl-Philip Hänsch

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

/*
 Macro expansion gateway

 All macro expansion goes through expandMacro, the single seam where an
 instrumentation expander can be hung in. The expander slot is process wide
 mutable state: changing it while evaluations are in flight needs external
 coordination, the evaluator itself does not synchronize it.
*/

// MacroDef is the expansion rule of a macro. Rule receives the operand forms
// unevaluated and returns the replacement form. Overridable macros may be
// redefined at runtime which is what the digestion rebind policies are about;
// fixed macros (builtins) are expanded once and for all.
type MacroDef struct {
	Name        Symbol
	Rule        Scmer
	Overridable bool
}

// Expander replaces plain rule invocation when set via SetMacroExpander.
type Expander func(def *MacroDef, form []Scmer, en *Env) Scmer

// SetMacroExpander installs a macro expansion hook, e.g. for macro tracing or
// expansion counting. Pass nil to restore plain invocation. Effective process
// wide until changed; not synchronized against running evaluations.
func SetMacroExpander(e Expander) {
	Runtime.MacroExpander = e
}

// expandMacro performs one expansion step. The default path invokes the rule
// directly without building an intermediary closure since ordinary macro use
// is hot. Reports whether an overridable rule was exercised so the digester
// can pick its rebind policy.
func expandMacro(def *MacroDef, form []Scmer, en *Env) (expansion Scmer, overridable bool) {
	countExpand()
	if e := Runtime.MacroExpander; e != nil {
		return e(def, form, en), def.Overridable
	}
	return applyEx(def.Rule, form[1:], en), def.Overridable
}

// expandSymbolMacro rewrites a bare name whose binding is a macro binding
// (local symbol macro). The expansion is a form, not a value.
func expandSymbolMacro(b *Binding, sym Symbol, en *Env) Scmer {
	if def, ok := b.Expansion.(*MacroDef); ok {
		v, _ := expandMacro(def, []Scmer{sym}, en)
		return v
	}
	// plain replacement form
	return b.Expansion
}

// DeclareMacro registers a global macro. Builtin macros should pass
// overridable=false so their expansions can be digested permanently.
func DeclareMacro(name Symbol, rule Scmer, overridable bool) {
	def := &MacroDef{Name: name, Rule: rule, Overridable: overridable}
	DeclareInfo(name, &Binding{Kind: BindMacro, Expansion: def})
}

// lookupMacro finds the macro definition for a head symbol: local macrolet
// bindings shadow global macros. Symbol macros (raw replacement forms) are
// not returned here; the evaluator substitutes those heads itself.
func lookupMacro(en *Env, s Symbol) *MacroDef {
	b, kind, _, _ := Resolve(en, s)
	if b == nil || kind != BindMacro {
		return nil
	}
	if def, ok := b.Expansion.(*MacroDef); ok {
		return def
	}
	return nil
}
