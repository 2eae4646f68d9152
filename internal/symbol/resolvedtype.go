package symbol

// ReferenceMode is the `&`, `&in`, `&out`, `&inout` modifier on a type.
type ReferenceMode int

const (
	RefNone ReferenceMode = iota
	RefIn
	RefOut
	RefInOut
)

// TemplateTranslator maps a template parameter identifier to the resolved
// type it is bound to at a particular use site, e.g. `array<int>` binds
// array's "T" to int. Kept as a plain map rather than an ordered one:
// translators are looked up by key, never iterated for display order.
type TemplateTranslator map[string]ResolvedType

// ResolvedType is an immutable value combining a type-or-function symbol,
// an optional template-argument translator, and modifier flags. Two
// ResolvedType values are cheap to copy (no pointers are mutated after
// construction) and safe to share across goroutines by structural value.
type ResolvedType struct {
	Sym        *Symbol // the Type or Function symbol this type denotes; nil means Unresolved
	Translator TemplateTranslator
	Const      bool
	Ref        ReferenceMode
	Handle     bool
	Array      bool
}

// Unresolved is the sentinel value produced whenever name or type
// resolution fails; it propagates silently through later analysis so one
// missing name does not mask downstream errors (spec §7).
var Unresolved = ResolvedType{}

// IsUnresolved reports whether r denotes a symbol at all.
func (r ResolvedType) IsUnresolved() bool { return r.Sym == nil }

// WithArray returns a copy of r with the `T[]` modifier flag set.
// hoist.AnalyzeTypeRef uses it only when the configured builtinArrayType
// is not declared in scope; otherwise it builds the `array<T>` resolved
// type itself.
func (r ResolvedType) WithArray() ResolvedType {
	r.Array = true
	return r
}

// WithHandle returns a copy of r with the `@` handle modifier set.
func (r ResolvedType) WithHandle() ResolvedType {
	r.Handle = true
	return r
}

// WithConst returns a copy of r with the const modifier set.
func (r ResolvedType) WithConst() ResolvedType {
	r.Const = true
	return r
}

// Identical reports whether a and b denote the same underlying symbol
// with the same template bindings, ignoring reference-mode (which never
// participates in overload identity checks beyond in/out compatibility).
func (a ResolvedType) Identical(b ResolvedType) bool {
	if a.Sym != b.Sym || a.Const != b.Const || a.Handle != b.Handle || a.Array != b.Array {
		return false
	}
	if len(a.Translator) != len(b.Translator) {
		return false
	}
	for k, v := range a.Translator {
		bv, ok := b.Translator[k]
		if !ok || !v.Identical(bv) {
			return false
		}
	}
	return true
}
