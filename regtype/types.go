// Package regtype builds the register type descriptors advertised to the
// remote debugging client. Scalar leaf types are shared process-wide
// constants; vector and matrix composites are built per target from the
// hardware-reported geometry and owned by that target.
package regtype

// Kind discriminates the node variants of a type descriptor.
type Kind int

const (
	// KindScalar is a fixed-width unsigned integer leaf.
	KindScalar Kind = iota
	// KindVector is a homogeneous sequence of elements of another type.
	KindVector
	// KindUnion is an ordered set of named views over the same storage.
	KindUnion
)

// Type is one node of a register type tree. The ID strings and field names
// are part of the wire contract with the remote client and must be
// reproduced exactly.
type Type struct {
	// Kind selects which of the remaining fields are meaningful.
	Kind Kind

	// ID is the type identity string seen by the remote client.
	ID string

	// Bits is the width of a scalar leaf.
	Bits uint32

	// Elem and Count describe a vector node.
	Elem  *Type
	Count uint32

	// Fields holds a union's named views in presentation order,
	// narrowest element size first.
	Fields []Field
}

// Field is one named view inside a union.
type Field struct {
	Name string
	Type *Type
}

// Shared scalar leaf types. These are immutable after package
// initialization and are referenced, never copied, by every target.
var (
	Uint8   = &Type{Kind: KindScalar, ID: "uint8", Bits: 8}
	Uint16  = &Type{Kind: KindScalar, ID: "uint16", Bits: 16}
	Uint32  = &Type{Kind: KindScalar, ID: "uint32", Bits: 32}
	Uint64  = &Type{Kind: KindScalar, ID: "uint64", Bits: 64}
	Uint128 = &Type{Kind: KindScalar, ID: "uint128", Bits: 128}
)

// Equal reports whether two type trees are structurally identical:
// same kinds, IDs, widths, counts, field names, and field order.
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Kind != b.Kind || a.ID != b.ID {
		return false
	}
	switch a.Kind {
	case KindScalar:
		return a.Bits == b.Bits
	case KindVector:
		return a.Count == b.Count && Equal(a.Elem, b.Elem)
	case KindUnion:
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name {
				return false
			}
			if !Equal(a.Fields[i].Type, b.Fields[i].Type) {
				return false
			}
		}
		return true
	}
	return false
}

// lane describes one element width of a vector or matrix register view.
// Lanes are ordered narrowest first; builders include a strict prefix of
// this list, stopping at the first width the register cannot hold.
type lane struct {
	width    uint32
	leaf     *Type
	vectorID string
	outerID  string
	field    string
}

var lanes = []lane{
	{1, Uint8, "bytes", "vector8", "b"},
	{2, Uint16, "shorts", "vector16", "s"},
	{4, Uint32, "words", "vector32", "w"},
	{8, Uint64, "longs", "vector64", "l"},
	{16, Uint128, "quads", "vector128", "q"},
}
