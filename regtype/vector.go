package regtype

// BuildVector builds the type descriptor for one vector register of vlenb
// bytes. This is roughly the remote-protocol description the result
// renders to for vlenb=16:
//
//	<vector id="bytes" type="uint8" count="16"/>
//	<vector id="shorts" type="uint16" count="8"/>
//	<vector id="words" type="uint32" count="4"/>
//	<vector id="longs" type="uint64" count="2"/>
//	<vector id="quads" type="uint128" count="1"/>
//	<union id="riscv_vector">
//	  <field name="b" type="bytes"/>
//	  <field name="s" type="shorts"/>
//	  <field name="w" type="words"/>
//	  <field name="l" type="longs"/>
//	  <field name="q" type="quads"/>
//	</union>
//
// A width contributes a field only while vlenb >= width, so the field list
// is always a prefix of b,s,w,l,q. Rebuilding with the same vlenb yields a
// structurally identical tree.
func BuildVector(vlenb uint32) *Type {
	var fields []Field
	for _, ln := range lanes {
		if vlenb < ln.width {
			break
		}
		fields = append(fields, Field{
			Name: ln.field,
			Type: &Type{
				Kind:  KindVector,
				ID:    ln.vectorID,
				Elem:  ln.leaf,
				Count: vlenb / ln.width,
			},
		})
	}
	return &Type{Kind: KindUnion, ID: "riscv_vector", Fields: fields}
}
