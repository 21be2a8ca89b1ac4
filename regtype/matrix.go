package regtype

// MatrixTypes holds the two matrix register type descriptors of a target.
// Tile describes the tile registers (multiplier 1); Acc describes the
// accumulator registers, whose rows are mamul times wider.
type MatrixTypes struct {
	Tile *Type
	Acc  *Type
}

// BuildMatrix builds the matrix register type descriptors from the
// hardware-reported geometry: mlenb total bytes per register, mrlenb bytes
// per row, and the accumulator width multiplier mamul. A zero mrlenb means
// the matrix extension is absent and no types are produced.
func BuildMatrix(mlenb, mrlenb, mamul uint32) *MatrixTypes {
	if mrlenb == 0 {
		return nil
	}
	return &MatrixTypes{
		Tile: buildMatrixUnion(mlenb, mrlenb, 1),
		Acc:  buildMatrixUnion(mlenb, mrlenb, mamul),
	}
}

// buildMatrixUnion builds one matrix register type: per element width, an
// inner vector of mrlenb*mamul/width row elements wrapped in an outer
// vector of mlenb/mrlenb rows. Field inclusion follows the same ascending
// prefix rule as the vector register type, gated on mrlenb.
func buildMatrixUnion(mlenb, mrlenb, mamul uint32) *Type {
	rows := mlenb / mrlenb
	var fields []Field
	for _, ln := range lanes {
		if mrlenb < ln.width {
			break
		}
		inner := &Type{
			Kind:  KindVector,
			ID:    ln.vectorID,
			Elem:  ln.leaf,
			Count: mrlenb * mamul / ln.width,
		}
		outer := &Type{
			Kind:  KindVector,
			ID:    ln.outerID,
			Elem:  inner,
			Count: rows,
		}
		fields = append(fields, Field{Name: ln.field, Type: outer})
	}
	return &Type{Kind: KindUnion, ID: "riscv_matrix", Fields: fields}
}
