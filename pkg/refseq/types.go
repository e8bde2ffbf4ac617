// Package refseq implements the reference-sequence catalog (§4.4): an
// emitter for the _gri_refseq table's DDL/DML, plus read-side lookups that
// snapshot it into in-memory maps. Like pkg/gri, the write-side operations
// return SQL text; only the read-side lookups touch a *sql.DB.
package refseq

// TableName is the fixed name of the reference-sequence catalog table.
const TableName = "_gri_refseq"

// Refseq mirrors one row of _gri_refseq (§3 "Reference catalog").
type Refseq struct {
	Rid      int64
	Name     string
	Length   int64
	Assembly string // empty if unset
	RefgetID string // empty if unset
	MetaJSON string // canonical JSON object text, "{}" if unset
}
