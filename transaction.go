package libjournal

import "github.com/jio/libjournal/internal/txn"

// Transaction is an ordered collection of read and write operations
// that commits atomically: either every write lands durably, or none
// of them do. Build one with Handle.NewTransaction, add operations
// with AddWrite/AddRead, and finish with Commit.
type Transaction struct {
	inner *txn.Transaction
}

// ID returns the transaction's identifier. It is only meaningful once
// Commit has begun durability (after the transaction leaves the
// BUILDING state).
func (t *Transaction) ID() uint32 { return t.inner.ID() }

// AddWrite appends a write operation: buf's bytes will be placed at
// offset when the transaction commits. The transaction copies buf, so
// the caller may reuse or discard it immediately after this call
// returns.
func (t *Transaction) AddWrite(offset int64, buf []byte) error {
	return wrapErr("add_w", t.inner.AddWrite(offset, buf))
}

// AddRead appends a read operation: dst will be filled with the bytes
// at offset, as they stood before any of this transaction's own
// writes, when the transaction commits. dst is written into directly,
// so its contents are only valid after Commit returns.
func (t *Transaction) AddRead(offset int64, dst []byte) error {
	return wrapErr("add_r", t.inner.AddRead(offset, dst))
}

// Commit runs the transaction's commit algorithm: acquire range locks,
// resolve reads, write and fsync a journal record (the durability
// point), apply writes to the data file, and — unless the handle is
// in linger mode — fsync the data file and remove the journal record.
func (t *Transaction) Commit() error {
	return wrapErr("commit", t.inner.Commit())
}
