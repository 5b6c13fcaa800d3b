package txn

// OpKind distinguishes the two kinds of operation a transaction can
// carry.
type OpKind int

const (
	OpRead OpKind = iota
	OpWrite
)

// Op is one operation added to a transaction: a Write carries its
// payload in Buf; a Read carries its destination buffer in Buf, filled
// in place when the transaction commits.
type Op struct {
	Kind   OpKind
	Offset int64
	Buf    []byte
}

// End returns the exclusive end of the byte range this op touches.
func (o Op) End() int64 { return o.Offset + int64(len(o.Buf)) }
