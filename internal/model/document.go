package model

// Kind identifies the value type of a configuration quantity. The flat-file
// text representation of each kind is what the model's list-directed Fortran
// reader expects.
type Kind int

const (
	Real Kind = iota // real(kind=dp); rendered in d-exponent scientific notation
	Int
	Str
	Datetime // rendered as "yyyy-mm-dd hh:mm:ss"
	Bool     // rendered as .true. / .false.
	RealList // whitespace separated d-exponent reals
	IntList  // whitespace separated integers
)

func (k Kind) String() string {
	switch k {
	case Real:
		return "real"
	case Int:
		return "int"
	case Str:
		return "string"
	case Datetime:
		return "datetime"
	case Bool:
		return "boolean"
	case RealList:
		return "real list"
	case IntList:
		return "int list"
	}
	return "unknown"
}

// Quantity is one leaf of a configuration document. Value holds the
// canonical in-memory form for the field's kind: float64, int, string,
// time.Time, bool, []float64 or []int. Units is empty when the quantity
// is unitless. VarName is informational only; it names the variable the
// model executable stores the quantity in.
type Quantity struct {
	Value       any
	Units       string
	VarName     string
	Description string
}

// Document is a parsed configuration document. Quantities are keyed by
// dotted document path (e.g. "grid.model_depth"). Emission order is the
// schema's business, not the document's, so no order is kept here.
type Document struct {
	Quantities map[string]*Quantity
}

func NewDocument() *Document {
	return &Document{Quantities: make(map[string]*Quantity)}
}

// Copy returns a deep copy of the document. Slice values are cloned so
// edits applied to the copy cannot alias the original.
func (d *Document) Copy() *Document {
	out := NewDocument()
	for path, q := range d.Quantities {
		dup := *q
		switch v := q.Value.(type) {
		case []float64:
			dup.Value = append([]float64(nil), v...)
		case []int:
			dup.Value = append([]int(nil), v...)
		}
		out.Quantities[path] = &dup
	}
	return out
}

// Record is one emitted flat-file line: key, formatted value text, and the
// description phrase (units already folded in as a trailing "[units]" pair).
type Record struct {
	Key         string
	Value       string
	Description string
}

// DatetimeLayout is the timestamp format the model executable reads.
const DatetimeLayout = "2006-01-02 15:04:05"
