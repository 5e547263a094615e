package output

import (
	"io"

	"github.com/ccollicutt/logslice/pkg/parser"
)

// Emitter writes formatted records, one per line.
type Emitter struct {
	w    io.Writer
	plan *EmitPlan
}

// NewEmitter creates an Emitter writing to w according to plan.
func NewEmitter(w io.Writer, plan *EmitPlan) *Emitter {
	return &Emitter{w: w, plan: plan}
}

// Emit writes one record.
func (e *Emitter) Emit(rec *parser.Record) error {
	_, err := io.WriteString(e.w, e.plan.Format(rec)+"\n")
	return err
}
