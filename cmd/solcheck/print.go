package main

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"

	"github.com/isachard/solcheck/internal/analysis"
)

type diagnosticPrinter struct {
	w   io.Writer
	out *termenv.Output
}

func newDiagnosticPrinter(w io.Writer, noColor bool) *diagnosticPrinter {
	opts := []termenv.OutputOption{}
	if noColor {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}

	return &diagnosticPrinter{
		w:   w,
		out: termenv.NewOutput(w, opts...),
	}
}

func (p *diagnosticPrinter) print(diagnostic *analysis.AnalysisError) {
	location := p.out.String(diagnostic.Location.String()).Bold()
	message := p.out.String(diagnostic.MessageWithoutLocation()).Foreground(termenv.ANSIRed)

	fmt.Fprintf(p.w, "%s %s\n", location, message)

	for _, secondary := range diagnostic.Secondary {
		note := p.out.String(secondary.Label + secondary.Location.String()).Faint()
		fmt.Fprintf(p.w, "    %s\n", note)
	}
}
