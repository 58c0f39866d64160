package sourcecode

import (
	"fmt"
	"sync"
)

type NodeSpan struct {
	Start int32 `json:"start"`
	End   int32 `json:"end"` //exclusive
}

type PositionRange struct {
	SourceName  string   `json:"sourceName"`
	StartLine   int32    `json:"line"`
	StartColumn int32    `json:"column"`
	Span        NodeSpan `json:"span"`
}

func (pos PositionRange) String() string {
	if pos.StartLine == 0 {
		//the source code was not available when the position was computed
		return fmt.Sprintf("%s:@%d-%d:", pos.SourceName, pos.Span.Start, pos.Span.End)
	}
	return fmt.Sprintf("%s:%d:%d:", pos.SourceName, pos.StartLine, pos.StartColumn)
}

// A SourceFile associates a source name with the code it contains and maps
// node spans to line:column positions. The code may be empty (e.g. when only
// a compiler-emitted AST is available): positions then only carry the span.
type SourceFile struct {
	name string
	code string

	lock       sync.Mutex
	lineStarts []int32 //computed lazily, always starts with 0
}

func NewSourceFile(name string, code string) *SourceFile {
	return &SourceFile{name: name, code: code}
}

func (f *SourceFile) Name() string {
	return f.name
}

func (f *SourceFile) Code() string {
	return f.code
}

func (f *SourceFile) GetSourcePosition(span NodeSpan) PositionRange {
	pos := PositionRange{
		SourceName: f.name,
		Span:       span,
	}

	if f.code == "" {
		return pos
	}

	line, col := f.GetSpanLineColumn(span)
	pos.StartLine = line
	pos.StartColumn = col
	return pos
}

// GetSpanLineColumn returns the 1-based line and column of the span's start.
func (f *SourceFile) GetSpanLineColumn(span NodeSpan) (int32, int32) {
	starts := f.getLineStarts()

	offset := span.Start
	if offset > int32(len(f.code)) {
		offset = int32(len(f.code))
	}
	if offset < 0 {
		offset = 0
	}

	//binary search for the last line start <= offset
	lo, hi := 0, len(starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if starts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	return int32(lo) + 1, offset - starts[lo] + 1
}

func (f *SourceFile) getLineStarts() []int32 {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.lineStarts == nil {
		starts := []int32{0}
		for i, r := range f.code {
			if r == '\n' {
				starts = append(starts, int32(i)+1)
			}
		}
		f.lineStarts = starts
	}
	return f.lineStarts
}
