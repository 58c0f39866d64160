package sourcecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetSpanLineColumn(t *testing.T) {
	file := NewSourceFile("test.sol", "contract C {\n  uint x;\n}\n")

	t.Run("start of file", func(t *testing.T) {
		line, col := file.GetSpanLineColumn(NodeSpan{Start: 0, End: 8})
		assert.EqualValues(t, 1, line)
		assert.EqualValues(t, 1, col)
	})

	t.Run("middle of second line", func(t *testing.T) {
		line, col := file.GetSpanLineColumn(NodeSpan{Start: 15, End: 19})
		assert.EqualValues(t, 2, line)
		assert.EqualValues(t, 3, col)
	})

	t.Run("last line", func(t *testing.T) {
		line, col := file.GetSpanLineColumn(NodeSpan{Start: 23, End: 24})
		assert.EqualValues(t, 3, line)
		assert.EqualValues(t, 1, col)
	})

	t.Run("offset past the end is clamped", func(t *testing.T) {
		line, _ := file.GetSpanLineColumn(NodeSpan{Start: 10_000, End: 10_001})
		assert.EqualValues(t, 4, line)
	})
}

func TestGetSourcePosition(t *testing.T) {
	t.Run("with code", func(t *testing.T) {
		file := NewSourceFile("a.sol", "pragma solidity ^0.8.0;\n")
		pos := file.GetSourcePosition(NodeSpan{Start: 0, End: 23})

		assert.Equal(t, "a.sol:1:1:", pos.String())
	})

	t.Run("without code only the span is reported", func(t *testing.T) {
		file := NewSourceFile("a.sol", "")
		pos := file.GetSourcePosition(NodeSpan{Start: 5, End: 9})

		assert.Zero(t, pos.StartLine)
		assert.Equal(t, "a.sol:@5-9:", pos.String())
	})
}
