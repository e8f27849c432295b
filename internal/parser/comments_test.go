package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripVHDLCommentsPreservesColumns(t *testing.T) {
	text := "signal x : std_logic; -- trailing note\nentity foo is"
	lines := stripVHDLComments(text)
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "signal x : std_logic; "))
	require.NotContains(t, lines[0], "--")
	require.Equal(t, len("signal x : std_logic; -- trailing note"), len(lines[0]))
	require.Equal(t, "entity foo is", lines[1])
}

func TestStripCLikeCommentsHandlesLineAndBlock(t *testing.T) {
	text := "module foo; // line comment\n/* block\n   spanning */ wire a;"
	lines := stripCLikeComments(text)
	require.Len(t, lines, 3)
	require.Equal(t, "module foo; "+strings.Repeat(" ", len("// line comment")), lines[0])
	require.NotContains(t, lines[1], "block")
	require.Contains(t, lines[2], "wire a;")
	require.NotContains(t, lines[2], "spanning")
}

func TestFindCommentTagsVHDL(t *testing.T) {
	text := "signal x : integer; -- TODO: widen this\nsignal y : integer; -- done"
	tags := FindCommentTags(text, false)
	require.Len(t, tags, 1)
	require.Equal(t, "TODO", tags[0].Tag)
	require.Equal(t, "widen this", tags[0].Message)
	require.Equal(t, 1, tags[0].Line)
}

func TestFindCommentTagsVerilogBlockComment(t *testing.T) {
	text := "/* FIXME - rewrite this block */\nwire a;"
	tags := FindCommentTags(text, true)
	require.Len(t, tags, 1)
	require.Equal(t, "FIXME", tags[0].Tag)
	require.Equal(t, "rewrite this block", tags[0].Message)
}
