package parser

import "strings"

// stripVHDLComments blanks out "-- ..." trailing comments on every line,
// replacing the comment body with spaces so that column positions of any
// remaining tokens are unaffected.
func stripVHDLComments(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, "--"); idx >= 0 {
			lines[i] = line[:idx] + strings.Repeat(" ", len(line)-idx)
		}
	}
	return lines
}

// stripCLikeComments blanks out "// ..." and "/* ... */" comments
// (the latter possibly spanning multiple lines), preserving line count
// and column positions of surviving tokens.
func stripCLikeComments(text string) []string {
	lines := strings.Split(text, "\n")
	inBlock := false
	for i, line := range lines {
		var b strings.Builder
		b.Grow(len(line))
		r := []rune(line)
		j := 0
		for j < len(r) {
			if inBlock {
				if j+1 < len(r) && r[j] == '*' && r[j+1] == '/' {
					b.WriteString("  ")
					inBlock = false
					j += 2
					continue
				}
				b.WriteByte(' ')
				j++
				continue
			}
			if j+1 < len(r) && r[j] == '/' && r[j+1] == '/' {
				b.WriteString(strings.Repeat(" ", len(r)-j))
				j = len(r)
				continue
			}
			if j+1 < len(r) && r[j] == '/' && r[j+1] == '*' {
				b.WriteString("  ")
				inBlock = true
				j += 2
				continue
			}
			b.WriteRune(r[j])
			j++
		}
		lines[i] = b.String()
	}
	return lines
}

// CommentTag captures a FIXME/TODO/XXX tag and its trailing message found
// in a raw (not comment-stripped) source text, used by the static checker
// (spec §4.5).
type CommentTag struct {
	Tag     string
	Message string
	Line    int
	Col     int
}

var tagKeywords = [...]string{"FIXME", "TODO", "XXX"}

// FindCommentTags scans raw VHDL/Verilog text for FIXME/TODO/XXX markers
// inside either comment style, returning each with its trailing text.
func FindCommentTags(text string, verilogStyle bool) []CommentTag {
	var tags []CommentTag
	lines := strings.Split(text, "\n")
	for lineNo, line := range lines {
		commentStart := -1
		if verilogStyle {
			if idx := strings.Index(line, "//"); idx >= 0 {
				commentStart = idx
			}
			if idx := strings.Index(line, "/*"); idx >= 0 && (commentStart < 0 || idx < commentStart) {
				commentStart = idx
			}
		} else if idx := strings.Index(line, "--"); idx >= 0 {
			commentStart = idx
		}
		if commentStart < 0 {
			continue
		}
		body := line[commentStart:]
		for _, kw := range tagKeywords {
			idx := strings.Index(body, kw)
			if idx < 0 {
				continue
			}
			msg := strings.TrimSpace(strings.TrimLeft(body[idx+len(kw):], ":- \t*/"))
			msg = strings.TrimSpace(strings.TrimSuffix(msg, "*/"))
			tags = append(tags, CommentTag{
				Tag:     kw,
				Message: msg,
				Line:    lineNo + 1,
				Col:     commentStart + idx + 1,
			})
		}
	}
	return tags
}
