// Package assistant parses streamed model output into text and tool-use
// blocks. The wire format is XML-like: the tag name is the tool
// identifier and child tags are parameters. A block whose closing tag has
// not arrived yet is marked partial; partial blocks are re-emitted as the
// stream grows and must never commit side effects.
package assistant

import (
	"regexp"
	"strings"
)

// BlockType discriminates parsed content blocks.
type BlockType int

const (
	// BlockText is plain assistant prose.
	BlockText BlockType = iota
	// BlockToolUse is a structured tool invocation.
	BlockToolUse
)

// ToolUse is a parsed request to invoke one tool.
type ToolUse struct {
	Name    string
	Params  map[string]string
	Partial bool
}

// Param returns the named parameter with surrounding whitespace trimmed.
func (t *ToolUse) Param(name string) (string, bool) {
	v, ok := t.Params[name]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// RawParam returns the named parameter verbatim, preserving indentation.
func (t *ToolUse) RawParam(name string) (string, bool) {
	v, ok := t.Params[name]
	return v, ok
}

// Block is one ordered segment of an assistant message.
type Block struct {
	Type    BlockType
	Text    string   // BlockText
	Tool    *ToolUse // BlockToolUse
	Partial bool
}

var paramTagRe = regexp.MustCompile(`^<([a-z][a-z0-9_]*)>`)

// Parse splits an assistant message into ordered text and tool-use
// blocks. toolNames is the closed set of recognized tool tags; anything
// else stays prose. Parsing the same text again after more stream chunks
// arrive re-yields grown partial blocks idempotently.
func Parse(text string, toolNames []string) []Block {
	known := make(map[string]bool, len(toolNames))
	for _, n := range toolNames {
		known[n] = true
	}

	var blocks []Block
	rest := text

	for rest != "" {
		name, at := nextToolTag(rest, known)
		if at < 0 {
			blocks = appendText(blocks, rest, false)
			break
		}

		if at > 0 {
			blocks = appendText(blocks, rest[:at], false)
		}

		body := rest[at+len(name)+2:] // past "<name>"
		tool, consumed := parseToolBody(name, body)
		blocks = append(blocks, Block{Type: BlockToolUse, Tool: tool, Partial: tool.Partial})

		if tool.Partial {
			// The block is still streaming; nothing after it is parseable yet.
			break
		}
		rest = body[consumed:]
	}

	return blocks
}

// nextToolTag finds the earliest opening tag of a known tool, returning
// its name and byte offset, or -1 when none occurs.
func nextToolTag(s string, known map[string]bool) (string, int) {
	bestAt := -1
	bestName := ""
	for name := range known {
		tag := "<" + name + ">"
		if at := strings.Index(s, tag); at >= 0 && (bestAt < 0 || at < bestAt) {
			bestAt = at
			bestName = name
		}
	}
	return bestName, bestAt
}

// parseToolBody parses parameter tags until the tool's closing tag.
// Returns the tool and how many bytes of body were consumed (including
// the closing tag) when the block is complete.
func parseToolBody(name, body string) (*ToolUse, int) {
	tool := &ToolUse{Name: name, Params: make(map[string]string)}
	closing := "</" + name + ">"

	pos := 0
	for {
		// Close of the tool block ends parsing.
		remaining := body[pos:]
		trimmed := strings.TrimLeft(remaining, " \t\r\n")
		skipped := len(remaining) - len(trimmed)

		if strings.HasPrefix(trimmed, closing) {
			return tool, pos + skipped + len(closing)
		}

		m := paramTagRe.FindStringSubmatch(trimmed)
		if m == nil {
			if end := strings.Index(remaining, closing); end >= 0 {
				// Unstructured content before the closing tag is ignored.
				return tool, pos + end + len(closing)
			}
			// Still streaming: no parameter tag and no closing tag yet.
			tool.Partial = true
			return tool, 0
		}

		param := m[1]
		valueStart := pos + skipped + len(m[0])
		closeTag := "</" + param + ">"

		end := strings.Index(body[valueStart:], closeTag)
		if end < 0 {
			// Parameter value still streaming.
			tool.Params[param] = trimLeadingNewline(body[valueStart:])
			tool.Partial = true
			return tool, 0
		}

		tool.Params[param] = trimValue(body[valueStart : valueStart+end])
		pos = valueStart + end + len(closeTag)
	}
}

// trimValue strips the single newline the model conventionally emits
// after an opening tag and before a closing tag, preserving interior
// whitespace and indentation.
func trimValue(s string) string {
	s = trimLeadingNewline(s)
	if strings.HasSuffix(s, "\r\n") {
		return s[:len(s)-2]
	}
	return strings.TrimSuffix(s, "\n")
}

func trimLeadingNewline(s string) string {
	s = strings.TrimPrefix(s, "\r\n")
	return strings.TrimPrefix(s, "\n")
}

func appendText(blocks []Block, text string, partial bool) []Block {
	if strings.TrimSpace(text) == "" {
		return blocks
	}
	return append(blocks, Block{Type: BlockText, Text: strings.TrimSpace(text), Partial: partial})
}
