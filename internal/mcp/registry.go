// ABOUTME: Fixed tool catalogue and cursor-paged listing
// ABOUTME: Cursor parsing is lenient; garbage and negatives mean page zero

package mcp

import (
	"encoding/json"
	"strconv"
)

// listPageSize is the number of tools returned per tools/list page.
const listPageSize = 10

// toolCatalogue is the complete set of callable tools in listing order.
// The schemas are emitted verbatim in tools/list results.
var toolCatalogue = []MCPToolInfo{
	{
		Name:        "openFile",
		Description: "Open a file for analysis",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"filePath":{"type":"string","description":"Path to the file to open"}},"required":["filePath"]}`),
	},
	{
		Name:        "closeFile",
		Description: "Close the currently open file",
		InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
	},
	{
		Name:        "runCommand",
		Description: "Run a radare2 command and get the output",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"command":{"type":"string","description":"Command to execute"}},"required":["command"]}`),
	},
	{
		Name:        "analyze",
		Description: "Run analysis on the current file",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"level":{"type":"string","description":"Analysis level (a, aa, aaa, aaaa)"}},"required":[]}`),
	},
	{
		Name:        "disassemble",
		Description: "Disassemble instructions at a given address",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"address":{"type":"string","description":"Address to start disassembly"},"numInstructions":{"type":"integer","description":"Number of instructions to disassemble"}},"required":["address"]}`),
	},
}

// parseCursor reads a leading decimal integer from a pagination cursor.
// Unparsable input and negative offsets both mean the first page. Offsets
// past the catalogue end are kept as-is and produce an empty page.
func parseCursor(cursor string) int {
	i := 0
	neg := false
	if i < len(cursor) && (cursor[i] == '+' || cursor[i] == '-') {
		neg = cursor[i] == '-'
		i++
	}
	n := 0
	for ; i < len(cursor) && cursor[i] >= '0' && cursor[i] <= '9'; i++ {
		n = n*10 + int(cursor[i]-'0')
		if n > len(toolCatalogue) {
			// Anything past the end pages the same way.
			n = len(toolCatalogue) + 1
		}
	}
	if neg {
		return 0
	}
	return n
}

// listTools returns one page of the catalogue. A missing, non-string, or
// unparsable cursor starts from the beginning. nextCursor is set only when
// a further page exists.
func listTools(params json.RawMessage) *MCPListToolsResult {
	var opts struct {
		Cursor *string `json:"cursor"`
	}
	if len(params) > 0 {
		// Undecodable params mean no cursor, not an error.
		_ = json.Unmarshal(params, &opts)
	}

	start := 0
	if opts.Cursor != nil {
		start = parseCursor(*opts.Cursor)
	}

	total := len(toolCatalogue)
	end := start + listPageSize
	if end > total {
		end = total
	}

	tools := make([]MCPToolInfo, 0, listPageSize)
	for i := start; i < end; i++ {
		tools = append(tools, toolCatalogue[i])
	}

	result := &MCPListToolsResult{Tools: tools}
	if end < total {
		result.NextCursor = strconv.Itoa(end)
	}
	return result
}
