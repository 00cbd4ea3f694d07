// Package render formats test cases for humans.
package render

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tonylturner/enipfuzz/internal/enip"
	"github.com/tonylturner/enipfuzz/internal/testcase"
)

// TestCaseView describes a test case to render. Patched is optional; when
// set, a second column shows the outbound bytes and substituted fields are
// highlighted.
type TestCaseView struct {
	Title    string
	Original []byte
	Patched  []byte
	Frame    *testcase.Frame
}

type fieldRow struct {
	name   string
	offset int
	size   int
	format func([]byte) string
}

var headerRows = []fieldRow{
	{"Command", 0, 2, func(b []byte) string {
		c := enip.Command(binary.LittleEndian.Uint16(b))
		return fmt.Sprintf("0x%04X %s", uint16(c), c)
	}},
	{"Length", 2, 2, func(b []byte) string {
		return fmt.Sprintf("%d", binary.LittleEndian.Uint16(b))
	}},
	{"Session Handle", 4, 4, func(b []byte) string {
		return fmt.Sprintf("0x%08X", binary.LittleEndian.Uint32(b))
	}},
	{"Status", 8, 4, func(b []byte) string {
		s := enip.Status(binary.LittleEndian.Uint32(b))
		return fmt.Sprintf("0x%08X %s", uint32(s), s)
	}},
	{"Sender Context", 12, 8, func(b []byte) string {
		return fmt.Sprintf("% X", b)
	}},
	{"Options", 20, 4, func(b []byte) string {
		return fmt.Sprintf("0x%08X", binary.LittleEndian.Uint32(b))
	}},
}

// RenderTestCase returns a header breakdown and hex dump of v.
func RenderTestCase(st Styles, v TestCaseView) string {
	var sb strings.Builder

	title := v.Title
	if title == "" {
		title = "Test case"
	}
	sb.WriteString(st.Title.Render(title))
	sb.WriteString(st.Dim.Render(fmt.Sprintf("  (%d bytes)", len(v.Original))))
	sb.WriteString("\n")

	if v.Frame != nil {
		sb.WriteString(st.Dim.Render(fmt.Sprintf("from capture %s %s:%d -> %s:%d",
			v.Frame.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z"),
			v.Frame.SrcIP, v.Frame.SrcPort, v.Frame.DstIP, v.Frame.DstPort)))
		sb.WriteString("\n")
	}

	if len(v.Original) < enip.HeaderSize {
		sb.WriteString(st.Error.Render(fmt.Sprintf("Malformed: %d bytes, an encapsulation header needs %d",
			len(v.Original), enip.HeaderSize)))
		sb.WriteString("\n")
		sb.WriteString(st.Box.Render(strings.TrimRight(testcase.HexDump(v.Original, 16), "\n")))
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString(st.Box.Render(renderHeaderTable(st, v)))
	sb.WriteString("\n")

	if declared := binary.LittleEndian.Uint16(v.Original[2:4]); int(declared) != len(v.Original)-enip.HeaderSize {
		sb.WriteString(st.Warning.Render(fmt.Sprintf("Length field says %d payload bytes, buffer carries %d",
			declared, len(v.Original)-enip.HeaderSize)))
		sb.WriteString("\n")
	}

	dump := v.Original
	dumpTitle := "Bytes"
	if v.Patched != nil {
		dump = v.Patched
		dumpTitle = "Outbound bytes"
	}
	sb.WriteString(st.Header.Render(dumpTitle))
	sb.WriteString("\n")
	sb.WriteString(st.Box.Render(strings.TrimRight(testcase.HexDump(dump, 16), "\n")))
	sb.WriteString("\n")

	return sb.String()
}

func renderHeaderTable(st Styles, v TestCaseView) string {
	var lines []string

	head := st.Label.Render("Field") + st.Header.Render(fmt.Sprintf("%-28s", "Test case"))
	if v.Patched != nil {
		head += st.Header.Render("Outbound")
	}
	lines = append(lines, head)

	for _, row := range headerRows {
		orig := v.Original[row.offset : row.offset+row.size]
		line := st.Label.Render(row.name) + st.Base.Render(fmt.Sprintf("%-28s", row.format(orig)))
		if v.Patched != nil {
			patched := v.Patched[row.offset : row.offset+row.size]
			cell := row.format(patched)
			if string(patched) != string(orig) {
				line += st.Changed.Render(cell)
			} else {
				line += st.Dim.Render(cell)
			}
		}
		lines = append(lines, line)
	}

	payload := len(v.Original) - enip.HeaderSize
	lines = append(lines, st.Label.Render("Payload")+st.Base.Render(fmt.Sprintf("%d bytes", payload)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
