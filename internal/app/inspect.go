package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"

	"github.com/tonylturner/enipfuzz/internal/enip"
	"github.com/tonylturner/enipfuzz/internal/errors"
	"github.com/tonylturner/enipfuzz/internal/render"
	"github.com/tonylturner/enipfuzz/internal/testcase"
)

// InspectOptions configures the inspect view.
type InspectOptions struct {
	Source        SourceOptions
	ServerPort    int
	SessionHandle *uint32 // when set, show the patched bytes next to the original
	SenderContext enip.SenderContext
	Copy          bool // copy the outbound hex to the clipboard
	Out           io.Writer
}

// RunInspect prints a header breakdown and hex dump of a test case. Short
// test cases are shown rather than rejected, since inspecting them is how a
// malformed input gets diagnosed.
func RunInspect(opts InspectOptions) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	tc, err := loadTestCase(opts.Source, opts.ServerPort)
	if err != nil {
		return err
	}

	view := render.TestCaseView{
		Title:    fmt.Sprintf("%s [%s]", filepath.Base(tc.Path), tc.Format),
		Original: tc.Data,
		Frame:    tc.Frame,
	}
	outbound := tc.Data
	if opts.SessionHandle != nil && len(tc.Data) >= enip.HeaderSize {
		patched, err := enip.PatchTestCase(tc.Data, *opts.SessionHandle, opts.SenderContext)
		if err != nil {
			return errors.WrapInputError(err, tc.Path)
		}
		view.Patched = patched
		outbound = patched
	}

	styles := render.NewStyles(out, render.DefaultTheme)
	fmt.Fprint(out, render.RenderTestCase(styles, view))

	if opts.Copy {
		if err := clipboard.WriteAll(testcase.FormatHex(outbound)); err != nil {
			return fmt.Errorf("%w: copy to clipboard: %w", errors.ErrIO, err)
		}
		fmt.Fprintf(out, "Copied %d bytes as hex to clipboard\n", len(outbound))
	}
	return nil
}
