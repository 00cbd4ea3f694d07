package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tonylturner/enipfuzz/internal/enip"
	"github.com/tonylturner/enipfuzz/internal/errors"
	"github.com/tonylturner/enipfuzz/internal/testcase"
)

// Output formats for RunPatch.
const (
	OutputRaw = "raw"
	OutputHex = "hex"
)

// PatchOptions configures an offline patch.
type PatchOptions struct {
	Source        SourceOptions
	ServerPort    int
	SessionHandle uint32
	SenderContext enip.SenderContext
	OutputPath    string // "-" writes to Out
	OutputFormat  string // OutputRaw or OutputHex
	Out           io.Writer
}

// RunPatch writes the bytes a delivery with the given session handle would
// send, without touching the network.
func RunPatch(opts PatchOptions) ([]byte, error) {
	format := strings.ToLower(opts.OutputFormat)
	if format == "" {
		format = OutputRaw
	}
	if format != OutputRaw && format != OutputHex {
		return nil, errors.NewUsageError(
			fmt.Sprintf("unknown output format %q (want raw or hex)", opts.OutputFormat),
			"enipfuzz patch TESTCASE_PATH --session HANDLE --output FILE [--output-format raw|hex]")
	}

	tc, err := loadTestCase(opts.Source, opts.ServerPort)
	if err != nil {
		return nil, err
	}
	patched, err := enip.PatchTestCase(tc.Data, opts.SessionHandle, opts.SenderContext)
	if err != nil {
		return nil, errors.WrapInputError(err, opts.Source.Path)
	}

	data := patched
	if format == OutputHex {
		data = []byte(testcase.FormatHex(patched))
	}

	if opts.OutputPath == "" || opts.OutputPath == "-" {
		out := opts.Out
		if out == nil {
			out = os.Stdout
		}
		if _, err := out.Write(data); err != nil {
			return nil, fmt.Errorf("%w: write patched test case: %w", errors.ErrIO, err)
		}
		return patched, nil
	}

	if err := os.WriteFile(opts.OutputPath, data, 0o644); err != nil {
		return nil, errors.WrapInputError(fmt.Errorf("%w: write patched test case: %w", errors.ErrIO, err), opts.OutputPath)
	}
	return patched, nil
}
