// Package formats maps files on disk to containers. Each supported
// format has one adapter; Load sniffs the format and dispatches.
//
// Gzip is transparent for stream-oriented formats (text, IMF): a .gz
// source is decompressed on the fly, in parallel for large files.
// Seek-oriented formats (NetCDF, HDF5, parquet) must be uncompressed
// on disk first.
package formats

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/pgzip"

	"github.com/swxlab/swx-data-apps/internal/container"
	"github.com/swxlab/swx-data-apps/internal/swdata"
)

// ErrUnsupported reports a recognized format this toolkit has no
// native reader for. It always travels together with
// container.ErrFormat.
var ErrUnsupported = errors.New("unsupported format")

// Format identifies a file format.
type Format string

const (
	FormatIMF     Format = "swmf-imf"
	FormatText    Format = "text"
	FormatNetCDF  Format = "netcdf3"
	FormatHDF5    Format = "hdf5"
	FormatParquet Format = "parquet"
	FormatCDF     Format = "nasa-cdf"
	FormatIDLSave Format = "idl-save"
	FormatUnknown Format = "unknown"
)

// Magic numbers, after any gzip wrapper.
var (
	magicHDF5    = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}
	magicNetCDF  = []byte("CDF") // followed by 0x01 or 0x02
	magicParquet = []byte("PAR1")
	magicCDFv3   = []byte{0xcd, 0xf3, 0x00, 0x01}
	magicCDFv2   = []byte{0xcd, 0xf2, 0x60, 0x02}
	magicIDLSave = []byte{'S', 'R', 0x00, 0x04}
	magicGzip    = []byte{0x1f, 0x8b}
)

// sniffLen is enough to find the IMF #START sentinel past a header.
const sniffLen = 4096

// bigFileThreshold switches gzip decompression to the parallel reader.
const bigFileThreshold = 64 << 20

// Detect determines the format of the file at path by magic number,
// looking through a gzip wrapper when present. Plain text with an
// SWMF #START sentinel is classified as FormatIMF.
func Detect(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FormatUnknown, err
	}
	head = head[:n]

	if bytes.HasPrefix(head, magicGzip) {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return FormatUnknown, err
		}
		gz, err := gzip.NewReader(f)
		if err != nil {
			return FormatUnknown, fmt.Errorf("%w: %s: bad gzip stream: %v", container.ErrFormat, filepath.Base(path), err)
		}
		defer gz.Close()

		inner := make([]byte, sniffLen)
		n, err := io.ReadFull(gz, inner)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return FormatUnknown, err
		}
		head = inner[:n]
	}

	return classify(head), nil
}

func classify(head []byte) Format {
	switch {
	case bytes.HasPrefix(head, magicHDF5):
		return FormatHDF5
	case bytes.HasPrefix(head, magicCDFv3), bytes.HasPrefix(head, magicCDFv2):
		return FormatCDF
	case bytes.HasPrefix(head, magicIDLSave):
		return FormatIDLSave
	case bytes.HasPrefix(head, magicParquet):
		return FormatParquet
	case len(head) >= 4 && bytes.HasPrefix(head, magicNetCDF) && (head[3] == 0x01 || head[3] == 0x02):
		return FormatNetCDF
	case bytes.Contains(head, []byte("#START")):
		return FormatIMF
	case looksTextual(head):
		return FormatText
	default:
		return FormatUnknown
	}
}

// looksTextual rejects anything with NUL bytes in the sniff window.
func looksTextual(head []byte) bool {
	if len(head) == 0 {
		return false
	}
	return !bytes.ContainsRune(head, 0)
}

// Load reads the file at path into a container, dispatching on the
// detected format. CDF and IDL save sets are recognized but have no
// pure-Go reader; they fail with ErrUnsupported rather than being
// misread.
func Load(path string) (*container.Container, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, err
	}
	base := filepath.Base(path)

	switch format {
	case FormatIMF:
		r, err := openReader(path)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		c, _, err := swdata.ReadIMF(r, strings.TrimSuffix(base, ".gz"))
		return c, err

	case FormatText:
		r, err := openReader(path)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return LoadTable(r, strings.TrimSuffix(base, ".gz"))

	case FormatNetCDF, FormatHDF5:
		return LoadNetCDF(path)

	case FormatParquet:
		return LoadParquet(path)

	case FormatCDF:
		return nil, fmt.Errorf("%w: %w: %s: NASA CDF (convert to NetCDF first)", container.ErrFormat, ErrUnsupported, base)

	case FormatIDLSave:
		return nil, fmt.Errorf("%w: %w: %s: IDL save set (export to a portable format first)", container.ErrFormat, ErrUnsupported, base)

	default:
		return nil, fmt.Errorf("%w: %w: %s", container.ErrFormat, ErrUnsupported, base)
	}
}

// openReader opens path for streaming, decompressing .gz transparently.
// Large gzip files get the parallel reader.
func openReader(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(strings.ToLower(path), ".gz") {
		return f, nil
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	var gz io.ReadCloser
	if info.Size() >= bigFileThreshold {
		gz, err = pgzip.NewReaderN(f, 256*1024, runtime.NumCPU())
	} else {
		gz, err = gzip.NewReader(f)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: bad gzip stream: %v", container.ErrFormat, filepath.Base(path), err)
	}

	return &readCloser{Reader: gz, closers: []io.Closer{gz, f}}, nil
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
