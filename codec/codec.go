// Package codec encodes training summaries and the byte streams that
// carry them.
//
// A Codec turns a document into bytes; a Compression wraps the stream.
// Paths select the compression by extension, so a file written by Encode
// is read back by Decode with the same path.
package codec

import (
	"errors"
	"fmt"
	"io"
)

// ErrUnknownCodec is returned by Lookup for unregistered names.
var ErrUnknownCodec = errors.New("unknown codec")

// Codec encodes/decodes documents.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	MarshalIndent(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used when none is named.
var Default Codec = GoJSON{}

// Lookup returns a built-in codec by its stable name. The empty name
// selects Default.
func Lookup(name string) (Codec, error) {
	switch name {
	case "":
		return Default, nil
	case "json":
		return JSON{}, nil
	case "go-json":
		return GoJSON{}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownCodec, name)
	}
}

// Encode writes v as one indented document, newline terminated, through
// compression comp. w is not closed.
func Encode(w io.Writer, cd Codec, comp Compression, v any) error {
	data, err := cd.MarshalIndent(v)
	if err != nil {
		return fmt.Errorf("%s: encoding: %w", cd.Name(), err)
	}
	cw, err := NewWriter(w, comp)
	if err != nil {
		return err
	}
	if _, err := cw.Write(append(data, '\n')); err != nil {
		_ = cw.Close()
		return err
	}
	return cw.Close()
}

// Decode reads one document from r through compression comp into v.
func Decode(r io.Reader, cd Codec, comp Compression, v any) error {
	cr, err := NewReader(r, comp)
	if err != nil {
		return err
	}
	defer cr.Close()
	data, err := io.ReadAll(cr)
	if err != nil {
		return err
	}
	if err := cd.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: decoding: %w", cd.Name(), err)
	}
	return nil
}
