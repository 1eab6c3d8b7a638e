package resources

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// TextOption configures the decoder wrapped around a binary stream when a
// file is opened in text mode.
type TextOption func(*textOptions)

type textOptions struct {
	encoding         string
	universalNewline bool
	replace          bool
}

// WithEncoding selects the text encoding by name (for example "utf-8",
// "latin1", "shift_jis"). IANA names are tried first, so "iso-8859-1" is
// ISO-8859-1 and not windows-1252; WHATWG labels are the fallback. Empty
// means UTF-8.
func WithEncoding(name string) TextOption {
	return func(o *textOptions) { o.encoding = name }
}

// WithUniversalNewlines translates "\r\n" and lone "\r" to "\n".
func WithUniversalNewlines() TextOption {
	return func(o *textOptions) { o.universalNewline = true }
}

// WithReplacement decodes malformed input to U+FFFD instead of failing
// the read with ErrUndecodable.
func WithReplacement() TextOption {
	return func(o *textOptions) { o.replace = true }
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		return unicode.UTF8, nil
	}
	// ianaindex returns a nil encoding for registered but unsupported names.
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return enc, nil
}

// decoderFor returns the decoding transformer for enc. Unless replace is
// set, malformed input fails the read.
func decoderFor(enc encoding.Encoding, replace bool) transform.Transformer {
	switch {
	case replace:
		return enc.NewDecoder()
	case enc == unicode.UTF8:
		return strictUTF8{}
	default:
		return transform.Chain(enc.NewDecoder(), rejectReplacement{})
	}
}

// textReader decodes a binary stream and closes it on Close.
type textReader struct {
	io.Reader
	src io.Closer
}

func (r *textReader) Close() error { return r.src.Close() }

// newTextReader wraps bin in a decoder configured by opts. On error bin is
// closed before returning.
func newTextReader(bin io.ReadCloser, opts ...TextOption) (io.ReadCloser, error) {
	var o textOptions
	for _, opt := range opts {
		opt(&o)
	}
	enc, err := lookupEncoding(o.encoding)
	if err != nil {
		_ = bin.Close()
		return nil, err
	}

	t := decoderFor(enc, o.replace)
	if o.universalNewline {
		t = transform.Chain(t, newlineTransformer{})
	}
	return &textReader{Reader: transform.NewReader(bin, t), src: bin}, nil
}

// newlineTransformer maps "\r\n" and "\r" to "\n".
type newlineTransformer struct{ transform.NopResetter }

func (newlineTransformer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		c := src[nSrc]
		if c == '\r' {
			// A trailing '\r' may be the first half of "\r\n".
			if nSrc+1 == len(src) && !atEOF {
				return nDst, nSrc, transform.ErrShortSrc
			}
			if nDst >= len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst] = '\n'
			nDst++
			nSrc++
			if nSrc < len(src) && src[nSrc] == '\n' {
				nSrc++
			}
			continue
		}
		if nDst >= len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		dst[nDst] = c
		nDst++
		nSrc++
	}
	return nDst, nSrc, nil
}

// strictUTF8 passes valid UTF-8 through unchanged.
type strictUTF8 struct{ transform.NopResetter }

func (strictUTF8) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	nDst, nSrc, err = encoding.UTF8Validator.Transform(dst, src, atEOF)
	if errors.Is(err, encoding.ErrInvalidUTF8) {
		err = fmt.Errorf("%w: %w", ErrUndecodable, err)
	}
	return nDst, nSrc, err
}

// rejectReplacement fails on the U+FFFD a decoder emits for bytes it cannot
// map. Its input is decoder output and so always valid UTF-8.
type rejectReplacement struct{ transform.NopResetter }

func (rejectReplacement) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if !atEOF && !utf8.FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError {
			return nDst, nSrc, ErrUndecodable
		}
		if nDst+size > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], src[nSrc:nSrc+size])
		nSrc += size
	}
	return nDst, nSrc, nil
}
