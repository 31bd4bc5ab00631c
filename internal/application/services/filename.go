package services

import (
	"mime"
	"path"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/unicode/norm"
)

const (
	maxFilenameBytes = 255
	fallbackFilename = "file"
	octetStream      = "application/octet-stream"
)

// normalizeFilename keeps the user's name readable: base name only,
// NFC form, no control characters, at most 255 bytes.
func normalizeFilename(original string) string {
	s := strings.TrimSpace(original)
	s = strings.ReplaceAll(s, "\\", "/")
	s = path.Base(s)

	if s == "." || s == ".." || s == "/" || s == "" {
		return fallbackFilename
	}

	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if r == utf8.RuneError || unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if s == "" {
		return fallbackFilename
	}

	if len(s) > maxFilenameBytes {
		ext := filepath.Ext(s)
		if len(ext) > maxFilenameBytes/4 {
			ext = ""
		}
		base := strings.TrimSuffix(s, ext)
		for len(base)+len(ext) > maxFilenameBytes {
			_, size := utf8.DecodeLastRuneInString(base)
			base = base[:len(base)-size]
		}
		s = base + ext
	}

	return s
}

// classify picks the file type: a specific client content type first, then
// the extension, then content sniffing.
func classify(filename, contentType string, data []byte) string {
	if mt := mediaType(contentType); mt != "" && mt != octetStream {
		return mt
	}
	if ext := filepath.Ext(filename); ext != "" {
		if mt := mediaType(mime.TypeByExtension(ext)); mt != "" {
			return mt
		}
	}
	if mt := mediaType(mimetype.Detect(data).String()); mt != "" {
		return mt
	}

	return octetStream
}

// mediaType drops parameters and lowercases; "" for unparsable input.
func mediaType(v string) string {
	if v == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return ""
	}
	return mt
}
