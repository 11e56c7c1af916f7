package mimetypes

import (
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type MIME string

const (
	Unknown   MIME = "unknown"
	TextPlain MIME = "text/plain"
	TextHTML  MIME = "text/html"
	TextCSS   MIME = "text/css"

	ApplicationPDF         MIME = "application/pdf"
	ApplicationJSON        MIME = "application/json"
	ApplicationXML         MIME = "application/xml"
	ApplicationOctetStream MIME = "application/octet-stream"

	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageGIF  MIME = "image/gif"

	VideoMP4       MIME = "video/mp4"
	VideoWebM      MIME = "video/webm"
	VideoMatroska  MIME = "video/x-matroska"
	VideoQuickTime MIME = "video/quicktime"

	AudioMPEG MIME = "audio/mpeg"
	AudioWAV  MIME = "audio/wav"
	AudioOGG  MIME = "audio/ogg"
)

// sniffLen matches the default read limit of the mimetype detector.
const sniffLen = 3072

// Media containers often sniff as octet-stream when the header box is not at
// the start of the file, the extension decides in that case.
var byExtension = map[string]MIME{
	".mp4":  VideoMP4,
	".m4v":  VideoMP4,
	".webm": VideoWebM,
	".mkv":  VideoMatroska,
	".mov":  VideoQuickTime,
	".mp3":  AudioMPEG,
	".wav":  AudioWAV,
	".ogg":  AudioOGG,
}

func Matches(detected string, expected MIME) (MIME, bool) {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown, false
	}
	return expected, mt == string(expected)
}

// ToMIME drops the parameters of a raw media type.
func ToMIME(raw string) MIME {
	mt, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return Unknown
	}
	return MIME(mt)
}

// Detect sniffs the first bytes of r and falls back on the extension of name.
// It returns the raw media type, parameters included, suitable for a Content-Type header.
func Detect(r io.ReaderAt, name string) string {
	detected, err := mimetype.DetectReader(io.NewSectionReader(r, 0, sniffLen))
	if err == nil && !detected.Is(string(ApplicationOctetStream)) {
		return detected.String()
	}
	ext := strings.ToLower(filepath.Ext(name))
	if m, ok := byExtension[ext]; ok {
		return string(m)
	}
	if m := mime.TypeByExtension(ext); m != "" {
		return m
	}
	return string(ApplicationOctetStream)
}

// IsMedia reports whether a media type is worth listing in the catalog.
func IsMedia(m MIME) bool {
	s := string(m)
	return strings.HasPrefix(s, "video/") || strings.HasPrefix(s, "audio/") ||
		strings.HasPrefix(s, "image/") || m == ApplicationPDF
}
