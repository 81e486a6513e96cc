package netreq

import (
	"bytes"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// DetectContentType sniffs a media type for a body served without one
func DetectContentType(body []byte) string {
	return mimetype.Detect(body).String()
}

// DecodeBody converts a response body to UTF-8 text. A charset declared in
// contentType wins; otherwise valid UTF-8 passes through and anything else
// is run through charset detection.
func DecodeBody(body []byte, contentType string) string {
	if len(body) == 0 {
		return ""
	}

	label := declaredCharset(contentType)
	if label == "" {
		if utf8.Valid(body) {
			return string(body)
		}
		label = detectCharset(body)
	}

	reader, err := charset.NewReaderLabel(label, bytes.NewReader(body))
	if err != nil {
		return string(body)
	}
	out, err := io.ReadAll(reader)
	if err != nil {
		return string(body)
	}
	return string(out)
}

func declaredCharset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(params["charset"])
}

func detectCharset(body []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(body)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}
