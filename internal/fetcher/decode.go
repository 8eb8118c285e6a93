package fetcher

import (
	"bytes"
	"mime"
	"regexp"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
)

var metaCharset = regexp.MustCompile(`(?i)<meta[^>]+charset=["']?([a-z0-9_:.-]+)`)

// DecodeBody returns the response body as UTF-8 text. The charset comes from
// the Content-Type header, then a <meta charset> tag in the first 2KB; bodies
// that are already valid UTF-8 or name an unknown charset are returned as is.
func DecodeBody(r *Response) string {
	name := charsetOf(r)
	if name == "" || (utf8.Valid(r.Body) && isUTF8Name(name)) {
		return string(r.Body)
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return string(r.Body)
	}
	out, err := enc.NewDecoder().Bytes(r.Body)
	if err != nil {
		return string(r.Body)
	}
	return string(out)
}

func charsetOf(r *Response) string {
	if _, params, err := mime.ParseMediaType(r.ContentType); err == nil && params["charset"] != "" {
		return params["charset"]
	}
	head := r.Body
	if len(head) > 2048 {
		head = head[:2048]
	}
	if m := metaCharset.FindSubmatch(head); m != nil {
		return string(bytes.TrimSpace(m[1]))
	}
	return ""
}

func isUTF8Name(name string) bool {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return true
	}
	canonical, err := htmlindex.Name(enc)
	return err != nil || canonical == "utf-8"
}
