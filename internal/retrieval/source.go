// Package retrieval indexes the reference book and returns the passages most
// relevant to a query.
package retrieval

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
)

// Page is one page of a reference source.
type Page struct {
	Source string
	Number int
	Text   string
}

// LoadSource reads a .txt/.md file (form feed separates pages), an .html file
// or an http(s) URL. At most maxBytes are read; 0 means no limit.
func LoadSource(ctx context.Context, src string, maxBytes int64) ([]Page, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, fmt.Errorf("reference source not configured")
	}
	var (
		raw    []byte
		isHTML bool
		err    error
	)
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		var ctype string
		raw, ctype, err = fetch(ctx, src, maxBytes)
		isHTML = strings.Contains(ctype, "html") || hasHTMLExt(src)
	} else {
		raw, err = readFile(strings.TrimPrefix(src, "file://"), maxBytes)
		isHTML = hasHTMLExt(src)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src, err)
	}

	name := sourceName(src)
	if isHTML {
		return htmlPages(name, raw)
	}
	return textPages(name, string(raw)), nil
}

func hasHTMLExt(src string) bool {
	ext := strings.ToLower(filepath.Ext(src))
	return ext == ".html" || ext == ".htm"
}

func sourceName(src string) string {
	src = strings.TrimRight(src, "/")
	if i := strings.LastIndexAny(src, `/\`); i >= 0 && i < len(src)-1 {
		return src[i+1:]
	}
	return src
}

func readFile(p string, maxBytes int64) ([]byte, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck
	return readLimited(f, maxBytes)
}

func fetch(ctx context.Context, url string, maxBytes int64) ([]byte, string, error) {
	c := retryablehttp.NewClient()
	c.Logger = nil
	c.RetryMax = 3
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("GET %s: %d", url, resp.StatusCode)
	}
	b, err := readLimited(resp.Body, maxBytes)
	return b, resp.Header.Get("Content-Type"), err
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes > 0 {
		r = &io.LimitedReader{R: r, N: maxBytes}
	}
	return io.ReadAll(r)
}

func textPages(name, text string) []Page {
	var pages []Page
	for i, p := range strings.Split(text, "\f") {
		if strings.TrimSpace(p) == "" {
			continue
		}
		pages = append(pages, Page{Source: name, Number: i + 1, Text: p})
	}
	return pages
}

// htmlPages uses elements marked .page or [data-page] as pages when present;
// otherwise the whole body is page 1. Block text is joined with blank lines so
// the chunker sees paragraphs.
func htmlPages(name string, raw []byte) ([]Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, nav, header, footer").Remove()

	var pages []Page
	marked := doc.Find(".page, [data-page]")
	if marked.Length() == 0 {
		marked = doc.Find("body")
	}
	marked.Each(func(i int, s *goquery.Selection) {
		text := blockText(s)
		if strings.TrimSpace(text) == "" {
			return
		}
		pages = append(pages, Page{Source: name, Number: i + 1, Text: text})
	})
	return pages, nil
}

func blockText(s *goquery.Selection) string {
	var paras []string
	s.Find("p, li, h1, h2, h3, h4, td, blockquote").Each(func(_ int, b *goquery.Selection) {
		if t := strings.Join(strings.Fields(b.Text()), " "); t != "" {
			paras = append(paras, t)
		}
	})
	if len(paras) == 0 {
		return strings.TrimSpace(s.Text())
	}
	return strings.Join(paras, "\n\n")
}
