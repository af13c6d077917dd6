package rss

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

const atomNS = "http://www.w3.org/2005/Atom"

// textKind records how an element's text was written in the document.
type textKind int

const (
	plainText textKind = iota
	cdataText
)

func (k textKind) String() string {
	if k == cdataText {
		return "cdata"
	}
	return "text"
}

// fieldText is either plain character data or a CDATA section. Callers
// reduce it to a trimmed string right away with Value.
type fieldText struct {
	kind textKind
	text string
}

// Value returns the trimmed text regardless of how it was written.
func (f fieldText) Value() string {
	return strings.TrimSpace(f.text)
}

type xmlText struct {
	XMLName xml.Name
	Inner   string `xml:",innerxml"`
	Data    string `xml:",chardata"`
}

func (x xmlText) field() fieldText {
	if strings.HasPrefix(strings.TrimSpace(x.Inner), "<![CDATA[") {
		return fieldText{kind: cdataText, text: x.Data}
	}
	return fieldText{kind: plainText, text: x.Data}
}

type xmlItem struct {
	Links    []xmlText `xml:"link"`
	PubDates []xmlText `xml:"pubDate"`
}

type xmlChannel struct {
	Items []xmlItem `xml:"item"`
}

type xmlRSS struct {
	Channels []xmlChannel `xml:"channel"`
}

// feedItem is an <item> after the parse boundary: only plain strings.
type feedItem struct {
	link     string
	linkKind textKind
	pubDate  string
}

// parseItems decodes raw and returns the items of its channel. The root may
// be <rss> with a <channel> child, or a bare <channel>. An empty channel is
// not an error.
func parseItems(raw string) ([]feedItem, error) {
	ch, err := decodeChannel(raw)
	if err != nil {
		return nil, err
	}

	items := make([]feedItem, 0, len(ch.Items))
	for _, it := range ch.Items {
		var fi feedItem
		if link, ok := firstRSSText(it.Links); ok {
			f := link.field()
			fi.link, fi.linkKind = f.Value(), f.kind
		}
		if date, ok := firstRSSText(it.PubDates); ok {
			fi.pubDate = date.field().Value()
		}
		items = append(items, fi)
	}
	return items, nil
}

// firstRSSText skips namespaced siblings such as <atom:link>.
func firstRSSText(nodes []xmlText) (xmlText, bool) {
	for _, n := range nodes {
		if n.XMLName.Space == atomNS || n.XMLName.Space == "atom" {
			continue
		}
		return n, true
	}
	return xmlText{}, false
}

func decodeChannel(raw string) (*xmlChannel, error) {
	d := xml.NewDecoder(strings.NewReader(raw))
	d.CharsetReader = charset.NewReaderLabel
	d.Entity = xml.HTMLEntity

	var (
		channel *xmlChannel
		rooted  bool
	)
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedXML, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if rooted {
			return nil, fmt.Errorf("%w: more than one root element", ErrMalformedXML)
		}
		rooted = true

		switch start.Name.Local {
		case "rss":
			var doc xmlRSS
			if err := d.DecodeElement(&doc, &start); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMalformedXML, err)
			}
			if len(doc.Channels) > 0 {
				channel = &doc.Channels[0]
			}
		case "channel":
			var ch xmlChannel
			if err := d.DecodeElement(&ch, &start); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMalformedXML, err)
			}
			channel = &ch
		default:
			if err := d.Skip(); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMalformedXML, err)
			}
		}
	}

	if !rooted {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedXML)
	}
	if channel == nil {
		return nil, ErrMissingChannel
	}
	return channel, nil
}
