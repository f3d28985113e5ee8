package gmaps

import (
	"fmt"
	"html"
	"strings"
)

// place describes the detail pane of one listing in test fixtures.
type place struct {
	Name     string
	Address  string
	Phone    string
	Hours    string
	Count    string
	Average  string
	Socials  []string
	Unlinked bool // render a social anchor without href
}

// detailHTML renders a detail pane shaped like the one Google Maps serves.
func detailHTML(p place) string {
	var b strings.Builder
	b.WriteString(`<div role="main">`)
	b.WriteString(`<div class="TIHn2 ">`)
	if p.Name != "" {
		fmt.Fprintf(&b, `<h1 class="DUwDvf lfPIob">%s</h1>`, html.EscapeString(p.Name))
	}
	b.WriteString(`<div class="fontBodyMedium dmRWX"><div class="F7nice">`)
	if p.Average != "" {
		fmt.Fprintf(&b, `<span><span aria-hidden="true">%s</span></span>`, html.EscapeString(p.Average))
	}
	if p.Count != "" {
		fmt.Fprintf(&b, `<span><span><span aria-label="%s reviews">%s</span></span></span>`,
			html.EscapeString(p.Count), html.EscapeString(p.Count))
	}
	b.WriteString(`</div></div></div>`)

	if p.Address != "" {
		fmt.Fprintf(&b, `<button data-item-id="address"><div class="Io6YTe fontBodyMedium kR99db">%s</div></button>`,
			html.EscapeString(p.Address))
	}
	if p.Phone != "" {
		fmt.Fprintf(&b, `<button data-item-id="phone:tel:%s"><div class="Io6YTe fontBodyMedium kR99db">%s</div></button>`,
			html.EscapeString(strings.ReplaceAll(p.Phone, " ", "")), html.EscapeString(p.Phone))
	}
	if p.Hours != "" {
		fmt.Fprintf(&b, `<button data-item-id="oh"><div class="Io6YTe fontBodyMedium kR99db">%s</div></button>`,
			html.EscapeString(p.Hours))
	}
	for _, s := range p.Socials {
		fmt.Fprintf(&b, `<a href="%s">social</a>`, html.EscapeString(s))
	}
	if p.Unlinked {
		b.WriteString(`<a data-href="https://facebook.com/ghost">facebook.com/ghost</a>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// pageHTML wraps the results feed and an optional detail pane into a document.
func pageHTML(links []string, detail string) string {
	var b strings.Builder
	b.WriteString(`<html><head></head><body>`)
	b.WriteString(`<input id="searchboxinput" name="q">`)
	b.WriteString(`<div role="feed">`)
	for _, l := range links {
		fmt.Fprintf(&b, `<div class="Nv2PK"><a class="hfpxzc" href="%s"></a></div>`, html.EscapeString(l))
	}
	b.WriteString(`</div>`)
	b.WriteString(detail)
	b.WriteString(`</body></html>`)
	return b.String()
}

func placeURL(slug string) string {
	return "https://www.google.com/maps/place/" + slug + "/data=!4m7!3m6"
}
