// Copyright (c) 2026 Comiket Bot. All rights reserved.

/*
Package scraper extracts doujin metadata from Melonbooks product pages.

The shop has no public API, so the bot reads the product page the same way
a browser would: a desktop user agent, the adult-view flag set so R18
listings render their metadata, and a politeness limiter so a burst of
reservations never hammers the shop.
*/
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/text/width"
	"golang.org/x/time/rate"

	"github.com/comiketbot/comiket/internal/catalog"
	"github.com/comiketbot/comiket/internal/platform/apperr"
	"github.com/comiketbot/comiket/internal/platform/constants"
	"github.com/comiketbot/comiket/pkg/pointer"
)

// Row labels of the product information table.
const (
	labelCircle  = "サークル名"
	labelAuthors = "作家名"
	labelGenres  = "ジャンル"
	labelEvents  = "イベント"
	labelAdult   = "18禁"
)

// desktopUserAgent keeps the shop from serving the mobile layout, whose
// markup differs.
const desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Melonbooks scrapes product pages into [catalog.ItemMetadata]. It
// implements [catalog.MetadataSource].
type Melonbooks struct {
	client  *resty.Client
	limiter *rate.Limiter
}

func NewMelonbooks() *Melonbooks {
	client := resty.New().
		SetTimeout(constants.ScrapeTimeout).
		SetHeader("User-Agent", desktopUserAgent)

	return &Melonbooks{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(constants.ScrapeRatePerSecond), constants.ScrapeBurst),
	}
}

// Fetch downloads and parses one product page.
//
// The adult-view flag is always appended: without it, R18 listings hide
// their metadata behind an age gate and every selector comes back empty.
func (m *Melonbooks) Fetch(ctx context.Context, url string) (*catalog.ItemMetadata, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, apperr.Internal(err)
	}

	response, err := m.client.R().
		SetContext(ctx).
		Get(url + "&adult_view=1")
	if err != nil {
		return nil, apperr.Upstream("Could not reach the shop page", err)
	}
	if response.IsError() {
		return nil, apperr.Upstream("The shop rejected the page request",
			fmt.Errorf("status %s for %s", response.Status(), url))
	}

	document, err := goquery.NewDocumentFromReader(bytes.NewReader(response.Body()))
	if err != nil {
		return nil, apperr.Upstream("The shop page could not be parsed", err)
	}

	return parseProductPage(document, url)
}

// parseProductPage pulls the metadata out of a parsed product page. A page
// without title, price, or preview image is not a product page, which in
// practice means the URL was wrong or the listing is gone.
func parseProductPage(document *goquery.Document, url string) (*catalog.ItemMetadata, error) {
	title := strings.TrimSpace(document.Find("h1.page-header").First().Text())
	if title == "" {
		return nil, apperr.Upstream("No item found at that URL", fmt.Errorf("no title on %s", url))
	}

	priceYen, err := parseYen(document.Find("span.yen").First().Text())
	if err != nil {
		return nil, apperr.Upstream("No item found at that URL", fmt.Errorf("price on %s: %w", url, err))
	}

	imageSrc, ok := document.Find("div.item-img img").First().Attr("src")
	if !ok {
		return nil, apperr.Upstream("No item found at that URL", fmt.Errorf("no preview image on %s", url))
	}

	metadata := &catalog.ItemMetadata{
		URL:             url,
		Title:           title,
		PriceYen:        priceYen,
		PreviewImageURL: absoluteImageURL(imageSrc),
		AuthorNames:     []string{},
		Genres:          []string{},
		Events:          []string{},
	}

	table := document.Find("div.table-wrapper").First()
	table.Find("th").Each(func(_ int, header *goquery.Selection) {
		label := strings.TrimSpace(header.Text())
		values := cellValues(header.Next())

		switch label {
		case labelCircle:
			if len(values) > 0 {
				if name := circleName(values[0]); name != "" {
					metadata.CircleName = pointer.To(name)
				}
			}
		case labelAuthors:
			metadata.AuthorNames = values
		case labelGenres:
			metadata.Genres = values
		case labelEvents:
			metadata.Events = values
		}
	})

	// The age rating sits in the table's final cell.
	metadata.IsAdult = strings.TrimSpace(table.Find("td").Last().Text()) == labelAdult

	return metadata, nil
}

// parseYen turns the shop's price text ("¥1,234", sometimes with
// full-width digits) into an integer yen amount.
func parseYen(text string) (int, error) {
	folded := width.Fold.String(strings.TrimSpace(text))
	folded = strings.TrimPrefix(folded, "¥")
	folded = strings.ReplaceAll(folded, ",", "")

	if folded == "" {
		return 0, fmt.Errorf("empty price text")
	}

	price, err := strconv.Atoi(folded)
	if err != nil {
		return 0, fmt.Errorf("unparseable price %q: %w", text, err)
	}
	return price, nil
}

// absoluteImageURL resolves the protocol-relative src the shop uses.
func absoluteImageURL(src string) string {
	if strings.HasPrefix(src, "//") || !strings.Contains(src, "://") {
		return "https:" + src
	}
	return src
}

// cellValues collects the non-empty text chunks of a table cell. Author,
// genre, and event cells hold several links separated by bare commas.
func cellValues(cell *goquery.Selection) []string {
	var values []string
	cell.Contents().Each(func(_ int, node *goquery.Selection) {
		text := strings.TrimSpace(node.Text())
		if text == "" || text == "," {
			return
		}
		values = append(values, text)
	})
	return values
}

// circleName strips the trailing follow-widget chunk from the circle cell.
// The shop renders it as "Name (フォロー)" with a non-breaking
// space before the widget text.
func circleName(raw string) string {
	chunks := strings.Split(raw, "\u00a0")
	if len(chunks) < 2 {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(strings.Join(chunks[:len(chunks)-1], " "))
}
