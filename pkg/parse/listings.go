// Package parse extracts listing records from rendered result pages. It is a
// pure transformation: malformed markup degrades to empty fields and never
// produces an error.
package parse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"chintai-crawler/pkg/fetch"
	"chintai-crawler/pkg/models"
)

const siteBaseURL = "https://suumo.jp"

// Result is one page's extraction outcome: the room-level records in page
// order, and how many building blocks were dropped by validation.
type Result struct {
	Listings []models.Listing
	Dropped  int
}

// Selector fallbacks: the site has shipped several variants of its result
// markup, so each field is tried against a list.
var (
	titleSelectors = []string{
		"h2.cassetteitem_content-title",
		"h3.cassetteitem_content-title",
		"div.cassetteitem_content-title",
		".cassetteitem_content-title",
	}
	addressSelectors = []string{
		"li.cassetteitem_detail-col1",
		"div.cassetteitem_detail-col1",
		".cassetteitem_detail-col1",
	}
	accessSelectors = []string{
		"li.cassetteitem_detail-col2",
		"div.cassetteitem_detail-col2",
		".cassetteitem_detail-col2",
	}
	ageAreaSelectors = []string{
		"li.cassetteitem_detail-col3",
		"div.cassetteitem_detail-col3",
		".cassetteitem_detail-col3",
	}
)

// Listings extracts every room record from a result page, tagged with the
// station the page was searched under. A building block missing both its
// title and address, or carrying no room rows, is counted as dropped rather
// than emitted.
func Listings(page *fetch.Page, station string) Result {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		// Unreadable markup yields an empty page, not a failure.
		return Result{}
	}

	var res Result
	doc.Find("div.cassetteitem").Each(func(_ int, block *goquery.Selection) {
		title := firstText(block, titleSelectors)
		address := firstText(block, addressSelectors)
		access := firstText(block, accessSelectors)
		ageArea := firstText(block, ageAreaSelectors)

		if title == "" && address == "" {
			res.Dropped++
			return
		}

		rooms := block.Find("tbody tr.js-cassette_link")
		if rooms.Length() == 0 {
			res.Dropped++
			return
		}

		rooms.Each(func(_ int, row *goquery.Selection) {
			l := models.Listing{
				Station:         station,
				Title:           title,
				Address:         address,
				Access:          access,
				BuildingAgeArea: ageArea,
				Floor:           text(row, "td.ui-text--midium"),
				Rent:            text(row, "span.cassetteitem_price--rent"),
				AdminFee:        text(row, "span.cassetteitem_price--administration"),
				DepositKeyMoney: text(row, "span.cassetteitem_price--deposit"),
				Layout:          text(row, "span.cassetteitem_madori"),
				Area:            text(row, "span.cassetteitem_menseki"),
				ScrapedAt:       page.FetchedAt,
			}
			if href, ok := row.Find("a").First().Attr("href"); ok && strings.TrimSpace(href) != "" {
				l.DetailURL = absoluteURL(href)
			}
			l.Derive()
			res.Listings = append(res.Listings, l)
		})
	})

	return res
}

// NextPageURL finds the pagination "next" link on a result page. Returns ""
// when the last page has been reached.
func NextPageURL(page *fetch.Page) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return ""
	}
	href, ok := doc.Find("p.pagination-parts + p a").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return ""
	}
	return absoluteURL(href)
}

// firstText returns the trimmed text of the first selector that matches with
// non-empty content.
func firstText(s *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if t := strings.TrimSpace(s.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func text(s *goquery.Selection, selector string) string {
	return strings.TrimSpace(s.Find(selector).First().Text())
}

func absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return siteBaseURL + href
}
