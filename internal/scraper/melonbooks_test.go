// Copyright (c) 2026 Comiket Bot. All rights reserved.

package scraper_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comiketbot/comiket/internal/platform/apperr"
	"github.com/comiketbot/comiket/internal/scraper"
)

const productPage = `<!DOCTYPE html>
<html><body>
<h1 class="page-header">Comic Sample Vol.1</h1>
<div class="item-img"><img src="//melonbooks.akamaized.net/user_data/packages/sample.jpg"></div>
<p class="price"><span class="yen">%s</span></p>
<div class="table-wrapper"><table>
<tr><th>サークル名</th><td>Circle A&nbsp;(フォロー)</td></tr>
<tr><th>作家名</th><td><a href="#">Author One</a>,<a href="#">Author Two</a></td></tr>
<tr><th>ジャンル</th><td><a href="#">オリジナル</a></td></tr>
<tr><th>イベント</th><td><a href="#">C105</a></td></tr>
<tr><th>年齢制限</th><td>18禁</td></tr>
</table></div>
</body></html>`

func servePage(t *testing.T, body string) (*httptest.Server, *http.Request) {
	t.Helper()

	var captured http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = *r
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)

	return server, &captured
}

/*
TestMelonbooks_Fetch verifies the full extraction path against a canned
product page: title, price, preview image, information table, and the adult
flag, plus the adult-view query flag on the outgoing request.
*/
func TestMelonbooks_Fetch(t *testing.T) {
	server, captured := servePage(t, fmt.Sprintf(productPage, "¥1,000"))

	metadata, err := scraper.NewMelonbooks().Fetch(context.Background(), server.URL+"/detail.php?product_id=1077382")
	require.NoError(t, err)

	assert.Equal(t, "1", captured.URL.Query().Get("adult_view"))

	assert.Equal(t, "Comic Sample Vol.1", metadata.Title)
	assert.Equal(t, 1000, metadata.PriceYen)
	assert.Equal(t, "https://melonbooks.akamaized.net/user_data/packages/sample.jpg", metadata.PreviewImageURL)
	assert.True(t, metadata.IsAdult)

	require.NotNil(t, metadata.CircleName)
	assert.Equal(t, "Circle A", *metadata.CircleName)
	assert.Equal(t, []string{"Author One", "Author Two"}, metadata.AuthorNames)
	assert.Equal(t, []string{"オリジナル"}, metadata.Genres)
	assert.Equal(t, []string{"C105"}, metadata.Events)
}

/*
TestMelonbooks_Fetch_FullWidthPrice verifies that full-width digits in the
price text fold down to a parseable amount.
*/
func TestMelonbooks_Fetch_FullWidthPrice(t *testing.T) {
	server, _ := servePage(t, fmt.Sprintf(productPage, "￥１，０００"))

	metadata, err := scraper.NewMelonbooks().Fetch(context.Background(), server.URL+"/detail.php?product_id=1")
	require.NoError(t, err)

	assert.Equal(t, 1000, metadata.PriceYen)
}

/*
TestMelonbooks_Fetch_NotAProductPage verifies that a page without product
markup surfaces as an upstream not-found, not a zero-value item.
*/
func TestMelonbooks_Fetch_NotAProductPage(t *testing.T) {
	server, _ := servePage(t, `<html><body><h1>404</h1></body></html>`)

	_, err := scraper.NewMelonbooks().Fetch(context.Background(), server.URL+"/detail.php?product_id=1")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeUpstream))
}

/*
TestMelonbooks_Fetch_SparseTable verifies that missing table rows yield
empty lists and no circle rather than an error.
*/
func TestMelonbooks_Fetch_SparseTable(t *testing.T) {
	page := `<!DOCTYPE html>
<html><body>
<h1 class="page-header">Anthology Sample</h1>
<div class="item-img"><img src="//melonbooks.akamaized.net/user_data/packages/other.jpg"></div>
<span class="yen">¥500</span>
<div class="table-wrapper"><table>
<tr><th>発行日</th><td>2026/08/16</td></tr>
</table></div>
</body></html>`
	server, _ := servePage(t, page)

	metadata, err := scraper.NewMelonbooks().Fetch(context.Background(), server.URL+"/detail.php?product_id=1")
	require.NoError(t, err)

	assert.Nil(t, metadata.CircleName)
	assert.Empty(t, metadata.AuthorNames)
	assert.Empty(t, metadata.Genres)
	assert.Empty(t, metadata.Events)
	assert.False(t, metadata.IsAdult)
	assert.Equal(t, 500, metadata.PriceYen)
}

/*
TestMelonbooks_Fetch_ServerError verifies that a non-2xx page response is
an upstream error.
*/
func TestMelonbooks_Fetch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	_, err := scraper.NewMelonbooks().Fetch(context.Background(), server.URL+"/detail.php?product_id=1")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeUpstream))
}
