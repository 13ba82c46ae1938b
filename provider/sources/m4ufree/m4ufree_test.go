package m4ufree

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cinesrc/cinesrc/network"
	"github.com/cinesrc/cinesrc/source"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

const watchPage = `<html>
<script>var config = {_token: 'csrf-1', id: 9};</script>
<button idepisode="ep-205">S02-E05</button>
<div class="row justify-content-md-center">
  <div class="le-server"><span data="d-m">#M</span></div>
  <div class="le-server"><span data="d-x">#X</span></div>
</div>
</html>`

const episodeFragment = `<div class="row justify-content-md-center">
  <div class="le-server"><span data="d-h">#H</span></div>
</div>`

func authorized(r *http.Request) bool {
	return r.FormValue("_token") == "csrf-1" && r.Header.Get("Cookie") == "laravel_session=sess-1"
}

func newMirror() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "home")
	})
	mux.HandleFunc("/search/example-movie.html", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("type") != "movie" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `
<div class="item"><div class="imagecover"><a title="Example Movie 2 (2020)"></a></div><a href="/watch/em2.html"></a></div>
<div class="item"><div class="imagecover"><a title="Example Movie (2020)" href="/watch/em.html"></a></div></div>`)
	})
	mux.HandleFunc("/search/example-show.html", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<div class="item"><div class="imagecover"><a title="Example Show 2018" href="/watch/es.html"></a></div></div>`)
	})
	for _, path := range []string{"/watch/em.html", "/watch/es.html"} {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "x"})
			http.SetCookie(w, &http.Cookie{Name: "laravel_session", Value: "sess-1"})
			fmt.Fprint(w, watchPage)
		})
	}
	mux.HandleFunc("/ajaxtv", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) || r.FormValue("idepisode") != "ep-205" {
			http.Error(w, "denied", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, episodeFragment)
	})
	mux.HandleFunc("/ajax", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			http.Error(w, "denied", http.StatusForbidden)
			return
		}
		if data := r.FormValue("m4u"); data == "d-h" {
			fmt.Fprintf(w, `<iframe src="//player.example/%s"></iframe>`, data)
		} else {
			fmt.Fprintf(w, `<iframe src="https://player.example/%s"></iframe>`, data)
		}
	})
	return httptest.NewServer(mux)
}

func TestParseSearch(t *testing.T) {
	Convey("Titles are split from their trailing year", t, func() {
		doc, err := network.Parse([]byte(`
<div class="item"><div class="imagecover"><a title="Home Alone 1990" href="/a"></a></div></div>
<div class="item"><div class="imagecover"><a title="Avengers Endgame (2019)" href="/b"></a></div></div>
<div class="item"><div class="imagecover"><a title="Untitled" href="/c"></a></div></div>`))
		So(err, ShouldBeNil)

		results := ParseSearch(doc)
		So(results, ShouldHaveLength, 3)
		So(results[0].Title, ShouldEqual, "Home Alone")
		So(results[0].Year, ShouldResemble, mo.Some(1990))
		So(results[1].Title, ShouldEqual, "Avengers Endgame")
		So(results[1].Year, ShouldResemble, mo.Some(2019))
		So(results[2].Year.IsPresent(), ShouldBeFalse)
	})
}

func TestM4UFree(t *testing.T) {
	Convey("Given a homepage that redirects to a mirror", t, func() {
		mirror := newMirror()
		defer mirror.Close()

		var strayRequests atomic.Int32
		front := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				strayRequests.Add(1)
			}
			http.Redirect(w, r, mirror.URL+"/", http.StatusFound)
		}))
		defer front.Close()

		driver := New(front.URL)
		sc := source.Context{Fetcher: network.NewHTTPFetcher(&http.Client{}, "")}

		Convey("A movie resolves its known servers on the mirror", func() {
			out, err := driver.Scrape(context.Background(), sc, source.NewMovie("Example Movie", mo.Some(2020)))
			So(err, ShouldBeNil)
			So(out.Embeds, ShouldResemble, []source.EmbedRef{
				{EmbedID: "playm4u-m", URL: "https://player.example/d-m"},
			})
			So(strayRequests.Load(), ShouldEqual, int32(0))
		})

		Convey("A show posts the episode token before reading servers and resolves a protocol-relative iframe", func() {
			out, err := driver.Scrape(context.Background(), sc, source.NewEpisode("Example Show", mo.Some(2018), 2, 5))
			So(err, ShouldBeNil)
			So(out.Embeds, ShouldResemble, []source.EmbedRef{
				{EmbedID: "hydrax", URL: "http://player.example/d-h"},
			})
		})

		Convey("A missing episode button is not found", func() {
			_, err := driver.Scrape(context.Background(), sc, source.NewEpisode("Example Show", mo.Some(2018), 1, 1))
			So(source.IsNotFound(err), ShouldBeTrue)
		})

		Convey("An unknown title is not found", func() {
			_, err := driver.Scrape(context.Background(), sc, source.NewMovie("Example Movie", mo.Some(1990)))
			So(source.IsNotFound(err), ShouldBeTrue)
			So(errors.Is(err, source.ErrMalformed), ShouldBeFalse)
		})
	})
}
