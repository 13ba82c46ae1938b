package megacloud

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cinesrc/cinesrc/filesystem"
	"github.com/cinesrc/cinesrc/key"
	"github.com/cinesrc/cinesrc/log"
	"github.com/cinesrc/cinesrc/network"
	"github.com/cinesrc/cinesrc/source"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

const okSources = `{
	"server": 4,
	"sources": [{"file": "https://cdn.example/hls/master.m3u8", "type": "hls"}],
	"tracks": [
		{"file": "https://cdn.example/subs/eng.vtt", "kind": "captions", "label": "English"},
		{"file": "https://cdn.example/subs/spa.vtt", "kind": "captions", "label": "Spanish - Latino"},
		{"file": "https://cdn.example/subs/xx.vtt", "kind": "captions", "label": "Gibberish"},
		{"file": "https://cdn.example/thumbs.vtt", "kind": "thumbnails"}
	]
}`

func newServer(body string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/embed-2/ajax/e-1/getSources", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Requested-With") != "XMLHttpRequest" || r.Header.Get("Referer") == "" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if r.URL.Query().Get("id") != "abc123" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	})
	return httptest.NewServer(mux)
}

func TestMegaCloud(t *testing.T) {
	Convey("Given a megacloud embed", t, func() {
		srv := newServer(okSources)
		defer srv.Close()

		sc := source.Context{Fetcher: network.NewHTTPFetcher(srv.Client(), "")}
		embedURL := srv.URL + "/embed-2/e-1/abc123?k=1"

		Convey("It returns one hls stream", func() {
			out, err := New().Scrape(context.Background(), sc, embedURL)
			So(err, ShouldBeNil)
			So(out.Stream, ShouldHaveLength, 1)

			stream := out.Stream[0]
			So(stream.ID, ShouldEqual, "primary")
			So(stream.Type, ShouldEqual, source.HLS)
			So(stream.Playlist, ShouldEqual, "https://cdn.example/hls/master.m3u8")
			So(stream.Flags.Has(source.FlagCORSAllowed), ShouldBeTrue)
			So(stream.PreferredHeaders["Origin"], ShouldEqual, srv.URL)
			So(stream.PreferredHeaders["Referer"], ShouldEqual, srv.URL)

			Convey("Only recognised caption tracks are kept", func() {
				So(stream.Captions, ShouldHaveLength, 2)
				So(stream.Captions[0].Language, ShouldEqual, "en")
				So(stream.Captions[1].Language, ShouldEqual, "es")
			})
		})

		Convey("megacdn returns the same stream without flags", func() {
			out, err := NewCDN().Scrape(context.Background(), sc, embedURL)
			So(err, ShouldBeNil)
			So(out.Stream, ShouldHaveLength, 1)
			So(out.Stream[0].Playlist, ShouldEqual, "https://cdn.example/hls/master.m3u8")
			So(out.Stream[0].Flags, ShouldBeEmpty)
		})

		Convey("megacdn logs under its own id", func() {
			filesystem.SetMemMapFs()
			viper.Set(key.LogsWrite, true)
			viper.Set(key.LogsLevel, "debug")
			lo.Must0(log.Setup())
			hook := test.NewGlobal()
			defer func() {
				hook.Reset()
				viper.Set(key.LogsWrite, false)
				lo.Must0(log.Setup())
			}()

			_, err := NewCDN().Scrape(context.Background(), sc, embedURL)
			So(err, ShouldBeNil)

			ids := lo.Map(hook.AllEntries(), func(e *logrus.Entry, _ int) any { return e.Data["embed"] })
			So(ids, ShouldContain, CDNID)
			So(ids, ShouldNotContain, ID)
		})
	})

	Convey("Given an embed api with no sources", t, func() {
		srv := newServer(`{"server": 4, "sources": [], "tracks": []}`)
		defer srv.Close()

		sc := source.Context{Fetcher: network.NewHTTPFetcher(srv.Client(), "")}
		_, err := New().Scrape(context.Background(), sc, srv.URL+"/embed-2/e-1/abc123")

		Convey("It fails with not found, not a structural error", func() {
			So(source.IsNotFound(err), ShouldBeTrue)
			So(errors.Is(err, source.ErrMalformed), ShouldBeFalse)
		})
	})

	Convey("Given a source without a file", t, func() {
		srv := newServer(`{"sources": [{"type": "hls"}]}`)
		defer srv.Close()

		sc := source.Context{Fetcher: network.NewHTTPFetcher(srv.Client(), "")}
		_, err := New().Scrape(context.Background(), sc, srv.URL+"/embed-2/e-1/abc123")

		So(errors.Is(err, source.ErrMalformed), ShouldBeTrue)
	})
}
