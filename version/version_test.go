package version

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCompare(t *testing.T) {
	Convey("Compare", t, func() {
		cases := []struct {
			a, b string
			want int
		}{
			{"1.2.3", "1.2.3", 0},
			{"v1.2.4", "1.2.3", 1},
			{"0.9.9", "1.0.0", -1},
			{"2.0.0", "v1.99.99", 1},
		}

		for _, c := range cases {
			got, err := Compare(c.a, c.b)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, c.want)
		}

		_, err := Compare("latest", "1.0.0")
		So(err, ShouldNotBeNil)
	})
}

func TestParse(t *testing.T) {
	Convey("Parse", t, func() {
		Convey("Release tags lose their v prefix and suffix", func() {
			v, err := Parse(" v1.4.0-rc.1")
			So(err, ShouldBeNil)
			So(v, ShouldResemble, Semver{Major: 1, Minor: 4, Patch: 0})
			So(v.String(), ShouldEqual, "1.4.0")
		})

		Convey("Incomplete versions are rejected", func() {
			_, err := Parse("v1.4")
			So(err, ShouldNotBeNil)
		})
	})
}
