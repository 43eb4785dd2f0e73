package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"euphoria.io/scope"
	. "github.com/smartystreets/goconvey/convey"

	"postpunk.chat/punk/proto"
)

func TestUploader(t *testing.T) {
	Convey("Uploads post the file and decode the descriptor", t, func() {
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			file, header, err := r.FormFile("file")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			defer file.Close()
			json.NewEncoder(w).Encode(proto.MediaDescriptor{
				URL:  "/media/room/" + header.Filename,
				Kind: proto.MediaImage,
				Name: header.Filename,
				Size: uint64(header.Size),
			})
		}))
		defer server.Close()

		u := &Uploader{URL: server.URL, MaxBytes: 1024}
		desc, err := u.UploadFile(scope.New(), "cat.png", 8, strings.NewReader("pngbytes"))
		So(err, ShouldBeNil)
		So(desc.Kind, ShouldEqual, proto.MediaImage)
		So(desc.URL, ShouldEqual, "/media/room/cat.png")
		So(requests, ShouldEqual, 1)
	})

	Convey("Oversize files are rejected before any request is made", t, func() {
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
		}))
		defer server.Close()

		u := &Uploader{URL: server.URL, MaxBytes: 100}
		_, err := u.UploadFile(scope.New(), "big.bin", 101, strings.NewReader("x"))
		So(err, ShouldNotBeNil)
		So(requests, ShouldEqual, 0)
	})

	Convey("The batch ceiling covers the combined size", t, func() {
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
		}))
		defer server.Close()

		u := &Uploader{URL: server.URL, MaxBytes: 100}
		_, err := u.UploadBatch(scope.New(), []UploadRequest{
			{Name: "a", Size: 60, Body: strings.NewReader("a")},
			{Name: "b", Size: 60, Body: strings.NewReader("b")},
		})
		So(err, ShouldNotBeNil)
		So(requests, ShouldEqual, 0)
	})

	Convey("An upstream failure is reported, not retried", t, func() {
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			http.Error(w, "nope", http.StatusInternalServerError)
		}))
		defer server.Close()

		u := &Uploader{URL: server.URL, MaxBytes: 1024}
		_, err := u.UploadFile(scope.New(), "cat.png", 8, strings.NewReader("pngbytes"))
		So(err, ShouldNotBeNil)
		So(requests, ShouldEqual, 1)
	})

	Convey("A cancelled context abandons the upload", t, func() {
		started := make(chan struct{})
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(started)
			<-release
		}))
		defer server.Close()
		defer close(release)

		ctx := scope.New()
		go func() {
			<-started
			ctx.Cancel()
		}()

		u := &Uploader{URL: server.URL, MaxBytes: 1024}
		_, err := u.UploadFile(ctx, "slow.bin", 4, strings.NewReader("data"))
		So(err, ShouldEqual, scope.Cancelled)
	})
}
