package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"euphoria.io/scope"

	"postpunk.chat/punk/proto"
)

// Uploader pushes files to the upload service and returns their media
// descriptors. Size ceilings are enforced client-side, per file and
// per batch, before any request is made. There is no retry and no
// request timeout; a stale response is simply discarded by the caller
// if the editing context has moved on.
type Uploader struct {
	URL      string
	MaxBytes uint64
}

func NewUploader(cfg RoomConfig, limits UploadConfig) *Uploader {
	return &Uploader{URL: cfg.UploadURL, MaxBytes: limits.MaxBytes}
}

type UploadRequest struct {
	Name string
	Size uint64
	Body io.Reader
}

// UploadFile sends one file and decodes the returned descriptor.
func (u *Uploader) UploadFile(ctx scope.Context, name string, size uint64, body io.Reader) (*proto.MediaDescriptor, error) {
	if size > u.MaxBytes {
		return nil, fmt.Errorf("%w: %s (%d bytes)", proto.ErrFileTooLarge, name, size)
	}

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", u.URL, buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upload failed: %s", resp.Status)
	}

	desc := &proto.MediaDescriptor{}
	if err := json.NewDecoder(resp.Body).Decode(desc); err != nil {
		return nil, err
	}
	if !desc.Kind.Valid() {
		desc.Kind = proto.MediaFile
	}
	if desc.Size == 0 {
		desc.Size = size
	}
	return desc, nil
}

// UploadBatch checks the combined ceiling up front, then uploads each
// file in order. The first failure aborts the batch.
func (u *Uploader) UploadBatch(ctx scope.Context, files []UploadRequest) ([]proto.MediaDescriptor, error) {
	var total uint64
	for _, f := range files {
		if f.Size > u.MaxBytes {
			return nil, fmt.Errorf("%w: %s (%d bytes)", proto.ErrFileTooLarge, f.Name, f.Size)
		}
		total += f.Size
	}
	if total > u.MaxBytes {
		return nil, fmt.Errorf("%w: batch of %d bytes", proto.ErrFileTooLarge, total)
	}

	descs := make([]proto.MediaDescriptor, 0, len(files))
	for _, f := range files {
		desc, err := u.UploadFile(ctx, f.Name, f.Size, f.Body)
		if err != nil {
			return nil, err
		}
		descs = append(descs, *desc)
	}
	return descs, nil
}

func do(ctx scope.Context, req *http.Request) (*http.Response, error) {
	c := http.DefaultClient

	type result struct {
		r   *http.Response
		err error
	}
	ch := make(chan result, 1)
	go func() {
		res := result{}
		res.r, res.err = c.Do(req)
		ch <- res
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.r, res.err
	}
}
