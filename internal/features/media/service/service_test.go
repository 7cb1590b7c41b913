package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "moments-backend/internal/common/errors"
)

// minimal PNG header, enough for content sniffing
var png = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

type fakeStore struct {
	objects map[string][]byte
	putErr  error
}

func (f *fakeStore) Put(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeStore) URL(_ context.Context, key string) (string, error) {
	return "https://cdn.example/" + key, nil
}

func TestUpload(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{}}
	svc := NewMediaService(store, 1024)

	res, err := svc.Upload(context.Background(), "Photo.PNG", bytes.NewReader(png))
	require.NoError(t, err)

	sum := sha256.Sum256(png)
	want := hex.EncodeToString(sum[:])
	assert.Equal(t, want, res.ContentHash)
	assert.Equal(t, "https://cdn.example/moments/"+want+".png", res.ImageURL)
	assert.Equal(t, png, store.objects["moments/"+want+".png"])
}

func TestUpload_Rejects(t *testing.T) {
	svc := NewMediaService(&fakeStore{objects: map[string][]byte{}}, 16)

	_, err := svc.Upload(context.Background(), "a.png", bytes.NewReader(nil))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

	_, err = svc.Upload(context.Background(), "a.png", bytes.NewReader(png))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation), "too large")

	_, err = NewMediaService(&fakeStore{objects: map[string][]byte{}}, 1024).
		Upload(context.Background(), "a.txt", bytes.NewReader([]byte("plain text body")))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}

func TestUpload_StorageFailure(t *testing.T) {
	svc := NewMediaService(&fakeStore{putErr: errors.New("bucket gone")}, 1024)

	_, err := svc.Upload(context.Background(), "a.png", bytes.NewReader(png))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorage))
}
