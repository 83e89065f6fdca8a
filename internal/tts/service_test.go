package tts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestGenerateSpeechDataURL(t *testing.T) {
	m := NewManager(ManagerConfig{})
	m.RegisterProvider(&fakeProvider{name: "openai"})
	svc := NewService(m, nil)

	res := svc.GenerateSpeech(context.Background(), SpeechRequest{Text: "Hello **there**", Language: "en"})
	if !res.OK() {
		t.Fatalf("expected audio, got %+v", res)
	}
	if !strings.HasPrefix(res.AudioURL, "data:audio/mpeg;base64,") {
		t.Errorf("unexpected url %q", res.AudioURL)
	}
	if res.Format != "mp3" || res.Method != "openai" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestGenerateSpeechNeverFails(t *testing.T) {
	m := NewManager(ManagerConfig{})
	m.RegisterProvider(&fakeProvider{name: "sovits", cloned: true, err: errors.New("connection refused")})
	svc := NewService(m, nil)

	tests := []SpeechRequest{
		{Text: ""},
		{Text: "hi"},
		{Text: "hi", AuthorName: "Ada"},
	}
	for _, req := range tests {
		res := svc.GenerateSpeech(context.Background(), req)
		if res.OK() || res.Error == "" || res.Fallback != FallbackLocal || res.Message == "" {
			t.Errorf("%+v: expected fallback result, got %+v", req, res)
		}
	}
}

func TestGenerateSpeechPassesAuthor(t *testing.T) {
	p := &fakeProvider{name: "sovits", cloned: true}
	m := NewManager(ManagerConfig{})
	m.RegisterProvider(p)

	res := NewService(m, nil).GenerateSpeech(context.Background(), SpeechRequest{
		Text: "hi", Language: "ja", AuthorName: " Ada ", ReferenceAudioURL: "https://x/ref.wav",
	})
	if !res.OK() {
		t.Fatalf("expected audio, got %+v", res)
	}
	if p.opts.AuthorName != "Ada" || p.opts.Language != "ja" || p.opts.ReferenceAudioURL != "https://x/ref.wav" {
		t.Errorf("unexpected options %+v", p.opts)
	}
}

type fakeUploader struct {
	key string
	err error
}

func (f *fakeUploader) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.key = *in.Key
	return &manager.UploadOutput{}, nil
}

func TestS3StorePut(t *testing.T) {
	up := &fakeUploader{}
	s := newS3Store(S3Config{Bucket: "audio"}, up)
	s.presign = func(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
		if expiry != time.Hour {
			t.Errorf("unexpected expiry %s", expiry)
		}
		return "https://" + bucket + ".s3/" + key + "?sig=1", nil
	}

	url, err := s.Put(context.Background(), &SynthResult{Audio: []byte("x"), Extension: "wav", MimeType: "audio/wav"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(up.key, "speech/") || !strings.HasSuffix(up.key, ".wav") {
		t.Errorf("unexpected key %q", up.key)
	}
	if !strings.Contains(url, up.key) {
		t.Errorf("url %q does not reference key %q", url, up.key)
	}
}

func TestGenerateSpeechStoreFailure(t *testing.T) {
	m := NewManager(ManagerConfig{})
	m.RegisterProvider(&fakeProvider{name: "openai"})
	s := newS3Store(S3Config{Bucket: "audio"}, &fakeUploader{err: errors.New("access denied")})

	res := NewService(m, s).GenerateSpeech(context.Background(), SpeechRequest{Text: "hi"})
	if res.OK() || res.Fallback != FallbackLocal {
		t.Errorf("expected fallback result, got %+v", res)
	}
}
