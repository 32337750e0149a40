package ocr

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/vie-ocr/internal/domain"
)

// fakeEngine is an in-memory Engine.
type fakeEngine struct {
	langs    []string
	langsErr error
	text     string
	err      error
	delay    time.Duration

	langCalls atomic.Int32
	active    atomic.Int32
	maxActive atomic.Int32
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Languages(context.Context) ([]string, error) {
	f.langCalls.Add(1)
	return f.langs, f.langsErr
}

func (f *fakeEngine) Recognize(ctx context.Context, _ *image.Gray, _ string) (string, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		cur := f.maxActive.Load()
		if n <= cur || f.maxActive.CompareAndSwap(cur, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

func processed(page int) domain.ProcessedImage {
	return domain.ProcessedImage{PageNumber: page, Image: image.NewGray(image.Rect(0, 0, 8, 8))}
}

func TestRecognizer_Success(t *testing.T) {
	engine := &fakeEngine{langs: []string{"eng", "vie"}, text: "Xin chào\n"}
	r := NewRecognizer(engine, Options{}, nil)

	text, err := r.Recognize(context.Background(), processed(1), domain.LanguageVietnamese)
	require.NoError(t, err)
	assert.Equal(t, "Xin chào\n", text)
}

func TestRecognizer_LanguageGate(t *testing.T) {
	engine := &fakeEngine{langs: []string{"eng", "osd"}, text: "hello"}
	r := NewRecognizer(engine, Options{}, nil)

	_, err := r.Recognize(context.Background(), processed(2), domain.LanguageVietnamese)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeUnsupportedLanguage))
	assert.False(t, domain.IsType(err, domain.ErrorTypeRecognition))
	assert.Equal(t, 2, domain.PageOf(err))
}

func TestRecognizer_EngineUnreachable(t *testing.T) {
	engine := &fakeEngine{langsErr: errors.New("exec: not found")}
	r := NewRecognizer(engine, Options{}, nil)

	_, err := r.Recognize(context.Background(), processed(1), domain.LanguageVietnamese)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeRecognition))
}

func TestRecognizer_EngineFailureKeepsType(t *testing.T) {
	engine := &fakeEngine{
		langs: []string{"vie"},
		err:   domain.UnsupportedLanguageError("vie", errors.New("Failed loading language 'vie'")),
	}
	r := NewRecognizer(engine, Options{}, nil)

	_, err := r.Recognize(context.Background(), processed(4), "vie")
	assert.True(t, domain.IsType(err, domain.ErrorTypeUnsupportedLanguage))
	assert.Equal(t, 4, domain.PageOf(err))
}

func TestRecognizer_PlainEngineErrorBecomesRecognitionError(t *testing.T) {
	engine := &fakeEngine{langs: []string{"vie"}, err: errors.New("boom")}
	r := NewRecognizer(engine, Options{}, nil)

	_, err := r.Recognize(context.Background(), processed(1), "vie")
	assert.True(t, domain.IsType(err, domain.ErrorTypeRecognition))
}

func TestRecognizer_EmptyImage(t *testing.T) {
	r := NewRecognizer(&fakeEngine{langs: []string{"vie"}}, Options{}, nil)

	_, err := r.Recognize(context.Background(), domain.ProcessedImage{PageNumber: 1}, "vie")
	assert.True(t, domain.IsType(err, domain.ErrorTypeRecognition))
}

func TestRecognizer_CachesLanguages(t *testing.T) {
	engine := &fakeEngine{langs: []string{"vie"}, text: "x"}
	r := NewRecognizer(engine, Options{}, nil)

	for i := 1; i <= 3; i++ {
		_, err := r.Recognize(context.Background(), processed(i), "vie")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), engine.langCalls.Load())
}

func TestRecognizer_DoesNotCacheFailedListing(t *testing.T) {
	engine := &fakeEngine{langsErr: errors.New("down")}
	r := NewRecognizer(engine, Options{}, nil)

	_, err := r.Languages(context.Background())
	require.Error(t, err)

	engine.langsErr = nil
	engine.langs = []string{"vie"}
	support, err := r.Languages(context.Background())
	require.NoError(t, err)
	assert.True(t, support.Has("vie"))
}

func TestRecognizer_SerializeGate(t *testing.T) {
	tests := []struct {
		name      string
		serialize bool
		wantMax   int32
	}{
		{"serialized", true, 1},
		{"concurrent", false, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{langs: []string{"vie"}, text: "x", delay: 30 * time.Millisecond}
			r := NewRecognizer(engine, Options{Serialize: tt.serialize}, nil)

			var wg sync.WaitGroup
			for i := 1; i <= 4; i++ {
				wg.Add(1)
				go func(page int) {
					defer wg.Done()
					_, err := r.Recognize(context.Background(), processed(page), "vie")
					assert.NoError(t, err)
				}(i)
			}
			wg.Wait()

			if tt.serialize {
				assert.Equal(t, tt.wantMax, engine.maxActive.Load())
			} else {
				assert.Greater(t, engine.maxActive.Load(), int32(1))
			}
		})
	}
}

func TestRecognizer_PageTimeout(t *testing.T) {
	engine := &fakeEngine{langs: []string{"vie"}, text: "x", delay: time.Second}
	r := NewRecognizer(engine, Options{PageTimeout: 20 * time.Millisecond}, nil)

	_, err := r.Recognize(context.Background(), processed(1), "vie")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCheckLanguage(t *testing.T) {
	ok, support, err := CheckLanguage(context.Background(), &fakeEngine{langs: []string{"eng", "vie"}}, "vie")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"eng", "vie"}, support.Codes())

	ok, err = VietnameseAvailable(context.Background(), &fakeEngine{langs: []string{"eng"}})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckLanguage_EngineUnavailable(t *testing.T) {
	_, err := VietnameseAvailable(context.Background(), &fakeEngine{langsErr: errors.New("no binary")})
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeEngineUnavailable))
}
