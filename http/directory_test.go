package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/medimatch"
	"github.com/fwojciec/medimatch/goquery"
	mmhttp "github.com/fwojciec/medimatch/http"
	"github.com/fwojciec/medimatch/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchURL(t *testing.T) {
	t.Parallel()

	t.Run("slugifies specialty and location", func(t *testing.T) {
		t.Parallel()

		got, err := mmhttp.SearchURL("https://directory.example.com/search", medimatch.Query{
			Specialty:  "General Practitioner",
			Location:   "München Schwabing",
			MaxResults: 10,
		})

		require.NoError(t, err)
		assert.Equal(t, "https://directory.example.com/search/general-practitioner/munchen-schwabing", got)
	})

	t.Run("adds language parameters", func(t *testing.T) {
		t.Parallel()

		got, err := mmhttp.SearchURL("https://directory.example.com", medimatch.Query{
			Specialty: "dentist",
			Location:  "Berlin",
			Languages: []string{"gb", "fr"},
		})

		require.NoError(t, err)
		assert.Equal(t, "https://directory.example.com/dentist/berlin?language=gb&language=fr", got)
	})

	t.Run("adds the insurance sector filter", func(t *testing.T) {
		t.Parallel()

		got, err := mmhttp.SearchURL("https://directory.example.com", medimatch.Query{
			Specialty:       "dentist",
			Location:        "Berlin",
			Languages:       []string{"fr"},
			InsuranceSector: medimatch.InsurancePrivate,
		})

		require.NoError(t, err)
		assert.Equal(t, "https://directory.example.com/dentist/berlin?insurance_sector=private&language=fr", got)
	})

	t.Run("keeps non-Latin letters", func(t *testing.T) {
		t.Parallel()

		got, err := mmhttp.SearchURL("https://directory.example.com", medimatch.Query{Specialty: "dentist", Location: "Москва"})

		require.NoError(t, err)
		assert.Equal(t, "https://directory.example.com/dentist/%D0%BC%D0%BE%D1%81%D0%BA%D0%B2%D0%B0", got)
	})

	t.Run("rejects queries without searchable characters", func(t *testing.T) {
		t.Parallel()

		_, err := mmhttp.SearchURL("https://directory.example.com", medimatch.Query{Specialty: "dentist", Location: "?!"})

		require.Error(t, err)
		assert.Equal(t, medimatch.EINVALID, medimatch.ErrorCode(err))
	})

	t.Run("rejects relative base URLs", func(t *testing.T) {
		t.Parallel()

		_, err := mmhttp.SearchURL("/search", medimatch.Query{Specialty: "dentist", Location: "Berlin"})

		require.Error(t, err)
		assert.Equal(t, medimatch.EINVALID, medimatch.ErrorCode(err))
	})
}

func TestDirectory_Search(t *testing.T) {
	t.Parallel()

	q := medimatch.Query{Specialty: "dentist", Location: "Berlin", MaxResults: 10}

	t.Run("fetches and parses the results page", func(t *testing.T) {
		t.Parallel()

		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			assert.Equal(t, "/dentist/berlin", r.URL.Path)
			_, _ = w.Write([]byte(`<div data-doctor><span data-name>Dr. Tooth</span><span data-address>1 Main St</span></div>`))
		}))
		defer server.Close()

		dir := mmhttp.NewDirectory(server.URL, mmhttp.NewFetcher(), goquery.NewResultParser(nil, nil), mmhttp.NewHostLimiter(10))

		entries, err := dir.Search(context.Background(), q)

		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Dr. Tooth", entries[0].Name)
		assert.Equal(t, int32(1), requests.Load())
	})

	t.Run("requests non-Latin locations", func(t *testing.T) {
		t.Parallel()

		var path atomic.Value
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path.Store(r.URL.Path)
			_, _ = w.Write([]byte(`<div data-doctor><span data-name>Dr. Ito</span><span data-address>Chiyoda</span></div>`))
		}))
		defer server.Close()

		dir := mmhttp.NewDirectory(server.URL, mmhttp.NewFetcher(), goquery.NewResultParser(nil, nil), mmhttp.NewHostLimiter(10))

		entries, err := dir.Search(context.Background(), medimatch.Query{Specialty: "dentist", Location: "東京", MaxResults: 10})

		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "/dentist/東京", path.Load())
	})

	t.Run("returns no results for an empty results page", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<div class="search-no-results">Nothing here</div>`))
		}))
		defer server.Close()

		dir := mmhttp.NewDirectory(server.URL, mmhttp.NewFetcher(), goquery.NewResultParser(nil, nil), nil)

		_, err := dir.Search(context.Background(), q)

		require.Error(t, err)
		assert.Equal(t, medimatch.ENORESULTS, medimatch.ErrorCode(err))
	})

	t.Run("returns parse error for an unrecognized page", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<h1>Maintenance</h1>`))
		}))
		defer server.Close()

		dir := mmhttp.NewDirectory(server.URL, mmhttp.NewFetcher(), goquery.NewResultParser(nil, nil), nil)

		_, err := dir.Search(context.Background(), q)

		require.Error(t, err)
		assert.Equal(t, medimatch.EPARSE, medimatch.ErrorCode(err))
	})

	t.Run("returns network error when the server fails and does not retry", func(t *testing.T) {
		t.Parallel()

		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		dir := mmhttp.NewDirectory(server.URL, mmhttp.NewFetcher(), goquery.NewResultParser(nil, nil), nil)

		_, err := dir.Search(context.Background(), q)

		require.Error(t, err)
		assert.Equal(t, medimatch.ENETWORK, medimatch.ErrorCode(err))
		assert.Equal(t, int32(1), requests.Load())
	})

	t.Run("times out slow directories", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			},
		}
		dir := mmhttp.NewDirectory("https://directory.example.com", fetcher, &mock.ResultParser{}, nil)
		dir.Timeout = 20 * time.Millisecond

		_, err := dir.Search(context.Background(), q)

		require.Error(t, err)
		assert.Equal(t, medimatch.ENETWORK, medimatch.ErrorCode(err))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("waits on the limiter for the directory host", func(t *testing.T) {
		t.Parallel()

		var host string
		limiter := &mock.HostLimiter{
			WaitFn: func(_ context.Context, h string) error {
				host = h
				return nil
			},
		}
		fetcher := &mock.Fetcher{
			FetchFn: func(context.Context, string) (string, error) { return "<html></html>", nil },
		}
		parser := &mock.ResultParser{
			ParseFn: func(string, string) ([]medimatch.RawEntry, error) {
				return []medimatch.RawEntry{{Name: "Dr. A"}}, nil
			},
		}
		dir := mmhttp.NewDirectory("https://directory.example.com:8443/de", fetcher, parser, limiter)

		_, err := dir.Search(context.Background(), q)

		require.NoError(t, err)
		assert.Equal(t, "directory.example.com:8443", host)
	})

	t.Run("returns network error when the limiter wait is canceled", func(t *testing.T) {
		t.Parallel()

		limiter := &mock.HostLimiter{
			WaitFn: func(context.Context, string) error { return context.Canceled },
		}
		dir := mmhttp.NewDirectory("https://directory.example.com", &mock.Fetcher{}, &mock.ResultParser{}, limiter)

		_, err := dir.Search(context.Background(), q)

		require.Error(t, err)
		assert.Equal(t, medimatch.ENETWORK, medimatch.ErrorCode(err))
	})
}
