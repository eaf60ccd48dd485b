package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govjobalert/govjobalert/internal/database"
	"github.com/govjobalert/govjobalert/internal/dtos"
	"github.com/govjobalert/govjobalert/internal/models"
)

const boardPage = `<html><head><script>track()</script><style>a{}</style></head>
<body><nav>Home | Results</nav>
<ul>
  <li><a href="/ssc-cgl-2024.php">SSC CGL 2024</a> Last date 24/07/2024</li>
  <li><a href="https://www.example.in/rrb-ntpc.php">RRB NTPC</a></li>
</ul>
<footer>copyright</footer></body></html>`

type recordingExtractor struct {
	html     string
	listings []dtos.ScrapedJob
}

func (e *recordingExtractor) ExtractJobListings(_ context.Context, rawHTML string) ([]dtos.ScrapedJob, error) {
	e.html = rawHTML
	return e.listings, nil
}

func TestScrapeService_Run(t *testing.T) {
	board := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(boardPage))
	}))
	defer board.Close()

	store := database.NewMemoryJobStore()
	store.SeedCatalog(
		[]models.Category{{Name: "Railway", Slug: "railways"}},
		[]models.Location{{City: "Delhi", State: "Delhi", Slug: "delhi"}},
	)
	jobs := NewJobService(store)
	extractor := &recordingExtractor{listings: []dtos.ScrapedJob{
		{Link: board.URL + "/ssc-cgl-2024.php", Title: "SSC CGL 2024", Department: "Staff Selection Commission Delhi", ApplicationDeadline: "24/07/2024"},
		{Link: "https://www.example.in/rrb-ntpc.php", Title: "RRB NTPC", Department: "Railway Recruitment Board", ApplicationDeadline: "soon"},
	}}

	svc := NewScrapeService(extractor, NewMatcherService(jobs), jobs, board.URL+"/latestjob/")
	svc.Now = func() time.Time { return time.Date(2024, time.July, 1, 9, 0, 0, 0, time.UTC) }

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Summary.Processed)
	assert.Empty(t, result.Errors)

	assert.NotContains(t, extractor.html, "track()")
	assert.NotContains(t, extractor.html, "copyright")
	assert.NotContains(t, extractor.html, "Home | Results")
	assert.Contains(t, extractor.html, `href="`+board.URL+`/ssc-cgl-2024.php"`)

	ssc, err := store.GetJob(context.Background(), ListingID(board.URL+"/ssc-cgl-2024.php"))
	require.NoError(t, err)
	assert.Equal(t, FallbackCategory, ssc.Category)
	assert.Equal(t, "delhi", ssc.Location)
	assert.Equal(t, "Delhi", ssc.State)
	assert.Equal(t, "2024-07-01", ssc.PostedDate.String())
	require.NotNil(t, ssc.ApplicationDeadline)
	assert.Equal(t, "2024-07-24", ssc.ApplicationDeadline.String())

	rrb, err := store.GetJob(context.Background(), ListingID("https://www.example.in/rrb-ntpc.php"))
	require.NoError(t, err)
	assert.Equal(t, "railways", rrb.Category)
	assert.Equal(t, FallbackLocation, rrb.Location)
	assert.Equal(t, FallbackState, rrb.State)
	assert.Nil(t, rrb.ApplicationDeadline)
}

func TestScrapeService_FetchFailure(t *testing.T) {
	board := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer board.Close()

	svc := NewScrapeService(&recordingExtractor{}, nil, NewJobService(database.NewMemoryJobStore()), board.URL)
	_, err := svc.Run(context.Background())
	assert.ErrorContains(t, err, "unexpected status 502")
}

func TestCondenseHTML_TruncatesOnRuneBoundary(t *testing.T) {
	base, err := url.Parse("https://www.example.in/latestjob/")
	require.NoError(t, err)

	page := "<html><body><p>" + strings.Repeat("भर्ती", 20000) + "</p></body></html>"
	html, err := condenseHTML(strings.NewReader(page), base)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(html), maxPageHTML)
	assert.True(t, utf8.ValidString(html))
}

func TestTruncateUTF8(t *testing.T) {
	assert.Equal(t, "short", truncateUTF8("short", 10))
	assert.Equal(t, "ab", truncateUTF8("abc", 2))
	// "भ" is three bytes.
	assert.Equal(t, "a", truncateUTF8("aभ", 3))
	assert.Equal(t, "aभ", truncateUTF8("aभb", 4))
}

func TestListingID(t *testing.T) {
	a := ListingID("https://www.sarkariresult.com/ssc/ssc-cgl-2024.php")
	assert.Equal(t, a, ListingID("https://mirror.example.org/ssc-cgl-2024.php"))
	assert.Equal(t, a, ListingID("https://www.sarkariresult.com/ssc/ssc-cgl-2024/"))
	assert.NotEqual(t, a, ListingID("https://www.sarkariresult.com/ssc/ssc-chsl-2024.php"))
	assert.Positive(t, a)
}

func TestParseDeadline(t *testing.T) {
	cases := map[string]string{
		"24/07/2024":           "2024-07-24",
		"4/7/2024":             "2024-07-04",
		"24-07-2024":           "2024-07-24",
		"2024-07-24":           "2024-07-24",
		"2024-07-24T10:00:00Z": "2024-07-24",
	}
	for in, want := range cases {
		got, err := ParseDeadline(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String(), in)
	}

	_, err := ParseDeadline("")
	assert.Error(t, err)
	_, err = ParseDeadline("31/02/2024")
	assert.Error(t, err)
}

func TestAPIClient(t *testing.T) {
	var gotAuth string
	var gotBody dtos.BulkImportRequest
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/jobs/bulk":
			gotAuth = r.Header.Get("Authorization")
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			_, _ = w.Write([]byte(`{"summary":{"processed":1,"failed":1},"errors":["Failed to process job ID 2: boom"]}`))
		case r.URL.Path == "/api/v1/meta" && r.URL.Query().Get("type") == "categories":
			_, _ = w.Write([]byte(`[{"id":1,"name":"Banking","slug":"banking"}]`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Invalid meta type specified."}`))
		}
	}))
	defer api.Close()

	client := NewAPIClient(api.URL+"/", "s3cret")
	ctx := context.Background()

	result, err := client.BulkUpsert(ctx, []dtos.JobInput{validInput(1), validInput(2)})
	require.NoError(t, err)
	assert.Equal(t, "Bearer s3cret", gotAuth)
	assert.Len(t, gotBody.Data, 2)
	assert.Equal(t, dtos.BulkSummary{Processed: 1, Failed: 1}, result.Summary)

	cats, err := client.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, "banking", cats[0].Slug)

	_, err = client.ListLocations(ctx)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "status 400"))
}
