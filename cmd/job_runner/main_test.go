package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobbench/core"
	"jobbench/monitoring"
	"jobbench/vectorized"
)

type companyName struct {
	ID          int64   `parquet:"id"`
	Name        string  `parquet:"name"`
	CountryCode string  `parquet:"country_code"`
	ImdbID      *int64  `parquet:"imdb_id"`
	PcodeNF     *string `parquet:"name_pcode_nf"`
	PcodeSF     *string `parquet:"name_pcode_sf"`
	MD5         *string `parquet:"md5sum"`
}

type keyword struct {
	ID           int64   `parquet:"id"`
	Keyword      string  `parquet:"keyword"`
	PhoneticCode *string `parquet:"phonetic_code"`
}

type movieCompany struct {
	ID            int64   `parquet:"id"`
	MovieID       int64   `parquet:"movie_id"`
	CompanyID     int64   `parquet:"company_id"`
	CompanyTypeID int64   `parquet:"company_type_id"`
	Note          *string `parquet:"note"`
}

type movieKeyword struct {
	ID        int64 `parquet:"id"`
	MovieID   int64 `parquet:"movie_id"`
	KeywordID int64 `parquet:"keyword_id"`
}

type title struct {
	ID             int64   `parquet:"id"`
	Title          string  `parquet:"title"`
	ImdbIndex      *string `parquet:"imdb_index"`
	KindID         int32   `parquet:"kind_id"`
	ProductionYear *int32  `parquet:"production_year"`
	ImdbID         *int64  `parquet:"imdb_id"`
	PhoneticCode   *string `parquet:"phonetic_code"`
	EpisodeOfID    *int64  `parquet:"episode_of_id"`
	SeasonNr       *int32  `parquet:"season_nr"`
	EpisodeNr      *int32  `parquet:"episode_nr"`
	SeriesYears    *string `parquet:"series_years"`
	MD5            *string `parquet:"md5sum"`
}

func write[T any](t *testing.T, path string, rows ...T) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	w := parquet.NewGenericWriter[T](f)
	_, err = w.Write(rows)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

// dataset2a holds the tables query 2a reads.
func dataset2a(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write(t, filepath.Join(dir, "company_name.parquet"),
		companyName{ID: 1, Name: "Ufa", CountryCode: "[de]"},
		companyName{ID: 2, Name: "Acme", CountryCode: "[us]"},
	)
	write(t, filepath.Join(dir, "keyword.parquet"),
		keyword{ID: 1, Keyword: "character-name-in-title"},
		keyword{ID: 2, Keyword: "sequel"},
	)
	write(t, filepath.Join(dir, "movie_companies.parquet"),
		movieCompany{ID: 1, MovieID: 1, CompanyID: 1, CompanyTypeID: 1},
		movieCompany{ID: 2, MovieID: 2, CompanyID: 1, CompanyTypeID: 1},
		movieCompany{ID: 3, MovieID: 3, CompanyID: 2, CompanyTypeID: 1},
	)
	write(t, filepath.Join(dir, "movie_keyword.parquet"),
		movieKeyword{ID: 1, MovieID: 1, KeywordID: 1},
		movieKeyword{ID: 2, MovieID: 2, KeywordID: 1},
		movieKeyword{ID: 3, MovieID: 3, KeywordID: 1},
	)
	write(t, filepath.Join(dir, "title.parquet"),
		title{ID: 1, Title: "Metropolis", KindID: 1},
		title{ID: 2, Title: "M", KindID: 1},
		title{ID: 3, Title: "Alien", KindID: 1},
	)
	return dir
}

func runner(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	color.NoColor = true
	t.Setenv("JOBBENCH_TRACE_LEVEL", "OFF")
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunEvaluatesQuery(t *testing.T) {
	dir := dataset2a(t)
	code, out, errOut := runner(t, "-data", dir, "-query", "2a", "-repeat", "3")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "loaded 5 tables")
	assert.Contains(t, out, "[2a] (M) (best")
	assert.Contains(t, out, "over 3 runs")

	for _, flags := range [][]string{{"-no-fold"}, {"-no-elision"}, {"-parallel", "4"}} {
		args := append([]string{"-data", dir, "-query", "2a"}, flags...)
		code, out, errOut = runner(t, args...)
		require.Equal(t, 0, code, errOut)
		assert.Contains(t, out, "[2a] (M)", flags)
	}
}

func TestRunExplain(t *testing.T) {
	code, out, errOut := runner(t, "-data", dataset2a(t), "-query", "2a", "-explain")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "query 2a")
	assert.Contains(t, out, "where country_code = '[de]'")
}

func TestRunStats(t *testing.T) {
	code, out, errOut := runner(t, "-data", dataset2a(t), "-query", "2a", "-stats")
	require.Equal(t, 0, code, errOut)

	start := strings.IndexByte(out, '[')
	require.True(t, start >= 0)
	var stats []map[string]interface{}
	require.NoError(t, json.NewDecoder(strings.NewReader(out[start:])).Decode(&stats))
	require.Len(t, stats, 5)
	assert.Equal(t, "company_name", stats[0]["name"])
	assert.EqualValues(t, 2, stats[0]["row_count"])
}

func TestRunErrors(t *testing.T) {
	code, _, errOut := runner(t, "-query", "2a,nope")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `unknown query "nope"`)

	code, _, errOut = runner(t, "-trace-level", "LOUD")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "unknown trace level")

	code, _, errOut = runner(t, "-data", t.TempDir(), "-query", "2a")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "load failed")
	assert.Contains(t, errOut, "table not found")
}

func TestSelectQueries(t *testing.T) {
	all, err := selectQueries("all")
	require.NoError(t, err)
	assert.Len(t, all, 8)

	some, err := selectQueries(" 3a, 17a ,")
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "17a", some[1].Name)

	assert.Equal(t, []string{"keyword", "movie_info", "movie_keyword", "title"}, tablesOf(some[:1]))
}

func TestRunMetrics(t *testing.T) {
	code, out, errOut := runner(t, "-data", dataset2a(t), "-query", "2a", "-repeat", "2", "-metrics")
	require.Equal(t, 0, code, errOut)

	start := strings.Index(out, "{")
	require.True(t, start >= 0)
	var report struct {
		Summary struct {
			TotalQueries int64 `json:"total_queries"`
			EmptyResults int64 `json:"empty_results"`
		} `json:"summary"`
		Metrics []struct {
			Name string `json:"name"`
		} `json:"metrics"`
	}
	require.NoError(t, json.NewDecoder(strings.NewReader(out[start:])).Decode(&report))
	assert.Equal(t, int64(2), report.Summary.TotalQueries)
	assert.Zero(t, report.Summary.EmptyResults)

	var names []string
	for _, m := range report.Metrics {
		names = append(names, m.Name)
	}
	assert.Contains(t, names, "query_2a_duration")
}

func TestEvaluateAllKeepsPerQueryErrors(t *testing.T) {
	b := vectorized.NewTableBuilder("kind",
		&vectorized.Field{Name: "id", DataType: vectorized.INT64},
		&vectorized.Field{Name: "kind", DataType: vectorized.STRING})
	require.NoError(t, b.AddRow(int64(1), "movie"))
	require.NoError(t, b.AddRow(int64(2), "episode"))
	kind, err := b.Build()
	require.NoError(t, err)
	src := core.MapSource{"kind": kind}

	good := core.NewQuery("good").From("k", "kind").Min("", "k.kind").MustBuild()
	bad := core.NewQuery("bad").From("m", "missing").Min("", "m.id").MustBuild()

	tr := core.NewTracer()
	tr.SetLevel(core.TraceLevelOff)
	engine := core.NewEngine(core.WithTracer(tr))
	monitor := monitoring.NewQueryMonitor(nil)
	results := evaluateAll(engine, src, monitor, []*core.Query{bad, good, bad}, 1, false, 3)

	require.Len(t, results, 3)
	for _, i := range []int{0, 2} {
		assert.Equal(t, "bad", results[i].query)
		assert.ErrorIs(t, results[i].err, core.ErrConfiguration)
	}
	require.NoError(t, results[1].err)
	require.True(t, results[1].ok)
	assert.Equal(t, core.Tuple{vectorized.Str("episode")}, results[1].tuple)
	assert.Equal(t, int64(2), monitor.GetQueryStats().FailedQueries)
}
