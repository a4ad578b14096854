package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/i474232898/commodity-weather-forecast/internal/series"
	"github.com/i474232898/commodity-weather-forecast/internal/store"
	"github.com/i474232898/commodity-weather-forecast/internal/weather"
)

type stubFetcher struct {
	body []byte
	err  error
}

func (f *stubFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	return f.body, f.err
}

type stubWeather struct {
	resp weather.DailyResponse
	err  error
}

func (w *stubWeather) FetchDaily(ctx context.Context, loc weather.Location) (weather.DailyResponse, error) {
	return w.resp, w.err
}

type recordingObserver struct {
	runs     map[string]int
	failures int
	skipped  int
}

func (o *recordingObserver) ObserveRun(task string, seconds float64, err error) {
	if o.runs == nil {
		o.runs = map[string]int{}
	}
	o.runs[task]++
	if err != nil {
		o.failures++
	}
}

func (o *recordingObserver) ObserveExtraction(name string, emitted, skipped int) {
	o.skipped += skipped
}

func (o *recordingObserver) ObserveStoreWrite(name string, err error) {}

const sheet = "Monthly Prices"

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet(sheet); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("CoordinatesToCellName: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("SetCellValue: %v", err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func scenarioWorkbook(t *testing.T) []byte {
	return workbook(t, [][]any{
		{"World Bank Commodity Price Data (The Pink Sheet)"},
		{},
		{"Commodity", "Crude oil, Brent", "Coal"},
		{"1960M01", 1.63, 12.0},
		{"1960M02", nil, 11.5},
		{"1960M03", 1.65, 11.4},
	})
}

func newService(f Fetcher, w WeatherSource, st Writer, strict bool, opts ...Option) *Service {
	return NewService(f, w, st, PriceSource{
		URL:    "http://example.test/prices.xlsx",
		Sheet:  sheet,
		Label:  "crude oil, brent",
		Strict: strict,
	}, weather.Location{Lat: -21.5, Lon: -45.0}, opts...)
}

func TestFetchPricesWritesSeries(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	obs := &recordingObserver{}
	var notified []string

	svc := newService(&stubFetcher{body: scenarioWorkbook(t)}, &stubWeather{}, st, false,
		WithObserver(obs), WithWriteListener(func(name string) { notified = append(notified, name) }))

	rep, err := svc.FetchPrices(ctx)
	if err != nil {
		t.Fatalf("FetchPrices: %v", err)
	}
	if rep.Emitted != 2 || rep.Skipped != 1 || rep.RunID == "" {
		t.Errorf("report = %+v", rep)
	}

	got, err := st.Read(ctx, series.CommodityPrices)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := [][]any{{"1960M01", 1.63}, {"1960M03", 1.65}}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("rows = %v, want %v", got.Rows, want)
	}
	if obs.runs[TaskPrices] != 1 || obs.skipped != 1 {
		t.Errorf("observer = %+v", obs)
	}
	if !reflect.DeepEqual(notified, []string{series.CommodityPrices}) {
		t.Errorf("notified = %v", notified)
	}
}

func TestFetchPricesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := newService(&stubFetcher{body: scenarioWorkbook(t)}, &stubWeather{}, st, false)

	if _, err := svc.FetchPrices(ctx); err != nil {
		t.Fatalf("FetchPrices: %v", err)
	}
	before, _ := st.Read(ctx, series.CommodityPrices)
	if _, err := svc.FetchPrices(ctx); err != nil {
		t.Fatalf("FetchPrices again: %v", err)
	}
	after, _ := st.Read(ctx, series.CommodityPrices)

	if !reflect.DeepEqual(before, after) {
		t.Errorf("store changed on rerun")
	}
}

func TestFetchPricesFailuresKeepLastGood(t *testing.T) {
	ctx := context.Background()
	good := series.PriceFrame(series.Series{{Label: "2024M01", Value: 80}})

	cases := map[string]Fetcher{
		"download": &stubFetcher{err: errors.New("connection refused")},
		"not xlsx": &stubFetcher{body: []byte("<html>maintenance</html>")},
		"no label": &stubFetcher{body: workbook(t, [][]any{{"Commodity", "Coal"}, {"1960M01", 12.0}})},
		"bad date": &stubFetcher{body: workbook(t, [][]any{{"Commodity", "Crude oil, Brent"}, {"1960M13", 1.0}})},
	}

	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			st := store.NewMemoryStore()
			st.Write(ctx, series.CommodityPrices, good)
			obs := &recordingObserver{}

			svc := newService(f, &stubWeather{}, st, false, WithObserver(obs))
			if _, err := svc.FetchPrices(ctx); err == nil {
				t.Fatal("expected error")
			}

			got, _ := st.Read(ctx, series.CommodityPrices)
			if !reflect.DeepEqual(got, good) {
				t.Errorf("store overwritten: %+v", got)
			}
			if obs.failures != 1 {
				t.Errorf("failures = %d, want 1", obs.failures)
			}
		})
	}
}

func TestFetchPricesNotFoundPropagates(t *testing.T) {
	body := workbook(t, [][]any{{"Commodity", "Coal"}, {"1960M01", 12.0}})
	svc := newService(&stubFetcher{body: body}, &stubWeather{}, store.NewMemoryStore(), false)

	_, err := svc.FetchPrices(context.Background())
	var nf *series.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}
}

func TestFetchPricesStrictLabel(t *testing.T) {
	body := workbook(t, [][]any{
		{"Commodity", "Crude oil, Brent", "Crude oil, Brent (old basis)"},
		{"1960M01", 1.63, 1.60},
	})

	lenient := newService(&stubFetcher{body: body}, &stubWeather{}, store.NewMemoryStore(), false)
	if _, err := lenient.FetchPrices(context.Background()); err != nil {
		t.Fatalf("lenient FetchPrices: %v", err)
	}

	strict := newService(&stubFetcher{body: body}, &stubWeather{}, store.NewMemoryStore(), true)
	_, err := strict.FetchPrices(context.Background())
	if !errors.Is(err, series.ErrAmbiguous) {
		t.Fatalf("strict FetchPrices err = %v, want ErrAmbiguous", err)
	}
	var amb *series.AmbiguousError
	if !errors.As(err, &amb) || !reflect.DeepEqual(amb.Cells, []string{"B1", "C1"}) {
		t.Errorf("ambiguous cells = %+v, want [B1 C1]", amb)
	}
}

func ptr(v float64) *float64 { return &v }

func TestFetchWeather(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	w := &stubWeather{resp: weather.DailyResponse{Daily: weather.Daily{
		Time:             []string{"2025-01-01", "2025-01-02"},
		TemperatureMax:   []*float64{ptr(30.1), ptr(31.0)},
		PrecipitationSum: []*float64{ptr(0.0), ptr(2.3)},
	}}}

	rep, err := newService(&stubFetcher{}, w, st, false).FetchWeather(ctx)
	if err != nil {
		t.Fatalf("FetchWeather: %v", err)
	}
	if rep.Emitted != 2 || rep.Series != series.WeatherData {
		t.Errorf("report = %+v", rep)
	}

	got, _ := st.Read(ctx, series.WeatherData)
	want := [][]any{{"2025-01-01", 30.1, 0.0}, {"2025-01-02", 31.0, 2.3}}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("rows = %v, want %v", got.Rows, want)
	}
}

func TestFetchWeatherShapeErrorKeepsLastGood(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	good := series.WeatherFrame([]series.WeatherRecord{{Date: "2024-12-31"}})
	st.Write(ctx, series.WeatherData, good)

	w := &stubWeather{resp: weather.DailyResponse{Daily: weather.Daily{
		Time:             []string{"2025-01-01", "2025-01-02"},
		TemperatureMax:   []*float64{ptr(30.1), ptr(31.0)},
		PrecipitationSum: []*float64{ptr(0.0)},
	}}}

	_, err := newService(&stubFetcher{}, w, st, false).FetchWeather(ctx)
	if !errors.Is(err, series.ErrShape) {
		t.Fatalf("err = %v, want ErrShape", err)
	}
	got, _ := st.Read(ctx, series.WeatherData)
	if !reflect.DeepEqual(got, good) {
		t.Errorf("store overwritten: %+v", got)
	}
}

func TestRunDispatch(t *testing.T) {
	svc := newService(&stubFetcher{body: scenarioWorkbook(t)}, &stubWeather{}, store.NewMemoryStore(), false)
	if _, err := svc.Run(context.Background(), TaskPrices); err != nil {
		t.Errorf("Run prices: %v", err)
	}
	if _, err := svc.Run(context.Background(), "coffee"); err == nil {
		t.Error("expected error for unknown task")
	}
}
