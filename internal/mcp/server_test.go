package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"nosecounter/internal/dataset"
	"nosecounter/internal/report"
	"nosecounter/internal/stats"
)

var fixedNow = time.Date(2017, 9, 1, 12, 0, 0, 0, time.UTC)

func testDeps(t *testing.T) Deps {
	t.Helper()
	opts := report.DefaultOptions()
	opts.Year = 2016
	opts.OutputDir = t.TempDir()
	opts.Window = stats.RegistrationWindow{
		Start:    time.Date(2016, 1, 14, 19, 0, 0, 0, time.UTC),
		End:      time.Date(2016, 8, 20, 0, 0, 0, 0, time.UTC),
		Interval: time.Hour,
	}
	return Deps{
		Loader:     &dataset.Loader{ArchiveDir: filepath.Join("..", "testdata", "archive"), MaxYearCount: 5},
		Options:    opts,
		Metrics:    report.NewMetrics(),
		ReportFile: filepath.Join(opts.OutputDir, "index.html"),
		Now:        func() time.Time { return fixedNow },
	}
}

func connect(t *testing.T, deps Deps) *mcpsdk.ClientSession {
	t.Helper()
	srv := NewServer(deps)
	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	done := make(chan error, 1)
	go func() { done <- srv.RunWithTransport(ctx, serverTransport) }()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		<-done
	})
	return session
}

func call(t *testing.T, session *mcpsdk.ClientSession, name string, args map[string]any) *mcpsdk.CallToolResult {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s) error = %v", name, err)
	}
	return res
}

func text(t *testing.T, res *mcpsdk.CallToolResult, i int) string {
	t.Helper()
	if len(res.Content) <= i {
		t.Fatalf("result has %d content blocks, want > %d", len(res.Content), i)
	}
	tc, ok := res.Content[i].(*mcpsdk.TextContent)
	if !ok {
		t.Fatalf("content[%d] is %T, want text", i, res.Content[i])
	}
	return tc.Text
}

func decode(t *testing.T, res *mcpsdk.CallToolResult, v any) {
	t.Helper()
	if res.IsError {
		t.Fatalf("tool error: %s", text(t, res, 0))
	}
	if err := json.Unmarshal([]byte(text(t, res, 0)), v); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
}

func TestServer_ListTools(t *testing.T) {
	session := connect(t, testDeps(t))

	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
		if tool.InputSchema == nil {
			t.Errorf("tool %s has no input schema", tool.Name)
		}
	}
	slices.Sort(names)
	want := []string{ToolComposeSeries, ToolGenerateReport, ToolListYears, ToolRegistrations}
	if !slices.Equal(names, want) {
		t.Errorf("tools = %v, want %v", names, want)
	}
}

func TestServer_ListYears(t *testing.T) {
	session := connect(t, testDeps(t))

	var resp struct {
		Data     []yearSummary `json:"data"`
		Warnings []string      `json:"warnings"`
	}
	decode(t, call(t, session, ToolListYears, nil), &resp)

	if len(resp.Data) != 2 || resp.Data[0].Year != 2015 || resp.Data[1].TotalCount != 2400 {
		t.Errorf("years = %+v", resp.Data)
	}
	if resp.Data[1].Live {
		t.Error("2016 comes from the archive")
	}
	if len(resp.Warnings) != 1 || !strings.Contains(resp.Warnings[0], "broken.json") {
		t.Errorf("warnings = %v", resp.Warnings)
	}
}

func TestServer_ComposeSeries(t *testing.T) {
	session := connect(t, testDeps(t))

	res := call(t, session, ToolComposeSeries, map[string]any{"chart": "gender", "mermaid": true})
	var resp struct {
		Data struct {
			Chart  string               `json:"chart"`
			Series stats.ComposedSeries `json:"series"`
		} `json:"data"`
	}
	decode(t, res, &resp)

	if resp.Data.Chart != report.ChartGender {
		t.Errorf("chart = %q", resp.Data.Chart)
	}
	if v, _ := resp.Data.Series.Value("Gender", stats.NotAvailable); v != 150 {
		t.Errorf("n/a slice = %v, want 150", v)
	}
	if mm := text(t, res, 1); !strings.HasPrefix(mm, "```mermaid\npie") {
		t.Errorf("mermaid = %q", mm)
	}
}

func TestServer_ComposeSeries_Errors(t *testing.T) {
	session := connect(t, testDeps(t))

	tests := []struct {
		name string
		args map[string]any
	}{
		{"unknown chart", map[string]any{"chart": "weather"}},
		{"missing year", map[string]any{"chart": "gender", "year": 2030}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := call(t, session, ToolComposeSeries, tt.args); !res.IsError {
				t.Errorf("expected a tool error, got %s", text(t, res, 0))
			}
		})
	}
}

func TestServer_GenerateReport(t *testing.T) {
	deps := testDeps(t)
	session := connect(t, deps)

	var resp struct {
		Data struct {
			Year       int               `json:"year"`
			Years      []int             `json:"years"`
			Charts     map[string]string `json:"charts"`
			ReportFile string            `json:"report_file"`
		} `json:"data"`
	}
	decode(t, call(t, session, ToolGenerateReport, nil), &resp)

	if resp.Data.Year != 2016 || !slices.Equal(resp.Data.Years, []int{2015, 2016}) {
		t.Errorf("year = %d, years = %v", resp.Data.Year, resp.Data.Years)
	}
	if len(resp.Data.Charts) != len(report.ChartKeys) {
		t.Errorf("got %d charts, want %d", len(resp.Data.Charts), len(report.ChartKeys))
	}
	if resp.Data.ReportFile != deps.ReportFile {
		t.Errorf("report_file = %q", resp.Data.ReportFile)
	}
	if _, err := os.Stat(deps.ReportFile); err != nil {
		t.Errorf("report page not written: %v", err)
	}
}

func TestServer_Registrations(t *testing.T) {
	session := connect(t, testDeps(t))

	var resp struct {
		Data struct {
			Interval string      `json:"interval"`
			Open     bool        `json:"open"`
			Total    int         `json:"total"`
			Buckets  []bucketOut `json:"buckets"`
		} `json:"data"`
	}
	decode(t, call(t, session, ToolRegistrations, nil), &resp)

	if resp.Data.Interval != "60 Minutes" || resp.Data.Open {
		t.Errorf("interval = %q, open = %v", resp.Data.Interval, resp.Data.Open)
	}
	if resp.Data.Total != 0 || len(resp.Data.Buckets) != 0 {
		t.Errorf("archived year without timestamps gave %d buckets, total %d", len(resp.Data.Buckets), resp.Data.Total)
	}
}
