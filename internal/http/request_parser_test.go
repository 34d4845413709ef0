package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestDecodeJSONBody(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantErr  bool
		wantText string
	}{
		{"valid", `{"text":"кофе 3 евро"}`, false, "кофе 3 евро"},
		{"with event", `{"event":"result","text":"такси"}`, false, "такси"},
		{"empty", ``, true, ""},
		{"unknown field", `{"txt":"x"}`, true, ""},
		{"malformed", `{"text":`, true, ""},
		{"two values", `{"text":"a"}{"text":"b"}`, true, ""},
		{"too large", `{"text":"` + strings.Repeat("a", maxBodyBytes) + `"}`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/transcripts", strings.NewReader(tt.body))
			var req transcriptRequest
			err := DecodeJSONBody(httptest.NewRecorder(), r, &req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeJSONBody() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && req.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", req.Text, tt.wantText)
			}
		})
	}
}

func TestParseTotalsQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    TotalsQuery
		wantErr bool
	}{
		{"empty", "", TotalsQuery{}, false},
		{"category", "category=%D0%95%D0%B4%D0%B0", TotalsQuery{Category: "Еда"}, false},
		{"category and date", "category=Еда&date=2026-10-15", TotalsQuery{Category: "Еда", Date: "2026-10-15"}, false},
		{"bad date", "category=Еда&date=15.10.2026", TotalsQuery{}, true},
		{"date without category", "date=2026-10-15", TotalsQuery{}, true},
		{"control characters stripped", "category=%09%01Еда%00", TotalsQuery{Category: "Еда"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			got, err := ParseTotalsQuery(values)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTotalsQuery() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTotalsQuery() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"limit=5", 5, false},
		{"limit=5000", 500, false},
		{"limit=0", 0, true},
		{"limit=-1", 0, true},
		{"limit=abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			got, err := ParseLimit(values, 500)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLimit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLimit() = %d, want %d", got, tt.want)
			}
		})
	}
}
