package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/oauth2"

	"spesevoce/internal/auth"
	"spesevoce/internal/sheets"
)

func TestCreateAndAddSheet(t *testing.T) {
	ctx := context.Background()
	s := New()
	id, err := s.CreateSpreadsheet(ctx, "Spese", "Sheet1")
	if err != nil {
		t.Fatalf("CreateSpreadsheet: %v", err)
	}
	if _, err := s.AddSheet(ctx, id, "май 2026", 10, 10); err != nil {
		t.Fatalf("AddSheet: %v", err)
	}
	if _, err := s.AddSheet(ctx, id, "май 2026", 10, 10); !errors.Is(err, sheets.ErrContainerExists) {
		t.Fatalf("duplicate AddSheet: got %v", err)
	}
	got, err := s.Sheets(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	want := []sheets.SheetInfo{{ID: 0, Title: "Sheet1", Index: 0}, {ID: 1, Title: "май 2026", Index: 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sheets (-want +got):\n%s", diff)
	}
}

func TestUnknownSpreadsheet(t *testing.T) {
	_, err := New().Sheets(context.Background(), "nope")
	if !errors.Is(err, sheets.ErrContainerNotFound) {
		t.Fatalf("expected ErrContainerNotFound, got %v", err)
	}
}

func TestAppendReadClear(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed("x")
	if _, err := s.AddSheet(ctx, "x", "S", 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteRange(ctx, "x", "'S'!A1:B1", [][]any{{"h1", "h2"}}); err != nil {
		t.Fatal(err)
	}
	for i, row := range [][]any{{"a", 1.5}, {"b", ""}} {
		got, err := s.AppendRow(ctx, "x", "S", row)
		if err != nil {
			t.Fatal(err)
		}
		if got != i+1 {
			t.Fatalf("AppendRow row = %d, want %d", got, i+1)
		}
	}

	values, err := s.ReadRange(ctx, "x", "'S'!A2:B")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([][]any{{"a", 1.5}, {"b"}}, values); diff != "" {
		t.Fatalf("ReadRange (-want +got):\n%s", diff)
	}

	if err := s.ClearRange(ctx, "x", "'S'!B2:B"); err != nil {
		t.Fatal(err)
	}
	if v := s.Cell("x", "S", 1, 1); v != nil {
		t.Fatalf("cleared cell = %v", v)
	}
	if v := s.Cell("x", "S", 0, 1); v != "h2" {
		t.Fatalf("header outside range was cleared: %v", v)
	}
}

func TestReadMissingSheet(t *testing.T) {
	s := New()
	s.Seed("x")
	if _, err := s.ReadRange(context.Background(), "x", "'Nope'!A1"); err == nil {
		t.Fatal("expected error for unknown sheet")
	}
}

func TestCredentialCheck(t *testing.T) {
	ctx := context.Background()
	sw := auth.NewSwitchable(auth.None())
	s := New().WithCredentials(sw)
	s.Seed("x")

	if _, err := s.Sheets(ctx, "x"); !errors.Is(err, sheets.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if s.Calls() != 0 {
		t.Fatalf("calls = %d", s.Calls())
	}

	sw.Set(auth.Static(&oauth2.Token{AccessToken: "t"}))
	if _, err := s.Sheets(ctx, "x"); err != nil {
		t.Fatalf("with token: %v", err)
	}
	if s.Calls() != 1 {
		t.Fatalf("calls = %d", s.Calls())
	}
}

func TestDeleteSheetAndSpreadsheet(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed("x")
	s.AddSheet(ctx, "x", "A", 0, 0)
	s.AddSheet(ctx, "x", "B", 0, 0)
	s.DeleteSheet("x", "A")
	if diff := cmp.Diff([]string{"B"}, s.Titles("x")); diff != "" {
		t.Fatalf("titles (-want +got):\n%s", diff)
	}
	s.DeleteSpreadsheet("x")
	if len(s.Spreadsheets()) != 0 {
		t.Fatalf("spreadsheets = %v", s.Spreadsheets())
	}
}
