package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"agencyboard/internal/pipeline"
	"agencyboard/internal/store"
	"agencyboard/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	version, err := st.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != "0002_finalization" {
		t.Fatalf("unexpected schema version %q", version)
	}

	// Reopening must not re-apply migrations.
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	again, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	if err := again.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestInsertGetRoundTripKeepsOptionalFieldsAbsent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rec := testsupport.InsertRecord(t, st, pipeline.Record{
		Board:         pipeline.BoardOperations,
		Status:        "OP_GERADA",
		Title:         " GRU-LIS ",
		ClientName:    "Ana Souza",
		PaymentMethod: "cartao",
		AmountCents:   350000,
	})
	if rec.ID == "" {
		t.Fatal("expected id to be assigned")
	}
	if rec.Title != "GRU-LIS" {
		t.Fatalf("expected trimmed title, got %q", rec.Title)
	}
	if rec.PaymentLink != nil || rec.Handler != nil {
		t.Fatalf("expected absent link and handler, got %v %v", rec.PaymentLink, rec.Handler)
	}
	if rec.CreatedAt.IsZero() || rec.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps")
	}

	got, err := st.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Fatalf("record mismatch (-insert +get):\n%s", diff)
	}

	if _, err := st.Get(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateWritesAndClearsOptionalFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rec := testsupport.InsertRecord(t, st, pipeline.Record{Board: pipeline.BoardOperations, Status: "OP_GERADA", Title: "A"})

	rec.Status = "LINK_GERADO"
	rec.PaymentLink = pipeline.StringPtr("https://pay.example/1")
	updated, err := st.Update(ctx, rec)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Status != "LINK_GERADO" || updated.LinkValue() != "https://pay.example/1" {
		t.Fatalf("unexpected updated record %+v", updated)
	}

	updated.Status = "OP_GERADA"
	updated.PaymentLink = nil
	cleared, err := st.Update(ctx, updated)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if cleared.PaymentLink != nil {
		t.Fatalf("expected link cleared, got %q", cleared.LinkValue())
	}

	if _, err := st.Update(ctx, pipeline.Record{ID: "ghost", Board: pipeline.BoardOperations}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListOrdersAndFilters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, status := range []string{"LEAD", "CONTATO_INICIAL", "LEAD"} {
		testsupport.InsertRecord(t, st, pipeline.Record{
			ID:        string(rune('a' + i)),
			Board:     pipeline.BoardCommercial,
			Status:    status,
			Title:     status,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	testsupport.InsertRecord(t, st, pipeline.Record{ID: "ops", Board: pipeline.BoardOperations, Status: "OP_GERADA"})

	records, err := st.ListBoard(ctx, pipeline.BoardCommercial, 0)
	if err != nil {
		t.Fatalf("ListBoard failed: %v", err)
	}
	var ids []string
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	if diff := cmp.Diff([]string{"c", "b", "a"}, ids); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}

	leads, err := st.List(ctx, store.Query{Board: pipeline.BoardCommercial, Equal: map[string]string{"status": "LEAD"}, Limit: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(leads) != 1 || leads[0].ID != "a" {
		t.Fatalf("unexpected filtered records %+v", leads)
	}

	bad := []store.Query{
		{},
		{Board: pipeline.BoardCommercial, Equal: map[string]string{"status; DROP TABLE records": "x"}},
		{Board: pipeline.BoardCommercial, OrderBy: "notes"},
	}
	for _, q := range bad {
		if _, err := st.List(ctx, q); err == nil {
			t.Fatalf("expected query %+v to be rejected", q)
		}
	}
}

func TestDeleteCascadesFinalization(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rec := testsupport.InsertRecord(t, st, pipeline.Record{Board: pipeline.BoardOperations, Status: "EM_EMISSAO"})
	if err := st.UpsertLocators(ctx, rec.ID, []pipeline.Locator{{Passenger: "Ana", Code: "XYZ"}}); err != nil {
		t.Fatalf("UpsertLocators failed: %v", err)
	}
	if err := st.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	locators, err := st.Locators(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Locators failed: %v", err)
	}
	if len(locators) != 0 {
		t.Fatalf("expected locators removed, got %+v", locators)
	}
	if err := st.Delete(ctx, rec.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestFinalizationWritesAreIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rec := testsupport.InsertRecord(t, st, pipeline.Record{Board: pipeline.BoardOperations, Status: "EM_EMISSAO"})
	locators := []pipeline.Locator{
		{Passenger: "Rui", Code: "AAA111"},
		{Passenger: "Ana", Code: "BBB222", TicketNumber: "957-1"},
	}
	costs := []pipeline.CostLine{
		{Description: "tarifa", AmountCents: 120000, Supplier: "LATAM"},
		{Description: "taxa", AmountCents: 8000},
	}
	for i := 0; i < 2; i++ {
		if err := st.UpsertLocators(ctx, rec.ID, locators); err != nil {
			t.Fatalf("UpsertLocators pass %d: %v", i, err)
		}
		if err := st.UpsertCosts(ctx, rec.ID, costs); err != nil {
			t.Fatalf("UpsertCosts pass %d: %v", i, err)
		}
	}

	gotLocators, err := st.Locators(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Locators failed: %v", err)
	}
	wantLocators := []pipeline.Locator{locators[1], locators[0]}
	if diff := cmp.Diff(wantLocators, gotLocators); diff != "" {
		t.Fatalf("locators mismatch (-want +got):\n%s", diff)
	}

	gotCosts, err := st.Costs(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Costs failed: %v", err)
	}
	if diff := cmp.Diff(costs, gotCosts); diff != "" {
		t.Fatalf("costs mismatch (-want +got):\n%s", diff)
	}

	// A corrected passenger code and a shorter cost batch replace prior rows.
	if err := st.UpsertLocators(ctx, rec.ID, []pipeline.Locator{{Passenger: "Rui", Code: "CCC333"}}); err != nil {
		t.Fatalf("UpsertLocators correction: %v", err)
	}
	if err := st.UpsertCosts(ctx, rec.ID, costs[:1]); err != nil {
		t.Fatalf("UpsertCosts correction: %v", err)
	}
	gotLocators, _ = st.Locators(ctx, rec.ID)
	if len(gotLocators) != 2 || gotLocators[1].Code != "CCC333" {
		t.Fatalf("unexpected corrected locators %+v", gotLocators)
	}
	gotCosts, _ = st.Costs(ctx, rec.ID)
	if len(gotCosts) != 1 {
		t.Fatalf("expected trailing cost removed, got %+v", gotCosts)
	}
}

func TestFinalizationRequiresRecordAndFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := st.UpsertLocators(ctx, "ghost", []pipeline.Locator{{Passenger: "Ana", Code: "X"}}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	rec := testsupport.InsertRecord(t, st, pipeline.Record{Board: pipeline.BoardOperations})
	if err := st.UpsertLocators(ctx, rec.ID, []pipeline.Locator{{Passenger: "Ana"}}); err == nil {
		t.Fatal("expected missing code to be rejected")
	}
	if err := st.UpsertCosts(ctx, rec.ID, []pipeline.CostLine{{AmountCents: 1}}); err == nil {
		t.Fatal("expected missing description to be rejected")
	}
}

func TestDeterministicIDs(t *testing.T) {
	if store.LocatorID("r1", "Ana") != store.LocatorID("r1", " Ana ") {
		t.Fatal("expected passenger whitespace to be ignored")
	}
	if store.LocatorID("r1", "Ana") == store.LocatorID("r2", "Ana") {
		t.Fatal("expected record id to influence locator id")
	}
	if store.CostID("r1", 0) == store.CostID("r1", 1) {
		t.Fatal("expected position to influence cost id")
	}
}

func TestStatsFoldIntoStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for _, status := range []string{"Aprovada", "EMITIDO", "LANÇADO", "nova", ""} {
		testsupport.InsertRecord(t, st, pipeline.Record{Board: pipeline.BoardQuotations, Status: status})
	}
	stats, err := st.Stats(ctx, pipeline.BoardQuotations)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	counts := store.StageCounts(pipeline.MustRegistry(pipeline.BoardQuotations), stats)
	if counts[pipeline.StageQuoteApproved] != 3 {
		t.Fatalf("expected 3 approved, got %d", counts[pipeline.StageQuoteApproved])
	}
	if counts[pipeline.StageQuoteNew] != 2 {
		t.Fatalf("expected 2 new, got %d", counts[pipeline.StageQuoteNew])
	}
	if _, ok := counts[pipeline.StageQuoteDeclined]; !ok {
		t.Fatal("expected every stage present")
	}
}
