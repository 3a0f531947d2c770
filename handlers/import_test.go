package handlers

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"windquote/store"
	"windquote/testhelpers"
)

const lineCSV = "Code;Désignation;Unité;Quantité;Prix unitaire\n" +
	"GC-010;Décapage;m²;$sum_surf_PF;4,20\n" +
	";Massif béton;u;$nb_fond_gravitaire * 420;180\n" +
	";Forfait installation;ens;1;12 500\n"

func TestHandleLineImport(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	_, sec := lineFixture(t, app, true)
	item := testhelpers.CreateTestPriceItem(t, app, "GC-010", "Décapage terre végétale", "m²", 4.2)

	req := uploadRequest(t, "/sections/"+sec.Id+"/import", "lignes.csv", []byte(lineCSV), "id", sec.Id)
	rec := serve(t, app, HandleLineImport(app), req)
	expectStatus(t, rec, http.StatusOK)

	var got struct {
		Imported int `json:"imported"`
	}
	decodeJSON(t, rec, &got)
	if got.Imported != 3 {
		t.Fatalf("expected 3 imported lines, got %d", got.Imported)
	}

	lines, err := store.New(app).LoadSectionLines(sec.Id)
	if err != nil {
		t.Fatalf("load lines: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 stored lines, got %d", len(lines))
	}
	if lines[0].Quantity.Variable != "$sum_surf_PF" || lines[0].PriceItemID != item.Id {
		t.Errorf("first line should reference the catalog and the price item, got %+v", lines[0])
	}
	if lines[1].Quantity.Expression != "$nb_fond_gravitaire * 420" || lines[1].Quantity.Literal != 420 {
		t.Errorf("second line should be a formula mirroring 420, got %+v", lines[1].Quantity)
	}
	if lines[2].UnitPrice != 12500 {
		t.Errorf("expected unit price 12500, got %v", lines[2].UnitPrice)
	}
}

func TestHandleLineImport_RejectsWholeFile(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	_, sec := lineFixture(t, app, true)

	content := "Désignation;Quantité;Prix unitaire\n" +
		"Décapage;$sum_surf_PF;4,20\n" +
		"Massif;$inconnue;180\n" +
		"Forfait;1;abc\n"
	req := uploadRequest(t, "/sections/"+sec.Id+"/import", "lignes.csv", []byte(content), "id", sec.Id)
	rec := serve(t, app, HandleLineImport(app), req)
	expectStatus(t, rec, http.StatusUnprocessableEntity)

	var got struct {
		Error  string `json:"error"`
		Result struct {
			TotalRows int `json:"total_rows"`
			ErrorRows int `json:"error_rows"`
			Errors    []struct {
				Row   int    `json:"row"`
				Field string `json:"field"`
			} `json:"errors"`
		} `json:"result"`
	}
	decodeJSON(t, rec, &got)
	if got.Result.TotalRows != 3 || got.Result.ErrorRows != 2 {
		t.Errorf("unexpected counts %+v", got.Result)
	}
	if len(got.Result.Errors) != 2 || got.Result.Errors[0].Row != 3 || got.Result.Errors[1].Row != 4 {
		t.Errorf("unexpected errors %+v", got.Result.Errors)
	}
	if !strings.Contains(got.Error, "rien n'a été importé") {
		t.Errorf("unexpected message %q", got.Error)
	}

	lines, _ := app.FindAllRecords("lines")
	if len(lines) != 0 {
		t.Errorf("a file with errors must import nothing, got %d lines", len(lines))
	}
}

func TestHandleLineImport_ErrorReport(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	_, sec := lineFixture(t, app, true)

	content := "Désignation;Quantité\nMassif;$inconnue\n"
	req := uploadRequest(t, "/sections/"+sec.Id+"/import?report=xlsx", "lignes.csv", []byte(content), "id", sec.Id)
	rec := serve(t, app, HandleLineImport(app), req)
	expectStatus(t, rec, http.StatusUnprocessableEntity)

	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("expected xlsx content type, got %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("expected an xlsx body")
	}
}

func TestHandleLineImport_BadUpload(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	_, sec := lineFixture(t, app, true)

	req := uploadRequest(t, "/sections/"+sec.Id+"/import", "lignes.docx", []byte("x"), "id", sec.Id)
	rec := serve(t, app, HandleLineImport(app), req)
	expectStatus(t, rec, http.StatusBadRequest)

	var got struct {
		Error string `json:"error"`
	}
	decodeJSON(t, rec, &got)
	if !strings.Contains(got.Error, "Format non supporté") {
		t.Errorf("unexpected message %q", got.Error)
	}

	req = uploadRequest(t, "/sections/missing/import", "lignes.csv", []byte(lineCSV), "id", "missing")
	rec = serve(t, app, HandleLineImport(app), req)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestHandlePriceItemImport_Upserts(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestPriceItem(t, app, "GC-010", "Ancien libellé", "m²", 3)

	content := "Code;Désignation;Unité;Prix unitaire;Catégorie\n" +
		"GC-010;Décapage terre végétale;m²;4,20;Terrassement\n" +
		"EL-200;Câble HTA 3x240;ml;38,5;Électricité\n"
	req := uploadRequest(t, "/price-items/import", "prix.csv", []byte(content))
	rec := serve(t, app, HandlePriceItemImport(app), req)
	expectStatus(t, rec, http.StatusOK)

	var got struct {
		Created int `json:"created"`
		Updated int `json:"updated"`
	}
	decodeJSON(t, rec, &got)
	if got.Created != 1 || got.Updated != 1 {
		t.Errorf("expected 1 created and 1 updated, got %+v", got)
	}

	items, err := store.New(app).ListPriceItems("")
	if err != nil {
		t.Fatalf("list price items: %v", err)
	}
	if len(items) != 2 || items[1].Code != "GC-010" || items[1].UnitPrice != 4.2 || items[1].Designation != "Décapage terre végétale" {
		t.Errorf("unexpected price items %+v", items)
	}
}

func TestHandlePriceItemImport_DuplicateCodesRejected(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	content := "Code;Désignation;Prix unitaire\nA;Un;1\nA;Deux;2\n"
	req := uploadRequest(t, "/price-items/import", "prix.csv", []byte(content))
	rec := serve(t, app, HandlePriceItemImport(app), req)
	expectStatus(t, rec, http.StatusUnprocessableEntity)

	items, _ := app.FindAllRecords("price_items")
	if len(items) != 0 {
		t.Errorf("expected nothing imported, got %d", len(items))
	}
}
