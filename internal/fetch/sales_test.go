package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wbledger/internal/client/wb"
)

func testWBClient(t *testing.T, handler http.HandlerFunc) *wb.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return wb.NewClient(server.Client(), wb.Hosts{
		Statistics: server.URL,
		Content:    server.URL,
		Analytics:  server.URL,
		Advert:     server.URL,
	})
}

func TestSalesFetch_Pagination(t *testing.T) {
	var rrdids []string
	client := testWBClient(t, func(w http.ResponseWriter, r *http.Request) {
		rrdid := r.URL.Query().Get("rrdid")
		rrdids = append(rrdids, rrdid)
		switch rrdid {
		case "0":
			fmt.Fprint(w, `[{"rrd_id":1,"nm_id":100},{"rrd_id":2,"nm_id":101}]`)
		case "2":
			fmt.Fprint(w, `[{"rrd_id":3,"nm_id":102}]`)
		default:
			fmt.Fprint(w, `[]`)
		}
	})

	svc := &SalesService{Client: client, PageLimit: 2, PageDelay: time.Millisecond}
	rows, err := svc.Fetch(context.Background(), "tok", time.Now(), time.Now())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows=%d want 3", len(rows))
	}
	if len(rrdids) != 2 || rrdids[0] != "0" || rrdids[1] != "2" {
		t.Fatalf("rrdids=%v want cursor progression 0, 2", rrdids)
	}
}

func TestSalesFetch_StopsOnStuckCursor(t *testing.T) {
	requests := 0
	client := testWBClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		// Same full page every time: the cursor never advances.
		fmt.Fprint(w, `[{"rrd_id":1},{"rrd_id":2}]`)
	})

	svc := &SalesService{Client: client, PageLimit: 2, PageDelay: time.Millisecond}
	rows, err := svc.Fetch(context.Background(), "tok", time.Now(), time.Now())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if requests != 2 {
		t.Fatalf("requests=%d want 2", requests)
	}
	if len(rows) != 4 {
		t.Fatalf("rows=%d want 4", len(rows))
	}
}

func TestSalesFetch_EmptyPeriod(t *testing.T) {
	client := testWBClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "null")
	})
	svc := &SalesService{Client: client, PageLimit: 10, PageDelay: time.Millisecond}
	rows, err := svc.Fetch(context.Background(), "tok", time.Now(), time.Now())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows=%d want 0", len(rows))
	}
}

func TestSalesFetch_AuthErrorPropagates(t *testing.T) {
	client := testWBClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
	svc := &SalesService{Client: client, PageLimit: 10, PageDelay: time.Millisecond}
	_, err := svc.Fetch(context.Background(), "tok", time.Now(), time.Now())
	if !wb.IsStatusError(err) {
		t.Fatalf("err=%v want status error", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}
