package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"wbledger/internal/client/wb"
)

func fastTaskService(client *wb.Client) *StorageService {
	return &StorageService{
		Client:       client,
		Backoff:      testBackoff,
		PollInterval: time.Millisecond,
		MaxPolls:     3,
	}
}

func TestStorageFetch_HappyPath(t *testing.T) {
	polls := 0
	client := testWBClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/status"):
			polls++
			status := "processing"
			if polls >= 2 {
				status = "done"
			}
			fmt.Fprintf(w, `{"data":{"id":"task-1","status":%q}}`, status)
		case strings.HasSuffix(r.URL.Path, "/download"):
			fmt.Fprint(w, `[
				{"nmId":100,"vendorCode":"SKU-A","warehousePrice":1.234},
				{"nmId":100,"vendorCode":"SKU-A","warehousePrice":2.5},
				{"nmId":200,"vendorCode":"SKU-B","warehousePrice":7}
			]`)
		default:
			fmt.Fprint(w, `{"data":{"taskId":"task-1"}}`)
		}
	})

	totals, err := fastTaskService(client).Fetch(context.Background(), "tok", time.Now(), time.Now())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("totals=%v want 2 products", totals)
	}
	if got := totals["100"].Total.String(); got != "3.73" {
		t.Fatalf("product 100 total=%s want 3.73 (rounded)", got)
	}
	if got := totals["200"].Total.String(); got != "7" {
		t.Fatalf("product 200 total=%s want 7", got)
	}
	// Without a card mapping the vendor code falls back to the product id.
	if totals["100"].VendorCode != "100" {
		t.Fatalf("vendorCode=%q want fallback to id", totals["100"].VendorCode)
	}
}

func TestStorageFetch_CreateRateLimitedYieldsEmpty(t *testing.T) {
	client := testWBClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})
	totals, err := fastTaskService(client).Fetch(context.Background(), "tok", time.Now(), time.Now())
	if err != nil {
		t.Fatalf("err=%v, exhausted backoff must not fail the report", err)
	}
	if len(totals) != 0 {
		t.Fatalf("totals=%v want empty", totals)
	}
}

func TestStorageFetch_PollBudgetExhaustedYieldsEmpty(t *testing.T) {
	client := testWBClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/status") {
			fmt.Fprint(w, `{"data":{"id":"task-1","status":"processing"}}`)
			return
		}
		fmt.Fprint(w, `{"data":{"taskId":"task-1"}}`)
	})
	totals, err := fastTaskService(client).Fetch(context.Background(), "tok", time.Now(), time.Now())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(totals) != 0 {
		t.Fatalf("totals=%v want empty after poll budget", totals)
	}
}

func TestStorageFetch_RateLimitedPollsDoNotCount(t *testing.T) {
	polls := 0
	client := testWBClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/status"):
			polls++
			// Two 429s, then two pending polls, then done. MaxPolls is 3,
			// so the job only finishes if the 429s were free.
			switch {
			case polls <= 2:
				http.Error(w, "too many requests", http.StatusTooManyRequests)
			case polls <= 4:
				fmt.Fprint(w, `{"data":{"id":"task-1","status":"processing"}}`)
			default:
				fmt.Fprint(w, `{"data":{"id":"task-1","status":"done"}}`)
			}
		case strings.HasSuffix(r.URL.Path, "/download"):
			fmt.Fprint(w, `[{"nmId":100,"warehousePrice":5}]`)
		default:
			fmt.Fprint(w, `{"data":{"taskId":"task-1"}}`)
		}
	})
	totals, err := fastTaskService(client).Fetch(context.Background(), "tok", time.Now(), time.Now())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(totals) != 1 {
		t.Fatalf("totals=%v want 1 product", totals)
	}
}

func TestStorageFetch_MalformedArtifactYieldsEmpty(t *testing.T) {
	client := testWBClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/status"):
			fmt.Fprint(w, `{"data":{"id":"task-1","status":"done"}}`)
		case strings.HasSuffix(r.URL.Path, "/download"):
			fmt.Fprint(w, `{"not":"an array"}`)
		default:
			fmt.Fprint(w, `{"data":{"taskId":"task-1"}}`)
		}
	})
	totals, err := fastTaskService(client).Fetch(context.Background(), "tok", time.Now(), time.Now())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(totals) != 0 {
		t.Fatalf("totals=%v want empty for unreadable artifact", totals)
	}
}

func TestStorageFetch_AuthErrorPropagates(t *testing.T) {
	client := testWBClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
	_, err := fastTaskService(client).Fetch(context.Background(), "tok", time.Now(), time.Now())
	if !wb.IsStatusError(err) {
		t.Fatalf("err=%v want status error", err)
	}
}
