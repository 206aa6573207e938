package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestAcceptanceFetch_SumsPerProductAndTotal(t *testing.T) {
	client := testWBClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/status"):
			fmt.Fprint(w, `{"data":{"id":"task-9","status":"done"}}`)
		case strings.HasSuffix(r.URL.Path, "/download"):
			fmt.Fprint(w, `[
				{"nmID":100,"total":10.5},
				{"nmID":100,"total":2},
				{"nmID":200,"total":3}
			]`)
		default:
			fmt.Fprint(w, `{"data":{"taskId":"task-9"}}`)
		}
	})
	svc := &AcceptanceService{Client: client, Backoff: testBackoff, PollInterval: time.Millisecond, MaxPolls: 3}
	result, err := svc.Fetch(context.Background(), "tok", time.Now(), time.Now())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if got := result.ByProduct["100"].String(); got != "12.5" {
		t.Fatalf("product 100=%s want 12.5", got)
	}
	if got := result.ByProduct["200"].String(); got != "3" {
		t.Fatalf("product 200=%s want 3", got)
	}
	if got := result.Total.String(); got != "15.5" {
		t.Fatalf("total=%s want 15.5", got)
	}
}

func TestAcceptanceFetch_StuckTaskYieldsEmpty(t *testing.T) {
	client := testWBClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/status") {
			fmt.Fprint(w, `{"data":{"id":"task-9","status":"processing"}}`)
			return
		}
		fmt.Fprint(w, `{"data":{"taskId":"task-9"}}`)
	})
	svc := &AcceptanceService{Client: client, Backoff: testBackoff, PollInterval: time.Millisecond, MaxPolls: 2}
	result, err := svc.Fetch(context.Background(), "tok", time.Now(), time.Now())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(result.ByProduct) != 0 || !result.Total.IsZero() {
		t.Fatalf("result=%+v want empty", result)
	}
}
