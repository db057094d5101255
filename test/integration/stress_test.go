//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"
)

// Inserts money concurrently and checks that no cent is lost.
func TestIntegration_ConcurrentInsertsKeepBalance(t *testing.T) {
	waitReady(t)
	resetBalance(t)
	u := baseURL()
	concurrency := 20
	perGoroutine := 10
	client := &http.Client{Timeout: 5 * time.Second}

	var wg sync.WaitGroup
	wg.Add(concurrency)
	errCh := make(chan error, concurrency*perGoroutine)
	for g := 0; g < concurrency; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				r, _ := http.NewRequest(http.MethodPost, u+"/money", bytes.NewBufferString(`{"amount":0.05}`))
				r.Header.Set("Content-Type", "application/json")
				resp, err := client.Do(r)
				if err != nil {
					errCh <- err
					return
				}
				if resp.StatusCode != http.StatusOK {
					errCh <- fmt.Errorf("expected 200, got %d", resp.StatusCode)
				}
				_ = resp.Body.Close()
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatal(err)
		}
	}

	resp, err := http.Get(u + "/balance")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var b balance
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		t.Fatal(err)
	}
	if want := int64(concurrency * perGoroutine * 5); b.BalanceCt != want {
		t.Fatalf("expected balance %d, got %d", want, b.BalanceCt)
	}
	resetBalance(t)
}
