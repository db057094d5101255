//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

func baseURL() string {
	if v := os.Getenv("BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func waitReady(t *testing.T) {
	t.Helper()
	url := fmt.Sprintf("%s/healthz", baseURL())
	deadline := time.Now().Add(20 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("service not ready")
}

type product struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Stock int    `json:"stock"`
}

type balance struct {
	BalanceCt int64   `json:"balance_ct"`
	Balance   float64 `json:"balance"`
}

type apiError struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func postJSON(t *testing.T, path, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	r, _ := http.NewRequest(http.MethodPost, baseURL()+path, rd)
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(r)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

// resetBalance empties the machine. The server is shared, so every test that
// asserts on the balance starts here.
func resetBalance(t *testing.T) {
	t.Helper()
	resp := postJSON(t, "/change", "")
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("reset balance: got %d", resp.StatusCode)
	}
}

func listProducts(t *testing.T) []product {
	t.Helper()
	resp, err := http.Get(baseURL() + "/products")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var ps []product
	decodeBody(t, resp, &ps)
	return ps
}

func TestIntegration_OpenAPIServed(t *testing.T) {
	waitReady(t)
	resp, err := http.Get(baseURL() + "/openapi.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestIntegration_DocsServed(t *testing.T) {
	waitReady(t)
	resp, err := http.Get(baseURL() + "/docs")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	b, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(b), "swagger-ui") {
		t.Fatalf("expected swagger-ui in docs page")
	}
}

func TestIntegration_InsertBuyChange(t *testing.T) {
	waitReady(t)
	resetBalance(t)

	var target *product
	for _, p := range listProducts(t) {
		if p.Stock > 0 {
			target = &p
			break
		}
	}
	if target == nil {
		t.Skip("every product is sold out")
	}

	resp := postJSON(t, "/money", `{"amount":5}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var b balance
	decodeBody(t, resp, &b)
	if b.BalanceCt != 500 {
		t.Fatalf("expected balance 500, got %+v", b)
	}

	resp = postJSON(t, "/purchases", fmt.Sprintf(`{"product_id":%d}`, target.ID))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var pr struct {
		PriceCt   int64  `json:"price_ct"`
		Message   string `json:"message"`
		BalanceCt int64  `json:"balance_ct"`
	}
	decodeBody(t, resp, &pr)
	if !strings.Contains(pr.Message, target.Name) {
		t.Fatalf("unexpected message %q", pr.Message)
	}
	if pr.BalanceCt != 500-pr.PriceCt {
		t.Fatalf("unexpected balance after purchase: %+v", pr)
	}

	resp = postJSON(t, "/change", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var ch struct {
		Coins []int64 `json:"coins"`
	}
	decodeBody(t, resp, &ch)
	var sum int64
	for _, c := range ch.Coins {
		sum += c
	}
	if sum != pr.BalanceCt {
		t.Fatalf("coins %v do not add up to %d", ch.Coins, pr.BalanceCt)
	}
}
