//go:build integration

package integration

import (
	"bytes"
	"net/http"
	"testing"
)

func TestIntegration_ValidationErrors(t *testing.T) {
	waitReady(t)
	u := baseURL()

	cases := []struct {
		name, path, body, ctype string
		want                    int
	}{
		{"missing_amount", "/money", `{}`, "application/json", http.StatusBadRequest},
		{"string_amount", "/money", `{"amount":"1"}`, "application/json", http.StatusBadRequest},
		{"unknown_field", "/money", `{"amount":1,"coin":true}`, "application/json", http.StatusBadRequest},
		{"malformed_json", "/purchases", `{"product_id":`, "application/json", http.StatusBadRequest},
		{"fractional_id", "/purchases", `{"product_id":1.5}`, "application/json", http.StatusBadRequest},
		{"text_body", "/money", `amount=1`, "text/plain", http.StatusUnsupportedMediaType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := http.NewRequest(http.MethodPost, u+tc.path, bytes.NewBufferString(tc.body))
			r.Header.Set("Content-Type", tc.ctype)
			resp, err := http.DefaultClient.Do(r)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, resp.StatusCode)
			}
		})
	}
}

func TestIntegration_PurchaseErrors(t *testing.T) {
	waitReady(t)
	resetBalance(t)

	resp := postJSON(t, "/purchases", `{"product_id":987654}`)
	var e apiError
	decodeBody(t, resp, &e)
	if resp.StatusCode != http.StatusNotFound || e.Error != "unknown_product" {
		t.Fatalf("expected 404 unknown_product, got %d %+v", resp.StatusCode, e)
	}

	for _, p := range listProducts(t) {
		if p.Stock == 0 {
			continue
		}
		resp = postJSON(t, "/purchases", `{"product_id":`+itoa(p.ID)+`}`)
		decodeBody(t, resp, &e)
		if resp.StatusCode != http.StatusPaymentRequired || e.Error != "insufficient_funds" {
			t.Fatalf("expected 402 insufficient_funds, got %d %+v", resp.StatusCode, e)
		}
		return
	}
}

func TestIntegration_ChangeNotRepresentable(t *testing.T) {
	waitReady(t)
	resetBalance(t)
	// 3 cents cannot be paid with the default coins
	if resp := postJSON(t, "/money", `{"amount":0.03}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp := postJSON(t, "/change", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Skipf("server coin set can pay 3 cents (status %d)", resp.StatusCode)
	}
	r, err := http.Get(baseURL() + "/balance")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = r.Body.Close() }()
	var b balance
	decodeBody(t, r, &b)
	if b.BalanceCt != 0 {
		t.Fatalf("expected balance reset, got %d", b.BalanceCt)
	}
}
