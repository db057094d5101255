package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fairyhunter13/vending-machine-simulator/internal/coins"
	"github.com/fairyhunter13/vending-machine-simulator/internal/config"
	httpopenapi "github.com/fairyhunter13/vending-machine-simulator/internal/http/openapi"
	"github.com/fairyhunter13/vending-machine-simulator/internal/idempotency"
	"github.com/fairyhunter13/vending-machine-simulator/internal/machine"
	"github.com/fairyhunter13/vending-machine-simulator/internal/obs"
	"github.com/fairyhunter13/vending-machine-simulator/internal/queue"
)

const maxBodyBytes = 1 << 20

// App holds the dependencies shared by the handlers.
type App struct {
	Cfg     config.Config
	Machine *machine.Machine
	Manager *queue.Manager
	// Idempotency is optional; POSTs are not deduplicated when nil.
	Idempotency *idempotency.Store

	tracer  trace.Tracer
	closing atomic.Bool
	started time.Time
}

type balanceResp struct {
	BalanceCt int64   `json:"balance_ct"`
	Balance   float64 `json:"balance"`
}

type moneyReq struct {
	Amount *float64 `json:"amount"`
}

type purchaseReq struct {
	ProductID *int `json:"product_id"`
}

type purchaseResp struct {
	PriceCt   int64  `json:"price_ct"`
	Message   string `json:"message"`
	BalanceCt int64  `json:"balance_ct"`
}

type changeResp struct {
	Coins any `json:"coins"`
}

// NewApp wires the handlers to a machine and its event manager.
func NewApp(cfg config.Config, m *machine.Machine, mgr *queue.Manager) *App {
	return &App{
		Cfg:     cfg,
		Machine: m,
		Manager: mgr,
		tracer:  otel.Tracer("vending-http"),
		started: time.Now(),
	}
}

// StartShutdown rejects further state-changing requests and closes the
// event intake.
func (a *App) StartShutdown() {
	a.closing.Store(true)
	a.Manager.CloseIntake()
}

func (a *App) rejectIfClosing(w http.ResponseWriter) bool {
	if a.closing.Load() || a.Manager.IsShuttingDown() {
		WriteJSONError(w, http.StatusServiceUnavailable, "shutting_down", "")
		return true
	}
	return false
}

// decodeJSON enforces a JSON content type and a body without unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		WriteJSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected application/json")
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

func (a *App) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Machine.ListProducts())
}

func (a *App) getProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
		return
	}
	p, ok := a.Machine.Product(id)
	if !ok {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *App) balanceHandler(w http.ResponseWriter, r *http.Request) {
	ct := a.Machine.Balance()
	writeJSON(w, http.StatusOK, balanceResp{BalanceCt: ct, Balance: centsToEUR(ct)})
}

func (a *App) insertMoneyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "InsertMoney")
	defer span.End()

	if a.rejectIfClosing(w) {
		return
	}
	var req moneyReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Amount == nil {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "amount is required")
		return
	}
	span.SetAttributes(attribute.Float64("vending.amount", *req.Amount))

	ct := a.Machine.InsertMoneyContext(ctx, *req.Amount)
	obs.Logger.InfoContext(ctx, "money_inserted",
		"request_id", RequestIDFromContext(ctx),
		"amount", *req.Amount,
		"balance_ct", ct,
	)
	writeJSON(w, http.StatusOK, balanceResp{BalanceCt: ct, Balance: centsToEUR(ct)})
}

func (a *App) purchaseHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "BuyProduct")
	defer span.End()

	if a.rejectIfClosing(w) {
		return
	}
	var req purchaseReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == nil {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "product_id is required")
		return
	}
	span.SetAttributes(attribute.Int("vending.product_id", *req.ProductID))

	sale, err := a.Machine.BuyProductContext(ctx, *req.ProductID)
	if err != nil {
		status, code := statusFor(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		obs.Logger.InfoContext(ctx, "purchase_rejected",
			"request_id", RequestIDFromContext(ctx),
			"product_id", *req.ProductID,
			"reason", code,
		)
		WriteJSONError(w, status, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, purchaseResp{
		PriceCt:   sale.PaidCents,
		Message:   sale.Receipt.Message,
		BalanceCt: sale.BalanceCents,
	})
}

func (a *App) changeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "ReturnCoins")
	defer span.End()

	if a.rejectIfClosing(w) {
		return
	}
	pretty, _ := strconv.ParseBool(r.URL.Query().Get("pretty"))

	result, err := a.Machine.ReturnCoinsContext(ctx)
	if err != nil {
		status, code := statusFor(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		WriteJSONError(w, status, code, err.Error())
		return
	}
	span.SetAttributes(attribute.Int("vending.coin_count", len(result)))
	if pretty {
		writeJSON(w, http.StatusOK, changeResp{Coins: coins.Pretty(result)})
		return
	}
	writeJSON(w, http.StatusOK, changeResp{Coins: result})
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) metricsHandler(w http.ResponseWriter, r *http.Request) {
	enq, proc, failed, backlog, depth := a.Manager.QueueMetrics()
	m := map[string]any{
		"machine_id":       a.Machine.ID(),
		"balance_ct":       a.Machine.Balance(),
		"events_enqueued":  enq,
		"events_processed": proc,
		"events_failed":    failed,
		"last_sequence":    a.Manager.LastSequence(),
		"backlog_size":     backlog,
		"queue_depth":      depth,
		"worker_count":     a.Manager.WorkerCount(),
		"uptime_sec":       time.Since(a.started).Seconds(),
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *App) openapiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(httpopenapi.YAML)
}

func (a *App) docsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html := `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Vending Machine API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui'
      });
    </script>
  </body>
</html>`
	_, _ = w.Write([]byte(html))
}

func centsToEUR(ct int64) float64 {
	return decimal.New(ct, -2).InexactFloat64()
}
