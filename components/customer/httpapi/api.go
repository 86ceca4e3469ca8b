package httpapi

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	gocommand "github.com/goliatone/go-command"
	customer "github.com/goliatone/go-customer-dashboard/components/customer"
	"github.com/goliatone/go-customer-dashboard/components/customer/commands"
	"github.com/goliatone/go-customer-dashboard/components/customer/queries"
)

// MethodPath is the RPC-style method endpoint the dashboard panel calls.
const MethodPath = "/api/method/customer_dashboard.get_customer_dashboard"

// Handlers exposes HTTP endpoints backed by shared commands and queries.
type Handlers struct {
	Dashboard  gocommand.Querier[queries.DashboardInput, string]
	Summary    gocommand.Querier[queries.SummaryInput, customer.Summary]
	Invalidate gocommand.Commander[commands.InvalidateDashboardInput]
	// Events streams refresh events; usually BroadcastHook.ServeSSE.
	Events http.Handler
}

// Mount registers every handler on mux.
func (h *Handlers) Mount(mux *http.ServeMux) {
	mux.HandleFunc("POST "+MethodPath, h.HandleMethod)
	mux.HandleFunc("GET "+MethodPath, h.HandleMethod)
	mux.HandleFunc("GET /customers/{id}/dashboard", func(w http.ResponseWriter, r *http.Request) {
		h.HandleFragment(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("GET /customers/{id}/summary", func(w http.ResponseWriter, r *http.Request) {
		h.HandleSummary(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("POST /customers/{id}/dashboard/invalidate", func(w http.ResponseWriter, r *http.Request) {
		h.HandleInvalidate(w, r, r.PathValue("id"))
	})
	if h.Events != nil {
		mux.Handle("GET /customers/dashboard/events", h.Events)
	}
}

type methodPayload struct {
	Customer string `json:"customer"`
}

type methodResponse struct {
	Message *string `json:"message"`
}

type methodError struct {
	Exc string `json:"exc"`
}

// HandleMethod serves the {"message": html} envelope. Empty results carry a null message.
func (h *Handlers) HandleMethod(w http.ResponseWriter, r *http.Request) {
	name, err := methodCustomer(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, methodError{Exc: err.Error()})
		return
	}
	if name == "" {
		writeJSON(w, http.StatusBadRequest, methodError{Exc: customer.ErrCustomerRequired.Error()})
		return
	}
	html, err := h.Dashboard.Query(r.Context(), dashboardInput(r, name))
	if err != nil {
		writeJSON(w, statusFor(err), methodError{Exc: err.Error()})
		return
	}
	resp := methodResponse{}
	if html != "" {
		resp.Message = &html
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleFragment returns the raw HTML fragment, or 204 when there is none.
func (h *Handlers) HandleFragment(w http.ResponseWriter, r *http.Request, name string) {
	html, err := h.Dashboard.Query(r.Context(), dashboardInput(r, name))
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	if html == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

func (h *Handlers) HandleSummary(w http.ResponseWriter, r *http.Request, name string) {
	summary, err := h.Summary.Query(r.Context(), queries.SummaryInput{Customer: name})
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handlers) HandleInvalidate(w http.ResponseWriter, r *http.Request, name string) {
	input := commands.InvalidateDashboardInput{Customer: name, Reason: r.URL.Query().Get("reason")}
	if err := h.Invalidate.Execute(r.Context(), input); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func methodCustomer(r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if r.Method == http.MethodPost && mediaType == "application/json" {
		var payload methodPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return "", err
		}
		return strings.TrimSpace(payload.Customer), nil
	}
	return strings.TrimSpace(r.FormValue("customer")), nil
}

func dashboardInput(r *http.Request, name string) queries.DashboardInput {
	return queries.DashboardInput{
		Customer: name,
		Locale:   customer.ParseAcceptLanguage(r.Header.Get("Accept-Language")),
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, customer.ErrCustomerRequired):
		return http.StatusBadRequest
	case errors.Is(err, customer.ErrCustomerNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
