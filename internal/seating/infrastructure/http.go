package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mateusmacedo/go-seatbooking/internal/seating/application"
	"github.com/mateusmacedo/go-seatbooking/internal/seating/domain"
	pkgApp "github.com/mateusmacedo/go-seatbooking/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-seatbooking/pkg/domain"
)

// UserRefHeader carrega a referência opaca do usuário já autenticado pela camada de identidade.
const UserRefHeader = "X-User-Ref"

const requestTimeout = 10 * time.Second

type SeatingHTTPHandler struct {
	buses       application.Buses
	idGenerator pkgDomain.IDGenerator[string]
	logger      pkgApp.AppLogger
}

func NewSeatingHTTPHandler(buses application.Buses, idGenerator pkgDomain.IDGenerator[string], logger pkgApp.AppLogger) *SeatingHTTPHandler {
	return &SeatingHTTPHandler{
		buses:       buses,
		idGenerator: idGenerator,
		logger:      logger,
	}
}

func (h *SeatingHTTPHandler) RegisterRoutes(router chi.Router) {
	router.Get("/routes", h.HandleListRoutes)
	router.Post("/routes", h.HandleAddRoute)
	router.Get("/routes/{routeIndex}/seats", h.HandleListSeats)
	router.Get("/routes/{routeIndex}/seats/map", h.HandleSeatMap)
	router.Post("/routes/{routeIndex}/bookings", h.HandleBookSeats)
	router.Get("/allocations/{allocationID}", h.HandleFindAllocation)
	router.Get("/bookings", h.HandleFindBookings)
}

type addRouteRequest struct {
	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	AdultFare   decimal.Decimal `json:"adultFare"`
}

type bookSeatsRequest struct {
	NumTickets int                     `json:"numTickets"`
	Seats      []domain.SeatAssignment `json:"seats"`
}

func (h *SeatingHTTPHandler) HandleListRoutes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	routes, err := h.buses.ListRoutes.Dispatch(ctx, application.NewListRoutesQuery())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, routes)
}

func (h *SeatingHTTPHandler) HandleAddRoute(w http.ResponseWriter, r *http.Request) {
	var req addRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	req.Source = strings.TrimSpace(req.Source)
	req.Destination = strings.TrimSpace(req.Destination)
	if req.Source == "" || req.Destination == "" {
		http.Error(w, "source and destination are required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	routeID := domain.RouteID(h.idGenerator())
	command := application.NewAddRouteCommand(application.AddRouteData{
		RouteID:     routeID,
		Source:      req.Source,
		Destination: req.Destination,
		AdultFare:   req.AdultFare,
	})
	if err := h.buses.AddRoute.Dispatch(ctx, command); err != nil {
		h.handleError(w, r, err)
		return
	}

	route, err := h.buses.FindRoute.Dispatch(ctx, application.NewFindRouteQuery(application.FindRouteData{RouteID: routeID}))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, map[string]interface{}{"message": "Route added", "route": route})
}

func (h *SeatingHTTPHandler) HandleListSeats(w http.ResponseWriter, r *http.Request) {
	view, ok := h.seatMap(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, r, http.StatusOK, view)
}

func (h *SeatingHTTPHandler) HandleSeatMap(w http.ResponseWriter, r *http.Request) {
	view, ok := h.seatMap(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "Available Seats for %s to %s:\n%s", view.Route.Source, view.Route.Destination, view.Rendered)
}

func (h *SeatingHTTPHandler) seatMap(w http.ResponseWriter, r *http.Request) (application.SeatMapView, bool) {
	index, err := routeIndexParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return application.SeatMapView{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	view, err := h.buses.ListSeats.Dispatch(ctx, application.NewListSeatsQuery(application.ListSeatsData{RouteIndex: index}))
	if err != nil {
		h.handleError(w, r, err)
		return application.SeatMapView{}, false
	}
	return view, true
}

func (h *SeatingHTTPHandler) HandleBookSeats(w http.ResponseWriter, r *http.Request) {
	user := strings.TrimSpace(r.Header.Get(UserRefHeader))
	if user == "" {
		http.Error(w, "You must log in to book a ticket", http.StatusUnauthorized)
		return
	}

	index, err := routeIndexParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req bookSeatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	for i := range req.Seats {
		req.Seats[i].PassengerName = strings.TrimSpace(req.Seats[i].PassengerName)
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	allocationID := h.idGenerator()
	command := application.NewBookSeatsCommand(application.BookSeatsData{
		AllocationID: allocationID,
		User:         domain.UserRef(user),
		RouteIndex:   index,
		NumTickets:   req.NumTickets,
		Seats:        req.Seats,
	})
	if err := h.buses.BookSeats.Dispatch(ctx, command); err != nil {
		h.handleError(w, r, err)
		return
	}

	allocation, err := h.buses.FindAllocation.Dispatch(ctx, application.NewFindAllocationQuery(application.FindAllocationData{AllocationID: allocationID}))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, map[string]interface{}{
		"message":    application.ConfirmationMessage(len(allocation.BookingIDs), allocation.RouteLabel, allocation.TotalFare.StringFixed(2)),
		"allocation": allocation,
	})
}

func (h *SeatingHTTPHandler) HandleFindAllocation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	query := application.NewFindAllocationQuery(application.FindAllocationData{
		AllocationID: chi.URLParam(r, "allocationID"),
	})
	allocation, err := h.buses.FindAllocation.Dispatch(ctx, query)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, allocation)
}

func (h *SeatingHTTPHandler) HandleFindBookings(w http.ResponseWriter, r *http.Request) {
	passenger := strings.TrimSpace(r.URL.Query().Get("passenger"))
	if passenger == "" {
		http.Error(w, "passenger query parameter is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	query := application.NewFindBookingsByPassengerQuery(application.FindBookingsByPassengerData{PassengerName: passenger})
	bookings, err := h.buses.FindBookingsByPassenger.Dispatch(ctx, query)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, bookings)
}

func (h *SeatingHTTPHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		pkgApp.LogError(r.Context(), h.logger, "request failed", err, map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": status,
		})
	}
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrIndexOutOfRange),
		errors.Is(err, domain.ErrRouteNotFound),
		errors.Is(err, application.ErrAllocationNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyBooked),
		errors.Is(err, domain.ErrDuplicateRoute):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func routeIndexParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "routeIndex")
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid route number %q", raw)
	}
	return index, nil
}

// writeJSON só consegue registrar falhas de codificação: o status já foi enviado.
func (h *SeatingHTTPHandler) writeJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		pkgApp.LogError(r.Context(), h.logger, "failed to encode response", err, map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": status,
		})
	}
}
