// ABOUTME: HTTP API handlers for the employee directory and permission assignment
// ABOUTME: All routes require a valid JWT; mutations are capability gated

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/crewbase/chat-gateway/internal/auth"
	"github.com/crewbase/chat-gateway/internal/permission"
	"github.com/crewbase/chat-gateway/internal/store"
)

// EmployeeResponse is the JSON shape for directory entries.
type EmployeeResponse struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Role  permission.Role `json:"role"`
	Flags map[string]bool `json:"permissionFlags"`
}

// UpsertEmployeeRequest is the JSON request body for POST /api/employees.
type UpsertEmployeeRequest struct {
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Role  permission.Role `json:"role"`
}

// AssignPermissionsRequest is the JSON request body for
// PUT /api/employees/{id}/permissions.
type AssignPermissionsRequest struct {
	Flags map[string]bool `json:"flags"`
	Merge bool            `json:"merge"`
}

type contextKey string

const employeeContextKey contextKey = "employee"

// requireAuth verifies the bearer token and loads the caller's directory
// record into the request context. Unknown employee ids are rejected even
// when the token itself verifies.
func (g *Gateway) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.FromRequest(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		employeeID, err := g.verifier.Verify(token)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		emp, err := g.store.GetEmployee(r.Context(), employeeID)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), employeeContextKey, emp)))
	})
}

// caller returns the authenticated employee stored by requireAuth.
func caller(r *http.Request) *store.Employee {
	emp, _ := r.Context().Value(employeeContextKey).(*store.Employee)
	return emp
}

// requireCapability rejects callers the evaluator does not grant the
// capability. BOSS passes unconditionally.
func (g *Gateway) requireCapability(w http.ResponseWriter, r *http.Request, cap permission.Capability) bool {
	emp := caller(r)
	if emp == nil || !g.evaluator.Evaluate(emp.Actor(), cap) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func employeeResponse(emp *store.Employee) EmployeeResponse {
	flags := make(map[string]bool, len(emp.Flags))
	for cap, granted := range emp.Flags {
		flags[string(cap)] = granted
	}
	return EmployeeResponse{
		ID:    emp.ID,
		Name:  emp.Name,
		Email: emp.Email,
		Role:  emp.Role,
		Flags: flags,
	}
}

// handleEmployees handles GET (list) and POST (upsert) on /api/employees.
func (g *Gateway) handleEmployees(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		g.handleListEmployees(w, r)
	case http.MethodPost:
		g.handleUpsertEmployee(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (g *Gateway) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	if !g.requireCapability(w, r, permission.CapViewEmployees) {
		return
	}

	employees, err := g.store.ListEmployees(r.Context())
	if err != nil {
		g.logger.Error("listing employees failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	response := make([]EmployeeResponse, 0, len(employees))
	for _, emp := range employees {
		response = append(response, employeeResponse(emp))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func (g *Gateway) handleUpsertEmployee(w http.ResponseWriter, r *http.Request) {
	if !g.requireCapability(w, r, permission.CapEditEmployees) {
		return
	}

	var req UpsertEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Email == "" {
		http.Error(w, "name and email are required", http.StatusBadRequest)
		return
	}
	if !req.Role.Valid() {
		http.Error(w, "role must be BOSS or EMPLOYEE", http.StatusBadRequest)
		return
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	emp := &store.Employee{
		ID:    req.ID,
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	}
	if err := g.store.UpsertEmployee(r.Context(), emp); err != nil {
		g.logger.Error("upserting employee failed", "error", err, "employee_id", req.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	stored, err := g.store.GetEmployee(r.Context(), emp.ID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(employeeResponse(stored))
}

// handleEmployeeRoutes dispatches /api/employees/{id}/... subroutes.
func (g *Gateway) handleEmployeeRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/employees/")
	parts := strings.Split(rest, "/")

	if len(parts) == 2 && parts[1] == "permissions" {
		g.handleAssignPermissions(w, r, parts[0])
		return
	}
	http.NotFound(w, r)
}

// handleAssignPermissions handles PUT /api/employees/{id}/permissions.
// Unknown capability names are rejected before any write happens.
func (g *Gateway) handleAssignPermissions(w http.ResponseWriter, r *http.Request, employeeID string) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !g.requireCapability(w, r, permission.CapManagePermissions) {
		return
	}

	var req AssignPermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	flags := make(permission.FlagSet, len(req.Flags))
	for name, granted := range req.Flags {
		cap := permission.Capability(name)
		if !cap.Valid() {
			http.Error(w, "unknown capability: "+name, http.StatusBadRequest)
			return
		}
		flags[cap] = granted
	}

	updated, err := g.store.AssignPermissions(r.Context(), employeeID, flags, req.Merge)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		g.logger.Error("assigning permissions failed", "error", err, "employee_id", employeeID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	g.logger.Info("permissions assigned",
		"employee_id", employeeID,
		"by", caller(r).ID,
		"merge", req.Merge,
		"flags", len(flags))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(employeeResponse(updated))
}
