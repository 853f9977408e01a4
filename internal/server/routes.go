package server

import (
	"net/http"
	"strings"

	"labdesk/internal/response"
	"labdesk/internal/wizard"
)

func notFound(w http.ResponseWriter) {
	response.Err(w, "not found", http.StatusNotFound)
}

func methodNotAllowed(w http.ResponseWriter) {
	response.Err(w, "method not allowed", http.StatusMethodNotAllowed)
}

// route dispatches /api/v1/ requests.
func (a *App) route(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/")
	path = strings.TrimSuffix(path, "/")
	parts := strings.Split(path, "/")
	m := r.Method

	switch {
	// Dashboard
	case path == "dashboard" && m == "GET":
		a.Common.Dashboard(w, r)

	// Audit
	case path == "audit" && m == "GET":
		a.Common.AuditLog(w, r)

	// Session
	case path == "session/tokens" && m == "PUT":
		a.Common.SetTokens(w, r)
	case path == "session/tokens" && m == "DELETE":
		a.Common.ClearTokens(w, r)

	// Export
	case parts[0] == "export" && len(parts) == 2 && m == "GET":
		a.Common.Export(w, r, parts[1])

	// Calendar
	case path == "calendar" && m == "GET":
		a.Schedule.Page(w, r)
	case path == "calendar/events" && m == "GET":
		a.Schedule.Events(w, r)
	case path == "calendar/types" && m == "GET":
		a.Schedule.Types(w, r)

	// Registration wizard
	case parts[0] == "registration":
		a.routeRegistration(w, r, parts)

	// Entity actions
	case path == "reports/generate" && m == "POST":
		a.Lab.GenerateReport(w, r)
	case parts[0] == "instruments" && len(parts) == 3 && parts[2] == "deactivate" && m == "POST":
		a.Lab.DeactivateInstrument(w, r, parts[1])
	case parts[0] == "instruments" && len(parts) == 3 && parts[2] == "calibrations" && m == "GET":
		a.Lab.InstrumentCalibrations(w, r, parts[1])
	case parts[0] == "consumables" && len(parts) == 3 && parts[2] == "transactions" && m == "GET":
		a.Lab.ConsumableTransactions(w, r, parts[1])
	case parts[0] == "documents" && len(parts) == 3 && m == "POST":
		a.Lab.DocumentAction(w, r, parts[1], parts[2])
	case parts[0] == "ncs" && len(parts) == 3 && parts[2] == "close" && m == "POST":
		a.Lab.CloseNC(w, r, parts[1])
	case parts[0] == "qc-checks" && len(parts) == 3 && parts[2] == "results" && m == "POST":
		a.Lab.RecordQCResult(w, r, parts[1])

	// Entity CRUD
	case a.Lab.Has(parts[0]) && len(parts) == 1:
		switch m {
		case "GET":
			a.Lab.List(w, r, parts[0])
		case "POST":
			a.Lab.Create(w, r, parts[0])
		default:
			methodNotAllowed(w)
		}
	case a.Lab.Has(parts[0]) && len(parts) == 2:
		switch m {
		case "GET":
			a.Lab.Get(w, r, parts[0], parts[1])
		case "PUT":
			a.Lab.Update(w, r, parts[0], parts[1])
		case "DELETE":
			a.Lab.Delete(w, r, parts[0], parts[1])
		default:
			methodNotAllowed(w)
		}

	default:
		notFound(w)
	}
}

func (a *App) routeRegistration(w http.ResponseWriter, r *http.Request, parts []string) {
	h := a.Registration
	m := r.Method
	switch {
	case len(parts) == 1 && m == "GET":
		h.List(w, r)
	case len(parts) == 1 && m == "POST":
		h.Start(w, r)
	case len(parts) == 2 && m == "GET":
		h.Get(w, r, parts[1])
	case len(parts) == 2 && m == "PUT":
		h.Save(w, r, parts[1])
	case len(parts) == 2 && m == "DELETE":
		h.Delete(w, r, parts[1])
	case len(parts) == 3 && parts[2] == "next" && m == "POST":
		h.Next(w, r, parts[1])
	case len(parts) == 3 && parts[2] == "back" && m == "POST":
		h.Back(w, r, parts[1])
	case len(parts) == 3 && parts[2] == "goto" && m == "POST":
		h.GoTo(w, r, parts[1])
	case len(parts) == 3 && parts[2] == "submit" && m == "POST":
		h.Submit(w, r, parts[1])
	case len(parts) == 3 && parts[2] == "checklist" && m == "GET":
		h.Checklist(w, r, parts[1])
	case len(parts) == 4 && parts[2] == "lists" && m == "POST":
		h.EditList(w, r, parts[1], parts[3], "", wizard.OpAdd)
	case len(parts) == 5 && parts[2] == "lists" && m == "PUT":
		h.EditList(w, r, parts[1], parts[3], parts[4], wizard.OpUpdate)
	case len(parts) == 5 && parts[2] == "lists" && m == "DELETE":
		h.EditList(w, r, parts[1], parts[3], parts[4], wizard.OpRemove)
	default:
		notFound(w)
	}
}
