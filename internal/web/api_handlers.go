package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ortrealty/ort/internal/appointment"
	"github.com/ortrealty/ort/internal/auth"
	"github.com/ortrealty/ort/internal/property"
)

// apiListProperties returns one page of active listings.
func (s *Server) apiListProperties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := property.ListOptions{
		PropertyType: property.Type(q.Get("type")),
		City:         strings.TrimSpace(q.Get("city")),
	}

	var err error
	if opts.MinPrice, err = floatQuery(q.Get("min_price")); err != nil {
		apiError(w, r, "min_price must be a number", http.StatusBadRequest)
		return
	}
	if opts.MaxPrice, err = floatQuery(q.Get("max_price")); err != nil {
		apiError(w, r, "max_price must be a number", http.StatusBadRequest)
		return
	}
	if opts.Skip, err = intQuery(q.Get("skip")); err != nil {
		apiError(w, r, "skip must be an integer", http.StatusBadRequest)
		return
	}
	if opts.Limit, err = intQuery(q.Get("limit")); err != nil {
		apiError(w, r, "limit must be an integer", http.StatusBadRequest)
		return
	}

	props, err := s.props.List(opts)
	if err != nil {
		writeDomainError(w, r, "listing properties", err)
		return
	}
	apiJSON(w, r, props, http.StatusOK)
}

// apiSearchProperties runs a filtered, sorted search.
func (s *Server) apiSearchProperties(w http.ResponseWriter, r *http.Request) {
	var opts property.SearchOptions
	if !decodeJSON(w, r, &opts) {
		return
	}

	props, err := s.props.Search(opts)
	if err != nil {
		writeDomainError(w, r, "searching properties", err)
		return
	}
	apiJSON(w, r, props, http.StatusOK)
}

// apiCreateProperty creates a listing owned by the caller.
func (s *Server) apiCreateProperty(w http.ResponseWriter, r *http.Request) {
	var in property.CreateInput
	if !decodeJSON(w, r, &in) {
		return
	}

	p, err := s.props.Create(auth.UserEmailFromContext(r.Context()), in)
	if err != nil {
		writeDomainError(w, r, "creating property", err)
		return
	}
	apiJSON(w, r, p, http.StatusCreated)
}

// apiGetProperty returns a listing and counts the view.
func (s *Server) apiGetProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	p, err := s.props.Get(id)
	if err != nil {
		writeDomainError(w, r, "loading property", err)
		return
	}
	apiJSON(w, r, p, http.StatusOK)
}

// apiUpdateProperty applies a partial update from the owner or an admin.
func (s *Server) apiUpdateProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var in property.UpdateInput
	if !decodeJSON(w, r, &in) {
		return
	}

	p, err := s.props.Update(s.actor(r), id, in)
	if err != nil {
		writeDomainError(w, r, "updating property", err)
		return
	}
	apiJSON(w, r, p, http.StatusOK)
}

// apiDeleteProperty soft-deletes a listing.
func (s *Server) apiDeleteProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := s.props.Delete(s.actor(r), id); err != nil {
		writeDomainError(w, r, "deleting property", err)
		return
	}
	apiJSON(w, r, map[string]interface{}{"id": id, "removed": true}, http.StatusOK)
}

// apiValuateProperty estimates the market value of a listing. The request
// context bounds the estimate, so a client disconnect cancels it.
func (s *Server) apiValuateProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	v, err := s.props.Valuate(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "valuing property", err)
		return
	}
	apiJSON(w, r, v, http.StatusOK)
}

// apiListInquiries returns inquiries on a listing.
func (s *Server) apiListInquiries(w http.ResponseWriter, r *http.Request) {
	id, ok := s.activeListing(w, r)
	if !ok {
		return
	}

	inquiries, err := s.inquiries.ListByPropertyID(id)
	if err != nil {
		writeDomainError(w, r, "listing inquiries", err)
		return
	}
	apiJSON(w, r, inquiries, http.StatusOK)
}

// apiAddInquiry records an inquiry from the caller and notifies the owner.
func (s *Server) apiAddInquiry(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p, err := s.props.Lookup(id)
	if err != nil {
		writeDomainError(w, r, "loading property", err)
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	q, err := s.inquiries.Add(id, req.Message, auth.UserEmailFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, "adding inquiry", err)
		return
	}

	s.goBackground(func() {
		if err := s.notifier.InquiryReceived(p, q); err != nil {
			slog.Warn("sending inquiry notification", "property_id", id, "err", err)
		}
	})

	apiJSON(w, r, q, http.StatusCreated)
}

// apiListAppointments returns appointments at a listing.
func (s *Server) apiListAppointments(w http.ResponseWriter, r *http.Request) {
	id, ok := s.activeListing(w, r)
	if !ok {
		return
	}

	appts, err := s.appointments.ListByPropertyID(id)
	if err != nil {
		writeDomainError(w, r, "listing appointments", err)
		return
	}
	apiJSON(w, r, appts, http.StatusOK)
}

// apiAddAppointment schedules an appointment. The agent defaults to the caller.
func (s *Server) apiAddAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.activeListing(w, r)
	if !ok {
		return
	}

	var req struct {
		Date  string `json:"appointment_date"`
		Type  string `json:"appointment_type"`
		Notes string `json:"notes"`
		Agent string `json:"agent"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Date == "" {
		apiError(w, r, "appointment_date is required (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}
	if req.Type == "" {
		apiError(w, r, "appointment_type is required (showing, open_house, inspection, appraisal)", http.StatusBadRequest)
		return
	}

	agent := strings.TrimSpace(req.Agent)
	if agent == "" {
		agent = auth.UserEmailFromContext(r.Context())
	}

	a, err := s.appointments.Add(id, req.Date, appointment.Type(req.Type), req.Notes, agent)
	if err != nil {
		writeDomainError(w, r, "adding appointment", err)
		return
	}
	apiJSON(w, r, a, http.StatusCreated)
}

// apiDeleteInquiry removes an inquiry. Only the listing owner or an admin may.
func (s *Server) apiDeleteInquiry(w http.ResponseWriter, r *http.Request) {
	id, inquiryID, ok := s.managedChild(w, r, "inquiryID")
	if !ok {
		return
	}
	if err := s.inquiries.Delete(id, inquiryID); err != nil {
		writeDomainError(w, r, "deleting inquiry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiDeleteAppointment cancels an appointment. Only the listing owner or an
// admin may.
func (s *Server) apiDeleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, apptID, ok := s.managedChild(w, r, "appointmentID")
	if !ok {
		return
	}
	if err := s.appointments.Delete(id, apptID); err != nil {
		writeDomainError(w, r, "deleting appointment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// managedChild parses the listing and child IDs and checks that the caller
// manages the listing.
func (s *Server) managedChild(w http.ResponseWriter, r *http.Request, child string) (int64, int64, bool) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return 0, 0, false
	}
	childID, ok := idParam(w, r, child)
	if !ok {
		return 0, 0, false
	}
	if err := s.props.Authorize(s.actor(r), id); err != nil {
		writeDomainError(w, r, "loading property", err)
		return 0, 0, false
	}
	return id, childID, true
}

// activeListing parses the listing ID and checks that it is active.
func (s *Server) activeListing(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return 0, false
	}
	if err := s.props.Exists(id); err != nil {
		writeDomainError(w, r, "loading property", err)
		return 0, false
	}
	return id, true
}

func floatQuery(v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func intQuery(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
