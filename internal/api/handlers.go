package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"navalha/internal/availability"
	"navalha/internal/metrics"
	"navalha/internal/models"
	"navalha/internal/report"
	"navalha/internal/store"
	"navalha/internal/timeutil"
)

func parseClockParam(s string) (int, error) {
	minutes, err := timeutil.ParseClock(s)
	if err != nil {
		return 0, fmt.Errorf("invalid time; expected HH:MM")
	}
	return minutes, nil
}

// SlotsResponse is the payload of GET /api/v1/slots.
type SlotsResponse struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

// handleSlots returns the bookable start times for one day.
// GET /api/v1/slots?date=YYYY-MM-DD&service_id=N (or &duration=N)
// Optional: &interval=N, &professional_id=N.
func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("slots")

	q := r.URL.Query()
	date := q.Get("date")
	day, err := s.tz.ParseDate(date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
		return
	}

	duration, err := s.resolveDuration(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	interval, _ := strconv.Atoi(q.Get("interval"))

	proID, _ := strconv.ParseInt(q.Get("professional_id"), 10, 64)
	suffix := fmt.Sprintf("slots:p%d:d%d:i%d", proID, duration, interval)
	key := s.cache.DayKey(r.Context(), date, suffix)

	var resp SlotsResponse
	if s.cache.Read(r.Context(), key, &resp) {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	var slots []string
	if proID > 0 {
		slots, err = s.engine.GenerateSlotsFor(r.Context(), proID, day, duration, interval)
	} else {
		slots, err = s.engine.GenerateSlots(r.Context(), day, nil, duration, interval)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("date", date).Msg("slot generation failed")
		writeError(w, http.StatusInternalServerError, "availability unavailable")
		return
	}
	if slots == nil {
		slots = []string{}
	}

	resp = SlotsResponse{Date: date, Slots: slots}
	s.cache.Write(r.Context(), key, resp)
	writeJSON(w, http.StatusOK, resp)
}

// handleAvailableNow lists professionals free at this moment.
// GET /api/v1/available-now?service_id=N&min_duration=N
func (s *Server) handleAvailableNow(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("available_now")

	q := r.URL.Query()
	serviceID, _ := strconv.ParseInt(q.Get("service_id"), 10, 64)
	minDuration, _ := strconv.Atoi(q.Get("min_duration"))
	if minDuration <= 0 && serviceID > 0 {
		if svc, err := s.db.ServiceByID(r.Context(), serviceID); err == nil && svc != nil {
			minDuration = svc.DurationMinutes
		}
	}

	entries, err := s.engine.AvailableNow(r.Context(), time.Now(), serviceID, minDuration)
	if err != nil {
		s.logger.Error().Err(err).Msg("available-now failed")
		writeError(w, http.StatusInternalServerError, "availability unavailable")
		return
	}
	if entries == nil {
		entries = []availability.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"professionals": entries})
}

// BookableRequest is the body of POST /api/v1/bookable.
type BookableRequest struct {
	ProfessionalID  int64  `json:"professional_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	ServiceID       int64  `json:"service_id,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}

// handleBookable answers a single slot check, used by the staff calendar
// when dragging appointments around.
func (s *Server) handleBookable(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("bookable")

	var req BookableRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	day, err := s.tz.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
		return
	}
	duration := req.DurationMinutes
	if duration <= 0 && req.ServiceID > 0 {
		svc, err := s.db.ServiceByID(r.Context(), req.ServiceID)
		if err != nil || svc == nil {
			writeError(w, http.StatusBadRequest, "unknown service")
			return
		}
		duration = svc.DurationMinutes
	}
	if duration <= 0 {
		writeError(w, http.StatusBadRequest, "duration_minutes or service_id is required")
		return
	}

	decision, err := s.engine.IsBookable(r.Context(), req.ProfessionalID, day, req.Time, duration)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

// handleAgendaExport streams the staff agenda for one day as xlsx.
// GET /api/v1/agenda/:date/export?duration=N&interval=N
func (s *Server) handleAgendaExport(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	metrics.IncHTTP("agenda_export")

	date := ps.ByName("date")
	day, err := s.tz.ParseDate(date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
		return
	}

	q := r.URL.Query()
	duration, _ := strconv.Atoi(q.Get("duration"))
	if duration <= 0 {
		duration = 30
	}
	interval, _ := strconv.Atoi(q.Get("interval"))

	snap, err := s.engine.LoadDay(r.Context(), day, nil)
	if err != nil {
		s.logger.Error().Err(err).Str("date", date).Msg("agenda export failed")
		writeError(w, http.StatusInternalServerError, "availability unavailable")
		return
	}

	agenda, err := report.NewAgenda(date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	if err := agenda.Fill(snap, duration, interval); err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=agenda-%s.xlsx", date))
	if err := agenda.Save(w); err != nil {
		s.logger.Error().Err(err).Msg("agenda write failed")
	}
}

// AppointmentRequest is the body of POST /api/v1/appointments.
type AppointmentRequest struct {
	ProfessionalID int64  `json:"professional_id"`
	ServiceID      int64  `json:"service_id"`
	ClientName     string `json:"client_name"`
	ClientPhone    string `json:"client_phone,omitempty"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	IsEncaixe      bool   `json:"is_encaixe,omitempty"`
}

// handleCreateAppointment books a slot. The engine answers the advisory
// check first so the client gets a precise reason; the store repeats the
// conflict check authoritatively inside the insert transaction.
func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("create_appointment")

	var req AppointmentRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ClientName == "" {
		writeError(w, http.StatusBadRequest, "client_name is required")
		return
	}

	day, err := s.tz.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
		return
	}
	svc, err := s.db.ServiceByID(r.Context(), req.ServiceID)
	if err != nil || svc == nil {
		writeError(w, http.StatusBadRequest, "unknown service")
		return
	}

	if !req.IsEncaixe {
		decision, err := s.engine.IsBookable(r.Context(), req.ProfessionalID, day, req.Time, svc.DurationMinutes)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !decision.Bookable {
			writeJSON(w, http.StatusConflict, decision)
			return
		}
	}

	startMin, err := parseClockParam(req.Time)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	appt := &models.Appointment{
		ProfessionalID:  req.ProfessionalID,
		ServiceID:       req.ServiceID,
		ClientName:      req.ClientName,
		ClientPhone:     req.ClientPhone,
		StartsAt:        s.tz.At(day, startMin),
		DurationMinutes: svc.DurationMinutes,
		Status:          models.StatusConfirmed,
		IsEncaixe:       req.IsEncaixe,
	}

	if err := s.db.CreateAppointment(r.Context(), appt); err != nil {
		if errors.Is(err, store.ErrSlotTaken) {
			writeJSON(w, http.StatusConflict, availability.Decision{Reason: availability.ReasonDoubleBooked})
			return
		}
		s.logger.Error().Err(err).Msg("create appointment failed")
		writeError(w, http.StatusInternalServerError, "booking failed")
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// handleCancelAppointment cancels a booking, freeing its slot.
// DELETE /api/v1/appointments/:id
func (s *Server) handleCancelAppointment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	metrics.IncHTTP("cancel_appointment")

	id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}

	if err := s.db.CancelAppointment(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		s.logger.Error().Err(err).Int64("id", id).Msg("cancel appointment failed")
		writeError(w, http.StatusInternalServerError, "cancel failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BlockRequest is the body of POST /api/v1/blocks.
type BlockRequest struct {
	ProfessionalID *int64 `json:"professional_id,omitempty"`
	Date           string `json:"date"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Reason         string `json:"reason,omitempty"`
}

// handleCreateBlock reserves time outside the booking flow: lunch runs,
// maintenance, a professional's personal errand.
func (s *Server) handleCreateBlock(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("create_block")

	var req BlockRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	day, err := s.tz.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
		return
	}
	startMin, err := parseClockParam(req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	endMin, err := parseClockParam(req.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if endMin <= startMin {
		writeError(w, http.StatusBadRequest, "end_time must be after start_time")
		return
	}

	block := &models.TimeBlock{
		ProfessionalID: req.ProfessionalID,
		StartsAt:       s.tz.At(day, startMin),
		EndsAt:         s.tz.At(day, endMin),
		Reason:         req.Reason,
	}
	if err := s.db.CreateTimeBlock(r.Context(), block); err != nil {
		s.logger.Error().Err(err).Msg("create block failed")
		writeError(w, http.StatusInternalServerError, "block creation failed")
		return
	}
	writeJSON(w, http.StatusCreated, block)
}

// handleDeleteBlock removes a manual block.
// DELETE /api/v1/blocks/:id
func (s *Server) handleDeleteBlock(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	metrics.IncHTTP("delete_block")

	id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid block id")
		return
	}

	if err := s.db.DeleteTimeBlock(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "block not found")
			return
		}
		s.logger.Error().Err(err).Int64("id", id).Msg("delete block failed")
		writeError(w, http.StatusInternalServerError, "block deletion failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resolveDuration reads the service duration for a slots query, from
// either an explicit duration or a service id.
func (s *Server) resolveDuration(r *http.Request) (int, error) {
	q := r.URL.Query()
	if d, err := strconv.Atoi(q.Get("duration")); err == nil && d > 0 {
		return d, nil
	}
	serviceID, _ := strconv.ParseInt(q.Get("service_id"), 10, 64)
	if serviceID <= 0 {
		return 0, fmt.Errorf("duration or service_id is required")
	}
	svc, err := s.db.ServiceByID(r.Context(), serviceID)
	if err != nil {
		return 0, fmt.Errorf("service lookup failed")
	}
	if svc == nil || !svc.IsActive {
		return 0, fmt.Errorf("unknown service")
	}
	return svc.DurationMinutes, nil
}
