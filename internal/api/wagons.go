package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bosves/bosves-api/internal/audit"
	"github.com/bosves/bosves-api/internal/envelope"
	"github.com/bosves/bosves-api/internal/infrastructure/influxdb"
	"github.com/bosves/bosves-api/internal/infrastructure/mqtt"
	"github.com/bosves/bosves-api/internal/result"
	"github.com/bosves/bosves-api/internal/validation"
	"github.com/bosves/bosves-api/internal/wagon"
)

// Operation labels used in logs and metrics.
const (
	opCreate = "create"
	opFind   = "find"
	opList   = "list"
	opGet    = "get"
	opPatch  = "patch"
	opDelete = "delete"
)

// WagonEvent is published to MQTT and relayed to WebSocket clients after
// every successful change.
type WagonEvent struct {
	Action   string      `json:"action"`
	Wagon    wagon.Wagon `json:"wagon"`
	Subject  string      `json:"subject,omitempty"`
	Instance string      `json:"instance,omitempty"`
	At       time.Time   `json:"at"`
}

// handleCreateWagon stores a new incoming wagon.
//
// Body: {"data": "<base64(utf8(json))>"} carrying a wagon.Payload.
// Response: 201 with an encoded OK(id).
func (s *Server) handleCreateWagon(w http.ResponseWriter, r *http.Request) {
	var payload wagon.Payload
	if err := envelope.DecodeRequest(r.Body, &payload); err != nil {
		s.rejectEnvelope(w, r, opCreate, err)
		return
	}

	valid, ok := validated[wagon.Payload](s, w, r, opCreate, wagon.ValidatePayload(payload, "body"))
	if !ok {
		return
	}

	subject := subjectFrom(r)
	record := valid.Wagon(subject)
	if err := s.wagons.Insert(r.Context(), &record); err != nil {
		s.fault(w, r, opCreate, err)
		return
	}

	s.logger.Info("incoming wagon created",
		"id", record.ID,
		"nvag", record.Nvag,
		"vesy", record.Vesy,
		"subject", subject,
	)
	s.auditLog(audit.ActionCreate, record.ID, subject, map[string]any{
		"dt": record.Date, "vr": record.Time, "nvag": record.Nvag, "vesy": record.Vesy,
	})
	s.recordWeighing(record)
	s.publishEvent(mqtt.ActionCreated, record, subject)

	s.respond(w, r, opCreate, http.StatusCreated, result.OK(result.WithID(record.ID)))
}

// handleFindWagons returns the records matching the full business key.
//
// Query: dt, vr, nvag, vesy (all required).
func (s *Server) handleFindWagons(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	day, ok := validated[time.Time](s, w, r, opFind, validation.ValidateDate(q.Get("dt"), "dt"))
	if !ok {
		return
	}
	clock, ok := validated[string](s, w, r, opFind, validation.ValidateTimeOfDay(q.Get("vr"), "vr"))
	if !ok {
		return
	}
	nvag, ok := validated[string](s, w, r, opFind, validation.ValidateRequired(q.Get("nvag"), "nvag"))
	if !ok {
		return
	}
	scale, ok := validated[int16](s, w, r, opFind, validation.ValidateScale(q.Get("vesy"), "vesy"))
	if !ok {
		return
	}

	wagons, err := s.wagons.FindByKeys(r.Context(), wagon.Filter{
		Date: day.Format(wagon.DateLayout),
		Time: clock,
		Nvag: nvag,
		Vesy: scale,
	})
	if err != nil {
		s.fault(w, r, opFind, err)
		return
	}

	s.respond(w, r, opFind, http.StatusOK, result.OK(result.WithData(nonNil(wagons))))
}

// handleListWagons returns every record for one scale on one day.
//
// Query: date (any accepted date format), vesy.
func (s *Server) handleListWagons(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	day, ok := validated[time.Time](s, w, r, opList, validation.ValidateDate(q.Get("date"), "date"))
	if !ok {
		return
	}
	scale, ok := validated[int16](s, w, r, opList, validation.ValidateScale(q.Get("vesy"), "vesy"))
	if !ok {
		return
	}

	wagons, err := s.wagons.ListByDate(r.Context(), wagon.DateFilter{
		Date: day.Format(wagon.DateLayout),
		Vesy: scale,
	})
	if err != nil {
		s.fault(w, r, opList, err)
		return
	}

	s.respond(w, r, opList, http.StatusOK, result.OK(result.WithData(nonNil(wagons))))
}

// handleGetWagon returns one record. An unknown ID is a business failure.
func (s *Server) handleGetWagon(w http.ResponseWriter, r *http.Request) {
	id, ok := validated[int64](s, w, r, opGet, validation.ValidateID(chi.URLParam(r, "id"), "id"))
	if !ok {
		return
	}

	record, err := s.wagons.Get(r.Context(), id)
	switch {
	case errors.Is(err, wagon.ErrWagonNotFound):
		s.respond(w, r, opGet, http.StatusOK, result.NotFound(wagon.EntityName, id))
	case err != nil:
		s.fault(w, r, opGet, err)
	default:
		s.respond(w, r, opGet, http.StatusOK, result.OK(result.WithData(record)))
	}
}

// handlePatchWagon applies a partial update.
//
// Body: {"data": "<base64(utf8(json))>"} carrying a wagon.Patch.
func (s *Server) handlePatchWagon(w http.ResponseWriter, r *http.Request) {
	id, ok := validated[int64](s, w, r, opPatch, validation.ValidateID(chi.URLParam(r, "id"), "id"))
	if !ok {
		return
	}

	var patch wagon.Patch
	if err := envelope.DecodeRequest(r.Body, &patch); err != nil {
		s.rejectEnvelope(w, r, opPatch, err)
		return
	}

	valid, ok := validated[wagon.Patch](s, w, r, opPatch, wagon.ValidatePatch(patch, "body"))
	if !ok {
		return
	}

	record, err := s.wagons.Update(r.Context(), id, valid)
	switch {
	case errors.Is(err, wagon.ErrWagonNotFound):
		s.respond(w, r, opPatch, http.StatusOK, result.NotFound(wagon.EntityName, id))
		return
	case err != nil:
		s.fault(w, r, opPatch, err)
		return
	}

	subject := subjectFrom(r)
	s.logger.Info("incoming wagon updated", "id", id, "subject", subject)
	s.auditLog(audit.ActionUpdate, id, subject, map[string]any{"patch": valid})
	s.publishEvent(mqtt.ActionUpdated, *record, subject)

	s.respond(w, r, opPatch, http.StatusOK, result.OK(result.Updated()))
}

// handleDeleteWagon removes a record. Deleting an absent record is a
// business failure, so a second delete of the same ID reports success=false.
func (s *Server) handleDeleteWagon(w http.ResponseWriter, r *http.Request) {
	id, ok := validated[int64](s, w, r, opDelete, validation.ValidateID(chi.URLParam(r, "id"), "id"))
	if !ok {
		return
	}

	record, err := s.wagons.Delete(r.Context(), id)
	switch {
	case errors.Is(err, wagon.ErrWagonNotFound):
		s.respond(w, r, opDelete, http.StatusOK, result.NotFound(wagon.EntityName, id))
		return
	case err != nil:
		s.fault(w, r, opDelete, err)
		return
	}

	subject := subjectFrom(r)
	s.logger.Info("incoming wagon deleted", "id", id, "subject", subject)
	s.auditLog(audit.ActionDelete, id, subject, map[string]any{"nvag": record.Nvag})
	s.publishEvent(mqtt.ActionDeleted, *record, subject)

	s.respond(w, r, opDelete, http.StatusOK, result.OK(result.Deleted()))
}

// respond is the single exit for business outcomes. It encodes res and
// writes it as a JSON string body.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, op string, status int, res result.Result) {
	if err := res.Check(); err != nil {
		s.fault(w, r, op, err)
		return
	}

	body, err := envelope.Encode(res)
	if err != nil {
		s.fault(w, r, op, err)
		return
	}

	outcome := outcomeSuccess
	switch {
	case status == http.StatusBadRequest:
		outcome = outcomeInvalid
	case !res.Success:
		outcome = outcomeBusiness
		s.logger.Info("wagon request failed",
			"operation", op,
			"message", res.Message(),
			"request_id", requestID(r.Context()),
		)
	}
	s.metrics.observeResult(op, outcome)

	writeJSON(w, status, body)
}

// validated unwraps a validation outcome. On failure it writes the 400
// response and returns false.
func validated[T any](s *Server, w http.ResponseWriter, r *http.Request, op string, o validation.Outcome[T]) (T, bool) {
	if inv, bad := validation.AsInvalid[T](o); bad {
		s.rejectInvalid(w, r, op, inv)
		var zero T
		return zero, false
	}
	return o.(validation.Valid[T]).Value, true
}

// rejectInvalid logs the developer message and answers 400 with an encoded
// failure carrying only the user message.
func (s *Server) rejectInvalid(w http.ResponseWriter, r *http.Request, op string, inv validation.Invalid) {
	s.logger.Warn("request validation failed",
		"operation", op,
		"parameter", inv.Parameter,
		"detail", inv.DeveloperMessage,
		"request_id", requestID(r.Context()),
	)
	s.respond(w, r, op, http.StatusBadRequest, result.Fail(inv.UserMessage, inv.UserMessage))
}

// rejectEnvelope answers a malformed request wrapper with a plain JSON error.
func (s *Server) rejectEnvelope(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.metrics.observeResult(op, outcomeMalformed)
	s.logger.Warn("request envelope rejected",
		"operation", op,
		"error", err,
		"request_id", requestID(r.Context()),
	)
	if isBodyTooLarge(err) {
		writeError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "request body too large")
		return
	}
	writeBadRequest(w, "malformed request envelope")
}

// fault answers an infrastructure failure with a plain 500, never an envelope.
func (s *Server) fault(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.metrics.observeResult(op, outcomeFault)
	s.logger.Error("incoming wagon operation failed",
		"operation", op,
		"error", err,
		"request_id", requestID(r.Context()),
	)
	writeInternalError(w, "internal server error")
}

// publishEvent announces a change on MQTT. Without a connected broker, or
// when publishing fails, the event goes straight to local WebSocket clients.
func (s *Server) publishEvent(action string, record wagon.Wagon, subject string) {
	event := WagonEvent{
		Action:   action,
		Wagon:    record,
		Subject:  subject,
		Instance: s.instanceID,
		At:       time.Now().UTC(),
	}

	if s.events != nil && s.events.IsConnected() {
		err := s.events.PublishJSON(mqtt.Topics{}.WagonEvent(action), event)
		if err == nil {
			return
		}
		s.metrics.eventsFailed.Inc()
		s.logger.Warn("wagon event publish failed, broadcasting locally",
			"action", action,
			"id", record.ID,
			"error", err,
		)
	}
	s.hub.Broadcast(wagonChannel(action), event)
}

// recordWeighing writes the weighing to the telemetry store, if configured.
func (s *Server) recordWeighing(record wagon.Wagon) {
	if s.telemetry == nil {
		return
	}
	at, err := time.ParseInLocation(wagon.DateLayout+" "+validation.TimeOfDayLayout,
		record.Date+" "+record.Time, time.Local)
	if err != nil {
		at = time.Time{} // written at the current time
	}
	s.telemetry.WriteWeighing(influxdb.Weighing{
		Scale:    record.Vesy,
		Wagon:    record.Nvag,
		Position: record.Npp,
		Train:    record.Tn,
		At:       at,
	})
}

// subjectFrom returns the token subject of the caller.
func subjectFrom(r *http.Request) string {
	p, _ := principalFromContext(r.Context()) //nolint:errcheck // routes without auth have no subject
	return p.Subject
}

// nonNil makes an empty match set encode as [] rather than null.
func nonNil(wagons []wagon.Wagon) []wagon.Wagon {
	if wagons == nil {
		return []wagon.Wagon{}
	}
	return wagons
}
