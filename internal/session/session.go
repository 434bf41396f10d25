// internal/session/session.go
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"autoease/internal/catalog"
	apperrors "autoease/internal/common/errors"
	"autoease/internal/common/logger"
	"autoease/internal/common/metrics"
	"autoease/internal/models"

	"github.com/google/uuid"
)

type State string

const (
	StateIdle         State = "idle"
	StateRanking      State = "ranking"
	StateRanked       State = "ranked"
	StateSlotsLoading State = "slots_loading"
	StateSlotsReady   State = "slots_ready"
	StateConfirmed    State = "confirmed"
	StateError        State = "error"
)

const (
	MsgRankingFailed = "Failed to get station rankings. Please try again."
	MsgSlotsFailed   = "Failed to fetch time slots. Please try again."
)

const DefaultCallTimeout = 5 * time.Second

// ErrSuperseded is returned to a caller whose result arrived after a newer
// request of the same kind had started. The result was discarded.
var ErrSuperseded = errors.New("session: result superseded by a newer request")

type Ranker interface {
	Rank(ctx context.Context, carType models.CarType, service models.Service, cat *catalog.Catalog) ([]models.RankedStation, error)
}

type SlotSource interface {
	Availability(ctx context.Context, stationID string, service models.Service, cat *catalog.Catalog) ([]models.TimeSlot, error)
}

type Options struct {
	CallTimeout time.Duration
	Clock       func() time.Time
	NewID       func() string
}

// Session is one customer's booking flow. All methods are safe for
// concurrent use; remote calls run without holding the lock and only the
// latest call of each kind may commit.
type Session struct {
	mu sync.Mutex

	id          string
	catalog     *catalog.Catalog
	ranker      Ranker
	slotSource  SlotSource
	logger      logger.Logger
	callTimeout time.Duration
	now         func() time.Time
	newID       func() string

	state  State
	resume State

	carType   models.CarType
	service   models.Service
	ranked    []models.RankedStation
	station   *models.RankedStation
	timeSlots []models.TimeSlot
	slot      models.TimeSlot
	booking   *models.BookingRecord

	errMsg  string
	errCode apperrors.ErrorCode

	rankGen     uint64
	slotGen     uint64
	cancelRank  context.CancelFunc
	cancelSlots context.CancelFunc

	updatedAt time.Time
}

// New starts a session against a catalog snapshot.
func New(cat *catalog.Catalog, ranker Ranker, slots SlotSource, opts Options, log logger.Logger) *Session {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	id := opts.NewID()
	s := &Session{
		id:          id,
		catalog:     cat,
		ranker:      ranker,
		slotSource:  slots,
		logger:      log.WithFields(map[string]interface{}{"sessionId": id}),
		callTimeout: opts.CallTimeout,
		now:         opts.Clock,
		newID:       opts.NewID,
		state:       StateIdle,
		resume:      StateIdle,
	}
	s.updatedAt = s.now()
	return s
}

func (s *Session) ID() string { return s.id }

// Select stores a new query and discards everything derived from the old
// one. In-flight calls are cancelled and their results will be ignored.
func (s *Session) Select(carType models.CarType, service models.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.supersedeRankLocked()
	s.supersedeSlotsLocked()

	s.carType = carType
	s.service = service
	s.ranked = nil
	s.clearBookingFlowLocked()
	s.booking = nil
	s.clearErrorLocked()
	s.resume = StateIdle
	s.setStateLocked(StateIdle)
}

// Rank ranks the catalog for the current query. On success the session is
// Ranked, possibly with an empty list.
func (s *Session) Rank(ctx context.Context) ([]models.RankedStation, error) {
	s.mu.Lock()
	if err := validateSelection(s.carType, s.service); err != nil {
		s.setErrorLocked(err, err.Message)
		s.mu.Unlock()
		return nil, err
	}

	stable := s.stableStateLocked()
	if stable == StateSlotsLoading {
		stable = StateRanked
	}
	s.supersedeRankLocked()
	s.supersedeSlotsLocked()
	s.rankGen++
	gen := s.rankGen

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	s.cancelRank = cancel

	s.clearErrorLocked()
	s.resume = stable
	s.setStateLocked(StateRanking)
	cat, carType, service := s.catalog, s.carType, s.service
	s.mu.Unlock()

	ranked, err := s.ranker.Rank(callCtx, carType, service, cat)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.rankGen {
		s.logger.Debug("discarding stale ranking result", map[string]interface{}{"generation": gen})
		return nil, ErrSuperseded
	}
	s.cancelRank = nil

	if err != nil {
		err = s.timeoutOrSelf(callCtx, err)
		s.setErrorLocked(err, MsgRankingFailed)
		s.setStateLocked(StateError)
		s.logger.Warn("ranking failed", map[string]interface{}{
			"carType": carType,
			"service": service,
			"error":   err.Error(),
		})
		return nil, err
	}

	if ranked == nil {
		ranked = []models.RankedStation{}
	}
	s.ranked = ranked
	s.clearBookingFlowLocked()
	s.booking = nil
	s.setStateLocked(StateRanked)
	return cloneRanked(ranked), nil
}

// ChooseStation loads slots for a station from the ranked list.
func (s *Session) ChooseStation(ctx context.Context, stationID string) ([]models.TimeSlot, error) {
	s.mu.Lock()
	if s.ranked == nil || s.state == StateRanking || (s.state == StateError && s.resume == StateIdle) {
		err := apperrors.NewInvalidTransitionError("choose station", string(s.state))
		s.mu.Unlock()
		return nil, err
	}

	chosen, ok := findRanked(s.ranked, stationID)
	if !ok {
		err := apperrors.NewStationNotFoundError(stationID)
		s.setErrorLocked(err, MsgSlotsFailed)
		s.mu.Unlock()
		return nil, err
	}

	stable := s.stableStateLocked()
	if stable == StateSlotsLoading {
		stable = StateRanked
	}
	s.supersedeSlotsLocked()
	s.slotGen++
	gen := s.slotGen

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	s.cancelSlots = cancel

	s.clearErrorLocked()
	s.resume = stable
	s.setStateLocked(StateSlotsLoading)
	cat, service := s.catalog, s.service
	s.mu.Unlock()

	slots, err := s.slotSource.Availability(callCtx, stationID, service, cat)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.slotGen {
		s.logger.Debug("discarding stale availability result", map[string]interface{}{"generation": gen})
		return nil, ErrSuperseded
	}
	s.cancelSlots = nil

	if err != nil {
		err = s.timeoutOrSelf(callCtx, err)
		s.setErrorLocked(err, MsgSlotsFailed)
		s.setStateLocked(StateError)
		s.logger.Warn("availability failed", map[string]interface{}{
			"stationId": stationID,
			"service":   service,
			"error":     err.Error(),
		})
		return nil, err
	}

	s.station = &chosen
	s.timeSlots = append([]models.TimeSlot(nil), slots...)
	s.slot = ""
	s.booking = nil
	s.setStateLocked(StateSlotsReady)
	return append([]models.TimeSlot(nil), slots...), nil
}

// ChooseSlot picks one of the loaded slots. No I/O.
func (s *Session) ChooseSlot(slot models.TimeSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSlotsReady {
		return apperrors.NewInvalidTransitionError("choose slot", string(s.state))
	}
	for _, ts := range s.timeSlots {
		if ts == slot {
			s.slot = slot
			s.touchLocked()
			return nil
		}
	}
	return apperrors.NewSlotUnavailableError(string(slot))
}

// Confirm creates the booking record. Missing fields leave the state as it
// is and fill the error slot.
func (s *Session) Confirm() (models.BookingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var missing []string
	if s.station == nil {
		missing = append(missing, "station")
	}
	if s.slot == "" {
		missing = append(missing, "timeSlot")
	}
	if !s.service.Valid() {
		missing = append(missing, "service")
	}
	if !s.carType.Valid() {
		missing = append(missing, "carType")
	}
	if len(missing) > 0 {
		err := apperrors.NewIncompleteBookingError(missing)
		s.setErrorLocked(err, err.Message)
		return models.BookingRecord{}, err
	}
	if s.state != StateSlotsReady {
		return models.BookingRecord{}, apperrors.NewInvalidTransitionError("confirm", string(s.state))
	}

	rec := models.BookingRecord{
		ID:          s.newID(),
		Station:     *s.station,
		TimeSlot:    s.slot,
		Service:     s.service,
		CarType:     s.carType,
		ConfirmedAt: s.now().UTC(),
	}

	s.clearBookingFlowLocked()
	s.booking = &rec
	s.clearErrorLocked()
	s.setStateLocked(StateConfirmed)
	metrics.BookingsConfirmed.Inc()

	s.logger.Info("booking confirmed", map[string]interface{}{
		"bookingId": rec.ID,
		"stationId": rec.Station.ID,
		"timeSlot":  rec.TimeSlot,
	})
	return rec, nil
}

// Reset dismisses a confirmation and returns to Ranked when a ranked list is
// held, otherwise to Idle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.supersedeRankLocked()
	s.supersedeSlotsLocked()
	s.clearBookingFlowLocked()
	s.booking = nil
	s.clearErrorLocked()

	next := StateIdle
	if s.ranked != nil {
		next = StateRanked
	}
	s.resume = next
	s.setStateLocked(next)
}

// ClearError dismisses the error message. An Error state returns to the
// state that preceded the failed call.
func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearErrorLocked()
	if s.state == StateError {
		s.setStateLocked(s.resume)
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:           s.id,
		State:        s.state,
		CarType:      s.carType,
		Service:      s.service,
		Ranked:       cloneRanked(s.ranked),
		TimeSlots:    append([]models.TimeSlot(nil), s.timeSlots...),
		SelectedSlot: s.slot,
		Error:        s.errMsg,
		ErrorCode:    s.errCode,
		UpdatedAt:    s.updatedAt,
	}
	if s.station != nil {
		st := *s.station
		st.Station = st.Station.Clone()
		snap.SelectedStation = &st
	}
	if s.booking != nil {
		b := *s.booking
		snap.Booking = &b
	}
	return snap
}

// Close cancels any in-flight call.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supersedeRankLocked()
	s.supersedeSlotsLocked()
}

func (s *Session) lastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) stableStateLocked() State {
	switch s.state {
	case StateRanking, StateSlotsLoading, StateError:
		return s.resume
	default:
		return s.state
	}
}

func (s *Session) supersedeRankLocked() {
	s.rankGen++
	if s.cancelRank != nil {
		s.cancelRank()
		s.cancelRank = nil
	}
}

func (s *Session) supersedeSlotsLocked() {
	s.slotGen++
	if s.cancelSlots != nil {
		s.cancelSlots()
		s.cancelSlots = nil
	}
}

func (s *Session) clearBookingFlowLocked() {
	s.station = nil
	s.timeSlots = nil
	s.slot = ""
}

func (s *Session) setErrorLocked(err error, msg string) {
	s.errMsg = msg
	s.errCode = apperrors.CodeOf(err)
	s.touchLocked()
}

func (s *Session) clearErrorLocked() {
	s.errMsg = ""
	s.errCode = ""
}

func (s *Session) setStateLocked(to State) {
	if s.state != to {
		metrics.SessionTransitions.WithLabelValues(string(s.state), string(to)).Inc()
	}
	s.state = to
	s.touchLocked()
}

func (s *Session) touchLocked() {
	s.updatedAt = s.now()
}

func (s *Session) timeoutOrSelf(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && apperrors.CodeOf(err) != apperrors.ErrCodeOracleTimeout {
		return apperrors.NewOracleTimeoutError(s.callTimeout)
	}
	return err
}

func validateSelection(carType models.CarType, service models.Service) *apperrors.StandardError {
	if carType.Valid() && service.Valid() {
		return nil
	}
	var missing string
	switch {
	case !carType.Valid() && !service.Valid():
		missing = "carType and service"
	case !carType.Valid():
		missing = "carType"
	default:
		missing = "service"
	}
	return apperrors.NewInvalidSelectionError("missing " + missing)
}

func findRanked(ranked []models.RankedStation, id string) (models.RankedStation, bool) {
	for _, r := range ranked {
		if r.ID == id {
			r.Station = r.Station.Clone()
			return r, true
		}
	}
	return models.RankedStation{}, false
}

func cloneRanked(in []models.RankedStation) []models.RankedStation {
	if in == nil {
		return nil
	}
	out := make([]models.RankedStation, len(in))
	for i, r := range in {
		r.Station = r.Station.Clone()
		out[i] = r
	}
	return out
}
