package repositories

import (
	"context"
	"strings"

	"athletehub-api/internal/apperrors"
	"athletehub-api/internal/models"
	"athletehub-api/internal/store"
)

type eventRepository struct {
	store     store.Store
	hostIndex string
}

// NewEventRepository creates an event repository over the key-value store
func NewEventRepository(s store.Store, hostIndex string) EventRepository {
	return &eventRepository{store: s, hostIndex: hostIndex}
}

func (r *eventRepository) GetByID(ctx context.Context, eventID string) (*models.Event, error) {
	rec, err := r.store.QueryByKey(ctx, TableEvents, store.Key{"eventId": eventID})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperrors.NotFound("event", eventID)
	}
	return eventFromRecord(rec), nil
}

func (r *eventRepository) ListByHost(ctx context.Context, hostUserID string) ([]*models.Event, error) {
	if strings.TrimSpace(hostUserID) == "" {
		return nil, apperrors.InvalidArgument("hostUserId is required")
	}
	recs, err := r.store.QueryByIndex(ctx, TableEvents, r.hostIndex, hostUserID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Event, 0, len(recs))
	for _, rec := range recs {
		out = append(out, eventFromRecord(rec))
	}
	return out, nil
}

// MarkPaid is a conditional write of paid=true, so it never creates an event
// and repeating it leaves the item unchanged apart from updatedAt.
func (r *eventRepository) MarkPaid(ctx context.Context, eventID string) error {
	if strings.TrimSpace(eventID) == "" {
		return apperrors.InvalidArgument("eventId is required")
	}
	err := r.store.Update(ctx, TableEvents, store.Key{"eventId": eventID}, store.Record{"paid": true})
	if apperrors.IsNotFound(err) {
		return apperrors.NotFound("event", eventID)
	}
	return err
}

func eventFromRecord(rec store.Record) *models.Event {
	return &models.Event{
		EventID:    rec.GetString("eventId"),
		HostUserID: rec.GetString("hostUserId"),
		Title:      rec.GetString("title"),
		Paid:       rec.GetBool("paid"),
		UpdatedAt:  rec.GetTime("updatedAt"),
	}
}

type registrationRepository struct {
	store     store.Store
	userIndex string
}

// NewRegistrationRepository creates a registration repository over the key-value store
func NewRegistrationRepository(s store.Store, userIndex string) RegistrationRepository {
	return &registrationRepository{store: s, userIndex: userIndex}
}

func (r *registrationRepository) ListByUser(ctx context.Context, userID string) ([]*models.Registration, error) {
	return r.list(ctx, r.userIndex, userID)
}

func (r *registrationRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.Registration, error) {
	return r.list(ctx, RegistrationsEventIndex, eventID)
}

func (r *registrationRepository) list(ctx context.Context, index, value string) ([]*models.Registration, error) {
	if strings.TrimSpace(value) == "" {
		return nil, apperrors.InvalidArgument("lookup value is required")
	}
	recs, err := r.store.QueryByIndex(ctx, TableRegistrations, index, value)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Registration, 0, len(recs))
	for _, rec := range recs {
		out = append(out, &models.Registration{
			UserID:    rec.GetString("userId"),
			EventID:   rec.GetString("eventId"),
			CreatedAt: rec.GetTime("createdAt"),
		})
	}
	return out, nil
}
