package mongo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/court-reservations/internal/domain"
	"github.com/robertarktes/court-reservations/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
	now    func() time.Time
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection("audit_logs"),
		logger: logger,
		now:    time.Now,
	}
}

// AuditLog is one stored reservation event. The broker message id is the document id,
// so a redelivered message is stored once.
type AuditLog struct {
	ID            string    `bson:"_id"`
	Action        string    `bson:"action"`
	ReservationID int64     `bson:"reservation_id"`
	UserID        int64     `bson:"user_id,omitempty"`
	Timestamp     time.Time `bson:"timestamp"`
	Data          bson.M    `bson:"data"`
}

func (a *AuditLogger) EnsureIndexes(ctx context.Context) error {
	_, err := a.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "reservation_id", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	return errors.Wrap(err, "create audit index")
}

// LogReservationEvent stores ev under messageID. It reports whether a new document was written.
func (a *AuditLogger) LogReservationEvent(ctx context.Context, messageID, action string, ev domain.ReservationEvent) (bool, error) {
	if messageID == "" {
		messageID = uuid.NewString()
	}
	data := bson.M{"status": string(ev.Status)}
	if ev.CourtID != 0 {
		data["court_id"] = ev.CourtID
	}
	if !ev.Start.IsZero() {
		data["start_datetime"] = ev.Start
		data["end_datetime"] = ev.End
	}
	occurred := ev.OccurredAt
	if occurred.IsZero() {
		occurred = a.now()
	}

	_, err := a.coll.InsertOne(ctx, AuditLog{
		ID:            messageID,
		Action:        action,
		ReservationID: ev.ReservationID,
		UserID:        ev.UserID,
		Timestamp:     occurred.UTC(),
		Data:          data,
	})
	if mongo.IsDuplicateKeyError(err) {
		a.logger.WithField("message_id", messageID).Debug("audit event already stored")
		return false, nil
	}
	if err != nil {
		a.logger.WithField("error", err.Error()).Error("failed to insert audit log")
		return false, errors.Wrap(err, "insert audit log")
	}
	return true, nil
}

// History returns the stored events of one reservation, oldest first.
func (a *AuditLogger) History(ctx context.Context, reservationID int64) ([]AuditLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cur, err := a.coll.Find(ctx, bson.M{"reservation_id": reservationID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find audit logs")
	}
	var logs []AuditLog
	if err := cur.All(ctx, &logs); err != nil {
		return nil, errors.Wrap(err, "decode audit logs")
	}
	return logs, nil
}
