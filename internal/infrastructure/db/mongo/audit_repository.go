package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gorsvet/lighting-console/internal/core/domain"
)

const auditCollection = "audit_log"

// MongoAuditRepository persists the security audit trail.
type MongoAuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *MongoAuditRepository {
	return &MongoAuditRepository{coll: db.Collection(auditCollection)}
}

type mongoAuditEntry struct {
	Actor     string `bson:"actor"`
	Action    string `bson:"action"`
	Detail    string `bson:"detail,omitempty"`
	Timestamp int64  `bson:"timestamp"`
}

func (r *MongoAuditRepository) Record(ctx context.Context, entry domain.AuditEntry) error {
	doc := mongoAuditEntry{
		Actor:     entry.Actor,
		Action:    string(entry.Action),
		Detail:    entry.Detail,
		Timestamp: entry.Timestamp.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *MongoAuditRepository) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	return r.list(ctx, bson.M{}, limit)
}

func (r *MongoAuditRepository) ListByActor(ctx context.Context, actor string, limit int) ([]domain.AuditEntry, error) {
	return r.list(ctx, bson.M{"actor": actor}, limit)
}

func (r *MongoAuditRepository) list(ctx context.Context, filter bson.M, limit int) ([]domain.AuditEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer cur.Close(ctx)

	var entries []domain.AuditEntry
	for cur.Next(ctx) {
		var me mongoAuditEntry
		if err := cur.Decode(&me); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		entries = append(entries, domain.AuditEntry{
			Actor:     me.Actor,
			Action:    domain.AuditAction(me.Action),
			Detail:    me.Detail,
			Timestamp: unixToTime(me.Timestamp),
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
