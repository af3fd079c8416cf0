package render

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// TemplatesCollection is the collection MongoSource reads from by default.
const TemplatesCollection = "templates"

// Finder is the subset of *mongo.Collection used by MongoSource.
type Finder interface {
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
}

// MongoSource loads templates from documents shaped as
//
//	{tenant_id, template_id, subject, body, layout, active}
//
// Only documents with active != false are returned. A tenant document shadows
// a shared one stored with an empty tenant_id.
type MongoSource struct {
	col Finder
}

// NewMongoSource reads from the templates collection of db.
func NewMongoSource(db *mongo.Database) *MongoSource {
	return NewMongoSourceWithFinder(db.Collection(TemplatesCollection))
}

func NewMongoSourceWithFinder(col Finder) *MongoSource {
	return &MongoSource{col: col}
}

type templateDocument struct {
	TenantID   string `bson:"tenant_id"`
	TemplateID string `bson:"template_id"`
	Subject    string `bson:"subject"`
	Body       string `bson:"body"`
	Layout     bool   `bson:"layout"`
}

// Load implements Source.
func (s *MongoSource) Load(ctx context.Context, tenantID, id string) (*Template, error) {
	if id == "" {
		return nil, ErrTemplateNotFound
	}

	tenants := []string{""}
	if tenantID != "" {
		tenants = []string{tenantID, ""}
	}

	for _, tid := range tenants {
		var doc templateDocument
		err := s.col.FindOne(ctx, bson.M{
			"tenant_id":   tid,
			"template_id": id,
			"active":      bson.M{"$ne": false},
		}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("find template %s: %w", id, err)
		}
		if doc.Body == "" {
			return nil, fmt.Errorf("%w: template %s has no body", ErrInvalidTemplate, id)
		}
		return &Template{
			ID:      doc.TemplateID,
			Subject: doc.Subject,
			Body:    doc.Body,
			Layout:  doc.Layout,
		}, nil
	}

	return nil, ErrTemplateNotFound
}
