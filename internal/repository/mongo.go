package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sumire/issuetracker/internal/domain"
)

// issueDocument is the BSON shape of an issue. Field names match the wire
// names so filters can be passed through unchanged.
type issueDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	IssueTitle string             `bson:"issue_title"`
	IssueText  string             `bson:"issue_text"`
	CreatedOn  time.Time          `bson:"created_on"`
	UpdatedOn  time.Time          `bson:"updated_on"`
	CreatedBy  string             `bson:"created_by"`
	AssignedTo string             `bson:"assigned_to"`
	StatusText string             `bson:"status_text"`
	Open       bool               `bson:"open"`
}

func (d issueDocument) toIssue() *domain.Issue {
	return &domain.Issue{
		ID:         d.ID.Hex(),
		IssueTitle: d.IssueTitle,
		IssueText:  d.IssueText,
		CreatedOn:  d.CreatedOn.UTC(),
		UpdatedOn:  d.UpdatedOn.UTC(),
		CreatedBy:  d.CreatedBy,
		AssignedTo: d.AssignedTo,
		StatusText: d.StatusText,
		Open:       d.Open,
	}
}

// MongoIssueRepository stores each project's issues in a collection named
// after the project.
type MongoIssueRepository struct {
	db *mongo.Database
}

// NewMongoIssueRepository creates a new MongoIssueRepository.
func NewMongoIssueRepository(db *mongo.Database) *MongoIssueRepository {
	return &MongoIssueRepository{db: db}
}

// OpenMongo connects to MongoDB and verifies the connection.
func OpenMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

func (r *MongoIssueRepository) collection(project string) *mongo.Collection {
	return r.db.Collection(collectionName(project))
}

var collectionEscaper = strings.NewReplacer("%", "%25", "$", "%24", "\x00", "%00")

// collectionName maps any project name onto a distinct valid collection
// name. Mongo rejects names that are empty, contain $ or NUL, or start with
// "system.". Escaping % keeps the mapping one-to-one.
func collectionName(project string) string {
	name := collectionEscaper.Replace(project)
	if name == "" || strings.HasPrefix(name, "system.") {
		name = "%" + name
	}
	return name
}

// Insert stores a new issue and assigns its ObjectID.
func (r *MongoIssueRepository) Insert(ctx context.Context, project string, issue *domain.Issue) error {
	doc := issueDocument{
		ID:         primitive.NewObjectID(),
		IssueTitle: issue.IssueTitle,
		IssueText:  issue.IssueText,
		CreatedOn:  issue.CreatedOn,
		UpdatedOn:  issue.UpdatedOn,
		CreatedBy:  issue.CreatedBy,
		AssignedTo: issue.AssignedTo,
		StatusText: issue.StatusText,
		Open:       issue.Open,
	}

	if _, err := r.collection(project).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert issue: %w", err)
	}
	issue.ID = doc.ID.Hex()
	return nil
}

// Find returns the project's issues matching every filter condition, oldest first.
func (r *MongoIssueRepository) Find(ctx context.Context, project string, filter domain.IssueFilter) ([]*domain.Issue, error) {
	query := bson.D{}
	for _, c := range filter.Conditions {
		value := c.Value
		if c.Field == domain.FieldID {
			oid, err := objectID(c.Value)
			if err != nil {
				return []*domain.Issue{}, nil
			}
			value = oid
		}
		query = append(query, bson.E{Key: c.Field, Value: value})
	}

	cursor, err := r.collection(project).Find(ctx, query,
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find issues: %w", err)
	}

	var docs []issueDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}

	issues := make([]*domain.Issue, 0, len(docs))
	for _, d := range docs {
		issues = append(issues, d.toIssue())
	}
	return issues, nil
}

// UpdateByID sets the sent fields and updated_on of one issue in a single
// pipeline update. updated_on becomes the later of updatedOn and the stored
// value plus one millisecond, so it always advances.
func (r *MongoIssueRepository) UpdateByID(ctx context.Context, project, id string, fields domain.IssueFields, updatedOn time.Time) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	// Pipeline stages read "$x" strings as field paths, so values go in as literals.
	set := bson.D{}
	literal := func(key string, value any) {
		set = append(set, bson.E{Key: key, Value: bson.D{{Key: "$literal", Value: value}}})
	}
	if fields.IssueTitle != nil {
		literal(domain.FieldIssueTitle, *fields.IssueTitle)
	}
	if fields.IssueText != nil {
		literal(domain.FieldIssueText, *fields.IssueText)
	}
	if fields.CreatedBy != nil {
		literal(domain.FieldCreatedBy, *fields.CreatedBy)
	}
	if fields.AssignedTo != nil {
		literal(domain.FieldAssignedTo, *fields.AssignedTo)
	}
	if fields.StatusText != nil {
		literal(domain.FieldStatusText, *fields.StatusText)
	}
	if fields.Open != nil {
		literal(domain.FieldOpen, *fields.Open)
	}
	set = append(set, bson.E{Key: domain.FieldUpdatedOn, Value: bson.D{{Key: "$max", Value: bson.A{
		updatedOn,
		bson.D{{Key: "$add", Value: bson.A{"$" + domain.FieldUpdatedOn, 1}}},
	}}}})

	res, err := r.collection(project).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		mongo.Pipeline{{{Key: "$set", Value: set}}},
	)
	if err != nil {
		return fmt.Errorf("update issue %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteByID removes one issue from the project's collection.
func (r *MongoIssueRepository) DeleteByID(ctx context.Context, project, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := r.collection(project).DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("delete issue %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Ping checks the connection to the primary.
func (r *MongoIssueRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, readpref.Primary())
}

func objectID(v any) (primitive.ObjectID, error) {
	s, ok := v.(string)
	if !ok {
		return primitive.NilObjectID, domain.ErrInvalidID
	}
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %v", domain.ErrInvalidID, err)
	}
	return oid, nil
}
