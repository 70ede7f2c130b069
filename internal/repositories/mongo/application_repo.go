package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/openhire/jobboard/internal/models"
	"github.com/openhire/jobboard/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StatusUpdate is the patch applied by UpdateStatus. A nil Notes leaves prior
// notes untouched.
type StatusUpdate struct {
	Status     models.Status
	Notes      *string
	ReviewedAt time.Time
	ReviewedBy primitive.ObjectID
}

type ApplicationRepository interface {
	Create(ctx context.Context, a *models.Application) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Application, error)
	GetByJobAndCandidate(ctx context.Context, jobID, candidateID primitive.ObjectID) (*models.Application, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, u StatusUpdate) error
	ListByCandidate(ctx context.Context, candidateID primitive.ObjectID) ([]models.Application, error)
	ListByJob(ctx context.Context, jobID primitive.ObjectID) ([]models.Application, error)
	Count(ctx context.Context) (int64, error)
	CountByJobIDs(ctx context.Context, jobIDs []primitive.ObjectID) (int64, error)
}

type applicationRepo struct {
	col *mongo.Collection
}

func NewApplicationRepo(db *mongo.Database) ApplicationRepository {
	return &applicationRepo{col: db.Collection("applications")}
}

func (r *applicationRepo) Create(ctx context.Context, a *models.Application) error {
	if a.AppliedAt.IsZero() {
		a.AppliedAt = time.Now().UTC()
	}
	if a.Status == "" {
		a.Status = models.StatusPending
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, a)
	if mongo.IsDuplicateKeyError(err) {
		return utils.ErrDuplicate
	}
	return err
}

func (r *applicationRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
	var a models.Application
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &a, err
}

func (r *applicationRepo) GetByJobAndCandidate(ctx context.Context, jobID, candidateID primitive.ObjectID) (*models.Application, error) {
	var a models.Application
	err := r.col.FindOne(ctx, bson.M{"job_id": jobID, "candidate_id": candidateID}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &a, err
}

// UpdateStatus applies the whole transition as a single $set, so concurrent
// transitions resolve last-writer-wins.
func (r *applicationRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, u StatusUpdate) error {
	set := bson.M{
		"status":      u.Status,
		"reviewed_at": u.ReviewedAt.UTC(),
		"reviewed_by": u.ReviewedBy,
	}
	if u.Notes != nil {
		set["notes"] = *u.Notes
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *applicationRepo) ListByCandidate(ctx context.Context, candidateID primitive.ObjectID) ([]models.Application, error) {
	return r.list(ctx, bson.M{"candidate_id": candidateID})
}

func (r *applicationRepo) ListByJob(ctx context.Context, jobID primitive.ObjectID) ([]models.Application, error) {
	return r.list(ctx, bson.M{"job_id": jobID})
}

func (r *applicationRepo) list(ctx context.Context, filter bson.M) ([]models.Application, error) {
	cur, err := r.col.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "applied_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Application
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *applicationRepo) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

func (r *applicationRepo) CountByJobIDs(ctx context.Context, jobIDs []primitive.ObjectID) (int64, error) {
	if len(jobIDs) == 0 {
		return 0, nil
	}
	return r.col.CountDocuments(ctx, bson.M{"job_id": bson.M{"$in": jobIDs}})
}
