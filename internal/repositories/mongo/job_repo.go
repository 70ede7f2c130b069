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

// JobFilter narrows List/Count queries. Zero values mean "no constraint".
type JobFilter struct {
	Category string
	Type     string
	Location string
	Remote   bool
	Search   string

	// IncludeInactive lifts the default is_active filter. Admin-only.
	IncludeInactive bool
}

// CategoryStat is one bucket of the category aggregation.
type CategoryStat struct {
	Category     string  `bson:"_id" json:"category"`
	Count        int64   `bson:"count" json:"count"`
	AvgSalaryMin float64 `bson:"avg_salary_min" json:"avg_salary_min"`
	AvgSalaryMax float64 `bson:"avg_salary_max" json:"avg_salary_max"`
}

type JobRepository interface {
	Create(ctx context.Context, j *models.Job) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Job, error)
	List(ctx context.Context, f JobFilter, skip, limit int64) ([]models.Job, error)
	Count(ctx context.Context, f JobFilter) (int64, error)
	Update(ctx context.Context, j *models.Job) error
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// IncrementCounter applies an atomic $inc to a named counter field.
	IncrementCounter(ctx context.Context, id primitive.ObjectID, field string, delta int64) error

	CategoryStats(ctx context.Context) ([]CategoryStat, error)
	CountByCompany(ctx context.Context, company primitive.ObjectID, activeOnly bool) (int64, error)
	IDsByCompany(ctx context.Context, company primitive.ObjectID) ([]primitive.ObjectID, error)
	ListRecent(ctx context.Context, limit int64) ([]models.Job, error)
}

type jobRepo struct {
	col *mongo.Collection
}

func NewJobRepo(db *mongo.Database) JobRepository {
	return &jobRepo{col: db.Collection("jobs")}
}

func (r *jobRepo) Create(ctx context.Context, j *models.Job) error {
	now := time.Now().UTC()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	j.UpdatedAt = now
	if j.ID.IsZero() {
		j.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, j)
	return err
}

func (r *jobRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
	var j models.Job
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&j)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &j, err
}

func buildJobFilter(f JobFilter) bson.M {
	filter := bson.M{}
	if !f.IncludeInactive {
		filter["is_active"] = true
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.Location != "" {
		filter["location"] = bson.M{"$regex": f.Location, "$options": "i"}
	}
	if f.Remote {
		filter["remote"] = true
	}
	if f.Search != "" {
		filter["$text"] = bson.M{"$search": f.Search}
	}
	return filter
}

func (r *jobRepo) List(ctx context.Context, f JobFilter, skip, limit int64) ([]models.Job, error) {
	if limit <= 0 {
		limit = 10
	}

	cur, err := r.col.Find(ctx, buildJobFilter(f),
		options.Find().
			SetSort(bson.D{{Key: "featured", Value: -1}, {Key: "created_at", Value: -1}}).
			SetSkip(skip).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Job
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *jobRepo) Count(ctx context.Context, f JobFilter) (int64, error) {
	return r.col.CountDocuments(ctx, buildJobFilter(f))
}

func (r *jobRepo) Update(ctx context.Context, j *models.Job) error {
	j.UpdatedAt = time.Now().UTC()
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": j.ID},
		bson.M{"$set": bson.M{
			"title":                j.Title,
			"description":          j.Description,
			"requirements":         j.Requirements,
			"category":             j.Category,
			"type":                 j.Type,
			"location":             j.Location,
			"remote":               j.Remote,
			"experience":           j.Experience,
			"salary":               j.Salary,
			"skills":               j.Skills,
			"benefits":             j.Benefits,
			"application_deadline": j.ApplicationDeadline,
			"is_active":            j.IsActive,
			"featured":             j.Featured,
			"updated_at":           j.UpdatedAt,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *jobRepo) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_active": active, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *jobRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *jobRepo) IncrementCounter(ctx context.Context, id primitive.ObjectID, field string, delta int64) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{field: delta}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *jobRepo) CategoryStats(ctx context.Context) ([]CategoryStat, error) {
	cur, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"is_active": true}}},
		{{Key: "$group", Value: bson.M{
			"_id":            "$category",
			"count":          bson.M{"$sum": 1},
			"avg_salary_min": bson.M{"$avg": "$salary.min"},
			"avg_salary_max": bson.M{"$avg": "$salary.max"},
		}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []CategoryStat
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *jobRepo) CountByCompany(ctx context.Context, company primitive.ObjectID, activeOnly bool) (int64, error) {
	filter := bson.M{"company": company}
	if activeOnly {
		filter["is_active"] = true
	}
	return r.col.CountDocuments(ctx, filter)
}

func (r *jobRepo) IDsByCompany(ctx context.Context, company primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := r.col.Find(ctx, bson.M{"company": company},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func (r *jobRepo) ListRecent(ctx context.Context, limit int64) ([]models.Job, error) {
	if limit <= 0 {
		limit = 5
	}
	cur, err := r.col.Find(ctx, bson.M{},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Job
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
