package databases

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/virtudoc/virtudoc-engine/models"
)

const vitalsName = "vitals"

// VitalsDatabase contains the methods to use with the vitals database
type VitalsDatabase interface {
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.VitalsEntry, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
}

type vitalsDatabase struct {
	db DatabaseHelper
}

// NewVitalsDatabase initializes a new instance of vitals database with the provided db connection
func NewVitalsDatabase(db DatabaseHelper) VitalsDatabase {
	return &vitalsDatabase{
		db: db,
	}
}

func (v *vitalsDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.VitalsEntry, error) {
	var entries []models.VitalsEntry
	cur := v.db.Collection(vitalsName).Find(ctx, filter, opts...)
	err := cur.Decode(&entries)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (v *vitalsDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res := v.db.Collection(vitalsName).InsertOne(ctx, document, opts...)
	return res, nil
}
