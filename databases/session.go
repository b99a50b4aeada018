package databases

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/virtudoc/virtudoc-engine/models"
)

const sessionName = "sessions"

// SessionDatabase contains the methods to use with the session database
type SessionDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.Session, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.Session, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(context.Context, interface{}, interface{}, ...*options.UpdateOptions) error
	DeleteOne(context.Context, interface{}, ...*options.DeleteOptions) error
}

type sessionDatabase struct {
	db DatabaseHelper
}

// NewSessionDatabase initializes a new instance of session database with the provided db connection
func NewSessionDatabase(db DatabaseHelper) SessionDatabase {
	return &sessionDatabase{
		db: db,
	}
}

func (s *sessionDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Session, error) {
	session := &models.Session{}
	err := s.db.Collection(sessionName).FindOne(ctx, filter, opts...).Decode(&session)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *sessionDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Session, error) {
	var sessions []models.Session
	cur := s.db.Collection(sessionName).Find(ctx, filter, opts...)
	err := cur.Decode(&sessions)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *sessionDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res := s.db.Collection(sessionName).InsertOne(ctx, document, opts...)
	return res, nil
}

func (s *sessionDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	return s.db.Collection(sessionName).UpdateOne(ctx, filter, update, opts...)
}

func (s *sessionDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return s.db.Collection(sessionName).DeleteOne(ctx, filter, opts...)
}
