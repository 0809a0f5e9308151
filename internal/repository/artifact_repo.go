package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ArtifactRepository persiste los modelos entrenados (gob) en la
// colección model_artifacts, un documento por nombre. El trainer escribe,
// la API lee al arrancar: un modelo cargado sirve sin re-ajustar nada.
type ArtifactRepository struct {
	col *mongo.Collection
}

func NewArtifactRepository(db *mongo.Database) *ArtifactRepository {
	return &ArtifactRepository{col: db.Collection("model_artifacts")}
}

func (r *ArtifactRepository) Save(ctx context.Context, name string, payload []byte) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"name": name},
		bson.M{"$set": bson.M{
			"payload":   primitive.Binary{Data: payload},
			"updatedAt": time.Now().UTC().Format(time.RFC3339),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

// Load devuelve (payload, true) si el artefacto existe.
func (r *ArtifactRepository) Load(ctx context.Context, name string) ([]byte, bool, error) {
	var doc struct {
		Payload primitive.Binary `bson:"payload"`
	}
	err := r.col.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return doc.Payload.Data, true, nil
}
