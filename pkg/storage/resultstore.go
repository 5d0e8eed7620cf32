package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/healthpredict/platform/pkg/common/logger"
	"github.com/healthpredict/platform/pkg/common/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrAssessmentNotFound = errors.New("assessment not found")

// ResultStore persists completed prediction envelopes and keeps the most
// recent one per assessment hot in redis. The prediction core never
// touches this package; only the host service does.
type ResultStore struct {
	db          *gorm.DB
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewResultStore(db *gorm.DB, redisClient *redis.Client, cacheTTL time.Duration) *ResultStore {
	return &ResultStore{
		db:          db,
		redisClient: redisClient,
		cacheTTL:    cacheTTL,
	}
}

func (s *ResultStore) AutoMigrate() error {
	return s.db.AutoMigrate(&models.AssessmentRecord{})
}

// Save writes the assessment row and caches the envelope. A cache write
// failure is logged, not returned; postgres remains the source of truth.
func (s *ResultStore) Save(ctx context.Context, id string, input models.AssessmentData, response models.PredictionResponse) error {
	inputJSON, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal assessment input: %w", err)
	}
	recommendationsJSON, err := json.Marshal(response.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}
	importanceJSON, err := json.Marshal(response.FeatureImportance)
	if err != nil {
		return fmt.Errorf("failed to marshal feature importance: %w", err)
	}

	record := models.AssessmentRecord{
		ID:                   id,
		HeartDiseaseRisk:     response.HeartDiseaseRisk,
		DiabetesRisk:         response.DiabetesRisk,
		CancerRisk:           response.CancerRisk,
		StrokeRisk:           response.StrokeRisk,
		HeartDiseaseCategory: response.HeartDiseaseCategory,
		DiabetesCategory:     response.DiabetesCategory,
		CancerCategory:       response.CancerCategory,
		StrokeCategory:       response.StrokeCategory,
		PredictionConfidence: response.PredictionConfidence,
		PredictionMethod:     response.PredictionMethod,
		ModelVersion:         response.ModelVersion,
		PredictionTimeMs:     response.PredictionTimeMs,
		Input:                datatypes.JSON(inputJSON),
		Recommendations:      datatypes.JSON(recommendationsJSON),
		FeatureImportance:    datatypes.JSON(importanceJSON),
		ErrorFallback:        response.Error,
		CreatedAt:            time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to persist assessment: %w", err)
	}

	s.cache(ctx, id, response)
	return nil
}

// Get reads through the cache to postgres, repopulating the cache on a
// miss.
func (s *ResultStore) Get(ctx context.Context, id string) (models.PredictionResponse, error) {
	if cached, err := s.redisClient.Get(ctx, cacheKey(id)).Result(); err == nil {
		var response models.PredictionResponse
		if err := json.Unmarshal([]byte(cached), &response); err == nil {
			return response, nil
		}
	}

	var record models.AssessmentRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.PredictionResponse{}, ErrAssessmentNotFound
		}
		return models.PredictionResponse{}, fmt.Errorf("failed to load assessment: %w", err)
	}

	response := models.PredictionResponse{
		HeartDiseaseRisk:     record.HeartDiseaseRisk,
		DiabetesRisk:         record.DiabetesRisk,
		CancerRisk:           record.CancerRisk,
		StrokeRisk:           record.StrokeRisk,
		HeartDiseaseCategory: record.HeartDiseaseCategory,
		DiabetesCategory:     record.DiabetesCategory,
		CancerCategory:       record.CancerCategory,
		StrokeCategory:       record.StrokeCategory,
		PredictionConfidence: record.PredictionConfidence,
		PredictionMethod:     record.PredictionMethod,
		ModelVersion:         record.ModelVersion,
		PredictionTimeMs:     record.PredictionTimeMs,
		Error:                record.ErrorFallback,
	}
	if err := json.Unmarshal(record.Recommendations, &response.Recommendations); err != nil {
		response.Recommendations = []models.Recommendation{}
	}
	if err := json.Unmarshal(record.FeatureImportance, &response.FeatureImportance); err != nil {
		response.FeatureImportance = map[string]float64{}
	}

	s.cache(ctx, id, response)
	return response, nil
}

func (s *ResultStore) cache(ctx context.Context, id string, response models.PredictionResponse) {
	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.redisClient.Set(ctx, cacheKey(id), payload, s.cacheTTL).Err(); err != nil {
		logger.Log.WithError(err).WithField("assessment_id", id).Warn("Failed to cache assessment result")
	}
}

func cacheKey(id string) string {
	return fmt.Sprintf("assessment:%s", id)
}
