package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS food_logs (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	food_name       TEXT NOT NULL,
	description     TEXT,
	image_url       TEXT,
	analysis_result JSONB,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS food_logs_user_created ON food_logs (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS stool_logs (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	bristol_type INTEGER,
	color        TEXT,
	consistency  TEXT,
	notes        TEXT,
	image_url    TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS stool_logs_user_created ON stool_logs (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS user_health_profiles (
	user_id              TEXT PRIMARY KEY,
	age                  INTEGER,
	gender               TEXT,
	height_cm            DOUBLE PRECISION,
	weight_kg            DOUBLE PRECISION,
	activity_level       TEXT,
	dietary_restrictions TEXT[],
	custom_restrictions  TEXT,
	medical_conditions   TEXT[],
	medications          TEXT[],
	symptoms_notes       TEXT,
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);`

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(dsn string, logger internal.Logger) (*PostgresStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		logger.Errorf("failed to apply postgres schema: %v", err)
		return nil, fmt.Errorf("storage: postgres schema: %w", err)
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// --- FoodLogRepository ---
func (p *PostgresStorage) SaveFoodLog(ctx context.Context, log *internal.FoodLog) error {
	var analysis []byte
	if log.HasAnalysis() {
		analysis = log.AnalysisResult
	}
	_, err := p.pool.Exec(ctx, `INSERT INTO food_logs (id, user_id, food_name, description, image_url, analysis_result, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET food_name = EXCLUDED.food_name, description = EXCLUDED.description, image_url = EXCLUDED.image_url, analysis_result = EXCLUDED.analysis_result`,
		log.ID, log.UserID, log.FoodName, log.Description, log.ImageURL, analysis, log.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert food log: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) ListFoodLogs(ctx context.Context, userID string, since time.Time) ([]internal.FoodLog, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, user_id, food_name, COALESCE(description, ''), COALESCE(image_url, ''), analysis_result, created_at
		FROM food_logs WHERE user_id = $1 AND created_at >= $2 ORDER BY created_at DESC`, userID, since)
	if err != nil {
		p.logger.Errorf("failed to query food logs: %v", err)
		return nil, err
	}
	defer rows.Close()

	logs := []internal.FoodLog{}
	for rows.Next() {
		var l internal.FoodLog
		var analysis []byte
		if err := rows.Scan(&l.ID, &l.UserID, &l.FoodName, &l.Description, &l.ImageURL, &analysis, &l.CreatedAt); err != nil {
			p.logger.Errorf("failed to scan food log: %v", err)
			return nil, err
		}
		l.AnalysisResult = analysis
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (p *PostgresStorage) DeleteFoodLog(ctx context.Context, userID, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM food_logs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		p.logger.Errorf("failed to delete food log: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- StoolLogRepository ---
func (p *PostgresStorage) SaveStoolLog(ctx context.Context, log *internal.StoolLog) error {
	var bristol *int
	if log.BristolType != 0 {
		bristol = &log.BristolType
	}
	_, err := p.pool.Exec(ctx, `INSERT INTO stool_logs (id, user_id, bristol_type, color, consistency, notes, image_url, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET bristol_type = EXCLUDED.bristol_type, color = EXCLUDED.color, consistency = EXCLUDED.consistency, notes = EXCLUDED.notes, image_url = EXCLUDED.image_url`,
		log.ID, log.UserID, bristol, log.Color, log.Consistency, log.Notes, log.ImageURL, log.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert stool log: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) ListStoolLogs(ctx context.Context, userID string, since time.Time) ([]internal.StoolLog, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, user_id, COALESCE(bristol_type, 0), COALESCE(color, ''), COALESCE(consistency, ''), COALESCE(notes, ''), COALESCE(image_url, ''), created_at
		FROM stool_logs WHERE user_id = $1 AND created_at >= $2 ORDER BY created_at DESC`, userID, since)
	if err != nil {
		p.logger.Errorf("failed to query stool logs: %v", err)
		return nil, err
	}
	defer rows.Close()

	logs := []internal.StoolLog{}
	for rows.Next() {
		var l internal.StoolLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.BristolType, &l.Color, &l.Consistency, &l.Notes, &l.ImageURL, &l.CreatedAt); err != nil {
			p.logger.Errorf("failed to scan stool log: %v", err)
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (p *PostgresStorage) DeleteStoolLog(ctx context.Context, userID, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM stool_logs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		p.logger.Errorf("failed to delete stool log: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- ProfileRepository ---
func (p *PostgresStorage) SaveHealthProfile(ctx context.Context, hp *internal.HealthProfile) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO user_health_profiles (user_id, age, gender, height_cm, weight_kg, activity_level, dietary_restrictions, custom_restrictions, medical_conditions, medications, symptoms_notes, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET age = EXCLUDED.age, gender = EXCLUDED.gender, height_cm = EXCLUDED.height_cm, weight_kg = EXCLUDED.weight_kg,
			activity_level = EXCLUDED.activity_level, dietary_restrictions = EXCLUDED.dietary_restrictions, custom_restrictions = EXCLUDED.custom_restrictions,
			medical_conditions = EXCLUDED.medical_conditions, medications = EXCLUDED.medications, symptoms_notes = EXCLUDED.symptoms_notes, updated_at = EXCLUDED.updated_at`,
		hp.UserID, hp.Age, hp.Gender, hp.HeightCM, hp.WeightKG, hp.ActivityLevel, hp.DietaryRestrictions, hp.CustomRestrictions,
		hp.MedicalConditions, hp.Medications, hp.SymptomsNotes, hp.UpdatedAt)
	if err != nil {
		p.logger.Errorf("failed to upsert health profile: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) GetHealthProfile(ctx context.Context, userID string) (*internal.HealthProfile, error) {
	row := p.pool.QueryRow(ctx, `SELECT user_id, COALESCE(age, 0), COALESCE(gender, ''), COALESCE(height_cm, 0), COALESCE(weight_kg, 0), COALESCE(activity_level, ''),
		dietary_restrictions, COALESCE(custom_restrictions, ''), medical_conditions, medications, COALESCE(symptoms_notes, ''), updated_at
		FROM user_health_profiles WHERE user_id = $1`, userID)
	var hp internal.HealthProfile
	err := row.Scan(&hp.UserID, &hp.Age, &hp.Gender, &hp.HeightCM, &hp.WeightKG, &hp.ActivityLevel,
		&hp.DietaryRestrictions, &hp.CustomRestrictions, &hp.MedicalConditions, &hp.Medications, &hp.SymptomsNotes, &hp.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		p.logger.Errorf("failed to read health profile: %v", err)
		return nil, err
	}
	return &hp, nil
}

// --- Compile-time assertions ---
var _ Store = (*PostgresStorage)(nil)
