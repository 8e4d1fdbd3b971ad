package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
)

// SQLiteStorage keeps timestamps as unix milliseconds so ordering and range
// filters stay numeric.
type SQLiteStorage struct {
	db     *sql.DB
	logger internal.Logger
}

func NewSQLiteStorage(dbPath string, logger internal.Logger) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; modernc serializes anyway and this avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	s := &SQLiteStorage{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS food_logs (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        food_name TEXT NOT NULL,
        description TEXT NOT NULL DEFAULT '',
        image_url TEXT NOT NULL DEFAULT '',
        analysis_result TEXT,
        created_at INTEGER NOT NULL
    );

    CREATE TABLE IF NOT EXISTS stool_logs (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        bristol_type INTEGER NOT NULL DEFAULT 0,
        color TEXT NOT NULL DEFAULT '',
        consistency TEXT NOT NULL DEFAULT '',
        notes TEXT NOT NULL DEFAULT '',
        image_url TEXT NOT NULL DEFAULT '',
        created_at INTEGER NOT NULL
    );

    CREATE TABLE IF NOT EXISTS user_health_profiles (
        user_id TEXT PRIMARY KEY,
        age INTEGER NOT NULL DEFAULT 0,
        gender TEXT NOT NULL DEFAULT '',
        height_cm REAL NOT NULL DEFAULT 0,
        weight_kg REAL NOT NULL DEFAULT 0,
        activity_level TEXT NOT NULL DEFAULT '',
        dietary_restrictions TEXT NOT NULL DEFAULT '[]',
        custom_restrictions TEXT NOT NULL DEFAULT '',
        medical_conditions TEXT NOT NULL DEFAULT '[]',
        medications TEXT NOT NULL DEFAULT '[]',
        symptoms_notes TEXT NOT NULL DEFAULT '',
        updated_at INTEGER NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_food_logs_user_created ON food_logs(user_id, created_at);
    CREATE INDEX IF NOT EXISTS idx_stool_logs_user_created ON stool_logs(user_id, created_at);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// --- FoodLogRepository ---
func (s *SQLiteStorage) SaveFoodLog(ctx context.Context, log *internal.FoodLog) error {
	var analysis sql.NullString
	if log.HasAnalysis() {
		analysis = sql.NullString{String: string(log.AnalysisResult), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT OR REPLACE INTO food_logs (id, user_id, food_name, description, image_url, analysis_result, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.UserID, log.FoodName, log.Description, log.ImageURL, analysis, toMillis(log.CreatedAt))
	if err != nil {
		s.logger.Errorf("failed to insert food log: %v", err)
		return fmt.Errorf("failed to insert food log: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) ListFoodLogs(ctx context.Context, userID string, since time.Time) ([]internal.FoodLog, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, user_id, food_name, description, image_url, analysis_result, created_at
        FROM food_logs WHERE user_id = ? AND created_at >= ?
        ORDER BY created_at DESC`, userID, toMillis(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query food logs: %w", err)
	}
	defer rows.Close()

	logs := []internal.FoodLog{}
	for rows.Next() {
		var l internal.FoodLog
		var analysis sql.NullString
		var created int64
		if err := rows.Scan(&l.ID, &l.UserID, &l.FoodName, &l.Description, &l.ImageURL, &analysis, &created); err != nil {
			return nil, fmt.Errorf("failed to scan food log: %w", err)
		}
		if analysis.Valid {
			l.AnalysisResult = json.RawMessage(analysis.String)
		}
		l.CreatedAt = fromMillis(created)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *SQLiteStorage) DeleteFoodLog(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, "food_logs", userID, id)
}

// --- StoolLogRepository ---
func (s *SQLiteStorage) SaveStoolLog(ctx context.Context, log *internal.StoolLog) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT OR REPLACE INTO stool_logs (id, user_id, bristol_type, color, consistency, notes, image_url, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.UserID, log.BristolType, log.Color, log.Consistency, log.Notes, log.ImageURL, toMillis(log.CreatedAt))
	if err != nil {
		s.logger.Errorf("failed to insert stool log: %v", err)
		return fmt.Errorf("failed to insert stool log: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) ListStoolLogs(ctx context.Context, userID string, since time.Time) ([]internal.StoolLog, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, user_id, bristol_type, color, consistency, notes, image_url, created_at
        FROM stool_logs WHERE user_id = ? AND created_at >= ?
        ORDER BY created_at DESC`, userID, toMillis(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query stool logs: %w", err)
	}
	defer rows.Close()

	logs := []internal.StoolLog{}
	for rows.Next() {
		var l internal.StoolLog
		var created int64
		if err := rows.Scan(&l.ID, &l.UserID, &l.BristolType, &l.Color, &l.Consistency, &l.Notes, &l.ImageURL, &created); err != nil {
			return nil, fmt.Errorf("failed to scan stool log: %w", err)
		}
		l.CreatedAt = fromMillis(created)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *SQLiteStorage) DeleteStoolLog(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, "stool_logs", userID, id)
}

// table is never user input.
func (s *SQLiteStorage) deleteOwned(ctx context.Context, table, userID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- ProfileRepository ---
func (s *SQLiteStorage) SaveHealthProfile(ctx context.Context, p *internal.HealthProfile) error {
	dietary, err := marshalList(p.DietaryRestrictions)
	if err != nil {
		return err
	}
	conditions, err := marshalList(p.MedicalConditions)
	if err != nil {
		return err
	}
	medications, err := marshalList(p.Medications)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT OR REPLACE INTO user_health_profiles (user_id, age, gender, height_cm, weight_kg, activity_level,
            dietary_restrictions, custom_restrictions, medical_conditions, medications, symptoms_notes, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Age, p.Gender, p.HeightCM, p.WeightKG, p.ActivityLevel,
		dietary, p.CustomRestrictions, conditions, medications, p.SymptomsNotes, toMillis(p.UpdatedAt))
	if err != nil {
		s.logger.Errorf("failed to upsert health profile: %v", err)
		return fmt.Errorf("failed to upsert health profile: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetHealthProfile(ctx context.Context, userID string) (*internal.HealthProfile, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT user_id, age, gender, height_cm, weight_kg, activity_level,
            dietary_restrictions, custom_restrictions, medical_conditions, medications, symptoms_notes, updated_at
        FROM user_health_profiles WHERE user_id = ?`, userID)

	var p internal.HealthProfile
	var dietary, conditions, medications string
	var updated int64
	err := row.Scan(&p.UserID, &p.Age, &p.Gender, &p.HeightCM, &p.WeightKG, &p.ActivityLevel,
		&dietary, &p.CustomRestrictions, &conditions, &medications, &p.SymptomsNotes, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read health profile: %w", err)
	}
	for _, f := range []struct {
		raw  string
		into *[]string
	}{
		{dietary, &p.DietaryRestrictions},
		{conditions, &p.MedicalConditions},
		{medications, &p.Medications},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.into); err != nil {
			return nil, fmt.Errorf("failed to decode health profile list: %w", err)
		}
	}
	p.UpdatedAt = fromMillis(updated)
	return &p, nil
}

func marshalList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(b), nil
}

var _ Store = (*SQLiteStorage)(nil)
