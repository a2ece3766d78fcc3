package repository

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/jeboulanger/saifu/internal/models"
	"github.com/jeboulanger/saifu/pkg/errs"
)

// Ошибки репозитория заданий
var (
	// ErrJobAlreadyPersisted - попытка повторно сохранить задание, у
	// которого уже есть идентификатор. Это ошибка программиста:
	// идентификатор присваивается ровно один раз при сохранении.
	ErrJobAlreadyPersisted = errors.New("pricing job already has an identifier")

	ErrJobNotFound = errors.New("pricing job not found")
)

// JobRepository - работа с таблицей saifu_portfolio_pricing_jobs
//
// Назначение: Data Access Layer для заданий ценообразования
//
// Функции:
// - PersistNew: сохранить пачку новых заданий в одной транзакции,
//   каждому присваивается свежий 128-битный идентификатор
// - GetByIdentifier: получить задание по идентификатору (аудит)
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository создает новый экземпляр репозитория
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// PersistNew сохраняет все задания в одной транзакции. Каждому заданию
// присваивается свежий UUID до вставки; start_time и snapshot_time
// записываются явно, без значений по умолчанию на стороне БД.
//
// Задание с непустым идентификатором - нарушение инварианта: транзакция
// откатывается и возвращается errs.InvariantError.
func (r *JobRepository) PersistNew(jobs []*models.PricingJob) error {
	if len(jobs) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO saifu_portfolio_pricing_jobs (identifier, portfolio_id, snapshot_time, target_ccy, started_by, status, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for _, job := range jobs {
		if job.Identifier != "" {
			tx.Rollback()
			return errs.Invariant(ErrJobAlreadyPersisted)
		}

		id := uuid.New().String()
		if _, err := tx.Exec(
			query,
			id,
			job.PortfolioID,
			job.SnapshotTime,
			job.TargetCcy,
			job.StartedBy,
			job.Status,
			job.StartTime,
			job.EndTime,
		); err != nil {
			tx.Rollback()
			return err
		}
		job.Identifier = id
	}

	return tx.Commit()
}

// GetByIdentifier возвращает задание по его идентификатору
func (r *JobRepository) GetByIdentifier(identifier string) (*models.PricingJob, error) {
	query := `
		SELECT identifier, portfolio_id, snapshot_time, target_ccy, started_by, status, start_time, end_time
		FROM saifu_portfolio_pricing_jobs
		WHERE identifier = $1`

	job := &models.PricingJob{}
	err := r.db.QueryRow(query, identifier).Scan(
		&job.Identifier,
		&job.PortfolioID,
		&job.SnapshotTime,
		&job.TargetCcy,
		&job.StartedBy,
		&job.Status,
		&job.StartTime,
		&job.EndTime,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	return job, nil
}
