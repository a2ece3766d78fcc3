// Package repository - Data Access Layer конвейера ценообразования.
// Каждый репозиторий оборачивает пул *sql.DB из Open (до 25 открытых
// соединений) и коммитит после каждой логической единицы работы (один
// persist, один результат запроса). Отдельное соединение за потоком-
// агентом не закрепляется: запросы берут любое свободное из пула.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/jeboulanger/saifu/internal/models"
)

// Open создает подключение к базе данных из настроек сервиса
func Open(settings models.DatabaseSettings) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s sslmode=disable",
		settings.Host,
		settings.Credentials.Username,
		settings.Credentials.Password,
		settings.Database,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
