package postgresql

import (
	"context"
	"database/sql"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func ConnectDB(dsn string) *pgxpool.Pool {
	dbpool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("Error creando el pool de conexiones a la BD: %v", err)
	}

	if err := dbpool.Ping(context.Background()); err != nil {
		log.Fatalf("No se pudo hacer ping a la BD: %v", err)
	}

	log.Println("✅ Conectado a PostgreSQL")
	return dbpool
}

// RunMigrations aplica las migraciones de goose del directorio indicado.
// Usa el driver database/sql de pgx porque goose no habla pgxpool.
func RunMigrations(dsn string, dir string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, dir)
}
