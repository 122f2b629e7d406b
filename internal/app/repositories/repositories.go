package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so query helpers can
// run inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// psql is the statement builder shared by all repositories.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository       *UserRepository
	TokenRepository      *TokenRepository
	DepartmentRepository *DepartmentRepository
	CourseRepository     *CourseRepository
	AttendanceRepository *AttendanceRepository
	MarkRepository       *MarkRepository
	FeeRepository        *FeeRepository
	ODRequestRepository  *ODRequestRepository
	ChatRepository       *ChatRepository
	StatsRepository      *StatsRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:       NewUserRepository(db),
		TokenRepository:      NewTokenRepository(db),
		DepartmentRepository: NewDepartmentRepository(db),
		CourseRepository:     NewCourseRepository(db),
		AttendanceRepository: NewAttendanceRepository(db),
		MarkRepository:       NewMarkRepository(db),
		FeeRepository:        NewFeeRepository(db),
		ODRequestRepository:  NewODRequestRepository(db),
		ChatRepository:       NewChatRepository(db),
		StatsRepository:      NewStatsRepository(db),
	}
}
