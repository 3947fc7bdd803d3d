package sqlite

import (
	"context"
	"strings"

	"github.com/example/volunteer-bot/internal/persistence"
	"github.com/example/volunteer-bot/internal/persistence/sqlite/pool"
)

const participantColumns = `id, telegram_nickname, name, surname, age, is_admin, verst_id`

// ParticipantRepository implements persistence.ParticipantRepository using SQLite
type ParticipantRepository struct {
	storage *Storage
}

var _ persistence.ParticipantRepository = (*ParticipantRepository)(nil)

// NewParticipantRepository creates a participant repository backed by s.
func NewParticipantRepository(s *Storage) *ParticipantRepository {
	return &ParticipantRepository{storage: s}
}

// RegisterParticipant inserts a participant known only by Telegram id and
// nickname and returns the stored id.
func (r *ParticipantRepository) RegisterParticipant(ctx context.Context, id int64, nickname string) (int64, error) {
	nickname = normalizeNickname(nickname)
	if id <= 0 || nickname == "" {
		return 0, persistence.ErrConstraintViolation
	}

	return runValue(ctx, r.storage, func(ctx context.Context, conn *pool.Conn) (int64, error) {
		var stored int64
		err := conn.QueryRowContext(ctx,
			`INSERT INTO Participant (id, telegram_nickname) VALUES (?, ?) RETURNING id`,
			id, nickname,
		).Scan(&stored)
		if err != nil {
			return 0, r.storage.mapper.MapError(err)
		}
		return stored, nil
	})
}

// GetParticipant retrieves a participant by Telegram id
func (r *ParticipantRepository) GetParticipant(ctx context.Context, id int64) (persistence.Participant, error) {
	return runValue(ctx, r.storage, func(ctx context.Context, conn *pool.Conn) (persistence.Participant, error) {
		row := conn.QueryRowContext(ctx, `SELECT `+participantColumns+` FROM Participant WHERE id = ?`, id)
		participant, err := scanParticipant(row)
		if err != nil {
			return persistence.Participant{}, r.storage.mapper.MapError(err)
		}
		return participant, nil
	})
}

// FindParticipantByNickname looks a participant up by Telegram nickname,
// ignoring case and a leading '@'.
func (r *ParticipantRepository) FindParticipantByNickname(ctx context.Context, nickname string) (persistence.Participant, error) {
	nickname = normalizeNickname(nickname)
	if nickname == "" {
		return persistence.Participant{}, persistence.ErrNotFound
	}

	return runValue(ctx, r.storage, func(ctx context.Context, conn *pool.Conn) (persistence.Participant, error) {
		row := conn.QueryRowContext(ctx,
			`SELECT `+participantColumns+` FROM Participant WHERE telegram_nickname = ? COLLATE NOCASE`, nickname)
		participant, err := scanParticipant(row)
		if err != nil {
			return persistence.Participant{}, r.storage.mapper.MapError(err)
		}
		return participant, nil
	})
}

// ListParticipants returns every participant ordered by id
func (r *ParticipantRepository) ListParticipants(ctx context.Context) ([]persistence.Participant, error) {
	return runValue(ctx, r.storage, func(ctx context.Context, conn *pool.Conn) ([]persistence.Participant, error) {
		rows, err := conn.QueryContext(ctx, `SELECT `+participantColumns+` FROM Participant ORDER BY id`)
		if err != nil {
			return nil, r.storage.mapper.MapError(err)
		}
		defer rows.Close()

		var participants []persistence.Participant
		for rows.Next() {
			participant, err := scanParticipant(rows)
			if err != nil {
				return nil, r.storage.mapper.MapError(err)
			}
			participants = append(participants, participant)
		}
		if err := rows.Err(); err != nil {
			return nil, r.storage.mapper.MapError(err)
		}
		return participants, nil
	})
}

// UpdateParticipant overwrites every field of an existing participant
func (r *ParticipantRepository) UpdateParticipant(ctx context.Context, participant persistence.Participant) error {
	participant.TelegramNickname = normalizeNickname(participant.TelegramNickname)
	if participant.ID <= 0 || participant.TelegramNickname == "" {
		return persistence.ErrConstraintViolation
	}

	return r.storage.run(ctx, func(ctx context.Context, conn *pool.Conn) error {
		result, err := conn.ExecContext(ctx, `
			UPDATE Participant
			SET telegram_nickname = ?, name = ?, surname = ?, age = ?, is_admin = ?, verst_id = ?
			WHERE id = ?
		`,
			participant.TelegramNickname,
			participant.Name,
			participant.Surname,
			participant.Age,
			participant.IsAdmin,
			participant.VerstID,
			participant.ID,
		)
		if err != nil {
			return r.storage.mapper.MapError(err)
		}
		return requireAffected(result.RowsAffected())
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParticipant(row rowScanner) (persistence.Participant, error) {
	var p persistence.Participant
	err := row.Scan(&p.ID, &p.TelegramNickname, &p.Name, &p.Surname, &p.Age, &p.IsAdmin, &p.VerstID)
	return p, err
}

func normalizeNickname(nickname string) string {
	return strings.TrimPrefix(strings.TrimSpace(nickname), "@")
}
