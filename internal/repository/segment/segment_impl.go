package segment

import (
	"context"
	"errors"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/common"
	"github.com/jackc/pgx/v5"
)

const selectColumns = `id, content_id, position, start_time, end_time, transcript, keywords,
	importance_score, engagement_prediction, selected`

var copyColumns = []string{
	"id", "content_id", "position", "start_time", "end_time", "transcript", "keywords",
	"importance_score", "engagement_prediction", "selected",
}

// querier is satisfied by both the pool and a transaction
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// segmentRepository implements Repository using PostgreSQL
type segmentRepository struct {
	pool common.Pool
}

// NewRepository creates a new instance of Repository
func NewRepository(pool common.Pool) Repository {
	return &segmentRepository{
		pool: pool,
	}
}

// ReplaceAll deletes and re-inserts the segment set inside one transaction.
// The content row is locked first so concurrent replacers serialize.
func (r *segmentRepository) ReplaceAll(ctx context.Context, contentID string, segments []model.VideoSegment) (bool, error) {
	changed := false
	err := common.WithTx(ctx, r.pool, "failed to replace segments", func(tx pgx.Tx) error {
		var locked string
		err := tx.QueryRow(ctx, "SELECT id FROM contents WHERE id = $1 FOR UPDATE", contentID).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.Newf(apperrors.CodeNotFound, "content not found: %s", contentID)
			}
			return common.HandlePostgreSQLError(err, "failed to lock content")
		}

		existing, err := listByContent(ctx, tx, contentID, false)
		if err != nil {
			return err
		}
		if model.SegmentsEqual(existing, segments) {
			return nil
		}

		if _, err := tx.Exec(ctx, "DELETE FROM video_segments WHERE content_id = $1", contentID); err != nil {
			return common.HandlePostgreSQLError(err, "failed to delete segments")
		}

		if len(segments) > 0 {
			rows := make([][]any, len(segments))
			for i, s := range segments {
				rows[i] = []any{
					s.ID,
					s.ContentID,
					s.Position,
					s.StartTime,
					s.EndTime,
					s.Transcript,
					keywordsOrEmpty(s.Keywords),
					s.ImportanceScore,
					s.EngagementPrediction,
					s.Selected,
				}
			}

			if _, err := tx.CopyFrom(ctx, pgx.Identifier{"video_segments"}, copyColumns, pgx.CopyFromRows(rows)); err != nil {
				return common.HandlePostgreSQLError(err, "failed to insert segments")
			}
		}

		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

// ListByContent retrieves all segments of a content item ordered by position
func (r *segmentRepository) ListByContent(ctx context.Context, contentID string) ([]model.VideoSegment, error) {
	return listByContent(ctx, r.pool, contentID, false)
}

func listByContent(ctx context.Context, q querier, contentID string, forUpdate bool) ([]model.VideoSegment, error) {
	sql := `SELECT ` + selectColumns + ` FROM video_segments
		WHERE content_id = $1
		ORDER BY position, id`
	if forUpdate {
		sql += ` FOR UPDATE`
	}

	rows, err := q.Query(ctx, sql, contentID)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to get segments")
	}
	defer rows.Close()

	segments := []model.VideoSegment{}
	for rows.Next() {
		segment, err := scanSegment(rows)
		if err != nil {
			return nil, common.HandlePostgreSQLError(err, "failed to scan segment")
		}
		segments = append(segments, *segment)
	}
	if err := rows.Err(); err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to iterate segments")
	}

	return segments, nil
}

// GetByID retrieves one segment of a content item
func (r *segmentRepository) GetByID(ctx context.Context, contentID, segmentID string) (*model.VideoSegment, error) {
	sql := `SELECT ` + selectColumns + ` FROM video_segments WHERE content_id = $1 AND id = $2`

	segment, err := scanSegment(r.pool.QueryRow(ctx, sql, contentID, segmentID))
	if err != nil {
		return nil, notFoundOr(err, segmentID, "failed to get segment")
	}
	return segment, nil
}

// Insert appends a segment and fills in its position
func (r *segmentRepository) Insert(ctx context.Context, segment *model.VideoSegment) error {
	sql := `INSERT INTO video_segments
		(id, content_id, position, start_time, end_time, transcript, keywords,
		 importance_score, engagement_prediction, selected)
		VALUES ($1, $2,
			(SELECT COALESCE(MAX(position) + 1, 0) FROM video_segments WHERE content_id = $2),
			$3, $4, $5, $6, $7, $8, $9)
		RETURNING position`

	err := r.pool.QueryRow(ctx, sql,
		segment.ID,
		segment.ContentID,
		segment.StartTime,
		segment.EndTime,
		segment.Transcript,
		keywordsOrEmpty(segment.Keywords),
		segment.ImportanceScore,
		segment.EngagementPrediction,
		segment.Selected,
	).Scan(&segment.Position)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to insert segment")
	}
	return nil
}

// UpdateBounds commits new geometry for a segment
func (r *segmentRepository) UpdateBounds(ctx context.Context, contentID, segmentID string, start, end float64) (*model.VideoSegment, error) {
	sql := `UPDATE video_segments SET start_time = $3, end_time = $4
		WHERE content_id = $1 AND id = $2
		RETURNING ` + selectColumns

	segment, err := scanSegment(r.pool.QueryRow(ctx, sql, contentID, segmentID, start, end))
	if err != nil {
		return nil, notFoundOr(err, segmentID, "failed to update segment bounds")
	}
	return segment, nil
}

// ToggleSelected flips the selected flag in a single statement
func (r *segmentRepository) ToggleSelected(ctx context.Context, contentID, segmentID string) (*model.VideoSegment, error) {
	sql := `UPDATE video_segments SET selected = NOT selected
		WHERE content_id = $1 AND id = $2
		RETURNING ` + selectColumns

	segment, err := scanSegment(r.pool.QueryRow(ctx, sql, contentID, segmentID))
	if err != nil {
		return nil, notFoundOr(err, segmentID, "failed to toggle segment selection")
	}
	return segment, nil
}

// Rescore locks the segment rows of a content item, scores them and updates
// the two score columns. Toggles and bound edits wait for the lock and then
// apply on top instead of being overwritten.
func (r *segmentRepository) Rescore(ctx context.Context, contentID string, score func([]model.VideoSegment) []model.VideoSegment) ([]model.VideoSegment, error) {
	var rescored []model.VideoSegment
	err := common.WithTx(ctx, r.pool, "failed to rescore segments", func(tx pgx.Tx) error {
		current, err := listByContent(ctx, tx, contentID, true)
		if err != nil {
			return err
		}

		rescored = mergeScores(current, score(current))
		for _, seg := range rescored {
			_, err := tx.Exec(ctx, `UPDATE video_segments SET importance_score = $3, engagement_prediction = $4
				WHERE content_id = $1 AND id = $2`,
				contentID, seg.ID, seg.ImportanceScore, seg.EngagementPrediction)
			if err != nil {
				return common.HandlePostgreSQLError(err, "failed to update segment scores")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rescored, nil
}

// DeleteByContent deletes all segments of a content item
func (r *segmentRepository) DeleteByContent(ctx context.Context, contentID string) error {
	sql := "DELETE FROM video_segments WHERE content_id = $1"
	_, err := r.pool.Exec(ctx, sql, contentID)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to delete segments")
	}
	return nil
}

func scanSegment(row pgx.Row) (*model.VideoSegment, error) {
	var segment model.VideoSegment
	err := row.Scan(
		&segment.ID,
		&segment.ContentID,
		&segment.Position,
		&segment.StartTime,
		&segment.EndTime,
		&segment.Transcript,
		&segment.Keywords,
		&segment.ImportanceScore,
		&segment.EngagementPrediction,
		&segment.Selected,
	)
	if err != nil {
		return nil, err
	}
	if segment.Keywords == nil {
		segment.Keywords = []string{}
	}
	return &segment, nil
}

func notFoundOr(err error, segmentID, operation string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.Newf(apperrors.CodeNotFound, "segment not found: %s", segmentID)
	}
	return common.HandlePostgreSQLError(err, operation)
}

// mergeScores copies the scores of scored onto current by segment ID and
// leaves every other field as stored
func mergeScores(current, scored []model.VideoSegment) []model.VideoSegment {
	byID := make(map[string]model.VideoSegment, len(scored))
	for _, seg := range scored {
		byID[seg.ID] = seg
	}

	out := make([]model.VideoSegment, len(current))
	for i, seg := range current {
		out[i] = seg.Clone()
		if s, ok := byID[seg.ID]; ok {
			out[i].ImportanceScore = s.ImportanceScore
			out[i].EngagementPrediction = s.EngagementPrediction
		}
	}
	return out
}

func keywordsOrEmpty(keywords []string) []string {
	if keywords == nil {
		return []string{}
	}
	return keywords
}
