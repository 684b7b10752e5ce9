package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rpggio/gmboard/internal/domain/campaign"
	"github.com/rpggio/gmboard/internal/repository"
)

var _ campaign.Repository = (*CampaignRepository)(nil)

// CampaignRepository implements campaign.Repository for SQLite
type CampaignRepository struct {
	db *DB
}

// NewCampaignRepository creates a new CampaignRepository
func NewCampaignRepository(db *DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// List returns all campaigns with their characters in insertion order
func (r *CampaignRepository) List(ctx context.Context) ([]campaign.Campaign, error) {
	query := `
		SELECT id, name, system, created_at
		FROM campaigns
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	campaigns := []campaign.Campaign{}
	index := map[int64]int{}
	for rows.Next() {
		var c campaign.Campaign
		if err := rows.Scan(&c.ID, &c.Name, &c.System, &c.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		c.Characters = []campaign.Character{}
		index[c.ID] = len(campaigns)
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating campaign rows: %w", err)
	}
	rows.Close()

	query = `
		SELECT campaign_id, id, name, icon, color, visible, stats
		FROM characters
		ORDER BY campaign_id ASC, position ASC
	`
	charRows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	defer charRows.Close()

	for charRows.Next() {
		campaignID, ch, err := scanCharacter(charRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[campaignID]; ok {
			campaigns[i].Characters = append(campaigns[i].Characters, ch)
		}
	}
	if err := charRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating character rows: %w", err)
	}

	return campaigns, nil
}

// Get retrieves a campaign and its characters by ID
func (r *CampaignRepository) Get(ctx context.Context, id int64) (*campaign.Campaign, error) {
	return getCampaign(ctx, r.db, id)
}

func getCampaign(ctx context.Context, q queryer, id int64) (*campaign.Campaign, error) {
	query := `
		SELECT id, name, system, created_at
		FROM campaigns
		WHERE id = ?
	`

	var c campaign.Campaign
	err := q.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.System, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	chars, err := listCharacters(ctx, q, id)
	if err != nil {
		return nil, err
	}
	c.Characters = chars

	return &c, nil
}

func listCharacters(ctx context.Context, q queryer, campaignID int64) ([]campaign.Character, error) {
	query := `
		SELECT campaign_id, id, name, icon, color, visible, stats
		FROM characters
		WHERE campaign_id = ?
		ORDER BY position ASC
	`

	rows, err := q.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	defer rows.Close()

	chars := []campaign.Character{}
	for rows.Next() {
		_, ch, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		chars = append(chars, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating character rows: %w", err)
	}
	return chars, nil
}

// AppendCampaign inserts a campaign with the next free id
func (r *CampaignRepository) AppendCampaign(ctx context.Context, c campaign.Campaign) (*campaign.Campaign, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM campaigns`).Scan(&id); err != nil {
		return nil, fmt.Errorf("failed to allocate campaign id: %w", err)
	}

	query := `
		INSERT INTO campaigns (id, name, system, created_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query, id, c.Name, c.System, c.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", mapWriteError(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	out := c.Clone()
	out.ID = id
	if out.Characters == nil {
		out.Characters = []campaign.Character{}
	}
	return &out, nil
}

// UpdateCampaign changes a campaign's name and system
func (r *CampaignRepository) UpdateCampaign(ctx context.Context, id int64, name, system string) (*campaign.Campaign, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `UPDATE campaigns SET name = ?, system = ? WHERE id = ?`, name, system, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return nil, repository.ErrNotFound
	}

	c, err := getCampaign(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return c, nil
}

// GetCharacter retrieves one character of a campaign
func (r *CampaignRepository) GetCharacter(ctx context.Context, campaignID, characterID int64) (*campaign.Character, error) {
	return getCharacter(ctx, r.db, campaignID, characterID)
}

func getCharacter(ctx context.Context, q queryer, campaignID, characterID int64) (*campaign.Character, error) {
	query := `
		SELECT campaign_id, id, name, icon, color, visible, stats
		FROM characters
		WHERE campaign_id = ? AND id = ?
	`

	rows, err := q.QueryContext(ctx, query, campaignID, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get character: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to get character: %w", err)
		}
		return nil, repository.ErrNotFound
	}
	_, ch, err := scanCharacter(rows)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// AppendCharacter inserts a character with id max(existing)+1 within the campaign
func (r *CampaignRepository) AppendCharacter(ctx context.Context, campaignID int64, c campaign.Character) (*campaign.Character, error) {
	stats, err := encodeStats(c.Stats)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns WHERE id = ?`, campaignID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check campaign: %w", err)
	}
	if exists == 0 {
		return nil, repository.ErrNotFound
	}

	var id, position int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(id), 0) + 1, COALESCE(MAX(position), 0) + 1 FROM characters WHERE campaign_id = ?`,
		campaignID,
	).Scan(&id, &position)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate character id: %w", err)
	}

	query := `
		INSERT INTO characters (campaign_id, id, name, icon, color, visible, stats, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query, campaignID, id, c.Name, c.Icon, c.Color, c.Visible, stats, position); err != nil {
		return nil, fmt.Errorf("failed to create character: %w", mapWriteError(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	out := c.Clone()
	out.ID = id
	if out.Stats == nil {
		out.Stats = []campaign.Stat{}
	}
	return &out, nil
}

// UpsertCharacter merges a patch into the stored character in one transaction
func (r *CampaignRepository) UpsertCharacter(ctx context.Context, campaignID, characterID int64, patch campaign.CharacterPatch, clamp campaign.ClampPolicy) (*campaign.Character, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getCharacter(ctx, tx, campaignID, characterID)
	if err != nil {
		return nil, err
	}

	merged, err := current.MergeClamped(patch, clamp)
	if err != nil {
		return nil, err
	}

	stats, err := encodeStats(merged.Stats)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE characters
		SET name = ?, icon = ?, color = ?, visible = ?, stats = ?
		WHERE campaign_id = ? AND id = ?
	`
	if _, err := tx.ExecContext(ctx, query,
		merged.Name,
		merged.Icon,
		merged.Color,
		merged.Visible,
		stats,
		campaignID,
		characterID,
	); err != nil {
		return nil, fmt.Errorf("failed to update character: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &merged, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCharacter(row rowScanner) (int64, campaign.Character, error) {
	var (
		campaignID int64
		ch         campaign.Character
		stats      string
	)
	if err := row.Scan(&campaignID, &ch.ID, &ch.Name, &ch.Icon, &ch.Color, &ch.Visible, &stats); err != nil {
		return 0, campaign.Character{}, fmt.Errorf("failed to scan character: %w", err)
	}
	decoded, err := decodeStats(stats)
	if err != nil {
		return 0, campaign.Character{}, fmt.Errorf("character %d/%d: %w", campaignID, ch.ID, err)
	}
	ch.Stats = decoded
	return campaignID, ch, nil
}

func encodeStats(stats []campaign.Stat) (string, error) {
	if stats == nil {
		stats = []campaign.Stat{}
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return "", fmt.Errorf("failed to encode stats: %w", err)
	}
	return string(data), nil
}

func decodeStats(data string) ([]campaign.Stat, error) {
	stats := []campaign.Stat{}
	if data == "" {
		return stats, nil
	}
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return nil, fmt.Errorf("failed to decode stats: %w", err)
	}
	return stats, nil
}
