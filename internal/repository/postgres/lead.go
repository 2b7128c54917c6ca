package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/omegatable/outreach/internal/domain"
)

const leadColumns = `
	id, COALESCE(market_region,''),
	COALESCE(contact1_name,''), COALESCE(contact1_email,''),
	COALESCE(contact2_name,''), COALESCE(contact2_email,''),
	COALESCE(contact3_name,''), COALESCE(contact3_email,''),
	COALESCE(agent_name,''), COALESCE(agent_email,''),
	COALESCE(property_address,''), COALESCE(property_city,''),
	COALESCE(property_state,''), COALESCE(property_zip,''),
	COALESCE(assessed_total,0), COALESCE(wholesale_value,0),
	COALESCE(status,''), created_at, updated_at`

func scanLead(row interface{ Scan(...interface{}) error }) (*domain.Lead, error) {
	l := &domain.Lead{}
	err := row.Scan(
		&l.ID, &l.MarketRegion,
		&l.Contact1Name, &l.Contact1Email,
		&l.Contact2Name, &l.Contact2Email,
		&l.Contact3Name, &l.Contact3Email,
		&l.AgentName, &l.AgentEmail,
		&l.PropertyAddress, &l.PropertyCity,
		&l.PropertyState, &l.PropertyZip,
		&l.AssessedTotal, &l.WholesaleValue,
		&l.Status, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// NextLead selects the oldest lead without a job row for the campaign. The
// anti-join on campaign_jobs is what makes a restarted loop skip leads that
// are already in flight or done.
func (s *Store) NextLead(ctx context.Context, campaignID, marketRegion string) (*domain.Lead, error) {
	q := `
		SELECT ` + leadColumns + `
		FROM leads l
		WHERE NOT EXISTS (
			SELECT 1 FROM campaign_jobs j
			WHERE j.campaign_id = $1 AND j.lead_id = l.id
		)`
	args := []interface{}{campaignID}
	if marketRegion != "" {
		q += ` AND l.market_region = $2`
		args = append(args, marketRegion)
	}
	q += ` ORDER BY l.id ASC LIMIT 1`

	lead, err := scanLead(s.db.QueryRowContext(ctx, q, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next lead: %w", err)
	}
	return lead, nil
}

func (s *Store) UpdateLeadStatus(ctx context.Context, leadID int64, status domain.LeadStatus) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE leads SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, leadID)
	if err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}
	return nil
}

// InsertLeads batch-inserts leads in one multi-row statement. Returns the
// number of rows written.
func (s *Store) InsertLeads(ctx context.Context, leads []*domain.Lead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	cols := []string{
		"market_region",
		"contact1_name", "contact1_email",
		"contact2_name", "contact2_email",
		"contact3_name", "contact3_email",
		"agent_name", "agent_email",
		"property_address", "property_city", "property_state", "property_zip",
		"assessed_total", "wholesale_value",
	}

	placeholders := make([]string, 0, len(leads))
	args := make([]interface{}, 0, len(leads)*len(cols))
	for i, l := range leads {
		row := make([]string, len(cols))
		for j := range cols {
			row[j] = fmt.Sprintf("$%d", i*len(cols)+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(row, ", ")+")")
		args = append(args,
			l.MarketRegion,
			l.Contact1Name, l.Contact1Email,
			l.Contact2Name, l.Contact2Email,
			l.Contact3Name, l.Contact3Email,
			l.AgentName, l.AgentEmail,
			l.PropertyAddress, l.PropertyCity, l.PropertyState, l.PropertyZip,
			l.AssessedTotal, l.WholesaleValue,
		)
	}

	q := fmt.Sprintf(`
		INSERT INTO leads (%s, created_at, updated_at)
		VALUES %s
	`, strings.Join(cols, ", "), withTimestamps(placeholders))

	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("insert leads: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// withTimestamps appends NOW(), NOW() inside each values tuple.
func withTimestamps(placeholders []string) string {
	out := make([]string, len(placeholders))
	for i, p := range placeholders {
		out[i] = strings.TrimSuffix(p, ")") + ", NOW(), NOW())"
	}
	return strings.Join(out, ", ")
}

// ListLeads returns leads for the region, newest first. An empty region
// lists everything.
func (s *Store) ListLeads(ctx context.Context, marketRegion string, limit, offset int) ([]domain.Lead, error) {
	if limit <= 0 {
		limit = 100
	}

	q := `SELECT ` + leadColumns + ` FROM leads l`
	args := []interface{}{}
	idx := 1
	if marketRegion != "" {
		q += fmt.Sprintf(" WHERE l.market_region = $%d", idx)
		args = append(args, marketRegion)
		idx++
	}
	q += fmt.Sprintf(" ORDER BY l.id DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []domain.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}
