// Package ingest parses uploaded lead CSVs into lead rows. Exports from the
// county assessor portals and the MLS all use different header spellings, so
// columns are matched against an alias table rather than exact names.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/omegatable/outreach/internal/domain"
)

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrNoAddressColumn = errors.New("property address column is required")
	ErrNoContactColumn = errors.New("at least one contact email column is required")
)

// BatchInsertSize is the number of leads written per batch.
const BatchInsertSize = 500

// Common header aliases for auto-mapping
var headerAliases = map[string][]string{
	"market_region":    {"market_region", "market", "region", "metro"},
	"contact1_name":    {"contact1_name", "owner_name", "owner1_name", "owner", "owner_1"},
	"contact1_email":   {"contact1_email", "owner_email", "owner1_email", "email", "email_1"},
	"contact2_name":    {"contact2_name", "owner2_name", "co_owner", "owner_2"},
	"contact2_email":   {"contact2_email", "owner2_email", "email_2"},
	"contact3_name":    {"contact3_name", "owner3_name", "owner_3"},
	"contact3_email":   {"contact3_email", "owner3_email", "email_3"},
	"agent_name":       {"agent_name", "listing_agent", "agent", "mls_agent"},
	"agent_email":      {"agent_email", "listing_agent_email", "mls_agent_email"},
	"property_address": {"property_address", "address", "street_address", "situs_address", "site_address"},
	"property_city":    {"property_city", "city", "situs_city"},
	"property_state":   {"property_state", "state", "situs_state"},
	"property_zip":     {"property_zip", "zip", "zipcode", "zip_code", "postal_code", "situs_zip"},
	"assessed_total":   {"assessed_total", "assessed_value", "total_assessed", "assessment"},
	"wholesale_value":  {"wholesale_value", "wholesale", "arv", "offer_basis"},
}

// LeadWriter persists parsed leads in batches.
type LeadWriter interface {
	InsertLeads(ctx context.Context, leads []*domain.Lead) (int, error)
}

// Result summarizes one import run.
type Result struct {
	Total    int      `json:"total"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// Importer streams lead CSVs into a writer.
type Importer struct {
	writer LeadWriter
}

// NewImporter creates an importer over the given writer.
func NewImporter(writer LeadWriter) *Importer {
	return &Importer{writer: writer}
}

// columnMap maps lead field names to CSV column indexes.
type columnMap map[string]int

// mapHeaders resolves the header row against the alias table. Unknown
// columns are ignored.
func mapHeaders(headers []string) (columnMap, error) {
	if len(headers) == 0 {
		return nil, ErrEmptyFile
	}

	cols := make(columnMap)
	for i, h := range headers {
		key := normalizeHeader(h)
		for field, aliases := range headerAliases {
			if _, taken := cols[field]; taken {
				continue
			}
			for _, alias := range aliases {
				if key == alias {
					cols[field] = i
					break
				}
			}
		}
	}

	if _, ok := cols["property_address"]; !ok {
		return nil, ErrNoAddressColumn
	}
	if _, ok := cols["contact1_email"]; !ok {
		if _, ok := cols["agent_email"]; !ok {
			return nil, ErrNoContactColumn
		}
	}
	return cols, nil
}

// Import streams the CSV, parses each row into a lead, and writes batches.
// Rows without any usable (name, email) contact pair are skipped, not
// failed; a single bad row never aborts the run.
func (im *Importer) Import(ctx context.Context, r io.Reader, marketRegion string) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}

	cols, err := mapHeaders(headers)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	batch := make([]*domain.Lead, 0, BatchInsertSize)
	line := 1

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := im.writer.InsertLeads(ctx, batch)
		if err != nil {
			return fmt.Errorf("insert lead batch: %w", err)
		}
		result.Imported += n
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		result.Total++

		lead := parseLead(record, cols, marketRegion)
		if !hasRecipient(lead) {
			result.Skipped++
			continue
		}

		batch = append(batch, lead)
		if len(batch) >= BatchInsertSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}

	if err := flush(); err != nil {
		return result, err
	}

	log.Printf("[Ingest] imported %d/%d leads (%d skipped)", result.Imported, result.Total, result.Skipped)
	return result, nil
}

func parseLead(record []string, cols columnMap, marketRegion string) *domain.Lead {
	get := func(field string) string {
		i, ok := cols[field]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	lead := &domain.Lead{
		MarketRegion:    get("market_region"),
		Contact1Name:    get("contact1_name"),
		Contact1Email:   strings.ToLower(get("contact1_email")),
		Contact2Name:    get("contact2_name"),
		Contact2Email:   strings.ToLower(get("contact2_email")),
		Contact3Name:    get("contact3_name"),
		Contact3Email:   strings.ToLower(get("contact3_email")),
		AgentName:       get("agent_name"),
		AgentEmail:      strings.ToLower(get("agent_email")),
		PropertyAddress: get("property_address"),
		PropertyCity:    get("property_city"),
		PropertyState:   get("property_state"),
		PropertyZip:     get("property_zip"),
		AssessedTotal:   parseMoney(get("assessed_total")),
		WholesaleValue:  parseMoney(get("wholesale_value")),
	}
	if lead.MarketRegion == "" {
		lead.MarketRegion = marketRegion
	}
	return lead
}

// hasRecipient reports whether at least one contact slot would survive
// recipient filtering.
func hasRecipient(lead *domain.Lead) bool {
	pairs := [][2]string{
		{lead.Contact1Name, lead.Contact1Email},
		{lead.Contact2Name, lead.Contact2Email},
		{lead.Contact3Name, lead.Contact3Email},
		{lead.AgentName, lead.AgentEmail},
	}
	for _, p := range pairs {
		if p[0] != "" && p[1] != "" && strings.Contains(p[1], "@") {
			return true
		}
	}
	return false
}

// parseMoney tolerates "$1,234,567.89" style values.
func parseMoney(s string) float64 {
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func normalizeHeader(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "-", "_")
	return strings.Trim(h, "_\uFEFF")
}
