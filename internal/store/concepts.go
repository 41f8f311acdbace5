package store

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// Concept mirrors the concepts table row.
type Concept struct {
	ConceptID    int64
	ConceptName  string
	ConceptCode  string
	OriginSource string
	ActiveFlag   bool
}

// ConceptMembership mirrors the concept_memberships table row.
type ConceptMembership struct {
	TickerCode string
	ConceptID  int64
	Weight     float64
}

// VirtualBoardMapping mirrors the virtual_board_mappings table row.
type VirtualBoardMapping struct {
	ID                int64
	VirtualBoardName  string
	SourceConceptName string
	Weight            float64
	ActiveFlag        bool
}

// ConceptRepository handles concepts, concept_memberships, and
// virtual_board_mappings.
type ConceptRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// UpsertConcept inserts or, for an active concept with the same name,
// updates concept_code/origin_source. A retired concept's name may be
// reused by a newly introduced concept_id (see the partial unique index
// on active rows).
func (r *ConceptRepository) UpsertConcept(c Concept) (int64, error) {
	const selectQuery = `SELECT concept_id FROM concepts WHERE concept_name = ? AND active_flag = 1`
	var existingID int64
	err := r.db.QueryRow(selectQuery, c.ConceptName).Scan(&existingID)
	switch {
	case err == nil:
		_, updErr := r.db.Exec(`UPDATE concepts SET concept_code = ?, origin_source = ? WHERE concept_id = ?`,
			c.ConceptCode, c.OriginSource, existingID)
		if updErr != nil {
			return 0, fmt.Errorf("update concept %s: %w", c.ConceptName, updErr)
		}
		return existingID, nil
	case err == sql.ErrNoRows:
		res, insErr := r.db.Exec(`INSERT INTO concepts (concept_name, concept_code, origin_source, active_flag) VALUES (?, ?, ?, 1)`,
			c.ConceptName, c.ConceptCode, c.OriginSource)
		if insErr != nil {
			return 0, fmt.Errorf("insert concept %s: %w", c.ConceptName, insErr)
		}
		return res.LastInsertId()
	default:
		return 0, fmt.Errorf("lookup concept %s: %w", c.ConceptName, err)
	}
}

// ReplaceMemberships atomically replaces every membership row for
// conceptID with memberships.
func (r *ConceptRepository) ReplaceMemberships(conceptID int64, memberships []ConceptMembership) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM concept_memberships WHERE concept_id = ?`, conceptID); err != nil {
		return fmt.Errorf("clear memberships for concept %d: %w", conceptID, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO concept_memberships (ticker_code, concept_id, weight) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, m := range memberships {
		if m.Weight <= 0 || m.Weight > 1 {
			r.log.Warn().Int64("concept_id", conceptID).Str("ticker", m.TickerCode).Float64("weight", m.Weight).Msg("out-of-range membership weight, skipping")
			continue
		}
		if _, err := stmt.Exec(m.TickerCode, conceptID, m.Weight); err != nil {
			return fmt.Errorf("insert membership %s/%d: %w", m.TickerCode, conceptID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// MembershipsByConceptName returns the ticker codes belonging to the
// named active concept, used by the sector-flow synthesis fallback.
func (r *ConceptRepository) MembershipsByConceptName(conceptName string) ([]string, error) {
	const query = `
		SELECT cm.ticker_code FROM concept_memberships cm
		JOIN concepts c ON c.concept_id = cm.concept_id
		WHERE c.concept_name = ? AND c.active_flag = 1
	`
	rows, err := r.db.Query(query, conceptName)
	if err != nil {
		return nil, fmt.Errorf("memberships for concept %s: %w", conceptName, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan membership row: %w", err)
		}
		out = append(out, code)
	}
	return out, rows.Err()
}

// ListActiveConcepts returns every active concept.
func (r *ConceptRepository) ListActiveConcepts() ([]Concept, error) {
	const query = `SELECT concept_id, concept_name, concept_code, origin_source, active_flag FROM concepts WHERE active_flag = 1`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list active concepts: %w", err)
	}
	defer rows.Close()

	var out []Concept
	for rows.Next() {
		var c Concept
		if err := rows.Scan(&c.ConceptID, &c.ConceptName, &c.ConceptCode, &c.OriginSource, &c.ActiveFlag); err != nil {
			return nil, fmt.Errorf("scan concept row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpsertVirtualBoardMapping inserts one source-concept -> virtual-board
// projection row; an existing row for the same pair is not replaced.
func (r *ConceptRepository) UpsertVirtualBoardMapping(m VirtualBoardMapping) error {
	const query = `INSERT INTO virtual_board_mappings (virtual_board_name, source_concept_name, weight, active_flag) VALUES (?, ?, ?, ?)`
	_, err := r.db.Exec(query, m.VirtualBoardName, m.SourceConceptName, m.Weight, m.ActiveFlag)
	if err != nil {
		return fmt.Errorf("upsert virtual board mapping %s<-%s: %w", m.VirtualBoardName, m.SourceConceptName, err)
	}
	return nil
}

// VirtualBoardMappings returns every active mapping, used to resolve a
// virtual board back to its concrete concept names at query time.
func (r *ConceptRepository) VirtualBoardMappings() ([]VirtualBoardMapping, error) {
	const query = `SELECT id, virtual_board_name, source_concept_name, weight, active_flag FROM virtual_board_mappings WHERE active_flag = 1`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list virtual board mappings: %w", err)
	}
	defer rows.Close()

	var out []VirtualBoardMapping
	for rows.Next() {
		var m VirtualBoardMapping
		if err := rows.Scan(&m.ID, &m.VirtualBoardName, &m.SourceConceptName, &m.Weight, &m.ActiveFlag); err != nil {
			return nil, fmt.Errorf("scan virtual board mapping row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
