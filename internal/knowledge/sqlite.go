package knowledge

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// LoadSQLite reads a knowledge base from a SQLite medical database with the
// symptoms, diseases, disease_symptoms and treatments tables. The
// disease_symptoms probability column becomes the symptom weight.
func LoadSQLite(ctx context.Context, path string) (*Base, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge db: %w", err)
	}
	defer db.Close()

	return loadSQL(ctx, db)
}

func loadSQL(ctx context.Context, db *sql.DB) (*Base, error) {
	defs, err := querySymptoms(ctx, db)
	if err != nil {
		return nil, err
	}
	conds, ids, err := queryDiseases(ctx, db)
	if err != nil {
		return nil, err
	}
	problems, err := queryWeights(ctx, db, conds, ids)
	if err != nil {
		return nil, err
	}
	orphans, err := queryTreatments(ctx, db, conds, ids)
	if err != nil {
		return nil, err
	}
	if problems = append(problems, orphans...); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return New(defs, conds)
}

func querySymptoms(ctx context.Context, db *sql.DB) ([]SymptomDefinition, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name, category, COALESCE(is_emergency, 0)
		FROM symptoms
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symptoms: %w", err)
	}
	defer rows.Close()

	var defs []SymptomDefinition
	for rows.Next() {
		var d SymptomDefinition
		if err := rows.Scan(&d.Name, &d.Category, &d.Emergency); err != nil {
			return nil, fmt.Errorf("failed to scan symptom: %w", err)
		}
		d.DefaultWeight = 1
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

func queryDiseases(ctx context.Context, db *sql.DB) ([]ConditionRecord, map[int64]int, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, category, severity, COALESCE(description, '')
		FROM diseases
		ORDER BY id`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query diseases: %w", err)
	}
	defer rows.Close()

	var conds []ConditionRecord
	ids := make(map[int64]int)
	for rows.Next() {
		var (
			id int64
			c  ConditionRecord
		)
		if err := rows.Scan(&id, &c.Name, &c.Category, &c.Severity, &c.Description); err != nil {
			return nil, nil, fmt.Errorf("failed to scan disease: %w", err)
		}
		ids[id] = len(conds)
		conds = append(conds, c)
	}
	return conds, ids, rows.Err()
}

// queryWeights attaches symptom weights to conditions. Rows pointing at an
// unknown disease or symptom are returned as problems.
func queryWeights(ctx context.Context, db *sql.DB, conds []ConditionRecord, ids map[int64]int) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT ds.id, ds.disease_id, ds.symptom_id, s.name, ds.probability * COALESCE(ds.severity_modifier, 1.0)
		FROM disease_symptoms ds
		LEFT JOIN symptoms s ON s.id = ds.symptom_id
		ORDER BY ds.disease_id, ds.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query disease symptoms: %w", err)
	}
	defer rows.Close()

	var problems []string
	for rows.Next() {
		var (
			rowID, id, symptomID int64
			name                 sql.NullString
			weight               float64
		)
		if err := rows.Scan(&rowID, &id, &symptomID, &name, &weight); err != nil {
			return nil, fmt.Errorf("failed to scan disease symptom: %w", err)
		}
		idx, ok := ids[id]
		if !ok {
			problems = append(problems, fmt.Sprintf("disease_symptoms row %d references unknown disease %d", rowID, id))
			continue
		}
		if !name.Valid {
			problems = append(problems, fmt.Sprintf("disease_symptoms row %d references unknown symptom %d", rowID, symptomID))
			continue
		}
		conds[idx].Symptoms = append(conds[idx].Symptoms, WeightedSymptom{Symptom: name.String, Weight: weight})
	}
	return problems, rows.Err()
}

func queryTreatments(ctx context.Context, db *sql.DB, conds []ConditionRecord, ids map[int64]int) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, disease_id, treatment_type, description
		FROM treatments
		ORDER BY disease_id, priority DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query treatments: %w", err)
	}
	defer rows.Close()

	var problems []string
	for rows.Next() {
		var (
			rowID, id   int64
			kind, descr string
		)
		if err := rows.Scan(&rowID, &id, &kind, &descr); err != nil {
			return nil, fmt.Errorf("failed to scan treatment: %w", err)
		}
		idx, ok := ids[id]
		if !ok {
			problems = append(problems, fmt.Sprintf("treatments row %d references unknown disease %d", rowID, id))
			continue
		}
		rec := &conds[idx].Recommendations
		switch kind {
		case "emergency", "procedure":
			rec.Escalation = append(rec.Escalation, descr)
		case "medication":
			rec.Immediate = append(rec.Immediate, descr)
		default:
			rec.SelfCare = append(rec.SelfCare, descr)
		}
	}
	return problems, rows.Err()
}
