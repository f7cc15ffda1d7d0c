package catalogdata

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"vislog/pkg/catalog"
)

// pgSchema is the Postgres-flavored twin of sqliteSchema: same four tables
// and the same parent_entry_id/operator/position tree-flattening columns,
// rewritten with SERIAL identity columns and explicit ON DELETE CASCADE.
// Split into one statement per entry: the pgx stdlib driver runs schema
// application through the extended query protocol, which (unlike SQLite's
// Exec) rejects a single Exec call containing more than one statement.
var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS programs (
		program_id   SERIAL PRIMARY KEY,
		guid         TEXT UNIQUE NOT NULL,
		url          TEXT NOT NULL,
		title        TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS requirement_modules (
		module_id        SERIAL PRIMARY KEY,
		program_id       INTEGER NOT NULL REFERENCES programs(program_id) ON DELETE CASCADE,
		parent_module_id INTEGER REFERENCES requirement_modules(module_id) ON DELETE CASCADE,
		display_order    INTEGER NOT NULL,
		kind             TEXT NOT NULL,
		title            TEXT,
		label_title      TEXT,
		raw_json         TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS requirements (
		requirement_id SERIAL PRIMARY KEY,
		module_id      INTEGER NOT NULL REFERENCES requirement_modules(module_id) ON DELETE CASCADE,
		display_order  INTEGER NOT NULL,
		kind           TEXT NOT NULL,
		title          TEXT,
		narrative      TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS course_entries (
		entry_id        SERIAL PRIMARY KEY,
		requirement_id  INTEGER NOT NULL REFERENCES requirements(requirement_id) ON DELETE CASCADE,
		parent_entry_id INTEGER REFERENCES course_entries(entry_id) ON DELETE CASCADE,
		position        INTEGER NOT NULL,
		operator        TEXT NOT NULL DEFAULT 'NONE',
		kind            TEXT NOT NULL,
		guid            TEXT,
		url             TEXT,
		path            TEXT,
		subject_code    TEXT,
		subject_name    TEXT,
		number          TEXT,
		name            TEXT,
		credits_lower   INTEGER,
		credits_upper   INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_course_entries_requirement ON course_entries(requirement_id)`,
	`CREATE INDEX IF NOT EXISTS idx_course_entries_parent ON course_entries(parent_entry_id)`,
}

// pgStore is the opt-in Postgres backend, selected by StoreConfig.Driver ==
// "postgres". It satisfies the same Store interface as sqliteStore and
// shares its tree-flattening logic; only the SQL placeholder style and the
// way a freshly inserted row's ID is recovered differ (RETURNING instead of
// LastInsertId, which the pgx stdlib driver does not implement).
type pgStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool against dsn through the pgx/v5
// stdlib adapter, so the rest of this package can keep using database/sql
// rather than pgx's native pgx.Conn/pgxpool API.
func NewPostgresStore(ctx context.Context, dsn string) (Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot connect to db: %w", err)
	}
	for _, stmt := range pgSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &pgStore{db: db}, nil
}

func (s *pgStore) Close() error {
	return s.db.Close()
}

func (s *pgStore) SaveProgram(ctx context.Context, p *catalog.Program) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	guidStr := guidString(p.GUID)

	if _, err := tx.ExecContext(ctx, `DELETE FROM programs WHERE guid = $1`, guidStr); err != nil {
		return fmt.Errorf("clear existing program: %w", err)
	}

	var programID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO programs (guid, url, title) VALUES ($1, $2, $3) RETURNING program_id`,
		guidStr, p.URL, p.Title).Scan(&programID)
	if err != nil {
		return fmt.Errorf("insert program: %w", err)
	}

	if p.Requirements != nil {
		modules := flattenRequirements(*p.Requirements)
		for order, mod := range modules {
			if err := pgInsertModule(ctx, tx, programID, order, mod); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func pgInsertModule(ctx context.Context, tx *sql.Tx, programID int64, order int, mod catalog.RequirementModule) error {
	kind := mod.Kind.String()
	var rawJSON interface{}
	if len(mod.Raw) > 0 {
		rawJSON = string(mod.Raw)
	}

	var moduleID int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO requirement_modules (program_id, parent_module_id, display_order, kind, title, label_title, raw_json)
		 VALUES ($1, NULL, $2, $3, $4, $5, $6) RETURNING module_id`,
		programID, order, kind, nullableStringPtr(mod.Title), nullableString(mod.LabelTitle), rawJSON).Scan(&moduleID)
	if err != nil {
		return fmt.Errorf("insert module: %w", err)
	}

	var reqs []catalog.Requirement
	switch mod.Kind {
	case catalog.ModuleSingleBasicRequirement:
		if mod.Requirement != nil {
			reqs = []catalog.Requirement{*mod.Requirement}
		}
	case catalog.ModuleBasicRequirements:
		reqs = mod.Requirements
	case catalog.ModuleSelectOneEmphasis:
		reqs = mod.Emphases
	}

	for order, req := range reqs {
		if err := pgInsertRequirement(ctx, tx, moduleID, order, req); err != nil {
			return err
		}
	}
	return nil
}

func pgInsertRequirement(ctx context.Context, tx *sql.Tx, moduleID int64, order int, req catalog.Requirement) error {
	kind := req.Kind.String()

	var title interface{}
	var narrative interface{}
	var entries catalog.CourseEntries

	switch req.Kind {
	case catalog.RequirementCourses:
		title = nullableStringPtr(req.Title)
		entries = req.Courses
	case catalog.RequirementSelectFromCourses:
		title = nullableString(req.SelectTitle)
		if req.SelectCourses != nil {
			entries = *req.SelectCourses
		}
	case catalog.RequirementLabel:
		title = nullableStringPtr(req.Title)
		narrative = nullableStringPtr(req.Narrative)
	}

	var requirementID int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO requirements (module_id, display_order, kind, title, narrative)
		 VALUES ($1, $2, $3, $4, $5) RETURNING requirement_id`,
		moduleID, order, kind, title, narrative).Scan(&requirementID)
	if err != nil {
		return fmt.Errorf("insert requirement: %w", err)
	}

	for pos, entry := range entries {
		if _, err := pgInsertCourseEntry(ctx, tx, requirementID, nil, pos, entry); err != nil {
			return err
		}
	}
	return nil
}

func pgInsertCourseEntry(ctx context.Context, tx *sql.Tx, requirementID int64, parentEntryID *int64, position int, entry catalog.CourseEntry) (int64, error) {
	kind := entry.Kind.String()
	operator := "NONE"
	if entry.Kind == catalog.EntryAnd {
		operator = "AND"
	} else if entry.Kind == catalog.EntryOr {
		operator = "OR"
	}

	var guid, url, path, subjectCode, subjectName, number, name interface{}
	var lower, upper interface{}

	switch entry.Kind {
	case catalog.EntryCourse:
		c := entry.Course
		guid = guidString(c.GUID)
		url = c.URL
		path = c.Path
		subjectCode = c.SubjectCode
		subjectName = nullableString(c.SubjectName)
		number = fmt.Sprintf("%d", c.Number)
		name = nullableString(c.Name)
		lower = int(c.Credits.Lower)
		upper = nullableUint8Ptr(c.Credits.Upper)
	case catalog.EntryLabel:
		l := entry.Label
		guid = guidString(l.GUID)
		url = l.URL
		subjectCode = nullableString(l.SubjectCode)
		number = nullableString(l.Number)
		name = l.Name
		lower = int(l.Credits.Lower)
		upper = nullableUint8Ptr(l.Credits.Upper)
	}

	var entryID int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO course_entries
		   (requirement_id, parent_entry_id, position, operator, kind,
		    guid, url, path, subject_code, subject_name, number, name, credits_lower, credits_upper)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING entry_id`,
		requirementID, parentEntryID, position, operator, kind,
		guid, url, path, subjectCode, subjectName, number, name, lower, upper).Scan(&entryID)
	if err != nil {
		return 0, fmt.Errorf("insert course entry: %w", err)
	}

	for childPos, child := range entry.Group {
		if _, err := pgInsertCourseEntry(ctx, tx, requirementID, &entryID, childPos, child); err != nil {
			return 0, err
		}
	}
	return entryID, nil
}

func (s *pgStore) GetProgram(ctx context.Context, guid catalog.GUID) (*catalog.Program, error) {
	guidStr := guidString(guid)

	var p catalog.Program
	var programID int64
	row := s.db.QueryRowContext(ctx, `SELECT program_id, url, title FROM programs WHERE guid = $1`, guidStr)
	if err := row.Scan(&programID, &p.URL, &p.Title); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("load program: %w", err)
	}
	p.GUID = guid

	modules, err := s.loadModules(ctx, programID)
	if err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		return &p, nil
	}
	if len(modules) == 1 {
		m := modules[0]
		p.Requirements = &catalog.Requirements{Kind: catalog.RequirementsSingle, Single: &m}
	} else {
		p.Requirements = &catalog.Requirements{Kind: catalog.RequirementsMany, Many: modules}
	}
	return &p, nil
}

func (s *pgStore) loadModules(ctx context.Context, programID int64) ([]catalog.RequirementModule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT module_id, kind, title, label_title, raw_json
		   FROM requirement_modules
		  WHERE program_id = $1 AND parent_module_id IS NULL
		  ORDER BY display_order`, programID)
	if err != nil {
		return nil, fmt.Errorf("load modules: %w", err)
	}
	defer rows.Close()

	type scannedModule struct {
		id  int64
		mod catalog.RequirementModule
	}
	var scanned []scannedModule
	for rows.Next() {
		var id int64
		var kind string
		var title, labelTitle, rawJSON sql.NullString
		if err := rows.Scan(&id, &kind, &title, &labelTitle, &rawJSON); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		k, err := catalog.ParseModuleKind(kind)
		if err != nil {
			return nil, err
		}
		mod := catalog.RequirementModule{Kind: k}
		if title.Valid {
			t := title.String
			mod.Title = &t
		}
		if k == catalog.ModuleLabel {
			mod.LabelTitle = labelTitle.String
		}
		if k == catalog.ModuleUnimplemented && rawJSON.Valid {
			mod.Raw = []byte(rawJSON.String)
		}
		scanned = append(scanned, scannedModule{id: id, mod: mod})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]catalog.RequirementModule, len(scanned))
	for i, sm := range scanned {
		reqs, err := s.loadRequirements(ctx, sm.id)
		if err != nil {
			return nil, err
		}
		mod := sm.mod
		switch mod.Kind {
		case catalog.ModuleSingleBasicRequirement:
			if len(reqs) > 0 {
				mod.Requirement = &reqs[0]
			}
		case catalog.ModuleBasicRequirements:
			mod.Requirements = reqs
		case catalog.ModuleSelectOneEmphasis:
			mod.Emphases = reqs
		}
		out[i] = mod
	}
	return out, nil
}

func (s *pgStore) loadRequirements(ctx context.Context, moduleID int64) ([]catalog.Requirement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT requirement_id, kind, title, narrative
		   FROM requirements WHERE module_id = $1 ORDER BY display_order`, moduleID)
	if err != nil {
		return nil, fmt.Errorf("load requirements: %w", err)
	}
	defer rows.Close()

	type scannedReq struct {
		id  int64
		req catalog.Requirement
	}
	var scanned []scannedReq
	for rows.Next() {
		var id int64
		var kind string
		var title, narrative sql.NullString
		if err := rows.Scan(&id, &kind, &title, &narrative); err != nil {
			return nil, fmt.Errorf("scan requirement: %w", err)
		}
		k, err := catalog.ParseReqKind(kind)
		if err != nil {
			return nil, err
		}
		req := catalog.Requirement{Kind: k}
		switch k {
		case catalog.RequirementCourses:
			if title.Valid {
				t := title.String
				req.Title = &t
			}
		case catalog.RequirementSelectFromCourses:
			req.SelectTitle = title.String
		case catalog.RequirementLabel:
			if title.Valid {
				t := title.String
				req.Title = &t
			}
			if narrative.Valid {
				n := narrative.String
				req.Narrative = &n
			}
		}
		scanned = append(scanned, scannedReq{id: id, req: req})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]catalog.Requirement, len(scanned))
	for i, sr := range scanned {
		entries, err := s.loadCourseEntries(ctx, sr.id)
		if err != nil {
			return nil, err
		}
		req := sr.req
		switch req.Kind {
		case catalog.RequirementCourses:
			req.Courses = entries
		case catalog.RequirementSelectFromCourses:
			req.SelectCourses = &entries
		}
		out[i] = req
	}
	return out, nil
}

func (s *pgStore) loadCourseEntries(ctx context.Context, requirementID int64) (catalog.CourseEntries, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entry_id, parent_entry_id, position, kind, guid, url, path,
		        subject_code, subject_name, number, name, credits_lower, credits_upper
		   FROM course_entries WHERE requirement_id = $1 ORDER BY parent_entry_id, position`, requirementID)
	if err != nil {
		return nil, fmt.Errorf("load course entries: %w", err)
	}
	defer rows.Close()

	byID := map[int64]*entryRow{}
	childrenOf := map[int64][]int64{}
	var roots []int64

	for rows.Next() {
		var r entryRow
		var parent sql.NullInt64
		if err := rows.Scan(&r.id, &parent, &r.position, &r.kind, &r.guid, &r.url, &r.path,
			&r.subject, &r.subjectN, &r.number, &r.name, &r.lower, &r.upper); err != nil {
			return nil, fmt.Errorf("scan course entry: %w", err)
		}
		if parent.Valid {
			r.parent = &parent.Int64
			childrenOf[parent.Int64] = append(childrenOf[parent.Int64], r.id)
		} else {
			roots = append(roots, r.id)
		}
		byID[r.id] = &r
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var build func(id int64) catalog.CourseEntry
	build = func(id int64) catalog.CourseEntry {
		r := byID[id]
		parsedKind, _ := catalog.ParseEntryKind(r.kind)
		ce := catalog.CourseEntry{Kind: parsedKind}
		switch ce.Kind {
		case catalog.EntryCourse:
			ce.Course = rowToCourse(r)
		case catalog.EntryLabel:
			ce.Label = rowToLabel(r)
		case catalog.EntryAnd, catalog.EntryOr:
			for _, childID := range childrenOf[id] {
				ce.Group = append(ce.Group, build(childID))
			}
		}
		return ce
	}

	var out catalog.CourseEntries
	for _, id := range roots {
		out = append(out, build(id))
	}
	return out, nil
}

func (s *pgStore) ListPrograms(ctx context.Context) ([]ProgramSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT guid, url, title FROM programs ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	out := []ProgramSummary{}
	for rows.Next() {
		var p ProgramSummary
		if err := rows.Scan(&p.GUID, &p.URL, &p.Title); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *pgStore) SearchPrograms(ctx context.Context, q string) ([]ProgramSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT guid, url, title FROM programs WHERE title ILIKE $1 ORDER BY title`,
		"%"+q+"%")
	if err != nil {
		return nil, fmt.Errorf("search programs: %w", err)
	}
	defer rows.Close()

	out := []ProgramSummary{}
	for rows.Next() {
		var p ProgramSummary
		if err := rows.Scan(&p.GUID, &p.URL, &p.Title); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
